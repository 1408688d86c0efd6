package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTask(t *testing.T) {
	task := NewTask("title", "")
	assert.NotEmpty(t, task.ID)
	assert.True(t, task.IsActive())
	assert.False(t, task.CreatedAt.IsZero())
	assert.Equal(t, task.CreatedAt, task.UpdatedAt)
	assert.False(t, task.IsEmpty())
	assert.True(t, NewTask(" ", "\t").IsEmpty())
}

func TestTitleForList(t *testing.T) {
	assert.Equal(t, "title", NewTask("title", "desc").TitleForList())
	assert.Equal(t, "desc", NewTask("", "desc").TitleForList())
}

func TestWithCompletedReturnsCopy(t *testing.T) {
	task := NewTask("a", "")
	done := task.WithCompleted(true)

	assert.True(t, done.Completed)
	assert.False(t, task.Completed)
	assert.True(t, task.Same(done))
	assert.Equal(t, task.CreatedAt, done.CreatedAt)
}

func TestTaskListFilter(t *testing.T) {
	active := NewTask("a", "")
	done := NewTask("b", "").WithCompleted(true)
	list := Loaded([]Task{active, done})

	completed := list.Filter(func(t Task) bool { return t.Completed })
	require.Equal(t, ListLoaded, completed.State)
	require.Len(t, completed.Tasks, 1)
	assert.Equal(t, done.ID, completed.Tasks[0].ID)

	none := Loaded([]Task{active}).Filter(func(t Task) bool { return t.Completed })
	assert.Equal(t, ListLoaded, none.State)
	assert.NotNil(t, none.Tasks)
	assert.Empty(t, none.Tasks)

	assert.Equal(t, Unavailable(), Unavailable().Filter(func(Task) bool { return true }))
	assert.False(t, Empty().HasData())
	assert.NotNil(t, Loaded(nil).Tasks)
}

func TestListStateJSON(t *testing.T) {
	out, err := json.Marshal(Empty())
	require.NoError(t, err)
	assert.JSONEq(t, `{"state":"empty","tasks":null}`, string(out))
}

func TestErrorMatching(t *testing.T) {
	wrapped := WrapError(ErrCodeUnavailable, "lookup failed", errors.New("dial tcp"))
	assert.True(t, IsDomainError(wrapped, ErrCodeUnavailable))
	assert.False(t, errors.Is(wrapped, ErrTaskNotFound))
	assert.True(t, errors.Is(NewError(ErrCodeNotFound, "task not found"), ErrTaskNotFound))
	assert.Contains(t, wrapped.Error(), "dial tcp")
}
