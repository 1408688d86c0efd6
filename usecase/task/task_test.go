package task

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/taskstore/domain"
	"github.com/fastygo/taskstore/repository"
	"github.com/fastygo/taskstore/repository/memory"
)

func seeded(title string, completed bool, offset time.Duration) domain.Task {
	t := domain.NewTask(title, "")
	t.Completed = completed
	t.CreatedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(offset)
	return t
}

func newUseCase(t *testing.T, tasks ...domain.Task) (*UseCase, *memory.Source, *memory.Source) {
	t.Helper()
	remote := memory.NewSource(0, tasks...)
	local := memory.NewSource(0)
	return New(repository.NewTasks(remote, local), nil), remote, local
}

func TestListTasksFilters(t *testing.T) {
	uc, _, _ := newUseCase(t,
		seeded("a", false, 0),
		seeded("b", true, time.Second),
		seeded("c", false, 2*time.Second),
	)
	ctx := context.Background()

	all := uc.ListTasks(ctx, FilterAll)
	require.Equal(t, domain.ListLoaded, all.State)
	assert.Len(t, all.Tasks, 3)

	active := uc.ListTasks(ctx, FilterActive)
	require.Equal(t, domain.ListLoaded, active.State)
	require.Len(t, active.Tasks, 2)
	assert.Equal(t, "a", active.Tasks[0].Title)
	assert.Equal(t, "c", active.Tasks[1].Title)

	completed := uc.ListTasks(ctx, FilterCompleted)
	require.Len(t, completed.Tasks, 1)
	assert.Equal(t, "b", completed.Tasks[0].Title)
}

func TestListTasksFilterWithNoMatchesIsLoaded(t *testing.T) {
	uc, _, _ := newUseCase(t, seeded("a", false, 0))

	list := uc.ListTasks(context.Background(), FilterCompleted)
	assert.Equal(t, domain.ListLoaded, list.State)
	assert.NotNil(t, list.Tasks)
	assert.Empty(t, list.Tasks)
}

func TestListTasksEmptyAndUnavailable(t *testing.T) {
	uc, remote, _ := newUseCase(t)
	ctx := context.Background()

	assert.Equal(t, domain.ListEmpty, uc.ListTasks(ctx, FilterActive).State)

	remote.SetUnavailable(true)
	assert.Equal(t, domain.ListUnavailable, uc.ListTasks(ctx, FilterAll).State)
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter("")
	require.NoError(t, err)
	assert.Equal(t, FilterAll, f)

	f, err = ParseFilter(" active ")
	require.NoError(t, err)
	assert.Equal(t, FilterActive, f)

	_, err = ParseFilter("later")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
}

func TestCreateTaskValidates(t *testing.T) {
	uc, remote, local := newUseCase(t)
	ctx := context.Background()

	_, err := uc.CreateTask(ctx, Input{Title: "  "})
	assert.ErrorIs(t, err, domain.ErrEmptyTask)
	assert.Zero(t, remote.Len())

	created, err := uc.CreateTask(ctx, Input{Description: "only a description"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, 1, remote.Len())
	assert.Equal(t, 1, local.Len())
}

func TestUpdateTaskKeepsCompletion(t *testing.T) {
	done := seeded("old", true, 0)
	uc, remote, _ := newUseCase(t, done)
	ctx := context.Background()

	updated, err := uc.UpdateTask(ctx, done.ID, Input{Title: "new", Description: "d"})
	require.NoError(t, err)
	assert.Equal(t, done.ID, updated.ID)
	assert.True(t, updated.Completed)
	assert.Equal(t, done.CreatedAt, updated.CreatedAt)

	stored, err := remote.Get(ctx, done.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", stored.Title)

	_, err = uc.UpdateTask(ctx, done.ID, Input{})
	assert.ErrorIs(t, err, domain.ErrEmptyTask)

	_, err = uc.UpdateTask(ctx, "missing", Input{Title: "x"})
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestCompleteAndActivateUncachedTask(t *testing.T) {
	task := seeded("a", false, 0)
	uc, remote, _ := newUseCase(t, task)
	ctx := context.Background()

	require.NoError(t, uc.CompleteTask(ctx, task.ID))
	stored, err := remote.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, stored.Completed)

	require.NoError(t, uc.ActivateTask(ctx, task.ID))
	stored, err = remote.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.False(t, stored.Completed)

	assert.ErrorIs(t, uc.CompleteTask(ctx, "missing"), domain.ErrTaskNotFound)
}

func TestClearDeleteAndRefresh(t *testing.T) {
	a := seeded("a", false, 0)
	b := seeded("b", true, time.Second)
	uc, remote, _ := newUseCase(t, a, b)
	ctx := context.Background()

	require.Len(t, uc.ListTasks(ctx, FilterAll).Tasks, 2)
	require.NoError(t, uc.ClearCompleted(ctx))
	assert.Equal(t, 1, remote.Len())

	require.NoError(t, uc.DeleteTask(ctx, a.ID))
	assert.Zero(t, remote.Len())

	require.NoError(t, remote.Save(ctx, seeded("c", false, 2*time.Second)))
	uc.Refresh()
	assert.Len(t, uc.ListTasks(ctx, FilterAll).Tasks, 1)

	require.NoError(t, uc.DeleteAll(ctx))
	assert.Zero(t, remote.Len())
}

func TestStatistics(t *testing.T) {
	uc, remote, _ := newUseCase(t,
		seeded("a", false, 0),
		seeded("b", true, time.Second),
		seeded("c", true, 2*time.Second),
		seeded("d", true, 3*time.Second),
	)

	stats := uc.Statistics(context.Background())
	assert.True(t, stats.Available)
	assert.Equal(t, 1, stats.Active)
	assert.Equal(t, 3, stats.Completed)
	assert.InDelta(t, 25.0, stats.ActivePercent, 0.001)
	assert.InDelta(t, 75.0, stats.CompletedPercent, 0.001)

	uc.Refresh()
	remote.SetUnavailable(true)
	require.NoError(t, uc.DeleteAll(context.Background()))
	stats = uc.Statistics(context.Background())
	assert.Equal(t, Statistics{}, stats)
}
