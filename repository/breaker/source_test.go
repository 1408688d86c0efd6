package breaker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/taskstore/domain"
	"github.com/fastygo/taskstore/repository/memory"
)

func TestSourcePassesThrough(t *testing.T) {
	ctx := context.Background()
	next := memory.NewSource(0)
	src := New(next, Settings{}, nil)
	task := domain.NewTask("a", "")

	require.NoError(t, src.Save(ctx, task))
	got, err := src.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, got.ID)

	require.NoError(t, src.Complete(ctx, task))
	tasks, err := src.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.True(t, tasks[0].Completed)

	require.NoError(t, src.ClearCompleted(ctx))
	assert.Zero(t, next.Len())
	assert.Equal(t, "closed", src.State())
}

func TestSourceOpensAfterConsecutiveFailures(t *testing.T) {
	ctx := context.Background()
	next := memory.NewSource(0)
	next.SetUnavailable(true)
	src := New(next, Settings{MaxFailures: 2, OpenTimeout: time.Hour}, nil)

	for i := 0; i < 2; i++ {
		_, err := src.ListAll(ctx)
		assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
	}
	assert.Equal(t, "open", src.State())

	next.SetUnavailable(false)
	_, err := src.ListAll(ctx)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeUnavailable))
	assert.NoError(t, src.Ping(ctx), "ping bypasses the breaker")
}

func TestSourceNotFoundDoesNotTrip(t *testing.T) {
	ctx := context.Background()
	src := New(memory.NewSource(0), Settings{MaxFailures: 1}, nil)

	for i := 0; i < 3; i++ {
		_, err := src.Get(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrTaskNotFound)
	}
	assert.Equal(t, "closed", src.State())
}

func TestSourceCallTimeout(t *testing.T) {
	src := New(memory.NewSource(time.Hour), Settings{CallTimeout: 10 * time.Millisecond}, nil)

	_, err := src.ListAll(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
