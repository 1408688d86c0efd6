package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/taskstore/domain"
)

// Runs against TEST_DATABASE_URL with the tasks migration applied.
func TestTaskSourceIntegration(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	if err := pool.Ping(ctx); err != nil {
		t.Skip("Postgres not reachable, skipping integration test")
	}

	src := NewTaskSource(pool)
	require.NoError(t, src.DeleteAll(ctx))

	active := domain.NewTask("active", "")
	done := domain.NewTask("done", "details")
	require.NoError(t, src.Save(ctx, active))
	require.NoError(t, src.Complete(ctx, done), "completing an unknown row inserts it")

	got, err := src.Get(ctx, done.ID)
	require.NoError(t, err)
	assert.True(t, got.Completed)
	assert.Equal(t, "details", got.Description)

	require.NoError(t, src.ClearCompleted(ctx))
	tasks, err := src.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, active.ID, tasks[0].ID)

	require.NoError(t, src.Delete(ctx, active.ID))
	_, err = src.Get(ctx, active.ID)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}
