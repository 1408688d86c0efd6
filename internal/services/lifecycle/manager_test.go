package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShutdownRunsHooksInReverseOrder(t *testing.T) {
	m := New(time.Second, nil)

	var order []string
	m.Register("bolt", func(context.Context) error {
		order = append(order, "bolt")
		return nil
	})
	m.RegisterCloser("processor", func() error {
		order = append(order, "processor")
		return nil
	})
	m.Register("http", func(context.Context) error {
		order = append(order, "http")
		return nil
	})

	require.NoError(t, m.Shutdown(context.Background()))
	assert.Equal(t, []string{"http", "processor", "bolt"}, order)
}

func TestShutdownJoinsErrorsAndKeepsGoing(t *testing.T) {
	m := New(time.Second, nil)
	first := errors.New("first")
	second := errors.New("second")

	ran := 0
	m.Register("a", func(context.Context) error { ran++; return first })
	m.Register("b", func(context.Context) error { ran++; return second })

	err := m.Shutdown(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, first)
	assert.ErrorIs(t, err, second)
	assert.Equal(t, 2, ran)
}

func TestShutdownOnlyOnce(t *testing.T) {
	m := New(time.Second, nil)
	calls := 0
	m.Register("once", func(context.Context) error { calls++; return nil })

	require.NoError(t, m.Shutdown(context.Background()))
	require.NoError(t, m.Shutdown(context.Background()))
	assert.Equal(t, 1, calls)
}

func TestShutdownHooksSeeDeadline(t *testing.T) {
	m := New(50*time.Millisecond, nil)
	m.Register("slow", func(ctx context.Context) error {
		_, ok := ctx.Deadline()
		assert.True(t, ok)
		<-ctx.Done()
		return ctx.Err()
	})

	err := m.Shutdown(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
