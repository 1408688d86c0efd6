package breaker

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/fastygo/taskstore/domain"
	"github.com/fastygo/taskstore/repository"
)

// Settings configures the circuit breaker wrapped around a source.
type Settings struct {
	Name string
	// CallTimeout bounds every call; zero leaves the caller's deadline alone.
	CallTimeout time.Duration
	// MaxFailures consecutive failures open the circuit.
	MaxFailures uint32
	// OpenTimeout is how long the circuit stays open before probing again.
	OpenTimeout time.Duration
	// HalfOpenRequests is the number of probes allowed while half-open.
	HalfOpenRequests uint32
}

// Source guards a DataSource, usually the remote one, with a circuit breaker
// and a per-call timeout. An open circuit surfaces as domain.ErrCodeUnavailable.
type Source struct {
	next    repository.DataSource
	cb      *gobreaker.CircuitBreaker
	timeout time.Duration
}

func New(next repository.DataSource, settings Settings, logger *zap.Logger) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	if settings.Name == "" {
		settings.Name = "remote"
	}
	if settings.MaxFailures == 0 {
		settings.MaxFailures = 5
	}
	if settings.OpenTimeout <= 0 {
		settings.OpenTimeout = 30 * time.Second
	}
	if settings.HalfOpenRequests == 0 {
		settings.HalfOpenRequests = 1
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: settings.HalfOpenRequests,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.MaxFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				zap.String("source", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, domain.ErrTaskNotFound)
		},
	})

	return &Source{
		next:    next,
		cb:      cb,
		timeout: settings.CallTimeout,
	}
}

var (
	_ repository.DataSource = (*Source)(nil)
	_ repository.Pinger     = (*Source)(nil)
)

// State returns the breaker state name.
func (s *Source) State() string {
	return s.cb.State().String()
}

// Ping bypasses the breaker so health checks observe the real source.
func (s *Source) Ping(ctx context.Context) error {
	p, ok := s.next.(repository.Pinger)
	if !ok {
		return nil
	}
	return p.Ping(ctx)
}

func (s *Source) ListAll(ctx context.Context) ([]domain.Task, error) {
	var tasks []domain.Task
	err := s.do(ctx, func(ctx context.Context) error {
		var err error
		tasks, err = s.next.ListAll(ctx)
		return err
	})
	return tasks, err
}

func (s *Source) Get(ctx context.Context, id string) (*domain.Task, error) {
	var task *domain.Task
	err := s.do(ctx, func(ctx context.Context) error {
		var err error
		task, err = s.next.Get(ctx, id)
		return err
	})
	return task, err
}

func (s *Source) Save(ctx context.Context, task domain.Task) error {
	return s.do(ctx, func(ctx context.Context) error { return s.next.Save(ctx, task) })
}

func (s *Source) Complete(ctx context.Context, task domain.Task) error {
	return s.do(ctx, func(ctx context.Context) error { return s.next.Complete(ctx, task) })
}

func (s *Source) CompleteByID(ctx context.Context, id string) error {
	return s.next.CompleteByID(ctx, id)
}

func (s *Source) Activate(ctx context.Context, task domain.Task) error {
	return s.do(ctx, func(ctx context.Context) error { return s.next.Activate(ctx, task) })
}

func (s *Source) ActivateByID(ctx context.Context, id string) error {
	return s.next.ActivateByID(ctx, id)
}

func (s *Source) ClearCompleted(ctx context.Context) error {
	return s.do(ctx, s.next.ClearCompleted)
}

func (s *Source) DeleteAll(ctx context.Context) error {
	return s.do(ctx, s.next.DeleteAll)
}

func (s *Source) Delete(ctx context.Context, id string) error {
	return s.do(ctx, func(ctx context.Context) error { return s.next.Delete(ctx, id) })
}

func (s *Source) Invalidate() {
	s.next.Invalidate()
}

func (s *Source) do(ctx context.Context, fn func(context.Context) error) error {
	_, err := s.cb.Execute(func() (interface{}, error) {
		callCtx := ctx
		if s.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, s.timeout)
			defer cancel()
		}
		return nil, fn(callCtx)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return domain.WrapError(domain.ErrCodeUnavailable, "remote circuit open", err)
	}
	return err
}
