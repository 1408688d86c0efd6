package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fastygo/taskstore/domain"
	"github.com/fastygo/taskstore/repository"
)

// Source is an in-process DataSource. With a latency it stands in for a
// remote service; every call waits that long or until ctx is done.
type Source struct {
	mu          sync.RWMutex
	tasks       map[string]domain.Task
	latency     time.Duration
	unavailable bool
}

// NewSource creates an empty Source seeded with tasks.
func NewSource(latency time.Duration, tasks ...domain.Task) *Source {
	s := &Source{
		tasks:   make(map[string]domain.Task, len(tasks)),
		latency: latency,
	}
	for _, t := range tasks {
		s.tasks[t.ID] = t
	}
	return s
}

var (
	_ repository.DataSource = (*Source)(nil)
	_ repository.Pinger     = (*Source)(nil)
)

// SetUnavailable makes every call fail as if the service were unreachable.
func (s *Source) SetUnavailable(down bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unavailable = down
}

func (s *Source) Ping(ctx context.Context) error {
	return s.wait(ctx)
}

func (s *Source) ListAll(ctx context.Context) ([]domain.Task, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := make([]domain.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		tasks = append(tasks, t)
	}
	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].ID < tasks[j].ID
		}
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})
	return tasks, nil
}

func (s *Source) Get(ctx context.Context, id string) (*domain.Task, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return &t, nil
}

func (s *Source) Save(ctx context.Context, task domain.Task) error {
	if task.ID == "" {
		return domain.ErrInvalidPayload
	}
	if err := s.wait(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[task.ID] = task
	return nil
}

func (s *Source) Complete(ctx context.Context, task domain.Task) error {
	return s.setCompleted(ctx, task, true)
}

func (s *Source) CompleteByID(context.Context, string) error {
	return nil
}

func (s *Source) Activate(ctx context.Context, task domain.Task) error {
	return s.setCompleted(ctx, task, false)
}

func (s *Source) ActivateByID(context.Context, string) error {
	return nil
}

func (s *Source) ClearCompleted(ctx context.Context) error {
	if err := s.wait(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.tasks {
		if t.Completed {
			delete(s.tasks, id)
		}
	}
	return nil
}

func (s *Source) DeleteAll(ctx context.Context) error {
	if err := s.wait(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = make(map[string]domain.Task)
	return nil
}

func (s *Source) Delete(ctx context.Context, id string) error {
	if err := s.wait(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tasks, id)
	return nil
}

func (s *Source) Invalidate() {}

// Len returns the number of stored tasks.
func (s *Source) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

func (s *Source) setCompleted(ctx context.Context, task domain.Task, completed bool) error {
	if err := s.wait(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.tasks[task.ID]
	if !ok {
		stored = task
	}
	s.tasks[task.ID] = stored.WithCompleted(completed)
	return nil
}

func (s *Source) wait(ctx context.Context) error {
	s.mu.RLock()
	down := s.unavailable
	s.mu.RUnlock()
	if down {
		return domain.ErrSourceUnavailable
	}
	if s.latency <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(s.latency)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
