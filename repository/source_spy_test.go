package repository_test

import (
	"context"
	"errors"
	"sync"

	"github.com/fastygo/taskstore/domain"
	"github.com/fastygo/taskstore/repository"
	"github.com/fastygo/taskstore/repository/memory"
)

var errBoom = errors.New("boom")

// spySource counts calls per operation and can fail chosen operations.
type spySource struct {
	*memory.Source

	mu    sync.Mutex
	calls map[string]int
	fail  map[string]error
}

func newSpy(tasks ...domain.Task) *spySource {
	return &spySource{
		Source: memory.NewSource(0, tasks...),
		calls:  make(map[string]int),
		fail:   make(map[string]error),
	}
}

var _ repository.DataSource = (*spySource)(nil)

func (s *spySource) failOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[op] = err
}

func (s *spySource) count(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

func (s *spySource) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

func (s *spySource) record(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[op]++
	return s.fail[op]
}

func (s *spySource) ListAll(ctx context.Context) ([]domain.Task, error) {
	if err := s.record("list"); err != nil {
		return nil, err
	}
	return s.Source.ListAll(ctx)
}

func (s *spySource) Get(ctx context.Context, id string) (*domain.Task, error) {
	if err := s.record("get"); err != nil {
		return nil, err
	}
	return s.Source.Get(ctx, id)
}

func (s *spySource) Save(ctx context.Context, task domain.Task) error {
	if err := s.record(repository.OperationSave); err != nil {
		return err
	}
	return s.Source.Save(ctx, task)
}

func (s *spySource) Complete(ctx context.Context, task domain.Task) error {
	if err := s.record(repository.OperationComplete); err != nil {
		return err
	}
	return s.Source.Complete(ctx, task)
}

func (s *spySource) Activate(ctx context.Context, task domain.Task) error {
	if err := s.record(repository.OperationActivate); err != nil {
		return err
	}
	return s.Source.Activate(ctx, task)
}

func (s *spySource) ClearCompleted(ctx context.Context) error {
	if err := s.record(repository.OperationClearCompleted); err != nil {
		return err
	}
	return s.Source.ClearCompleted(ctx)
}

func (s *spySource) DeleteAll(ctx context.Context) error {
	if err := s.record(repository.OperationDeleteAll); err != nil {
		return err
	}
	return s.Source.DeleteAll(ctx)
}

func (s *spySource) Delete(ctx context.Context, id string) error {
	if err := s.record(repository.OperationDelete); err != nil {
		return err
	}
	return s.Source.Delete(ctx, id)
}

func (s *spySource) Invalidate() {
	_ = s.record("invalidate")
}

// recordingBuffer captures parked writes.
type recordingBuffer struct {
	mu  sync.Mutex
	ops []string
}

func (b *recordingBuffer) BufferTask(_ context.Context, operation string, _ domain.Task) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ops = append(b.ops, operation)
	return nil
}

func (b *recordingBuffer) Pending() (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.ops), nil
}

func (b *recordingBuffer) operations() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.ops...)
}
