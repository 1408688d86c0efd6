package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/fastygo/taskstore/domain"
	"github.com/fastygo/taskstore/internal/metrics"
	"github.com/fastygo/taskstore/pkg/logger"
)

const (
	sourceRemote = "remote"
	sourceLocal  = "local"

	listFlightKey = "tasks"

	defaultFlightTimeout = 30 * time.Second
)

// TaskRepository is the single view of the task collection consumed by use cases.
type TaskRepository interface {
	GetTasks(ctx context.Context) domain.TaskList
	GetTask(ctx context.Context, id string) (*domain.Task, error)
	SaveTask(ctx context.Context, task domain.Task) (domain.Task, error)
	CompleteTask(ctx context.Context, task domain.Task) error
	CompleteTaskByID(ctx context.Context, id string) error
	ActivateTask(ctx context.Context, task domain.Task) error
	ActivateTaskByID(ctx context.Context, id string) error
	ClearCompletedTasks(ctx context.Context) error
	RefreshTasks()
	DeleteAllTasks(ctx context.Context) error
	DeleteTask(ctx context.Context, id string) error
	CachedTasks() []domain.Task
}

// Option configures Tasks.
type Option func(*Tasks)

func WithLogger(l *zap.Logger) Option {
	return func(r *Tasks) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithFlightTimeout bounds a shared source read. Shared reads ignore the
// cancellation of whichever caller started them.
func WithFlightTimeout(d time.Duration) Option {
	return func(r *Tasks) {
		if d > 0 {
			r.flightTimeout = d
		}
	}
}

// WithWriteBuffer parks failed remote writes in b.
func WithWriteBuffer(b WriteBuffer) Option {
	return func(r *Tasks) {
		r.buffer = b
	}
}

// Tasks reconciles a remote and a local DataSource behind an in-memory cache.
//
// Reads of the whole collection are served from memory while the cache is a
// clean, complete snapshot; otherwise the local source is consulted first and
// the remote one only when local has nothing, in which case the local mirror
// is repaired from the remote answer. Writes go to remote, then local, then
// the cache. Source-touching operations are serialized by opMu; mu guards the
// cache and freshness state so clean reads never wait on I/O.
type Tasks struct {
	remote DataSource
	local  DataSource
	buffer WriteBuffer
	logger *zap.Logger

	opMu          sync.Mutex
	flights       singleflight.Group
	flightTimeout time.Duration

	mu    sync.RWMutex
	cache *Cache
	dirty bool
	// complete is set once the cache holds the whole collection. Entries
	// added by per-item lookups before that never make a full snapshot.
	complete bool
}

// NewTasks builds a repository over the given sources.
func NewTasks(remote, local DataSource, opts ...Option) *Tasks {
	r := &Tasks{
		remote: remote,
		local:  local,
		logger:        zap.NewNop(),
		cache:         NewCache(),
		flightTimeout: defaultFlightTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var _ TaskRepository = (*Tasks)(nil)

// GetTasks returns the whole collection.
func (r *Tasks) GetTasks(ctx context.Context) domain.TaskList {
	if tasks, ok := r.snapshot(); ok {
		metrics.CacheReads.WithLabelValues("list", "hit").Inc()
		return domain.Loaded(tasks)
	}
	metrics.CacheReads.WithLabelValues("list", "miss").Inc()

	v, _, _ := r.flights.Do(listFlightKey, func() (interface{}, error) {
		ctx, cancel := r.flightContext(ctx)
		defer cancel()

		r.opMu.Lock()
		defer r.opMu.Unlock()

		if tasks, ok := r.snapshot(); ok {
			return domain.Loaded(tasks), nil
		}
		return r.reload(ctx), nil
	})

	list := v.(domain.TaskList)
	if list.HasData() {
		list.Tasks = append([]domain.Task(nil), list.Tasks...)
	}
	return list
}

// GetTask looks a task up in memory, then in the local source, then in the
// remote one. The freshness flag is not consulted.
func (r *Tasks) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	if id == "" {
		return nil, domain.ErrInvalidPayload
	}
	if task, ok := r.cached(id); ok {
		metrics.CacheReads.WithLabelValues("item", "hit").Inc()
		return &task, nil
	}
	metrics.CacheReads.WithLabelValues("item", "miss").Inc()

	v, err, _ := r.flights.Do("task:"+id, func() (interface{}, error) {
		ctx, cancel := r.flightContext(ctx)
		defer cancel()

		r.opMu.Lock()
		defer r.opMu.Unlock()

		if task, ok := r.cached(id); ok {
			return task, nil
		}

		task, err := r.get(ctx, sourceLocal, r.local, id)
		if err != nil {
			task, err = r.get(ctx, sourceRemote, r.remote, id)
		}
		if err != nil {
			if errors.Is(err, domain.ErrTaskNotFound) {
				return nil, domain.ErrTaskNotFound
			}
			return nil, domain.WrapError(domain.ErrCodeUnavailable, "task lookup failed", err)
		}

		r.mu.Lock()
		r.cache.Put(*task)
		r.mu.Unlock()
		return *task, nil
	})
	if err != nil {
		return nil, err
	}

	task := v.(domain.Task)
	return &task, nil
}

// SaveTask upserts task everywhere. A missing identifier is generated.
func (r *Tasks) SaveTask(ctx context.Context, task domain.Task) (domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return domain.Task{}, err
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}

	r.opMu.Lock()
	defer r.opMu.Unlock()

	r.fanOut(ctx, OperationSave, task)
	r.mutate(func(c *Cache) { c.Put(task) })
	return task, nil
}

func (r *Tasks) CompleteTask(ctx context.Context, task domain.Task) error {
	return r.setCompleted(ctx, task, true)
}

// CompleteTaskByID completes a cached task. Unknown identifiers yield
// domain.ErrTaskNotFound and touch no source.
func (r *Tasks) CompleteTaskByID(ctx context.Context, id string) error {
	return r.setCompletedByID(ctx, id, true)
}

func (r *Tasks) ActivateTask(ctx context.Context, task domain.Task) error {
	return r.setCompleted(ctx, task, false)
}

func (r *Tasks) ActivateTaskByID(ctx context.Context, id string) error {
	return r.setCompletedByID(ctx, id, false)
}

func (r *Tasks) ClearCompletedTasks(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.opMu.Lock()
	defer r.opMu.Unlock()

	r.fanOut(ctx, OperationClearCompleted, domain.Task{})
	r.mutate(func(c *Cache) { c.Retain(domain.Task.IsActive) })
	return nil
}

// RefreshTasks marks the cache stale so the next GetTasks reloads. No I/O.
func (r *Tasks) RefreshTasks() {
	r.mu.Lock()
	r.dirty = true
	r.mu.Unlock()

	r.remote.Invalidate()
	r.local.Invalidate()
}

func (r *Tasks) DeleteAllTasks(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.opMu.Lock()
	defer r.opMu.Unlock()

	r.fanOut(ctx, OperationDeleteAll, domain.Task{})
	r.mutate(func(c *Cache) { c.Clear() })
	return nil
}

func (r *Tasks) DeleteTask(ctx context.Context, id string) error {
	if id == "" {
		return domain.ErrInvalidPayload
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.opMu.Lock()
	defer r.opMu.Unlock()

	r.fanOut(ctx, OperationDelete, domain.Task{ID: id})
	r.mutate(func(c *Cache) { c.Delete(id) })
	return nil
}

// CachedTasks returns a copy of the cache contents in insertion order.
func (r *Tasks) CachedTasks() []domain.Task {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cache.Values()
}

// IsDirty reports whether the next GetTasks must reload.
func (r *Tasks) IsDirty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.dirty
}

// Reset discards cached state. Intended for test harnesses.
func (r *Tasks) Reset() {
	r.opMu.Lock()
	defer r.opMu.Unlock()

	r.mu.Lock()
	r.cache = NewCache()
	r.dirty = false
	r.complete = false
	r.mu.Unlock()
	metrics.CachedTasks.Set(0)
}

func (r *Tasks) setCompleted(ctx context.Context, task domain.Task, completed bool) error {
	if task.ID == "" {
		return domain.ErrInvalidPayload
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.opMu.Lock()
	defer r.opMu.Unlock()

	r.applyCompleted(ctx, task, completed)
	return nil
}

func (r *Tasks) setCompletedByID(ctx context.Context, id string, completed bool) error {
	if id == "" {
		return domain.ErrInvalidPayload
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.opMu.Lock()
	defer r.opMu.Unlock()

	task, ok := r.cached(id)
	if !ok {
		return domain.ErrTaskNotFound
	}
	r.applyCompleted(ctx, task, completed)
	return nil
}

// applyCompleted must be called with opMu held.
func (r *Tasks) applyCompleted(ctx context.Context, task domain.Task, completed bool) {
	updated := task.WithCompleted(completed)
	op := OperationActivate
	if completed {
		op = OperationComplete
	}
	r.fanOut(ctx, op, updated)
	r.mutate(func(c *Cache) { c.Put(updated) })
}

// reload must be called with opMu held.
func (r *Tasks) reload(ctx context.Context) domain.TaskList {
	tasks, err := r.list(ctx, sourceLocal, r.local)
	if err == nil && len(tasks) > 0 {
		return domain.Loaded(r.replaceCache(tasks))
	}

	tasks, err = r.list(ctx, sourceRemote, r.remote)
	if err != nil {
		r.log(ctx).Warn("task data unavailable from every source", zap.Error(err))
		return domain.Unavailable()
	}
	if len(tasks) == 0 {
		return domain.Empty()
	}

	for _, t := range tasks {
		task := t
		_ = r.call(ctx, sourceLocal, OperationSave, func(ctx context.Context) error {
			return r.local.Save(ctx, task)
		})
	}
	return domain.Loaded(r.replaceCache(tasks))
}

func (r *Tasks) replaceCache(tasks []domain.Task) []domain.Task {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cache.Replace(tasks)
	r.dirty = false
	r.complete = true
	metrics.CachedTasks.Set(float64(r.cache.Len()))
	return r.cache.Values()
}

func (r *Tasks) snapshot() ([]domain.Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.dirty || !r.complete || r.cache.Len() == 0 {
		return nil, false
	}
	return r.cache.Values(), true
}

func (r *Tasks) cached(id string) (domain.Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cache.Get(id)
}

func (r *Tasks) mutate(fn func(*Cache)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r.cache)
	metrics.CachedTasks.Set(float64(r.cache.Len()))
}

// fanOut writes to remote then local. Failures are logged and, for remote
// writes, parked in the write buffer; they never reach the caller. A remote
// write is queued behind earlier parked writes rather than overtaking them.
func (r *Tasks) fanOut(ctx context.Context, op string, task domain.Task) {
	if r.backlogged(ctx) {
		r.park(ctx, op, task)
	} else if err := r.call(ctx, sourceRemote, op, func(ctx context.Context) error {
		return Apply(ctx, r.remote, op, task)
	}); err != nil {
		r.park(ctx, op, task)
	}
	_ = r.call(ctx, sourceLocal, op, func(ctx context.Context) error {
		return Apply(ctx, r.local, op, task)
	})
}

// backlogged reports whether the write buffer still holds unreplayed writes.
// An unreadable buffer counts as empty.
func (r *Tasks) backlogged(ctx context.Context) bool {
	if r.buffer == nil {
		return false
	}
	n, err := r.buffer.Pending()
	if err != nil {
		r.log(ctx).Warn("write buffer size unknown", zap.Error(err))
		return false
	}
	return n > 0
}

func (r *Tasks) park(ctx context.Context, op string, task domain.Task) {
	if r.buffer == nil {
		return
	}
	if err := r.buffer.BufferTask(ctx, op, task); err != nil {
		r.log(ctx).Error("failed to buffer remote write", zap.String("operation", op), zap.Error(err))
		return
	}
	metrics.BufferedWrites.WithLabelValues(op).Inc()
	r.log(ctx).Warn("remote write buffered", zap.String("operation", op), zap.String("task_id", task.ID))
}

func (r *Tasks) list(ctx context.Context, source string, src DataSource) ([]domain.Task, error) {
	var tasks []domain.Task
	err := r.call(ctx, source, "list", func(ctx context.Context) error {
		var err error
		tasks, err = src.ListAll(ctx)
		return err
	})
	return tasks, err
}

func (r *Tasks) get(ctx context.Context, source string, src DataSource, id string) (*domain.Task, error) {
	var task *domain.Task
	err := r.call(ctx, source, "get", func(ctx context.Context) error {
		var err error
		task, err = src.Get(ctx, id)
		if err == nil && task == nil {
			err = domain.ErrTaskNotFound
		}
		return err
	})
	return task, err
}

func (r *Tasks) call(ctx context.Context, source, op string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	metrics.SourceCalls.WithLabelValues(source, op).Inc()
	metrics.SourceDuration.WithLabelValues(source, op).Observe(time.Since(start).Seconds())
	if err != nil && !errors.Is(err, domain.ErrTaskNotFound) {
		metrics.SourceErrors.WithLabelValues(source, op).Inc()
		r.log(ctx).Warn("task source call failed",
			zap.String("source", source),
			zap.String("operation", op),
			zap.Error(err))
	}
	return err
}

// flightContext detaches a shared read from the caller that started it,
// keeping its values (request id) and applying the flight timeout.
func (r *Tasks) flightContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), r.flightTimeout)
}

func (r *Tasks) log(ctx context.Context) *zap.Logger {
	return logger.WithRequestID(ctx, r.logger)
}
