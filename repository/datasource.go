package repository

import (
	"context"

	"github.com/fastygo/taskstore/domain"
)

// DataSource is the capability every task store exposes, local or remote.
//
// ListAll answers a zero-length slice and a nil error for a store that holds
// nothing, and an error when the store cannot be reached. Get answers
// domain.ErrTaskNotFound for unknown identifiers. CompleteByID and ActivateByID
// are accepted but ignored by the stores: resolving an identifier to a task is
// the repository's job.
type DataSource interface {
	ListAll(ctx context.Context) ([]domain.Task, error)
	Get(ctx context.Context, id string) (*domain.Task, error)
	Save(ctx context.Context, task domain.Task) error
	Complete(ctx context.Context, task domain.Task) error
	CompleteByID(ctx context.Context, id string) error
	Activate(ctx context.Context, task domain.Task) error
	ActivateByID(ctx context.Context, id string) error
	ClearCompleted(ctx context.Context) error
	DeleteAll(ctx context.Context) error
	Delete(ctx context.Context, id string) error
	// Invalidate hints that any source-side cache should be dropped.
	Invalidate()
}

// Pinger is implemented by sources that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Write operations replayable against a DataSource.
const (
	OperationSave           = "save"
	OperationComplete       = "complete"
	OperationActivate       = "activate"
	OperationClearCompleted = "clear_completed"
	OperationDeleteAll      = "delete_all"
	OperationDelete         = "delete"
)

// WriteBuffer keeps remote writes that failed so they can be replayed later.
// While Pending reports queued writes, new remote writes are queued behind
// them instead of going to the remote directly, so replay order matches
// write order.
type WriteBuffer interface {
	BufferTask(ctx context.Context, operation string, task domain.Task) error
	Pending() (int, error)
}

// Apply runs a buffered write operation against src.
func Apply(ctx context.Context, src DataSource, operation string, task domain.Task) error {
	switch operation {
	case OperationSave:
		return src.Save(ctx, task)
	case OperationComplete:
		return src.Complete(ctx, task)
	case OperationActivate:
		return src.Activate(ctx, task)
	case OperationClearCompleted:
		return src.ClearCompleted(ctx)
	case OperationDeleteAll:
		return src.DeleteAll(ctx)
	case OperationDelete:
		return src.Delete(ctx, task.ID)
	default:
		return domain.WrapError(domain.ErrCodeInvalid, "unsupported operation "+operation, nil)
	}
}
