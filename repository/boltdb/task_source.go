package boltdb

import (
	"context"
	"encoding/json"
	"sort"

	bolt "go.etcd.io/bbolt"

	"github.com/fastygo/taskstore/domain"
	boltInfra "github.com/fastygo/taskstore/internal/infrastructure/bolt"
	"github.com/fastygo/taskstore/repository"
)

// DefaultBucket holds the local task mirror.
const DefaultBucket = "tasks"

// TaskSource is the durable local mirror, one JSON document per task.
type TaskSource struct {
	db     *bolt.DB
	bucket []byte
}

// NewTaskSource returns a BoltDB-backed DataSource, creating its bucket.
func NewTaskSource(db *bolt.DB, bucket string) (*TaskSource, error) {
	if bucket == "" {
		bucket = DefaultBucket
	}
	if err := boltInfra.EnsureBucket(db, bucket); err != nil {
		return nil, err
	}
	return &TaskSource{db: db, bucket: []byte(bucket)}, nil
}

var (
	_ repository.DataSource = (*TaskSource)(nil)
	_ repository.Pinger     = (*TaskSource)(nil)
)

func (s *TaskSource) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket(s.bucket) == nil {
			return bolt.ErrBucketNotFound
		}
		return nil
	})
}

func (s *TaskSource) ListAll(ctx context.Context) ([]domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tasks := []domain.Task{}
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).ForEach(func(_, v []byte) error {
			var task domain.Task
			if err := json.Unmarshal(v, &task); err != nil {
				return err
			}
			tasks = append(tasks, task)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})
	return tasks, nil
}

func (s *TaskSource) Get(ctx context.Context, id string) (*domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var task *domain.Task
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(s.bucket).Get([]byte(id))
		if v == nil {
			return domain.ErrTaskNotFound
		}
		task = &domain.Task{}
		return json.Unmarshal(v, task)
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskSource) Save(ctx context.Context, task domain.Task) error {
	if task.ID == "" {
		return domain.ErrInvalidPayload
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return put(tx.Bucket(s.bucket), task)
	})
}

func (s *TaskSource) Complete(ctx context.Context, task domain.Task) error {
	return s.setCompleted(ctx, task, true)
}

func (s *TaskSource) CompleteByID(context.Context, string) error {
	return nil
}

func (s *TaskSource) Activate(ctx context.Context, task domain.Task) error {
	return s.setCompleted(ctx, task, false)
}

func (s *TaskSource) ActivateByID(context.Context, string) error {
	return nil
}

func (s *TaskSource) ClearCompleted(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		c := tx.Bucket(s.bucket).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var task domain.Task
			if err := json.Unmarshal(v, &task); err != nil {
				continue
			}
			if task.Completed {
				if err := c.Delete(); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (s *TaskSource) DeleteAll(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(s.bucket); err != nil && err != bolt.ErrBucketNotFound {
			return err
		}
		_, err := tx.CreateBucket(s.bucket)
		return err
	})
}

func (s *TaskSource) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Delete([]byte(id))
	})
}

func (s *TaskSource) Invalidate() {}

func (s *TaskSource) setCompleted(ctx context.Context, task domain.Task, completed bool) error {
	if task.ID == "" {
		return domain.ErrInvalidPayload
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		stored := task
		if v := b.Get([]byte(task.ID)); v != nil {
			if err := json.Unmarshal(v, &stored); err != nil {
				return err
			}
		}
		return put(b, stored.WithCompleted(completed))
	})
}

func put(b *bolt.Bucket, task domain.Task) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return b.Put([]byte(task.ID), payload)
}
