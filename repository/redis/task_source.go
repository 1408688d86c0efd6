package redis

import (
	"context"
	"encoding/json"
	"errors"
	"sort"

	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/taskstore/domain"
	"github.com/fastygo/taskstore/repository"
)

// TaskSource keeps every task as a JSON field of a single Redis hash.
type TaskSource struct {
	client *redislib.Client
	key    string
}

// NewTaskSource creates a Redis-backed remote DataSource.
func NewTaskSource(client *redislib.Client, prefix string) *TaskSource {
	if prefix == "" {
		prefix = "taskstore:"
	}
	return &TaskSource{
		client: client,
		key:    prefix + "tasks",
	}
}

var (
	_ repository.DataSource = (*TaskSource)(nil)
	_ repository.Pinger     = (*TaskSource)(nil)
)

func (s *TaskSource) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *TaskSource) ListAll(ctx context.Context) ([]domain.Task, error) {
	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, err
	}

	tasks := make([]domain.Task, 0, len(fields))
	for _, raw := range fields {
		var task domain.Task
		if err := json.Unmarshal([]byte(raw), &task); err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].ID < tasks[j].ID
		}
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})
	return tasks, nil
}

func (s *TaskSource) Get(ctx context.Context, id string) (*domain.Task, error) {
	raw, err := s.client.HGet(ctx, s.key, id).Result()
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}

	var task domain.Task
	if err := json.Unmarshal([]byte(raw), &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (s *TaskSource) Save(ctx context.Context, task domain.Task) error {
	if task.ID == "" {
		return domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return s.client.HSet(ctx, s.key, task.ID, payload).Err()
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
	return s.client.Watch(ctx, func(tx *redislib.Tx) error {
		fields, err := tx.HGetAll(ctx, s.key).Result()
		if err != nil {
			return err
		}
		var completed []string
		for id, raw := range fields {
			var task domain.Task
			if err := json.Unmarshal([]byte(raw), &task); err != nil {
				continue
			}
			if task.Completed {
				completed = append(completed, id)
			}
		}
		if len(completed) == 0 {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redislib.Pipeliner) error {
			pipe.HDel(ctx, s.key, completed...)
			return nil
		})
		return err
	}, s.key)
}

func (s *TaskSource) DeleteAll(ctx context.Context) error {
	return s.client.Del(ctx, s.key).Err()
}

func (s *TaskSource) Delete(ctx context.Context, id string) error {
	return s.client.HDel(ctx, s.key, id).Err()
}

func (s *TaskSource) Invalidate() {}

func (s *TaskSource) setCompleted(ctx context.Context, task domain.Task, completed bool) error {
	if task.ID == "" {
		return domain.ErrInvalidPayload
	}
	return s.client.Watch(ctx, func(tx *redislib.Tx) error {
		stored := task
		raw, err := tx.HGet(ctx, s.key, task.ID).Result()
		switch {
		case err == nil:
			if err := json.Unmarshal([]byte(raw), &stored); err != nil {
				return err
			}
		case !errors.Is(err, redislib.Nil):
			return err
		}

		payload, err := json.Marshal(stored.WithCompleted(completed))
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redislib.Pipeliner) error {
			pipe.HSet(ctx, s.key, task.ID, payload)
			return nil
		})
		return err
	}, s.key)
}
