package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/taskstore/domain"
	"github.com/fastygo/taskstore/repository"
)

const taskColumns = `id, title, description, completed, created_at, updated_at`

// TaskSource is a Postgres-backed remote DataSource.
type TaskSource struct {
	pool *pgxpool.Pool
}

// NewTaskSource returns a Postgres-backed DataSource.
func NewTaskSource(pool *pgxpool.Pool) *TaskSource {
	return &TaskSource{pool: pool}
}

var (
	_ repository.DataSource = (*TaskSource)(nil)
	_ repository.Pinger     = (*TaskSource)(nil)
)

func (s *TaskSource) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *TaskSource) ListAll(ctx context.Context) ([]domain.Task, error) {
	const query = `SELECT ` + taskColumns + ` FROM tasks ORDER BY created_at, id`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []domain.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func (s *TaskSource) Get(ctx context.Context, id string) (*domain.Task, error) {
	const query = `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	return scanTask(s.pool.QueryRow(ctx, query, id))
}

func (s *TaskSource) Save(ctx context.Context, task domain.Task) error {
	if task.ID == "" {
		return domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO tasks (id, title, description, completed, created_at, updated_at)
	VALUES ($1, $2, $3, $4, COALESCE($5, NOW()), COALESCE($6, NOW()))
	ON CONFLICT (id) DO UPDATE
	SET title = EXCLUDED.title,
		description = EXCLUDED.description,
		completed = EXCLUDED.completed,
		updated_at = EXCLUDED.updated_at
	`
	_, err := s.pool.Exec(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		task.Completed,
		nullTime(task.CreatedAt),
		nullTime(task.UpdatedAt),
	)
	return err
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
	_, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE completed`)
	return err
}

func (s *TaskSource) DeleteAll(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM tasks`)
	return err
}

func (s *TaskSource) Delete(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	return err
}

func (s *TaskSource) Invalidate() {}

// setCompleted upserts so a completion for a row the remote never saw still lands.
func (s *TaskSource) setCompleted(ctx context.Context, task domain.Task, completed bool) error {
	if task.ID == "" {
		return domain.ErrInvalidPayload
	}
	const query = `
	UPDATE tasks SET completed = $2, updated_at = NOW()
	WHERE id = $1
	`
	tag, err := s.pool.Exec(ctx, query, task.ID, completed)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return s.Save(ctx, task.WithCompleted(completed))
	}
	return nil
}

func scanTask(row scanner) (*domain.Task, error) {
	var task domain.Task
	if err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.Completed,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}
	return &task, nil
}
