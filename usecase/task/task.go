package task

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/fastygo/taskstore/domain"
	"github.com/fastygo/taskstore/pkg/logger"
	"github.com/fastygo/taskstore/repository"
)

// Input carries the editable fields of a task.
type Input struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type UseCase struct {
	tasks  repository.TaskRepository
	logger *zap.Logger
}

func New(tasks repository.TaskRepository, log *zap.Logger) *UseCase {
	return &UseCase{
		tasks:  tasks,
		logger: logger.Component(log, "task_usecase"),
	}
}

// ListTasks returns the collection narrowed by filter.
func (uc *UseCase) ListTasks(ctx context.Context, filter Filter) domain.TaskList {
	list := uc.tasks.GetTasks(ctx)
	if list.State == domain.ListUnavailable {
		logger.WithRequestID(ctx, uc.logger).Warn("task list unavailable")
	}
	return filter.Apply(list)
}

func (uc *UseCase) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	return uc.tasks.GetTask(ctx, id)
}

func (uc *UseCase) CreateTask(ctx context.Context, in Input) (domain.Task, error) {
	task := domain.NewTask(in.Title, in.Description)
	if task.IsEmpty() {
		return domain.Task{}, domain.ErrEmptyTask
	}
	return uc.tasks.SaveTask(ctx, task)
}

// UpdateTask edits title and description and keeps the completion state.
func (uc *UseCase) UpdateTask(ctx context.Context, id string, in Input) (domain.Task, error) {
	edited := domain.Task{Title: in.Title, Description: in.Description}
	if edited.IsEmpty() {
		return domain.Task{}, domain.ErrEmptyTask
	}

	current, err := uc.tasks.GetTask(ctx, id)
	if err != nil {
		return domain.Task{}, err
	}
	updated := *current
	updated.Title = in.Title
	updated.Description = in.Description
	updated.Touch()
	return uc.tasks.SaveTask(ctx, updated)
}

func (uc *UseCase) CompleteTask(ctx context.Context, id string) error {
	return uc.setCompleted(ctx, id, true)
}

func (uc *UseCase) ActivateTask(ctx context.Context, id string) error {
	return uc.setCompleted(ctx, id, false)
}

func (uc *UseCase) ClearCompleted(ctx context.Context) error {
	return uc.tasks.ClearCompletedTasks(ctx)
}

func (uc *UseCase) DeleteTask(ctx context.Context, id string) error {
	return uc.tasks.DeleteTask(ctx, id)
}

func (uc *UseCase) DeleteAll(ctx context.Context) error {
	return uc.tasks.DeleteAllTasks(ctx)
}

// Refresh forces the next listing to go back to the sources.
func (uc *UseCase) Refresh() {
	uc.tasks.RefreshTasks()
}

func (uc *UseCase) Statistics(ctx context.Context) Statistics {
	return ComputeStatistics(uc.tasks.GetTasks(ctx))
}

// setCompleted takes the cached fast path first and falls back to a lookup
// for tasks the repository has not seen yet.
func (uc *UseCase) setCompleted(ctx context.Context, id string, completed bool) error {
	byID := uc.tasks.ActivateTaskByID
	byTask := uc.tasks.ActivateTask
	if completed {
		byID = uc.tasks.CompleteTaskByID
		byTask = uc.tasks.CompleteTask
	}

	err := byID(ctx, id)
	if !errors.Is(err, domain.ErrTaskNotFound) {
		return err
	}

	task, err := uc.tasks.GetTask(ctx, id)
	if err != nil {
		return err
	}
	return byTask(ctx, *task)
}
