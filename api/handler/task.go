package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskstore/api/transport"
	"github.com/fastygo/taskstore/domain"
	"github.com/fastygo/taskstore/pkg/httpcontext"
	taskUC "github.com/fastygo/taskstore/usecase/task"
)

type TaskHandler struct {
	baseHandler
	uc        *taskUC.UseCase
	validator *validator.Validate
}

func NewTaskHandler(uc *taskUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
		validator:   validator.New(),
	}
}

// @Summary List tasks
// @Tags tasks
// @Param filter query string false "ALL, ACTIVE or COMPLETED"
// @Router /api/v1/tasks [get]
func (h *TaskHandler) GetTasks(ctx *fasthttp.RequestCtx) {
	filter, err := taskUC.ParseFilter(string(ctx.QueryArgs().Peek("filter")))
	if err != nil {
		h.respondInvalid(ctx, "unknown filter")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	list := h.uc.ListTasks(stdCtx, filter)
	meta := transport.ListMeta{
		State:  list.State.String(),
		Filter: string(filter),
		Count:  len(list.Tasks),
	}

	switch list.State {
	case domain.ListUnavailable:
		h.respondJSON(ctx, http.StatusServiceUnavailable,
			transport.NewError(string(domain.ErrCodeUnavailable), "tasks unavailable", meta))
	case domain.ListEmpty:
		h.respondJSON(ctx, http.StatusOK, transport.NewSuccess([]domain.Task{}, meta))
	default:
		h.respondJSON(ctx, http.StatusOK, transport.NewSuccess(list.Tasks, meta))
	}
}

// @Summary Get task
// @Tags tasks
// @Router /api/v1/tasks/{id} [get]
func (h *TaskHandler) GetTask(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := h.uc.GetTask(stdCtx, pathID(ctx))
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, task)
}

// @Summary Create task
// @Tags tasks
// @Router /api/v1/tasks [post]
func (h *TaskHandler) CreateTask(ctx *fasthttp.RequestCtx) {
	in, ok := h.parseInput(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.uc.CreateTask(stdCtx, in)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary Update task
// @Tags tasks
// @Router /api/v1/tasks/{id} [put]
func (h *TaskHandler) UpdateTask(ctx *fasthttp.RequestCtx) {
	in, ok := h.parseInput(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.uc.UpdateTask(stdCtx, pathID(ctx), in)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

// @Summary Complete task
// @Tags tasks
// @Router /api/v1/tasks/{id}/complete [post]
func (h *TaskHandler) CompleteTask(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.CompleteTask(stdCtx, pathID(ctx)); err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	ctx.SetStatusCode(http.StatusNoContent)
}

// @Summary Activate task
// @Tags tasks
// @Router /api/v1/tasks/{id}/activate [post]
func (h *TaskHandler) ActivateTask(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.ActivateTask(stdCtx, pathID(ctx)); err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	ctx.SetStatusCode(http.StatusNoContent)
}

// @Summary Delete task
// @Tags tasks
// @Router /api/v1/tasks/{id} [delete]
func (h *TaskHandler) DeleteTask(ctx *fasthttp.RequestCtx) {
	id := pathID(ctx)
	if id == "" {
		h.respondInvalid(ctx, "missing task id")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.DeleteTask(stdCtx, id); err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	ctx.SetStatusCode(http.StatusNoContent)
}

// @Summary Delete all tasks
// @Tags tasks
// @Router /api/v1/tasks [delete]
func (h *TaskHandler) DeleteAllTasks(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.DeleteAll(stdCtx); err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	ctx.SetStatusCode(http.StatusNoContent)
}

// @Summary Clear completed tasks
// @Tags tasks
// @Router /api/v1/tasks/clear-completed [post]
func (h *TaskHandler) ClearCompleted(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.ClearCompleted(stdCtx); err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	ctx.SetStatusCode(http.StatusNoContent)
}

// @Summary Mark cached tasks stale
// @Tags tasks
// @Router /api/v1/tasks/refresh [post]
func (h *TaskHandler) Refresh(ctx *fasthttp.RequestCtx) {
	h.uc.Refresh()
	ctx.SetStatusCode(http.StatusAccepted)
}

// @Summary Task statistics
// @Tags tasks
// @Router /api/v1/statistics [get]
func (h *TaskHandler) Statistics(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	h.respondSuccess(ctx, http.StatusOK, h.uc.Statistics(stdCtx))
}

func (h *TaskHandler) parseInput(ctx *fasthttp.RequestCtx) (taskUC.Input, bool) {
	var req transport.TaskRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondInvalid(ctx, "invalid payload")
		return taskUC.Input{}, false
	}
	if err := h.validator.Struct(req); err != nil {
		h.respondInvalid(ctx, err.Error())
		return taskUC.Input{}, false
	}
	return taskUC.Input{Title: req.Title, Description: req.Description}, true
}
