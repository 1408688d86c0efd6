package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/fastygo/taskstore/domain"
	"github.com/fastygo/taskstore/pkg/httpcontext"
	"github.com/fastygo/taskstore/repository"
	"github.com/fastygo/taskstore/repository/memory"
	taskUC "github.com/fastygo/taskstore/usecase/task"
)

type envelope struct {
	Status string          `json:"status"`
	Code   string          `json:"code"`
	Data   json.RawMessage `json:"data"`
	Meta   json.RawMessage `json:"meta"`
}

func newTaskHandler(t *testing.T, tasks ...domain.Task) (*TaskHandler, *memory.Source) {
	t.Helper()
	remote := memory.NewSource(0, tasks...)
	repo := repository.NewTasks(remote, memory.NewSource(0))
	return NewTaskHandler(taskUC.New(repo, nil), httpcontext.NewAdapter(time.Second), nil), remote
}

func request(method, body string, query string, id string) *fasthttp.RequestCtx {
	var ctx fasthttp.RequestCtx
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI("/api/v1/tasks" + query)
	if body != "" {
		ctx.Request.SetBodyString(body)
	}
	if id != "" {
		ctx.SetUserValue("id", id)
	}
	return &ctx
}

func decode(t *testing.T, ctx *fasthttp.RequestCtx) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &env))
	return env
}

func TestGetTasksStates(t *testing.T) {
	h, remote := newTaskHandler(t)

	ctx := request(http.MethodGet, "", "", "")
	h.GetTasks(ctx)
	require.Equal(t, http.StatusOK, ctx.Response.StatusCode())
	env := decode(t, ctx)
	assert.JSONEq(t, `[]`, string(env.Data))
	assert.JSONEq(t, `{"state":"empty","filter":"ALL","count":0}`, string(env.Meta))

	remote.SetUnavailable(true)
	ctx = request(http.MethodGet, "", "", "")
	h.GetTasks(ctx)
	assert.Equal(t, http.StatusServiceUnavailable, ctx.Response.StatusCode())
	assert.Equal(t, "UNAVAILABLE", decode(t, ctx).Code)
}

func TestGetTasksFilter(t *testing.T) {
	done := domain.NewTask("done", "")
	done.Completed = true
	h, _ := newTaskHandler(t, domain.NewTask("open", ""), done)

	ctx := request(http.MethodGet, "", "?filter=completed", "")
	h.GetTasks(ctx)
	require.Equal(t, http.StatusOK, ctx.Response.StatusCode())

	env := decode(t, ctx)
	var tasks []domain.Task
	require.NoError(t, json.Unmarshal(env.Data, &tasks))
	require.Len(t, tasks, 1)
	assert.Equal(t, done.ID, tasks[0].ID)
	assert.JSONEq(t, `{"state":"loaded","filter":"COMPLETED","count":1}`, string(env.Meta))

	ctx = request(http.MethodGet, "", "?filter=someday", "")
	h.GetTasks(ctx)
	assert.Equal(t, http.StatusBadRequest, ctx.Response.StatusCode())
}

func TestCreateAndGetTask(t *testing.T) {
	h, remote := newTaskHandler(t)

	ctx := request(http.MethodPost, `{"title":"write tests"}`, "", "")
	h.CreateTask(ctx)
	require.Equal(t, http.StatusCreated, ctx.Response.StatusCode())
	assert.NotEmpty(t, ctx.Response.Header.Peek(httpcontext.RequestIDHeader))

	var created domain.Task
	require.NoError(t, json.Unmarshal(decode(t, ctx).Data, &created))
	assert.Equal(t, "write tests", created.Title)
	assert.Equal(t, 1, remote.Len())

	ctx = request(http.MethodGet, "", "", created.ID)
	h.GetTask(ctx)
	assert.Equal(t, http.StatusOK, ctx.Response.StatusCode())

	ctx = request(http.MethodGet, "", "", "missing")
	h.GetTask(ctx)
	assert.Equal(t, http.StatusNotFound, ctx.Response.StatusCode())
}

func TestCreateTaskRejectsBadInput(t *testing.T) {
	h, _ := newTaskHandler(t)

	ctx := request(http.MethodPost, `{"title":" "}`, "", "")
	h.CreateTask(ctx)
	assert.Equal(t, http.StatusBadRequest, ctx.Response.StatusCode())
	assert.Equal(t, "INVALID", decode(t, ctx).Code)

	ctx = request(http.MethodPost, `{not json`, "", "")
	h.CreateTask(ctx)
	assert.Equal(t, http.StatusBadRequest, ctx.Response.StatusCode())

	long := strings.Repeat("x", 300)
	ctx = request(http.MethodPost, `{"title":"`+long+`"}`, "", "")
	h.CreateTask(ctx)
	assert.Equal(t, http.StatusBadRequest, ctx.Response.StatusCode())
}

func TestCompleteActivateAndDelete(t *testing.T) {
	task := domain.NewTask("a", "")
	h, remote := newTaskHandler(t, task)

	ctx := request(http.MethodPost, "", "", task.ID)
	h.CompleteTask(ctx)
	require.Equal(t, http.StatusNoContent, ctx.Response.StatusCode())

	stored, err := remote.Get(context.Background(), task.ID)
	require.NoError(t, err)
	assert.True(t, stored.Completed)

	ctx = request(http.MethodPost, "", "", task.ID)
	h.ActivateTask(ctx)
	require.Equal(t, http.StatusNoContent, ctx.Response.StatusCode())

	ctx = request(http.MethodDelete, "", "", task.ID)
	h.DeleteTask(ctx)
	require.Equal(t, http.StatusNoContent, ctx.Response.StatusCode())
	assert.Zero(t, remote.Len())

	ctx = request(http.MethodDelete, "", "", "")
	h.DeleteTask(ctx)
	assert.Equal(t, http.StatusBadRequest, ctx.Response.StatusCode())
}

func TestStatisticsEndpoint(t *testing.T) {
	done := domain.NewTask("done", "")
	done.Completed = true
	h, _ := newTaskHandler(t, domain.NewTask("open", ""), done)

	ctx := request(http.MethodGet, "", "", "")
	h.Statistics(ctx)
	require.Equal(t, http.StatusOK, ctx.Response.StatusCode())

	var stats taskUC.Statistics
	require.NoError(t, json.Unmarshal(decode(t, ctx).Data, &stats))
	assert.True(t, stats.Available)
	assert.Equal(t, 1, stats.Active)
	assert.InDelta(t, 50.0, stats.CompletedPercent, 0.001)
}

func TestMapError(t *testing.T) {
	status, code := mapError(domain.WrapError(domain.ErrCodeUnavailable, "lookup", domain.ErrSourceUnavailable))
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "UNAVAILABLE", code)

	status, _ = mapError(domain.ErrUnauthorized)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, code = mapError(assert.AnError)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "INTERNAL", code)
}
