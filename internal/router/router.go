package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/pprofhandler"

	apiHandler "github.com/fastygo/taskstore/api/handler"
	"github.com/fastygo/taskstore/internal/middleware"
)

type Handlers struct {
	Task    *apiHandler.TaskHandler
	Health  *apiHandler.HealthHandler
	Metrics fasthttp.RequestHandler
}

type Options struct {
	EnablePprof bool
}

func New(handlers Handlers, auth middleware.Middleware, opts Options) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)
	if handlers.Metrics != nil {
		r.GET("/metrics", handlers.Metrics)
	}
	if opts.EnablePprof {
		r.GET("/debug/pprof/{profile:*}", pprofhandler.PprofHandler)
	}

	api := r.Group("/api/v1")
	api.GET("/tasks", auth(handlers.Task.GetTasks))
	api.POST("/tasks", auth(handlers.Task.CreateTask))
	api.DELETE("/tasks", auth(handlers.Task.DeleteAllTasks))
	api.POST("/tasks/clear-completed", auth(handlers.Task.ClearCompleted))
	api.POST("/tasks/refresh", auth(handlers.Task.Refresh))
	api.GET("/tasks/{id}", auth(handlers.Task.GetTask))
	api.PUT("/tasks/{id}", auth(handlers.Task.UpdateTask))
	api.DELETE("/tasks/{id}", auth(handlers.Task.DeleteTask))
	api.POST("/tasks/{id}/complete", auth(handlers.Task.CompleteTask))
	api.POST("/tasks/{id}/activate", auth(handlers.Task.ActivateTask))
	api.GET("/statistics", auth(handlers.Task.Statistics))

	return r
}
