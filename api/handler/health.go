package handler

import (
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskstore/api/transport"
	"github.com/fastygo/taskstore/internal/infrastructure/monitor"
	"github.com/fastygo/taskstore/pkg/httpcontext"
)

// StatusSource exposes the last dependency check.
type StatusSource interface {
	GetStatus() monitor.Status
}

// BreakerState reports the remote circuit breaker state.
type BreakerState interface {
	State() string
}

type HealthHandler struct {
	baseHandler
	monitor StatusSource
	breaker BreakerState
}

func NewHealthHandler(mon StatusSource, breaker BreakerState, adapter *httpcontext.Adapter, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		monitor:     mon,
		breaker:     breaker,
	}
}

// @Summary Health check
// @Tags health
// @Router /health [get]
func (h *HealthHandler) Check(ctx *fasthttp.RequestCtx) {
	status := h.monitor.GetStatus()
	payload := map[string]interface{}{
		"timestamp":  time.Now().UTC(),
		"last_check": status.LastCheck,
		"sources":    status.Sources,
		"buffer": map[string]interface{}{
			"online": status.Buffer,
			"size":   status.BufferSize,
		},
	}
	if h.breaker != nil {
		payload["breaker"] = h.breaker.State()
	}

	if status.Healthy() {
		h.respondSuccess(ctx, http.StatusOK, payload)
		return
	}
	// A degraded remote does not fail the probe.
	h.respondJSON(ctx, http.StatusOK, transport.Envelope{Status: "degraded", Data: payload})
}
