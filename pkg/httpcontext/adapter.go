package httpcontext

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	appLogger "github.com/fastygo/taskstore/pkg/logger"
)

// Key represents a context value key exported for reuse.
type Key string

const (
	KeyRemoteAddr Key = "remote_addr"
	KeyUserAgent  Key = "user_agent"
	KeySubject    Key = "subject"
)

const (
	RequestIDHeader = "X-Request-ID"
	// SubjectHeader is set by the auth middleware once a token is verified.
	SubjectHeader = "X-Subject"
)

// Adapter turns a fasthttp.RequestCtx into a deadline-bound context carrying
// the request id that repository logs are tagged with.
type Adapter struct {
	timeout time.Duration
}

func NewAdapter(timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Adapter{
		timeout: timeout,
	}
}

func (a *Adapter) Attach(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	stdCtx, cancel := context.WithTimeout(context.Background(), a.timeout)

	reqID := getRequestID(ctx)
	stdCtx = appLogger.ContextWithRequestID(stdCtx, reqID)
	ctx.Response.Header.Set(RequestIDHeader, reqID)

	if remoteAddr := ctx.RemoteAddr(); remoteAddr != nil {
		stdCtx = context.WithValue(stdCtx, KeyRemoteAddr, remoteAddr.String())
	}
	if ua := string(ctx.Request.Header.UserAgent()); ua != "" {
		stdCtx = context.WithValue(stdCtx, KeyUserAgent, ua)
	}
	if sub := string(ctx.Request.Header.Peek(SubjectHeader)); sub != "" {
		stdCtx = context.WithValue(stdCtx, KeySubject, sub)
	}

	return stdCtx, cancel
}

// Subject returns the authenticated subject, if any.
func Subject(ctx context.Context) string {
	sub, _ := ctx.Value(KeySubject).(string)
	return sub
}

func getRequestID(ctx *fasthttp.RequestCtx) string {
	if ctx == nil {
		return uuid.NewString()
	}
	if header := string(ctx.Request.Header.Peek(RequestIDHeader)); strings.TrimSpace(header) != "" {
		return header
	}
	return uuid.NewString()
}
