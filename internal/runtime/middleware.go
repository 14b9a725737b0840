package runtime

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/goldenstatedata/gr237/pkg/mcperr"
)

// Middleware bounds tool-call concurrency and execution time using the
// Controller's request semaphore.
type Middleware struct {
	ctrl *Controller
}

// NewMiddleware constructs a Middleware bound to the provided Controller.
func NewMiddleware(ctrl *Controller) *Middleware {
	return &Middleware{ctrl: ctrl}
}

// ToolMiddleware implements mcp-go's tool handler middleware interface. A
// request slot is acquired with a bounded wait and always released; each
// call runs under the configured operation timeout.
func (m *Middleware) ToolMiddleware(next server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		limits := m.ctrl.limits

		acquireCtx, cancelAcquire := ctx, context.CancelFunc(func() {})
		if limits.AcquireRequestTimeout > 0 {
			acquireCtx, cancelAcquire = context.WithTimeout(ctx, limits.AcquireRequestTimeout)
		}
		err := m.ctrl.AcquireRequest(acquireCtx)
		cancelAcquire()
		if err != nil {
			return mcperr.Wrapf(mcperr.BusyResource,
				"concurrent request limit reached (max=%d); retry shortly", limits.MaxConcurrentRequests), nil
		}
		defer m.ctrl.ReleaseRequest()

		callCtx, cancelCall := ctx, context.CancelFunc(func() {})
		if limits.OperationTimeout > 0 {
			callCtx, cancelCall = context.WithTimeout(ctx, limits.OperationTimeout)
		}
		defer cancelCall()

		res, err := next(callCtx, req)
		if err == context.DeadlineExceeded || (err == nil && res == nil && callCtx.Err() == context.DeadlineExceeded) {
			return mcperr.New(mcperr.Timeout, ""), nil
		}
		return res, err
	}
}
