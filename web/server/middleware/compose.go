package middleware

import (
	"context"

	"go.hackfix.me/waypoint/web/server/route"
	"go.hackfix.me/waypoint/web/server/types"
	"go.hackfix.me/waypoint/xtask"
)

// Check inspects a request before it reaches a handler. It succeeds with
// options of type O that are passed on to the handler, or fails to stop the
// request. Failing with types.Reject sends the carried response as is.
type Check[O any] func(*types.Request) xtask.Task[O]

// OptionsHandler is a handler that receives the options produced by a Check.
type OptionsHandler[O any] func(O, *types.Request) xtask.Task[*types.Response]

// With composes check in front of handlers. The returned function wraps a
// handler into a route.Handler that runs check first, and calls the handler
// with its options only if the check succeeds. Otherwise the check failure is
// the result, unchanged. Nothing runs until the resulting task is run.
func With[O any](check Check[O]) func(OptionsHandler[O]) route.Handler {
	return func(h OptionsHandler[O]) route.Handler {
		return func(req *types.Request) xtask.Task[*types.Response] {
			return xtask.Chain(check.task(req), func(opts O) xtask.Task[*types.Response] {
				return h(opts, req)
			})
		}
	}
}

// task defers calling c until the returned task runs, so that a check that
// panics while building its task still fails only that request.
func (c Check[O]) task(req *types.Request) xtask.Task[O] {
	return func(ctx context.Context) (O, error) {
		return c(req).Run(ctx)
	}
}
