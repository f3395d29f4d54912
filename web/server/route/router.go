package route

import (
	"context"
	"slices"

	"go.hackfix.me/waypoint/web/server/types"
	"go.hackfix.me/waypoint/xtask"
)

// Input is the value a Router dispatches. It either carries a request that
// still has to be routed, or a result an upstream guard already settled on.
type Input struct {
	req    *types.Request
	result xtask.Task[*types.Response]
}

// Forward returns an Input carrying req for dispatch.
func Forward(req *types.Request) Input {
	return Input{req: req}
}

// Settle returns an Input carrying a result that bypasses dispatch.
func Settle(result xtask.Task[*types.Response]) Input {
	return Input{result: result}
}

// Request returns the request carried by the Input, if any.
func (in Input) Request() (*types.Request, bool) {
	return in.req, in.req != nil
}

// Result returns the settled result of the Input. It is nil if the Input
// carries a request.
func (in Input) Result() xtask.Task[*types.Response] {
	return in.result
}

// Guard inspects a request before dispatch. It either forwards the request
// or settles it with an early result.
type Guard func(*types.Request) Input

// Router dispatches requests to the first matching entry. It is immutable
// and safe for concurrent use.
type Router struct {
	entries []Entry
}

// New returns a Router over a copy of entries, evaluated in the given order.
func New(entries ...Entry) *Router {
	return &Router{entries: slices.Clone(entries)}
}

// Entries returns a copy of the route table.
func (rt *Router) Entries() []Entry {
	return slices.Clone(rt.entries)
}

// Dispatch routes in. If in doesn't carry a request, its settled result is
// returned unchanged. Otherwise the handler of the first entry whose predicate
// holds is returned, deferred until the task is run. If no entry matches, the
// result is a 404 Not Found response with an empty body.
func (rt *Router) Dispatch(in Input) xtask.Task[*types.Response] {
	req, ok := in.Request()
	if !ok {
		return in.Result()
	}

	for _, e := range rt.entries {
		if e.Predicate == nil || e.Handler == nil || !e.Predicate(req) {
			continue
		}
		h := e.Handler
		return func(ctx context.Context) (*types.Response, error) {
			return h(req).Run(ctx)
		}
	}

	return xtask.Of(types.NotFound(nil, nil))
}

// Handle dispatches req. It implements Handler.
func (rt *Router) Handle(req *types.Request) xtask.Task[*types.Response] {
	return rt.Dispatch(Forward(req))
}

// Guarded returns a Handler that passes each request through guards, in
// order, before dispatching it. Once a guard settles the request, the
// remaining guards are skipped and the Router passes the result through.
func (rt *Router) Guarded(guards ...Guard) Handler {
	guards = slices.Clone(guards)
	return func(req *types.Request) xtask.Task[*types.Response] {
		in := Forward(req)
		for _, g := range guards {
			r, ok := in.Request()
			if !ok {
				break
			}
			in = g(r)
		}
		return rt.Dispatch(in)
	}
}
