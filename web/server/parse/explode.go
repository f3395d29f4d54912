package parse

import (
	"context"
	"maps"

	"go.hackfix.me/waypoint/web/server/route"
	"go.hackfix.me/waypoint/web/server/types"
	"go.hackfix.me/waypoint/xtask"
)

// Meta is the merged request metadata handed to exploded handlers.
type Meta map[string]string

// Get returns the value for key, or an empty string.
func (m Meta) Get(key string) string {
	return m[key]
}

// Context merges the request headers, the URL parameters captured by the
// pattern in opts and the query string pairs, in that order. Later sources
// overwrite earlier ones on key collisions.
func Context(opts route.Options, req *types.Request) Meta {
	meta := Meta(req.Headers())
	if opts.Pattern != nil {
		maps.Copy(meta, URLParameters(opts.Pattern, req))
	}
	maps.Copy(meta, QueryString(req))

	return meta
}

// ExplodedHandler receives the merged request metadata and the parsed body.
type ExplodedHandler func(meta Meta, body Body) xtask.Task[*types.Response]

// Explode adapts fn into a context-aware route handler. The body is parsed
// when the returned task runs; a parsing failure fails the task without
// calling fn.
func Explode(fn ExplodedHandler) route.ContextHandler {
	return func(opts route.Options, req *types.Request) xtask.Task[*types.Response] {
		meta := Context(opts, req)
		return xtask.Chain(
			xtask.Task[Body](func(context.Context) (Body, error) { return ParseBody(req) }),
			func(body Body) xtask.Task[*types.Response] { return fn(meta, body) },
		)
	}
}
