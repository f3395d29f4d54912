// Package route dispatches requests to handlers. A Router holds an ordered
// list of entries, each pairing a predicate with a handler, and runs the
// handler of the first entry whose predicate accepts the request. Requests
// that match no entry get a 404 Not Found response.
//
// Entries are usually built with the per-method factories:
//
//	rt := route.New(
//		route.Get(route.Literal("/"), route.Simple(index)),
//		route.Get(route.MustRegex(`^/notes/(?<ID>[a-z0-9]+)$`), route.Contextual(parse.Explode(getNote))),
//	)
package route
