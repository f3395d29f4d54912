package route

import (
	"net/http"

	"go.hackfix.me/waypoint/web/server/types"
	"go.hackfix.me/waypoint/xtask"
)

// Handler turns a request into a deferred response.
type Handler func(*types.Request) xtask.Task[*types.Response]

// Options is what context-aware handlers receive besides the request.
type Options struct {
	// Pattern is the pattern of the entry that matched the request.
	Pattern Pattern
}

// ContextHandler is a handler that also receives the Options of the entry it
// was registered with.
type ContextHandler func(Options, *types.Request) xtask.Task[*types.Response]

// Predicate decides whether an entry handles a request. It must depend on the
// request only.
type Predicate func(*types.Request) bool

// Kind tells how a registered handler is invoked.
type Kind int

// Handler kinds.
const (
	// KindSimple handlers receive only the request.
	KindSimple Kind = iota
	// KindContext handlers receive the entry Options and the request.
	KindContext
)

func (k Kind) String() string {
	switch k {
	case KindSimple:
		return "simple"
	case KindContext:
		return "context"
	default:
		return "unknown"
	}
}

// Target is a handler tagged with its Kind.
type Target struct {
	kind       Kind
	simple     Handler
	contextual ContextHandler
}

// Simple tags a handler that only needs the request.
func Simple(h Handler) Target {
	return Target{kind: KindSimple, simple: h}
}

// Contextual tags a handler that also needs the entry Options.
func Contextual(h ContextHandler) Target {
	return Target{kind: KindContext, contextual: h}
}

// Kind returns the kind of the target.
func (t Target) Kind() Kind {
	return t.kind
}

func (t Target) bind(opts Options) Handler {
	if t.kind == KindContext {
		h := t.contextual
		return func(req *types.Request) xtask.Task[*types.Response] {
			return h(opts, req)
		}
	}
	return t.simple
}

// Entry pairs a predicate with the handler to run when it holds.
type Entry struct {
	Predicate Predicate
	Handler   Handler

	method  string
	pattern Pattern
	kind    Kind
}

// NewEntry returns an Entry with a custom predicate.
func NewEntry(pred Predicate, h Handler) Entry {
	return Entry{Predicate: pred, Handler: h}
}

// Method returns the HTTP method the entry was built for, if any.
func (e Entry) Method() string {
	return e.method
}

// Pattern returns the pattern the entry was built with, if any.
func (e Entry) Pattern() Pattern {
	return e.pattern
}

// Kind returns the kind of the registered handler.
func (e Entry) Kind() Kind {
	return e.kind
}

// Factory builds entries for a single HTTP method.
type Factory func(p Pattern, t Target) Entry

// ForMethod returns the entry Factory for method. The entries it builds accept
// a request if its method is equal to method and its path matches the pattern.
func ForMethod(method string) Factory {
	return func(p Pattern, t Target) Entry {
		return Entry{
			Predicate: func(req *types.Request) bool {
				return req.Method() == method && Match(p, req)
			},
			Handler: t.bind(Options{Pattern: p}),
			method:  method,
			pattern: p,
			kind:    t.kind,
		}
	}
}

var (
	// Delete builds entries for DELETE requests.
	Delete = ForMethod(http.MethodDelete)
	// Get builds entries for GET requests.
	Get = ForMethod(http.MethodGet)
	// Patch builds entries for PATCH requests.
	Patch = ForMethod(http.MethodPatch)
	// Post builds entries for POST requests.
	Post = ForMethod(http.MethodPost)
	// Put builds entries for PUT requests.
	Put = ForMethod(http.MethodPut)
)
