package middleware

import (
	"context"
	"net/http"

	"github.com/nrednav/cuid2"
)

// HeaderRequestID is the header that carries the request ID.
const HeaderRequestID = "X-Request-Id"

type requestIDKey struct{}

// RequestID assigns a unique ID to every request, unless the client already
// sent one. The ID is set on the response headers and stored in the request
// context.
func RequestID(gen func() string) Middleware {
	if gen == nil {
		gen = cuid2.Generate
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(HeaderRequestID)
			if id == "" || len(id) > 64 {
				id = gen()
			}
			w.Header().Set(HeaderRequestID, id)
			ctx := context.WithValue(r.Context(), requestIDKey{}, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetRequestID returns the ID assigned to the request by RequestID, if any.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
