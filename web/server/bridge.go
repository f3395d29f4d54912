package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	aerrors "go.hackfix.me/waypoint/app/errors"
	"go.hackfix.me/waypoint/web/server/route"
	"go.hackfix.me/waypoint/web/server/types"
	"go.hackfix.me/waypoint/xtask"
)

// DefaultMaxBodySize is the request body limit used when none is configured.
const DefaultMaxBodySize int64 = 10 << 20

var errNoResponse = errors.New("handler returned no response")

// Bridge adapts a route.Handler to net/http. It buffers each request into a
// types.Request, runs the handler task, and writes the outcome.
type Bridge struct {
	handler     route.Handler
	logger      *slog.Logger
	maxBodySize int64
	errorLevel  types.ErrorLevel
}

// BridgeOption configures a Bridge.
type BridgeOption func(*Bridge)

// WithMaxBodySize sets the largest request body accepted, in bytes. Larger
// bodies are answered with 413 Payload Too Large. A value <= 0 disables the
// limit.
func WithMaxBodySize(n int64) BridgeOption {
	return func(b *Bridge) {
		b.maxBodySize = n
	}
}

// WithErrorLevel sets how much detail of failure messages is sent to clients.
func WithErrorLevel(lvl types.ErrorLevel) BridgeOption {
	return func(b *Bridge) {
		b.errorLevel = lvl
	}
}

// NewBridge returns a Bridge that serves requests with h.
func NewBridge(h route.Handler, logger *slog.Logger, opts ...BridgeOption) *Bridge {
	b := &Bridge{
		handler:     h,
		logger:      logger,
		maxBodySize: DefaultMaxBodySize,
		errorLevel:  types.ErrorLevelFull,
	}
	for _, opt := range opts {
		opt(b)
	}

	return b
}

// ServeHTTP implements http.Handler.
func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body io.Reader = r.Body
	if b.maxBodySize > 0 {
		body = http.MaxBytesReader(w, r.Body, b.maxBodySize)
	}

	raw, err := io.ReadAll(body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeResponse(w, types.PayloadTooLarge(types.TextHeaders(),
				fmt.Appendf(nil, "request body exceeds %d bytes", maxErr.Limit)))
			return
		}
		writeResponse(w, types.NewTextResponse(http.StatusBadRequest,
			fmt.Sprintf("failed reading request body: %s", err)))
		return
	}

	req := types.NewRequest(flattenHeaders(r), raw)
	writeResponse(w, b.Serve(r.Context(), req))
}

// Serve runs the handler for req and folds its outcome into a response. It
// never returns nil.
func (b *Bridge) Serve(ctx context.Context, req *types.Request) *types.Response {
	// The handler itself is called inside the task, so that a panic while
	// building the task is recovered like any other fault.
	task := xtask.Map(
		xtask.Chain[*types.Request, *types.Response](xtask.Of(req), b.handler),
		func(resp *types.Response) *types.Response {
			if resp == nil {
				return b.failure(req, errNoResponse)
			}
			return resp
		},
	)

	return xtask.Fold(ctx, task,
		func(err error) *types.Response { return b.failure(req, err) },
		func(resp *types.Response) *types.Response { return resp },
	)
}

func (b *Bridge) failure(req *types.Request, err error) *types.Response {
	if resp, ok := types.AsResponse(err); ok {
		return resp
	}

	terr, isErr := types.AsError(err)
	if isErr && terr.StatusCode != 0 && terr.StatusCode < http.StatusInternalServerError {
		msg := b.sanitize(terr.StatusCode, terr.Message)
		resp, merr := types.NewJSONResponse(terr.StatusCode, types.NewError(terr.StatusCode, msg))
		if merr == nil {
			return resp
		}
		err = merr
	}

	aerrors.Log(b.logger, aerrors.WithCause(
		errors.New("failed handling request"), err,
		"method", req.Method(), "url", req.URL()))

	if isErr && terr.StatusCode > http.StatusInternalServerError {
		return types.NewTextResponse(terr.StatusCode, b.sanitize(terr.StatusCode, err.Error()))
	}

	return types.InternalServerError(types.TextHeaders(),
		[]byte(b.sanitize(http.StatusInternalServerError, err.Error())))
}

func (b *Bridge) sanitize(status int, msg string) string {
	switch b.errorLevel {
	case types.ErrorLevelNone:
		return http.StatusText(status)
	case types.ErrorLevelMinimal:
		before, _, _ := strings.Cut(msg, ": ")
		return before
	default:
		return msg
	}
}

// flattenHeaders returns the request headers as a single-valued map, with
// multiple values joined by a comma. The method and URL are included under
// the "method" and "url" keys.
func flattenHeaders(r *http.Request) map[string]string {
	headers := make(map[string]string, len(r.Header)+3)
	for k, v := range r.Header {
		headers[strings.ToLower(k)] = strings.Join(v, ", ")
	}
	if r.Host != "" {
		headers["host"] = r.Host
	}

	uri := r.RequestURI
	if uri == "" {
		uri = r.URL.RequestURI()
	}
	headers[types.HeaderMethod] = r.Method
	headers[types.HeaderURL] = uri

	return headers
}

func writeResponse(w http.ResponseWriter, resp *types.Response) {
	resp.WriteHeaders(w.Header())
	w.WriteHeader(resp.Status())
	//nolint:errcheck // The client may have gone away.
	_, _ = w.Write(resp.Raw())
}
