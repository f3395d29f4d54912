package server

import (
	"context"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"go.hackfix.me/waypoint/web/server/route"
	"go.hackfix.me/waypoint/web/server/types"
)

// Exchange is a single request received by a transport, together with the
// means of answering it.
type Exchange interface {
	Method() string
	URL() string
	Header() map[string][]string
	Body() io.Reader
	// Respond sends the response. It is called exactly once per exchange.
	Respond(*types.Response) error
}

// Stream serves every exchange produced by exchanges with h, each on its own
// goroutine, until the sequence ends or ctx is done. It returns after all
// started exchanges were answered.
func Stream(
	ctx context.Context, exchanges iter.Seq[Exchange], h route.Handler, logger *slog.Logger,
	opts ...BridgeOption,
) {
	b := NewBridge(h, logger, opts...)

	var wg sync.WaitGroup
	for ex := range exchanges {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := ex.Respond(b.exchange(ctx, ex)); err != nil {
				logger.Warn("failed sending response",
					"method", ex.Method(), "url", ex.URL(), "error", err.Error())
			}
		}()
	}
	wg.Wait()
}

func (b *Bridge) exchange(ctx context.Context, ex Exchange) *types.Response {
	body := ex.Body()
	if body == nil {
		body = strings.NewReader("")
	}
	if b.maxBodySize > 0 {
		body = io.LimitReader(body, b.maxBodySize+1)
	}

	raw, err := io.ReadAll(body)
	if err != nil {
		return types.NewTextResponse(http.StatusBadRequest, fmt.Sprintf("failed reading request body: %s", err))
	}
	if b.maxBodySize > 0 && int64(len(raw)) > b.maxBodySize {
		return types.PayloadTooLarge(types.TextHeaders(),
			fmt.Appendf(nil, "request body exceeds %d bytes", b.maxBodySize))
	}

	headers := make(map[string]string, len(ex.Header())+2)
	for k, v := range ex.Header() {
		headers[strings.ToLower(k)] = strings.Join(v, ", ")
	}
	headers[types.HeaderMethod] = ex.Method()
	headers[types.HeaderURL] = ex.URL()

	return b.Serve(ctx, types.NewRequest(headers, raw))
}
