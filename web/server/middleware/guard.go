package middleware

import (
	"fmt"
	"mime"
	"strconv"
	"strings"

	"go.hackfix.me/waypoint/web/server/route"
	"go.hackfix.me/waypoint/web/server/types"
	"go.hackfix.me/waypoint/xtask"
)

// RequireAccept returns a guard that settles requests whose Accept header
// doesn't allow mediaType with a 400 Bad Request response. A missing Accept
// header accepts anything.
func RequireAccept(mediaType string) route.Guard {
	return func(req *types.Request) route.Input {
		if accepts(req.Header(types.HeaderAccept), mediaType) {
			return route.Forward(req)
		}

		return route.Settle(xtask.Of(types.BadRequest(types.TextHeaders(),
			fmt.Appendf(nil, "request must accept %s", mediaType))))
	}
}

func accepts(header, mediaType string) bool {
	if strings.TrimSpace(header) == "" {
		return true
	}

	typ, _, _ := strings.Cut(mediaType, "/")
	for _, part := range strings.Split(header, ",") {
		mt, params, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		// q=0 marks the range as not acceptable.
		if q, ok := params["q"]; ok {
			if w, err := strconv.ParseFloat(q, 64); err == nil && w == 0 {
				continue
			}
		}
		if mt == "*/*" || mt == mediaType || mt == typ+"/*" {
			return true
		}
	}

	return false
}
