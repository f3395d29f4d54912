package parse

import (
	"net/url"
	"strings"

	"go.hackfix.me/waypoint/web/server/route"
	"go.hackfix.me/waypoint/web/server/types"
)

// QueryString returns the key/value pairs of the query string of req. Pairs
// are separated by '&' and split on the first '=' only. Keys and values are
// percent-decoded, with '+' decoded as a space; text that fails to decode is
// kept verbatim. A key without '=' maps to an empty value, empty segments are
// skipped, and the last occurrence of a repeated key wins.
func QueryString(req *types.Request) map[string]string {
	pairs := map[string]string{}

	_, query, found := strings.Cut(req.URL(), "?")
	if !found || query == "" {
		return pairs
	}

	for _, segment := range strings.Split(query, "&") {
		if segment == "" {
			continue
		}
		k, v, _ := strings.Cut(segment, "=")
		pairs[unescape(k)] = unescape(v)
	}

	return pairs
}

func unescape(s string) string {
	u, err := url.QueryUnescape(s)
	if err != nil {
		return s
	}
	return u
}

// URLParameters returns the named groups captured by p on the path of req.
// It returns an empty map if p is not a regular expression or doesn't match.
func URLParameters(p route.Pattern, req *types.Request) map[string]string {
	re, ok := p.(*route.Regex)
	if !ok || re == nil {
		return map[string]string{}
	}
	return re.Captures(req.Path())
}
