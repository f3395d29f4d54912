package types

import (
	"bytes"
	"maps"
	"strings"
)

// Header names the Request always carries, alongside the transport headers.
const (
	HeaderMethod      = "method"
	HeaderURL         = "url"
	HeaderContentType = "content-type"
	HeaderAccept      = "accept"
)

// Request is an immutable incoming request. Headers are keyed by lower-case
// name and include the HTTP method and the full request URL.
type Request struct {
	headers map[string]string
	raw     []byte
}

// NewRequest returns a Request holding copies of headers and raw. Header names
// are lower-cased; if two names collide after lower-casing, the value of the
// lexically greater original name wins.
func NewRequest(headers map[string]string, raw []byte) *Request {
	h := make(map[string]string, len(headers))
	for _, k := range sortedKeys(headers) {
		h[strings.ToLower(k)] = headers[k]
	}
	return &Request{headers: h, raw: bytes.Clone(raw)}
}

// Method returns the HTTP method of the request.
func (r *Request) Method() string {
	return r.headers[HeaderMethod]
}

// URL returns the request URL, including the query string.
func (r *Request) URL() string {
	return r.headers[HeaderURL]
}

// Path returns the request URL with everything from the first '?' stripped.
func (r *Request) Path() string {
	path, _, _ := strings.Cut(r.URL(), "?")
	return path
}

// Header returns the value of the header with the given name, which is
// matched case-insensitively.
func (r *Request) Header(name string) string {
	return r.headers[strings.ToLower(name)]
}

// Headers returns a copy of all request headers.
func (r *Request) Headers() map[string]string {
	return maps.Clone(r.headers)
}

// Raw returns a copy of the request body.
func (r *Request) Raw() []byte {
	return bytes.Clone(r.raw)
}

// Len returns the size of the request body in bytes.
func (r *Request) Len() int {
	return len(r.raw)
}
