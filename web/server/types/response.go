package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strings"
)

// Response is an immutable outgoing response.
type Response struct {
	status  int
	headers map[string]string
	raw     []byte
}

// NewResponse returns a Response with the given status code, and copies of the
// headers and body. Header names are lower-cased.
func NewResponse(status int, headers map[string]string, raw []byte) *Response {
	h := make(map[string]string, len(headers))
	for _, k := range sortedKeys(headers) {
		h[strings.ToLower(k)] = headers[k]
	}
	if raw == nil {
		raw = []byte{}
	}
	return &Response{status: status, headers: h, raw: bytes.Clone(raw)}
}

// Content types of the responses built by NewJSONResponse and
// NewTextResponse.
const (
	ContentTypeJSON = "application/json"
	ContentTypeText = "text/plain; charset=utf-8"
)

// JSONHeaders returns new response headers declaring a JSON body.
func JSONHeaders() map[string]string {
	return map[string]string{HeaderContentType: ContentTypeJSON}
}

// TextHeaders returns new response headers declaring a plain text body.
func TextHeaders() map[string]string {
	return map[string]string{HeaderContentType: ContentTypeText}
}

// JSON encodes v and builds a Response from it with respond, which is one of
// the per-status constructors such as OK or Created.
func JSON(respond func(map[string]string, []byte) *Response, v any) (*Response, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed marshalling response into JSON: %w", err)
	}

	return respond(JSONHeaders(), data), nil
}

// NewJSONResponse returns a Response with the given status code and v encoded
// as JSON in the body.
func NewJSONResponse(status int, v any) (*Response, error) {
	return JSON(func(headers map[string]string, raw []byte) *Response {
		return NewResponse(status, headers, raw)
	}, v)
}

// NewTextResponse returns a Response with the given status code and a plain
// text body.
func NewTextResponse(status int, text string) *Response {
	return NewResponse(status, TextHeaders(), []byte(text))
}

// OK returns a 200 OK response.
func OK(headers map[string]string, raw []byte) *Response {
	return NewResponse(http.StatusOK, headers, raw)
}

// Created returns a 201 Created response.
func Created(headers map[string]string, raw []byte) *Response {
	return NewResponse(http.StatusCreated, headers, raw)
}

// NoContent returns a 204 No Content response.
func NoContent(headers map[string]string) *Response {
	return NewResponse(http.StatusNoContent, headers, nil)
}

// BadRequest returns a 400 Bad Request response.
func BadRequest(headers map[string]string, raw []byte) *Response {
	return NewResponse(http.StatusBadRequest, headers, raw)
}

// Unauthorized returns a 401 Unauthorized response.
func Unauthorized(headers map[string]string, raw []byte) *Response {
	return NewResponse(http.StatusUnauthorized, headers, raw)
}

// Forbidden returns a 403 Forbidden response.
func Forbidden(headers map[string]string, raw []byte) *Response {
	return NewResponse(http.StatusForbidden, headers, raw)
}

// NotFound returns a 404 Not Found response.
func NotFound(headers map[string]string, raw []byte) *Response {
	return NewResponse(http.StatusNotFound, headers, raw)
}

// PayloadTooLarge returns a 413 Request Entity Too Large response.
func PayloadTooLarge(headers map[string]string, raw []byte) *Response {
	return NewResponse(http.StatusRequestEntityTooLarge, headers, raw)
}

// InternalServerError returns a 500 Internal Server Error response.
func InternalServerError(headers map[string]string, raw []byte) *Response {
	return NewResponse(http.StatusInternalServerError, headers, raw)
}

// Status returns the HTTP status code of the response.
func (r *Response) Status() int {
	return r.status
}

// Header returns the value of the header with the given name, which is
// matched case-insensitively.
func (r *Response) Header(name string) string {
	return r.headers[strings.ToLower(name)]
}

// Headers returns a copy of all response headers.
func (r *Response) Headers() map[string]string {
	return maps.Clone(r.headers)
}

// Raw returns a copy of the response body.
func (r *Response) Raw() []byte {
	return bytes.Clone(r.raw)
}

// WriteHeaders sets the response headers on h.
func (r *Response) WriteHeaders(h http.Header) {
	for k, v := range r.headers {
		h.Set(k, v)
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
