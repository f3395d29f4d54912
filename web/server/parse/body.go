package parse

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"golang.org/x/text/encoding/htmlindex"

	"go.hackfix.me/waypoint/web/server/types"
)

// BodyKind identifies how a request body was interpreted.
type BodyKind int

// Body kinds.
const (
	BodyEmpty BodyKind = iota
	BodyJSON
	BodyText
	BodyRaw
)

func (k BodyKind) String() string {
	switch k {
	case BodyEmpty:
		return "empty"
	case BodyJSON:
		return "json"
	case BodyText:
		return "text"
	case BodyRaw:
		return "raw"
	default:
		return "unknown"
	}
}

// Body is a parsed request body.
type Body struct {
	kind BodyKind
	json any
	text string
	raw  []byte
}

// Kind returns how the body was interpreted.
func (b Body) Kind() BodyKind {
	return b.kind
}

// Value returns the body as a plain Go value: an empty map for an empty body,
// the decoded JSON value, the decoded text as a string, or the raw bytes.
func (b Body) Value() any {
	switch b.kind {
	case BodyJSON:
		return b.json
	case BodyText:
		return b.text
	case BodyRaw:
		return bytes.Clone(b.raw)
	default:
		return map[string]any{}
	}
}

// Text returns the decoded text of a text body.
func (b Body) Text() string {
	return b.text
}

// Bytes returns the undecoded body bytes.
func (b Body) Bytes() []byte {
	return bytes.Clone(b.raw)
}

// Decode unmarshals a JSON body into v. An empty body decodes as an empty
// JSON object.
func (b Body) Decode(v any) error {
	switch b.kind {
	case BodyEmpty:
		return json.Unmarshal([]byte("{}"), v) //nolint:wrapcheck // Can't fail on a valid literal.
	case BodyJSON:
		if err := json.Unmarshal(b.raw, v); err != nil {
			return types.NewError(http.StatusBadRequest,
				fmt.Sprintf("failed decoding request body: %s", err))
		}
		return nil
	default:
		return types.NewError(http.StatusUnsupportedMediaType,
			fmt.Sprintf("expected a JSON body, got %s", b.kind))
	}
}

// ParseBody interprets the body of req according to its content type. An
// empty body is always BodyEmpty. application/json bodies are decoded as
// JSON, text/* bodies are decoded as text using the declared charset (UTF-8
// by default), and anything else is kept as raw bytes. A JSON body that
// doesn't parse fails with a 400 Bad Request Error.
func ParseBody(req *types.Request) (Body, error) {
	raw := req.Raw()
	if len(raw) == 0 {
		return Body{kind: BodyEmpty}, nil
	}

	mediaType, params, err := mime.ParseMediaType(req.Header(types.HeaderContentType))
	if err != nil {
		return Body{kind: BodyRaw, raw: raw}, nil //nolint:nilerr // Unknown content is passed through.
	}

	switch {
	case mediaType == "application/json":
		var v any
		if err = json.Unmarshal(raw, &v); err != nil {
			return Body{}, types.NewError(http.StatusBadRequest,
				fmt.Sprintf("failed parsing JSON request body: %s", err))
		}
		return Body{kind: BodyJSON, json: v, raw: raw}, nil
	case strings.HasPrefix(mediaType, "text/"):
		text, err := decodeText(raw, params["charset"])
		if err != nil {
			return Body{}, types.NewError(http.StatusBadRequest, err.Error())
		}
		return Body{kind: BodyText, text: text, raw: raw}, nil
	default:
		return Body{kind: BodyRaw, raw: raw}, nil
	}
}

func decodeText(raw []byte, charset string) (string, error) {
	if charset == "" || strings.EqualFold(charset, "utf-8") || strings.EqualFold(charset, "utf8") {
		return string(raw), nil
	}

	enc, err := htmlindex.Get(charset)
	if err != nil {
		return "", fmt.Errorf("unsupported charset '%s'", charset)
	}

	text, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("failed decoding %s request body: %w", charset, err)
	}

	return string(text), nil
}
