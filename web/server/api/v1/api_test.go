package api

import (
	"crypto/rand"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.hackfix.me/waypoint/db"
	"go.hackfix.me/waypoint/db/models"
	"go.hackfix.me/waypoint/web/server"
	"go.hackfix.me/waypoint/web/server/types"
)

var timeNow = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

type testAPI struct {
	*httptest.Server
	readToken, writeToken string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	path := fmt.Sprintf("file:waypoint-%x?mode=memory&cache=shared", rand.Text())
	d, err := db.Open(t.Context(), path, func() time.Time { return timeNow })
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	tokens := map[models.Role]string{}
	for _, role := range []models.Role{models.RoleReader, models.RoleWriter} {
		tok, secret, err := models.NewToken(string(role), role)
		require.NoError(t, err)
		require.NoError(t, tok.Save(t.Context(), d))
		tokens[role] = secret
	}

	var n int
	idGen := func() string {
		n++
		return fmt.Sprintf("note%d", n)
	}

	logger := slog.New(slog.DiscardHandler)
	rt := SetupRoutes(d, logger, idGen)
	srv := httptest.NewServer(server.NewBridge(rt.Guarded(Guards()...), logger))
	t.Cleanup(srv.Close)

	return &testAPI{
		Server:     srv,
		readToken:  tokens[models.RoleReader],
		writeToken: tokens[models.RoleWriter],
	}
}

func (ta *testAPI) do(t *testing.T, method, path, token, body string) (int, string) {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(t.Context(), method, ta.URL+path, r)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ta.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, string(data)
}

func TestAPINotes(t *testing.T) {
	t.Parallel()

	ta := newTestAPI(t)
	const ts = `"created_at":"2025-01-01T00:00:00Z","updated_at":"2025-01-01T00:00:00Z"`

	steps := []struct {
		name      string
		method    string
		path      string
		token     string
		body      string
		expStatus int
		expBody   string
	}{
		{
			name: "ok/index", method: http.MethodGet, path: "/",
			expStatus: 200, expBody: "waypoint notes API\n",
		},
		{
			name: "err/unauthorized", method: http.MethodGet, path: "/notes",
			expStatus: 401, expBody: `{"message":"empty Authorization header"}`,
		},
		{
			name: "ok/list_empty", method: http.MethodGet, path: "/notes", token: ta.readToken,
			expStatus: 200, expBody: `[]`,
		},
		{
			name: "err/create_forbidden", method: http.MethodPost, path: "/notes", token: ta.readToken,
			body:      `{"title":"hoge"}`,
			expStatus: 403, expBody: `{"message":"token 'reader' is not allowed to write notes"}`,
		},
		{
			name: "ok/create", method: http.MethodPost, path: "/notes", token: ta.writeToken,
			body:      `{"title":"hoge","body":"first"}`,
			expStatus: 201,
			expBody:   `{"id":"note1",` + ts + `,"title":"hoge","body":"first","status":"active"}`,
		},
		{
			name: "ok/create_archived", method: http.MethodPost, path: "/notes", token: ta.writeToken,
			body:      `{"title":"fuga","status":"archived"}`,
			expStatus: 201,
			expBody:   `{"id":"note2",` + ts + `,"title":"fuga","body":"","status":"archived"}`,
		},
		{
			name: "err/create_no_title", method: http.MethodPost, path: "/notes", token: ta.writeToken,
			body:      `{"body":"x"}`,
			expStatus: 400, expBody: `{"message":"note title must not be empty"}`,
		},
		{
			name: "err/create_invalid_json", method: http.MethodPost, path: "/notes", token: ta.writeToken,
			body:      `{"title":`,
			expStatus: 400, expBody: `{"message":"failed parsing JSON request body: unexpected end of JSON input"}`,
		},
		{
			name: "ok/list_filtered", method: http.MethodGet, path: "/notes?status=archived", token: ta.readToken,
			expStatus: 200,
			expBody:   `[{"id":"note2",` + ts + `,"title":"fuga","body":"","status":"archived"}]`,
		},
		{
			name: "err/list_bad_status", method: http.MethodGet, path: "/notes?status=gone", token: ta.readToken,
			expStatus: 400, expBody: `{"message":"invalid note status 'gone'"}`,
		},
		{
			name: "ok/list_search", method: http.MethodGet, path: "/notes?q=UG", token: ta.readToken,
			expStatus: 200,
			expBody:   `[{"id":"note2",` + ts + `,"title":"fuga","body":"","status":"archived"}]`,
		},
		{
			name: "ok/list_search_wildcard", method: http.MethodGet, path: "/notes?q=%25", token: ta.readToken,
			expStatus: 200, expBody: `[]`,
		},
		{
			name: "ok/list_limit", method: http.MethodGet, path: "/notes?limit=1", token: ta.readToken,
			expStatus: 200,
			expBody:   `[{"id":"note1",` + ts + `,"title":"hoge","body":"first","status":"active"}]`,
		},
		{
			name: "err/list_bad_limit", method: http.MethodGet, path: "/notes?limit=-1", token: ta.readToken,
			expStatus: 400, expBody: `{"message":"invalid limit '-1'"}`,
		},
		{
			name: "ok/get", method: http.MethodGet, path: "/notes/note1", token: ta.readToken,
			expStatus: 200,
			expBody:   `{"id":"note1",` + ts + `,"title":"hoge","body":"first","status":"active"}`,
		},
		{
			name: "ok/patch", method: http.MethodPatch, path: "/notes/note1", token: ta.writeToken,
			body:      `{"status":"archived"}`,
			expStatus: 200,
			expBody:   `{"id":"note1",` + ts + `,"title":"hoge","body":"first","status":"archived"}`,
		},
		{
			name: "ok/put", method: http.MethodPut, path: "/notes/note1", token: ta.writeToken,
			body:      `{"title":"piyo"}`,
			expStatus: 200,
			expBody:   `{"id":"note1",` + ts + `,"title":"piyo","body":"","status":"active"}`,
		},
		{
			name: "ok/delete", method: http.MethodDelete, path: "/notes/note1", token: ta.writeToken,
			expStatus: 204,
		},
		{
			name: "err/get_deleted", method: http.MethodGet, path: "/notes/note1", token: ta.readToken,
			expStatus: 404, expBody: `{"message":"note with ID 'note1' doesn't exist"}`,
		},
		{
			name: "err/no_route", method: http.MethodGet, path: "/notes/NOTE1", token: ta.readToken,
			expStatus: 404,
		},
	}

	// Steps depend on each other, so they run sequentially.
	for _, st := range steps {
		t.Run(st.name, func(t *testing.T) {
			status, body := ta.do(t, st.method, st.path, st.token, st.body)
			assert.Equal(t, st.expStatus, status)
			if strings.HasPrefix(st.expBody, "{") || strings.HasPrefix(st.expBody, "[") {
				assert.JSONEq(t, st.expBody, body)
			} else {
				assert.Equal(t, st.expBody, body)
			}
		})
	}
}

func TestAPIRequireAccept(t *testing.T) {
	t.Parallel()

	ta := newTestAPI(t)

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, ta.URL+"/", nil)
	require.NoError(t, err)
	req.Header.Set("Accept", "text/plain")

	resp, err := ta.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSetupRoutes(t *testing.T) {
	t.Parallel()

	rt := SetupRoutes(nil, slog.New(slog.DiscardHandler), nil)

	got := make([]string, 0)
	for _, e := range rt.Entries() {
		got = append(got, fmt.Sprintf("%s %s %s", e.Method(), e.Pattern(), e.Kind()))
	}

	pat := NotePattern.String()
	assert.Equal(t, []string{
		"GET / simple",
		"GET /notes context",
		"POST /notes context",
		"GET " + pat + " context",
		"PUT " + pat + " context",
		"PATCH " + pat + " context",
		"DELETE " + pat + " context",
	}, got)
}

func TestAPIContentType(t *testing.T) {
	t.Parallel()

	ta := newTestAPI(t)

	tests := []struct {
		name      string
		method    string
		path      string
		token     string
		body      string
		expStatus int
		expType   string
	}{
		{name: "ok/index", method: http.MethodGet, path: "/", expStatus: 200, expType: types.ContentTypeText},
		{
			name: "ok/create", method: http.MethodPost, path: "/notes", token: ta.writeToken,
			body: `{"title":"hoge"}`, expStatus: 201, expType: types.ContentTypeJSON,
		},
		{
			name: "err/unauthorized", method: http.MethodGet, path: "/notes",
			expStatus: 401, expType: types.ContentTypeJSON,
		},
		{
			name: "err/forbidden", method: http.MethodPost, path: "/notes", token: ta.readToken,
			body: `{"title":"hoge"}`, expStatus: 403, expType: types.ContentTypeJSON,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r io.Reader
			if tt.body != "" {
				r = strings.NewReader(tt.body)
			}
			req, err := http.NewRequestWithContext(t.Context(), tt.method, ta.URL+tt.path, r)
			require.NoError(t, err)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}

			resp, err := ta.Client().Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.expStatus, resp.StatusCode)
			assert.Equal(t, tt.expType, resp.Header.Get("Content-Type"))
		})
	}
}
