package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/mandelsoft/vfs/pkg/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppRoutes(t *testing.T) {
	t.Parallel()

	app, err := newTestApp(t.Context(), "")
	require.NoError(t, err)

	err = app.Run("routes")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(app.stdout.String()), "\n")
	require.Len(t, lines, 8)

	expRows := [][]string{
		{"GET", "/", "simple"},
		{"GET", "/notes", "context"},
		{"POST", "/notes", "context"},
		{"GET", "^/notes/(?<ID>[a-z0-9]+)$", "context"},
		{"PUT", "^/notes/(?<ID>[a-z0-9]+)$", "context"},
		{"PATCH", "^/notes/(?<ID>[a-z0-9]+)$", "context"},
		{"DELETE", "^/notes/(?<ID>[a-z0-9]+)$", "context"},
	}
	for i, row := range expRows {
		assert.Equal(t, row, strings.Fields(lines[i+1]))
	}
}

func TestAppToken(t *testing.T) {
	t.Parallel()

	app, err := newTestApp(t.Context(), "")
	require.NoError(t, err)

	t.Run("ok/create", func(t *testing.T) {
		err = app.Run("token", "create", "alice")
		require.NoError(t, err)
		assert.Regexp(t, regexp.MustCompile(`^Token: \w+\n$`), app.stdout.String())

		err = app.Run("token", "create", "--role=admin", "bob")
		require.NoError(t, err)
	})

	t.Run("err/duplicate", func(t *testing.T) {
		err = app.Run("token", "create", "alice")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed saving token")
	})

	t.Run("err/invalid_role", func(t *testing.T) {
		err = app.Run("token", "create", "--role=root", "carol")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid role 'root'")
	})

	t.Run("ok/list", func(t *testing.T) {
		err = app.Run("token", "ls")
		require.NoError(t, err)

		lines := strings.Split(strings.TrimSpace(app.stdout.String()), "\n")
		require.Len(t, lines, 3)
		assert.Equal(t, []string{"alice", "reader"}, strings.Fields(lines[1])[:2])
		assert.Equal(t, []string{"bob", "admin"}, strings.Fields(lines[2])[:2])
	})

	t.Run("ok/remove", func(t *testing.T) {
		err = app.Run("token", "rm", "alice", "bob")
		require.NoError(t, err)

		err = app.Run("token", "list")
		require.NoError(t, err)
		assert.Empty(t, app.stdout.String())
	})

	t.Run("err/remove_missing", func(t *testing.T) {
		err = app.Run("token", "remove", "alice")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed removing token")
	})
}

func TestAppConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		cfg    string
		args   []string
		expErr string
	}{
		{
			name: "ok/valid",
			cfg:  `{"server": {"address": ":0", "max_body_size": 1024, "read_timeout": "5s"}}`,
			args: []string{"routes"},
		},
		{
			name:   "err/invalid_json",
			cfg:    `{"server": `,
			args:   []string{"routes"},
			expErr: "failed parsing configuration file",
		},
		{
			name:   "err/invalid_duration",
			cfg:    `{"server": {"read_timeout": "soon"}}`,
			args:   []string{"routes"},
			expErr: "failed parsing read timeout",
		},
		{
			name:   "err/invalid_error_level",
			cfg:    `{"server": {"error_level": "verbose"}}`,
			args:   []string{"routes"},
			expErr: "invalid error level 'verbose'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			app, err := newTestApp(t.Context(), tt.cfg)
			require.NoError(t, err)

			err = app.Run(tt.args...)
			if tt.expErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestAppServe(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	app, err := newTestApp(ctx, "")
	require.NoError(t, err)

	err = app.Run("token", "create", "--role=writer", "alice")
	require.NoError(t, err)
	secret := strings.TrimSpace(strings.TrimPrefix(app.stdout.String(), "Token: "))

	addrCh := app.stderr.waitFor(`address=(\S+)`, 1)
	runErr := make(chan error, 1)
	go func() {
		runErr <- app.App.Run([]string{"serve", "127.0.0.1:0"})
	}()

	var addr string
	select {
	case addr = <-addrCh:
	case err = <-runErr:
		t.Fatalf("serve exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the web server to start")
	}

	do := func(method, path, body string) (int, string) {
		req, rerr := http.NewRequestWithContext(ctx, method,
			fmt.Sprintf("http://%s%s", addr, path), strings.NewReader(body))
		require.NoError(t, rerr)
		req.Header.Set("Authorization", "Bearer "+secret)
		req.Header.Set("Content-Type", "application/json")

		resp, rerr := http.DefaultClient.Do(req)
		require.NoError(t, rerr)
		defer resp.Body.Close()
		data, rerr := io.ReadAll(resp.Body)
		require.NoError(t, rerr)

		return resp.StatusCode, string(data)
	}

	status, body := do(http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "waypoint notes API\n", body)

	status, body = do(http.MethodPost, "/notes", `{"title": "hello"}`)
	require.Equal(t, http.StatusCreated, status)
	var note map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &note))
	assert.Equal(t, "hello", note["title"])
	assert.Equal(t, "active", note["status"])

	status, body = do(http.MethodGet, "/notes/"+note["id"].(string), "")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `"title":"hello"`)

	status, _ = do(http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, status)

	cancel()
	select {
	case err = <-runErr:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the web server to stop")
	}
}

func TestAppConfigCommand(t *testing.T) {
	t.Parallel()

	app, err := newTestApp(t.Context(), `{"server": {"address": ":9000", "shutdown_timeout": "1d"}}`)
	require.NoError(t, err)

	t.Run("ok/show", func(t *testing.T) {
		err = app.Run("config", "show")
		require.NoError(t, err)

		var cfg map[string]map[string]any
		require.NoError(t, json.Unmarshal([]byte(app.stdout.String()), &cfg))
		assert.Equal(t, ":9000", cfg["server"]["address"])
		assert.Equal(t, "1d", cfg["server"]["shutdown_timeout"])
		assert.Equal(t, "30s", cfg["server"]["read_timeout"])
	})

	t.Run("err/init_exists", func(t *testing.T) {
		err = app.Run("config", "init")
		require.EqualError(t, err, "configuration file already exists")
	})

	t.Run("ok/init_force", func(t *testing.T) {
		err = app.Run("config", "init", "--force")
		require.NoError(t, err)

		data, rerr := vfs.ReadFile(app.fs, "/config.json")
		require.NoError(t, rerr)
		assert.Contains(t, string(data), `"read_timeout": "30s"`)
		assert.Contains(t, string(data), `"shutdown_timeout": "1d"`)
	})
}
