package app

import (
	"bytes"
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/mandelsoft/vfs/pkg/memoryfs"
	"github.com/mandelsoft/vfs/pkg/vfs"

	actx "go.hackfix.me/waypoint/app/context"
	"go.hackfix.me/waypoint/db"
)

var timeNow = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func timeNowFn() time.Time {
	return timeNow
}

type testApp struct {
	*App
	stdout, stderr *hookWriter
	env            *mockEnv
	fs             vfs.FileSystem
}

// newTestApp returns an App backed by an in-memory filesystem and database.
// If cfgJSON is not empty, it's written to the configuration file.
func newTestApp(ctx context.Context, cfgJSON string) (*testApp, error) {
	// Not using just :memory: to avoid 'no such table' issue.
	// See https://github.com/mattn/go-sqlite3#faq
	d, err := db.Open(ctx,
		fmt.Sprintf("file:waypoint-%x?mode=memory&cache=shared", rand.Text()), timeNowFn)
	if err != nil {
		return nil, err
	}

	fs := memoryfs.New()
	if cfgJSON != "" {
		if err = vfs.WriteFile(fs, "/config.json", []byte(cfgJSON), 0o644); err != nil {
			return nil, err
		}
	}

	stdoutW, stderrW := newHookWriter(ctx), newHookWriter(ctx)
	env := &mockEnv{env: map[string]string{}}
	app, err := New("waypoint", "/config.json", "/data",
		WithTimeNow(timeNowFn),
		WithEnv(env),
		WithDB(d),
		WithContext(ctx),
		WithFDs(strings.NewReader(""), stdoutW, stderrW),
		WithFS(fs),
		WithLogger(false),
	)
	if err != nil {
		return nil, err
	}

	return &testApp{App: app, stdout: stdoutW, stderr: stderrW, env: env, fs: fs}, nil
}

// Run executes the app with args, and resets the output buffers beforehand.
func (ta *testApp) Run(args ...string) error {
	ta.stdout.Reset()
	ta.stderr.Reset()
	return ta.App.Run(args)
}

type mockEnv struct {
	mx  sync.RWMutex
	env map[string]string
}

var _ actx.Environment = (*mockEnv)(nil)

func (me *mockEnv) Get(key string) string {
	me.mx.RLock()
	defer me.mx.RUnlock()
	return me.env[key]
}

func (me *mockEnv) Set(key, val string) error {
	me.mx.Lock()
	defer me.mx.Unlock()
	me.env[key] = val
	return nil
}

// hookWriter is a thread-safe io.Writer that notifies subscribers of every
// write.
type hookWriter struct {
	ctx  context.Context
	mx   sync.Mutex
	buf  bytes.Buffer
	subs []chan string
}

var _ io.Writer = (*hookWriter)(nil)

func newHookWriter(ctx context.Context) *hookWriter {
	return &hookWriter{ctx: ctx}
}

func (hw *hookWriter) Write(p []byte) (int, error) {
	hw.mx.Lock()
	n, err := hw.buf.Write(p)
	subs := hw.subs
	hw.mx.Unlock()

	for _, s := range subs {
		select {
		case s <- string(p):
		case <-hw.ctx.Done():
		default:
		}
	}

	return n, err
}

func (hw *hookWriter) String() string {
	hw.mx.Lock()
	defer hw.mx.Unlock()
	return hw.buf.String()
}

func (hw *hookWriter) Reset() {
	hw.mx.Lock()
	defer hw.mx.Unlock()
	hw.buf.Reset()
}

// waitFor returns a channel that receives the submatch at matchIdx of the
// first write matching rxPat.
func (hw *hookWriter) waitFor(rxPat string, matchIdx int) <-chan string {
	rx := regexp.MustCompile(rxPat)
	ch := make(chan string, 16)
	out := make(chan string, 1)

	hw.mx.Lock()
	hw.subs = append(hw.subs, ch)
	hw.mx.Unlock()

	go func() {
		for {
			select {
			case d := <-ch:
				match := rx.FindStringSubmatch(d)
				if len(match) > matchIdx {
					out <- match[matchIdx]
					return
				}
			case <-hw.ctx.Done():
				return
			}
		}
	}()

	return out
}
