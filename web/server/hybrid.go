package server

import (
	"bufio"
	"crypto/tls"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"
)

// handshakeTimeout bounds how long a connection may stay silent before its
// protocol is detected.
const handshakeTimeout = 5 * time.Second

// peekConn is a buffered net.Conn whose first bytes can be inspected without
// consuming them.
type peekConn struct {
	net.Conn
	r *bufio.Reader
}

// Read reads data from the connection using the buffered reader, so that
// previously peeked data is read first.
func (c *peekConn) Read(b []byte) (int, error) {
	return c.r.Read(b)
}

func newPeekConn(c net.Conn) *peekConn {
	return &peekConn{c, bufio.NewReader(c)}
}

// HybridListener serves plain HTTP and TLS on the same port, by inspecting
// the first bytes of each connection for a TLS handshake record. If no TLS
// configuration is set, all connections are served as plain HTTP.
type HybridListener struct {
	net.Listener
	tlsConfig *tls.Config
	logger    *slog.Logger
}

// NewHybridListener wraps ln. tlsConfig may be nil.
func NewHybridListener(ln net.Listener, tlsConfig *tls.Config, logger *slog.Logger) *HybridListener {
	return &HybridListener{Listener: ln, tlsConfig: tlsConfig, logger: logger}
}

// Accept waits for and returns the next connection to the listener. It never
// reads from the connection: the protocol is detected on its first Read or
// Write, on the goroutine serving it.
func (ln *HybridListener) Accept() (net.Conn, error) {
	conn, err := ln.Listener.Accept()
	if err != nil {
		return nil, err //nolint:wrapcheck // net/http inspects this error.
	}

	if ln.tlsConfig == nil {
		return conn, nil
	}

	return &hybridConn{Conn: conn, tlsConfig: ln.tlsConfig, logger: ln.logger}, nil
}

// hybridConn is an accepted connection that is either served as is, or
// through a TLS server connection, depending on its first bytes.
type hybridConn struct {
	net.Conn
	tlsConfig *tls.Config
	logger    *slog.Logger

	detectOnce sync.Once
	mu         sync.Mutex
	// readDeadline is the deadline last set by the connection user. It's
	// restored once detection is done.
	readDeadline time.Time
	inner        net.Conn
	err          error
}

func (c *hybridConn) detect() (net.Conn, error) {
	c.detectOnce.Do(func() {
		c.mu.Lock()
		deadline := c.readDeadline
		c.mu.Unlock()
		if limit := time.Now().Add(handshakeTimeout); deadline.IsZero() || limit.Before(deadline) {
			deadline = limit
		}

		pc := newPeekConn(c.Conn)
		_ = c.Conn.SetReadDeadline(deadline)
		b, err := pc.r.Peek(3)

		c.mu.Lock()
		defer c.mu.Unlock()
		_ = c.Conn.SetReadDeadline(c.readDeadline)

		switch {
		case err != nil:
			if !errors.Is(err, io.EOF) {
				c.logger.Debug("dropping connection", "remote_addr", c.RemoteAddr(), "error", err.Error())
			}
			c.err = err
		case isTLSHandshake(b):
			c.logger.Debug("accepting TLS connection", "remote_addr", c.RemoteAddr())
			c.inner = tls.Server(pc, c.tlsConfig)
		default:
			c.logger.Debug("accepting HTTP connection", "remote_addr", c.RemoteAddr())
			c.inner = pc
		}
	})

	return c.inner, c.err
}

func (c *hybridConn) Read(b []byte) (int, error) {
	inner, err := c.detect()
	if err != nil {
		return 0, err
	}
	return inner.Read(b) //nolint:wrapcheck // net/http inspects this error.
}

func (c *hybridConn) Write(b []byte) (int, error) {
	inner, err := c.detect()
	if err != nil {
		return 0, err
	}
	return inner.Write(b) //nolint:wrapcheck // net/http inspects this error.
}

// Close closes the TLS connection if one was established, which also closes
// the underlying connection.
func (c *hybridConn) Close() error {
	c.mu.Lock()
	inner := c.inner
	c.mu.Unlock()

	if inner != nil {
		return inner.Close() //nolint:wrapcheck // This is fine.
	}
	return c.Conn.Close() //nolint:wrapcheck // This is fine.
}

func (c *hybridConn) SetDeadline(t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readDeadline = t
	return c.Conn.SetDeadline(t) //nolint:wrapcheck // This is fine.
}

func (c *hybridConn) SetReadDeadline(t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readDeadline = t
	return c.Conn.SetReadDeadline(t) //nolint:wrapcheck // This is fine.
}

// isTLSHandshake reports whether b starts a TLS handshake record of version
// 1.0 to 1.3.
func isTLSHandshake(b []byte) bool {
	return len(b) >= 3 && b[0] == 0x16 && b[1] == 0x03 && b[2] <= 0x04
}
