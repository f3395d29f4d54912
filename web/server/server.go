package server

import (
	"crypto/tls"
	"log/slog"
	"net"
	"net/http"
	"time"

	actx "go.hackfix.me/waypoint/app/context"
	"go.hackfix.me/waypoint/crypto"
	"go.hackfix.me/waypoint/web/server/middleware"
	"go.hackfix.me/waypoint/web/server/route"
	"go.hackfix.me/waypoint/web/server/types"
)

// Server is a wrapper around http.Server with some custom behavior.
type Server struct {
	*http.Server
	logger  *slog.Logger
	metrics *Metrics
}

// Options are the settings of a Server. Zero values use defaults.
type Options struct {
	TLSCertFile       string
	TLSKeyFile        string
	MaxBodySize       int64
	ErrorLevel        types.ErrorLevel
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
}

// New returns a new web Server instance that will listen on addr and serve
// requests with h. If both a TLS certificate and key file are set,
// ListenAndServe will also accept TLS connections on the same address.
func New(appCtx *actx.Context, addr string, h route.Handler, opts Options) (*Server, error) {
	var tlsCfg *tls.Config
	if opts.TLSCertFile != "" && opts.TLSKeyFile != "" {
		var err error
		tlsCfg, err = crypto.LoadTLSConfig(opts.TLSCertFile, opts.TLSKeyFile)
		if err != nil {
			return nil, err //nolint:wrapcheck // This is fine.
		}
	}

	logger := appCtx.Logger.With("component", "web-server")
	metrics := NewMetrics("waypoint")

	srv := &Server{
		Server: &http.Server{
			Handler:           SetupHandlers(h, logger, metrics, opts),
			Addr:              addr,
			ReadHeaderTimeout: orDefault(opts.ReadHeaderTimeout, 10*time.Second),
			ReadTimeout:       orDefault(opts.ReadTimeout, 30*time.Second),
			WriteTimeout:      orDefault(opts.WriteTimeout, time.Minute),
			TLSConfig:         tlsCfg,
			// HybridListener hides *tls.Conn from net/http, so HTTP/2 can't be
			// negotiated.
			TLSNextProto: map[string]func(*http.Server, *tls.Conn, http.Handler){},
			ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
		},
		logger:  logger,
		metrics: metrics,
	}

	return srv, nil
}

// ListenAndServe starts the server. It stores the actual listen address, which
// is convenient when the address is dynamically determined by the system (e.g.
// ':0').
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		//nolint:wrapcheck // This is fine.
		return err
	}

	s.Addr = ln.Addr().String()
	s.logger.Info("started listener", "address", s.Addr, "tls", s.TLSConfig != nil)

	//nolint:wrapcheck // This is fine.
	return s.Serve(NewHybridListener(ln, s.TLSConfig, s.logger))
}

// SetupHandlers configures the server HTTP handlers. Metrics are exposed on
// /metrics, and every other request is handled by h.
func SetupHandlers(h route.Handler, logger *slog.Logger, metrics *Metrics, opts Options) http.Handler {
	bridgeOpts := []BridgeOption{WithErrorLevel(types.ErrorLevelFull)}
	if opts.MaxBodySize != 0 {
		bridgeOpts = append(bridgeOpts, WithMaxBodySize(opts.MaxBodySize))
	}
	if opts.ErrorLevel != "" {
		bridgeOpts = append(bridgeOpts, WithErrorLevel(opts.ErrorLevel))
	}

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", metrics.Handler())
	mux.Handle("/", NewBridge(h, logger, bridgeOpts...))

	return middleware.Chain(mux,
		middleware.RequestID(nil),
		middleware.Logger(logger),
		metrics.Middleware(),
	)
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
