package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	actx "go.hackfix.me/waypoint/app/context"
	aerrors "go.hackfix.me/waypoint/app/errors"
	"go.hackfix.me/waypoint/web/server"
	"go.hackfix.me/waypoint/web/server/api/v1"
	stypes "go.hackfix.me/waypoint/web/server/types"
	"go.hackfix.me/waypoint/xtask"
)

// Serve starts the web server.
type Serve struct {
	Address string `arg:"" optional:"" help:"[host]:port to listen on."`
	//nolint:lll // Long struct tags are unavoidable.
	ErrorLevel string `help:"Detail level of error messages returned to clients. This doesn't affect response status codes. Valid values: none, minimal, full \n none: hide all error messages; minimal: keep only the outermost message; full: keep error messages intact"`
}

// Run the serve command.
func (c *Serve) Run(appCtx *actx.Context) error {
	errLvl, err := stypes.ErrorLevelFromString(c.ErrorLevel)
	if err != nil {
		return err //nolint:wrapcheck // This is fine.
	}

	cfg := appCtx.Config.Server
	routes := api.SetupRoutes(appCtx.DB, appCtx.Logger.With("component", "api"), nil)
	srv, err := server.New(appCtx, c.Address, routes.Guarded(api.Guards()...), server.Options{
		TLSCertFile:       cfg.TLSCertFile.V,
		TLSKeyFile:        cfg.TLSKeyFile.V,
		MaxBodySize:       cfg.MaxBodySize.V,
		ErrorLevel:        errLvl,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout.V,
		ReadTimeout:       cfg.ReadTimeout.V,
		WriteTimeout:      cfg.WriteTimeout.V,
	})
	if err != nil {
		return aerrors.NewWithCause("failed creating web server", err)
	}

	// Gracefully shutdown the server if a process signal is received, or the
	// main context is done.
	srvDone := xtask.Start[struct{}](context.WithoutCancel(appCtx.Ctx), func(context.Context) (struct{}, error) {
		srvErr := srv.ListenAndServe()
		appCtx.Logger.Debug("web server shutdown")
		return struct{}{}, srvErr
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case s := <-sigCh:
		appCtx.Logger.Debug("process received signal", "signal", s)
	case <-appCtx.Ctx.Done():
		appCtx.Logger.Debug("app context is done")
	case res := <-srvDone:
		if res.Err != nil && !errors.Is(res.Err, http.ErrServerClosed) {
			return aerrors.With(fmt.Errorf("web server error: %w", res.Err), "address", srv.Addr)
		}
		return nil
	}

	// The app context may already be done, so shutdown gets its own deadline.
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(appCtx.Ctx), cfg.ShutdownTimeout.V)
	defer cancel()
	if err = srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("failed shutting down web server: %w", err)
	}

	return nil
}
