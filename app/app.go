package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/mandelsoft/vfs/pkg/memoryfs"

	"go.hackfix.me/waypoint/app/config"
	actx "go.hackfix.me/waypoint/app/context"
	"go.hackfix.me/waypoint/cli"
	"go.hackfix.me/waypoint/db"
)

// App is the application.
type App struct {
	name string
	ctx  *actx.Context
	cli  *cli.CLI
	// the logging level is set via the CLI, if the app was initialized with the
	// WithLogger option.
	logLevel *slog.LevelVar
}

// New initializes a new application. configFilePath and dataDir are the
// defaults used when they aren't overridden on the command line.
func New(name, configFilePath, dataDir string, opts ...Option) (*App, error) {
	version, err := actx.GetVersion()
	if err != nil {
		return nil, err //nolint:wrapcheck // This is fine.
	}

	defaultCtx := &actx.Context{
		Ctx:     context.Background(),
		FS:      memoryfs.New(),
		Logger:  slog.Default(),
		TimeNow: time.Now,
		Version: version,
	}
	app := &App{name: name, ctx: defaultCtx}

	for _, opt := range opts {
		opt(app)
	}

	ver := fmt.Sprintf("%s %s", app.name, app.ctx.Version.String())
	app.cli, err = cli.New(configFilePath, dataDir, ver)
	if err != nil {
		return nil, err //nolint:wrapcheck // This is fine.
	}

	return app, nil
}

// Run initializes the application environment and starts execution of the
// application.
func (app *App) Run(args []string) error {
	if err := app.cli.Parse(args); err != nil {
		return err //nolint:wrapcheck // This is fine.
	}

	if app.logLevel != nil {
		app.logLevel.Set(app.cli.Log.Level)
		slog.SetLogLoggerLevel(app.cli.Log.Level)
	}

	if err := app.loadConfig(); err != nil {
		return err
	}

	// The configuration commands must work even if the database can't be
	// opened, e.g. to fix its path.
	cmd := app.cli.Command()
	if !strings.HasPrefix(cmd, "config") {
		if err := app.openDB(); err != nil {
			return err
		}
	}
	app.ctx.Logger.Debug("running command", "command", cmd)

	return app.cli.Execute(app.ctx) //nolint:wrapcheck // This is fine.
}

func (app *App) loadConfig() error {
	if app.ctx.Config == nil {
		app.ctx.Config = config.NewConfig(app.ctx.FS, app.cli.ConfigFile)
		if err := app.ctx.Config.Load(); err != nil {
			return err //nolint:wrapcheck // This is fine.
		}
	}
	app.ctx.Config.SetDefaults()
	app.cli.ApplyConfig(app.ctx.Config)

	return nil
}

func (app *App) openDB() error {
	if app.ctx.DB == nil {
		path := app.ctx.Config.Database.Path.V
		if path == "" {
			if err := app.ctx.FS.MkdirAll(app.cli.DataDir, 0o700); err != nil {
				return fmt.Errorf("failed creating data directory: %w", err)
			}
			path = filepath.Join(app.cli.DataDir, "waypoint.db")
		}

		var err error
		app.ctx.DB, err = db.Open(app.ctx.Ctx, path, app.ctx.TimeNow)
		if err != nil {
			return err //nolint:wrapcheck // This is fine.
		}
	}

	//nolint:wrapcheck // This is fine.
	return app.ctx.DB.Init(app.ctx.Version.Semantic, app.ctx.Logger)
}
