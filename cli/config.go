package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/alecthomas/kong"
	"github.com/mandelsoft/vfs/pkg/vfs"

	actx "go.hackfix.me/waypoint/app/context"
	aerrors "go.hackfix.me/waypoint/app/errors"
)

// The Config command shows and initializes the configuration file.
type Config struct {
	Show struct{} `cmd:"" default:"1" help:"Print the effective configuration, including default values."`
	Init struct {
		Force bool `help:"Overwrite an existing configuration file."`
	} `cmd:"" help:"Write the effective configuration to the configuration file."`
}

// Run the config command.
func (c *Config) Run(kctx *kong.Context, appCtx *actx.Context) error {
	cfg := appCtx.Config

	switch kctx.Command() {
	case "config show":
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return fmt.Errorf("failed serializing configuration: %w", err)
		}
		fmt.Fprintf(appCtx.Stdout, "%s\n", data)

	case "config init":
		if !c.Init.Force {
			_, err := appCtx.FS.Stat(cfg.Path())
			if err == nil {
				return aerrors.NewWith("configuration file already exists", "path", cfg.Path())
			}
			if !vfs.IsErrNotExist(err) {
				return fmt.Errorf("failed checking configuration file: %w", err)
			}
		}
		if err := cfg.Save(); err != nil {
			return err //nolint:wrapcheck // This is fine.
		}
		appCtx.Logger.Info("wrote configuration file", "path", cfg.Path())

	default:
		return errors.New("unknown config command")
	}

	return nil
}
