package cli

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/alecthomas/kong"

	"go.hackfix.me/waypoint/app/config"
	actx "go.hackfix.me/waypoint/app/context"
	stypes "go.hackfix.me/waypoint/web/server/types"
)

// CLI is the command line interface of Waypoint.
type CLI struct {
	Serve  Serve  `kong:"cmd,help='Start the web server.'"`
	Routes Routes `kong:"cmd,help='List the routes served by the web server.'"`
	Token  Token  `kong:"cmd,help='Manage API tokens.'"`
	Config Config `kong:"cmd,help='Show or initialize the configuration.'"`

	Log struct {
		Level slog.Level `enum:"DEBUG,INFO,WARN,ERROR" default:"INFO" help:"Set the app logging level."`
	} `embed:"" prefix:"log-"`
	// Configuration files are read by the app/config package, so kong's own
	// configuration loaders aren't used.
	ConfigFile string           `kong:"default='${configFile}',help='Path to the configuration file.'"`
	DataDir    string           `kong:"default='${dataDir}',help='Directory where the database is stored, unless set in the configuration.'"`
	Version    kong.VersionFlag `kong:"help='Output version and exit.'"`

	parser *kong.Kong
	kctx   *kong.Context
}

// New returns the command line interface. configFilePath and dataDir are the
// default values of the corresponding flags.
func New(configFilePath, dataDir, version string) (*CLI, error) {
	c := &CLI{}

	var err error
	c.parser, err = kong.New(c,
		kong.Name("waypoint"),
		kong.Description("A functional HTTP routing layer, serving a notes API."),
		kong.UsageOnError(),
		kong.DefaultEnvars("WAYPOINT"),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			Summary:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"configFile": configFilePath,
			"dataDir":    dataDir,
			"version":    version,
			"roles":      rolesHelp(),
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed creating the CLI parser: %w", err)
	}

	return c, nil
}

// Parse parses args into the CLI fields. It must be called before Execute.
func (c *CLI) Parse(args []string) error {
	kctx, err := c.parser.Parse(args)
	if err != nil {
		return fmt.Errorf("failed parsing CLI arguments: %w", err)
	}
	c.kctx = kctx

	return nil
}

// Execute runs the parsed command.
func (c *CLI) Execute(appCtx *actx.Context) error {
	if c.kctx == nil {
		panic("CLI.Execute called before CLI.Parse")
	}
	c.parser.Stdout = appCtx.Stdout
	c.parser.Stderr = appCtx.Stderr

	//nolint:wrapcheck // Commands return contextual errors.
	return c.kctx.Run(appCtx)
}

// Command returns the names of the parsed command and its parents, separated
// by spaces, e.g. "token create".
func (c *CLI) Command() string {
	if c.kctx == nil {
		panic("CLI.Command called before CLI.Parse")
	}

	var names []string
	for _, p := range c.kctx.Path {
		if p.Command != nil {
			names = append(names, p.Command.Name)
		}
	}

	return strings.Join(names, " ")
}

// ApplyConfig fills in serve options that weren't set on the command line or
// in the environment with values from cfg.
func (c *CLI) ApplyConfig(cfg *config.Config) {
	srv := cfg.Server
	if c.Serve.Address == "" && srv.Address.Valid {
		c.Serve.Address = srv.Address.V
	}

	if c.Serve.ErrorLevel != "" {
		return
	}
	c.Serve.ErrorLevel = string(stypes.ErrorLevelFull)
	if srv.ErrorLevel.Valid {
		c.Serve.ErrorLevel = string(srv.ErrorLevel.V)
	}
}
