package cli

import (
	"fmt"

	actx "go.hackfix.me/waypoint/app/context"
	"go.hackfix.me/waypoint/web/server/api/v1"
)

// Routes lists the routes served by the web server, in the order they are
// matched.
type Routes struct{}

// Run the routes command.
func (c *Routes) Run(appCtx *actx.Context) error {
	routes := api.SetupRoutes(appCtx.DB, appCtx.Logger, nil)

	entries := routes.Entries()
	data := make([][]string, len(entries))
	for i, e := range entries {
		data[i] = []string{e.Method(), e.Pattern().String(), e.Kind().String()}
	}

	if err := renderTable([]string{"Method", "Pattern", "Handler"}, data, appCtx.Stdout); err != nil {
		return fmt.Errorf("failed rendering routes: %w", err)
	}

	return nil
}
