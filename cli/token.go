package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	actx "go.hackfix.me/waypoint/app/context"
	aerrors "go.hackfix.me/waypoint/app/errors"
	"go.hackfix.me/waypoint/db/models"
)

// The Token command manages API tokens.
type Token struct {
	Create struct {
		Name string `arg:"" help:"The unique name of the token."`
		Role string `default:"reader" help:"The role granted to the token. Valid values: ${roles}"`
	} `cmd:"" help:"Create a new API token. The token secret is printed only once."`
	List   struct{} `cmd:"" aliases:"ls" help:"List API tokens."`
	Remove struct {
		Name []string `arg:"" help:"The names of the tokens to remove."`
	} `cmd:"" aliases:"rm" help:"Remove one or more API tokens."`
}

// Run the token command.
func (c *Token) Run(kctx *kong.Context, appCtx *actx.Context) error {
	dbCtx := appCtx.DB.NewContext()

	switch kctx.Command() {
	case "token create <name>":
		role, err := models.ParseRole(c.Create.Role)
		if err != nil {
			return err //nolint:wrapcheck // This is fine.
		}
		tok, secret, err := models.NewToken(c.Create.Name, role)
		if err != nil {
			return aerrors.NewWithCause("failed creating token", err, "name", c.Create.Name)
		}
		if err = tok.Save(dbCtx, appCtx.DB); err != nil {
			return aerrors.NewWithCause("failed saving token", err, "name", c.Create.Name)
		}
		fmt.Fprintf(appCtx.Stdout, "Token: %s\n", secret)

	case "token list":
		tokens, err := models.Tokens(dbCtx, appCtx.DB, nil)
		if err != nil {
			return aerrors.NewWithCause("failed listing tokens", err)
		}

		data := make([][]string, len(tokens))
		for i, tok := range tokens {
			data[i] = []string{
				tok.Name, string(tok.Role),
				tok.CreatedAt.Local().Format(time.DateTime),
			}
		}

		if len(data) > 0 {
			if err = renderTable([]string{"Name", "Role", "Created"}, data, appCtx.Stdout); err != nil {
				return fmt.Errorf("failed rendering tokens: %w", err)
			}
		}

	case "token remove <name>":
		for _, name := range c.Remove.Name {
			tok := &models.Token{Name: name}
			if err := tok.Delete(dbCtx, appCtx.DB); err != nil {
				return aerrors.NewWithCause("failed removing token", err, "name", name)
			}
		}
	}

	return nil
}

func rolesHelp() string {
	return strings.Join(models.Roles(), ", ")
}
