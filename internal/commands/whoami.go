package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"todo/internal/config"
	"todo/internal/exitcode"
	"todo/internal/output"
	"todo/internal/service"
)

func init() {
	Register(&WhoamiCmd{})
	Register(&UserCmd{})
}

// WhoamiCmd prints the current user.
type WhoamiCmd struct{}

func (c *WhoamiCmd) Name() string       { return "whoami" }
func (c *WhoamiCmd) Aliases() []string  { return nil }
func (c *WhoamiCmd) Synopsis() string   { return "Show the signed-in user" }
func (c *WhoamiCmd) Usage() string      { return "todo whoami [common flags]" }
func (c *WhoamiCmd) NeedsService() bool { return true }
func (c *WhoamiCmd) NeedsAuth() bool    { return true }

func (c *WhoamiCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *WhoamiCmd) Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int {
	user := app.Shell.Session().Current()
	if user == nil {
		fmt.Fprintln(errOut, "error: not logged in (run: todo login)")
		return exitcode.AuthError
	}
	output.FormatUser(out, *user)
	return exitcode.Success
}

// UserCmd fetches a user record from the identity service.
type UserCmd struct{}

func (c *UserCmd) Name() string       { return "user" }
func (c *UserCmd) Aliases() []string  { return nil }
func (c *UserCmd) Synopsis() string   { return "Show a user by id" }
func (c *UserCmd) Usage() string      { return "todo user [common flags] <id>" }
func (c *UserCmd) NeedsService() bool { return true }
func (c *UserCmd) NeedsAuth() bool    { return true }

func (c *UserCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *UserCmd) Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		fmt.Fprintln(errOut, "error: user id required")
		return exitcode.UserError
	}

	user, err := app.Service.GetUser(ctx, strings.TrimSpace(args[0]))
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", service.DisplayMessage(err, "failed to fetch user"))
		return failureCode(err)
	}
	output.FormatUser(out, user)
	return exitcode.Success
}
