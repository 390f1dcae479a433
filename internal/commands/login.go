package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"todo/internal/config"
	"todo/internal/exitcode"
	"todo/internal/service"
	"todo/internal/session"
	"todo/internal/shell"
)

func init() {
	Register(&LoginCmd{})
	Register(&RegisterCmd{})
}

// LoginCmd implements the login command.
type LoginCmd struct {
	email    string
	password string
}

// SetCredentials sets the email and password (for testing).
func (c *LoginCmd) SetCredentials(email, password string) {
	c.email = email
	c.password = password
}

func (c *LoginCmd) Name() string       { return "login" }
func (c *LoginCmd) Aliases() []string  { return []string{"signin"} }
func (c *LoginCmd) Synopsis() string   { return "Sign in to the identity service" }
func (c *LoginCmd) Usage() string      { return "todo login --email <email> --password <password>" }
func (c *LoginCmd) NeedsService() bool { return true }
func (c *LoginCmd) NeedsAuth() bool    { return false }

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.email, "email", "", "")
	fs.StringVar(&c.email, "e", "", "")
	fs.StringVar(&c.password, "password", "", "")
	fs.StringVar(&c.password, "p", "", "")
}

func (c *LoginCmd) Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int {
	// Both fields are required before anything is sent
	if strings.TrimSpace(c.email) == "" || c.password == "" {
		fmt.Fprintln(errOut, "error: email and password required")
		return exitcode.UserError
	}

	if code, done := alreadyLoggedIn(ctx, cfg, app, out, errOut); done {
		return code
	}

	user, err := app.Shell.Login(ctx, c.email, c.password)
	return reportAuth(cfg, user, err, out, errOut)
}

// RegisterCmd implements the register command.
type RegisterCmd struct {
	name     string
	email    string
	password string
}

// SetFields sets the registration form (for testing).
func (c *RegisterCmd) SetFields(name, email, password string) {
	c.name = name
	c.email = email
	c.password = password
}

func (c *RegisterCmd) Name() string      { return "register" }
func (c *RegisterCmd) Aliases() []string { return []string{"signup"} }
func (c *RegisterCmd) Synopsis() string  { return "Create an account and sign in" }
func (c *RegisterCmd) Usage() string {
	return "todo register --name <name> --email <email> --password <password>"
}
func (c *RegisterCmd) NeedsService() bool { return true }
func (c *RegisterCmd) NeedsAuth() bool    { return false }

func (c *RegisterCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.name, "name", "", "")
	fs.StringVar(&c.name, "n", "", "")
	fs.StringVar(&c.email, "email", "", "")
	fs.StringVar(&c.email, "e", "", "")
	fs.StringVar(&c.password, "password", "", "")
	fs.StringVar(&c.password, "p", "", "")
}

func (c *RegisterCmd) Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int {
	if strings.TrimSpace(c.name) == "" || strings.TrimSpace(c.email) == "" || c.password == "" {
		fmt.Fprintln(errOut, "error: name, email and password required")
		return exitcode.UserError
	}

	if code, done := alreadyLoggedIn(ctx, cfg, app, out, errOut); done {
		return code
	}

	user, err := app.Shell.Register(ctx, c.name, c.email, c.password)
	return reportAuth(cfg, user, err, out, errOut)
}

// alreadyLoggedIn verifies a stored session, if there is one. done is
// true when the command should stop with code.
func alreadyLoggedIn(ctx context.Context, cfg *config.Config, app *App, out, errOut io.Writer) (code int, done bool) {
	has, err := app.Shell.Session().HasStoredToken()
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.AuthError, true
	}
	if !has {
		return 0, false
	}
	if err := app.Shell.Start(ctx); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.AuthError, true
	}
	if app.Shell.State() != shell.Authenticated {
		return 0, false
	}
	if !cfg.Quiet {
		fmt.Fprintln(out, "already logged in")
	}
	return exitcode.Success, true
}

// reportAuth prints the outcome of a login or registration.
func reportAuth(cfg *config.Config, user *service.User, err error, out, errOut io.Writer) int {
	var authErr *session.AuthError
	switch {
	case err == nil:
		if !cfg.Quiet {
			fmt.Fprintf(out, "logged in as %s\n", user.Name)
		}
		return exitcode.Success
	case errors.Is(err, session.ErrMissingFields):
		fmt.Fprintln(errOut, "error: missing required fields")
		return exitcode.UserError
	case errors.Is(err, session.ErrBusy):
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	case errors.As(err, &authErr):
		fmt.Fprintf(errOut, "error: %s\n", authErr.Message)
		return exitcode.AuthError
	default:
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.AuthError
	}
}
