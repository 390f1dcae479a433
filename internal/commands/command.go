// Package commands provides the command interface and implementations.
package commands

import (
	"context"
	"flag"
	"io"

	"github.com/rs/zerolog"

	"todo/internal/config"
	"todo/internal/service"
	"todo/internal/session"
	"todo/internal/shell"
	"todo/internal/storage"
)

// App bundles the client objects an invocation's command acts on.
type App struct {
	// Shell owns the auth state machine and the session controller.
	Shell *shell.Shell

	// Service is the client for both remote services. It is the same
	// object whose credential the session controller installs.
	Service service.Service

	Log zerolog.Logger
}

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// NeedsService returns true if the command needs an App (session
	// state or a remote service). help and version return false and
	// receive a nil App.
	NeedsService() bool

	// NeedsAuth returns true if the command requires an authenticated
	// user. The dispatcher runs startup verification first and refuses
	// the command when no user is established.
	NeedsAuth() bool

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *flag.FlagSet)

	// Run executes the command.
	// cfg is always provided (config dir, endpoints).
	// app is nil if NeedsService() returns false.
	// args contains positional arguments after flag parsing.
	// Returns exit code.
	Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int
}

// Offline is implemented by commands that act only on local session
// state. The dispatcher builds their App without a service connection.
type Offline interface {
	Offline() bool
}

// IsOffline reports whether cmd runs without a service connection.
func IsOffline(cmd Command) bool {
	o, ok := cmd.(Offline)
	return ok && o.Offline()
}

// NewApp wires a session controller and shell around svc and store.
func NewApp(svc service.Service, store storage.Store, log zerolog.Logger) *App {
	ctrl := session.NewController(svc, store, log)
	return &App{
		Shell:   shell.New(ctrl),
		Service: svc,
		Log:     log,
	}
}
