package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"todo/internal/config"
	"todo/internal/exitcode"
	"todo/internal/service"
	"todo/internal/view"
)

func init() {
	Register(&ListCmd{})
}

// ListCmd implements the list command, the task screen.
// Handles both `todo` (no args) and `todo list`.
type ListCmd struct{}

func (c *ListCmd) Name() string       { return "list" }
func (c *ListCmd) Aliases() []string  { return []string{"ls"} }
func (c *ListCmd) Synopsis() string   { return "List tasks" }
func (c *ListCmd) Usage() string      { return "todo list [common flags]" }
func (c *ListCmd) NeedsService() bool { return true }
func (c *ListCmd) NeedsAuth() bool    { return true }

func (c *ListCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ListCmd) Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	tasks := view.NewTaskList(app.Service, app.Log)
	err := tasks.Load(ctx)

	if !cfg.Quiet {
		app.Shell.Header(out)
	}
	if cfg.Quiet && len(tasks.Tasks()) == 0 {
		// Only the error line, if any, in quiet mode
		if msg := tasks.Error(); msg != "" {
			fmt.Fprintf(errOut, "error: %s\n", msg)
		}
	} else {
		tasks.Render(out, errOut)
	}

	if err != nil {
		return failureCode(err)
	}
	return exitcode.Success
}

// failureCode maps a service failure to an exit code. Rejected
// credentials are auth errors; everything else is a backend error.
func failureCode(err error) int {
	var f *service.Failure
	if errors.As(err, &f) && f.Unauthorized() {
		return exitcode.AuthError
	}
	return exitcode.BackendError
}
