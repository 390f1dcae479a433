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
	"todo/internal/output"
	"todo/internal/view"
)

func init() {
	Register(&AddCmd{})
}

// AddCmd implements the add command.
type AddCmd struct {
	description string
	due         string
	show        bool
}

// SetDraft sets the optional form fields (for testing).
func (c *AddCmd) SetDraft(description, due string, show bool) {
	c.description = description
	c.due = due
	c.show = show
}

func (c *AddCmd) Name() string      { return "add" }
func (c *AddCmd) Aliases() []string { return []string{"create"} }
func (c *AddCmd) Synopsis() string  { return "Create a task" }
func (c *AddCmd) Usage() string {
	return "todo add [--description <text>] [--due <YYYY-MM-DD>] [--show] <title...>"
}
func (c *AddCmd) NeedsService() bool { return true }
func (c *AddCmd) NeedsAuth() bool    { return true }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.description, "description", "", "")
	fs.StringVar(&c.description, "d", "", "")
	fs.StringVar(&c.due, "due", "", "")
	fs.BoolVar(&c.show, "show", false, "")
}

func (c *AddCmd) Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int {
	draft := view.Draft{
		Title:       strings.Join(args, " "),
		Description: c.description,
		DueDate:     c.due,
	}

	tasks := view.NewTaskList(app.Service, app.Log)
	if c.show {
		// The form lives on the task screen; a failed fetch leaves it usable.
		// The fetch error stays on the screen after a successful create.
		_ = tasks.Load(ctx)
	}

	created, err := tasks.Create(ctx, draft)
	switch {
	case errors.Is(err, view.ErrTitleRequired):
		fmt.Fprintln(errOut, "error: title required")
		return exitcode.UserError
	case errors.Is(err, view.ErrInvalidDueDate):
		fmt.Fprintf(errOut, "error: invalid due date: %s (want YYYY-MM-DD)\n", c.due)
		return exitcode.UserError
	case err != nil:
		fmt.Fprintf(errOut, "error: %s\n", tasks.Error())
		return failureCode(err)
	}

	if cfg.Quiet {
		return exitcode.Success
	}
	if c.show {
		app.Shell.Header(out)
		tasks.Render(out, errOut)
	} else {
		output.FormatTask(out, created)
	}
	return exitcode.Success
}
