// Package view holds the task list screen state and its rendering.
package view

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"todo/internal/output"
	"todo/internal/service"
)

// Messages shown on failed remote calls.
const (
	FetchFailedMessage  = "Failed to fetch todos. Please try again."
	CreateFailedMessage = "Failed to create todo. Please try again."
)

var (
	// ErrTitleRequired is returned when a draft has no title.
	ErrTitleRequired = errors.New("title required")

	// ErrInvalidDueDate is returned when a draft due date is not YYYY-MM-DD.
	ErrInvalidDueDate = errors.New("invalid due date")

	// ErrBusy is returned when a request from this view is already in flight.
	ErrBusy = errors.New("another request is in progress")
)

// Draft is the new-task form.
type Draft struct {
	Title       string
	Description string
	// DueDate is YYYY-MM-DD or empty.
	DueDate string
}

// TaskList is the authenticated user's task screen. Newly created tasks
// are prepended to the loaded list; the list is never re-fetched after
// a create.
type TaskList struct {
	tasks service.Tasks
	log   zerolog.Logger

	inflight atomic.Bool

	mu      sync.RWMutex
	items   []service.Task
	loading bool
	errMsg  string
	draft   Draft
}

// NewTaskList creates an unloaded task screen.
func NewTaskList(tasks service.Tasks, log zerolog.Logger) *TaskList {
	return &TaskList{tasks: tasks, log: log}
}

// Load fetches the task list. On failure the list is emptied and the
// fetch error message is set; the error is also returned.
func (v *TaskList) Load(ctx context.Context) error {
	if !v.inflight.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer v.inflight.Store(false)

	v.mu.Lock()
	v.loading = true
	v.mu.Unlock()

	items, err := v.tasks.ListTodos(ctx)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.loading = false
	if err != nil {
		v.log.Debug().Err(err).Msg("fetch todos failed")
		v.items = nil
		v.errMsg = FetchFailedMessage
		return err
	}
	v.items = items
	v.errMsg = ""
	return nil
}

// Create submits d. A blank title or malformed due date is rejected
// without a request. On success the created task is prepended and the
// draft cleared; on failure the draft is kept and the create error
// message is set.
func (v *TaskList) Create(ctx context.Context, d Draft) (service.Task, error) {
	v.mu.Lock()
	v.draft = d
	v.mu.Unlock()

	if strings.TrimSpace(d.Title) == "" {
		return service.Task{}, ErrTitleRequired
	}
	req := service.NewTask{
		Title:       d.Title,
		Description: d.Description,
	}
	if due := strings.TrimSpace(d.DueDate); due != "" {
		parsed, err := service.ParseDate(due)
		if err != nil {
			return service.Task{}, fmt.Errorf("%w: %s", ErrInvalidDueDate, due)
		}
		s := parsed.Format(service.DateLayout)
		req.DueDate = &s
	}

	if !v.inflight.CompareAndSwap(false, true) {
		return service.Task{}, ErrBusy
	}
	defer v.inflight.Store(false)

	created, err := v.tasks.CreateTodo(ctx, req)

	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		v.log.Debug().Err(err).Msg("create todo failed")
		v.errMsg = CreateFailedMessage
		return service.Task{}, err
	}
	items := make([]service.Task, 0, len(v.items)+1)
	items = append(items, created)
	v.items = append(items, v.items...)
	v.draft = Draft{}
	return created, nil
}

// Tasks returns a copy of the displayed tasks.
func (v *TaskList) Tasks() []service.Task {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]service.Task, len(v.items))
	copy(out, v.items)
	return out
}

// Loading reports whether a fetch is pending.
func (v *TaskList) Loading() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.loading
}

// Error returns the inline error message, or "".
func (v *TaskList) Error() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.errMsg
}

// Dismiss clears the inline error message.
func (v *TaskList) Dismiss() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.errMsg = ""
}

// Draft returns the current form contents.
func (v *TaskList) Draft() Draft {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.draft
}

// Render writes the screen. The inline error, if any, is written to
// errOut prefixed with "error: ".
func (v *TaskList) Render(out, errOut io.Writer) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if v.errMsg != "" {
		fmt.Fprintf(errOut, "error: %s\n", v.errMsg)
	}
	if v.loading {
		fmt.Fprintln(out, "loading...")
		return
	}
	if len(v.items) == 0 {
		fmt.Fprintln(out, "no tasks yet")
		return
	}
	for i, task := range v.items {
		if i > 0 {
			fmt.Fprintln(out)
		}
		output.FormatTask(out, task)
	}
}
