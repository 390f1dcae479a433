package view_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo/internal/service"
	"todo/internal/testutil"
	"todo/internal/view"
)

func date(t *testing.T, s string) *service.Date {
	t.Helper()
	d, err := service.ParseDate(s)
	require.NoError(t, err)
	return &d
}

func render(v *view.TaskList) (string, string) {
	var out, errOut bytes.Buffer
	v.Render(&out, &errOut)
	return out.String(), errOut.String()
}

func TestLoad(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask(service.Task{ID: "1", Title: "First"})
	svc.AddTask(service.Task{ID: "2", Title: "Second"})
	v := view.NewTaskList(svc, zerolog.Nop())

	require.NoError(t, v.Load(context.Background()))

	tasks := v.Tasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, "First", tasks[0].Title)
	assert.Equal(t, "Second", tasks[1].Title)
	assert.False(t, v.Loading())
	assert.Empty(t, v.Error())
}

func TestLoad_Failure(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask(service.Task{ID: "1", Title: "First"})
	svc.ListTodosErr = &service.Failure{Op: "list todos", Status: 500}
	v := view.NewTaskList(svc, zerolog.Nop())

	err := v.Load(context.Background())
	require.Error(t, err)

	assert.Empty(t, v.Tasks())
	assert.Equal(t, view.FetchFailedMessage, v.Error())
	assert.False(t, v.Loading())

	out, errOut := render(v)
	assert.Equal(t, "no tasks yet\n", out)
	assert.Equal(t, "error: Failed to fetch todos. Please try again.\n", errOut)
}

func TestCreate_PrependsWithoutRefetch(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask(service.Task{ID: "7", Title: "Older"})
	v := view.NewTaskList(svc, zerolog.Nop())
	require.NoError(t, v.Load(context.Background()))

	created, err := v.Create(context.Background(), view.Draft{Title: "Buy milk"})
	require.NoError(t, err)

	assert.Equal(t, service.ID("1"), created.ID)
	assert.False(t, created.IsCompleted)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), created.CreatedAt)

	tasks := v.Tasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, "Buy milk", tasks[0].Title)
	assert.Equal(t, "Older", tasks[1].Title)

	var ops []string
	for _, c := range svc.Calls() {
		ops = append(ops, c.Op)
	}
	assert.Equal(t, []string{"list todos", "create todo"}, ops)

	reqs := svc.NewTasks()
	require.Len(t, reqs, 1)
	assert.Nil(t, reqs[0].DueDate, "absent due date is sent as null")
	assert.Equal(t, view.Draft{}, v.Draft(), "draft resets after a successful create")
}

func TestCreate_DueDate(t *testing.T) {
	svc := testutil.NewFakeService()
	v := view.NewTaskList(svc, zerolog.Nop())

	created, err := v.Create(context.Background(), view.Draft{
		Title:       "Dentist",
		Description: "bring forms",
		DueDate:     "2024-03-05",
	})
	require.NoError(t, err)

	reqs := svc.NewTasks()
	require.Len(t, reqs, 1)
	require.NotNil(t, reqs[0].DueDate)
	assert.Equal(t, "2024-03-05", *reqs[0].DueDate)
	assert.Equal(t, "bring forms", reqs[0].Description)
	assert.True(t, created.HasDueDate())
}

func TestCreate_Validation(t *testing.T) {
	tests := []struct {
		name  string
		draft view.Draft
		want  error
	}{
		{"empty title", view.Draft{Title: ""}, view.ErrTitleRequired},
		{"blank title", view.Draft{Title: "   ", Description: "x"}, view.ErrTitleRequired},
		{"bad due date", view.Draft{Title: "t", DueDate: "next week"}, view.ErrInvalidDueDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := testutil.NewFakeService()
			v := view.NewTaskList(svc, zerolog.Nop())

			_, err := v.Create(context.Background(), tt.draft)
			assert.ErrorIs(t, err, tt.want)
			assert.Zero(t, svc.CallCount())
			assert.Equal(t, tt.draft, v.Draft())
		})
	}
}

func TestCreate_FailureKeepsDraft(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask(service.Task{ID: "7", Title: "Older"})
	v := view.NewTaskList(svc, zerolog.Nop())
	require.NoError(t, v.Load(context.Background()))

	svc.CreateTodoErr = errors.New("boom")
	draft := view.Draft{Title: "Buy milk", Description: "2l", DueDate: "2024-01-05"}
	_, err := v.Create(context.Background(), draft)
	require.Error(t, err)

	assert.Equal(t, view.CreateFailedMessage, v.Error())
	assert.Equal(t, draft, v.Draft())
	require.Len(t, v.Tasks(), 1)

	v.Dismiss()
	assert.Empty(t, v.Error())
}

func TestRender(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask(service.Task{
		ID:        "1",
		Title:     "Buy milk",
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	svc.AddTask(service.Task{
		ID:          "2",
		Title:       "Older",
		Description: "two\nlines",
		DueDate:     date(t, "2024-01-05"),
		IsCompleted: true,
		CreatedAt:   time.Date(2023, 12, 31, 10, 0, 0, 0, time.UTC),
	})
	v := view.NewTaskList(svc, zerolog.Nop())
	require.NoError(t, v.Load(context.Background()))

	out, errOut := render(v)
	assert.Empty(t, errOut)
	want := "Buy milk [Pending]\n" +
		"    Created: Jan 1, 2024\n" +
		"\n" +
		"Older [Completed]\n" +
		"    two\n" +
		"    lines\n" +
		"    Due: Jan 5, 2024\n" +
		"    Created: Dec 31, 2023\n"
	assert.Equal(t, want, out)
}

func TestRender_Empty(t *testing.T) {
	v := view.NewTaskList(testutil.NewFakeService(), zerolog.Nop())
	require.NoError(t, v.Load(context.Background()))

	out, errOut := render(v)
	assert.Equal(t, "no tasks yet\n", out)
	assert.Empty(t, errOut)
}

// slowTasks holds ListTodos until release is closed.
type slowTasks struct {
	*testutil.FakeService
	release chan struct{}
}

func (s *slowTasks) ListTodos(ctx context.Context) ([]service.Task, error) {
	<-s.release
	return s.FakeService.ListTodos(ctx)
}

func TestLoad_Pending(t *testing.T) {
	svc := &slowTasks{FakeService: testutil.NewFakeService(), release: make(chan struct{})}
	v := view.NewTaskList(svc, zerolog.Nop())

	done := make(chan error, 1)
	go func() { done <- v.Load(context.Background()) }()

	require.Eventually(t, v.Loading, time.Second, time.Millisecond)
	out, _ := render(v)
	assert.Equal(t, "loading...\n", out)
	assert.ErrorIs(t, v.Load(context.Background()), view.ErrBusy)

	close(svc.release)
	require.NoError(t, <-done)
	assert.False(t, v.Loading())
}
