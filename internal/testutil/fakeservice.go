// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"todo/internal/service"
)

// ErrNotFound is returned when a resource is not found.
var ErrNotFound = errors.New("not found")

// Unauthorized is a 401 failure as the HTTP client would report it.
func Unauthorized(op string) *service.Failure {
	return &service.Failure{Op: op, Status: 401, Message: "invalid token"}
}

// Call records one FakeService operation and the credential it carried.
type Call struct {
	Op         string
	Credential string
}

// FakeService is an in-memory implementation of service.Service for testing.
// Accounts are keyed by email; every successful login issues the
// account's fixed token.
type FakeService struct {
	mu         sync.Mutex
	credential string
	users      map[string]fakeAccount // email -> account
	tasks      []service.Task
	nextTaskID int
	calls      []Call
	newTasks   []service.NewTask

	// Now stamps created tasks.
	Now func() time.Time

	// Error injection for testing
	LoginErr      error
	RegisterErr   error
	GetUserErr    error
	VerifyErr     error
	ListTodosErr  error
	CreateTodoErr error
}

type fakeAccount struct {
	user     service.User
	password string
}

// NewFakeService creates an empty FakeService.
func NewFakeService() *FakeService {
	return &FakeService{
		users:      make(map[string]fakeAccount),
		nextTaskID: 1,
		Now: func() time.Time {
			return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		},
	}
}

// AddUser adds an account that logs in with password and is issued token.
func (f *FakeService) AddUser(id, name, email, password, token string) service.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := service.User{ID: service.ID(id), Name: name, Email: email, Token: token}
	f.users[email] = fakeAccount{user: u, password: password}
	return u
}

// AddTask appends a task as if created earlier by the service.
func (f *FakeService) AddTask(task service.Task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, task)
}

// Calls returns the operations performed so far.
func (f *FakeService) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// NewTasks returns the creation requests received so far.
func (f *FakeService) NewTasks() []service.NewTask {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]service.NewTask, len(f.newTasks))
	copy(out, f.newTasks)
	return out
}

// CallCount returns how many operations were performed.
func (f *FakeService) CallCount() int {
	return len(f.Calls())
}

func (f *FakeService) record(op string) {
	f.calls = append(f.calls, Call{Op: op, Credential: f.credential})
}

// SetCredential implements service.Credentials.
func (f *FakeService) SetCredential(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.credential = token
}

// Credential implements service.Credentials.
func (f *FakeService) Credential() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.credential
}

// Login implements service.Identity.
func (f *FakeService) Login(ctx context.Context, email, password string) (service.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("login")

	if f.LoginErr != nil {
		return service.User{}, f.LoginErr
	}
	acct, ok := f.users[email]
	if !ok || acct.password != password {
		return service.User{}, &service.Failure{Op: "login", Status: 401, Message: "Invalid email or password"}
	}
	return acct.user, nil
}

// Register implements service.Identity.
func (f *FakeService) Register(ctx context.Context, name, email, password string) (service.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("register")

	if f.RegisterErr != nil {
		return service.User{}, f.RegisterErr
	}
	if _, exists := f.users[email]; exists {
		return service.User{}, &service.Failure{Op: "register", Status: 409, Message: "Email already registered"}
	}
	id := strconv.Itoa(len(f.users) + 1)
	u := service.User{ID: service.ID(id), Name: name, Email: email, Token: "token-" + id}
	f.users[email] = fakeAccount{user: u, password: password}
	return u, nil
}

// GetUser implements service.Identity.
func (f *FakeService) GetUser(ctx context.Context, id string) (service.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("get user")

	if f.GetUserErr != nil {
		return service.User{}, f.GetUserErr
	}
	for _, acct := range f.users {
		if acct.user.ID.String() == id {
			u := acct.user
			u.Token = ""
			return u, nil
		}
	}
	return service.User{}, &service.Failure{Op: "get user", Status: 404, Message: "User not found", Err: ErrNotFound}
}

// VerifyToken implements service.Identity.
func (f *FakeService) VerifyToken(ctx context.Context, token string) (service.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("verify token")

	if f.VerifyErr != nil {
		return service.User{}, f.VerifyErr
	}
	for _, acct := range f.users {
		if acct.user.Token == token {
			return acct.user, nil
		}
	}
	return service.User{}, Unauthorized("verify token")
}

// ListTodos implements service.Tasks.
func (f *FakeService) ListTodos(ctx context.Context) ([]service.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("list todos")

	if f.ListTodosErr != nil {
		return nil, f.ListTodosErr
	}
	out := make([]service.Task, len(f.tasks))
	copy(out, f.tasks)
	return out, nil
}

// CreateTodo implements service.Tasks.
func (f *FakeService) CreateTodo(ctx context.Context, req service.NewTask) (service.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("create todo")
	f.newTasks = append(f.newTasks, req)

	if f.CreateTodoErr != nil {
		return service.Task{}, f.CreateTodoErr
	}
	task := service.Task{
		ID:          service.ID(strconv.Itoa(f.nextTaskID)),
		Title:       req.Title,
		Description: req.Description,
		CreatedAt:   f.Now(),
	}
	if req.DueDate != nil {
		due, err := service.ParseDate(*req.DueDate)
		if err != nil {
			return service.Task{}, &service.Failure{Op: "create todo", Status: 400, Message: "invalid due_date"}
		}
		task.DueDate = &due
	}
	f.nextTaskID++
	f.tasks = append(f.tasks, task)
	return task, nil
}
