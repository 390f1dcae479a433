// Package service defines the backend-agnostic interface for identity and task operations.
package service

import "context"

// Credentials holds the single bearer credential attached to outgoing requests.
type Credentials interface {
	// SetCredential installs token for every future request, replacing
	// any previous one. An empty token removes the credential.
	SetCredential(token string)

	// Credential returns the installed token, or "" if none.
	Credential() string
}

// Identity defines the identity service operations.
type Identity interface {
	Credentials

	// Login exchanges email and password for a user carrying a session token.
	Login(ctx context.Context, email, password string) (User, error)

	// Register creates an account and returns it logged in.
	Register(ctx context.Context, name, email, password string) (User, error)

	// GetUser fetches a user by id.
	GetUser(ctx context.Context, id string) (User, error)

	// VerifyToken asks the identity service whether token is still valid.
	VerifyToken(ctx context.Context, token string) (User, error)
}

// Tasks defines the task service operations.
type Tasks interface {
	// ListTodos returns the authenticated user's tasks in service order.
	ListTodos(ctx context.Context) ([]Task, error)

	// CreateTodo creates a task and returns it as stored by the service.
	CreateTodo(ctx context.Context, task NewTask) (Task, error)
}

// Service is the full client surface used by commands.
// Commands never issue HTTP requests directly.
type Service interface {
	Identity
	Tasks
}
