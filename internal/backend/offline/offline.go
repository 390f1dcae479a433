// Package offline implements service.Service for commands that only act
// on local session state. It holds the credential but refuses every
// remote operation.
package offline

import (
	"context"
	"errors"
	"sync"

	"todo/internal/service"
)

// ErrOffline is returned by every remote operation.
var ErrOffline = errors.New("no service connection")

// Service is a disconnected service.Service.
type Service struct {
	mu    sync.Mutex
	token string
}

// New returns a disconnected service.
func New() *Service {
	return &Service{}
}

// SetCredential implements service.Credentials.
func (s *Service) SetCredential(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// Credential implements service.Credentials.
func (s *Service) Credential() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func failure(op string) error {
	return &service.Failure{Op: op, Err: ErrOffline}
}

// Login implements service.Identity.
func (s *Service) Login(ctx context.Context, email, password string) (service.User, error) {
	return service.User{}, failure("login")
}

// Register implements service.Identity.
func (s *Service) Register(ctx context.Context, name, email, password string) (service.User, error) {
	return service.User{}, failure("register")
}

// GetUser implements service.Identity.
func (s *Service) GetUser(ctx context.Context, id string) (service.User, error) {
	return service.User{}, failure("get user")
}

// VerifyToken implements service.Identity.
func (s *Service) VerifyToken(ctx context.Context, token string) (service.User, error) {
	return service.User{}, failure("verify token")
}

// ListTodos implements service.Tasks.
func (s *Service) ListTodos(ctx context.Context) ([]service.Task, error) {
	return nil, failure("list todos")
}

// CreateTodo implements service.Tasks.
func (s *Service) CreateTodo(ctx context.Context, task service.NewTask) (service.Task, error) {
	return service.Task{}, failure("create todo")
}
