// Package shell decides which screen is shown, based on whether a user
// is established.
package shell

import (
	"context"
	"io"
	"path"
	"sync"

	"todo/internal/output"
	"todo/internal/service"
	"todo/internal/session"
)

// State is the shell's authentication state.
type State int

const (
	// Loading is the initial state, held until startup verification ends.
	Loading State = iota
	// Unauthenticated means no current user.
	Unauthenticated
	// Authenticated means a current user is established.
	Authenticated
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Unauthenticated:
		return "unauthenticated"
	case Authenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Screen identifies a rendered screen.
type Screen int

const (
	ScreenLoading Screen = iota
	ScreenLogin
	ScreenTasks
)

// TasksPath is the path of the only authenticated screen.
const TasksPath = "/"

// Route is the outcome of resolving a navigation path.
type Route struct {
	Screen Screen
	// Path is the effective path; for ScreenTasks always TasksPath.
	Path string
	// Redirected is set when the requested path was replaced.
	Redirected bool
}

// Shell tracks the state machine Loading -> Unauthenticated <-> Authenticated.
type Shell struct {
	session *session.Controller

	mu    sync.RWMutex
	state State
}

// New creates a shell in the Loading state.
func New(ctrl *session.Controller) *Shell {
	return &Shell{session: ctrl, state: Loading}
}

// Session returns the auth controller.
func (s *Shell) Session() *session.Controller {
	return s.session
}

// State returns the current state.
func (s *Shell) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Start runs startup verification and leaves Loading.
func (s *Shell) Start(ctx context.Context) error {
	err := s.session.Startup(ctx)
	s.sync()
	return err
}

// Login logs in and moves to Authenticated on success.
func (s *Shell) Login(ctx context.Context, email, password string) (*service.User, error) {
	user, err := s.session.Login(ctx, email, password)
	s.sync()
	return user, err
}

// Register registers and moves to Authenticated on success.
func (s *Shell) Register(ctx context.Context, name, email, password string) (*service.User, error) {
	user, err := s.session.Register(ctx, name, email, password)
	s.sync()
	return user, err
}

// Logout moves to Unauthenticated.
func (s *Shell) Logout() error {
	err := s.session.Logout()
	s.sync()
	return err
}

// sync derives the settled state from the controller.
func (s *Shell) sync() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session.LoggedIn() {
		s.state = Authenticated
	} else {
		s.state = Unauthenticated
	}
}

// Resolve maps a navigation path to a screen. Unauthenticated users
// always get the login screen. Authenticated users get the task screen;
// any path other than TasksPath redirects to it.
func (s *Shell) Resolve(p string) Route {
	switch s.State() {
	case Loading:
		return Route{Screen: ScreenLoading, Path: p}
	case Unauthenticated:
		return Route{Screen: ScreenLogin, Path: p}
	}
	if p != "" && path.Clean(p) == TasksPath {
		return Route{Screen: ScreenTasks, Path: TasksPath}
	}
	return Route{Screen: ScreenTasks, Path: TasksPath, Redirected: true}
}

// Header writes the app header, naming the current user when authenticated.
func (s *Shell) Header(w io.Writer) {
	var user *service.User
	if s.State() == Authenticated {
		user = s.session.Current()
	}
	output.FormatHeader(w, user)
}
