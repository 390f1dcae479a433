// Package session manages the authenticated user's lifecycle: startup
// verification of a persisted token, login, registration and logout.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"todo/internal/service"
	"todo/internal/storage"
)

// Fallback messages shown when the identity service supplies none.
const (
	LoginFailedMessage    = "Failed to login. Please check your credentials."
	RegisterFailedMessage = "Failed to register user."
)

var (
	// ErrMissingFields is returned when a required form field is empty.
	ErrMissingFields = errors.New("missing required fields")

	// ErrBusy is returned when an auth action is already in flight.
	ErrBusy = errors.New("another request is in progress")
)

// AuthError is a failed login or registration. Message is suitable for
// display; Err is the underlying failure.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string { return e.Message }

func (e *AuthError) Unwrap() error { return e.Err }

// Controller owns the current user. The user is non-nil only after a
// successful verification, login or registration.
type Controller struct {
	identity service.Identity
	store    storage.Store
	log      zerolog.Logger

	busy atomic.Bool

	mu   sync.RWMutex
	user *service.User
}

// NewController creates a controller backed by identity and store.
func NewController(identity service.Identity, store storage.Store, log zerolog.Logger) *Controller {
	return &Controller{
		identity: identity,
		store:    store,
		log:      log,
	}
}

// Current returns a copy of the current user, or nil if not logged in.
func (c *Controller) Current() *service.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.user == nil {
		return nil
	}
	u := *c.user
	return &u
}

// LoggedIn reports whether a user is established.
func (c *Controller) LoggedIn() bool {
	return c.Current() != nil
}

// Busy reports whether an auth request is in flight.
func (c *Controller) Busy() bool {
	return c.busy.Load()
}

// HasStoredToken reports whether a session token is persisted.
func (c *Controller) HasStoredToken() (bool, error) {
	token, ok, err := c.store.Get(storage.TokenKey)
	if err != nil {
		return false, err
	}
	return ok && token != "", nil
}

// Startup restores the session from the persisted token. A missing
// token means logged out without contacting the identity service. A
// token the service rejects is discarded; that is not an error. The
// returned error is reserved for storage failures and ErrBusy.
func (c *Controller) Startup(ctx context.Context) error {
	if !c.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer c.busy.Store(false)

	token, ok, err := c.store.Get(storage.TokenKey)
	if err != nil {
		return fmt.Errorf("failed to read session: %w", err)
	}
	if !ok || token == "" {
		c.log.Debug().Msg("no stored session")
		c.setUser(nil)
		return nil
	}

	c.identity.SetCredential(token)
	user, err := c.identity.VerifyToken(ctx, token)
	if err != nil {
		c.log.Debug().Err(err).Msg("invalid token, discarding session")
		c.identity.SetCredential("")
		c.setUser(nil)
		if rmErr := c.store.Remove(storage.TokenKey); rmErr != nil {
			return fmt.Errorf("failed to clear session: %w", rmErr)
		}
		return nil
	}

	if user.Token == "" {
		user.Token = token
	}
	c.identity.SetCredential(user.Token)
	c.setUser(&user)
	c.log.Debug().Str("user", user.ID.String()).Msg("session restored")
	return nil
}

// Login authenticates with email and password. Both are required; when
// either is empty no request is made.
func (c *Controller) Login(ctx context.Context, email, password string) (*service.User, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, ErrMissingFields
	}
	return c.authenticate(LoginFailedMessage, func() (service.User, error) {
		return c.identity.Login(ctx, strings.TrimSpace(email), password)
	})
}

// Register creates an account and logs it in. All fields are required.
func (c *Controller) Register(ctx context.Context, name, email, password string) (*service.User, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" || password == "" {
		return nil, ErrMissingFields
	}
	return c.authenticate(RegisterFailedMessage, func() (service.User, error) {
		return c.identity.Register(ctx, strings.TrimSpace(name), strings.TrimSpace(email), password)
	})
}

func (c *Controller) authenticate(fallback string, call func() (service.User, error)) (*service.User, error) {
	if !c.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer c.busy.Store(false)

	user, err := call()
	if err != nil {
		c.log.Debug().Err(err).Msg("authentication failed")
		return nil, &AuthError{Message: service.DisplayMessage(err, fallback), Err: err}
	}

	if err := c.store.Set(storage.TokenKey, user.Token); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	c.identity.SetCredential(user.Token)
	c.setUser(&user)
	c.log.Debug().Str("user", user.ID.String()).Msg("logged in")
	return c.Current(), nil
}

// Logout forgets the current user and the persisted token. It makes no
// network call.
func (c *Controller) Logout() error {
	c.setUser(nil)
	c.identity.SetCredential("")
	if err := c.store.Remove(storage.TokenKey); err != nil {
		return fmt.Errorf("failed to remove session: %w", err)
	}
	return nil
}

func (c *Controller) setUser(u *service.User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.user = u
}
