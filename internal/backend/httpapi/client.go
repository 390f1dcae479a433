// Package httpapi implements the service.Service interface over the
// identity and task HTTP/JSON services.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"todo/internal/service"
)

// errMissingToken is returned when a login or registration response
// carries no session token.
var errMissingToken = errors.New("response carried no token")

// Client implements service.Service. It owns the one bearer credential
// attached to every request it sends, to either service.
type Client struct {
	identityURL *url.URL
	taskURL     *url.URL
	http        *http.Client
	log         zerolog.Logger

	mu     sync.RWMutex
	token  string
	source oauth2.TokenSource
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sends requests through hc. The bearer credential is
// layered on top of hc's transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		clone := *hc
		c.http = &clone
	}
}

// WithLogger sets the request logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// New creates a client for the given identity and task service base URLs.
func New(identityURL, taskURL string, opts ...Option) (*Client, error) {
	idURL, err := parseBase("identity", identityURL)
	if err != nil {
		return nil, err
	}
	tURL, err := parseBase("task", taskURL)
	if err != nil {
		return nil, err
	}

	c := &Client{
		identityURL: idURL,
		taskURL:     tURL,
		http:        &http.Client{},
		log:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	base := c.http.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	c.http.Transport = &bearerTransport{client: c, base: base}
	return c, nil
}

func parseBase(name, raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%s service URL is empty", name)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s service URL: %w", name, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid %s service URL: %q is not absolute", name, raw)
	}
	return u, nil
}

// SetCredential implements service.Credentials.
func (c *Client) SetCredential(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.token = token
	if token == "" {
		c.source = nil
		return
	}
	c.source = oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	})
}

// Credential implements service.Credentials.
func (c *Client) Credential() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) tokenSource() oauth2.TokenSource {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.source
}

// Login implements service.Identity.
func (c *Client) Login(ctx context.Context, email, password string) (service.User, error) {
	req := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{email, password}

	var user service.User
	if err := c.do(ctx, "login", c.identityURL, http.MethodPost, "login", req, &user); err != nil {
		return service.User{}, err
	}
	if user.Token == "" {
		return service.User{}, &service.Failure{Op: "login", Err: errMissingToken}
	}
	return user, nil
}

// Register implements service.Identity.
func (c *Client) Register(ctx context.Context, name, email, password string) (service.User, error) {
	req := struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}{name, email, password}

	var user service.User
	if err := c.do(ctx, "register", c.identityURL, http.MethodPost, "register", req, &user); err != nil {
		return service.User{}, err
	}
	if user.Token == "" {
		return service.User{}, &service.Failure{Op: "register", Err: errMissingToken}
	}
	return user, nil
}

// GetUser implements service.Identity.
func (c *Client) GetUser(ctx context.Context, id string) (service.User, error) {
	var user service.User
	path := "users/" + url.PathEscape(id)
	if err := c.do(ctx, "get user", c.identityURL, http.MethodGet, path, nil, &user); err != nil {
		return service.User{}, err
	}
	return user, nil
}

// VerifyToken implements service.Identity.
func (c *Client) VerifyToken(ctx context.Context, token string) (service.User, error) {
	req := struct {
		Token string `json:"token"`
	}{token}

	var user service.User
	if err := c.do(ctx, "verify token", c.identityURL, http.MethodPost, "verify-token", req, &user); err != nil {
		return service.User{}, err
	}
	return user, nil
}

// ListTodos implements service.Tasks.
func (c *Client) ListTodos(ctx context.Context) ([]service.Task, error) {
	var tasks []service.Task
	if err := c.do(ctx, "list todos", c.taskURL, http.MethodGet, "todos", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// CreateTodo implements service.Tasks.
func (c *Client) CreateTodo(ctx context.Context, task service.NewTask) (service.Task, error) {
	var created service.Task
	if err := c.do(ctx, "create todo", c.taskURL, http.MethodPost, "todos", task, &created); err != nil {
		return service.Task{}, err
	}
	return created, nil
}

// do performs one request/response round trip. A nil body sends no
// payload; a nil out discards the response body.
func (c *Client) do(ctx context.Context, op string, base *url.URL, method, path string, body, out any) error {
	endpoint := base.JoinPath(path)

	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &service.Failure{Op: op, Err: err}
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), payload)
	if err != nil {
		return &service.Failure{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		c.log.Debug().Str("op", op).Str("method", method).Str("url", endpoint.String()).Err(err).Msg("request failed")
		return &service.Failure{Op: op, Err: err}
	}
	defer googleapi.CloseBody(res)

	c.log.Debug().Str("op", op).Str("method", method).Str("url", endpoint.String()).Int("status", res.StatusCode).Msg("request")

	if err := googleapi.CheckResponse(res); err != nil {
		return failureFrom(op, res.StatusCode, err)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return &service.Failure{Op: op, Status: res.StatusCode, Err: fmt.Errorf("invalid response body: %w", err)}
	}
	return nil
}

// failureFrom normalizes a non-2xx response. The server message is read
// from a top-level "error" or "message" string, falling back to a
// structured {"error": {"message": ...}} payload.
func failureFrom(op string, status int, err error) *service.Failure {
	f := &service.Failure{Op: op, Status: status, Err: err}

	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return f
	}
	f.Message = gerr.Message

	var payload struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if json.Unmarshal([]byte(gerr.Body), &payload) != nil {
		return f
	}
	var msg string
	if json.Unmarshal(payload.Error, &msg) == nil && strings.TrimSpace(msg) != "" {
		f.Message = msg
	} else if strings.TrimSpace(payload.Message) != "" {
		f.Message = payload.Message
	}
	return f
}

// bearerTransport attaches the client's current credential to each request.
type bearerTransport struct {
	client *Client
	base   http.RoundTripper
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	src := t.client.tokenSource()
	if src == nil {
		return t.base.RoundTrip(req)
	}
	tok, err := src.Token()
	if err != nil {
		if req.Body != nil {
			req.Body.Close()
		}
		return nil, err
	}
	r2 := req.Clone(req.Context())
	tok.SetAuthHeader(r2)
	return t.base.RoundTrip(r2)
}
