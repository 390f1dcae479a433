package testutil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

// Request is one request received by FakeServers.
type Request struct {
	Service       string // "identity" or "tasks"
	Method        string
	Path          string
	Authorization string
}

// FakeServers runs HTTP fakes of the identity and task services. Tokens
// are HS256 JWTs whose subject is the user id.
type FakeServers struct {
	Identity *httptest.Server
	Tasks    *httptest.Server

	// Now stamps tokens and created tasks.
	Now func() time.Time

	secret []byte

	mu       sync.Mutex
	users    map[string]*fakeUser // email -> user
	todos    map[string][]wireTask
	nextID   int
	requests []Request

	// TodosStatus, when non-zero, makes both /todos endpoints fail with it.
	TodosStatus int
}

type fakeUser struct {
	ID    string
	Name  string
	Email string
	Hash  []byte
}

type wireUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Token string `json:"token,omitempty"`
}

type wireTask struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	DueDate     *string `json:"due_date"`
	IsCompleted bool    `json:"is_completed"`
	CreatedAt   string  `json:"created_at"`
}

// NewFakeServers starts both fakes; they are closed when t ends.
func NewFakeServers(t *testing.T) *FakeServers {
	t.Helper()

	f := &FakeServers{
		Now:    func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) },
		secret: []byte("fake-signing-key"),
		users:  make(map[string]*fakeUser),
		todos:  make(map[string][]wireTask),
		nextID: 1,
	}

	identity := echo.New()
	identity.HideBanner = true
	identity.Use(f.recordRequests("identity"))
	identity.POST("/login", f.handleLogin)
	identity.POST("/register", f.handleRegister)
	identity.GET("/users/:id", f.handleGetUser)
	identity.POST("/verify-token", f.handleVerifyToken)

	tasks := echo.New()
	tasks.HideBanner = true
	tasks.Use(f.recordRequests("tasks"))
	tasks.GET("/todos", f.handleListTodos)
	tasks.POST("/todos", f.handleCreateTodo)

	f.Identity = httptest.NewServer(identity)
	f.Tasks = httptest.NewServer(tasks)
	t.Cleanup(func() {
		f.Identity.Close()
		f.Tasks.Close()
	})
	return f
}

// AddUser creates an account directly and returns its id.
func (f *FakeServers) AddUser(t *testing.T, name, email, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u := &fakeUser{ID: uuid.NewString(), Name: name, Email: email, Hash: hash}
	f.users[email] = u
	return u.ID
}

// IssueToken signs a token for userID.
func (f *FakeServers) IssueToken(t *testing.T, userID string) string {
	t.Helper()
	token, err := f.sign(userID)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

// Requests returns the requests received so far.
func (f *FakeServers) Requests() []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Request, len(f.requests))
	copy(out, f.requests)
	return out
}

func (f *FakeServers) recordRequests(name string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			f.mu.Lock()
			f.requests = append(f.requests, Request{
				Service:       name,
				Method:        req.Method,
				Path:          req.URL.Path,
				Authorization: req.Header.Get(echo.HeaderAuthorization),
			})
			f.mu.Unlock()
			return next(c)
		}
	}
}

func (f *FakeServers) sign(userID string) (string, error) {
	now := f.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(24 * time.Hour)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(f.secret)
}

// userFor returns the user a token belongs to, or nil.
func (f *FakeServers) userFor(token string) *fakeUser {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(*jwt.Token) (any, error) {
		return f.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(f.Now))
	if err != nil || !parsed.Valid {
		return nil
	}
	sub, err := parsed.Claims.GetSubject()
	if err != nil {
		return nil
	}
	for _, u := range f.users {
		if u.ID == sub {
			return u
		}
	}
	return nil
}

func (f *FakeServers) bearerUser(c echo.Context) *fakeUser {
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok {
		return nil
	}
	return f.userFor(token)
}

func errorJSON(c echo.Context, code int, msg string) error {
	return c.JSON(code, map[string]string{"error": msg})
}

func (f *FakeServers) loggedIn(c echo.Context, u *fakeUser) error {
	token, err := f.sign(u.ID)
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, "Could not issue token")
	}
	return c.JSON(http.StatusOK, wireUser{ID: u.ID, Name: u.Name, Email: u.Email, Token: token})
}

func (f *FakeServers) handleLogin(c echo.Context) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid request body")
	}

	f.mu.Lock()
	u, ok := f.users[req.Email]
	f.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(u.Hash, []byte(req.Password)) != nil {
		return errorJSON(c, http.StatusUnauthorized, "Invalid email or password")
	}
	return f.loggedIn(c, u)
}

func (f *FakeServers) handleRegister(c echo.Context) error {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid request body")
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return errorJSON(c, http.StatusBadRequest, "All fields are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.MinCost)
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, "Could not hash password")
	}

	f.mu.Lock()
	if _, exists := f.users[req.Email]; exists {
		f.mu.Unlock()
		return errorJSON(c, http.StatusConflict, "Email already registered")
	}
	u := &fakeUser{ID: uuid.NewString(), Name: req.Name, Email: req.Email, Hash: hash}
	f.users[req.Email] = u
	f.mu.Unlock()

	return f.loggedIn(c, u)
}

func (f *FakeServers) handleGetUser(c echo.Context) error {
	id := c.Param("id")
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == id {
			return c.JSON(http.StatusOK, wireUser{ID: u.ID, Name: u.Name, Email: u.Email})
		}
	}
	return errorJSON(c, http.StatusNotFound, "User not found")
}

func (f *FakeServers) handleVerifyToken(c echo.Context) error {
	var req struct {
		Token string `json:"token"`
	}
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid request body")
	}
	f.mu.Lock()
	u := f.userFor(req.Token)
	f.mu.Unlock()
	if u == nil {
		return errorJSON(c, http.StatusUnauthorized, "Invalid token")
	}
	return c.JSON(http.StatusOK, wireUser{ID: u.ID, Name: u.Name, Email: u.Email})
}

func (f *FakeServers) handleListTodos(c echo.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.TodosStatus != 0 {
		return errorJSON(c, f.TodosStatus, http.StatusText(f.TodosStatus))
	}
	u := f.bearerUser(c)
	if u == nil {
		return errorJSON(c, http.StatusUnauthorized, "Unauthorized")
	}
	todos := f.todos[u.ID]
	if todos == nil {
		todos = []wireTask{}
	}
	return c.JSON(http.StatusOK, todos)
}

func (f *FakeServers) handleCreateTodo(c echo.Context) error {
	var req struct {
		Title       string  `json:"title"`
		Description string  `json:"description"`
		DueDate     *string `json:"due_date"`
	}
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid request body")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.TodosStatus != 0 {
		return errorJSON(c, f.TodosStatus, http.StatusText(f.TodosStatus))
	}
	u := f.bearerUser(c)
	if u == nil {
		return errorJSON(c, http.StatusUnauthorized, "Unauthorized")
	}
	if strings.TrimSpace(req.Title) == "" {
		return errorJSON(c, http.StatusBadRequest, "Title is required")
	}

	task := wireTask{
		ID:          f.nextID,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		CreatedAt:   f.Now().UTC().Format(time.RFC3339),
	}
	f.nextID++
	f.todos[u.ID] = append([]wireTask{task}, f.todos[u.ID]...)
	return c.JSON(http.StatusCreated, task)
}
