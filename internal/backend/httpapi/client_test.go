package httpapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo/internal/backend/httpapi"
	"todo/internal/service"
	"todo/internal/testutil"
)

func newClient(t *testing.T, servers *testutil.FakeServers) *httpapi.Client {
	t.Helper()
	c, err := httpapi.New(servers.Identity.URL, servers.Tasks.URL)
	require.NoError(t, err)
	return c
}

func TestNew_ValidatesURLs(t *testing.T) {
	tests := []struct {
		name     string
		identity string
		tasks    string
	}{
		{"empty identity", "", "http://tasks.example"},
		{"empty tasks", "http://id.example", ""},
		{"relative", "id.example/api", "http://tasks.example"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := httpapi.New(tt.identity, tt.tasks)
			assert.Error(t, err)
		})
	}
}

func TestLogin(t *testing.T) {
	servers := testutil.NewFakeServers(t)
	id := servers.AddUser(t, "Ann", "a@b.com", "pw")
	c := newClient(t, servers)

	user, err := c.Login(context.Background(), "a@b.com", "pw")
	require.NoError(t, err)

	assert.Equal(t, service.ID(id), user.ID)
	assert.Equal(t, "Ann", user.Name)
	assert.Equal(t, "a@b.com", user.Email)
	assert.NotEmpty(t, user.Token)

	// The adapter does not install credentials on its own
	assert.Empty(t, c.Credential())
	reqs := servers.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, testutil.Request{Service: "identity", Method: http.MethodPost, Path: "/login"}, reqs[0])
}

func TestLogin_Rejected(t *testing.T) {
	servers := testutil.NewFakeServers(t)
	servers.AddUser(t, "Ann", "a@b.com", "pw")
	c := newClient(t, servers)

	_, err := c.Login(context.Background(), "a@b.com", "wrong")

	var f *service.Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, http.StatusUnauthorized, f.Status)
	assert.Equal(t, "Invalid email or password", f.Message)
	assert.True(t, f.Unauthorized())
	assert.Equal(t, "Invalid email or password", service.DisplayMessage(err, "fallback"))
}

func TestRegisterAndVerify(t *testing.T) {
	servers := testutil.NewFakeServers(t)
	c := newClient(t, servers)

	user, err := c.Register(context.Background(), "Cat", "c@b.com", "pw")
	require.NoError(t, err)
	require.NotEmpty(t, user.Token)

	verified, err := c.VerifyToken(context.Background(), user.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, verified.ID)
	assert.Equal(t, "Cat", verified.Name)

	_, err = c.Register(context.Background(), "Cat", "c@b.com", "pw")
	assert.Equal(t, "Email already registered", service.DisplayMessage(err, ""))
}

func TestVerifyToken_Invalid(t *testing.T) {
	servers := testutil.NewFakeServers(t)
	c := newClient(t, servers)

	_, err := c.VerifyToken(context.Background(), "not-a-jwt")

	var f *service.Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, http.StatusUnauthorized, f.Status)
	assert.Equal(t, "Invalid token", f.Message)
}

func TestGetUser(t *testing.T) {
	servers := testutil.NewFakeServers(t)
	id := servers.AddUser(t, "Ann", "a@b.com", "pw")
	c := newClient(t, servers)

	user, err := c.GetUser(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Ann", user.Name)
	assert.Empty(t, user.Token)

	_, err = c.GetUser(context.Background(), "missing")
	var f *service.Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, http.StatusNotFound, f.Status)
}

func TestCredentialAttachedToBothServices(t *testing.T) {
	servers := testutil.NewFakeServers(t)
	id := servers.AddUser(t, "Ann", "a@b.com", "pw")
	c := newClient(t, servers)

	token := servers.IssueToken(t, id)
	c.SetCredential(token)
	assert.Equal(t, token, c.Credential())

	_, err := c.ListTodos(context.Background())
	require.NoError(t, err)
	_, err = c.GetUser(context.Background(), id)
	require.NoError(t, err)

	for _, r := range servers.Requests() {
		assert.Equal(t, "Bearer "+token, r.Authorization, "%s %s", r.Service, r.Path)
	}
}

func TestSetCredential_Replaces(t *testing.T) {
	seen := make(chan []string, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen <- r.Header.Values("Authorization")
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	c, err := httpapi.New(srv.URL, srv.URL)
	require.NoError(t, err)

	c.SetCredential("first")
	c.SetCredential("second")
	_, err = c.ListTodos(context.Background())
	require.NoError(t, err)

	c.SetCredential("")
	_, err = c.ListTodos(context.Background())
	require.NoError(t, err)

	require.Len(t, seen, 2)
	assert.Equal(t, []string{"Bearer second"}, <-seen, "only the latest credential is attached")
	assert.Empty(t, <-seen)
}

func TestTodos(t *testing.T) {
	servers := testutil.NewFakeServers(t)
	id := servers.AddUser(t, "Ann", "a@b.com", "pw")
	c := newClient(t, servers)
	c.SetCredential(servers.IssueToken(t, id))

	tasks, err := c.ListTodos(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tasks)

	created, err := c.CreateTodo(context.Background(), service.NewTask{Title: "Buy milk"})
	require.NoError(t, err)
	assert.Equal(t, service.ID("1"), created.ID)
	assert.Equal(t, "Buy milk", created.Title)
	assert.False(t, created.IsCompleted)
	assert.False(t, created.HasDueDate())
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), created.CreatedAt.UTC())

	due := "2024-02-01"
	_, err = c.CreateTodo(context.Background(), service.NewTask{Title: "Pay rent", DueDate: &due})
	require.NoError(t, err)

	tasks, err = c.ListTodos(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "Pay rent", tasks[0].Title)
	require.True(t, tasks[0].HasDueDate())
	assert.Equal(t, "2024-02-01", tasks[0].DueDate.Format(service.DateLayout))
}

func TestCreateTodo_SendsNullDueDate(t *testing.T) {
	bodies := make(chan map[string]any, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		bodies <- body
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"id":1,"title":"Buy milk","is_completed":false,"created_at":"2024-01-01T00:00:00Z"}`)
	}))
	defer srv.Close()

	c, err := httpapi.New(srv.URL, srv.URL)
	require.NoError(t, err)

	_, err = c.CreateTodo(context.Background(), service.NewTask{Title: "Buy milk"})
	require.NoError(t, err)

	body := <-bodies
	require.Contains(t, body, "due_date")
	assert.Nil(t, body["due_date"])
	assert.Equal(t, "", body["description"])
}

func TestTodos_Unauthorized(t *testing.T) {
	servers := testutil.NewFakeServers(t)
	c := newClient(t, servers)

	_, err := c.ListTodos(context.Background())

	var f *service.Failure
	require.ErrorAs(t, err, &f)
	assert.True(t, f.Unauthorized())
}

func TestServerError(t *testing.T) {
	servers := testutil.NewFakeServers(t)
	id := servers.AddUser(t, "Ann", "a@b.com", "pw")
	servers.TodosStatus = http.StatusServiceUnavailable
	c := newClient(t, servers)
	c.SetCredential(servers.IssueToken(t, id))

	_, err := c.ListTodos(context.Background())

	var f *service.Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, http.StatusServiceUnavailable, f.Status)
	assert.Equal(t, "Service Unavailable", f.Message)
}

func TestStructuredErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"message":"title too long"}`)
	}))
	defer srv.Close()

	c, err := httpapi.New(srv.URL, srv.URL)
	require.NoError(t, err)

	_, err = c.CreateTodo(context.Background(), service.NewTask{Title: "x"})
	assert.Equal(t, "title too long", service.DisplayMessage(err, "fallback"))
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := httpapi.New(url, url)
	require.NoError(t, err)

	_, err = c.Login(context.Background(), "a@b.com", "pw")

	var f *service.Failure
	require.ErrorAs(t, err, &f)
	assert.Zero(t, f.Status)
	assert.Empty(t, f.Message)
	assert.Equal(t, "fallback", service.DisplayMessage(err, "fallback"))
}

// roundTripFunc adapts a function to http.RoundTripper.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestWithHTTPClient(t *testing.T) {
	errDown := errors.New("network down")
	var auth []string
	hc := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		auth = append(auth, r.Header.Get("Authorization"))
		return nil, errDown
	})}

	c, err := httpapi.New("http://identity.test", "http://tasks.test", httpapi.WithHTTPClient(hc))
	require.NoError(t, err)
	c.SetCredential("tok-1")

	_, err = c.ListTodos(context.Background())

	var f *service.Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, "list todos", f.Op)
	assert.Zero(t, f.Status)
	assert.ErrorIs(t, err, errDown)
	assert.Equal(t, []string{"Bearer tok-1"}, auth, "credential is layered over the custom transport")
	_, unchanged := hc.Transport.(roundTripFunc)
	assert.True(t, unchanged, "caller's client is not modified")
}

func TestBasePathPreserved(t *testing.T) {
	paths := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths <- r.URL.Path
		io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	c, err := httpapi.New(srv.URL+"/identity", srv.URL+"/api/")
	require.NoError(t, err)

	_, err = c.ListTodos(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/api/todos", <-paths)
}
