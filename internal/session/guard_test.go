package session

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/api"
	"fintrack/internal/core"
	"fintrack/internal/log"
)

// fakeBackend accepts the "good" access cookie and counts session checks.
type fakeBackend struct {
	checks       atomic.Int32
	logouts      atomic.Int32
	logoutStatus int
	refreshOK    bool
}

func (b *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/check-session", func(w http.ResponseWriter, r *http.Request) {
		b.checks.Add(1)
		c, err := r.Cookie("access_token_cookie")
		if err != nil || c.Value != "good" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"message":"Unauthorized"}`)
			return
		}
		_, _ = io.WriteString(w, `{"logged_in":true,"user":{"id":"u1","username":"ann","email":"ann@example.com"}}`)
	})
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var creds api.Credentials
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if creds.Password != "pw" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"message":"Invalid credentials"}`)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "access_token_cookie", Value: "good", Path: "/"})
		http.SetCookie(w, &http.Cookie{Name: "refresh_token_cookie", Value: "r1", Path: "/"})
		_, _ = io.WriteString(w, `{"message":"Login successful","user":{"id":"u1","username":"ann"}}`)
	})
	mux.HandleFunc("/auth/register", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"message":"User created successfully","user":{"id":"u1","username":"ann"}}`)
	})
	mux.HandleFunc("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		b.logouts.Add(1)
		if b.logoutStatus != 0 {
			w.WriteHeader(b.logoutStatus)
			return
		}
		_, _ = io.WriteString(w, `{"message":"Logged out"}`)
	})
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		if !b.refreshOK {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "access_token_cookie", Value: "good", Path: "/"})
		_, _ = io.WriteString(w, `{"message":"Token refreshed"}`)
	})
	return mux
}

func newTestGuard(t *testing.T, b *fakeBackend) *Guard {
	t.Helper()
	srv := httptest.NewServer(b.handler())
	t.Cleanup(srv.Close)
	client, err := api.NewClient(srv.URL)
	require.NoError(t, err)
	return NewGuard(client, log.New(log.Config{Output: io.Discard}))
}

func sessionWithCookie(value string) *Session {
	s := New()
	if value != "" {
		s.Cookies = []BackendCookie{{Name: "access_token_cookie", Value: value}}
	}
	return s
}

func TestGuard_Evaluate(t *testing.T) {
	tests := []struct {
		name         string
		cookie       string
		path         string
		wantState    State
		wantRedirect string
	}{
		{"protected page without session", "", "/transactions", Unauthenticated, LoginPath},
		{"protected page with stale cookie", "expired", "/budgets", Unauthenticated, LoginPath},
		{"protected page with session", "good", "/accounts", Authenticated, ""},
		{"home with session", "good", "/", Authenticated, ""},
		{"login page with session", "good", "/auth/login", Authenticated, HomePath},
		{"register page with session", "good", "/auth/register/", Authenticated, HomePath},
		{"login page without session", "", "/auth/login", Unauthenticated, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &fakeBackend{}
			g := newTestGuard(t, b)
			s := sessionWithCookie(tt.cookie)

			d := g.Evaluate(context.Background(), s, tt.path)

			assert.Equal(t, tt.wantState, d.State)
			assert.Equal(t, tt.wantRedirect, d.Redirect)
			assert.True(t, d.Checked)
			assert.Equal(t, tt.wantState, s.State)
			assert.EqualValues(t, 1, b.checks.Load())
		})
	}
}

func TestGuard_RejectionClearsLocalState(t *testing.T) {
	g := newTestGuard(t, &fakeBackend{})
	s := sessionWithCookie("expired")
	s.State = Authenticated
	s.User = &core.User{ID: "u1"}
	s.Editing = map[string]string{"budgets": "b1"}

	d := g.Evaluate(context.Background(), s, "/game")
	assert.Equal(t, LoginPath, d.Redirect)
	assert.Nil(t, s.User)
	assert.Empty(t, s.Cookies)
	assert.Empty(t, s.Editing)
}

func TestGuard_ConfirmationPersistsUserSnapshot(t *testing.T) {
	g := newTestGuard(t, &fakeBackend{})
	s := sessionWithCookie("good")

	g.Evaluate(context.Background(), s, "/charts")
	require.NotNil(t, s.User)
	assert.Equal(t, "ann@example.com", s.User.Email)
}

func TestGuard_UnguardedPathsAreNotChecked(t *testing.T) {
	b := &fakeBackend{}
	g := newTestGuard(t, b)

	d := g.Evaluate(context.Background(), New(), "/static/app.css")
	assert.False(t, d.Checked)
	assert.Empty(t, d.Redirect)
	assert.Zero(t, b.checks.Load())
}

func TestGuard_NetworkFailureRedirects(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	client, err := api.NewClient(url)
	require.NoError(t, err)
	g := NewGuard(client, log.New(log.Config{Output: io.Discard}))

	d := g.Evaluate(context.Background(), sessionWithCookie("good"), "/")
	assert.Equal(t, Unauthenticated, d.State)
	assert.Equal(t, LoginPath, d.Redirect)
}

func TestGuard_JustLoggedInSkipsExactlyOneCheck(t *testing.T) {
	b := &fakeBackend{}
	g := newTestGuard(t, b)
	s := New()

	require.NoError(t, g.Login(context.Background(), s, api.Credentials{Username: "ann", Password: "pw"}))
	assert.True(t, s.JustLoggedIn)
	assert.Equal(t, Authenticated, s.State)
	assert.Len(t, s.Cookies, 2)

	d := g.Evaluate(context.Background(), s, "/")
	assert.False(t, d.Checked)
	assert.Equal(t, Authenticated, d.State)
	assert.False(t, s.JustLoggedIn)
	assert.Zero(t, b.checks.Load())

	d = g.Evaluate(context.Background(), s, "/")
	assert.True(t, d.Checked)
	assert.Equal(t, Authenticated, d.State)
	assert.EqualValues(t, 1, b.checks.Load())
}

func TestGuard_LoginFailure(t *testing.T) {
	g := newTestGuard(t, &fakeBackend{})
	s := New()

	err := g.Login(context.Background(), s, api.Credentials{Username: "ann", Password: "nope"})
	assert.True(t, api.IsUnauthorized(err))
	assert.Equal(t, Unknown, s.State)
	assert.False(t, s.JustLoggedIn)
}

func TestGuard_RegisterLogsIn(t *testing.T) {
	g := newTestGuard(t, &fakeBackend{})
	s := New()

	err := g.Register(context.Background(), s, api.Registration{Username: "ann", Email: "ann@example.com", Password: "pw", ConfirmPassword: "pw"})
	require.NoError(t, err)
	assert.Equal(t, Authenticated, s.State)
	assert.True(t, s.JustLoggedIn)
}

func TestGuard_LogoutIsBestEffort(t *testing.T) {
	b := &fakeBackend{logoutStatus: http.StatusInternalServerError}
	g := newTestGuard(t, b)
	s := sessionWithCookie("good")
	s.State = Authenticated

	g.Logout(context.Background(), s)

	assert.EqualValues(t, 1, b.logouts.Load())
	assert.Equal(t, Unauthenticated, s.State)
	assert.Empty(t, s.Cookies)
}

func TestGuard_Refresh(t *testing.T) {
	t.Run("success keeps the session", func(t *testing.T) {
		g := newTestGuard(t, &fakeBackend{refreshOK: true})
		s := sessionWithCookie("old")
		s.State = Authenticated

		require.NoError(t, g.Refresh(context.Background(), s))
		assert.Equal(t, Authenticated, s.State)
		assert.Equal(t, "good", s.Cookies[0].Value)
	})

	t.Run("failure logs out", func(t *testing.T) {
		b := &fakeBackend{}
		g := newTestGuard(t, b)
		s := sessionWithCookie("old")
		s.State = Authenticated

		assert.Error(t, g.Refresh(context.Background(), s))
		assert.Equal(t, Unauthenticated, s.State)
		assert.EqualValues(t, 1, b.logouts.Load())
	})
}
