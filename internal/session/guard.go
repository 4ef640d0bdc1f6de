package session

import (
	"context"
	"fmt"
	"strings"

	"fintrack/internal/api"
	"fintrack/internal/log"
)

const (
	LoginPath    = "/auth/login"
	RegisterPath = "/auth/register"
	HomePath     = "/"
)

var protectedPages = map[string]bool{
	"/":             true,
	"/transactions": true,
	"/accounts":     true,
	"/budgets":      true,
	"/charts":       true,
	"/game":         true,
}

// IsAuthPage reports whether path is the login or registration page.
func IsAuthPage(path string) bool {
	path = normalise(path)
	return path == LoginPath || path == RegisterPath
}

// IsProtected reports whether path is a page that requires a session.
func IsProtected(path string) bool {
	return protectedPages[normalise(path)]
}

func normalise(path string) string {
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	return path
}

// Decision is the outcome of evaluating a page load.
type Decision struct {
	State    State
	Redirect string
	// Checked is false when no backend check was made.
	Checked bool
}

// Guard gates pages on the backend's view of the visitor's session and
// drives login, registration, refresh and logout.
type Guard struct {
	client *api.Client
	logger *log.Logger
}

func NewGuard(client *api.Client, logger *log.Logger) *Guard {
	return &Guard{client: client, logger: logger.WithComponent(log.ComponentGuard)}
}

func (g *Guard) backend(s *Session) *api.Client {
	return g.client.WithCookies(s.BackendCookies())
}

// Evaluate decides what happens to a request for path. It updates s in
// place; callers persist it afterwards.
//
//   - auth page, backend confirms the session: Authenticated, go home
//   - auth page, no session: Unauthenticated, show the form
//   - protected page, backend confirms: Authenticated, user refreshed
//   - protected page, anything else: local state cleared, go to login
//
// Right after a login the check is skipped once.
func (g *Guard) Evaluate(ctx context.Context, s *Session, path string) Decision {
	authPage := IsAuthPage(path)
	if !authPage && !IsProtected(path) {
		return Decision{State: s.State}
	}

	if s.consumeLogin() {
		d := Decision{State: s.State}
		if authPage && s.State == Authenticated {
			d.Redirect = HomePath
		}
		return d
	}

	st, err := g.backend(s).CheckSession(ctx)
	ok := err == nil && st.LoggedIn

	fields := []any{log.FieldPath, path, log.FieldSessionID, s.ID}
	if err != nil {
		fields = append(fields, log.FieldError, err, log.FieldErrorKind, string(api.KindOf(err)))
	}

	switch {
	case ok:
		user := s.User
		if st.User.ID != "" || st.User.Username != "" {
			u := st.User
			user = &u
		}
		s.setAuth(Authenticated, user)
		g.logger.DebugContext(ctx, "Session confirmed", fields...)
		if authPage {
			return Decision{State: Authenticated, Redirect: HomePath, Checked: true}
		}
		return Decision{State: Authenticated, Checked: true}

	case authPage:
		s.setAuth(Unauthenticated, nil)
		return Decision{State: Unauthenticated, Checked: true}

	default:
		s.LogOut()
		g.logger.InfoContext(ctx, "Session rejected, redirecting to login", fields...)
		return Decision{State: Unauthenticated, Redirect: LoginPath, Checked: true}
	}
}

// Login authenticates against the backend and records the result in s.
func (g *Guard) Login(ctx context.Context, s *Session, creds api.Credentials) error {
	res, err := g.backend(s).Login(ctx, creds)
	if err != nil {
		g.logger.WarnContext(ctx, "Login failed",
			log.FieldUsername, creds.Username,
			log.FieldErrorKind, string(api.KindOf(err)))
		return fmt.Errorf("login: %w", err)
	}
	user := res.User
	if user.Username == "" {
		user.Username = creds.Username
	}
	s.LogIn(user, api.MergeCookies(s.BackendCookies(), res.Cookies))
	g.logger.InfoContext(ctx, "User logged in", log.FieldUsername, user.Username, log.FieldSessionID, s.ID)
	return nil
}

// Register creates the account and then logs in with the same credentials.
func (g *Guard) Register(ctx context.Context, s *Session, reg api.Registration) error {
	res, err := g.backend(s).Register(ctx, reg)
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}
	s.SetBackendCookies(api.MergeCookies(s.BackendCookies(), res.Cookies))
	g.logger.InfoContext(ctx, "User registered", log.FieldUsername, reg.Username)
	return g.Login(ctx, s, api.Credentials{Username: reg.Username, Password: reg.Password})
}

// Refresh renews the backend access cookie. When the backend refuses, the
// visitor is logged out.
func (g *Guard) Refresh(ctx context.Context, s *Session) error {
	res, err := g.backend(s).Refresh(ctx)
	if err != nil {
		g.Logout(ctx, s)
		return fmt.Errorf("refresh: %w", err)
	}
	s.SetBackendCookies(api.MergeCookies(s.BackendCookies(), res.Cookies))
	return nil
}

// Logout revokes the backend session on a best effort basis. Local state is
// cleared whatever the backend answers.
func (g *Guard) Logout(ctx context.Context, s *Session) {
	if err := g.backend(s).Logout(ctx); err != nil {
		g.logger.WarnContext(ctx, "Backend logout failed, clearing local session anyway",
			log.FieldSessionID, s.ID,
			log.FieldError, err)
	}
	s.LogOut()
}
