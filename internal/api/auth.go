package api

import (
	"context"
	"net/http"

	"fintrack/internal/core"
)

// Credentials are posted to /auth/login.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Registration is posted to /auth/register.
type Registration struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// AuthResult is what login, registration and refresh hand back: the user,
// when the backend includes it, and the cookies it set.
type AuthResult struct {
	User    core.User
	Message string
	Cookies []*http.Cookie
}

// SessionStatus is the body of /api/check-session.
type SessionStatus struct {
	LoggedIn bool      `json:"logged_in"`
	User     core.User `json:"user"`
}

type authBody struct {
	Message string    `json:"message"`
	User    core.User `json:"user"`
}

func (c *Client) authCall(ctx context.Context, op, path string, in any) (AuthResult, error) {
	resp, err := c.do(ctx, ResourceAuth, op, http.MethodPost, path, nil, in)
	if err != nil {
		return AuthResult{}, err
	}
	var body authBody
	if err := decode(ResourceAuth, resp.body, &body); err != nil {
		return AuthResult{}, err
	}
	return AuthResult{User: body.User, Message: body.Message, Cookies: resp.cookies}, nil
}

// Login authenticates and returns the session cookies set by the backend.
func (c *Client) Login(ctx context.Context, creds Credentials) (AuthResult, error) {
	return c.authCall(ctx, "login", "/auth/login", creds)
}

// Register creates an account. The backend may or may not start a session;
// callers log in afterwards either way.
func (c *Client) Register(ctx context.Context, reg Registration) (AuthResult, error) {
	return c.authCall(ctx, "register", "/auth/register", reg)
}

// Refresh renews the access cookie.
func (c *Client) Refresh(ctx context.Context) (AuthResult, error) {
	return c.authCall(ctx, "refresh", "/auth/refresh", nil)
}

// Logout revokes the backend session.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.do(ctx, ResourceAuth, "logout", http.MethodPost, "/auth/logout", nil, nil)
	return err
}

// CheckSession asks the backend whether the cookies still name a session.
// A 2xx answer with logged_in=false is returned as-is; callers decide.
func (c *Client) CheckSession(ctx context.Context) (SessionStatus, error) {
	var st SessionStatus
	resp, err := c.do(ctx, ResourceAuth, "check_session", http.MethodGet, "/api/check-session", nil, nil)
	if err != nil {
		return st, err
	}
	err = decode(ResourceAuth, resp.body, &st)
	return st, err
}
