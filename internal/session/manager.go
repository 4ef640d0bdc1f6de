package session

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"net/http"
	"sync"
	"time"
)

// Manager binds stored sessions to the visitor's browser cookie.
type Manager struct {
	store      Store
	cookieName string
	secure     bool
	ttl        time.Duration

	// Serializes read-merge-write per session id within this process.
	locks [64]sync.Mutex
}

type ManagerConfig struct {
	CookieName string
	Secure     bool
	TTL        time.Duration
}

func NewManager(store Store, cfg ManagerConfig) *Manager {
	return &Manager{
		store:      store,
		cookieName: cfg.CookieName,
		secure:     cfg.Secure,
		ttl:        cfg.TTL,
	}
}

// Store returns the underlying session store.
func (m *Manager) Store() Store {
	return m.store
}

// Load returns the visitor's session, or a new unsaved one when the cookie
// is missing or names no live session.
func (m *Manager) Load(r *http.Request) (*Session, error) {
	c, err := r.Cookie(m.cookieName)
	if err != nil || c.Value == "" {
		return New(), nil
	}
	s, err := m.store.Get(r.Context(), c.Value)
	if errors.Is(err, ErrNotFound) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return s, nil
}

func (m *Manager) lock(id string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(id))
	return &m.locks[h.Sum32()%uint32(len(m.locks))]
}

// Save persists the changes this request made to s and (re)issues the
// browser cookie, sliding its expiry. The stored copy is re-read first, so
// changes other requests saved since s was loaded are kept. An unchanged
// session is only touched.
func (m *Manager) Save(ctx context.Context, w http.ResponseWriter, s *Session) error {
	if err := m.persist(ctx, s); err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    s.ID,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (m *Manager) persist(ctx context.Context, s *Session) error {
	mu := m.lock(s.ID)
	mu.Lock()
	defer mu.Unlock()

	if !s.Changed() {
		err := m.store.Touch(ctx, s.ID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("touch session: %w", err)
		}
		return nil
	}

	stored, err := m.store.Get(ctx, s.ID)
	switch {
	case errors.Is(err, ErrNotFound):
		// Destroyed or expired while this request ran; only a new or
		// reset session is written from scratch.
		if !s.replaces() {
			return nil
		}
		stored = nil
	case err != nil:
		return fmt.Errorf("reload session: %w", err)
	}
	if err := m.store.Save(ctx, s.ApplyTo(stored)); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	s.changed, s.edited = 0, nil
	return nil
}

// Destroy deletes s and expires the browser cookie.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, s *Session) error {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	if err := m.store.Delete(ctx, s.ID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

type ctxKey struct{}

// WithSession attaches s to ctx.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session attached by WithSession.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Session)
	return s, ok
}
