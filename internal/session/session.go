// Package session keeps per-visitor state on the server and decides, on each
// page load, whether the visitor may see the page.
package session

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/forms"
)

// State is the visitor's authentication state.
type State string

const (
	Unknown         State = "unknown"
	Authenticated   State = "authenticated"
	Unauthenticated State = "unauthenticated"
)

// BackendCookie is a cookie the REST backend set for this visitor.
type BackendCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Session is everything fintrack remembers about one visitor.
type Session struct {
	ID           string            `json:"id"`
	State        State             `json:"state"`
	User         *core.User        `json:"user,omitempty"`
	Cookies      []BackendCookie   `json:"cookies,omitempty"`
	JustLoggedIn bool              `json:"just_logged_in,omitempty"`
	Editing      map[string]string `json:"editing,omitempty"`
	Taxonomy     *core.Taxonomy    `json:"taxonomy,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`

	// What this request changed. Only these parts are written back over
	// the stored copy.
	changed change
	edited  map[string]struct{}
}

type change uint8

const (
	changedAuth change = 1 << iota // State, User, JustLoggedIn
	changedCookies
	changedTaxonomy
	changedAll
)

// New returns an empty session with a fresh random id.
func New() *Session {
	return &Session{
		ID:        uuid.NewString(),
		State:     Unknown,
		CreatedAt: time.Now().UTC(),
		changed:   changedAll,
	}
}

func (s *Session) mark(c change) {
	s.changed |= c
}

// Changed reports whether anything was modified since the session was
// loaded. A new session always counts as changed.
func (s *Session) Changed() bool {
	return s.changed != 0 || len(s.edited) > 0
}

// replaces reports whether s is new or was reset and so overwrites whatever
// is stored.
func (s *Session) replaces() bool {
	return s.changed&changedAll != 0
}

// ApplyTo returns stored with the changes made to s copied over it. Parts
// s did not touch keep the stored values, which may be newer than the ones
// s was loaded with.
func (s *Session) ApplyTo(stored *Session) *Session {
	if stored == nil || stored.ID != s.ID || s.replaces() {
		out := *s
		out.changed, out.edited = 0, nil
		return &out
	}

	out := *stored
	out.changed, out.edited = 0, nil
	if s.changed&changedAuth != 0 {
		out.State, out.User, out.JustLoggedIn = s.State, s.User, s.JustLoggedIn
	}
	if s.changed&changedCookies != 0 {
		out.Cookies = s.Cookies
	}
	if s.changed&changedTaxonomy != 0 {
		out.Taxonomy = s.Taxonomy
	}
	if len(s.edited) > 0 {
		editing := make(map[string]string, len(stored.Editing)+len(s.edited))
		for k, v := range stored.Editing {
			editing[k] = v
		}
		for k := range s.edited {
			if id, ok := s.Editing[k]; ok {
				editing[k] = id
			} else {
				delete(editing, k)
			}
		}
		out.Editing = editing
	}
	return &out
}

// BackendCookies returns the cookies to attach to backend calls.
func (s *Session) BackendCookies() []*http.Cookie {
	out := make([]*http.Cookie, len(s.Cookies))
	for i, c := range s.Cookies {
		out[i] = &http.Cookie{Name: c.Name, Value: c.Value}
	}
	return out
}

// SetBackendCookies replaces the stored backend cookies.
func (s *Session) SetBackendCookies(cookies []*http.Cookie) {
	s.mark(changedCookies)
	s.Cookies = nil
	for _, c := range cookies {
		if c.Value == "" || c.MaxAge < 0 {
			continue
		}
		s.Cookies = append(s.Cookies, BackendCookie{Name: c.Name, Value: c.Value})
	}
}

// LogIn records a successful login. The next guard check is skipped so a
// freshly set backend cookie is not questioned straight away.
func (s *Session) LogIn(user core.User, cookies []*http.Cookie) {
	s.mark(changedAuth)
	s.State = Authenticated
	s.User = &user
	s.JustLoggedIn = true
	s.SetBackendCookies(cookies)
}

// LogOut forgets everything but the session id.
func (s *Session) LogOut() {
	s.mark(changedAll)
	s.State = Unauthenticated
	s.User = nil
	s.Cookies = nil
	s.JustLoggedIn = false
	s.Editing = nil
	s.Taxonomy = nil
}

// EditSession returns what the resource's form is currently editing.
func (s *Session) EditSession(resource string) forms.EditSession {
	return forms.NewEditSession(resource, s.Editing[resource])
}

// SetEditSession stores e, or clears the resource when e holds no id.
func (s *Session) SetEditSession(e forms.EditSession) {
	if s.edited == nil {
		s.edited = make(map[string]struct{})
	}
	s.edited[e.Resource] = struct{}{}
	if !e.Editing() {
		delete(s.Editing, e.Resource)
		return
	}
	if s.Editing == nil {
		s.Editing = make(map[string]string)
	}
	s.Editing[e.Resource] = e.ID
}

// MirrorTaxonomy keeps the categories loaded for this page view.
func (s *Session) MirrorTaxonomy(t core.Taxonomy) {
	s.mark(changedTaxonomy)
	s.Taxonomy = &t
}

// setAuth records the outcome of a guard check.
func (s *Session) setAuth(state State, user *core.User) {
	s.mark(changedAuth)
	s.State = state
	s.User = user
}

// consumeLogin clears the just-logged-in flag and reports whether it was set.
func (s *Session) consumeLogin() bool {
	if !s.JustLoggedIn {
		return false
	}
	s.mark(changedAuth)
	s.JustLoggedIn = false
	return true
}

// CachedTaxonomy returns the mirrored taxonomy, if any.
func (s *Session) CachedTaxonomy() (core.Taxonomy, bool) {
	if s.Taxonomy == nil {
		return core.Taxonomy{}, false
	}
	return *s.Taxonomy, true
}
