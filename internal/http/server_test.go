package http

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/api"
	"fintrack/internal/forms"
	"fintrack/internal/log"
	"fintrack/internal/render"
	"fintrack/internal/session"
	"fintrack/web"
)

const testCookie = "fintrack_session"

// fakeBackend is an in-memory stand-in for the REST API. It accepts the
// "good" access cookie only.
type fakeBackend struct {
	mu           sync.Mutex
	transactions []map[string]any
	requests     []string
	lastBody     map[string]any
	createStatus int

	// When block is set, transaction creates wait on it after signalling
	// entered.
	block   chan struct{}
	entered chan struct{}
}

func (b *fakeBackend) record(r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = append(b.requests, r.Method+" "+r.URL.Path)
	if r.Body != nil && (r.Method == http.MethodPost || r.Method == http.MethodPut) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
			b.lastBody = body
		}
	}
}

func (b *fakeBackend) saw(req string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, r := range b.requests {
		if r == req {
			return true
		}
	}
	return false
}

func (b *fakeBackend) body() map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastBody
}

func authorised(w http.ResponseWriter, r *http.Request) bool {
	c, err := r.Cookie("access_token_cookie")
	if err != nil || c.Value != "good" {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"message":"Unauthorized"}`)
		return false
	}
	return true
}

func (b *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		b.record(r)
		if b.body()["password"] != "pw" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"message":"Invalid credentials"}`)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "access_token_cookie", Value: "good", Path: "/"})
		_, _ = io.WriteString(w, `{"message":"Login successful","user":{"id":"u1","username":"ann"}}`)
	})
	mux.HandleFunc("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		b.record(r)
		_, _ = io.WriteString(w, `{"message":"Logged out"}`)
	})
	mux.HandleFunc("/api/check-session", func(w http.ResponseWriter, r *http.Request) {
		if !authorised(w, r) {
			return
		}
		_, _ = io.WriteString(w, `{"logged_in":true,"user":{"id":"u1","username":"ann"}}`)
	})
	mux.HandleFunc("/api/accounts/", func(w http.ResponseWriter, r *http.Request) {
		b.record(r)
		if !authorised(w, r) {
			return
		}
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/accounts/":
			_, _ = io.WriteString(w, `[{"id":"a1","name":"Checking","type":"bank","balance":100,"bank_name":"First"},{"id":"a2","name":"Savings","type":"bank","balance":50}]`)
		case r.Method == http.MethodGet:
			_, _ = io.WriteString(w, `{"id":"a1","name":"Checking","type":"bank","balance":100,"bank_name":"First","last_four":"1234"}`)
		default:
			_, _ = io.WriteString(w, `{"message":"Account updated successfully"}`)
		}
	})
	mux.HandleFunc("/api/transactions/categories", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"expense":["food"],"income":["salary"],"transfer":["between accounts"]}`)
	})
	mux.HandleFunc("/api/transactions/", func(w http.ResponseWriter, r *http.Request) {
		b.record(r)
		if !authorised(w, r) {
			return
		}
		switch r.Method {
		case http.MethodGet:
			b.mu.Lock()
			out := []byte("[]")
			if len(b.transactions) > 0 {
				out, _ = json.Marshal(b.transactions)
			}
			b.mu.Unlock()
			_, _ = w.Write(out)
		case http.MethodPost:
			if b.entered != nil {
				b.entered <- struct{}{}
				<-b.block
			}
			if b.createStatus != 0 {
				w.WriteHeader(b.createStatus)
				_, _ = io.WriteString(w, `{"message":"Session expired"}`)
				return
			}
			b.mu.Lock()
			tx := b.lastBody
			tx["id"] = fmt.Sprintf("t%d", len(b.transactions)+1)
			b.transactions = append(b.transactions, tx)
			id := tx["id"]
			b.mu.Unlock()
			w.WriteHeader(http.StatusCreated)
			_, _ = fmt.Fprintf(w, `{"id":%q,"message":"Transaction created successfully"}`, id)
		case http.MethodDelete:
			_, _ = io.WriteString(w, `{"message":"Transaction deleted successfully"}`)
		}
	})
	mux.HandleFunc("/api/budgets", func(w http.ResponseWriter, r *http.Request) {
		if !authorised(w, r) {
			return
		}
		_, _ = io.WriteString(w, `[]`)
	})
	mux.HandleFunc("/api/budgets/tips", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"tip":"Track every expense","category":"general","total_tips":3}`)
	})
	return mux
}

type harness struct {
	server  *Server
	backend *fakeBackend
	cookie  *http.Cookie
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	b := &fakeBackend{}
	backend := httptest.NewServer(b.handler())
	t.Cleanup(backend.Close)

	client, err := api.NewClient(backend.URL)
	require.NoError(t, err)
	views, err := render.New(web.TemplatesFS)
	require.NoError(t, err)

	logger := log.New(log.Config{Level: slog.LevelError, Output: io.Discard})
	store := session.NewMemoryStore(100, time.Hour)
	srv := NewServer(":0", Deps{
		Backend:  client,
		Sessions: session.NewManager(store, session.ManagerConfig{CookieName: testCookie, TTL: time.Hour}),
		Guard:    session.NewGuard(client, logger),
		Forms:    forms.NewController(logger),
		Views:    views,
		Logger:   logger,
	})
	return &harness{server: srv, backend: b}
}

// do sends a request as the visitor and keeps whatever session cookie the
// response sets.
func (h *harness) do(t *testing.T, method, target string, form url.Values, htmx bool) *httptest.ResponseRecorder {
	t.Helper()
	rec := h.send(method, target, form, htmx, h.cookie)
	for _, c := range rec.Result().Cookies() {
		if c.Name == testCookie {
			h.cookie = c
		}
	}
	return rec
}

func (h *harness) send(method, target string, form url.Values, htmx bool, cookie *http.Cookie) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	h.server.Handler.ServeHTTP(rec, req)
	return rec
}

func (h *harness) login(t *testing.T) {
	t.Helper()
	rec := h.do(t, http.MethodPost, "/auth/login", url.Values{"username": {"ann"}, "password": {"pw"}}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "/", rec.Header().Get("HX-Redirect"))
	require.NotNil(t, h.cookie, "login did not issue a session cookie")
}

func triggers(t *testing.T, rec *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	var events map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(rec.Header().Get("HX-Trigger")), &events))
	return events
}

func TestHealthAndReady(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, "/healthz", nil, false)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	// An unauthorised check-session still proves the backend is reachable.
	rec = h.do(t, http.MethodGet, "/readyz", nil, false)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ready"`)
}

func TestGuardRedirectsAnonymousVisitor(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, "/budgets", nil, false)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, session.LoginPath, rec.Header().Get("Location"))

	rec = h.do(t, http.MethodGet, "/", nil, true)
	assert.Equal(t, session.LoginPath, rec.Header().Get("HX-Redirect"))

	rec = h.do(t, http.MethodGet, session.LoginPath, nil, false)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Log in to fintrack")
}

func TestLoggedInVisitorIsSentHomeFromLogin(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	// The first page after login skips the backend check.
	rec := h.do(t, http.MethodGet, "/", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(t, http.MethodGet, session.LoginPath, nil, false)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, session.HomePath, rec.Header().Get("Location"))
}

func TestLoginRejected(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/auth/login", url.Values{"username": {"ann"}, "password": {"nope"}}, true)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid username or password.")

	rec = h.do(t, http.MethodPost, "/auth/login", url.Values{"username": {"ann"}}, true)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Password is required")
}

func TestDashboardRendersSections(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	rec := h.do(t, http.MethodGet, "/", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Checking")
	assert.Contains(t, body, "$100.00")
	assert.Contains(t, body, "No budgets found")
	assert.Contains(t, body, "No transactions found")
	assert.Contains(t, body, `hx-trigger="transactions:refresh from:body"`)
	assert.True(t, h.backend.saw("GET /api/transactions/"))
}

func TestTransferRefreshesDependentRegions(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	rec := h.do(t, http.MethodPost, "/ui/transactions", url.Values{
		"type":         {"transfer"},
		"amount":       {"25"},
		"category":     {"between accounts"},
		"description":  {"Move to savings"},
		"date":         {"2024-05-01"},
		"account_from": {"a1"},
		"account_to":   {"a2"},
	}, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, h.backend.saw("POST /api/transactions/"))
	assert.Equal(t, "a1", h.backend.body()["account_from"])
	assert.Equal(t, "a2", h.backend.body()["account_to"])

	events := triggers(t, rec)
	for _, name := range []string{"transactions:refresh", "budgets:refresh", "accounts:refresh", EventFormReset, EventModalClose, EventNotification} {
		assert.Contains(t, events, name)
	}
	assert.Contains(t, string(events[EventNotification]), "Transaction created successfully")

	rec = h.do(t, http.MethodGet, "/ui/transactions", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Move to savings")
	assert.Contains(t, rec.Body.String(), "Checking")
	assert.Contains(t, rec.Body.String(), "Savings")
}

func TestSubmitValidationKeepsFormOpen(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	rec := h.do(t, http.MethodPost, "/ui/transactions", url.Values{
		"type":        {"expense"},
		"description": {"Lunch"},
	}, true)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Amount is required")
	assert.Contains(t, body, "Category is required")
	assert.Contains(t, body, "From account is required")
	assert.NotContains(t, triggers(t, rec), EventModalClose)
	assert.False(t, h.backend.saw("POST /api/transactions/"))
}

func TestSecondSubmitWhileFirstRunsIsRejected(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.backend.block = make(chan struct{})
	h.backend.entered = make(chan struct{}, 1)

	form := url.Values{
		"type":         {"expense"},
		"amount":       {"9.99"},
		"category":     {"food"},
		"description":  {"Pizza"},
		"account_from": {"a1"},
	}

	done := make(chan int)
	cookie := h.cookie
	go func() {
		done <- h.send(http.MethodPost, "/ui/transactions", form, true, cookie).Code
	}()
	<-h.backend.entered

	rec := h.do(t, http.MethodPost, "/ui/transactions", form, true)
	assert.Equal(t, http.StatusConflict, rec.Code)

	close(h.backend.block)
	assert.Equal(t, http.StatusOK, <-done)
}

func TestEditThenSubmitUpdates(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	rec := h.do(t, http.MethodGet, "/ui/accounts/a1/edit", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `value="Checking"`)
	assert.Contains(t, rec.Body.String(), "Edit Account")

	rec = h.do(t, http.MethodPost, "/ui/accounts", url.Values{
		"name": {"Everyday"}, "type": {"bank"}, "balance": {"100"},
	}, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, h.backend.saw("PUT /api/accounts/a1"))
	assert.Contains(t, triggers(t, rec), "transactions:refresh")

	// The edit ended with the save, so the next submit creates.
	rec = h.do(t, http.MethodPost, "/ui/accounts", url.Values{"name": {"Cash"}, "type": {"cash"}}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, h.backend.saw("POST /api/accounts/"))
}

func TestSlowSubmitKeepsEditOpenedMeanwhile(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.backend.block = make(chan struct{})
	h.backend.entered = make(chan struct{}, 1)

	done := make(chan int)
	cookie := h.cookie
	go func() {
		done <- h.send(http.MethodPost, "/ui/transactions", url.Values{
			"type":         {"expense"},
			"amount":       {"9.99"},
			"category":     {"food"},
			"account_from": {"a1"},
		}, true, cookie).Code
	}()
	<-h.backend.entered

	rec := h.do(t, http.MethodGet, "/ui/accounts/a1/edit", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)

	close(h.backend.block)
	require.Equal(t, http.StatusOK, <-done)

	rec = h.do(t, http.MethodPost, "/ui/accounts", url.Values{
		"name": {"Everyday"}, "type": {"bank"}, "balance": {"100"},
	}, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, h.backend.saw("PUT /api/accounts/a1"))
	assert.False(t, h.backend.saw("POST /api/accounts/"))
}

func TestOpeningEmptyFormAbandonsEdit(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	h.do(t, http.MethodGet, "/ui/accounts/a1/edit", nil, true)
	rec := h.do(t, http.MethodGet, "/ui/accounts/form", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Add Account")

	h.do(t, http.MethodPost, "/ui/accounts", url.Values{"name": {"Cash"}, "type": {"cash"}}, true)
	assert.True(t, h.backend.saw("POST /api/accounts/"))
	assert.False(t, h.backend.saw("PUT /api/accounts/a1"))
}

func TestDeleteTransaction(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	rec := h.do(t, http.MethodDelete, "/ui/transactions/t9", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, h.backend.saw("DELETE /api/transactions/t9"))
	events := triggers(t, rec)
	assert.Contains(t, events, "budgets:refresh")
	assert.Contains(t, string(events[EventNotification]), "Transaction deleted successfully")
}

func TestExpiredBackendSessionRedirectsToLogin(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.backend.createStatus = http.StatusUnauthorized

	rec := h.do(t, http.MethodPost, "/ui/transactions", url.Values{
		"type": {"income"}, "amount": {"10"}, "category": {"salary"},
		"description": {"Pay"}, "account_to": {"a1"},
	}, true)
	assert.Equal(t, session.LoginPath, rec.Header().Get("HX-Redirect"))
}

func TestTransactionFieldsFollowType(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	rec := h.do(t, http.MethodGet, "/ui/transactions/fields?type=income", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `name="account_to"`)
	assert.NotContains(t, body, `name="account_from"`)
	assert.Contains(t, body, "salary")
}

func TestChartRejectsUnknownName(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	rec := h.do(t, http.MethodGet, "/ui/charts/pie-in-the-sky", nil, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDismissClosesModal(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	rec := h.do(t, http.MethodPost, "/ui/budgets/modal/dismiss", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	events := triggers(t, rec)
	assert.Contains(t, events, EventModalClose)
	assert.Contains(t, events, EventFormReset)
}

func TestLogoutEndsSession(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	rec := h.do(t, http.MethodPost, "/auth/logout", nil, true)
	assert.Equal(t, session.LoginPath, rec.Header().Get("HX-Redirect"))
	assert.True(t, h.backend.saw("POST /auth/logout"))
	require.NotNil(t, h.cookie)
	assert.Less(t, h.cookie.MaxAge, 0)
}
