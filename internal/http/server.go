// Package http serves the fintrack front end: full pages whose sections load
// concurrently, htmx partials that re-list one resource, and form endpoints
// that forward mutations to the REST backend and tell the browser which
// regions to refresh.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"fintrack/internal/api"
	"fintrack/internal/forms"
	"fintrack/internal/log"
	"fintrack/internal/metrics"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/render"
	"fintrack/internal/session"
)

// Deps are the collaborators a Server needs. Metrics, Limiter and Static
// are optional.
type Deps struct {
	Backend  *api.Client
	Sessions *session.Manager
	Guard    *session.Guard
	Forms    *forms.Controller
	Views    *render.Renderer
	Static   fs.FS
	Metrics  *metrics.Collector
	Limiter  *ratelimit.Limiter
	ClientIP func(*http.Request) string
	Logger   *log.Logger
}

type Server struct {
	http.Server
	backend  *api.Client
	sessions *session.Manager
	guard    *session.Guard
	forms    *forms.Controller
	views    *render.Renderer
	metrics  *metrics.Collector
	limiter  *ratelimit.Limiter
	logger   *log.Logger
	started  time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, d Deps) *Server {
	router := mux.NewRouter()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		backend:  d.Backend,
		sessions: d.Sessions,
		guard:    d.Guard,
		forms:    d.Forms,
		views:    d.Views,
		metrics:  d.Metrics,
		limiter:  d.Limiter,
		logger:   d.Logger.WithComponent(log.ComponentHTTP),
		started:  time.Now(),
	}

	clientIP := d.ClientIP
	if clientIP == nil {
		clientIP = func(r *http.Request) string { return r.RemoteAddr }
	}
	s.routes(router, d.Static, clientIP)
	return s
}

func (s *Server) routes(r *mux.Router, static fs.FS, clientIP func(*http.Request) string) {
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
	}
	r.Use(trace.NewMiddleware(s.logger, clientIP).Middleware)
	r.Use(security.Headers(security.DefaultHeadersConfig()))

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}
	if static != nil {
		files := http.StripPrefix("/static/", http.FileServer(http.FS(static)))
		r.PathPrefix("/static/").Handler(security.StaticAssetMiddleware(3600)(files))
	}

	app := r.NewRoute().Subrouter()
	if s.limiter != nil {
		app.Use(s.limiter.Middleware(clientIP, s.handleRateLimited))
	}
	app.Use(s.withSession)

	for path, page := range pages {
		app.HandleFunc(path, s.handlePage(page)).Methods(http.MethodGet)
	}
	app.HandleFunc("/game/quiz", s.handleQuiz).Methods(http.MethodPost)

	app.HandleFunc(session.LoginPath, s.handleLoginPage).Methods(http.MethodGet)
	app.HandleFunc(session.LoginPath, s.handleLogin).Methods(http.MethodPost)
	app.HandleFunc(session.RegisterPath, s.handleRegisterPage).Methods(http.MethodGet)
	app.HandleFunc(session.RegisterPath, s.handleRegister).Methods(http.MethodPost)
	app.HandleFunc("/auth/logout", s.handleLogout).Methods(http.MethodPost)
	app.HandleFunc("/auth/refresh", s.handleRefresh).Methods(http.MethodPost)

	const res = "{resource:accounts|transactions|budgets}"
	ui := app.PathPrefix("/ui").Subrouter()
	ui.HandleFunc("/budgets/stats", s.handleBudgetStats).Methods(http.MethodGet)
	ui.HandleFunc("/budgets/tip", s.handleBudgetTip).Methods(http.MethodGet)
	ui.HandleFunc("/transactions/fields", s.handleTransactionFields).Methods(http.MethodGet)
	ui.HandleFunc("/charts/{chart}", s.handleChart).Methods(http.MethodGet)
	ui.HandleFunc("/"+res, s.handleList).Methods(http.MethodGet)
	ui.HandleFunc("/"+res, s.handleSubmit).Methods(http.MethodPost)
	ui.HandleFunc("/"+res+"/form", s.handleForm).Methods(http.MethodGet)
	ui.HandleFunc("/"+res+"/modal/dismiss", s.handleDismiss).Methods(http.MethodPost)
	ui.HandleFunc("/"+res+"/{id}/edit", s.handleEdit).Methods(http.MethodGet)
	ui.HandleFunc("/"+res+"/{id}", s.handleDelete).Methods(http.MethodDelete)
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.limiter != nil {
			s.limiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// backendFor returns the REST client acting as the visitor in sess.
func (s *Server) backendFor(sess *session.Session) *api.Client {
	return s.backend.WithCookies(sess.BackendCookies())
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	if s.metrics != nil {
		s.metrics.RateLimited()
	}
	s.logger.WarnContext(r.Context(), "Rate limit exceeded", log.FieldPath, r.URL.Path, log.FieldMethod, r.Method)
	msg := "Too many requests. Please wait a minute and try again."
	ErrorResponse(http.StatusTooManyRequests, msg).TriggerErrorNotification(msg).Write(w)
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady reports whether templates are loaded, the session store
// answers, and the REST backend is reachable. Any HTTP answer from the
// backend counts as reachable.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]string)
	fail := func(name string, err error) {
		checks[name] = "failed: " + err.Error()
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	}

	if s.views == nil {
		fail("templates", errors.New("templates not loaded"))
	} else {
		checks["templates"] = "ok"
	}

	if err := s.sessions.Store().Ping(ctx); err != nil {
		fail("session_store", err)
	} else {
		checks["session_store"] = "ok"
	}

	if _, err := s.backend.CheckSession(ctx); api.KindOf(err) == api.KindNetwork {
		fail("backend", err)
	} else {
		checks["backend"] = "ok"
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
