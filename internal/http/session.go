package http

import (
	"context"
	"net/http"

	"fintrack/internal/log"
	"fintrack/internal/session"
)

// sessionWriter persists this request's session changes just before the first byte of
// the response goes out, so the session cookie can still be set.
type sessionWriter struct {
	http.ResponseWriter
	save      func()
	committed bool
	discard   bool
}

func (w *sessionWriter) commit() {
	if w.committed {
		return
	}
	w.committed = true
	if !w.discard {
		w.save()
	}
}

func (w *sessionWriter) WriteHeader(code int) {
	w.commit()
	w.ResponseWriter.WriteHeader(code)
}

func (w *sessionWriter) Write(b []byte) (int, error) {
	w.commit()
	return w.ResponseWriter.Write(b)
}

type writerKey struct{}

// withSession loads the visitor session, runs the guard on page loads, and
// saves the session once the handler starts responding.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := log.FromContext(ctx).WithComponent(log.ComponentSession)

		sess, err := s.sessions.Load(r)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to load session, starting a new one", log.FieldError, err)
			sess = session.New()
		}

		sw := &sessionWriter{ResponseWriter: w}
		sw.save = func() {
			if err := s.sessions.Save(ctx, w, sess); err != nil {
				logger.ErrorContext(ctx, "Failed to save session", log.FieldSessionID, sess.ID, log.FieldError, err)
			}
		}
		defer sw.commit()

		ctx = session.WithSession(ctx, sess)
		ctx = context.WithValue(ctx, writerKey{}, sw)

		if r.Method == http.MethodGet && (session.IsProtected(r.URL.Path) || session.IsAuthPage(r.URL.Path)) {
			d := s.guard.Evaluate(ctx, sess, r.URL.Path)
			if d.Redirect != "" {
				redirect(sw, r, d.Redirect)
				return
			}
		}

		next.ServeHTTP(sw, r.WithContext(ctx))
	})
}

// sessionOf returns the session withSession attached to r.
func sessionOf(r *http.Request) *session.Session {
	if sess, ok := session.FromContext(r.Context()); ok {
		return sess
	}
	return session.New()
}

// endSession deletes the visitor session and expires its cookie instead
// of saving it.
func (s *Server) endSession(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if sw, ok := r.Context().Value(writerKey{}).(*sessionWriter); ok {
		sw.discard = true
	}
	if err := s.sessions.Destroy(r.Context(), w, sess); err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Failed to delete session",
			log.FieldSessionID, sess.ID, log.FieldError, err)
	}
}
