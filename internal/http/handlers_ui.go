package http

import (
	"bytes"
	"net/http"

	"github.com/gorilla/mux"

	"fintrack/internal/api"
	"fintrack/internal/core"
	"fintrack/internal/forms"
	"fintrack/internal/log"
	"fintrack/internal/render"
	"fintrack/internal/session"
)

// ChartPanel is the data behind one rendered chart.
type ChartPanel struct {
	Chart render.ChartView
	Error string
}

// handleList re-lists one resource for its region.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	resource := mux.Vars(r)["resource"]
	s.serveSection(w, r, resource, resource+"-list")
}

func (s *Server) handleBudgetStats(w http.ResponseWriter, r *http.Request) {
	s.serveSection(w, r, sectionBudgetStats, "budget-stats")
}

func (s *Server) handleBudgetTip(w http.ResponseWriter, r *http.Request) {
	s.serveSection(w, r, sectionTip, "budget-tip")
}

// serveSection loads one section and renders it as fragment. A failed load
// still renders the fragment, which shows the error in place of the data.
func (s *Server) serveSection(w http.ResponseWriter, r *http.Request, name, fragment string) {
	sess := sessionOf(r)
	sec := s.loadSection(r.Context(), s.backendFor(sess), r.URL.Query(), name)
	if api.IsUnauthorized(sec.err) {
		sess.LogOut()
		redirect(w, r, session.LoginPath)
		return
	}
	s.renderFragment(w, r, fragment, sec)
}

// handleForm opens an empty form. Opening it always abandons any edit in
// progress for the resource.
func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	resource := mux.Vars(r)["resource"]
	sess := sessionOf(r)
	sess.SetEditSession(sess.EditSession(resource).Cleared())

	view, err := s.buildForm(r.Context(), s.backendFor(sess), sess, resource, nil, false)
	if err != nil {
		s.backendFailed(w, r, sess, err)
		return
	}
	s.renderFragment(w, r, formFragment(resource), view)
}

// handleEdit fetches the record, remembers it as being edited and opens the
// form prefilled with it.
func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	resource, id := vars["resource"], vars["id"]
	sess := sessionOf(r)
	b := s.backendFor(sess)

	draft, err := kits[resource].load(r.Context(), b, id)
	if err != nil {
		s.backendFailed(w, r, sess, err)
		return
	}
	view, err := s.buildForm(r.Context(), b, sess, resource, draft, true)
	if err != nil {
		s.backendFailed(w, r, sess, err)
		return
	}
	sess.SetEditSession(forms.NewEditSession(resource, id))
	log.FromContext(r.Context()).DebugContext(r.Context(), "Editing record",
		log.FieldResource, resource,
		log.FieldResourceID, id)
	s.renderFragment(w, r, formFragment(resource), view)
}

// handleDismiss closes the modal without saving.
func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request) {
	resource := mux.Vars(r)["resource"]
	sess := sessionOf(r)
	sess.SetEditSession(sess.EditSession(resource).Cleared())
	NewHTMXResponse().TriggerModalClose().TriggerFormReset().Write(w)
}

// handleTransactionFields swaps the type-dependent part of the transaction
// form when the type select changes.
func (s *Server) handleTransactionFields(w http.ResponseWriter, r *http.Request) {
	sess := sessionOf(r)
	b := s.backendFor(sess)
	draft := forms.ReadTransaction(r.URL.Query())

	view, err := s.buildForm(r.Context(), b, sess, api.ResourceTransactions, draft, false)
	if err != nil {
		s.backendFailed(w, r, sess, err)
		return
	}
	s.renderFragment(w, r, "transaction-type-fields", view)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	chart := core.Chart(mux.Vars(r)["chart"])
	if !chart.IsValid() {
		BadRequestError("Unknown chart").Write(w)
		return
	}
	tf, err := core.ParseTimeframe(r.URL.Query().Get("timeframe"))
	if err != nil {
		BadRequestError("Unknown timeframe").Write(w)
		return
	}

	sess := sessionOf(r)
	series, err := s.backendFor(sess).Chart(r.Context(), chart, tf)
	if api.IsUnauthorized(err) {
		sess.LogOut()
		redirect(w, r, session.LoginPath)
		return
	}
	panel := ChartPanel{Chart: render.Chart(chart, tf, series)}
	if err != nil {
		panel.Error = userMessage(err)
		log.FromContext(r.Context()).WarnContext(r.Context(), "Chart failed to load",
			log.FieldResource, string(chart),
			log.FieldError, err)
	}
	s.renderFragment(w, r, "chart-panel", panel)
}

func (s *Server) handleQuiz(w http.ResponseWriter, r *http.Request) {
	form, errResp := ReadForm(w, r)
	if errResp != nil {
		errResp.Write(w)
		return
	}
	result, err := core.ScoreQuiz(core.FinanceQuiz, ParseQuizAnswers(form, len(core.FinanceQuiz)))
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	s.renderFragment(w, r, "quiz-result", result)
}

// backendFailed answers a failed read made on behalf of a fragment.
func (s *Server) backendFailed(w http.ResponseWriter, r *http.Request, sess *session.Session, err error) {
	if api.IsUnauthorized(err) {
		sess.LogOut()
		redirect(w, r, session.LoginPath)
		return
	}
	log.FromContext(r.Context()).WarnContext(r.Context(), "Backend read failed",
		log.FieldPath, r.URL.Path,
		log.FieldError, err,
		log.FieldErrorKind, string(api.KindOf(err)))
	msg := userMessage(err)
	ErrorResponse(statusFor(err), msg).TriggerErrorNotification(msg).Write(w)
}

// formFragment names the form template of resource, e.g. "account-form".
func formFragment(resource string) string {
	return resource[:len(resource)-1] + "-form"
}

// fragmentHTML renders a fragment into memory so it can be sent with
// custom headers and status.
func (s *Server) fragmentHTML(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.views.Fragment(&buf, name, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *Server) pageHTML(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.views.Page(&buf, name, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
