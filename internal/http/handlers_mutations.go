package http

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"fintrack/internal/api"
	"fintrack/internal/forms"
	"fintrack/internal/log"
	"fintrack/internal/session"
)

// handleSubmit creates or updates a record from the resource form. Whether
// it creates or updates is decided by the visitor's edit session, not by
// the form body.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	resource := mux.Vars(r)["resource"]
	kit := kits[resource]
	sess := sessionOf(r)

	form, errResp := ReadForm(w, r)
	if errResp != nil {
		errResp.Write(w)
		return
	}

	edit := sess.EditSession(resource)
	m, err := s.forms.Submit(r.Context(), sess.ID, kit.read(form), edit, kit.saver(s.backendFor(sess)))
	if err != nil {
		s.mutationFailed(w, r, sess, err)
		return
	}

	sess.SetEditSession(edit.Cleared())
	s.mutationSucceeded(w, m, kit.singular+" "+m.Action+" successfully")
}

// handleDelete removes a record. Deleting the record being edited also ends
// the edit.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	resource, id := vars["resource"], vars["id"]
	kit := kits[resource]
	sess := sessionOf(r)

	m, err := s.forms.Remove(r.Context(), sess.ID, resource, id, kit.remover(s.backendFor(sess)))
	if err != nil {
		s.mutationFailed(w, r, sess, err)
		return
	}

	if edit := sess.EditSession(resource); edit.ID == id {
		sess.SetEditSession(edit.Cleared())
	}
	s.mutationSucceeded(w, m, kit.singular+" deleted successfully")
}

// mutationSucceeded tells every affected region to refetch and closes the
// form.
func (s *Server) mutationSucceeded(w http.ResponseWriter, m forms.Mutation, fallback string) {
	msg := m.Message
	if msg == "" {
		msg = fallback
	}
	NewHTMXResponse().
		TriggerRefresh(m.Resource).
		TriggerFormReset().
		TriggerModalClose().
		TriggerSuccessNotification(msg).
		Write(w)
}

// mutationFailed keeps the form open and explains what went wrong.
func (s *Server) mutationFailed(w http.ResponseWriter, r *http.Request, sess *session.Session, err error) {
	ctx := r.Context()
	logger := log.FromContext(ctx)

	var verr *forms.ValidationError
	switch {
	case errors.As(err, &verr):
		s.formErrors(w, r, http.StatusUnprocessableEntity, problemMessages(err), "Please correct the highlighted fields.")
	case errors.Is(err, forms.ErrSubmitInFlight):
		msg := "Your previous submission is still being saved."
		ErrorResponse(http.StatusConflict, msg).TriggerErrorNotification(msg).Write(w)
	case api.IsUnauthorized(err):
		sess.LogOut()
		redirect(w, r, session.LoginPath)
	case api.KindOf(err) == api.KindValidation:
		s.formErrors(w, r, http.StatusUnprocessableEntity, problemMessages(err), userMessage(err))
	default:
		logger.ErrorContext(ctx, "Mutation failed",
			log.FieldPath, r.URL.Path,
			log.FieldError, err,
			log.FieldErrorKind, string(api.KindOf(err)))
		msg := userMessage(err)
		ErrorResponse(statusFor(err), msg).TriggerErrorNotification(msg).Write(w)
	}
}

// formErrors swaps the form's error list in place.
func (s *Server) formErrors(w http.ResponseWriter, r *http.Request, status int, messages []string, notice string) {
	body, err := s.fragmentHTML("form-errors", FormErrorsView{Messages: messages})
	if err != nil {
		s.renderFailed(w, r, "form-errors", err)
		return
	}
	NewHTMXResponse().
		Status(status).
		BodyHTML(body).
		TriggerErrorNotification(notice).
		Write(w)
}
