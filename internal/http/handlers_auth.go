package http

import (
	"net/http"

	"fintrack/internal/api"
	"fintrack/internal/forms"
	"fintrack/internal/log"
	"fintrack/internal/session"
)

// AuthForm refills the login or registration form after a failed attempt.
// Passwords are never echoed back.
type AuthForm struct {
	Username string
	Email    string
	Errors   []string
}

// Messages lets the form-errors fragment render an AuthForm directly.
func (f *AuthForm) Messages() []string {
	return f.Errors
}

var (
	loginPage    = pageSpec{name: "login", title: "Log in"}
	registerPage = pageSpec{name: "register", title: "Create account"}
)

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	data := newPageData(sessionOf(r), loginPage)
	data.Form = &AuthForm{}
	s.renderPage(w, r, loginPage.name, data)
}

func (s *Server) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	data := newPageData(sessionOf(r), registerPage)
	data.Form = &AuthForm{}
	s.renderPage(w, r, registerPage.name, data)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	values, errResp := ReadForm(w, r)
	if errResp != nil {
		errResp.Write(w)
		return
	}
	sess := sessionOf(r)
	draft := forms.ReadLogin(values)
	form := &AuthForm{Username: draft.Username}

	if err := draft.Validate(); err != nil {
		form.Errors = problemMessages(err)
		s.authFailed(w, r, loginPage, http.StatusUnprocessableEntity, form)
		return
	}
	if err := s.guard.Login(r.Context(), sess, draft.Credentials()); err != nil {
		status := http.StatusUnauthorized
		form.Errors = []string{"Invalid username or password."}
		if !api.IsUnauthorized(err) && api.KindOf(err) != api.KindValidation {
			status = statusFor(err)
			form.Errors = []string{userMessage(err)}
		}
		s.authFailed(w, r, loginPage, status, form)
		return
	}
	redirect(w, r, session.HomePath)
}

// handleRegister checks the passwords match before anything is sent, then
// creates the account and logs straight in.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	values, errResp := ReadForm(w, r)
	if errResp != nil {
		errResp.Write(w)
		return
	}
	sess := sessionOf(r)
	draft := forms.ReadRegistration(values)
	form := &AuthForm{Username: draft.Username, Email: draft.Email}

	if err := draft.Validate(); err != nil {
		form.Errors = problemMessages(err)
		s.authFailed(w, r, registerPage, http.StatusUnprocessableEntity, form)
		return
	}
	if err := s.guard.Register(r.Context(), sess, draft.Registration()); err != nil {
		form.Errors = problemMessages(err)
		s.authFailed(w, r, registerPage, statusFor(err), form)
		return
	}
	redirect(w, r, session.HomePath)
}

// authFailed shows the errors above the form: the form-errors fragment for
// htmx, the whole page again otherwise.
func (s *Server) authFailed(w http.ResponseWriter, r *http.Request, page pageSpec, status int, form *AuthForm) {
	if isHTMX(r) {
		s.formErrors(w, r, status, form.Errors, form.Errors[0])
		return
	}
	data := newPageData(sessionOf(r), page)
	data.Form = form
	body, err := s.pageHTML(page.name, data)
	if err != nil {
		s.renderFailed(w, r, page.name, err)
		return
	}
	NewHTMXResponse().Status(status).BodyHTML(body).Write(w)
}

// handleLogout ends the visitor session whatever the backend says.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := sessionOf(r)
	s.guard.Logout(r.Context(), sess)
	s.endSession(w, r, sess)
	redirect(w, r, session.LoginPath)
}

// handleRefresh renews the backend session. A refused refresh logs the
// visitor out.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	sess := sessionOf(r)
	if err := s.guard.Refresh(r.Context(), sess); err != nil {
		log.FromContext(r.Context()).InfoContext(r.Context(), "Session refresh refused",
			log.FieldSessionID, sess.ID,
			log.FieldError, err)
		s.endSession(w, r, sess)
		redirect(w, r, session.LoginPath)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
