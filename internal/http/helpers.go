package http

import (
	"errors"
	"net/http"
	"strings"

	"fintrack/internal/api"
)

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// isHTMX reports whether r was issued by htmx rather than a full navigation.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// redirect navigates the browser to url: an HX-Redirect for htmx requests,
// a 303 otherwise.
func redirect(w http.ResponseWriter, r *http.Request, url string) {
	if isHTMX(r) {
		NewHTMXResponse().Redirect(url).Write(w)
		return
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// userMessage is the text shown to the visitor for a failed backend call.
func userMessage(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Kind {
		case api.KindNetwork:
			return "The server could not be reached. Please try again."
		case api.KindServer:
			return "The server had a problem handling the request."
		}
		if apiErr.Message != "" {
			return apiErr.Message
		}
	}
	return "Something went wrong."
}

// statusFor maps a backend failure onto the status returned to the browser.
func statusFor(err error) int {
	switch api.KindOf(err) {
	case api.KindNotFound:
		return http.StatusNotFound
	case api.KindValidation:
		return http.StatusUnprocessableEntity
	case api.KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusBadGateway
	}
}
