package forms

import (
	"errors"
	"strings"
)

// ErrSubmitInFlight is returned when the same visitor submits a form for a
// resource while an earlier submission is still waiting on the backend.
var ErrSubmitInFlight = errors.New("submission already in progress")

// MissingField names a required field that was left empty.
type MissingField struct {
	Field string
	Label string
}

// FieldProblem is a field that is present but unusable.
type FieldProblem struct {
	Field   string
	Message string
}

// ValidationError lists every problem found in a draft, not just the first.
type ValidationError struct {
	Missing []MissingField
	Invalid []FieldProblem
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		names := make([]string, len(e.Missing))
		for i, m := range e.Missing {
			names[i] = m.Field
		}
		parts = append(parts, "missing required fields: "+strings.Join(names, ", "))
	}
	for _, p := range e.Invalid {
		parts = append(parts, p.Field+": "+p.Message)
	}
	return strings.Join(parts, "; ")
}

// MissingNames returns the missing field names in the order they were found.
func (e *ValidationError) MissingNames() []string {
	names := make([]string, len(e.Missing))
	for i, m := range e.Missing {
		names[i] = m.Field
	}
	return names
}

// Messages maps each offending field to a message suitable for display.
func (e *ValidationError) Messages() map[string]string {
	out := make(map[string]string, len(e.Missing)+len(e.Invalid))
	for _, m := range e.Missing {
		out[m.Field] = m.Label + " is required"
	}
	for _, p := range e.Invalid {
		if _, dup := out[p.Field]; !dup {
			out[p.Field] = p.Message
		}
	}
	return out
}

// checker accumulates problems while a draft is validated.
type checker struct {
	err ValidationError
}

func (c *checker) require(field, label, value string) bool {
	if strings.TrimSpace(value) == "" {
		c.err.Missing = append(c.err.Missing, MissingField{Field: field, Label: label})
		return false
	}
	return true
}

func (c *checker) invalid(field, message string) {
	c.err.Invalid = append(c.err.Invalid, FieldProblem{Field: field, Message: message})
}

func (c *checker) result() error {
	if len(c.err.Missing) == 0 && len(c.err.Invalid) == 0 {
		return nil
	}
	err := c.err
	return &err
}
