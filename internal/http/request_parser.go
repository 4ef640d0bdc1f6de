package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"fintrack/internal/core"
)

// maxFormBytes bounds every form or JSON body read by the front end.
const maxFormBytes = 64 << 10

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data, commonly used with HTMX.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser reads the body of r once, up to maxFormBytes.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxFormBytes))
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if strings.HasPrefix(p.contentType, "application/json") || p.body[0] == '{' {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Values returns the parsed body as sanitised form values, whatever the
// original encoding was.
func (p *RequestBodyParser) Values() url.Values {
	out := url.Values{}
	for key, val := range p.jsonData {
		out.Set(key, sanitizeInput(stringValue(val)))
	}
	for key, vals := range p.formData {
		for _, v := range vals {
			out.Add(key, sanitizeInput(v))
		}
	}
	return out
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// ReadForm parses the request body and returns an error response on failure.
func ReadForm(w http.ResponseWriter, r *http.Request) (url.Values, *HTMXResponseBuilder) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		return nil, BadRequestError("Invalid request format")
	}
	return p.Values(), nil
}

// transactionFilters are the list filters passed through to the backend.
var transactionFilters = []string{"type", "category", "start_date", "end_date", "limit", "skip"}

// ParseTransactionQuery keeps the recognised, well-formed filters from q.
// Malformed values are dropped rather than forwarded.
func ParseTransactionQuery(q url.Values) url.Values {
	out := url.Values{}
	for _, key := range transactionFilters {
		v := sanitizeInput(q.Get(key))
		if v == "" {
			continue
		}
		switch key {
		case "type":
			if _, err := core.ParseTransactionType(v); err != nil {
				continue
			}
		case "start_date", "end_date":
			if _, err := core.ParseDate(v); err != nil {
				continue
			}
		case "limit", "skip":
			if n, err := strconv.Atoi(v); err != nil || n < 0 {
				continue
			}
		}
		out.Set(key, v)
	}
	return out
}

// BudgetFilter narrows the budget list by category and period.
type BudgetFilter struct {
	Category string
	Period   core.Period
}

// ParseBudgetFilter reads category and period from q; an unknown period is
// ignored.
func ParseBudgetFilter(q url.Values) BudgetFilter {
	f := BudgetFilter{Category: sanitizeInput(q.Get("category"))}
	if p, err := core.ParsePeriod(sanitizeInput(q.Get("period"))); err == nil {
		f.Period = p
	}
	return f
}

// ParseQuizAnswers reads q0..qN-1; an unanswered question counts as wrong.
func ParseQuizAnswers(form url.Values, n int) []int {
	answers := make([]int, n)
	for i := range answers {
		answers[i] = -1
		if v, err := strconv.Atoi(form.Get(fmt.Sprintf("q%d", i))); err == nil {
			answers[i] = v
		}
	}
	return answers
}
