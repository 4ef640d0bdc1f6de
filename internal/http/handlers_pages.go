package http

import (
	"net/http"
	"net/url"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/render"
	"fintrack/internal/session"
)

// pageSpec declares a page and the sections it lists at load time.
type pageSpec struct {
	name     string
	title    string
	sections []string
	query    url.Values
}

var pages = map[string]pageSpec{
	"/": {
		name:     "dashboard",
		title:    "Dashboard",
		sections: []string{sectionAccounts, sectionTransactions, sectionBudgets, sectionBudgetStats},
		query:    url.Values{"limit": {"5"}},
	},
	"/transactions": {
		name:     "transactions",
		title:    "Transactions",
		sections: []string{sectionTransactions, sectionAccounts, sectionCategories},
	},
	"/accounts": {
		name:     "accounts",
		title:    "Accounts",
		sections: []string{sectionAccounts},
	},
	"/budgets": {
		name:     "budgets",
		title:    "Budgets",
		sections: []string{sectionBudgets, sectionBudgetStats, sectionCategories, sectionTip},
	},
	"/charts": {name: "charts", title: "Charts"},
	"/game":   {name: "game", title: "Financial Game"},
}

// ChartSlot is a lazily loaded chart panel on the charts page.
type ChartSlot struct {
	Name  string
	Title string
}

// PageData is handed to every page template.
type PageData struct {
	Title    string
	Page     string
	User     *core.User
	Sections map[string]*Section
	Query    url.Values

	TransactionTypes []core.TransactionType
	Periods          []core.Period
	Timeframes       []core.Timeframe
	Timeframe        core.Timeframe
	Charts           []ChartSlot
	Quiz             []render.QuestionView

	Form *AuthForm
}

func newPageData(sess *session.Session, p pageSpec) PageData {
	return PageData{
		Title:            p.title,
		Page:             p.name,
		User:             sess.User,
		Sections:         map[string]*Section{},
		Query:            url.Values{},
		TransactionTypes: core.TransactionTypes,
		Periods:          core.Periods,
		Timeframes:       core.Timeframes,
		Timeframe:        core.DefaultTimeframe,
	}
}

func (s *Server) handlePage(p pageSpec) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := sessionOf(r)

		q := r.URL.Query()
		for k, v := range p.query {
			if q.Get(k) == "" {
				q[k] = v
			}
		}

		data := newPageData(sess, p)
		data.Query = q
		if len(p.sections) > 0 {
			data.Sections = s.loadSections(r.Context(), s.backendFor(sess), q, p.sections...)
			if unauthorized(data.Sections) {
				sess.LogOut()
				redirect(w, r, session.LoginPath)
				return
			}
		}

		if sec, ok := data.Sections[sectionCategories]; ok {
			if cv, ok := sec.Data.(CategoriesView); ok && !cv.Fallback {
				sess.MirrorTaxonomy(cv.Taxonomy)
			}
		}

		switch p.name {
		case "charts":
			for _, c := range core.Charts {
				data.Charts = append(data.Charts, ChartSlot{Name: string(c), Title: render.ChartTitle(c)})
			}
		case "game":
			data.Quiz = render.Quiz(core.FinanceQuiz)
		}

		s.renderPage(w, r, p.name, data)
	}
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, page string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.views.Page(w, page, data); err != nil {
		s.renderFailed(w, r, page, err)
	}
}

func (s *Server) renderFragment(w http.ResponseWriter, r *http.Request, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.views.Fragment(w, name, data); err != nil {
		s.renderFailed(w, r, name, err)
	}
}

func (s *Server) renderFailed(w http.ResponseWriter, r *http.Request, name string, err error) {
	log.FromContext(r.Context()).WithComponent(log.ComponentTemplate).ErrorContext(r.Context(), "Template execution failed",
		log.FieldPage, name,
		log.FieldOperation, log.OpRender,
		log.FieldError, err)
	http.Error(w, "failed to render page", http.StatusInternalServerError)
}
