package http

import (
	"context"
	"net/url"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/api"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/render"
)

// Section names. Each is an independently loaded region of a page.
const (
	sectionAccounts     = "accounts"
	sectionTransactions = "transactions"
	sectionBudgets      = "budgets"
	sectionBudgetStats  = "budget-stats"
	sectionCategories   = "categories"
	sectionTip          = "tip"
)

const (
	fallbackCategoriesWarning = "Using default categories. Some features may be limited."
	fallbackTip               = "Set realistic budgets based on your past spending patterns"
)

// Section is one region of a page. Exactly one of Data and Error is set
// once it has loaded.
type Section struct {
	Name  string
	Data  any
	Error string
	err   error
}

// CategoriesView carries the taxonomy and, when the backend could not
// supply one, a warning that the defaults are in use.
type CategoriesView struct {
	Taxonomy core.Taxonomy
	Warning  string
	Fallback bool
}

type loader func(ctx context.Context, b *api.Client, q url.Values) (any, error)

func (s *Server) loaders() map[string]loader {
	return map[string]loader{
		sectionAccounts:     s.loadAccounts,
		sectionTransactions: s.loadTransactions,
		sectionBudgets:      s.loadBudgets,
		sectionBudgetStats:  s.loadBudgetStats,
		sectionCategories:   s.loadCategories,
		sectionTip:          s.loadTip,
	}
}

// loadSections lists every named section concurrently. A failed section
// records its error and leaves the others alone.
func (s *Server) loadSections(ctx context.Context, b *api.Client, q url.Values, names ...string) map[string]*Section {
	loaders := s.loaders()
	sections := make(map[string]*Section, len(names))

	var g errgroup.Group
	for _, name := range names {
		sec := &Section{Name: name}
		sections[name] = sec
		load := loaders[name]
		g.Go(func() error {
			data, err := load(ctx, b, q)
			if err != nil {
				sec.err = err
				sec.Error = userMessage(err)
				log.FromContext(ctx).WithComponent(log.ComponentPage).WarnContext(ctx, "Section failed to load",
					log.FieldPage, name,
					log.FieldError, err,
					log.FieldErrorKind, string(api.KindOf(err)))
				return nil
			}
			sec.Data = data
			return nil
		})
	}
	_ = g.Wait()
	return sections
}

// loadSection loads one section on its own, as the /ui partials do.
func (s *Server) loadSection(ctx context.Context, b *api.Client, q url.Values, name string) *Section {
	return s.loadSections(ctx, b, q, name)[name]
}

// unauthorized reports whether any section was refused by the backend.
func unauthorized(sections map[string]*Section) bool {
	for _, sec := range sections {
		if api.IsUnauthorized(sec.err) {
			return true
		}
	}
	return false
}

func (s *Server) loadAccounts(ctx context.Context, b *api.Client, _ url.Values) (any, error) {
	accounts, err := b.Accounts().List(ctx, nil)
	if err != nil {
		return nil, err
	}
	return render.Accounts(accounts), nil
}

// loadTransactions lists transactions with the filters in q. Account names
// are fetched alongside; if that fails the rows show account ids.
func (s *Server) loadTransactions(ctx context.Context, b *api.Client, q url.Values) (any, error) {
	var (
		txs   []core.Transaction
		names map[string]string
	)
	var g errgroup.Group
	g.Go(func() error {
		var err error
		txs, err = b.Transactions().List(ctx, ParseTransactionQuery(q))
		return err
	})
	g.Go(func() error {
		if accounts, err := b.Accounts().List(ctx, nil); err == nil {
			names = render.AccountNames(accounts)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return render.Transactions(txs, names), nil
}

func (s *Server) loadBudgets(ctx context.Context, b *api.Client, q url.Values) (any, error) {
	budgets, err := b.Budgets().List(ctx, nil)
	if err != nil {
		return nil, err
	}
	f := ParseBudgetFilter(q)
	return render.Budgets(core.FilterBudgets(budgets, f.Category, f.Period)), nil
}

func (s *Server) loadBudgetStats(ctx context.Context, b *api.Client, _ url.Values) (any, error) {
	budgets, err := b.Budgets().List(ctx, nil)
	if err != nil {
		return nil, err
	}
	return render.BudgetStats(core.SummarizeBudgets(budgets)), nil
}

// loadCategories never fails: an unreachable or empty taxonomy falls back
// to the built-in categories with a warning.
func (s *Server) loadCategories(ctx context.Context, b *api.Client, _ url.Values) (any, error) {
	tax, err := b.Categories(ctx)
	if err != nil && api.IsUnauthorized(err) {
		return nil, err
	}
	if err != nil || tax.IsEmpty() {
		s.logger.WarnContext(ctx, "Falling back to default categories", log.FieldError, err)
		return CategoriesView{Taxonomy: core.DefaultTaxonomy(), Warning: fallbackCategoriesWarning, Fallback: true}, nil
	}
	return CategoriesView{Taxonomy: tax}, nil
}

func (s *Server) loadTip(ctx context.Context, b *api.Client, _ url.Values) (any, error) {
	tip, err := b.BudgetTip(ctx)
	if err != nil && api.IsUnauthorized(err) {
		return nil, err
	}
	if err != nil || tip.Tip == "" {
		return api.Tip{Tip: fallbackTip}, nil
	}
	return tip, nil
}
