package http

import (
	"context"
	"errors"
	"net/url"
	"slices"
	"sort"

	"fintrack/internal/api"
	"fintrack/internal/core"
	"fintrack/internal/forms"
	"fintrack/internal/render"
	"fintrack/internal/session"
)

// resourceKit binds a resource name to its form and backend calls.
type resourceKit struct {
	singular string
	read     func(url.Values) forms.Draft
	saver    func(*api.Client) forms.Saver
	remover  func(*api.Client) forms.Remover
	load     func(ctx context.Context, b *api.Client, id string) (forms.Draft, error)
}

var kits = map[string]resourceKit{
	api.ResourceTransactions: {
		singular: "Transaction",
		read:     func(v url.Values) forms.Draft { return forms.ReadTransaction(v) },
		saver:    func(b *api.Client) forms.Saver { return forms.ResourceSaver(b.Transactions()) },
		remover:  func(b *api.Client) forms.Remover { return b.Transactions() },
		load: func(ctx context.Context, b *api.Client, id string) (forms.Draft, error) {
			t, err := b.Transactions().Get(ctx, id)
			if err != nil {
				return nil, err
			}
			return forms.TransactionDraftFrom(t), nil
		},
	},
	api.ResourceAccounts: {
		singular: "Account",
		read:     func(v url.Values) forms.Draft { return forms.ReadAccount(v) },
		saver:    func(b *api.Client) forms.Saver { return forms.ResourceSaver(b.Accounts()) },
		remover:  func(b *api.Client) forms.Remover { return b.Accounts() },
		load: func(ctx context.Context, b *api.Client, id string) (forms.Draft, error) {
			a, err := b.Accounts().Get(ctx, id)
			if err != nil {
				return nil, err
			}
			return forms.AccountDraftFrom(a), nil
		},
	},
	api.ResourceBudgets: {
		singular: "Budget",
		read:     func(v url.Values) forms.Draft { return forms.ReadBudget(v) },
		saver:    func(b *api.Client) forms.Saver { return forms.ResourceSaver(b.Budgets()) },
		remover:  func(b *api.Client) forms.Remover { return b.Budgets() },
		load: func(ctx context.Context, b *api.Client, id string) (forms.Draft, error) {
			bud, err := b.Budgets().Get(ctx, id)
			if err != nil {
				return nil, err
			}
			return forms.BudgetDraftFrom(bud), nil
		},
	},
}

// FormView is the data behind the add/edit form of any resource. Only the
// fields relevant to Resource are filled.
type FormView struct {
	Resource string
	Singular string
	Editing  bool
	Draft    forms.Draft
	Errors   []string
	Warning  string

	View             forms.ViewState
	Accounts         []render.AccountView
	Categories       []string
	TransactionTypes []core.TransactionType

	AccountTypes []core.AccountType
	Periods      []core.Period
}

// Transaction, Account and Budget give templates typed access to Draft.
func (f FormView) Transaction() forms.TransactionDraft {
	d, _ := f.Draft.(forms.TransactionDraft)
	return d
}

func (f FormView) Account() forms.AccountDraft {
	d, _ := f.Draft.(forms.AccountDraft)
	return d
}

func (f FormView) Budget() forms.BudgetDraft {
	d, _ := f.Draft.(forms.BudgetDraft)
	return d
}

// FormErrorsView lists problems above a form.
type FormErrorsView struct {
	Messages []string
}

// buildForm gathers what the resource form needs besides the draft: account
// choices and categories for transactions, categories for budgets.
func (s *Server) buildForm(ctx context.Context, b *api.Client, sess *session.Session, resource string, draft forms.Draft, editing bool) (FormView, error) {
	kit := kits[resource]
	if draft == nil {
		draft = kit.read(url.Values{})
	}
	v := FormView{
		Resource: resource,
		Singular: kit.singular,
		Editing:  editing,
		Draft:    draft,
	}

	switch d := draft.(type) {
	case forms.TransactionDraft:
		accounts, err := b.Accounts().List(ctx, nil)
		if err != nil {
			return v, err
		}
		cats := s.taxonomy(ctx, b, sess)
		v.View = d.View()
		v.Accounts = render.Accounts(accounts)
		v.TransactionTypes = core.TransactionTypes
		v.Warning = cats.Warning
		if t, err := core.ParseTransactionType(d.Type); err == nil {
			v.Categories = keepCategory(cats.Taxonomy, t, d.Category)
		}
	case forms.AccountDraft:
		v.AccountTypes = core.AccountTypes
	case forms.BudgetDraft:
		cats := s.taxonomy(ctx, b, sess)
		v.Categories = keepCategory(cats.Taxonomy, core.Expense, d.Category)
		v.Warning = cats.Warning
		v.Periods = core.Periods
	}
	return v, nil
}

// keepCategory lists the categories for tt, adding current when a stored
// record uses one the backend no longer offers.
func keepCategory(tax core.Taxonomy, tt core.TransactionType, current string) []string {
	cats := tax.For(tt)
	if current == "" || tax.Contains(tt, current) {
		return cats
	}
	return append(slices.Clone(cats), current)
}

// taxonomy returns the session's mirrored categories, loading them on
// first use.
func (s *Server) taxonomy(ctx context.Context, b *api.Client, sess *session.Session) CategoriesView {
	if t, ok := sess.CachedTaxonomy(); ok {
		return CategoriesView{Taxonomy: t}
	}
	data, err := s.loadCategories(ctx, b, nil)
	if err != nil {
		return CategoriesView{Taxonomy: core.DefaultTaxonomy(), Warning: fallbackCategoriesWarning, Fallback: true}
	}
	cv := data.(CategoriesView)
	if !cv.Fallback {
		sess.MirrorTaxonomy(cv.Taxonomy)
	}
	return cv
}

// problemMessages flattens a failed submission into display messages:
// missing fields first, then malformed ones, then backend field errors.
func problemMessages(err error) []string {
	var verr *forms.ValidationError
	if errors.As(err, &verr) {
		var out []string
		for _, m := range verr.Missing {
			out = append(out, m.Label+" is required")
		}
		for _, p := range verr.Invalid {
			out = append(out, p.Message)
		}
		return out
	}

	var apiErr *api.Error
	if errors.As(err, &apiErr) && len(apiErr.Fields) > 0 {
		keys := make([]string, 0, len(apiErr.Fields))
		for k := range apiErr.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]string, len(keys))
		for i, k := range keys {
			out[i] = k + ": " + apiErr.Fields[k]
		}
		return out
	}
	return []string{userMessage(err)}
}
