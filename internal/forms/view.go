package forms

import "fintrack/internal/core"

// ViewState decides which account selects the transaction form shows.
// It is one of ExpenseView, IncomeView, TransferView or UnsetView.
type ViewState interface {
	Name() string
	ShowAccountFrom() bool
	ShowAccountTo() bool
	viewState()
}

type (
	ExpenseView  struct{}
	IncomeView   struct{}
	TransferView struct{}
	UnsetView    struct{}
)

func (ExpenseView) Name() string          { return string(core.Expense) }
func (ExpenseView) ShowAccountFrom() bool { return true }
func (ExpenseView) ShowAccountTo() bool   { return false }
func (ExpenseView) viewState()            {}

func (IncomeView) Name() string          { return string(core.Income) }
func (IncomeView) ShowAccountFrom() bool { return false }
func (IncomeView) ShowAccountTo() bool   { return true }
func (IncomeView) viewState()            {}

func (TransferView) Name() string          { return string(core.Transfer) }
func (TransferView) ShowAccountFrom() bool { return true }
func (TransferView) ShowAccountTo() bool   { return true }
func (TransferView) viewState()            {}

func (UnsetView) Name() string          { return "" }
func (UnsetView) ShowAccountFrom() bool { return false }
func (UnsetView) ShowAccountTo() bool   { return false }
func (UnsetView) viewState()            {}

// ViewFor maps a raw type value to its view state. Unknown values are unset.
func ViewFor(rawType string) ViewState {
	t, err := core.ParseTransactionType(rawType)
	if err != nil {
		return UnsetView{}
	}
	switch t {
	case core.Expense:
		return ExpenseView{}
	case core.Income:
		return IncomeView{}
	default:
		return TransferView{}
	}
}
