package render

import (
	"encoding/json"

	"fintrack/internal/core"
)

type AccountView struct {
	ID             string
	Name           string
	Type           string
	TypeLabel      string
	Icon           string
	Color          string
	Balance        string
	BalanceClass   string
	BankName       string
	LastFour       string
	Details        string
	HasInstitution bool
}

func Account(a core.Account) AccountView {
	icon, color := AccountIcon(a.Type)
	v := AccountView{
		ID:           a.ID,
		Name:         a.Name,
		Type:         string(a.Type),
		TypeLabel:    Title(string(a.Type)),
		Icon:         icon,
		Color:        color,
		Balance:      Currency(a.Balance),
		BalanceClass: AmountClass(a.Balance),
		Details:      a.Details,
	}
	if a.Type.HasInstitution() {
		v.HasInstitution = true
		v.BankName = a.BankName
		v.LastFour = a.LastFour
	}
	return v
}

func Accounts(accounts []core.Account) []AccountView {
	out := make([]AccountView, len(accounts))
	for i, a := range accounts {
		out[i] = Account(a)
	}
	return out
}

type TransactionView struct {
	ID           string
	Type         string
	TypeLabel    string
	Badge        string
	Amount       string
	AmountClass  string
	Category     string
	CategoryIcon string
	Description  string
	When         string
	AccountFrom  string
	AccountTo    string
}

// Transaction builds a row view. names resolves account ids to display
// names; unknown ids are shown as-is.
func Transaction(t core.Transaction, names map[string]string) TransactionView {
	badge, amountClass := TransactionBadge(t.Type)
	return TransactionView{
		ID:           t.ID,
		Type:         string(t.Type),
		TypeLabel:    Title(string(t.Type)),
		Badge:        badge,
		Amount:       Currency(t.Amount),
		AmountClass:  amountClass,
		Category:     t.Category,
		CategoryIcon: CategoryIcon(t.Category),
		Description:  t.Description,
		When:         When(t.Date, t.Time),
		AccountFrom:  accountName(names, t.AccountFrom),
		AccountTo:    accountName(names, t.AccountTo),
	}
}

func accountName(names map[string]string, id string) string {
	if n, ok := names[id]; ok && n != "" {
		return n
	}
	return id
}

func Transactions(txs []core.Transaction, names map[string]string) []TransactionView {
	out := make([]TransactionView, len(txs))
	for i, t := range txs {
		out[i] = Transaction(t, names)
	}
	return out
}

// AccountNames indexes accounts by id.
func AccountNames(accounts []core.Account) map[string]string {
	names := make(map[string]string, len(accounts))
	for _, a := range accounts {
		names[a.ID] = a.Name
	}
	return names
}

type BudgetView struct {
	ID             string
	Category       string
	CategoryIcon   string
	Period         string
	PeriodLabel    string
	PeriodBadge    string
	Amount         string
	Spent          string
	Remaining      string
	RemainingClass string
	StartDate      string
	EndDate        string
	Note           string
	Progress       Progress
}

// Budget shows remaining as amount minus spent. The backend clamps its own
// remaining at zero, which would hide an overspend.
func Budget(b core.Budget) BudgetView {
	remaining := b.Amount.Sub(b.Spent)
	return BudgetView{
		ID:             b.ID,
		Category:       b.Category,
		CategoryIcon:   CategoryIcon(b.Category),
		Period:         string(b.Period),
		PeriodLabel:    Title(string(b.Period)),
		PeriodBadge:    PeriodBadge(b.Period),
		Amount:         Currency(b.Amount),
		Spent:          Currency(b.Spent),
		Remaining:      Currency(remaining),
		RemainingClass: AmountClass(remaining),
		StartDate:      b.StartDate.String(),
		EndDate:        b.EndDate.String(),
		Note:           b.Note,
		Progress:       BudgetProgress(b.Spent, b.Amount),
	}
}

func Budgets(budgets []core.Budget) []BudgetView {
	out := make([]BudgetView, len(budgets))
	for i, b := range budgets {
		out[i] = Budget(b)
	}
	return out
}

type BudgetStatsView struct {
	TotalBudget    string
	TotalSpent     string
	Remaining      string
	RemainingClass string
	Count          int
}

func BudgetStats(s core.BudgetSummary) BudgetStatsView {
	return BudgetStatsView{
		TotalBudget:    Currency(s.TotalBudget),
		TotalSpent:     Currency(s.TotalSpent),
		Remaining:      Currency(s.Remaining),
		RemainingClass: AmountClass(s.Remaining),
		Count:          s.Count,
	}
}

var chartTitles = map[core.Chart]string{
	core.ChartIncomeVsExpense:   "Income vs Expense",
	core.ChartExpenseByCategory: "Expenses by Category",
	core.ChartIncomeByCategory:  "Income by Category",
	core.ChartAccountBalances:   "Account Balances",
}

var chartKinds = map[core.Chart]string{
	core.ChartIncomeVsExpense:   "bar",
	core.ChartExpenseByCategory: "doughnut",
	core.ChartIncomeByCategory:  "doughnut",
	core.ChartAccountBalances:   "bar",
}

// ChartTitle is the heading shown above chart c.
func ChartTitle(c core.Chart) string {
	return chartTitles[c]
}

type ChartView struct {
	Name      string
	Title     string
	Kind      string
	Timeframe string
	Empty     bool
	// Data is the Chart.js configuration, encoded as JSON.
	Data string
}

type chartDataset struct {
	Label           string    `json:"label"`
	Data            []float64 `json:"data"`
	BackgroundColor []string  `json:"backgroundColor"`
}

type chartData struct {
	Labels   []string       `json:"labels"`
	Datasets []chartDataset `json:"datasets"`
}

// Chart builds the view for one chart panel.
func Chart(c core.Chart, tf core.Timeframe, s core.Series) ChartView {
	values := make([]float64, len(s.Values))
	for i, v := range s.Values {
		values[i] = v.InexactFloat64()
	}
	data := chartData{
		Labels: s.Labels,
		Datasets: []chartDataset{{
			Label:           chartTitles[c],
			Data:            values,
			BackgroundColor: Palette(len(values)),
		}},
	}
	if data.Labels == nil {
		data.Labels = []string{}
	}
	raw, _ := json.Marshal(data)
	return ChartView{
		Name:      string(c),
		Title:     chartTitles[c],
		Kind:      chartKinds[c],
		Timeframe: string(tf),
		Empty:     len(values) == 0,
		Data:      string(raw),
	}
}

type QuestionView struct {
	Index   int
	Prompt  string
	Options []string
}

func Quiz(questions []core.QuizQuestion) []QuestionView {
	out := make([]QuestionView, len(questions))
	for i, q := range questions {
		out[i] = QuestionView{Index: i, Prompt: q.Prompt, Options: q.Options}
	}
	return out
}
