package core

// BudgetSummary aggregates the budgets shown on a page.
type BudgetSummary struct {
	TotalBudget Money
	TotalSpent  Money
	Remaining   Money
	Count       int
}

// SummarizeBudgets totals amounts and spending across budgets.
func SummarizeBudgets(budgets []Budget) BudgetSummary {
	var s BudgetSummary
	for _, b := range budgets {
		s.TotalBudget = s.TotalBudget.Add(b.Amount)
		s.TotalSpent = s.TotalSpent.Add(b.Spent)
	}
	s.Remaining = s.TotalBudget.Sub(s.TotalSpent)
	s.Count = len(budgets)
	return s
}

// FilterBudgets keeps budgets matching category and period. Empty filters
// match everything.
func FilterBudgets(budgets []Budget, category string, period Period) []Budget {
	if category == "" && period == "" {
		return budgets
	}
	out := make([]Budget, 0, len(budgets))
	for _, b := range budgets {
		if category != "" && b.Category != category {
			continue
		}
		if period != "" && b.Period != period {
			continue
		}
		out = append(out, b)
	}
	return out
}
