package core

import (
	"fmt"
	"sort"
)

// Timeframe is the window a chart aggregates over.
type Timeframe string

const (
	Last7Days  Timeframe = "7d"
	Last30Days Timeframe = "30d"
	Last90Days Timeframe = "90d"
	LastYear   Timeframe = "1y"

	DefaultTimeframe = Last30Days
)

var Timeframes = []Timeframe{Last7Days, Last30Days, Last90Days, LastYear}

// ParseTimeframe returns the default timeframe for empty input.
func ParseTimeframe(s string) (Timeframe, error) {
	if s == "" {
		return DefaultTimeframe, nil
	}
	for _, tf := range Timeframes {
		if string(tf) == s {
			return tf, nil
		}
	}
	return "", fmt.Errorf("invalid timeframe %q", s)
}

// Chart identifies one of the backend chart endpoints.
type Chart string

const (
	ChartIncomeVsExpense   Chart = "income-vs-expense"
	ChartExpenseByCategory Chart = "expense-by-category"
	ChartIncomeByCategory  Chart = "income-by-category"
	ChartAccountBalances   Chart = "account-balances"
)

var Charts = []Chart{ChartIncomeVsExpense, ChartExpenseByCategory, ChartIncomeByCategory, ChartAccountBalances}

func (c Chart) IsValid() bool {
	for _, known := range Charts {
		if c == known {
			return true
		}
	}
	return false
}

type IncomeVsExpense struct {
	TotalIncome  Money `json:"total_income"`
	TotalExpense Money `json:"total_expense"`
	NetFlow      Money `json:"net_flow"`
}

type AccountBalances struct {
	Labels   []string `json:"labels"`
	Balances []Money  `json:"balances"`
}

// Series is a labelled set of values ready for plotting.
type Series struct {
	Labels []string
	Values []Money
}

// SeriesFromTotals orders a name to amount map by descending amount, then by
// name, so charts are stable between reloads.
func SeriesFromTotals(totals map[string]Money) Series {
	names := make([]string, 0, len(totals))
	for name := range totals {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := totals[names[i]], totals[names[j]]
		if !a.Equal(b.Decimal) {
			return a.GreaterThan(b.Decimal)
		}
		return names[i] < names[j]
	})
	s := Series{Labels: names, Values: make([]Money, len(names))}
	for i, name := range names {
		s.Values[i] = totals[name]
	}
	return s
}

func (v IncomeVsExpense) Series() Series {
	return Series{
		Labels: []string{"Income", "Expense", "Net Flow"},
		Values: []Money{v.TotalIncome, v.TotalExpense, v.NetFlow},
	}
}

func (b AccountBalances) Series() Series {
	return Series{Labels: b.Labels, Values: b.Balances}
}
