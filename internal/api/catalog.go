package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"fintrack/internal/core"
)

// Tip is a budgeting tip from /api/budgets/tips.
type Tip struct {
	Tip       string `json:"tip"`
	Category  string `json:"category"`
	TotalTips int    `json:"total_tips"`
}

// Categories fetches the category taxonomy.
func (c *Client) Categories(ctx context.Context) (core.Taxonomy, error) {
	var tax core.Taxonomy
	resp, err := c.do(ctx, ResourceCategories, OpList, http.MethodGet, "/api/transactions/categories", nil, nil)
	if err != nil {
		return tax, err
	}
	err = decode(ResourceCategories, resp.body, &tax)
	return tax, err
}

// BudgetTip fetches one budgeting tip.
func (c *Client) BudgetTip(ctx context.Context) (Tip, error) {
	var tip Tip
	resp, err := c.do(ctx, ResourceBudgets, "tip", http.MethodGet, "/api/budgets/tips", nil, nil)
	if err != nil {
		return tip, err
	}
	err = decode(ResourceBudgets, resp.body, &tip)
	return tip, err
}

// Chart fetches one chart and returns it as a plottable series.
func (c *Client) Chart(ctx context.Context, chart core.Chart, tf core.Timeframe) (core.Series, error) {
	if !chart.IsValid() {
		return core.Series{}, fmt.Errorf("unknown chart %q", chart)
	}
	query := url.Values{"timeframe": {string(tf)}}
	resp, err := c.do(ctx, ResourceCharts, string(chart), http.MethodGet, "/api/charts/"+string(chart), query, nil)
	if err != nil {
		return core.Series{}, err
	}

	switch chart {
	case core.ChartIncomeVsExpense:
		var v core.IncomeVsExpense
		if err := decode(ResourceCharts, resp.body, &v); err != nil {
			return core.Series{}, err
		}
		return v.Series(), nil
	case core.ChartAccountBalances:
		var v core.AccountBalances
		if err := decode(ResourceCharts, resp.body, &v); err != nil {
			return core.Series{}, err
		}
		return v.Series(), nil
	default:
		totals := map[string]core.Money{}
		if err := decode(ResourceCharts, resp.body, &totals); err != nil {
			return core.Series{}, err
		}
		return core.SeriesFromTotals(totals), nil
	}
}
