// Package render turns backend records into view models and HTML fragments.
//
// Everything here is a pure function of its input. Templates are parsed once
// from an fs.FS and executed into a buffer so a failing fragment never leaves
// half-written markup on the wire.
package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"fintrack/internal/core"
)

// Currency formats m as dollars with exactly two decimals and no grouping.
// Negative amounts render as -$X.XX.
func Currency(m core.Money) string {
	if m.IsNegative() {
		return "-$" + m.Abs().StringFixed(2)
	}
	return "$" + m.StringFixed(2)
}

type iconRule struct {
	match string
	icon  string
}

// categoryIcons is checked in order; the first substring match wins.
var categoryIcons = []iconRule{
	{"food", "utensils"},
	{"transportation", "car"},
	{"housing", "home"},
	{"entertainment", "film"},
	{"shopping", "shopping-bag"},
	{"health", "heartbeat"},
	{"education", "graduation-cap"},
	{"bills", "file-invoice-dollar"},
	{"other", "ellipsis-h"},
}

const DefaultCategoryIcon = "wallet"

// CategoryIcon picks a Font Awesome icon name for a category.
func CategoryIcon(category string) string {
	c := strings.ToLower(category)
	for _, rule := range categoryIcons {
		if strings.Contains(c, rule.match) {
			return rule.icon
		}
	}
	return DefaultCategoryIcon
}

// Title capitalises each word of s.
func Title(s string) string {
	// Casers keep state, so one is built per call.
	return cases.Title(language.English).String(s)
}

// Progress describes a budget progress bar.
type Progress struct {
	Percent float64
	Color   string
	Label   string
}

// Width is the CSS width of the bar, e.g. "42.5%".
func (p Progress) Width() string {
	return strconv.FormatFloat(p.Percent, 'f', 1, 64) + "%"
}

// BudgetProgress computes spent/amount as a percentage clamped to [0,100].
// A non-positive amount yields 0.
func BudgetProgress(spent, amount core.Money) Progress {
	pct := 0.0
	if amount.IsPositive() {
		pct = spent.Div(amount.Decimal).Mul(decimal.NewFromInt(100)).InexactFloat64()
	}
	pct = min(100, max(0, pct))

	color := "success"
	switch {
	case pct > 90:
		color = "danger"
	case pct > 70:
		color = "warning"
	}

	return Progress{
		Percent: pct,
		Color:   color,
		Label:   fmt.Sprintf("%.1f%% of budget used", pct),
	}
}

// AmountClass colours a remaining balance: red when overspent.
func AmountClass(m core.Money) string {
	if m.IsNegative() {
		return "text-danger"
	}
	return "text-success"
}

type accountStyle struct {
	icon  string
	color string
}

var accountStyles = map[core.AccountType]accountStyle{
	core.AccountCash: {"wallet", "primary"},
	core.AccountBank: {"building", "info"},
	core.AccountCard: {"credit-card", "success"},
}

// AccountIcon returns the icon and colour for an account type.
func AccountIcon(t core.AccountType) (icon, color string) {
	if s, ok := accountStyles[t]; ok {
		return s.icon, s.color
	}
	return "wallet", "secondary"
}

type transactionStyle struct {
	badge       string
	amountClass string
}

var transactionStyles = map[core.TransactionType]transactionStyle{
	core.Income:   {"bg-success", "text-success"},
	core.Expense:  {"bg-danger", "text-danger"},
	core.Transfer: {"bg-info", "text-danger"},
}

// TransactionBadge returns the badge and amount classes for a transaction type.
func TransactionBadge(t core.TransactionType) (badge, amountClass string) {
	if s, ok := transactionStyles[t]; ok {
		return s.badge, s.amountClass
	}
	return "bg-secondary", "text-muted"
}

var periodBadges = map[core.Period]string{
	core.Daily:   "info",
	core.Weekly:  "primary",
	core.Monthly: "success",
	core.Yearly:  "warning",
	core.Custom:  "secondary",
}

// PeriodBadge returns the badge colour for a budget period.
func PeriodBadge(p core.Period) string {
	if c, ok := periodBadges[p]; ok {
		return c
	}
	return "secondary"
}

// When formats a transaction timestamp as "Jan 02, 2006 at 15:04 (Week n)".
// clock may be empty, in which case the time part is left out.
func When(d core.Date, clock string) string {
	if d.IsZero() {
		return "N/A"
	}
	_, week := d.ISOWeek()
	var b strings.Builder
	b.WriteString(d.Format("Jan 02, 2006"))
	if clock = strings.TrimSpace(clock); clock != "" {
		b.WriteString(" at ")
		b.WriteString(clock)
	}
	fmt.Fprintf(&b, " (Week %d)", week)
	return b.String()
}

// Palette returns n chart colours spread evenly around the hue circle.
func Palette(n int) []string {
	colors := make([]string, n)
	for i := range n {
		hue := float64(i*360) / float64(n)
		for hue >= 360 {
			hue -= 360
		}
		colors[i] = "hsla(" + strconv.FormatFloat(hue, 'f', -1, 64) + ", 70%, 65%, 0.7)"
	}
	return colors
}
