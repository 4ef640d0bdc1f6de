package forms

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"fintrack/internal/api"
	"fintrack/internal/core"
)

// Draft is a parsed form that can be validated and turned into a backend
// payload.
type Draft interface {
	Resource() string
	Validate() error
	Payload() (any, error)
}

func field(v url.Values, name string) string {
	return strings.TrimSpace(v.Get(name))
}

// TransactionDraft is the raw transaction form.
type TransactionDraft struct {
	Type        string
	Amount      string
	Category    string
	Description string
	Date        string
	Time        string
	AccountFrom string
	AccountTo   string
}

// TransactionPayload is the JSON body sent for a transaction. Account
// references the type does not use are omitted.
type TransactionPayload struct {
	Type        core.TransactionType `json:"type"`
	Amount      core.Money           `json:"amount"`
	Category    string               `json:"category"`
	Description string               `json:"description"`
	Date        string               `json:"date,omitempty"`
	Time        string               `json:"time,omitempty"`
	AccountFrom string               `json:"account_from,omitempty"`
	AccountTo   string               `json:"account_to,omitempty"`
}

func ReadTransaction(v url.Values) TransactionDraft {
	return TransactionDraft{
		Type:        strings.ToLower(field(v, "type")),
		Amount:      field(v, "amount"),
		Category:    field(v, "category"),
		Description: field(v, "description"),
		Date:        field(v, "date"),
		Time:        field(v, "time"),
		AccountFrom: field(v, "account_from"),
		AccountTo:   field(v, "account_to"),
	}
}

// TransactionDraftFrom prefills the form from a stored transaction.
func TransactionDraftFrom(t core.Transaction) TransactionDraft {
	return TransactionDraft{
		Type:        string(t.Type),
		Amount:      t.Amount.StringFixed(2),
		Category:    t.Category,
		Description: t.Description,
		Date:        t.Date.String(),
		Time:        t.Time,
		AccountFrom: t.AccountFrom,
		AccountTo:   t.AccountTo,
	}
}

func (TransactionDraft) Resource() string { return api.ResourceTransactions }

// View returns the form layout for the selected type.
func (d TransactionDraft) View() ViewState {
	return ViewFor(d.Type)
}

var clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// Validate reports every missing or malformed field. Which account fields
// are required depends on the transaction type; a missing or unknown type is
// itself reported as missing.
func (d TransactionDraft) Validate() error {
	var c checker

	t, typeErr := core.ParseTransactionType(d.Type)
	if typeErr != nil {
		c.err.Missing = append(c.err.Missing, MissingField{Field: "type", Label: "Type"})
	}
	if c.require("amount", "Amount", d.Amount) {
		if _, err := core.ParseAmount(d.Amount); err != nil {
			c.invalid("amount", "Amount must be a positive number")
		}
	}
	c.require("category", "Category", d.Category)

	if typeErr == nil {
		from, to := core.RequiredAccounts(t)
		if from {
			c.require("account_from", "From account", d.AccountFrom)
		}
		if to {
			c.require("account_to", "To account", d.AccountTo)
		}
		if t == core.Transfer && d.AccountFrom != "" && d.AccountFrom == d.AccountTo {
			c.invalid("account_to", "Choose two different accounts")
		}
	}

	if d.Date != "" {
		if _, err := core.ParseDate(d.Date); err != nil {
			c.invalid("date", "Date must use the YYYY-MM-DD format")
		}
	}
	if d.Time != "" && !clockPattern.MatchString(d.Time) {
		c.invalid("time", "Time must use the HH:MM format")
	}
	return c.result()
}

func (d TransactionDraft) Payload() (any, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	t, _ := core.ParseTransactionType(d.Type)
	amount, _ := core.ParseAmount(d.Amount)
	p := TransactionPayload{
		Type:        t,
		Amount:      amount,
		Category:    d.Category,
		Description: d.Description,
		Date:        d.Date,
		Time:        d.Time,
	}
	from, to := core.RequiredAccounts(t)
	if from {
		p.AccountFrom = d.AccountFrom
	}
	if to {
		p.AccountTo = d.AccountTo
	}
	return p, nil
}

// AccountDraft is the raw account form.
type AccountDraft struct {
	Name     string
	Type     string
	Balance  string
	BankName string
	LastFour string
	Details  string
}

// AccountPayload drops bank_name and last_four for cash accounts.
type AccountPayload struct {
	Name     string           `json:"name"`
	Type     core.AccountType `json:"type"`
	Balance  core.Money       `json:"balance"`
	BankName string           `json:"bank_name,omitempty"`
	LastFour string           `json:"last_four,omitempty"`
	Details  string           `json:"details,omitempty"`
}

func ReadAccount(v url.Values) AccountDraft {
	return AccountDraft{
		Name:     field(v, "name"),
		Type:     strings.ToLower(field(v, "type")),
		Balance:  field(v, "balance"),
		BankName: field(v, "bank_name"),
		LastFour: field(v, "last_four"),
		Details:  field(v, "details"),
	}
}

// AccountDraftFrom prefills the form from a stored account.
func AccountDraftFrom(a core.Account) AccountDraft {
	return AccountDraft{
		Name:     a.Name,
		Type:     string(a.Type),
		Balance:  a.Balance.StringFixed(2),
		BankName: a.BankName,
		LastFour: a.LastFour,
		Details:  a.Details,
	}
}

func (AccountDraft) Resource() string { return api.ResourceAccounts }

var lastFourPattern = regexp.MustCompile(`^\d{4}$`)

func (d AccountDraft) Validate() error {
	var c checker
	c.require("name", "Name", d.Name)
	if c.require("type", "Type", d.Type) {
		if _, err := core.ParseAccountType(d.Type); err != nil {
			c.invalid("type", "Type must be cash, bank or card")
		}
	}
	if d.Balance != "" {
		if _, err := decimal.NewFromString(strings.ReplaceAll(d.Balance, ",", ".")); err != nil {
			c.invalid("balance", "Balance must be a number")
		}
	}
	if t, err := core.ParseAccountType(d.Type); err == nil && t.HasInstitution() && d.LastFour != "" && !lastFourPattern.MatchString(d.LastFour) {
		c.invalid("last_four", "Last four must be exactly 4 digits")
	}
	return c.result()
}

func (d AccountDraft) Payload() (any, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	t, _ := core.ParseAccountType(d.Type)
	balance := decimal.Zero
	if d.Balance != "" {
		balance, _ = decimal.NewFromString(strings.ReplaceAll(d.Balance, ",", "."))
	}
	p := AccountPayload{
		Name:    d.Name,
		Type:    t,
		Balance: core.Money{Decimal: balance.Round(2)},
		Details: d.Details,
	}
	if t.HasInstitution() {
		p.BankName = d.BankName
		p.LastFour = d.LastFour
	}
	return p, nil
}

// BudgetDraft is the raw budget form.
type BudgetDraft struct {
	Category  string
	Amount    string
	Period    string
	StartDate string
	EndDate   string
	Note      string
}

// BudgetPayload is the JSON body sent for a budget.
type BudgetPayload struct {
	Category  string      `json:"category"`
	Amount    core.Money  `json:"amount"`
	Period    core.Period `json:"period"`
	StartDate core.Date   `json:"start_date"`
	EndDate   core.Date   `json:"end_date"`
	Note      string      `json:"note"`
}

func ReadBudget(v url.Values) BudgetDraft {
	return BudgetDraft{
		Category:  field(v, "category"),
		Amount:    field(v, "amount"),
		Period:    strings.ToLower(field(v, "period")),
		StartDate: field(v, "start_date"),
		EndDate:   field(v, "end_date"),
		Note:      field(v, "note"),
	}
}

// BudgetDraftFrom prefills the form from a stored budget.
func BudgetDraftFrom(b core.Budget) BudgetDraft {
	return BudgetDraft{
		Category:  b.Category,
		Amount:    b.Amount.StringFixed(2),
		Period:    string(b.Period),
		StartDate: b.StartDate.String(),
		EndDate:   b.EndDate.String(),
		Note:      b.Note,
	}
}

func (BudgetDraft) Resource() string { return api.ResourceBudgets }

// IsCustom reports whether the end date is entered by hand.
func (d BudgetDraft) IsCustom() bool {
	return d.Period == string(core.Custom)
}

func (d BudgetDraft) Validate() error {
	var c checker
	c.require("category", "Category", d.Category)
	if c.require("amount", "Amount", d.Amount) {
		if _, err := core.ParseAmount(d.Amount); err != nil {
			c.invalid("amount", "Amount must be a positive number")
		}
	}
	period, periodErr := core.ParsePeriod(d.Period)
	if c.require("period", "Period", d.Period) && periodErr != nil {
		c.invalid("period", "Unknown budget period")
	}

	var start core.Date
	if c.require("start_date", "Start date", d.StartDate) {
		var err error
		if start, err = core.ParseDate(d.StartDate); err != nil {
			c.invalid("start_date", "Start date must use the YYYY-MM-DD format")
		}
	}

	if periodErr == nil && period == core.Custom && c.require("end_date", "End date", d.EndDate) {
		end, err := core.ParseDate(d.EndDate)
		switch {
		case err != nil:
			c.invalid("end_date", "End date must use the YYYY-MM-DD format")
		case !start.IsZero() && end.Before(start.Time):
			c.invalid("end_date", "End date must not be before the start date")
		}
	}
	return c.result()
}

// Payload recomputes end_date from the period for every non-custom budget,
// ignoring whatever end date was submitted.
func (d BudgetDraft) Payload() (any, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	period, _ := core.ParsePeriod(d.Period)
	amount, _ := core.ParseAmount(d.Amount)
	start, _ := core.ParseDate(d.StartDate)

	var end core.Date
	if period == core.Custom {
		end, _ = core.ParseDate(d.EndDate)
	} else {
		var err error
		if end, err = core.ComputeEndDate(start, period); err != nil {
			return nil, err
		}
	}
	return BudgetPayload{
		Category:  d.Category,
		Amount:    amount,
		Period:    period,
		StartDate: start,
		EndDate:   end,
		Note:      d.Note,
	}, nil
}

// LoginDraft is the login form.
type LoginDraft struct {
	Username string
	Password string
}

func ReadLogin(v url.Values) LoginDraft {
	return LoginDraft{
		Username: field(v, "username"),
		Password: v.Get("password"),
	}
}

func (d LoginDraft) Validate() error {
	var c checker
	c.require("username", "Username", d.Username)
	c.require("password", "Password", d.Password)
	return c.result()
}

func (d LoginDraft) Credentials() api.Credentials {
	return api.Credentials{Username: d.Username, Password: d.Password}
}

// RegistrationDraft is the sign-up form.
type RegistrationDraft struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

func ReadRegistration(v url.Values) RegistrationDraft {
	return RegistrationDraft{
		Username:        field(v, "username"),
		Email:           field(v, "email"),
		Password:        v.Get("password"),
		ConfirmPassword: v.Get("confirm_password"),
	}
}

// Validate checks required fields and that both passwords match, so a
// mismatch never reaches the backend.
func (d RegistrationDraft) Validate() error {
	var c checker
	c.require("username", "Username", d.Username)
	if c.require("email", "Email", d.Email) && !strings.Contains(d.Email, "@") {
		c.invalid("email", "Please enter a valid email address")
	}
	pw := c.require("password", "Password", d.Password)
	confirm := c.require("confirm_password", "Password confirmation", d.ConfirmPassword)
	if pw && confirm && d.Password != d.ConfirmPassword {
		c.invalid("confirm_password", "Passwords do not match")
	}
	return c.result()
}

func (d RegistrationDraft) Registration() api.Registration {
	return api.Registration{
		Username:        d.Username,
		Email:           d.Email,
		Password:        d.Password,
		ConfirmPassword: d.ConfirmPassword,
	}
}
