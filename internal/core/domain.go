package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	AccountCash AccountType = "cash"
	AccountBank AccountType = "bank"
	AccountCard AccountType = "card"

	Income   TransactionType = "income"
	Expense  TransactionType = "expense"
	Transfer TransactionType = "transfer"
)

type (
	AccountType     string
	TransactionType string

	Account struct {
		ID       string      `json:"id"`
		Name     string      `json:"name"`
		Type     AccountType `json:"type"`
		Balance  Money       `json:"balance"`
		BankName string      `json:"bank_name,omitempty"`
		LastFour string      `json:"last_four,omitempty"`
		Details  string      `json:"details,omitempty"`
	}

	Transaction struct {
		ID          string          `json:"id"`
		Type        TransactionType `json:"type"`
		Amount      Money           `json:"amount"`
		Category    string          `json:"category"`
		Description string          `json:"description"`
		Date        Date            `json:"date"`
		Time        string          `json:"time,omitempty"`
		AccountFrom string          `json:"account_from,omitempty"`
		AccountTo   string          `json:"account_to,omitempty"`
	}

	// Budget mirrors the backend record. Spent, Remaining and ProgressPercent
	// are computed by the backend and never sent back.
	Budget struct {
		ID              string  `json:"id"`
		Category        string  `json:"category"`
		Amount          Money   `json:"amount"`
		Period          Period  `json:"period"`
		StartDate       Date    `json:"start_date"`
		EndDate         Date    `json:"end_date"`
		Note            string  `json:"note,omitempty"`
		Spent           Money   `json:"spent"`
		Remaining       Money   `json:"remaining"`
		ProgressPercent float64 `json:"progress_percent,omitempty"`
	}

	User struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
	}
)

var (
	ErrInvalidAccountType     = errors.New("invalid account type")
	ErrInvalidTransactionType = errors.New("invalid transaction type")
	ErrInvalidAmount          = errors.New("invalid amount")
)

// AccountTypes lists account types in display order.
var AccountTypes = []AccountType{AccountCash, AccountBank, AccountCard}

// TransactionTypes lists transaction types in display order.
var TransactionTypes = []TransactionType{Expense, Income, Transfer}

func (t AccountType) IsValid() bool {
	switch t {
	case AccountCash, AccountBank, AccountCard:
		return true
	}
	return false
}

// HasInstitution reports whether accounts of this type carry a bank name
// and the last four digits of a number.
func (t AccountType) HasInstitution() bool {
	return t == AccountBank || t == AccountCard
}

func (t TransactionType) IsValid() bool {
	switch t {
	case Income, Expense, Transfer:
		return true
	}
	return false
}

// ParseTransactionType normalises user input into a TransactionType.
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidTransactionType, s)
	}
	return t, nil
}

// ParseAccountType normalises user input into an AccountType.
func ParseAccountType(s string) (AccountType, error) {
	t := AccountType(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidAccountType, s)
	}
	return t, nil
}

// Date is a calendar day encoded as YYYY-MM-DD on the wire.
type Date struct {
	time.Time
}

const DateLayout = "2006-01-02"

// layouts accepted when decoding dates sent by the backend.
var dateLayouts = []string{
	DateLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC1123,
}

// NewDate creates a new Date from year, month, day
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(DateLayout) + `"`), nil
}

// UnmarshalJSON accepts the layouts the backend is known to emit. Values it
// cannot read (null, "", "N/A") decode to the zero Date.
func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	*d = Date{}
	if s == "" || s == "null" || s == "N/A" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			*d = Date{Time: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
			return nil
		}
	}
	return nil
}

// RequiredAccounts reports which account references a transaction of type t
// must carry: expenses draw from an account, income lands in one, transfers
// need both.
func RequiredAccounts(t TransactionType) (from, to bool) {
	switch t {
	case Expense:
		return true, false
	case Income:
		return false, true
	case Transfer:
		return true, true
	}
	return false, false
}
