package core

import "slices"

// Taxonomy maps each transaction type to its ordered category names.
type Taxonomy struct {
	Expense  []string `json:"expense"`
	Income   []string `json:"income"`
	Transfer []string `json:"transfer"`
}

// DefaultTaxonomy is used when the backend taxonomy cannot be loaded.
func DefaultTaxonomy() Taxonomy {
	return Taxonomy{
		Expense: []string{
			"food", "transportation", "housing", "entertainment",
			"shopping", "health", "education", "bills", "other",
		},
		Income:   []string{"salary", "freelance", "investment", "gift", "other"},
		Transfer: []string{"between accounts"},
	}
}

// For returns the categories for transaction type t.
func (t Taxonomy) For(tt TransactionType) []string {
	switch tt {
	case Expense:
		return t.Expense
	case Income:
		return t.Income
	case Transfer:
		return t.Transfer
	}
	return nil
}

// IsEmpty reports whether no category is known for any type.
func (t Taxonomy) IsEmpty() bool {
	return len(t.Expense) == 0 && len(t.Income) == 0 && len(t.Transfer) == 0
}

// Contains reports whether category belongs to transaction type tt.
func (t Taxonomy) Contains(tt TransactionType, category string) bool {
	return slices.Contains(t.For(tt), category)
}
