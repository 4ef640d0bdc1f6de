package http

import "fintrack/internal/api"

// dependents lists the regions that show data derived from a resource. A
// transaction moves account balances and budget spending; an account
// rename changes how transactions are labelled.
var dependents = map[string][]string{
	api.ResourceTransactions: {api.ResourceBudgets, api.ResourceAccounts},
	api.ResourceAccounts:     {api.ResourceTransactions},
	api.ResourceBudgets:      nil,
}

// RefreshEvents returns the HX-Trigger events a mutation of resource
// fires: its own refresh first, then its dependents.
func RefreshEvents(resource string) []string {
	events := []string{resource + ":refresh"}
	for _, dep := range dependents[resource] {
		events = append(events, dep+":refresh")
	}
	return events
}
