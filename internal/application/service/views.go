package service

import (
	"github.com/shopspring/decimal"

	"github.com/wa2g/denis-portal/internal/domain/workflow"
)

// approvalEquivalents maps a filter value to the statuses it is
// considered equivalent to on list pages. Filtering invoices by
// "APPROVED" must show both approval stages.
var approvalEquivalents = map[string][]workflow.Status{
	workflow.StatusApproved.String(): {
		workflow.StatusApproved,
		workflow.StatusManagerApproved,
		workflow.StatusCEOApproved,
	},
}

// StatusMatches reports whether a status satisfies a list filter value
func StatusMatches(status workflow.Status, filter string) bool {
	if filter == "" || filter == workflow.StatusAll {
		return true
	}
	if status.String() == filter {
		return true
	}
	for _, eq := range approvalEquivalents[filter] {
		if status == eq {
			return true
		}
	}
	return false
}

// FilterByStatus returns the subsequence of records matching the filter,
// preserving the original collection order. The "all" wildcard returns
// the full collection.
func FilterByStatus[T Workflowed](records []T, filter string) []T {
	if filter == "" || filter == workflow.StatusAll {
		return records
	}
	out := make([]T, 0, len(records))
	for _, r := range records {
		if StatusMatches(r.CurrentStatus(), filter) {
			out = append(out, r)
		}
	}
	return out
}

// CountByStatus derives per-status counts from a snapshot. It is a pure
// function of its input; nothing is cached.
func CountByStatus[T Workflowed](records []T) map[workflow.Status]int {
	counts := make(map[workflow.Status]int)
	for _, r := range records {
		counts[r.CurrentStatus()]++
	}
	return counts
}

// CountWhere counts records satisfying the predicate
func CountWhere[T Workflowed](records []T, pred func(T) bool) int {
	n := 0
	for _, r := range records {
		if pred(r) {
			n++
		}
	}
	return n
}

// SumAmounts folds a decimal amount over a snapshot
func SumAmounts[T any](records []T, amount func(T) decimal.Decimal) decimal.Decimal {
	sum := decimal.Zero
	for _, r := range records {
		sum = sum.Add(amount(r))
	}
	return sum
}

// Summary is the dashboard card payload for one collection
type Summary struct {
	Total    int                     `json:"total"`
	ByStatus map[workflow.Status]int `json:"byStatus"`
	Amount   decimal.Decimal         `json:"amount"`
}

// Summarize builds a Summary from a snapshot
func Summarize[T Workflowed](records []T, amount func(T) decimal.Decimal) Summary {
	return Summary{
		Total:    len(records),
		ByStatus: CountByStatus(records),
		Amount:   SumAmounts(records, amount),
	}
}
