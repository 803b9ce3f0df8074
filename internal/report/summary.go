package report

import (
	"sort"

	"github.com/wa2g/denis-portal/internal/domain/workflow"
)

func statusCounts(counts map[workflow.Status]int) map[string]int {
	out := make(map[string]int, len(counts))
	for status, n := range counts {
		out[string(status)] = n
	}
	return out
}

// orderedStatuses keeps the summary sheet deterministic across runs.
func orderedStatuses(counts map[string]int) []string {
	statuses := make([]string, 0, len(counts))
	for status := range counts {
		statuses = append(statuses, status)
	}
	sort.Strings(statuses)
	return statuses
}
