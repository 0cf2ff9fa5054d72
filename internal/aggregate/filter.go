// Package aggregate computes read-only views over transaction snapshots:
// filtering, grouping by category, summaries, rankings and monthly buckets.
// Functions never mutate their inputs and degrade to empty results.
package aggregate

import (
	"strings"
	"time"

	"budget/internal/core"
)

// Criteria narrows a transaction list. Zero fields match everything.
type Criteria struct {
	// Search matches case-insensitively against description, notes and the
	// two-decimal amount string.
	Search     string
	CategoryID string
	// DateFrom and DateTo are inclusive. DateTo covers its whole calendar day
	// in its own location.
	DateFrom *time.Time
	DateTo   *time.Time
}

// IsZero reports whether f matches every transaction.
func (f Criteria) IsZero() bool {
	return strings.TrimSpace(f.Search) == "" && f.CategoryID == "" && f.DateFrom == nil && f.DateTo == nil
}

// Filter keeps the transactions matching every set criterion, in input
// order. It is idempotent.
func Filter(txs []core.Transaction, f Criteria) []core.Transaction {
	term := strings.ToLower(strings.TrimSpace(f.Search))
	var to time.Time
	if f.DateTo != nil {
		to = endOfDay(*f.DateTo)
	}

	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if term != "" && !matchesSearch(tx, term) {
			continue
		}
		if f.CategoryID != "" && tx.CategoryID != f.CategoryID {
			continue
		}
		if f.DateFrom != nil && tx.Date.Before(*f.DateFrom) {
			continue
		}
		if f.DateTo != nil && tx.Date.After(to) {
			continue
		}
		out = append(out, tx)
	}
	return out
}

func matchesSearch(tx core.Transaction, term string) bool {
	if strings.Contains(strings.ToLower(tx.Description), term) {
		return true
	}
	if tx.Notes != nil && strings.Contains(strings.ToLower(*tx.Notes), term) {
		return true
	}
	return strings.Contains(tx.Amount.String(), term)
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}
