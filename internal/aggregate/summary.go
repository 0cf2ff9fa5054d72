package aggregate

import (
	"sort"
	"time"

	"budget/internal/core"
)

type Summary struct {
	TotalIncome   core.Money `json:"totalIncome"`
	TotalExpenses core.Money `json:"totalExpenses"`
	Balance       core.Money `json:"balance"`
	Count         int        `json:"transactionCount"`
}

// Summarize totals income and expenses. Balance is income minus expenses.
func Summarize(txs []core.Transaction) Summary {
	var s Summary
	for _, tx := range txs {
		if tx.Type == core.Income {
			s.TotalIncome = s.TotalIncome.Add(tx.Amount)
		} else {
			s.TotalExpenses = s.TotalExpenses.Add(tx.Amount)
		}
		s.Count++
	}
	s.Balance = s.TotalIncome.Sub(s.TotalExpenses)
	return s
}

// MonthKey is the layout of MonthlyTotals keys.
const MonthKey = "2006-01"

// MonthlyTotals buckets raw amounts by local calendar month and category.
func MonthlyTotals(txs []core.Transaction) map[string]map[string]core.Money {
	return MonthlyTotalsIn(txs, time.Local)
}

// MonthlyTotalsIn is MonthlyTotals with month boundaries taken in loc.
// Amounts are summed regardless of type.
func MonthlyTotalsIn(txs []core.Transaction, loc *time.Location) map[string]map[string]core.Money {
	out := make(map[string]map[string]core.Money)
	for _, tx := range txs {
		month := tx.Date.In(loc).Format(MonthKey)
		cats, ok := out[month]
		if !ok {
			cats = make(map[string]core.Money)
			out[month] = cats
		}
		cats[tx.CategoryID] = cats[tx.CategoryID].Add(tx.Amount)
	}
	return out
}

// SortByDate returns a copy of txs ordered by date, newest first when desc.
func SortByDate(txs []core.Transaction, desc bool) []core.Transaction {
	out := make([]core.Transaction, len(txs))
	copy(out, txs)
	sort.SliceStable(out, func(i, j int) bool {
		if desc {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// Recent returns the limit newest transactions.
func Recent(txs []core.Transaction, limit int) []core.Transaction {
	if limit <= 0 {
		return []core.Transaction{}
	}
	out := SortByDate(txs, true)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
