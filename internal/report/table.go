// Package report flattens aggregation results into ordered rows for CSV or
// spreadsheet export, and serializes the versioned JSON backup.
package report

import (
	"strconv"
	"time"

	"budget/internal/aggregate"
	"budget/internal/core"
)

// DateLayout is used for every date cell.
const DateLayout = "2006-01-02"

// UnknownCategory labels transactions whose category is missing.
const UnknownCategory = "Unknown"

// Table is a header plus rows. Rows may be ragged in sectioned reports.
type Table struct {
	Header []string
	Rows   [][]string
}

// SummaryRows renders a summary as label/value pairs.
func SummaryRows(s aggregate.Summary) Table {
	return Table{
		Header: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Total Income", s.TotalIncome.String()},
			{"Total Expenses", s.TotalExpenses.String()},
			{"Balance", s.Balance.String()},
			{"Total Transactions", strconv.Itoa(s.Count)},
		},
	}
}

// GroupRows renders one row per group, in group order. Total keeps the
// expense-positive sign; Magnitude is the display value.
func GroupRows(groups []aggregate.Group) Table {
	t := Table{Header: []string{"Category", "Type", "Transactions", "Total", "Magnitude"}}
	for _, g := range groups {
		t.Rows = append(t.Rows, []string{
			g.Category.Name,
			string(g.Category.Type),
			strconv.Itoa(len(g.Transactions)),
			g.Total.String(),
			g.Magnitude().String(),
		})
	}
	return t
}

// TransactionRows renders txs in input order with category names resolved.
func TransactionRows(txs []core.Transaction, cats []core.Category) Table {
	names := categoryNames(cats)
	t := Table{Header: []string{"Date", "Description", "Category", "Type", "Amount", "Notes", "Location"}}
	for _, tx := range txs {
		t.Rows = append(t.Rows, []string{
			tx.Date.Format(DateLayout),
			tx.Description,
			nameOr(names, tx.CategoryID),
			string(tx.Type),
			tx.Amount.String(),
			deref(tx.Notes),
			deref(tx.Location),
		})
	}
	return t
}

// RecurringRows renders recurring entries with their schedule state at now.
func RecurringRows(entries []core.RecurringTransaction, cats []core.Category, now time.Time) Table {
	names := categoryNames(cats)
	t := Table{Header: []string{"Description", "Category", "Type", "Amount", "Frequency", "Next Due", "Last Executed", "Status"}}
	for _, r := range entries {
		last := ""
		if r.LastExecuted != nil {
			last = r.LastExecuted.Format(DateLayout)
		}
		status := "Paused"
		if r.IsActive {
			status = "Active"
		}
		if r.NextDue.Before(now) {
			status += " (overdue)"
		}
		freq, ok := core.FrequencyLabels[r.Frequency]
		if !ok {
			freq = string(r.Frequency)
		}
		t.Rows = append(t.Rows, []string{
			r.Description,
			nameOr(names, r.CategoryID),
			string(r.Type),
			r.Amount.String(),
			freq,
			r.NextDue.Format(DateLayout),
			last,
			status,
		})
	}
	return t
}

// Report builds the sectioned spreadsheet report: a title block, the
// summary, then each category group with its transactions.
func Report(txs []core.Transaction, cats []core.Category, generated time.Time) Table {
	summary := aggregate.Summarize(txs)
	groups := aggregate.GroupByCategory(txs, cats)

	rows := [][]string{
		{"Generated on " + generated.Format("January 2, 2006")},
		{},
		{"Summary"},
	}
	rows = append(rows, SummaryRows(summary).Rows...)
	rows = append(rows, []string{}, []string{"Category Breakdown"}, []string{})

	for _, g := range groups {
		rows = append(rows,
			[]string{g.Category.Name},
			[]string{"Total", g.Total.String()},
			[]string{"Date", "Description", "Amount", "Notes"},
		)
		for _, tx := range g.Transactions {
			rows = append(rows, []string{
				tx.Date.Format(DateLayout),
				tx.Description,
				tx.Amount.String(),
				deref(tx.Notes),
			})
		}
		rows = append(rows, []string{})
	}

	return Table{Header: []string{"Budget Tracker Report"}, Rows: rows}
}

func categoryNames(cats []core.Category) map[string]string {
	names := make(map[string]string, len(cats))
	for _, c := range cats {
		names[c.ID] = c.Name
	}
	return names
}

func nameOr(names map[string]string, id string) string {
	if n, ok := names[id]; ok {
		return n
	}
	return UnknownCategory
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
