package aggregate

import (
	"sort"

	"budget/internal/core"
)

// Group collects the transactions of one category.
//
// Total is the net outflow: expense amounts add, income amounts subtract.
// Use Magnitude for display.
type Group struct {
	Category     core.Category      `json:"category"`
	Transactions []core.Transaction `json:"transactions"`
	Total        core.Money         `json:"total"`
}

// Magnitude is |Total|.
func (g Group) Magnitude() core.Money { return g.Total.Abs() }

// GroupByCategory buckets txs by category. Transactions whose category is not
// in cats are skipped and empty groups are dropped. Groups are ordered by
// magnitude descending, ties keeping category order.
func GroupByCategory(txs []core.Transaction, cats []core.Category) []Group {
	groups := make([]Group, len(cats))
	index := make(map[string]int, len(cats))
	for i, c := range cats {
		groups[i].Category = c
		if _, dup := index[c.ID]; !dup {
			index[c.ID] = i
		}
	}

	for _, tx := range txs {
		i, ok := index[tx.CategoryID]
		if !ok {
			continue
		}
		g := &groups[i]
		g.Transactions = append(g.Transactions, tx)
		if tx.Type == core.Expense {
			g.Total = g.Total.Add(tx.Amount)
		} else {
			g.Total = g.Total.Sub(tx.Amount)
		}
	}

	out := make([]Group, 0, len(groups))
	for _, g := range groups {
		if len(g.Transactions) > 0 {
			out = append(out, g)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Magnitude().Cents > out[j].Magnitude().Cents
	})
	return out
}

// TopCategories returns at most limit expense-category groups ordered by
// total descending. A limit of zero or less yields no groups.
func TopCategories(txs []core.Transaction, cats []core.Category, limit int) []Group {
	if limit <= 0 {
		return []Group{}
	}
	all := GroupByCategory(txs, cats)
	out := make([]Group, 0, len(all))
	for _, g := range all {
		if g.Category.Type == core.Expense {
			out = append(out, g)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Total.Cents > out[j].Total.Cents
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
