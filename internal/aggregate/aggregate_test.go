package aggregate

import (
	"reflect"
	"testing"
	"time"

	"budget/internal/core"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }

var (
	food   = core.Category{ID: "c1", Name: "Food", Type: core.Expense}
	salary = core.Category{ID: "c2", Name: "Salary", Type: core.Income}
	travel = core.Category{ID: "c3", Name: "Travel", Type: core.Expense}
	cats   = []core.Category{food, salary, travel}
)

func tx(id, cat string, kind core.Kind, cents int64, date time.Time) core.Transaction {
	return core.Transaction{
		ID: id, Description: "tx " + id, Amount: core.Cents(cents),
		Type: kind, CategoryID: cat, Date: date,
	}
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name string
		txs  []core.Transaction
		want Summary
	}{
		{"empty", nil, Summary{}},
		{
			name: "income and expense",
			txs: []core.Transaction{
				tx("1", "c1", core.Expense, 5000, day(2024, 1, 1)),
				tx("2", "c2", core.Income, 20000, day(2024, 1, 2)),
			},
			want: Summary{TotalIncome: core.Cents(20000), TotalExpenses: core.Cents(5000), Balance: core.Cents(15000), Count: 2},
		},
		{
			name: "unknown category still counts",
			txs: []core.Transaction{
				tx("1", "gone", core.Expense, 700, day(2024, 1, 1)),
			},
			want: Summary{TotalExpenses: core.Cents(700), Balance: core.Cents(-700), Count: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summarize(tt.txs)
			if got != tt.want {
				t.Fatalf("Summarize() = %+v, want %+v", got, tt.want)
			}
			if got.Balance != got.TotalIncome.Sub(got.TotalExpenses) {
				t.Fatalf("balance %v != income - expenses", got.Balance)
			}
		})
	}
}

func TestGroupByCategory(t *testing.T) {
	txs := []core.Transaction{
		tx("1", "c1", core.Expense, 1000, day(2024, 1, 1)),
		tx("2", "c2", core.Income, 30000, day(2024, 1, 2)),
		tx("3", "c1", core.Expense, 2500, day(2024, 1, 3)),
		tx("4", "missing", core.Expense, 999, day(2024, 1, 4)),
	}
	groups := GroupByCategory(txs, cats)

	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2 (empty travel dropped)", len(groups))
	}
	if groups[0].Category.ID != "c2" || groups[0].Total.Cents != -30000 {
		t.Errorf("first group = %s %v, want c2 -300.00", groups[0].Category.ID, groups[0].Total)
	}
	if groups[0].Magnitude().Cents != 30000 {
		t.Errorf("Magnitude() = %v", groups[0].Magnitude())
	}
	if groups[1].Category.ID != "c1" || groups[1].Total.Cents != 3500 || len(groups[1].Transactions) != 2 {
		t.Errorf("second group = %+v", groups[1])
	}

	var sum int64
	for _, g := range groups {
		sum += g.Magnitude().Cents
	}
	if sum != 33500 {
		t.Errorf("sum of magnitudes = %d, want 33500 (unresolved category excluded)", sum)
	}
}

func TestGroupSingleExpense(t *testing.T) {
	groups := GroupByCategory([]core.Transaction{tx("1", "c1", core.Expense, 1000, day(2024, 1, 1))}, cats)
	if len(groups) != 1 || groups[0].Total.Cents != 1000 {
		t.Fatalf("groups = %+v, want one group with total 10.00", groups)
	}
	if len(GroupByCategory(nil, cats)) != 0 {
		t.Fatal("no transactions should yield no groups")
	}
}

func TestGroupOrderStableOnTies(t *testing.T) {
	txs := []core.Transaction{
		tx("1", "c3", core.Expense, 500, day(2024, 1, 1)),
		tx("2", "c1", core.Expense, 500, day(2024, 1, 1)),
	}
	groups := GroupByCategory(txs, cats)
	if groups[0].Category.ID != "c1" || groups[1].Category.ID != "c3" {
		t.Fatalf("ties should keep category order, got %s then %s", groups[0].Category.ID, groups[1].Category.ID)
	}
}

func TestTopCategories(t *testing.T) {
	txs := []core.Transaction{
		tx("1", "c1", core.Expense, 1000, day(2024, 1, 1)),
		tx("2", "c2", core.Income, 90000, day(2024, 1, 1)),
		tx("3", "c3", core.Expense, 4000, day(2024, 1, 1)),
		// a stray income entry lowers the travel total below food
		tx("4", "c3", core.Income, 3500, day(2024, 1, 1)),
	}

	got := TopCategories(txs, cats, 5)
	if len(got) != 2 {
		t.Fatalf("got %d groups, want 2 expense groups", len(got))
	}
	if got[0].Category.ID != "c1" || got[1].Category.ID != "c3" {
		t.Fatalf("order = %s, %s; want c1, c3", got[0].Category.ID, got[1].Category.ID)
	}

	if got := TopCategories(txs, cats, 1); len(got) != 1 || got[0].Category.ID != "c1" {
		t.Fatalf("limit 1 = %+v", got)
	}
	if got := TopCategories(txs, cats, 0); len(got) != 0 {
		t.Fatalf("limit 0 returned %d groups", len(got))
	}
}

func TestFilterDateBounds(t *testing.T) {
	inside := tx("in", "c1", core.Expense, 100, time.Date(2024, 1, 10, 23, 59, 59, 0, time.UTC))
	outside := tx("out", "c1", core.Expense, 100, time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC))
	before := tx("before", "c1", core.Expense, 100, time.Date(2024, 1, 4, 23, 0, 0, 0, time.UTC))
	from := tx("from", "c1", core.Expense, 100, day(2024, 1, 5))

	got := Filter([]core.Transaction{inside, outside, before, from}, Criteria{
		DateFrom: ptr(day(2024, 1, 5)),
		DateTo:   ptr(day(2024, 1, 10)),
	})
	ids := make([]string, len(got))
	for i, g := range got {
		ids[i] = g.ID
	}
	if !reflect.DeepEqual(ids, []string{"in", "from"}) {
		t.Fatalf("filtered ids = %v, want [in from]", ids)
	}
}

func TestFilterSearch(t *testing.T) {
	notes := "Weekly SHOP"
	a := tx("a", "c1", core.Expense, 8550, day(2024, 1, 1))
	a.Description = "Groceries"
	b := tx("b", "c3", core.Expense, 1200, day(2024, 1, 1))
	b.Notes = &notes
	c := tx("c", "c2", core.Income, 20000, day(2024, 1, 1))
	all := []core.Transaction{a, b, c}

	tests := []struct {
		name string
		f    Criteria
		want []string
	}{
		{"empty matches all", Criteria{}, []string{"a", "b", "c"}},
		{"description case-insensitive", Criteria{Search: "GROC"}, []string{"a"}},
		{"notes", Criteria{Search: "shop"}, []string{"b"}},
		{"amount literal", Criteria{Search: "85.5"}, []string{"a"}},
		{"category", Criteria{CategoryID: "c2"}, []string{"c"}},
		{"combined", Criteria{Search: "tx", CategoryID: "c3"}, []string{"b"}},
		{"no match", Criteria{Search: "zzz"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(all, tt.f)
			ids := make([]string, len(got))
			for i, g := range got {
				ids[i] = g.ID
			}
			if !reflect.DeepEqual(ids, tt.want) {
				t.Fatalf("ids = %v, want %v", ids, tt.want)
			}
			if again := Filter(got, tt.f); !reflect.DeepEqual(again, got) {
				t.Fatalf("Filter is not idempotent: %v vs %v", again, got)
			}
		})
	}
}

func TestMonthlyTotalsIn(t *testing.T) {
	txs := []core.Transaction{
		tx("1", "c1", core.Expense, 1000, day(2024, 1, 5)),
		tx("2", "c1", core.Expense, 500, day(2024, 1, 20)),
		tx("3", "c2", core.Income, 20000, day(2024, 1, 31)),
		tx("4", "c1", core.Expense, 300, day(2024, 2, 1)),
	}
	got := MonthlyTotalsIn(txs, time.UTC)
	want := map[string]map[string]core.Money{
		"2024-01": {"c1": core.Cents(1500), "c2": core.Cents(20000)},
		"2024-02": {"c1": core.Cents(300)},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("MonthlyTotalsIn() = %v, want %v", got, want)
	}

	// 23:30 UTC on Jan 31 is already February one hour east.
	late := tx("5", "c1", core.Expense, 100, time.Date(2024, 1, 31, 23, 30, 0, 0, time.UTC))
	east := time.FixedZone("UTC+1", 3600)
	if _, ok := MonthlyTotalsIn([]core.Transaction{late}, east)["2024-02"]; !ok {
		t.Fatal("month should follow the given location")
	}
}

func TestRecent(t *testing.T) {
	txs := []core.Transaction{
		tx("old", "c1", core.Expense, 1, day(2024, 1, 1)),
		tx("new", "c1", core.Expense, 1, day(2024, 3, 1)),
		tx("mid", "c1", core.Expense, 1, day(2024, 2, 1)),
	}
	got := Recent(txs, 2)
	if len(got) != 2 || got[0].ID != "new" || got[1].ID != "mid" {
		t.Fatalf("Recent() = %+v", got)
	}
	if txs[0].ID != "old" {
		t.Fatal("Recent must not reorder its input")
	}
	asc := SortByDate(txs, false)
	if asc[0].ID != "old" || asc[2].ID != "new" {
		t.Fatalf("SortByDate asc = %+v", asc)
	}
}
