package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"budget/internal/cache"
	"budget/internal/core"
	"budget/internal/ledger"
	"budget/internal/services"
	"budget/internal/sheets/memory"
	"budget/internal/storage"
)

var testNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	srv    *Server
	store  *ledger.Store
	sheets *memory.Writer
}

func newTestEnv(t *testing.T, withIntegrations bool) *testEnv {
	t.Helper()
	store := ledger.New(ledger.WithClock(func() time.Time { return testNow }))
	svc := services.NewLedgerService(store, nil)
	deps := Deps{
		Ledger: svc,
		Cache:  cache.NewLRUCache[[]byte](64, time.Minute),
		Now:    func() time.Time { return testNow },
	}
	env := &testEnv{store: store}
	if withIntegrations {
		repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "archive.db"))
		if err != nil {
			t.Fatalf("NewSQLiteRepository() error = %v", err)
		}
		t.Cleanup(func() { repo.Close() })
		env.sheets = memory.New()
		deps.Archive = repo
		deps.Sheets = services.NewReportSync(store, env.sheets, services.DefaultReportSyncConfig())
	}
	env.srv = NewServer(":0", deps)
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("status = %d, want %d; body = %s", rr.Code, want, rr.Body.String())
	}
}

func (e *testEnv) category(t *testing.T, name string, kind core.Kind) core.Category {
	t.Helper()
	rr := e.do(t, http.MethodPost, "/api/categories", `{"name":"`+name+`","type":"`+string(kind)+`"}`)
	expectStatus(t, rr, http.StatusCreated)
	return decode[core.Category](t, rr)
}

func (e *testEnv) transaction(t *testing.T, catID string, kind core.Kind, amount, date string) core.Transaction {
	t.Helper()
	body := `{"description":"entry","amount":"` + amount + `","type":"` + string(kind) + `","categoryId":"` + catID + `","date":"` + date + `"}`
	rr := e.do(t, http.MethodPost, "/api/transactions", body)
	expectStatus(t, rr, http.StatusCreated)
	return decode[core.Transaction](t, rr)
}

func TestHealthAndReady(t *testing.T) {
	env := newTestEnv(t, true)
	for _, path := range []string{"/healthz", "/readyz"} {
		expectStatus(t, env.do(t, http.MethodGet, path, ""), http.StatusOK)
	}
	rr := env.do(t, http.MethodGet, "/nope", "")
	expectStatus(t, rr, http.StatusNotFound)
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}
}

func TestCategoryCRUD(t *testing.T) {
	env := newTestEnv(t, false)
	c := env.category(t, "Food", core.Expense)
	if c.ID == "" || !c.CreatedAt.Equal(testNow) {
		t.Fatalf("unexpected category %+v", c)
	}

	rr := env.do(t, http.MethodPut, "/api/categories/"+c.ID, `{"name":"Groceries"}`)
	expectStatus(t, rr, http.StatusOK)
	if got := decode[core.Category](t, rr); got.Name != "Groceries" || got.Type != core.Expense {
		t.Fatalf("update result %+v", got)
	}

	expectStatus(t, env.do(t, http.MethodGet, "/api/categories/"+c.ID, ""), http.StatusOK)
	expectStatus(t, env.do(t, http.MethodDelete, "/api/categories/"+c.ID, ""), http.StatusNoContent)
	expectStatus(t, env.do(t, http.MethodGet, "/api/categories/"+c.ID, ""), http.StatusNotFound)

	list := decode[[]core.Category](t, env.do(t, http.MethodGet, "/api/categories", ""))
	if len(list) != 0 {
		t.Fatalf("expected empty list, got %d", len(list))
	}
}

func TestErrorMapping(t *testing.T) {
	env := newTestEnv(t, false)
	food := env.category(t, "Food", core.Expense)
	env.transaction(t, food.ID, core.Expense, "12.50", "2024-03-01")

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		field  string
	}{
		{"malformed json", http.MethodPost, "/api/transactions", `{"description":`, http.StatusBadRequest, ""},
		{"empty body", http.MethodPost, "/api/categories", "", http.StatusBadRequest, ""},
		{"missing amount", http.MethodPost, "/api/transactions",
			`{"description":"x","type":"expense","categoryId":"` + food.ID + `","date":"2024-03-01"}`, http.StatusUnprocessableEntity, "amount"},
		{"bad amount", http.MethodPost, "/api/transactions",
			`{"description":"x","amount":"abc","type":"expense","categoryId":"` + food.ID + `","date":"2024-03-01"}`, http.StatusUnprocessableEntity, "amount"},
		{"unknown category", http.MethodPost, "/api/transactions",
			`{"description":"x","amount":"1.00","type":"expense","categoryId":"missing","date":"2024-03-01"}`, http.StatusConflict, ""},
		{"type mismatch", http.MethodPost, "/api/transactions",
			`{"description":"x","amount":"1.00","type":"income","categoryId":"` + food.ID + `","date":"2024-03-01"}`, http.StatusConflict, ""},
		{"delete referenced category", http.MethodDelete, "/api/categories/" + food.ID, "", http.StatusConflict, ""},
		{"update missing goal", http.MethodPut, "/api/goals/missing", `{"name":"x"}`, http.StatusNotFound, ""},
		{"bad dateFrom", http.MethodGet, "/api/transactions?dateFrom=yesterday", "", http.StatusUnprocessableEntity, "dateFrom"},
		{"negative limit", http.MethodGet, "/api/top-categories?limit=-1", "", http.StatusUnprocessableEntity, "limit"},
		{"archive not configured", http.MethodGet, "/api/backups", "", http.StatusServiceUnavailable, ""},
		{"sheets not configured", http.MethodPost, "/api/export/sheets", "", http.StatusServiceUnavailable, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, tt.method, tt.path, tt.body)
			expectStatus(t, rr, tt.status)
			body := decode[errorBody](t, rr)
			if body.Error == "" {
				t.Error("error message missing")
			}
			if body.Field != tt.field {
				t.Errorf("field = %q, want %q", body.Field, tt.field)
			}
		})
	}
}

func TestSummaryAndCacheInvalidation(t *testing.T) {
	env := newTestEnv(t, false)
	salary := env.category(t, "Salary", core.Income)
	food := env.category(t, "Food", core.Expense)
	env.transaction(t, salary.ID, core.Income, "200", "2024-03-01")
	env.transaction(t, food.ID, core.Expense, "50.00", "2024-03-02")

	type summary struct {
		TotalIncome   string `json:"totalIncome"`
		TotalExpenses string `json:"totalExpenses"`
		Balance       string `json:"balance"`
		Count         int    `json:"transactionCount"`
	}
	for i := 0; i < 2; i++ {
		got := decode[summary](t, env.do(t, http.MethodGet, "/api/summary", ""))
		want := summary{"200.00", "50.00", "150.00", 2}
		if got != want {
			t.Fatalf("summary = %+v, want %+v", got, want)
		}
	}
	if st := env.srv.deps.Cache.Stats(); st.Hits != 1 {
		t.Fatalf("cache hits = %d, want 1", st.Hits)
	}

	env.transaction(t, food.ID, core.Expense, "25", "2024-03-03")
	got := decode[summary](t, env.do(t, http.MethodGet, "/api/summary", ""))
	if got.TotalExpenses != "75.00" || got.Count != 3 {
		t.Fatalf("summary after mutation = %+v", got)
	}

	filtered := decode[summary](t, env.do(t, http.MethodGet, "/api/summary?categoryId="+food.ID, ""))
	if filtered.TotalIncome != "0.00" || filtered.Count != 2 {
		t.Fatalf("filtered summary = %+v", filtered)
	}
}

func TestAggregationRoutes(t *testing.T) {
	env := newTestEnv(t, false)
	food := env.category(t, "Food", core.Expense)
	fun := env.category(t, "Fun", core.Expense)
	env.transaction(t, food.ID, core.Expense, "5", "2024-02-20")
	env.transaction(t, food.ID, core.Expense, "5", "2024-03-01T15:00:00Z")
	env.transaction(t, fun.ID, core.Expense, "30", "2024-03-05")

	txs := decode[[]core.Transaction](t, env.do(t, http.MethodGet, "/api/transactions?dateFrom=2024-03-01&dateTo=2024-03-01", ""))
	if len(txs) != 1 || txs[0].Date.Hour() != 15 {
		t.Fatalf("dateTo should include the whole day: %+v", txs)
	}

	type group struct {
		Category core.Category `json:"category"`
		Total    string        `json:"total"`
	}
	groups := decode[[]group](t, env.do(t, http.MethodGet, "/api/groups", ""))
	if len(groups) != 2 || groups[0].Category.ID != fun.ID || groups[1].Total != "10.00" {
		t.Fatalf("groups = %+v", groups)
	}

	top := decode[[]group](t, env.do(t, http.MethodGet, "/api/top-categories?limit=1", ""))
	if len(top) != 1 || top[0].Category.ID != fun.ID {
		t.Fatalf("top = %+v", top)
	}
	if none := decode[[]group](t, env.do(t, http.MethodGet, "/api/top-categories?limit=0", "")); len(none) != 0 {
		t.Fatalf("limit=0 should return no groups, got %d", len(none))
	}

	monthly := decode[map[string]map[string]string](t, env.do(t, http.MethodGet, "/api/monthly", ""))
	if monthly["2024-03"][fun.ID] != "30.00" {
		t.Fatalf("monthly = %+v", monthly)
	}

	recent := decode[[]core.Transaction](t, env.do(t, http.MethodGet, "/api/recent?limit=2", ""))
	if len(recent) != 2 || recent[0].CategoryID != fun.ID {
		t.Fatalf("recent = %+v", recent)
	}
}

func TestGoalRoutes(t *testing.T) {
	env := newTestEnv(t, false)
	rr := env.do(t, http.MethodPost, "/api/goals", `{"name":"Trip","targetAmount":"1000","currentAmount":"250","deadline":"2024-01-01"}`)
	expectStatus(t, rr, http.StatusCreated)
	g := decode[goalView](t, rr)
	if g.Progress != 25 || g.Remaining.Cents != 75000 || !g.IsOverdue || g.IsCompleted {
		t.Fatalf("goal view = %+v", g)
	}

	rr = env.do(t, http.MethodPut, "/api/goals/"+g.ID, `{"currentAmount":"1000"}`)
	expectStatus(t, rr, http.StatusOK)
	if got := decode[goalView](t, rr); !got.IsCompleted || got.IsOverdue {
		t.Fatalf("reached goal should be completed and not overdue: %+v", got)
	}

	rr = env.do(t, http.MethodPut, "/api/goals/"+g.ID, `{"deadline":null}`)
	expectStatus(t, rr, http.StatusOK)
	if got := decode[goalView](t, rr); got.Deadline != nil {
		t.Fatalf("deadline should be cleared: %v", got.Deadline)
	}
}

func TestRecurringRoutes(t *testing.T) {
	env := newTestEnv(t, false)
	rent := env.category(t, "Rent", core.Expense)

	rr := env.do(t, http.MethodPost, "/api/recurring",
		`{"description":"Rent","amount":"800","type":"expense","categoryId":"`+rent.ID+`","frequency":"monthly","nextDue":"2024-01-31"}`)
	expectStatus(t, rr, http.StatusCreated)
	rec := decode[recurringView](t, rr)
	if !rec.IsActive || !rec.IsOverdue {
		t.Fatalf("new entry should default active and be overdue: %+v", rec)
	}

	rr = env.do(t, http.MethodPost, "/api/recurring/"+rec.ID+"/toggle", "")
	expectStatus(t, rr, http.StatusOK)
	if decode[recurringView](t, rr).IsActive {
		t.Fatal("toggle should pause the entry")
	}
	expectStatus(t, env.do(t, http.MethodPost, "/api/recurring/"+rec.ID+"/toggle", ""), http.StatusOK)

	rr = env.do(t, http.MethodPost, "/api/recurring/process?asOf=2024-02-01", "")
	expectStatus(t, rr, http.StatusOK)
	if n := decode[map[string]any](t, rr)["processed"]; n != float64(1) {
		t.Fatalf("processed = %v, want 1", n)
	}
	txs := env.store.ListTransactions()
	if len(txs) != 1 || !txs[0].Date.Equal(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("materialized transactions = %+v", txs)
	}

	rr = env.do(t, http.MethodPost, "/api/recurring/"+rec.ID+"/advance?asOf=2024-03-15", "")
	expectStatus(t, rr, http.StatusOK)
	got := decode[recurringView](t, rr)
	if want := time.Date(2024, 3, 29, 0, 0, 0, 0, time.UTC); !got.NextDue.Equal(want) {
		t.Fatalf("nextDue = %v, want %v", got.NextDue, want)
	}
	if len(env.store.ListTransactions()) != 1 {
		t.Fatal("advance must not create transactions")
	}

	paused := env.do(t, http.MethodPost, "/api/recurring",
		`{"description":"Gym","amount":"20","type":"expense","categoryId":"`+rent.ID+`","frequency":"weekly","nextDue":"2024-03-01","isActive":false}`)
	expectStatus(t, paused, http.StatusCreated)
	if decode[recurringView](t, paused).IsActive {
		t.Fatal("explicit isActive=false must be kept")
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	env := newTestEnv(t, false)
	food := env.category(t, "Food", core.Expense)
	env.transaction(t, food.ID, core.Expense, "12.34", "2024-03-01")

	rr := env.do(t, http.MethodGet, "/api/export/json", "")
	expectStatus(t, rr, http.StatusOK)
	if !strings.Contains(rr.Header().Get("Content-Disposition"), "budget-backup-20240310.json") {
		t.Errorf("Content-Disposition = %q", rr.Header().Get("Content-Disposition"))
	}
	backup := rr.Body.String()

	expectStatus(t, env.do(t, http.MethodDelete, "/api/ledger", ""), http.StatusNoContent)
	if len(env.store.ListCategories()) != 0 {
		t.Fatal("reset should clear categories")
	}

	rr = env.do(t, http.MethodPost, "/api/import", backup)
	expectStatus(t, rr, http.StatusOK)
	if res := decode[restoreResult](t, rr); res.Categories != 1 || res.Transactions != 1 {
		t.Fatalf("restore result = %+v", res)
	}
	txs := env.store.ListTransactions()
	if len(txs) != 1 || txs[0].Amount.Cents != 1234 || txs[0].CategoryID != food.ID {
		t.Fatalf("restored transactions = %+v", txs)
	}

	expectStatus(t, env.do(t, http.MethodPost, "/api/import", `{"version":"2.0"}`), http.StatusUnprocessableEntity)
	expectStatus(t, env.do(t, http.MethodPost, "/api/import", `not json`), http.StatusBadRequest)

	csv := env.do(t, http.MethodGet, "/api/export/csv", "")
	expectStatus(t, csv, http.StatusOK)
	if !strings.HasPrefix(csv.Body.String(), "Date,Description,Category,Type,Amount") {
		t.Fatalf("csv = %q", csv.Body.String())
	}
	expectStatus(t, env.do(t, http.MethodGet, "/api/export/report.csv", ""), http.StatusOK)
	rec := env.do(t, http.MethodGet, "/api/export/recurring.csv", "")
	expectStatus(t, rec, http.StatusOK)
	if !strings.HasPrefix(rec.Body.String(), "Description,Category,Type,Amount,Frequency") {
		t.Fatalf("recurring csv = %q", rec.Body.String())
	}
}

func TestBackupArchiveAndSheets(t *testing.T) {
	env := newTestEnv(t, true)
	food := env.category(t, "Food", core.Expense)
	env.transaction(t, food.ID, core.Expense, "9.99", "2024-03-01")

	rr := env.do(t, http.MethodPost, "/api/backups?label=before", "")
	expectStatus(t, rr, http.StatusCreated)
	info := decode[storage.BackupInfo](t, rr)
	if info.Label != "before" || info.TransactionCount != 1 {
		t.Fatalf("backup info = %+v", info)
	}

	env.transaction(t, food.ID, core.Expense, "1.00", "2024-03-02")
	expectStatus(t, env.do(t, http.MethodPost, "/api/backups/"+info.ID+"/restore", ""), http.StatusOK)
	if n := len(env.store.ListTransactions()); n != 1 {
		t.Fatalf("transactions after restore = %d, want 1", n)
	}

	list := decode[[]storage.BackupInfo](t, env.do(t, http.MethodGet, "/api/backups", ""))
	if len(list) != 1 {
		t.Fatalf("backups = %+v", list)
	}
	expectStatus(t, env.do(t, http.MethodPost, "/api/backups/missing/restore", ""), http.StatusNotFound)
	expectStatus(t, env.do(t, http.MethodDelete, "/api/backups/"+info.ID, ""), http.StatusNoContent)

	rr = env.do(t, http.MethodPost, "/api/export/sheets", "")
	expectStatus(t, rr, http.StatusOK)
	if ref := decode[map[string]string](t, rr)["ref"]; !strings.HasPrefix(ref, "mem:Report:") {
		t.Fatalf("ref = %q", ref)
	}
	if _, ok := env.sheets.Table("Transactions"); !ok {
		t.Fatal("transactions sheet not written")
	}
}
