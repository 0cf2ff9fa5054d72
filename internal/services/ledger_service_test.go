package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"budget/internal/amqp"
	"budget/internal/core"
	"budget/internal/ledger"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []amqp.LedgerEvent
	err    error
}

func (p *recordingPublisher) PublishLedgerEvent(_ context.Context, ev *amqp.LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, *ev)
	return p.err
}

func (p *recordingPublisher) ops() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Entity + ":" + ev.Op
	}
	return out
}

func newService(t *testing.T, pub EventPublisher) (*LedgerService, core.Category) {
	t.Helper()
	svc := NewLedgerService(ledger.New(), pub)
	cat, err := svc.CreateCategory(context.Background(), core.Category{Name: "Rent", Type: core.Expense})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	return svc, cat
}

func TestLedgerService_PublishesEvents(t *testing.T) {
	pub := &recordingPublisher{}
	svc, cat := newService(t, pub)
	ctx := context.Background()

	tx, err := svc.CreateTransaction(ctx, core.Transaction{
		Description: "rent", Amount: core.Cents(1000), Type: core.Expense,
		CategoryID: cat.ID, Date: date(2024, 1, 1),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.DeleteTransaction(ctx, tx.ID); err != nil {
		t.Fatal(err)
	}
	// failed mutations publish nothing
	if err := svc.DeleteTransaction(ctx, tx.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	got := pub.ops()
	want := []string{"category:create", "transaction:create", "transaction:delete"}
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("events = %v, want %v", got, want)
		}
	}
	if pub.events[2].Version != svc.Store().Version() {
		t.Errorf("event version = %d, want %d", pub.events[2].Version, svc.Store().Version())
	}
}

func TestLedgerService_PublishFailureDoesNotFailMutation(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc, cat := newService(t, pub)

	g, err := svc.CreateGoal(context.Background(), core.Goal{Name: "bike", TargetAmount: core.Cents(100)})
	if err != nil {
		t.Fatalf("CreateGoal() error = %v", err)
	}
	if _, err := svc.Store().GetGoal(g.ID); err != nil {
		t.Fatalf("goal not stored: %v", err)
	}
	if cat.ID == "" {
		t.Fatal("category should have an id")
	}
}

func TestLedgerService_NilPublisher(t *testing.T) {
	svc, _ := newService(t, nil)
	svc.Reset(context.Background())
	if n := len(svc.Store().ListCategories()); n != 0 {
		t.Fatalf("Reset left %d categories", n)
	}
}

func TestLedgerService_ToggleAndAdvance(t *testing.T) {
	pub := &recordingPublisher{}
	svc, cat := newService(t, pub)
	ctx := context.Background()

	r, err := svc.CreateRecurring(ctx, core.RecurringTransaction{
		Description: "rent", Amount: core.Cents(90000), Type: core.Expense, CategoryID: cat.ID,
		Frequency: core.Monthly, NextDue: date(2024, 1, 15), IsActive: true,
	})
	if err != nil {
		t.Fatal(err)
	}

	toggled, err := svc.ToggleRecurring(ctx, r.ID)
	if err != nil || toggled.IsActive {
		t.Fatalf("ToggleRecurring() = %+v, %v", toggled, err)
	}

	advanced, err := svc.AdvanceRecurring(ctx, r.ID, date(2024, 1, 20))
	if err != nil {
		t.Fatal(err)
	}
	if !advanced.NextDue.Equal(date(2024, 2, 15)) {
		t.Errorf("NextDue = %v, want 2024-02-15", advanced.NextDue)
	}
	if advanced.LastExecuted == nil || !advanced.LastExecuted.Equal(date(2024, 1, 20)) {
		t.Errorf("LastExecuted = %v, want 2024-01-20", advanced.LastExecuted)
	}
	if n := len(svc.Store().ListTransactions()); n != 0 {
		t.Errorf("AdvanceRecurring created %d transactions", n)
	}

	if _, err := svc.ToggleRecurring(ctx, "ghost"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRecurringProcessor_ProcessDue(t *testing.T) {
	svc, cat := newService(t, nil)
	ctx := context.Background()
	asOf := time.Date(2024, 1, 20, 8, 0, 0, 0, time.UTC)

	due, err := svc.CreateRecurring(ctx, core.RecurringTransaction{
		Description: "rent", Amount: core.Cents(90000), Type: core.Expense, CategoryID: cat.ID,
		Frequency: core.Monthly, NextDue: date(2024, 1, 15), IsActive: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range []core.RecurringTransaction{
		{Description: "future", Amount: core.Cents(1), Type: core.Expense, CategoryID: cat.ID,
			Frequency: core.Weekly, NextDue: date(2024, 2, 1), IsActive: true},
		{Description: "paused", Amount: core.Cents(1), Type: core.Expense, CategoryID: cat.ID,
			Frequency: core.Weekly, NextDue: date(2024, 1, 1)},
	} {
		if _, err := svc.CreateRecurring(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	p := NewRecurringProcessor(svc)
	n, err := p.ProcessDue(ctx, asOf)
	if err != nil {
		t.Fatalf("ProcessDue() error = %v", err)
	}
	if n != 1 {
		t.Fatalf("processed %d entries, want 1", n)
	}

	txs := svc.Store().ListTransactions()
	if len(txs) != 1 {
		t.Fatalf("have %d transactions, want 1", len(txs))
	}
	if txs[0].Description != "rent" || !txs[0].Date.Equal(date(2024, 1, 15)) || txs[0].Amount.Cents != 90000 {
		t.Errorf("unexpected materialized transaction %+v", txs[0])
	}

	after, err := svc.Store().GetRecurring(due.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !after.NextDue.Equal(date(2024, 2, 15)) {
		t.Errorf("NextDue = %v, want 2024-02-15", after.NextDue)
	}

	// a second tick at the same instant finds nothing due
	if n, _ := p.ProcessDue(ctx, asOf); n != 0 {
		t.Errorf("second ProcessDue() processed %d entries", n)
	}
}

func TestRecurringProcessor_NotInitialized(t *testing.T) {
	if _, err := NewRecurringProcessor(nil).ProcessDue(context.Background(), time.Now()); err == nil {
		t.Fatal("expected error for nil ledger")
	}
}

func TestRecurringProcessor_EndedScheduleBooksOnce(t *testing.T) {
	svc, cat := newService(t, nil)
	ctx := context.Background()
	end := date(2024, 3, 15)

	r, err := svc.CreateRecurring(ctx, core.RecurringTransaction{
		Description: "last rent", Amount: core.Cents(90000), Type: core.Expense, CategoryID: cat.ID,
		Frequency: core.Monthly, NextDue: end, EndDate: &end, IsActive: true,
	})
	if err != nil {
		t.Fatal(err)
	}

	p := NewRecurringProcessor(svc)
	if n, err := p.ProcessDue(ctx, date(2024, 3, 20)); err != nil || n != 1 {
		t.Fatalf("ProcessDue() = %d, %v; want 1, nil", n, err)
	}
	paused, err := svc.Store().GetRecurring(r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if paused.IsActive {
		t.Fatal("entry still active after its last occurrence")
	}

	if _, err := svc.ToggleRecurring(ctx, r.ID); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("resuming an ended schedule: expected ErrValidation, got %v", err)
	}

	// force it active through a patch; the booked occurrence is still skipped
	active := true
	if _, err := svc.UpdateRecurring(ctx, r.ID, core.RecurringPatch{IsActive: &active}); err != nil {
		t.Fatal(err)
	}
	if n, err := p.ProcessDue(ctx, date(2024, 3, 21)); err != nil || n != 0 {
		t.Fatalf("second ProcessDue() = %d, %v; want 0, nil", n, err)
	}

	booked := 0
	for _, tx := range svc.Store().ListTransactions() {
		if tx.Date.Equal(end) {
			booked++
		}
	}
	if booked != 1 {
		t.Errorf("occurrence %s booked %d times, want 1", end.Format("2006-01-02"), booked)
	}
}
