package core

import (
	"errors"
	"testing"
	"time"
)

func TestTransactionValidate(t *testing.T) {
	date := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	good := Transaction{
		Description: "ok",
		Amount:      Cents(100),
		Type:        Expense,
		CategoryID:  "c1",
		Date:        date,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := map[string]Transaction{
		"description": {Amount: Cents(1), Type: Expense, CategoryID: "c", Date: date},
		"amount":      {Description: "a", Amount: Cents(0), Type: Expense, CategoryID: "c", Date: date},
		"type":        {Description: "a", Amount: Cents(1), Type: "transfer", CategoryID: "c", Date: date},
		"categoryId":  {Description: "a", Amount: Cents(1), Type: Expense, Date: date},
		"date":        {Description: "a", Amount: Cents(1), Type: Expense, CategoryID: "c"},
	}
	for field, tx := range bads {
		err := tx.Validate()
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("%s: expected ValidationError, got %v", field, err)
		}
		if ve.Field != field {
			t.Errorf("%s: error field = %q", field, ve.Field)
		}
	}
}

func TestRecurringValidate(t *testing.T) {
	due := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	r := RecurringTransaction{
		Description: "rent",
		Amount:      Cents(90000),
		Type:        Expense,
		CategoryID:  "c1",
		Frequency:   Monthly,
		NextDue:     due,
	}
	if err := r.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	r.Frequency = "hourly"
	if err := r.Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for frequency, got %v", err)
	}

	r.Frequency = Monthly
	before := due.AddDate(0, 0, -1)
	r.EndDate = &before
	if err := r.Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for end date, got %v", err)
	}
}

func TestGoalProgress(t *testing.T) {
	g := Goal{Name: "bike", TargetAmount: Cents(50000), CurrentAmount: Cents(12500)}
	if err := g.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if got := g.Progress(); got != 25 {
		t.Errorf("Progress() = %v, want 25", got)
	}
	if got := g.Remaining(); got.Cents != 37500 {
		t.Errorf("Remaining() = %v, want 375.00", got)
	}
	if g.Reached() {
		t.Error("Reached() should be false")
	}

	g.CurrentAmount = Cents(60000)
	if got := g.Remaining(); !got.IsZero() {
		t.Errorf("Remaining() over target = %v, want 0", got)
	}
	if got := g.Progress(); got != 120 {
		t.Errorf("Progress() over target = %v, want 120", got)
	}

	g.CurrentAmount = Cents(-1)
	if err := g.Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for negative current amount, got %v", err)
	}
}

func TestGoalIsOverdue(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	past := now.AddDate(0, -1, 0)
	g := Goal{Deadline: &past}
	if !g.IsOverdue(now) {
		t.Error("expected overdue")
	}
	g.IsCompleted = true
	if g.IsOverdue(now) {
		t.Error("completed goal should not be overdue")
	}
}

func TestErrorsUnwrap(t *testing.T) {
	if !errors.Is(&NotFoundError{Entity: "goal", ID: "x"}, ErrNotFound) {
		t.Error("NotFoundError should unwrap to ErrNotFound")
	}
	ref := &ReferenceError{CategoryID: "c9"}
	if !errors.Is(ref, ErrReference) {
		t.Error("ReferenceError should unwrap to ErrReference")
	}
	if ref.Error() != "category c9 does not exist" {
		t.Errorf("unexpected message %q", ref.Error())
	}
}

func TestPatchApply(t *testing.T) {
	notes := "weekly"
	tx := Transaction{ID: "t1", Description: "groceries", Notes: &notes, Tags: []string{"a"}}
	empty := ""
	desc := "  market  "
	tags := []string{"b", "c"}
	got := TransactionPatch{Description: &desc, Notes: &empty, Tags: &tags}.Apply(tx)
	if got.ID != "t1" || got.Description != "market" || got.Notes != nil {
		t.Fatalf("unexpected patch result: %+v", got)
	}
	tags[0] = "mutated"
	if got.Tags[0] != "b" {
		t.Fatal("patched tags should not alias the patch slice")
	}
}

func TestPatchClearsOptionalDates(t *testing.T) {
	deadline := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	later := deadline.AddDate(0, 1, 0)

	tests := []struct {
		name  string
		patch GoalPatch
		want  *time.Time
	}{
		{"untouched", GoalPatch{}, &deadline},
		{"replaced", GoalPatch{Deadline: &later}, &later},
		{"cleared", GoalPatch{ClearDeadline: true}, nil},
		{"clear wins", GoalPatch{Deadline: &later, ClearDeadline: true}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := Goal{Name: "trip", Deadline: &deadline}
			got := tt.patch.Apply(g).Deadline
			if (got == nil) != (tt.want == nil) || (got != nil && !got.Equal(*tt.want)) {
				t.Errorf("Deadline = %v, want %v", got, tt.want)
			}
		})
	}

	r := RecurringTransaction{Description: "rent", EndDate: &deadline}
	if got := (RecurringPatch{ClearEndDate: true}).Apply(r); got.EndDate != nil {
		t.Errorf("EndDate = %v, want cleared", got.EndDate)
	}
	if got := (RecurringPatch{}).Apply(r); got.EndDate == nil || !got.EndDate.Equal(deadline) {
		t.Errorf("EndDate = %v, want unchanged", got.EndDate)
	}
}
