package services

import (
	"context"
	"log/slog"
	"time"

	"budget/internal/amqp"
	"budget/internal/core"
	"budget/internal/ledger"
)

// EventPublisher sends ledger change events. *amqp.Client satisfies it.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, ev *amqp.LedgerEvent) error
}

// LedgerService applies mutations to the store and announces each committed
// change. Publishing is best effort: a failed publish is logged and the
// mutation still succeeds.
type LedgerService struct {
	store  *ledger.Store
	events EventPublisher
}

// NewLedgerService wires store and an optional publisher (nil disables events).
func NewLedgerService(store *ledger.Store, events EventPublisher) *LedgerService {
	return &LedgerService{store: store, events: events}
}

// Store exposes the underlying store for read paths.
func (s *LedgerService) Store() *ledger.Store { return s.store }

func (s *LedgerService) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	out, err := s.store.CreateCategory(c)
	if err != nil {
		return core.Category{}, err
	}
	s.announce(ctx, amqp.EntityCategory, amqp.OpCreate, out.ID)
	return out, nil
}

func (s *LedgerService) UpdateCategory(ctx context.Context, id string, p core.CategoryPatch) (core.Category, error) {
	out, err := s.store.UpdateCategory(id, p)
	if err != nil {
		return core.Category{}, err
	}
	s.announce(ctx, amqp.EntityCategory, amqp.OpUpdate, id)
	return out, nil
}

func (s *LedgerService) DeleteCategory(ctx context.Context, id string) error {
	if err := s.store.DeleteCategory(id); err != nil {
		return err
	}
	s.announce(ctx, amqp.EntityCategory, amqp.OpDelete, id)
	return nil
}

func (s *LedgerService) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	out, err := s.store.CreateTransaction(t)
	if err != nil {
		return core.Transaction{}, err
	}
	s.announce(ctx, amqp.EntityTransaction, amqp.OpCreate, out.ID)
	return out, nil
}

func (s *LedgerService) UpdateTransaction(ctx context.Context, id string, p core.TransactionPatch) (core.Transaction, error) {
	out, err := s.store.UpdateTransaction(id, p)
	if err != nil {
		return core.Transaction{}, err
	}
	s.announce(ctx, amqp.EntityTransaction, amqp.OpUpdate, id)
	return out, nil
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, id string) error {
	if err := s.store.DeleteTransaction(id); err != nil {
		return err
	}
	s.announce(ctx, amqp.EntityTransaction, amqp.OpDelete, id)
	return nil
}

func (s *LedgerService) CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	out, err := s.store.CreateGoal(g)
	if err != nil {
		return core.Goal{}, err
	}
	s.announce(ctx, amqp.EntityGoal, amqp.OpCreate, out.ID)
	return out, nil
}

func (s *LedgerService) UpdateGoal(ctx context.Context, id string, p core.GoalPatch) (core.Goal, error) {
	out, err := s.store.UpdateGoal(id, p)
	if err != nil {
		return core.Goal{}, err
	}
	s.announce(ctx, amqp.EntityGoal, amqp.OpUpdate, id)
	return out, nil
}

func (s *LedgerService) DeleteGoal(ctx context.Context, id string) error {
	if err := s.store.DeleteGoal(id); err != nil {
		return err
	}
	s.announce(ctx, amqp.EntityGoal, amqp.OpDelete, id)
	return nil
}

func (s *LedgerService) CreateRecurring(ctx context.Context, r core.RecurringTransaction) (core.RecurringTransaction, error) {
	out, err := s.store.CreateRecurring(r)
	if err != nil {
		return core.RecurringTransaction{}, err
	}
	s.announce(ctx, amqp.EntityRecurring, amqp.OpCreate, out.ID)
	return out, nil
}

func (s *LedgerService) UpdateRecurring(ctx context.Context, id string, p core.RecurringPatch) (core.RecurringTransaction, error) {
	out, err := s.store.UpdateRecurring(id, p)
	if err != nil {
		return core.RecurringTransaction{}, err
	}
	s.announce(ctx, amqp.EntityRecurring, amqp.OpUpdate, id)
	return out, nil
}

func (s *LedgerService) DeleteRecurring(ctx context.Context, id string) error {
	if err := s.store.DeleteRecurring(id); err != nil {
		return err
	}
	s.announce(ctx, amqp.EntityRecurring, amqp.OpDelete, id)
	return nil
}

// ToggleRecurring pauses an active entry or resumes a paused one. An entry
// whose last occurrence before EndDate is booked cannot be resumed.
func (s *LedgerService) ToggleRecurring(ctx context.Context, id string) (core.RecurringTransaction, error) {
	r, err := s.store.GetRecurring(id)
	if err != nil {
		return core.RecurringTransaction{}, err
	}
	toggled := Toggle(r)
	if toggled.IsActive && Finished(r) {
		return core.RecurringTransaction{}, core.Invalid("isActive", "schedule has ended")
	}
	return s.UpdateRecurring(ctx, id, core.RecurringPatch{IsActive: &toggled.IsActive})
}

// AdvanceRecurring moves the schedule of id past asOf without creating a
// transaction.
func (s *LedgerService) AdvanceRecurring(ctx context.Context, id string, asOf time.Time) (core.RecurringTransaction, error) {
	r, err := s.store.GetRecurring(id)
	if err != nil {
		return core.RecurringTransaction{}, err
	}
	return s.saveSchedule(ctx, r, asOf)
}

func (s *LedgerService) saveSchedule(ctx context.Context, r core.RecurringTransaction, asOf time.Time) (core.RecurringTransaction, error) {
	next, err := Advance(r, asOf)
	if err != nil {
		return core.RecurringTransaction{}, err
	}
	out, err := s.store.SaveSchedule(next)
	if err != nil {
		return core.RecurringTransaction{}, err
	}
	s.announce(ctx, amqp.EntityRecurring, amqp.OpUpdate, out.ID)
	return out, nil
}

// Restore replaces categories and transactions from a backup.
func (s *LedgerService) Restore(ctx context.Context, categories []core.Category, transactions []core.Transaction) error {
	if err := s.store.Restore(categories, transactions); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Ledger restored",
		"categories", len(categories),
		"transactions", len(transactions))
	s.announce(ctx, amqp.EntityLedger, amqp.OpRestore, "")
	return nil
}

// Reset clears the whole ledger.
func (s *LedgerService) Reset(ctx context.Context) {
	s.store.Reset()
	slog.WarnContext(ctx, "Ledger cleared")
	s.announce(ctx, amqp.EntityLedger, amqp.OpReset, "")
}

func (s *LedgerService) announce(ctx context.Context, entity, op, id string) {
	if s.events == nil {
		slog.DebugContext(ctx, "AMQP client not available, skipping ledger event",
			"entity", entity, "op", op)
		return
	}
	ev := amqp.NewLedgerEvent(entity, op, id, s.store.Version())
	if err := s.events.PublishLedgerEvent(ctx, ev); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"entity", entity,
			"op", op,
			"id", id,
			"error", err)
	}
}
