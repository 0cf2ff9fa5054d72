// Package ledger holds the live ledger: categories, transactions, goals and
// recurring transactions behind a CRUD contract that enforces value and
// referential invariants.
//
// Each collection has its own lock. Operations that span collections take
// them in the order categories, transactions, recurring. Goals reference
// nothing and are locked alone. Values handed out are deep copies.
package ledger

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"budget/internal/core"
)

// Store is an in-memory ledger. The zero value is not usable; call New.
type Store struct {
	categories   collection[core.Category]
	transactions collection[core.Transaction]
	goals        collection[core.Goal]
	recurring    collection[core.RecurringTransaction]

	version atomic.Uint64
	now     func() time.Time
	newID   func() string
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used for createdAt/updatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDs overrides id generation. Mostly useful in tests.
func WithIDs(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// WithDefaultCategories seeds the store with core.DefaultCategories.
func WithDefaultCategories() Option {
	return func(s *Store) {
		ts := s.stamp()
		for _, seed := range core.DefaultCategories {
			s.categories.add(core.Category{
				ID:        s.newID(),
				Name:      seed.Name,
				Icon:      seed.Icon,
				Color:     seed.Color,
				Type:      seed.Type,
				CreatedAt: ts,
				UpdatedAt: ts,
			})
		}
	}
}

// New builds an empty Store. Options run in order, so WithClock and WithIDs
// must precede WithDefaultCategories to affect the seed.
func New(opts ...Option) *Store {
	s := &Store{
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
	}
	s.categories.init(func(c core.Category) string { return c.ID }, core.Category.Clone)
	s.transactions.init(func(t core.Transaction) string { return t.ID }, core.Transaction.Clone)
	s.goals.init(func(g core.Goal) string { return g.ID }, core.Goal.Clone)
	s.recurring.init(func(r core.RecurringTransaction) string { return r.ID }, core.RecurringTransaction.Clone)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Version increases on every successful mutation. Read caches key on it.
func (s *Store) Version() uint64 { return s.version.Load() }

func (s *Store) stamp() time.Time { return s.now().UTC() }

func (s *Store) bump() { s.version.Add(1) }

// Snapshot is a consistent copy of every collection.
type Snapshot struct {
	Categories   []core.Category
	Transactions []core.Transaction
	Goals        []core.Goal
	Recurring    []core.RecurringTransaction
}

// Snapshot copies all collections under read locks held together.
func (s *Store) Snapshot() Snapshot {
	s.categories.mu.RLock()
	defer s.categories.mu.RUnlock()
	s.transactions.mu.RLock()
	defer s.transactions.mu.RUnlock()
	s.recurring.mu.RLock()
	defer s.recurring.mu.RUnlock()
	s.goals.mu.RLock()
	defer s.goals.mu.RUnlock()

	return Snapshot{
		Categories:   s.categories.listLocked(),
		Transactions: s.transactions.listLocked(),
		Goals:        s.goals.listLocked(),
		Recurring:    s.recurring.listLocked(),
	}
}

// Restore replaces categories and transactions with the given sets, as
// loaded from a backup. The whole set is validated first; on any error the
// store is left untouched. Existing recurring entries must still resolve
// against the new categories.
func (s *Store) Restore(categories []core.Category, transactions []core.Transaction) error {
	s.categories.mu.Lock()
	defer s.categories.mu.Unlock()
	s.transactions.mu.Lock()
	defer s.transactions.mu.Unlock()
	s.recurring.mu.RLock()
	defer s.recurring.mu.RUnlock()

	byID := make(map[string]core.Category, len(categories))
	for i, c := range categories {
		if c.ID == "" {
			return fmt.Errorf("category %d: %w", i, core.Invalid("id", "is required"))
		}
		if _, dup := byID[c.ID]; dup {
			return fmt.Errorf("category %s: %w", c.ID, core.Invalid("id", "is duplicated"))
		}
		if err := c.Validate(); err != nil {
			return fmt.Errorf("category %s: %w", c.ID, err)
		}
		byID[c.ID] = c
	}
	seen := make(map[string]struct{}, len(transactions))
	for i, t := range transactions {
		if t.ID == "" {
			return fmt.Errorf("transaction %d: %w", i, core.Invalid("id", "is required"))
		}
		if _, dup := seen[t.ID]; dup {
			return fmt.Errorf("transaction %s: %w", t.ID, core.Invalid("id", "is duplicated"))
		}
		seen[t.ID] = struct{}{}
		if err := t.Validate(); err != nil {
			return fmt.Errorf("transaction %s: %w", t.ID, err)
		}
		if err := resolveIn(byID, t.CategoryID, t.Type); err != nil {
			return fmt.Errorf("transaction %s: %w", t.ID, err)
		}
	}
	for _, r := range s.recurring.items {
		if err := resolveIn(byID, r.CategoryID, r.Type); err != nil {
			return fmt.Errorf("recurring transaction %s: %w", r.ID, err)
		}
	}

	s.categories.replaceLocked(categories)
	s.transactions.replaceLocked(transactions)
	s.bump()
	return nil
}

// Reset clears every collection.
func (s *Store) Reset() {
	s.categories.mu.Lock()
	defer s.categories.mu.Unlock()
	s.transactions.mu.Lock()
	defer s.transactions.mu.Unlock()
	s.recurring.mu.Lock()
	defer s.recurring.mu.Unlock()
	s.goals.mu.Lock()
	defer s.goals.mu.Unlock()

	s.categories.replaceLocked(nil)
	s.transactions.replaceLocked(nil)
	s.recurring.replaceLocked(nil)
	s.goals.replaceLocked(nil)
	s.bump()
}

// resolveCategoryLocked checks that id names a live category of kind.
// The caller holds at least a read lock on categories.
func (s *Store) resolveCategoryLocked(id string, kind core.Kind) error {
	c, ok := s.categories.findLocked(id)
	if !ok {
		return &core.ReferenceError{CategoryID: id}
	}
	if c.Type != kind {
		return &core.ReferenceError{CategoryID: id, Want: kind, Got: c.Type}
	}
	return nil
}

func resolveIn(byID map[string]core.Category, id string, kind core.Kind) error {
	c, ok := byID[id]
	if !ok {
		return &core.ReferenceError{CategoryID: id}
	}
	if c.Type != kind {
		return &core.ReferenceError{CategoryID: id, Want: kind, Got: c.Type}
	}
	return nil
}

// collection is an insertion-ordered set of entities keyed by id.
type collection[T any] struct {
	mu    sync.RWMutex
	items []T
	id    func(T) string
	clone func(T) T
}

func (c *collection[T]) init(id func(T) string, clone func(T) T) {
	c.id = id
	c.clone = clone
}

func (c *collection[T]) list() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.listLocked()
}

func (c *collection[T]) listLocked() []T {
	out := make([]T, len(c.items))
	for i, it := range c.items {
		out[i] = c.clone(it)
	}
	return out
}

func (c *collection[T]) get(id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.findLocked(id)
}

func (c *collection[T]) findLocked(id string) (T, bool) {
	if i := c.indexLocked(id); i >= 0 {
		return c.clone(c.items[i]), true
	}
	var zero T
	return zero, false
}

func (c *collection[T]) indexLocked(id string) int {
	for i, it := range c.items {
		if c.id(it) == id {
			return i
		}
	}
	return -1
}

// add appends without locking; only used while building the store.
func (c *collection[T]) add(v T) { c.items = append(c.items, v) }

func (c *collection[T]) appendLocked(v T) { c.items = append(c.items, c.clone(v)) }

func (c *collection[T]) setLocked(i int, v T) { c.items[i] = c.clone(v) }

func (c *collection[T]) removeLocked(i int) {
	c.items = append(c.items[:i], c.items[i+1:]...)
}

func (c *collection[T]) replaceLocked(items []T) {
	next := make([]T, len(items))
	for i, it := range items {
		next[i] = c.clone(it)
	}
	c.items = next
}
