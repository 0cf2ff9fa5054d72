package ledger

import (
	"strings"

	"budget/internal/core"
)

func (s *Store) ListRecurring() []core.RecurringTransaction { return s.recurring.list() }

func (s *Store) GetRecurring(id string) (core.RecurringTransaction, error) {
	r, ok := s.recurring.get(id)
	if !ok {
		return core.RecurringTransaction{}, &core.NotFoundError{Entity: "recurring transaction", ID: id}
	}
	return r, nil
}

func (s *Store) CreateRecurring(r core.RecurringTransaction) (core.RecurringTransaction, error) {
	r.Description = strings.TrimSpace(r.Description)
	if err := r.Validate(); err != nil {
		return core.RecurringTransaction{}, err
	}

	s.categories.mu.RLock()
	defer s.categories.mu.RUnlock()
	if err := s.resolveCategoryLocked(r.CategoryID, r.Type); err != nil {
		return core.RecurringTransaction{}, err
	}

	ts := s.stamp()
	r.ID = s.newID()
	r.CreatedAt, r.UpdatedAt = ts, ts

	s.recurring.mu.Lock()
	defer s.recurring.mu.Unlock()
	s.recurring.appendLocked(r)
	s.bump()
	return r.Clone(), nil
}

func (s *Store) UpdateRecurring(id string, p core.RecurringPatch) (core.RecurringTransaction, error) {
	s.categories.mu.RLock()
	defer s.categories.mu.RUnlock()
	s.recurring.mu.Lock()
	defer s.recurring.mu.Unlock()

	i := s.recurring.indexLocked(id)
	if i < 0 {
		return core.RecurringTransaction{}, &core.NotFoundError{Entity: "recurring transaction", ID: id}
	}
	cur := s.recurring.items[i]
	next := p.Apply(cur.Clone())
	next.ID = cur.ID
	next.CreatedAt = cur.CreatedAt
	if err := next.Validate(); err != nil {
		return core.RecurringTransaction{}, err
	}
	if err := s.resolveCategoryLocked(next.CategoryID, next.Type); err != nil {
		return core.RecurringTransaction{}, err
	}
	next.UpdatedAt = s.stamp()
	s.recurring.setLocked(i, next)
	s.bump()
	return next, nil
}

// SaveSchedule stores a fully computed recurring entry, as produced by
// the scheduler. The id must exist.
func (s *Store) SaveSchedule(r core.RecurringTransaction) (core.RecurringTransaction, error) {
	return s.UpdateRecurring(r.ID, core.RecurringPatch{
		NextDue:      &r.NextDue,
		LastExecuted: r.LastExecuted,
		IsActive:     &r.IsActive,
	})
}

func (s *Store) DeleteRecurring(id string) error {
	s.recurring.mu.Lock()
	defer s.recurring.mu.Unlock()

	i := s.recurring.indexLocked(id)
	if i < 0 {
		return &core.NotFoundError{Entity: "recurring transaction", ID: id}
	}
	s.recurring.removeLocked(i)
	s.bump()
	return nil
}
