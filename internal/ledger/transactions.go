package ledger

import (
	"strings"

	"budget/internal/core"
)

func (s *Store) ListTransactions() []core.Transaction { return s.transactions.list() }

func (s *Store) GetTransaction(id string) (core.Transaction, error) {
	t, ok := s.transactions.get(id)
	if !ok {
		return core.Transaction{}, &core.NotFoundError{Entity: "transaction", ID: id}
	}
	return t, nil
}

// CreateTransaction validates t, resolves its category and stores it.
func (s *Store) CreateTransaction(t core.Transaction) (core.Transaction, error) {
	t.Description = strings.TrimSpace(t.Description)
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	s.categories.mu.RLock()
	defer s.categories.mu.RUnlock()
	if err := s.resolveCategoryLocked(t.CategoryID, t.Type); err != nil {
		return core.Transaction{}, err
	}

	ts := s.stamp()
	t.ID = s.newID()
	t.CreatedAt, t.UpdatedAt = ts, ts

	s.transactions.mu.Lock()
	defer s.transactions.mu.Unlock()
	s.transactions.appendLocked(t)
	s.bump()
	return t.Clone(), nil
}

func (s *Store) UpdateTransaction(id string, p core.TransactionPatch) (core.Transaction, error) {
	s.categories.mu.RLock()
	defer s.categories.mu.RUnlock()
	s.transactions.mu.Lock()
	defer s.transactions.mu.Unlock()

	i := s.transactions.indexLocked(id)
	if i < 0 {
		return core.Transaction{}, &core.NotFoundError{Entity: "transaction", ID: id}
	}
	cur := s.transactions.items[i]
	next := p.Apply(cur.Clone())
	next.ID = cur.ID
	next.CreatedAt = cur.CreatedAt
	if err := next.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.resolveCategoryLocked(next.CategoryID, next.Type); err != nil {
		return core.Transaction{}, err
	}
	next.UpdatedAt = s.stamp()
	s.transactions.setLocked(i, next)
	s.bump()
	return next, nil
}

func (s *Store) DeleteTransaction(id string) error {
	s.transactions.mu.Lock()
	defer s.transactions.mu.Unlock()

	i := s.transactions.indexLocked(id)
	if i < 0 {
		return &core.NotFoundError{Entity: "transaction", ID: id}
	}
	s.transactions.removeLocked(i)
	s.bump()
	return nil
}
