package ledger

import (
	"strings"

	"budget/internal/core"
)

func (s *Store) ListCategories() []core.Category { return s.categories.list() }

func (s *Store) GetCategory(id string) (core.Category, error) {
	c, ok := s.categories.get(id)
	if !ok {
		return core.Category{}, &core.NotFoundError{Entity: "category", ID: id}
	}
	return c, nil
}

// CreateCategory validates c, assigns an id and stamps it.
func (s *Store) CreateCategory(c core.Category) (core.Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	ts := s.stamp()
	c.ID = s.newID()
	c.CreatedAt, c.UpdatedAt = ts, ts

	s.categories.mu.Lock()
	defer s.categories.mu.Unlock()
	s.categories.appendLocked(c)
	s.bump()
	return c, nil
}

// UpdateCategory merges p into the stored category. A type change is
// rejected while transactions or recurring entries still reference it.
func (s *Store) UpdateCategory(id string, p core.CategoryPatch) (core.Category, error) {
	s.categories.mu.Lock()
	defer s.categories.mu.Unlock()
	s.transactions.mu.RLock()
	defer s.transactions.mu.RUnlock()
	s.recurring.mu.RLock()
	defer s.recurring.mu.RUnlock()

	i := s.categories.indexLocked(id)
	if i < 0 {
		return core.Category{}, &core.NotFoundError{Entity: "category", ID: id}
	}
	cur := s.categories.items[i]
	next := p.Apply(cur)
	next.ID = cur.ID
	next.CreatedAt = cur.CreatedAt
	if err := next.Validate(); err != nil {
		return core.Category{}, err
	}
	if next.Type != cur.Type {
		if n := s.referencesLocked(id); n > 0 {
			return core.Category{}, &core.ReferenceError{CategoryID: id, Referenced: n}
		}
	}
	next.UpdatedAt = s.stamp()
	s.categories.setLocked(i, next)
	s.bump()
	return next, nil
}

// DeleteCategory removes an unreferenced category.
func (s *Store) DeleteCategory(id string) error {
	s.categories.mu.Lock()
	defer s.categories.mu.Unlock()
	s.transactions.mu.RLock()
	defer s.transactions.mu.RUnlock()
	s.recurring.mu.RLock()
	defer s.recurring.mu.RUnlock()

	i := s.categories.indexLocked(id)
	if i < 0 {
		return &core.NotFoundError{Entity: "category", ID: id}
	}
	if n := s.referencesLocked(id); n > 0 {
		return &core.ReferenceError{CategoryID: id, Referenced: n}
	}
	s.categories.removeLocked(i)
	s.bump()
	return nil
}

// referencesLocked counts transactions and recurring entries that point at
// category id. Caller holds read locks on both collections.
func (s *Store) referencesLocked(id string) int {
	n := 0
	for _, t := range s.transactions.items {
		if t.CategoryID == id {
			n++
		}
	}
	for _, r := range s.recurring.items {
		if r.CategoryID == id {
			n++
		}
	}
	return n
}
