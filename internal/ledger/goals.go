package ledger

import (
	"strings"

	"budget/internal/core"
)

func (s *Store) ListGoals() []core.Goal { return s.goals.list() }

func (s *Store) GetGoal(id string) (core.Goal, error) {
	g, ok := s.goals.get(id)
	if !ok {
		return core.Goal{}, &core.NotFoundError{Entity: "goal", ID: id}
	}
	return g, nil
}

// CreateGoal stores g. IsCompleted is kept when set by the caller and forced
// on once currentAmount reaches targetAmount. Amounts are never clamped.
func (s *Store) CreateGoal(g core.Goal) (core.Goal, error) {
	g.Name = strings.TrimSpace(g.Name)
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}
	g.IsCompleted = g.IsCompleted || g.Reached()
	ts := s.stamp()
	g.ID = s.newID()
	g.CreatedAt, g.UpdatedAt = ts, ts

	s.goals.mu.Lock()
	defer s.goals.mu.Unlock()
	s.goals.appendLocked(g)
	s.bump()
	return g.Clone(), nil
}

func (s *Store) UpdateGoal(id string, p core.GoalPatch) (core.Goal, error) {
	s.goals.mu.Lock()
	defer s.goals.mu.Unlock()

	i := s.goals.indexLocked(id)
	if i < 0 {
		return core.Goal{}, &core.NotFoundError{Entity: "goal", ID: id}
	}
	cur := s.goals.items[i]
	next := p.Apply(cur.Clone())
	next.ID = cur.ID
	next.CreatedAt = cur.CreatedAt
	if err := next.Validate(); err != nil {
		return core.Goal{}, err
	}
	next.IsCompleted = next.IsCompleted || next.Reached()
	next.UpdatedAt = s.stamp()
	s.goals.setLocked(i, next)
	s.bump()
	return next, nil
}

func (s *Store) DeleteGoal(id string) error {
	s.goals.mu.Lock()
	defer s.goals.mu.Unlock()

	i := s.goals.indexLocked(id)
	if i < 0 {
		return &core.NotFoundError{Entity: "goal", ID: id}
	}
	s.goals.removeLocked(i)
	s.bump()
	return nil
}
