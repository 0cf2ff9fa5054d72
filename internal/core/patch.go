package core

import (
	"strings"
	"time"
)

// Patches carry optional fields for update operations. A nil field leaves the
// stored value untouched. For optional text fields, a pointer to an empty
// string clears the value; optional dates are cleared with their Clear flag.

type CategoryPatch struct {
	Name  *string `json:"name,omitempty"`
	Icon  *string `json:"icon,omitempty"`
	Color *string `json:"color,omitempty"`
	Type  *Kind   `json:"type,omitempty"`
}

type TransactionPatch struct {
	Description *string    `json:"description,omitempty"`
	Amount      *Money     `json:"amount,omitempty"`
	Type        *Kind      `json:"type,omitempty"`
	CategoryID  *string    `json:"categoryId,omitempty"`
	Date        *time.Time `json:"date,omitempty"`
	Location    *string    `json:"location,omitempty"`
	Notes       *string    `json:"notes,omitempty"`
	Tags        *[]string  `json:"tags,omitempty"`
}

type GoalPatch struct {
	Name          *string    `json:"name,omitempty"`
	Description   *string    `json:"description,omitempty"`
	TargetAmount  *Money     `json:"targetAmount,omitempty"`
	CurrentAmount *Money     `json:"currentAmount,omitempty"`
	Deadline      *time.Time `json:"deadline,omitempty"`
	ClearDeadline bool       `json:"clearDeadline,omitempty"`
	Color         *string    `json:"color,omitempty"`
	IsCompleted   *bool      `json:"isCompleted,omitempty"`
}

type RecurringPatch struct {
	Description  *string    `json:"description,omitempty"`
	Amount       *Money     `json:"amount,omitempty"`
	Type         *Kind      `json:"type,omitempty"`
	CategoryID   *string    `json:"categoryId,omitempty"`
	Frequency    *Frequency `json:"frequency,omitempty"`
	NextDue      *time.Time `json:"nextDue,omitempty"`
	LastExecuted *time.Time `json:"lastExecuted,omitempty"`
	IsActive     *bool      `json:"isActive,omitempty"`
	EndDate      *time.Time `json:"endDate,omitempty"`
	ClearEndDate bool       `json:"clearEndDate,omitempty"`
	Notes        *string    `json:"notes,omitempty"`
}

// Apply returns c with the patch merged in.
func (p CategoryPatch) Apply(c Category) Category {
	if p.Name != nil {
		c.Name = strings.TrimSpace(*p.Name)
	}
	if p.Icon != nil {
		c.Icon = *p.Icon
	}
	if p.Color != nil {
		c.Color = *p.Color
	}
	if p.Type != nil {
		c.Type = *p.Type
	}
	return c
}

func (p TransactionPatch) Apply(t Transaction) Transaction {
	if p.Description != nil {
		t.Description = strings.TrimSpace(*p.Description)
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.CategoryID != nil {
		t.CategoryID = *p.CategoryID
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.Location != nil {
		t.Location = OptionalText(*p.Location)
	}
	if p.Notes != nil {
		t.Notes = OptionalText(*p.Notes)
	}
	if p.Tags != nil {
		t.Tags = append([]string{}, (*p.Tags)...)
	}
	return t
}

func (p GoalPatch) Apply(g Goal) Goal {
	if p.Name != nil {
		g.Name = strings.TrimSpace(*p.Name)
	}
	if p.Description != nil {
		g.Description = OptionalText(*p.Description)
	}
	if p.TargetAmount != nil {
		g.TargetAmount = *p.TargetAmount
	}
	if p.CurrentAmount != nil {
		g.CurrentAmount = *p.CurrentAmount
	}
	switch {
	case p.ClearDeadline:
		g.Deadline = nil
	case p.Deadline != nil:
		d := *p.Deadline
		g.Deadline = &d
	}
	if p.Color != nil {
		g.Color = *p.Color
	}
	if p.IsCompleted != nil {
		g.IsCompleted = *p.IsCompleted
	}
	return g
}

func (p RecurringPatch) Apply(r RecurringTransaction) RecurringTransaction {
	if p.Description != nil {
		r.Description = strings.TrimSpace(*p.Description)
	}
	if p.Amount != nil {
		r.Amount = *p.Amount
	}
	if p.Type != nil {
		r.Type = *p.Type
	}
	if p.CategoryID != nil {
		r.CategoryID = *p.CategoryID
	}
	if p.Frequency != nil {
		r.Frequency = *p.Frequency
	}
	if p.NextDue != nil {
		r.NextDue = *p.NextDue
	}
	if p.LastExecuted != nil {
		t := *p.LastExecuted
		r.LastExecuted = &t
	}
	if p.IsActive != nil {
		r.IsActive = *p.IsActive
	}
	switch {
	case p.ClearEndDate:
		r.EndDate = nil
	case p.EndDate != nil:
		t := *p.EndDate
		r.EndDate = &t
	}
	if p.Notes != nil {
		r.Notes = OptionalText(*p.Notes)
	}
	return r
}

// OptionalText trims s and returns nil for an empty result.
func OptionalText(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Clone helpers return deep copies so callers never share pointers or
// slices with the store.

func (t Transaction) Clone() Transaction {
	t.Location = cloneString(t.Location)
	t.Notes = cloneString(t.Notes)
	if t.Tags != nil {
		t.Tags = append([]string{}, t.Tags...)
	}
	return t
}

func (g Goal) Clone() Goal {
	g.Description = cloneString(g.Description)
	g.Deadline = cloneTime(g.Deadline)
	return g
}

func (r RecurringTransaction) Clone() RecurringTransaction {
	r.LastExecuted = cloneTime(r.LastExecuted)
	r.EndDate = cloneTime(r.EndDate)
	r.Notes = cloneString(r.Notes)
	return r
}

func (c Category) Clone() Category { return c }

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
