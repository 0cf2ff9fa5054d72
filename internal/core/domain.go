package core

import (
	"strings"
	"time"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

const maxDescriptionLength = 200

type (
	// Kind is the direction of money flow. It is shared by categories,
	// transactions and recurring transactions.
	Kind string

	// Frequency is the repetition period of a recurring transaction.
	Frequency string

	Category struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		Icon      string    `json:"icon"`
		Color     string    `json:"color"`
		Type      Kind      `json:"type"`
		CreatedAt time.Time `json:"createdAt"`
		UpdatedAt time.Time `json:"updatedAt"`
	}

	Transaction struct {
		ID          string    `json:"id"`
		Description string    `json:"description"`
		Amount      Money     `json:"amount"`
		Type        Kind      `json:"type"`
		CategoryID  string    `json:"categoryId"`
		Date        time.Time `json:"date"`
		Location    *string   `json:"location"`
		Notes       *string   `json:"notes"`
		Tags        []string  `json:"tags"`
		CreatedAt   time.Time `json:"createdAt"`
		UpdatedAt   time.Time `json:"updatedAt"`
	}

	Goal struct {
		ID            string     `json:"id"`
		Name          string     `json:"name"`
		Description   *string    `json:"description"`
		TargetAmount  Money      `json:"targetAmount"`
		CurrentAmount Money      `json:"currentAmount"`
		Deadline      *time.Time `json:"deadline"`
		Color         string     `json:"color"`
		IsCompleted   bool       `json:"isCompleted"`
		CreatedAt     time.Time  `json:"createdAt"`
		UpdatedAt     time.Time  `json:"updatedAt"`
	}

	RecurringTransaction struct {
		ID           string     `json:"id"`
		Description  string     `json:"description"`
		Amount       Money      `json:"amount"`
		Type         Kind       `json:"type"`
		CategoryID   string     `json:"categoryId"`
		Frequency    Frequency  `json:"frequency"`
		NextDue      time.Time  `json:"nextDue"`
		LastExecuted *time.Time `json:"lastExecuted"`
		IsActive     bool       `json:"isActive"`
		EndDate      *time.Time `json:"endDate"`
		Notes        *string    `json:"notes"`
		CreatedAt    time.Time  `json:"createdAt"`
		UpdatedAt    time.Time  `json:"updatedAt"`
	}
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	return k == Income || k == Expense
}

// Valid reports whether f is one of the known frequencies.
func (f Frequency) Valid() bool {
	switch f {
	case Daily, Weekly, Monthly, Yearly:
		return true
	default:
		return false
	}
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return Invalid("name", "is required")
	}
	if !c.Type.Valid() {
		return Invalid("type", "must be income or expense")
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := validateDescription(t.Description); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return Invalid("amount", "must be greater than zero")
	}
	if !t.Type.Valid() {
		return Invalid("type", "must be income or expense")
	}
	if strings.TrimSpace(t.CategoryID) == "" {
		return Invalid("categoryId", "is required")
	}
	if t.Date.IsZero() {
		return Invalid("date", "is required")
	}
	return nil
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return Invalid("name", "is required")
	}
	if err := g.TargetAmount.Validate(); err != nil {
		return Invalid("targetAmount", "must be greater than zero")
	}
	if g.CurrentAmount.IsNegative() {
		return Invalid("currentAmount", "cannot be negative")
	}
	return nil
}

func (r RecurringTransaction) Validate() error {
	if err := validateDescription(r.Description); err != nil {
		return err
	}
	if err := r.Amount.Validate(); err != nil {
		return Invalid("amount", "must be greater than zero")
	}
	if !r.Type.Valid() {
		return Invalid("type", "must be income or expense")
	}
	if strings.TrimSpace(r.CategoryID) == "" {
		return Invalid("categoryId", "is required")
	}
	if !r.Frequency.Valid() {
		return Invalid("frequency", "must be daily, weekly, monthly or yearly")
	}
	if r.NextDue.IsZero() {
		return Invalid("nextDue", "is required")
	}
	if r.EndDate != nil && r.EndDate.Before(r.NextDue) {
		return Invalid("endDate", "must not be before nextDue")
	}
	return nil
}

// Reached reports whether the current amount covers the target.
func (g Goal) Reached() bool {
	return g.CurrentAmount.Cents >= g.TargetAmount.Cents
}

// Progress returns the completion percentage, uncapped.
func (g Goal) Progress() float64 {
	if g.TargetAmount.Cents <= 0 {
		return 0
	}
	return float64(g.CurrentAmount.Cents) / float64(g.TargetAmount.Cents) * 100
}

// Remaining returns how much is left to reach the target, never below zero.
func (g Goal) Remaining() Money {
	left := g.TargetAmount.Sub(g.CurrentAmount)
	if left.IsNegative() {
		return Money{}
	}
	return left
}

// IsOverdue reports whether an incomplete goal has a deadline in the past.
func (g Goal) IsOverdue(now time.Time) bool {
	return g.Deadline != nil && !g.IsCompleted && g.Deadline.Before(now)
}

func validateDescription(desc string) error {
	if len(strings.TrimSpace(desc)) == 0 {
		return Invalid("description", "is required")
	}
	if len(desc) > maxDescriptionLength {
		return Invalid("description", "too long (max 200 characters)")
	}
	return nil
}
