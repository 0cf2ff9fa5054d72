// Package services holds the recurring scheduler and the services that
// orchestrate the ledger store with its collaborators.
//
// Schedule stepping follows a strategy per frequency. Each Stepper computes
// the n-th occurrence after a base date, so calendar steps stay anchored on
// the original day of month instead of drifting after a short month.
package services

import (
	"fmt"
	"time"

	"budget/internal/core"
)

// Stepper computes occurrences for one frequency.
type Stepper interface {
	// Step returns the n-th occurrence after base, n >= 1.
	Step(base time.Time, n int) time.Time
}

// DailyStepper adds calendar days.
type DailyStepper struct{}

func (DailyStepper) Step(base time.Time, n int) time.Time { return base.AddDate(0, 0, n) }

// WeeklyStepper adds seven calendar days per step.
type WeeklyStepper struct{}

func (WeeklyStepper) Step(base time.Time, n int) time.Time { return base.AddDate(0, 0, 7*n) }

// MonthlyStepper adds calendar months, clamping to the last day of shorter
// months. Step(Jan 31, 2) is Mar 31, while two single Advance calls give
// Jan 31 -> Feb 29 -> Mar 29.
type MonthlyStepper struct{}

func (MonthlyStepper) Step(base time.Time, n int) time.Time { return addMonthsClamped(base, n) }

// YearlyStepper adds calendar years; Feb 29 falls back to Feb 28.
type YearlyStepper struct{}

func (YearlyStepper) Step(base time.Time, n int) time.Time { return addMonthsClamped(base, 12*n) }

var steppers = map[core.Frequency]Stepper{
	core.Daily:   DailyStepper{},
	core.Weekly:  WeeklyStepper{},
	core.Monthly: MonthlyStepper{},
	core.Yearly:  YearlyStepper{},
}

// GetStepper returns the stepper registered for f.
func GetStepper(f core.Frequency) (Stepper, error) {
	s, ok := steppers[f]
	if !ok {
		return nil, fmt.Errorf("unknown frequency: %s", f)
	}
	return s, nil
}

// RegisterStepper adds or replaces the stepper for f.
func RegisterStepper(f core.Frequency, s Stepper) {
	steppers[f] = s
}

func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := daysIn(first); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

// IsOverdue reports whether r.NextDue is strictly before now. Paused
// entries can be overdue too.
func IsOverdue(r core.RecurringTransaction, now time.Time) bool {
	return r.NextDue.Before(now)
}

// Booked reports whether the occurrence at r.NextDue was already executed.
// Advance leaves NextDue in place when it pauses an entry at EndDate.
func Booked(r core.RecurringTransaction) bool {
	return r.LastExecuted != nil && !r.LastExecuted.Before(r.NextDue)
}

// Finished reports whether r has no occurrence left before EndDate.
func Finished(r core.RecurringTransaction) bool {
	if r.EndDate == nil || !Booked(r) {
		return false
	}
	stepper, err := GetStepper(r.Frequency)
	if err != nil {
		return false
	}
	return stepper.Step(r.NextDue, 1).After(*r.EndDate)
}

// Toggle flips IsActive and leaves the schedule alone.
func Toggle(r core.RecurringTransaction) core.RecurringTransaction {
	out := r.Clone()
	out.IsActive = !out.IsActive
	return out
}

// Advance moves NextDue forward by whole periods, at least one, until it is
// strictly after asOf, and records asOf as LastExecuted. When the new
// occurrence would fall after EndDate the entry is paused and NextDue kept.
//
// Advance is not idempotent for a repeated asOf; callers invoke it once per
// elapsed period.
func Advance(r core.RecurringTransaction, asOf time.Time) (core.RecurringTransaction, error) {
	stepper, err := GetStepper(r.Frequency)
	if err != nil {
		return core.RecurringTransaction{}, err
	}

	next := stepper.Step(r.NextDue, 1)
	for n := 2; !next.After(asOf); n++ {
		next = stepper.Step(r.NextDue, n)
	}

	out := r.Clone()
	executed := asOf
	out.LastExecuted = &executed
	if out.EndDate != nil && next.After(*out.EndDate) {
		out.IsActive = false
		return out, nil
	}
	out.NextDue = next
	return out, nil
}
