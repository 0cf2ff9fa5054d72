package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"budget/internal/aggregate"
	"budget/internal/core"
)

const (
	maxBodyBytes  = 10 << 20
	dateOnly      = "2006-01-02"
	defaultTop    = 5
	defaultRecent = 10
)

// decodeJSON reads one JSON document from the body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		var ve *core.ValidationError
		if errors.As(err, &ve) {
			return err
		}
		if errors.Is(err, io.EOF) {
			return malformed("request body is empty")
		}
		return malformed("invalid JSON body: " + err.Error())
	}
	return nil
}

// parseTime accepts a calendar date (2024-01-15, midnight UTC) or RFC 3339.
func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateOnly, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

// dateValue is a JSON time that also accepts plain calendar dates.
type dateValue struct{ time.Time }

func (d *dateValue) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		d.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	t, err := parseTime(s)
	if err != nil {
		return fmt.Errorf("invalid date %q", s)
	}
	d.Time = t
	return nil
}

func (d *dateValue) ptr() *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}

// optionalDate tells an absent field from an explicit null or "", which
// clears the stored date.
type optionalDate struct {
	Set   bool
	Value *time.Time
}

func (o *optionalDate) UnmarshalJSON(data []byte) error {
	var d dateValue
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	o.Set = true
	o.Value = d.ptr()
	return nil
}

func (o optionalDate) cleared() bool { return o.Set && o.Value == nil }

// parseCriteria reads search, categoryId, dateFrom and dateTo.
func parseCriteria(q url.Values) (aggregate.Criteria, error) {
	c := aggregate.Criteria{
		Search:     strings.TrimSpace(q.Get("search")),
		CategoryID: strings.TrimSpace(q.Get("categoryId")),
	}
	for _, p := range []struct {
		key string
		dst **time.Time
	}{{"dateFrom", &c.DateFrom}, {"dateTo", &c.DateTo}} {
		v := strings.TrimSpace(q.Get(p.key))
		if v == "" {
			continue
		}
		t, err := parseTime(v)
		if err != nil {
			return aggregate.Criteria{}, core.Invalid(p.key, "must be YYYY-MM-DD or RFC 3339")
		}
		*p.dst = &t
	}
	return c, nil
}

// parseLimit reads a non-negative integer query parameter.
func parseLimit(q url.Values, key string, def int) (int, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, core.Invalid(key, "must be a non-negative integer")
	}
	return n, nil
}

// parseAsOf reads the asOf parameter, defaulting to now.
func parseAsOf(q url.Values, now time.Time) (time.Time, error) {
	v := strings.TrimSpace(q.Get("asOf"))
	if v == "" {
		return now, nil
	}
	t, err := parseTime(v)
	if err != nil {
		return time.Time{}, core.Invalid("asOf", "must be YYYY-MM-DD or RFC 3339")
	}
	return t, nil
}

type transactionInput struct {
	Description string     `json:"description"`
	Amount      core.Money `json:"amount"`
	Type        core.Kind  `json:"type"`
	CategoryID  string     `json:"categoryId"`
	Date        dateValue  `json:"date"`
	Location    *string    `json:"location"`
	Notes       *string    `json:"notes"`
	Tags        []string   `json:"tags"`
}

func (in transactionInput) transaction() core.Transaction {
	return core.Transaction{
		Description: in.Description,
		Amount:      in.Amount,
		Type:        in.Type,
		CategoryID:  in.CategoryID,
		Date:        in.Date.Time,
		Location:    optional(in.Location),
		Notes:       optional(in.Notes),
		Tags:        in.Tags,
	}
}

type transactionPatchInput struct {
	Description *string     `json:"description"`
	Amount      *core.Money `json:"amount"`
	Type        *core.Kind  `json:"type"`
	CategoryID  *string     `json:"categoryId"`
	Date        *dateValue  `json:"date"`
	Location    *string     `json:"location"`
	Notes       *string     `json:"notes"`
	Tags        *[]string   `json:"tags"`
}

func (in transactionPatchInput) patch() core.TransactionPatch {
	return core.TransactionPatch{
		Description: in.Description,
		Amount:      in.Amount,
		Type:        in.Type,
		CategoryID:  in.CategoryID,
		Date:        in.Date.ptr(),
		Location:    in.Location,
		Notes:       in.Notes,
		Tags:        in.Tags,
	}
}

type goalInput struct {
	Name          string     `json:"name"`
	Description   *string    `json:"description"`
	TargetAmount  core.Money `json:"targetAmount"`
	CurrentAmount core.Money `json:"currentAmount"`
	Deadline      *dateValue `json:"deadline"`
	Color         string     `json:"color"`
	IsCompleted   bool       `json:"isCompleted"`
}

func (in goalInput) goal() core.Goal {
	return core.Goal{
		Name:          in.Name,
		Description:   optional(in.Description),
		TargetAmount:  in.TargetAmount,
		CurrentAmount: in.CurrentAmount,
		Deadline:      in.Deadline.ptr(),
		Color:         in.Color,
		IsCompleted:   in.IsCompleted,
	}
}

type goalPatchInput struct {
	Name          *string      `json:"name"`
	Description   *string      `json:"description"`
	TargetAmount  *core.Money  `json:"targetAmount"`
	CurrentAmount *core.Money  `json:"currentAmount"`
	Deadline      optionalDate `json:"deadline"`
	Color         *string      `json:"color"`
	IsCompleted   *bool        `json:"isCompleted"`
}

func (in goalPatchInput) patch() core.GoalPatch {
	return core.GoalPatch{
		Name:          in.Name,
		Description:   in.Description,
		TargetAmount:  in.TargetAmount,
		CurrentAmount: in.CurrentAmount,
		Deadline:      in.Deadline.Value,
		ClearDeadline: in.Deadline.cleared(),
		Color:         in.Color,
		IsCompleted:   in.IsCompleted,
	}
}

// recurringInput defaults isActive to true when the field is absent.
type recurringInput struct {
	Description string         `json:"description"`
	Amount      core.Money     `json:"amount"`
	Type        core.Kind      `json:"type"`
	CategoryID  string         `json:"categoryId"`
	Frequency   core.Frequency `json:"frequency"`
	NextDue     dateValue      `json:"nextDue"`
	IsActive    *bool          `json:"isActive"`
	EndDate     *dateValue     `json:"endDate"`
	Notes       *string        `json:"notes"`
}

func (in recurringInput) recurring() core.RecurringTransaction {
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	return core.RecurringTransaction{
		Description: in.Description,
		Amount:      in.Amount,
		Type:        in.Type,
		CategoryID:  in.CategoryID,
		Frequency:   in.Frequency,
		NextDue:     in.NextDue.Time,
		IsActive:    active,
		EndDate:     in.EndDate.ptr(),
		Notes:       optional(in.Notes),
	}
}

type recurringPatchInput struct {
	Description *string         `json:"description"`
	Amount      *core.Money     `json:"amount"`
	Type        *core.Kind      `json:"type"`
	CategoryID  *string         `json:"categoryId"`
	Frequency   *core.Frequency `json:"frequency"`
	NextDue     *dateValue      `json:"nextDue"`
	IsActive    *bool           `json:"isActive"`
	EndDate     optionalDate    `json:"endDate"`
	Notes       *string         `json:"notes"`
}

func (in recurringPatchInput) patch() core.RecurringPatch {
	return core.RecurringPatch{
		Description:  in.Description,
		Amount:       in.Amount,
		Type:         in.Type,
		CategoryID:   in.CategoryID,
		Frequency:    in.Frequency,
		NextDue:      in.NextDue.ptr(),
		IsActive:     in.IsActive,
		EndDate:      in.EndDate.Value,
		ClearEndDate: in.EndDate.cleared(),
		Notes:        in.Notes,
	}
}

func optional(s *string) *string {
	if s == nil {
		return nil
	}
	return core.OptionalText(*s)
}
