// Package core provides the ledger entity model and money handling.
//
// Money is stored as integer cents. The wire form is a two-decimal string
// ("85.50"); decoding also accepts JSON numbers and comma decimals, and rounds
// half-up to cents.
package core

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an exact amount in cents. The sign is meaningful only for derived
// totals; stored entity amounts are always positive.
type Money struct {
	Cents int64
}

// Cents builds a Money value.
func Cents(c int64) Money { return Money{Cents: c} }

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return Invalid("amount", "must be greater than zero")
	}
	return nil
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }
func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }
func (m Money) Neg() Money        { return Money{Cents: -m.Cents} }
func (m Money) IsZero() bool      { return m.Cents == 0 }
func (m Money) IsNegative() bool  { return m.Cents < 0 }

// Abs returns the magnitude of m.
func (m Money) Abs() Money {
	if m.Cents < 0 {
		return m.Neg()
	}
	return m
}

// Decimal returns m as an exact decimal in currency units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String formats m with exactly two decimals, e.g. "85.50" or "-3.00".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(m.String())), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = Money{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		str, err := strconv.Unquote(string(data))
		if err != nil {
			return Invalid("amount", "not a decimal number")
		}
		v, err := ParseMoney(str)
		if err != nil {
			return err
		}
		*m = v
		return nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return Invalid("amount", "not a decimal number")
	}
	v, err := FromDecimal(d)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

var maxCents = decimal.NewFromInt(math.MaxInt64)

// FromDecimal converts d to cents, rounding half away from zero. Amounts
// that do not fit in int64 cents are rejected.
func FromDecimal(d decimal.Decimal) (Money, error) {
	c := d.Shift(2).Round(0)
	if c.Abs().GreaterThan(maxCents) {
		return Money{}, Invalid("amount", "out of range")
	}
	return Money{Cents: c.IntPart()}, nil
}

// ParseMoney parses a decimal string that may be signed. A single comma is
// read as the decimal separator ("12,34").
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, Invalid("amount", "not a decimal number")
	}
	return FromDecimal(d)
}
