// Package money holds monetary values as integer minor units. Decimal text is
// only ever parsed or produced at the edges; arithmetic stays on int64.
package money

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of minor-unit digits (cents).
const Scale = 2

var (
	// ErrInvalidAmount is returned for text that is not a decimal number.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrTooPrecise is returned when an amount has more than Scale fraction digits.
	ErrTooPrecise = errors.New("amount has more than 2 decimal places")
	// ErrOutOfRange is returned when an amount exceeds MaxAmount or a sum
	// leaves the int64 range.
	ErrOutOfRange = errors.New("amount out of range")
)

// MaxAmount bounds a single stored amount (10^13 major units). Sums of
// thousands of maximal entries still fit in int64; Add catches the rest.
const MaxAmount Amount = 1_000_000_000_000_000

var (
	maxAmount = decimal.New(int64(MaxAmount), -Scale)
	minAmount = maxAmount.Neg()
)

// Amount is a signed count of minor units. Negative values appear only as
// derived balances (overpayment); stored charges and payments are positive.
type Amount int64

// FromMinor wraps a minor-unit count.
func FromMinor(minor int64) Amount { return Amount(minor) }

// FromMajor builds an amount from whole major units, e.g. FromMajor(3000000).
func FromMajor(major int64) Amount { return Amount(major * 100) }

// Parse reads a decimal string such as "1200000", "0.01" or "-3.5".
func Parse(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return FromDecimal(d)
}

// FromDecimal converts a decimal, rejecting sub-minor precision instead of rounding.
func FromDecimal(d decimal.Decimal) (Amount, error) {
	if d.GreaterThan(maxAmount) || d.LessThan(minAmount) {
		return 0, ErrOutOfRange
	}
	shifted := d.Shift(Scale)
	if !shifted.IsInteger() {
		return 0, ErrTooPrecise
	}
	return Amount(shifted.IntPart()), nil
}

// Minor returns the raw minor-unit count.
func (a Amount) Minor() int64 { return int64(a) }

// Decimal returns the amount in major units.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -Scale)
}

// String renders the shortest exact decimal, e.g. "3000000" or "0.01".
func (a Amount) String() string {
	return a.Decimal().String()
}

// Fixed renders with exactly two decimals, e.g. "3000000.00".
func (a Amount) Fixed() string {
	return a.Decimal().StringFixed(Scale)
}

// IsPositive reports a > 0.
func (a Amount) IsPositive() bool { return a > 0 }

// Add returns a+b, or ErrOutOfRange if the result overflows int64.
func Add(a, b Amount) (Amount, error) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, fmt.Errorf("%w: %d + %d", ErrOutOfRange, a, b)
	}
	return sum, nil
}

// Sub returns a-b, or ErrOutOfRange if the result overflows int64.
func Sub(a, b Amount) (Amount, error) {
	diff := a - b
	if (b > 0 && diff > a) || (b < 0 && diff < a) {
		return 0, fmt.Errorf("%w: %d - %d", ErrOutOfRange, a, b)
	}
	return diff, nil
}

// Sum adds amounts with the same overflow check as Add.
func Sum(amounts ...Amount) (Amount, error) {
	var total Amount
	for _, a := range amounts {
		next, err := Add(total, a)
		if err != nil {
			return 0, err
		}
		total = next
	}
	return total, nil
}

// MarshalJSON writes a bare JSON number so report consumers keep reading numbers.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return ErrInvalidAmount
	}
	s := string(bytes.Trim(data, `"`))
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
