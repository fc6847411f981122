package money

import (
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// scale is the number of fractional digits kept for currency amounts.
const scale = 2

// ErrInvalidAmount is returned when a monetary value is negative, malformed
// or finer than a cent.
var ErrInvalidAmount = errors.New("invalid amount")

// Zero is the zero amount.
var Zero = Money{amount: decimal.Zero}

// Money is a non-negative currency amount with two-decimal scale.
type Money struct {
	amount decimal.Decimal
}

// New creates Money from a decimal. Amounts with more than two significant
// fractional digits are rejected rather than rounded.
func New(amount decimal.Decimal) (Money, error) {
	if amount.IsNegative() {
		return Money{}, fmt.Errorf("%w: %s", ErrInvalidAmount, amount.String())
	}
	if !amount.Equal(amount.Truncate(scale)) {
		return Money{}, fmt.Errorf("%w: %s has more than %d decimals", ErrInvalidAmount, amount.String(), scale)
	}

	return Money{amount: amount.Truncate(scale)}, nil
}

// Parse creates Money from its decimal text form, e.g. "50.00".
func Parse(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	return New(d)
}

// MustParse is like Parse but panics on error. Intended for constants and tests.
func MustParse(s string) Money {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}

	return m
}

// Add returns m + other.
func (m Money) Add(other Money) Money {
	return round(m.amount.Add(other.amount))
}

// Multiply returns m multiplied by quantity.
func (m Money) Multiply(quantity int) Money {
	return round(m.amount.Mul(decimal.NewFromInt(int64(quantity))))
}

// round keeps computed results at currency scale, half to even.
func round(d decimal.Decimal) Money {
	return Money{amount: d.RoundBank(scale)}
}

// Equal reports whether both amounts are the same value.
func (m Money) Equal(other Money) bool {
	return m.amount.Equal(other.amount)
}

// Cmp compares m and other and returns -1, 0 or +1.
func (m Money) Cmp(other Money) int {
	return m.amount.Cmp(other.amount)
}

// IsPositive reports whether m is greater than zero.
func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

// Decimal returns the underlying decimal value.
func (m Money) Decimal() decimal.Decimal {
	return m.amount
}

// String renders the amount with exactly two decimals.
func (m Money) String() string {
	return m.amount.StringFixed(scale)
}

// MarshalJSON encodes the amount as a quoted fixed-point string.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON accepts both quoted and bare JSON numbers.
func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, string(data))
	}

	parsed, err := New(d)
	if err != nil {
		return err
	}
	*m = parsed

	return nil
}

// Value implements driver.Valuer so Money can be passed straight to numeric columns.
func (m Money) Value() (driver.Value, error) {
	return m.String(), nil
}
