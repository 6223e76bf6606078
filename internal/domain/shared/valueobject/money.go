package valueobject

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Currency represents a currency code (ISO 4217)
type Currency string

const (
	EUR Currency = "EUR" // Euro (default)
	USD Currency = "USD" // US Dollar
	GBP Currency = "GBP" // British Pound
)

// DefaultCurrency is the default currency for the system
const DefaultCurrency = EUR

// Money is a value object representing a monetary amount in integer minor
// units (cents). All arithmetic stays in int64; decimal is only used when
// crossing the boundary to external APIs that exchange major-unit amounts.
type Money struct {
	cents    int64
	currency Currency
}

// NewMoney creates Money from an amount in minor units
func NewMoney(cents int64, currency Currency) Money {
	if currency == "" {
		currency = DefaultCurrency
	}
	return Money{cents: cents, currency: currency}
}

// NewMoneyFromDecimal creates Money from a major-unit decimal amount,
// rounding half-up to the nearest cent
func NewMoneyFromDecimal(amount decimal.Decimal, currency Currency) Money {
	cents := amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	return NewMoney(cents, currency)
}

// Cents returns the amount in minor units
func (m Money) Cents() int64 {
	return m.cents
}

// Currency returns the currency code
func (m Money) Currency() Currency {
	return m.currency
}

// Decimal returns the amount as a major-unit decimal value
func (m Money) Decimal() decimal.Decimal {
	return decimal.NewFromInt(m.cents).Div(decimal.NewFromInt(100))
}

// Add returns the sum of two amounts. Currencies must match.
func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("currency mismatch: %s vs %s", m.currency, other.currency)
	}
	return Money{cents: m.cents + other.cents, currency: m.currency}, nil
}

// Sub returns the difference of two amounts. Currencies must match.
func (m Money) Sub(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("currency mismatch: %s vs %s", m.currency, other.currency)
	}
	return Money{cents: m.cents - other.cents, currency: m.currency}, nil
}

// MulInt returns the amount multiplied by an integer factor
func (m Money) MulInt(factor int64) Money {
	return Money{cents: m.cents * factor, currency: m.currency}
}

// IsNegative returns true if the amount is below zero
func (m Money) IsNegative() bool {
	return m.cents < 0
}

// IsZero returns true if the amount is zero
func (m Money) IsZero() bool {
	return m.cents == 0
}

// GreaterThan returns true if m is strictly greater than other
func (m Money) GreaterThan(other Money) bool {
	return m.cents > other.cents
}

// String returns a human-readable representation, e.g. "12.50 EUR"
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Decimal().StringFixed(2), m.currency)
}
