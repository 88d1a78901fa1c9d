package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ParseAmount converts a decimal string in major units to Money.
//
// Grouping commas are ignored ("1,250.50"), the fraction is rounded half-up
// to two digits and negative values are rejected. Zero is a valid amount.
//
//	ParseAmount("12.34")   -> {1234}
//	ParseAmount("1,250")   -> {125000}
//	ParseAmount("12.345")  -> {1235}
func ParseAmount(s string) (Money, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" || strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	minor := d.Mul(hundred).Round(0)
	if !minor.IsInteger() || minor.GreaterThan(decimal.NewFromInt(1<<53)) {
		return Money{}, ErrInvalidAmount
	}
	return Money{Minor: minor.IntPart()}, nil
}

// MoneyFromMajor converts a wire amount in major units (as the backend sends it).
func MoneyFromMajor(v float64) Money {
	return Money{Minor: decimal.NewFromFloat(v).Mul(hundred).Round(0).IntPart()}
}

// Major returns the amount in major units for wire encoding.
func (m Money) Major() float64 {
	f, _ := m.Decimal().Float64()
	return f
}

// Decimal returns the exact major-unit value.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Minor, -2)
}

func (m Money) Add(o Money) Money {
	return Money{Minor: m.Minor + o.Minor}
}

func (m Money) IsZero() bool {
	return m.Minor == 0
}

// Sum totals the amounts of the given expenses.
func Sum(expenses []Expense) Money {
	var total Money
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return total
}
