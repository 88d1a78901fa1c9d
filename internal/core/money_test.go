package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"500", 50000, true},
		{"1.23", 123, true},
		{"0.01", 1, true},
		{"12.345", 1235, true}, // half-up rounding
		{"1,250", 125000, true},
		{"1,00,000", 10000000, true},
		{" 2.50 ", 250, true},
		{"0", 0, true},
		{"-1", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.Minor != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got.Minor, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestMoneyFromMajor(t *testing.T) {
	assert.Equal(t, int64(50000), MoneyFromMajor(500).Minor)
	assert.Equal(t, int64(1234), MoneyFromMajor(12.34).Minor)
	assert.Equal(t, int64(10), MoneyFromMajor(0.1).Minor)
	assert.InDelta(t, 12.34, Money{Minor: 1234}.Major(), 1e-9)
}

func TestSum(t *testing.T) {
	expenses := []Expense{
		{Amount: Money{Minor: 100}},
		{Amount: Money{Minor: 250}},
	}
	assert.Equal(t, Money{Minor: 350}, Sum(expenses))
	assert.True(t, Sum(nil).IsZero())
}

func TestFormatter(t *testing.T) {
	f := DefaultFormatter()
	cases := []struct {
		minor int64
		want  string
	}{
		{0, "₹0"},
		{50000, "₹500"},
		{123400, "₹1,234"},
		{123450, "₹1,234.5"},
		{123456, "₹1,234.56"},
		{100000000, "₹1,000,000"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, f.Format(Money{Minor: tc.minor}))
	}
}

func TestFormatter_CustomSymbolAndBadLocale(t *testing.T) {
	f := NewFormatter("Rs ", "not a locale!!")
	require.Equal(t, "Rs ", f.Symbol())
	assert.Equal(t, "Rs 2,000", f.Format(Money{Minor: 200000}))
}
