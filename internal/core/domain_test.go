package core

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCategory(t *testing.T) {
	cases := map[string]string{
		"Food":       CategoryFood,
		"food":       CategoryFood,
		" BILLS ":    CategoryBills,
		"Other":      CategoryOthers,
		"Others":     CategoryOthers,
		"":           CategoryOthers,
		"Groceries?": CategoryOthers,
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeCategory(in), "input %q", in)
	}
	assert.True(t, IsCategory(CategoryEducation))
	assert.True(t, IsCategory(" health "))
	assert.True(t, IsCategory("Other"))
	assert.False(t, IsCategory("Groceries"))
	assert.False(t, IsCategory(""))
}

func TestExpenseValidate(t *testing.T) {
	good := Expense{
		OwnerUserID: "u1",
		Description: "500 for food",
		Amount:      Money{Minor: 50000},
		Category:    CategoryFood,
		OccurredAt:  time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	zero := good
	zero.Amount = Money{}
	assert.NoError(t, zero.Validate(), "zero amounts are allowed")

	cases := []struct {
		name   string
		mutate func(e *Expense)
		want   error
	}{
		{"negative amount", func(e *Expense) { e.Amount = Money{Minor: -1} }, ErrInvalidAmount},
		{"empty description", func(e *Expense) { e.Description = "  " }, ErrEmptyDescription},
		{"no owner", func(e *Expense) { e.OwnerUserID = "" }, ErrMissingOwner},
		{"no date", func(e *Expense) { e.OccurredAt = time.Time{} }, ErrMissingDate},
	}
	for _, tc := range cases {
		e := good
		tc.mutate(&e)
		if err := e.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestSameDayAndMonthStart(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	now := time.Date(2025, 3, 15, 9, 0, 0, 0, loc)

	assert.True(t, SameDay(time.Date(2025, 3, 15, 23, 59, 0, 0, loc), now))
	assert.False(t, SameDay(time.Date(2025, 3, 14, 23, 59, 0, 0, loc), now))
	// 2025-03-14 20:00 UTC is already the 15th in IST.
	assert.True(t, SameDay(time.Date(2025, 3, 14, 20, 0, 0, 0, time.UTC), now))

	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, loc), StartOfMonth(now))
	assert.Equal(t, time.Date(2025, 3, 15, 0, 0, 0, 0, loc), StartOfDay(now))
}

func TestErrorTaxonomy(t *testing.T) {
	var err error = &ExtractionError{Text: "hello", Reason: "no amount"}
	assert.True(t, errors.Is(err, ErrExtraction))
	assert.Contains(t, err.Error(), `"hello"`)

	err = &BackendError{Status: 500, Message: "boom"}
	assert.True(t, errors.Is(err, ErrBackend))
	assert.Equal(t, "backend returned status 500: boom", err.Error())
}
