package core

import (
	"sort"
	"time"
)

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// Summary aggregates a slice of expenses.
type Summary struct {
	Total      Money
	Count      int
	ByCategory []CategoryAmount // largest first, ties keep first-seen order
}

// Summarize totals expenses overall and per category.
func Summarize(expenses []Expense) Summary {
	s := Summary{Count: len(expenses)}
	index := make(map[string]int)
	for _, e := range expenses {
		s.Total = s.Total.Add(e.Amount)
		cat := e.Category
		if cat == "" {
			cat = CategoryOthers
		}
		i, ok := index[cat]
		if !ok {
			i = len(s.ByCategory)
			index[cat] = i
			s.ByCategory = append(s.ByCategory, CategoryAmount{Name: cat})
		}
		s.ByCategory[i].Amount = s.ByCategory[i].Amount.Add(e.Amount)
	}
	sort.SliceStable(s.ByCategory, func(i, j int) bool {
		return s.ByCategory[i].Amount.Minor > s.ByCategory[j].Amount.Minor
	})
	return s
}

// CategoryTotals returns the per-category totals as a map.
func (s Summary) CategoryTotals() map[string]Money {
	out := make(map[string]Money, len(s.ByCategory))
	for _, c := range s.ByCategory {
		out[c.Name] = c.Amount
	}
	return out
}

// Filter keeps the expenses matching keep, preserving order.
func Filter(expenses []Expense, keep func(Expense) bool) []Expense {
	var out []Expense
	for _, e := range expenses {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// OnDay keeps expenses on the calendar day of now.
func OnDay(now time.Time) func(Expense) bool {
	return func(e Expense) bool { return SameDay(e.OccurredAt, now) }
}

// SinceDaysAgo keeps expenses dated on or after midnight days calendar
// days before now.
func SinceDaysAgo(now time.Time, days int) func(Expense) bool {
	start := StartOfDay(now).AddDate(0, 0, -days)
	return func(e Expense) bool { return !e.OccurredAt.Before(start) }
}

// SinceMonthStart keeps expenses dated on or after the first of now's month.
func SinceMonthStart(now time.Time) func(Expense) bool {
	start := StartOfMonth(now)
	return func(e Expense) bool { return !e.OccurredAt.Before(start) }
}
