package analytics

import (
	"fmt"
	"strings"
	"time"

	"famspend/internal/core"
)

func (r *Responder) today(expenses []core.Expense, now time.Time) Context {
	matched := core.Filter(expenses, core.OnDay(now))
	total := core.Sum(matched)
	return Context{
		Kind:       KindToday,
		Summary:    fmt.Sprintf("Today you've spent %s across %d expenses.", r.money.Format(total), len(matched)),
		Supporting: head(matched, todaySupportLimit),
		Count:      len(matched),
		Total:      total,
	}
}

func (r *Responder) recent(expenses []core.Expense, _ time.Time) Context {
	latest := head(expenses, recentLimit)
	total := core.Sum(latest)
	return Context{
		Kind:       KindRecent,
		Summary:    fmt.Sprintf("Your recent %d expenses total %s.", recentLimit, r.money.Format(total)),
		Supporting: latest,
		Count:      len(latest),
		Total:      total,
	}
}

func (r *Responder) breakdown(expenses []core.Expense, _ time.Time) Context {
	summary := core.Summarize(expenses)
	var b strings.Builder
	b.WriteString("Your top spending categories:")
	for _, c := range head(summary.ByCategory, topCategories) {
		fmt.Fprintf(&b, "\n• %s: %s", c.Name, r.money.Format(c.Amount))
	}
	return Context{
		Kind:    KindCategoryBreakdown,
		Summary: b.String(),
		Totals:  summary.CategoryTotals(),
		Count:   summary.Count,
		Total:   summary.Total,
	}
}

func (r *Responder) total(expenses []core.Expense, _ time.Time) Context {
	total := core.Sum(expenses)
	return Context{
		Kind:       KindTotal,
		Summary:    fmt.Sprintf("Your total spending is %s across %d expenses.", r.money.Format(total), len(expenses)),
		Supporting: head(expenses, recentLimit),
		Count:      len(expenses),
		Total:      total,
	}
}

func (r *Responder) thisMonth(expenses []core.Expense, now time.Time) Context {
	matched := core.Filter(expenses, core.SinceMonthStart(now))
	total := core.Sum(matched)
	return Context{
		Kind:       KindThisMonth,
		Summary:    fmt.Sprintf("This month you've spent %s across %d expenses.", r.money.Format(total), len(matched)),
		Supporting: head(matched, recentLimit),
		Count:      len(matched),
		Total:      total,
	}
}

func head[T any](items []T, n int) []T {
	if len(items) <= n {
		return items
	}
	return items[:n]
}
