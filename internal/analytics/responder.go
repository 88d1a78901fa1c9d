// Package analytics answers questions about an expense collection.
package analytics

import (
	"strings"
	"time"

	"famspend/internal/core"
)

// Kind names the branch that answered a query.
type Kind string

const (
	KindToday             Kind = "today"
	KindRecent            Kind = "recent"
	KindCategoryBreakdown Kind = "categoryBreakdown"
	KindTotal             Kind = "total"
	KindThisMonth         Kind = "thisMonth"
	KindHelp              Kind = "help"
)

const (
	todaySupportLimit = 5
	recentLimit       = 10
	topCategories     = 5
)

// HelpMessage is returned for anything the responder does not recognise.
const HelpMessage = "I can help you with:\n• Today's expenses\n• Recent expenses\n• Category breakdown\n• Total spending\n• This month's expenses"

// Context is the structured answer to one query.
type Context struct {
	Kind       Kind                  `json:"type"`
	Summary    string                `json:"summary"`
	Supporting []core.Expense        `json:"-"`
	Totals     map[string]core.Money `json:"-"`
	Count      int                   `json:"count"`
	Total      core.Money            `json:"-"`
}

type rule struct {
	kind     Kind
	keywords []string
	answer   func(r *Responder, expenses []core.Expense, now time.Time) Context
}

// rules is evaluated in order; the first rule whose keyword appears in the
// lower-cased query answers it.
var rules = []rule{
	{KindToday, []string{"today"}, (*Responder).today},
	{KindRecent, []string{"recent"}, (*Responder).recent},
	{KindCategoryBreakdown, []string{"category", "breakdown"}, (*Responder).breakdown},
	{KindTotal, []string{"total", "spent"}, (*Responder).total},
	{KindThisMonth, []string{"month"}, (*Responder).thisMonth},
}

// Responder renders deterministic answers. It never mutates the collection.
type Responder struct {
	money *core.Formatter
	now   func() time.Time
}

func NewResponder(money *core.Formatter, now func() time.Time) *Responder {
	if money == nil {
		money = core.DefaultFormatter()
	}
	if now == nil {
		now = time.Now
	}
	return &Responder{money: money, now: now}
}

// Classify returns the branch that would answer text without computing anything.
func Classify(text string) Kind {
	if r, ok := match(text); ok {
		return r.kind
	}
	return KindHelp
}

func match(text string) (rule, bool) {
	lower := strings.ToLower(text)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r, true
			}
		}
	}
	return rule{}, false
}

// Answer computes the reply to text over expenses, which must already be
// sorted newest first.
func (r *Responder) Answer(text string, expenses []core.Expense) Context {
	if matched, ok := match(text); ok {
		return matched.answer(r, expenses, r.now())
	}
	return Context{Kind: KindHelp, Summary: HelpMessage}
}
