package http

import (
	"time"

	"famspend/internal/analytics"
	"famspend/internal/chat"
	"famspend/internal/core"
	"famspend/internal/parser"
)

// JSON shapes. Amounts are major units, the same convention the expense
// backend uses on the wire.

type userView struct {
	ID   string `json:"_id"`
	Name string `json:"name,omitempty"`
}

type expenseView struct {
	ID          string    `json:"_id"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	Category    string    `json:"category"`
	Date        time.Time `json:"date"`
	User        userView  `json:"user"`
	Family      string    `json:"family,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func newExpenseView(e core.Expense) expenseView {
	return expenseView{
		ID:          e.ID,
		Description: e.Description,
		Amount:      e.Amount.Major(),
		Category:    e.Category,
		Date:        e.OccurredAt,
		User:        userView{ID: e.OwnerUserID, Name: e.OwnerName},
		Family:      e.FamilyID,
		CreatedAt:   e.CreatedAt,
	}
}

func newExpenseViews(expenses []core.Expense) []expenseView {
	out := make([]expenseView, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, newExpenseView(e))
	}
	return out
}

type parsedView struct {
	Amount     float64 `json:"amount"`
	Category   string  `json:"category"`
	Date       string  `json:"date,omitempty"`
	Confidence float64 `json:"confidence"`
}

func newParsedView(u *parser.Utterance) *parsedView {
	if u == nil {
		return nil
	}
	v := &parsedView{Category: u.Category, Confidence: u.Confidence}
	if u.Amount != nil {
		v.Amount = u.Amount.Major()
	}
	if !u.Date.IsZero() {
		v.Date = u.Date.Format("2006-01-02")
	}
	return v
}

type contextView struct {
	Type           string             `json:"type"`
	Summary        string             `json:"summary"`
	RecentExpenses []expenseView      `json:"recentExpenses,omitempty"`
	Totals         map[string]float64 `json:"totals,omitempty"`
	Count          int                `json:"count"`
	Total          float64            `json:"total"`
}

func newContextView(c *analytics.Context) *contextView {
	if c == nil {
		return nil
	}
	v := &contextView{
		Type:    string(c.Kind),
		Summary: c.Summary,
		Count:   c.Count,
		Total:   c.Total.Major(),
	}
	if len(c.Supporting) > 0 {
		v.RecentExpenses = newExpenseViews(c.Supporting)
	}
	if len(c.Totals) > 0 {
		v.Totals = make(map[string]float64, len(c.Totals))
		for cat, m := range c.Totals {
			v.Totals[cat] = m.Major()
		}
	}
	return v
}

type messageView struct {
	ID         string         `json:"id"`
	Role       chat.Role      `json:"role"`
	Text       string         `json:"text"`
	Code       string         `json:"code,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
	Expense    *expenseView   `json:"expense,omitempty"`
	Context    *contextView   `json:"context,omitempty"`
	ParsedData *parsedView    `json:"parsedData,omitempty"`
	Language   *core.Language `json:"language,omitempty"`
}

func newMessageView(m chat.Message) messageView {
	v := messageView{
		ID:         m.ID,
		Role:       m.Role,
		Text:       m.Text,
		Code:       m.Code,
		Timestamp:  m.Timestamp,
		Context:    newContextView(m.Context),
		ParsedData: newParsedView(m.Parsed),
		Language:   m.Language,
	}
	if m.Expense != nil {
		e := newExpenseView(*m.Expense)
		v.Expense = &e
	}
	return v
}

type statsView struct {
	RunningTotal float64 `json:"runningTotal"`
	TodayTotal   float64 `json:"todayTotal"`
	EntryCount   int     `json:"entryCount"`
	Display      struct {
		RunningTotal string `json:"runningTotal"`
		TodayTotal   string `json:"todayTotal"`
	} `json:"display"`
}

func newStatsView(s chat.Stats, money *core.Formatter) statsView {
	v := statsView{
		RunningTotal: s.RunningTotal.Major(),
		TodayTotal:   s.TodayTotal.Major(),
		EntryCount:   s.EntryCount,
	}
	v.Display.RunningTotal = money.Format(s.RunningTotal)
	v.Display.TodayTotal = money.Format(s.TodayTotal)
	return v
}

type sessionView struct {
	ID       string        `json:"id"`
	State    string        `json:"state"`
	Messages []messageView `json:"messages"`
	Stats    statsView     `json:"stats"`
}

func newSessionView(s *chat.Session, money *core.Formatter) sessionView {
	transcript := s.Transcript()
	v := sessionView{
		ID:       s.ID(),
		State:    s.State().String(),
		Messages: make([]messageView, 0, len(transcript)),
		Stats:    newStatsView(s.Stats(), money),
	}
	for _, m := range transcript {
		v.Messages = append(v.Messages, newMessageView(m))
	}
	return v
}
