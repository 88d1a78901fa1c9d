package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"famspend/internal/core"
	"famspend/internal/store"
)

type createExpenseRequest struct {
	Description string      `json:"description"`
	Amount      json.Number `json:"amount"`
	Category    string      `json:"category"`
	Date        string      `json:"date"`
}

func (req createExpenseRequest) toNewExpense(owner core.Identity) (store.NewExpense, error) {
	amount, err := core.ParseAmount(req.Amount.String())
	if err != nil {
		return store.NewExpense{}, fmt.Errorf("%w: %q", core.ErrInvalidAmount, req.Amount.String())
	}
	if req.Category != "" && !core.IsCategory(req.Category) {
		return store.NewExpense{}, fmt.Errorf("%w: %q", core.ErrUnknownCategory, req.Category)
	}
	when, err := parseDate(req.Date)
	if err != nil {
		return store.NewExpense{}, err
	}
	return store.NewExpense{
		Owner:       owner,
		Description: sanitizeInput(req.Description),
		Amount:      amount,
		Category:    req.Category,
		OccurredAt:  when,
	}, nil
}

// parseDate accepts YYYY-MM-DD or RFC 3339; empty means "now" downstream.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: unreadable date %q", core.ErrMissingDate, s)
	}
	return t, nil
}

// sanitizeInput drops control characters other than tab and newlines.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req createExpenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.badRequest(w, r, err)
		return
	}

	id := identityFrom(r.Context())
	in, err := req.toNewExpense(id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	e, err := s.store.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.events.LogExpenseRecorded(r.Context(), id.UserID, id.FamilyID, e.ID, e.Amount.Minor, e.Category)
	writeJSON(w, http.StatusCreated, newExpenseView(e))
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())
	s.listExpenses(w, r, store.Scope{UserID: id.UserID})
}

func (s *Server) handleListFamilyExpenses(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())
	if id.FamilyID == "" {
		writeErrorCode(w, http.StatusBadRequest, "invalid_request", "missing "+HeaderFamilyID+" header")
		return
	}
	s.listExpenses(w, r, store.Scope{UserID: id.UserID, FamilyID: id.FamilyID, Family: true})
}

func (s *Server) listExpenses(w http.ResponseWriter, r *http.Request, scope store.Scope) {
	expenses, err := s.store.ListExpenses(r.Context(), scope)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newExpenseViews(expenses))
}

const weekDays = 7

type expenseStatsResponse struct {
	View              string             `json:"view"`
	Total             float64            `json:"total"`
	MonthTotal        float64            `json:"monthTotal"`
	WeekTotal         float64            `json:"weekTotal"`
	Count             int                `json:"count"`
	CategoryBreakdown map[string]float64 `json:"categoryBreakdown"`
	Expenses          []expenseView      `json:"expenses"`
}

// handleExpenseStats totals the personal or family collection:
// GET /expenses/stats?view=personal|family.
func (s *Server) handleExpenseStats(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())
	view := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("view")))

	scope := store.Scope{UserID: id.UserID}
	switch view {
	case "", "personal":
		view = "personal"
	case "family":
		if id.FamilyID == "" {
			writeErrorCode(w, http.StatusBadRequest, "invalid_request", "missing "+HeaderFamilyID+" header")
			return
		}
		scope = store.Scope{UserID: id.UserID, FamilyID: id.FamilyID, Family: true}
	default:
		writeErrorCode(w, http.StatusBadRequest, "invalid_request", fmt.Sprintf("unknown view %q: use personal or family", view))
		return
	}

	expenses, err := s.store.ListExpenses(r.Context(), scope)
	if err != nil {
		writeError(w, r, err)
		return
	}

	now := s.now()
	summary := core.Summarize(expenses)
	breakdown := make(map[string]float64, len(summary.ByCategory))
	for _, c := range summary.ByCategory {
		breakdown[c.Name] = c.Amount.Major()
	}
	writeJSON(w, http.StatusOK, expenseStatsResponse{
		View:              view,
		Total:             summary.Total.Major(),
		MonthTotal:        core.Sum(core.Filter(expenses, core.SinceMonthStart(now))).Major(),
		WeekTotal:         core.Sum(core.Filter(expenses, core.SinceDaysAgo(now, weekDays))).Major(),
		Count:             summary.Count,
		CategoryBreakdown: breakdown,
		Expenses:          newExpenseViews(expenses),
	})
}
