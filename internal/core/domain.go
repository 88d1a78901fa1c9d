package core

import (
	"errors"
	"strings"
	"time"
)

// Expense categories. Anything the classifier cannot place lands in CategoryOthers.
const (
	CategoryFood          = "Food"
	CategoryTransport     = "Transport"
	CategoryShopping      = "Shopping"
	CategoryBills         = "Bills"
	CategoryEntertainment = "Entertainment"
	CategoryHealth        = "Health"
	CategoryEducation     = "Education"
	CategoryOthers        = "Others"
)

// Categories lists the taxonomy in display order.
var Categories = []string{
	CategoryFood,
	CategoryTransport,
	CategoryShopping,
	CategoryBills,
	CategoryEntertainment,
	CategoryHealth,
	CategoryEducation,
	CategoryOthers,
}

type (
	Money struct {
		Minor int64
	}

	Language struct {
		Name string `json:"name"`
		Code string `json:"code"`
	}

	// Identity is the acting user, resolved by the auth layer upstream.
	Identity struct {
		UserID   string
		UserName string
		FamilyID string
	}

	Expense struct {
		ID          string
		OwnerUserID string
		OwnerName   string
		FamilyID    string
		Amount      Money
		Category    string
		Description string
		OccurredAt  time.Time
		CreatedAt   time.Time
	}
)

// English is the only language the parser understands today.
var English = Language{Name: "English", Code: "en"}

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrMissingOwner     = errors.New("missing owner")
	ErrMissingDate      = errors.New("missing date")
	ErrUnknownCategory  = errors.New("unknown category")
)

// NormalizeCategory maps free-form category names onto the taxonomy.
// Matching is case-insensitive; "Other" and unknown names become "Others".
func NormalizeCategory(name string) string {
	name = strings.TrimSpace(name)
	for _, c := range Categories {
		if strings.EqualFold(c, name) {
			return c
		}
	}
	return CategoryOthers
}

// IsCategory reports whether name names a taxonomy entry, ignoring case.
// "Other" is accepted as the old spelling of "Others".
func IsCategory(name string) bool {
	name = strings.TrimSpace(name)
	if strings.EqualFold(name, "other") {
		return true
	}
	for _, c := range Categories {
		if strings.EqualFold(c, name) {
			return true
		}
	}
	return false
}

func (m Money) Validate() error {
	if m.Minor < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.OwnerUserID) == "" {
		return ErrMissingOwner
	}
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(e.Description) > 500 {
		return errors.New("description too long (max 500 characters)")
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if e.OccurredAt.IsZero() {
		return ErrMissingDate
	}
	return nil
}

// StartOfDay truncates t to local midnight in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// StartOfMonth returns midnight of the first day of t's month.
func StartOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

// SameDay compares calendar dates, interpreting a in b's location.
func SameDay(a, b time.Time) bool {
	a = a.In(b.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
