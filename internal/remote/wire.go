package remote

import (
	"bytes"
	"encoding/json"
	"time"

	"famspend/internal/core"
)

// Wire shapes of the expense backend. Amounts travel in major units.

type userDTO struct {
	ID    string `json:"_id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// ref accepts either a bare id string or an embedded {_id} document.
type ref string

func (r *ref) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*r = ref(s)
		return nil
	}
	var doc struct {
		ID string `json:"_id"`
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		return err
	}
	*r = ref(doc.ID)
	return nil
}

// userRef is like ref but keeps the display name when the user is embedded.
type userRef userDTO

func (u *userRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		return json.Unmarshal(b, &u.ID)
	}
	return json.Unmarshal(b, (*userDTO)(u))
}

type ExpenseDTO struct {
	ID          string    `json:"_id"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	Category    string    `json:"category"`
	Date        time.Time `json:"date"`
	User        *userRef  `json:"user,omitempty"`
	Family      ref       `json:"family,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
}

// Expense converts the wire record into the domain type.
func (d ExpenseDTO) Expense() core.Expense {
	e := core.Expense{
		ID:          d.ID,
		FamilyID:    string(d.Family),
		Amount:      core.MoneyFromMajor(d.Amount),
		Category:    core.NormalizeCategory(d.Category),
		Description: d.Description,
		OccurredAt:  d.Date,
		CreatedAt:   d.CreatedAt,
	}
	if d.User != nil {
		e.OwnerUserID = d.User.ID
		e.OwnerName = d.User.Name
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = e.CreatedAt
	}
	return e
}

type expenseInput struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Category    string  `json:"category,omitempty"`
	Date        string  `json:"date,omitempty"`
}

type chatRequest struct {
	Message string `json:"message"`
}

// ParsedData is the backend's view of the parsed utterance.
type ParsedData struct {
	Amount     float64 `json:"amount"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

type ChatExpenseResponse struct {
	Success     bool           `json:"success"`
	Expense     *ExpenseDTO    `json:"expense,omitempty"`
	Message     string         `json:"message"`
	ParsedData  *ParsedData    `json:"parsedData,omitempty"`
	FamilyTotal *float64       `json:"familyTotal,omitempty"`
	Language    *core.Language `json:"language,omitempty"`
}

type QueryContext struct {
	Type           string             `json:"type,omitempty"`
	RecentExpenses []ExpenseDTO       `json:"recentExpenses,omitempty"`
	Totals         map[string]float64 `json:"totals,omitempty"`
}

type ChatQueryResponse struct {
	Success  bool           `json:"success"`
	Message  string         `json:"message"`
	Context  *QueryContext  `json:"context,omitempty"`
	Language *core.Language `json:"language,omitempty"`
}

type unreadCountResponse struct {
	Count int `json:"count"`
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}
