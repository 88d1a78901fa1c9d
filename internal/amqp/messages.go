package amqp

import (
	"encoding/json"
	"time"

	"famspend/internal/core"
)

// ExpenseRecordedMessage announces a new expense to the notification worker.
// Amounts travel in minor units so consumers never round.
type ExpenseRecordedMessage struct {
	ExpenseID   string    `json:"expense_id"`
	UserID      string    `json:"user_id"`
	UserName    string    `json:"user_name,omitempty"`
	FamilyID    string    `json:"family_id,omitempty"`
	AmountMinor int64     `json:"amount_minor"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	OccurredAt  time.Time `json:"occurred_at"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewExpenseRecordedMessage(e core.Expense) *ExpenseRecordedMessage {
	return &ExpenseRecordedMessage{
		ExpenseID:   e.ID,
		UserID:      e.OwnerUserID,
		UserName:    e.OwnerName,
		FamilyID:    e.FamilyID,
		AmountMinor: e.Amount.Minor,
		Category:    e.Category,
		Description: e.Description,
		OccurredAt:  e.OccurredAt,
		Timestamp:   time.Now(),
	}
}

// Amount returns the expense amount as Money.
func (m *ExpenseRecordedMessage) Amount() core.Money {
	return core.Money{Minor: m.AmountMinor}
}

func (m *ExpenseRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ExpenseRecordedMessageFromJSON(data []byte) (*ExpenseRecordedMessage, error) {
	var msg ExpenseRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
