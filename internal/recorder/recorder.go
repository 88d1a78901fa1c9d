// Package recorder turns an expense utterance into a stored expense.
package recorder

import (
	"context"
	"fmt"
	"strings"

	"famspend/internal/core"
	"famspend/internal/log"
	"famspend/internal/parser"
	"famspend/internal/store"
)

// Result is what a successful record hands back to the chat layer.
type Result struct {
	Expense   core.Expense
	Utterance parser.Utterance
	Message   string
}

type Recorder struct {
	parser *parser.Parser
	writer store.ExpenseWriter
	money  *core.Formatter
	logger *log.Logger
}

func New(p *parser.Parser, writer store.ExpenseWriter, money *core.Formatter, logger *log.Logger) *Recorder {
	if money == nil {
		money = core.DefaultFormatter()
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Recorder{
		parser: p,
		writer: writer,
		money:  money,
		logger: logger.WithComponent(log.ComponentRecorder),
	}
}

// Record extracts amount, category and date from text and persists one
// expense for owner. Without an amount it fails with core.ErrExtraction
// before anything is written.
func (r *Recorder) Record(ctx context.Context, text string, owner core.Identity) (*Result, error) {
	u, err := r.parser.ParseExpense(text)
	if err != nil {
		r.logger.DebugContext(ctx, "No amount in expense message",
			log.FieldErrorType, log.ErrorTypeExtraction,
			log.FieldUserID, owner.UserID)
		return nil, err
	}

	e, err := r.writer.Create(ctx, store.NewExpense{
		Owner:       owner,
		Description: Describe(text),
		Amount:      *u.Amount,
		Category:    u.Category,
		OccurredAt:  u.Date,
	})
	if err != nil {
		return nil, fmt.Errorf("record expense: %w", err)
	}

	r.logger.InfoContext(ctx, "Expense recorded",
		log.NewFields().
			WithIdentity(owner.UserID, owner.FamilyID).
			WithExpense(e.ID, e.Amount.Minor, e.Category).
			WithOperation(log.OpRecord).
			ToSlice()...)

	return &Result{
		Expense:   e,
		Utterance: u,
		Message:   r.Confirmation(e),
	}, nil
}

// Confirmation renders "Logged ₹500 under Food", with a date note when the
// expense is not for today.
func (r *Recorder) Confirmation(e core.Expense) string {
	msg := fmt.Sprintf("Logged %s under %s", r.money.Format(e.Amount), e.Category)
	now := r.parser.Now()
	switch {
	case core.SameDay(e.OccurredAt, now):
	case core.SameDay(e.OccurredAt, now.AddDate(0, 0, -1)):
		msg += " for yesterday"
	default:
		msg += " on " + e.OccurredAt.In(now.Location()).Format("2 Jan 2006")
	}
	return msg
}

// Describe cleans chat text into a stored description: whitespace collapsed,
// capped at 200 runes.
func Describe(text string) string {
	d := strings.Join(strings.Fields(text), " ")
	if runes := []rune(d); len(runes) > 200 {
		d = string(runes[:200])
	}
	return d
}
