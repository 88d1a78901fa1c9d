package worker

import (
	"context"
	"fmt"

	"famspend/internal/amqp"
	"famspend/internal/core"
	"famspend/internal/log"
)

// Notifier delivers a rendered notice to the people who should see it.
type Notifier interface {
	Notify(ctx context.Context, familyID, text string) error
}

// LogNotifier writes notices to the log. It is the default when no
// delivery channel is configured.
type LogNotifier struct {
	logger *log.Logger
}

func NewLogNotifier(logger *log.Logger) *LogNotifier {
	if logger == nil {
		logger = log.Discard()
	}
	return &LogNotifier{logger: logger.WithComponent(log.ComponentNotify)}
}

func (n *LogNotifier) Notify(ctx context.Context, familyID, text string) error {
	n.logger.InfoContext(ctx, "Family notification", log.FieldFamilyID, familyID, "text", text)
	return nil
}

// NotificationWorker turns expense-recorded messages into family notices.
type NotificationWorker struct {
	notifier Notifier
	money    *core.Formatter
	logger   *log.Logger
}

func NewNotificationWorker(notifier Notifier, money *core.Formatter, logger *log.Logger) *NotificationWorker {
	if money == nil {
		money = core.DefaultFormatter()
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &NotificationWorker{
		notifier: notifier,
		money:    money,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// HandleExpenseRecorded is the consumer callback. Returning an error
// requeues the message.
func (w *NotificationWorker) HandleExpenseRecorded(ctx context.Context, msg *amqp.ExpenseRecordedMessage) error {
	if msg.FamilyID == "" {
		w.logger.DebugContext(ctx, "Expense has no family, nothing to notify", log.FieldExpenseID, msg.ExpenseID)
		return nil
	}

	text := w.Render(msg)
	if err := w.notifier.Notify(ctx, msg.FamilyID, text); err != nil {
		return fmt.Errorf("notify family %s: %w", msg.FamilyID, err)
	}

	w.logger.InfoContext(ctx, "Family notified",
		log.NewFields().
			WithIdentity(msg.UserID, msg.FamilyID).
			WithExpense(msg.ExpenseID, msg.AmountMinor, msg.Category).
			ToSlice()...)
	return nil
}

// Render produces "Asha logged ₹500 under Food".
func (w *NotificationWorker) Render(msg *amqp.ExpenseRecordedMessage) string {
	who := msg.UserName
	if who == "" {
		who = "Someone"
	}
	category := msg.Category
	if category == "" {
		category = core.CategoryOthers
	}
	return fmt.Sprintf("%s logged %s under %s", who, w.money.Format(msg.Amount()), category)
}
