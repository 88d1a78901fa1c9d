package services

import (
	"context"
	"fmt"
	"io"

	"famspend/internal/amqp"
	"famspend/internal/core"
	"famspend/internal/log"
	"famspend/internal/store"
)

// Publisher announces recorded expenses. *amqp.Client satisfies it.
type Publisher interface {
	PublishExpenseRecorded(ctx context.Context, msg *amqp.ExpenseRecordedMessage) error
}

// ExpenseService writes through to the expense store and then announces the
// new expense. Publishing is best effort: the write has already succeeded.
type ExpenseService struct {
	store     store.ExpenseStore
	publisher Publisher
	logger    *log.Logger
}

// NewExpenseService wraps st. A nil publisher disables announcements.
func NewExpenseService(st store.ExpenseStore, publisher Publisher, logger *log.Logger) *ExpenseService {
	if logger == nil {
		logger = log.Discard()
	}
	return &ExpenseService{
		store:     st,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentStorage),
	}
}

func (s *ExpenseService) Create(ctx context.Context, in store.NewExpense) (core.Expense, error) {
	e, err := s.store.Create(ctx, in)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	if err := s.publish(ctx, e); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish expense recorded message",
			log.FieldExpenseID, e.ID,
			log.FieldError, err)
	}
	return e, nil
}

func (s *ExpenseService) ListExpenses(ctx context.Context, scope store.Scope) ([]core.Expense, error) {
	return s.store.ListExpenses(ctx, scope)
}

// FamilyTotal passes through to the wrapped store.
func (s *ExpenseService) FamilyTotal(ctx context.Context, familyID string) (core.Money, error) {
	return store.FamilyTotal(ctx, s.store, familyID)
}

func (s *ExpenseService) publish(ctx context.Context, e core.Expense) error {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "AMQP publisher not configured, skipping announcement")
		return nil
	}
	return s.publisher.PublishExpenseRecorded(ctx, amqp.NewExpenseRecordedMessage(e))
}

// Close closes the store and publisher when they hold resources.
func (s *ExpenseService) Close() error {
	var errs []error

	if c, ok := s.store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if c, ok := s.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close expense service: %v", errs)
	}
	return nil
}
