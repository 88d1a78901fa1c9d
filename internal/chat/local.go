package chat

import (
	"context"
	"fmt"

	"famspend/internal/analytics"
	"famspend/internal/core"
	"famspend/internal/log"
	"famspend/internal/recorder"
	"famspend/internal/store"
)

// LocalEngine parses and answers in process over an expense store.
type LocalEngine struct {
	recorder  *recorder.Recorder
	responder *analytics.Responder
	lister    store.ExpenseLister
	logger    *log.Logger
}

func NewLocalEngine(rec *recorder.Recorder, responder *analytics.Responder, lister store.ExpenseLister, logger *log.Logger) *LocalEngine {
	if logger == nil {
		logger = log.Discard()
	}
	return &LocalEngine{
		recorder:  rec,
		responder: responder,
		lister:    lister,
		logger:    logger.WithComponent(log.ComponentChat),
	}
}

func (e *LocalEngine) LogExpense(ctx context.Context, id core.Identity, text string) (*LogResult, error) {
	res, err := e.recorder.Record(ctx, text, id)
	if err != nil {
		return nil, err
	}

	out := &LogResult{
		Expense:  res.Expense,
		Message:  res.Message,
		Parsed:   &res.Utterance,
		Language: core.English,
	}

	if id.FamilyID != "" {
		total, err := store.FamilyTotal(ctx, e.lister, id.FamilyID)
		if err != nil {
			// The expense is stored; a missing total only affects stats.
			e.logger.WarnContext(ctx, "Family total unavailable after record", log.FieldError, err)
		} else {
			out.FamilyTotal = &total
		}
	}
	return out, nil
}

func (e *LocalEngine) Query(ctx context.Context, id core.Identity, text string) (*QueryResult, error) {
	expenses, err := e.lister.ListExpenses(ctx, store.ScopeFor(id))
	if err != nil {
		return nil, fmt.Errorf("load expenses: %w", err)
	}
	answer := e.responder.Answer(text, expenses)
	return &QueryResult{
		Message:  answer.Summary,
		Context:  &answer,
		Language: core.English,
	}, nil
}
