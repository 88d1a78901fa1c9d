package chat

import (
	"context"
	"errors"
	"fmt"

	"famspend/internal/analytics"
	"famspend/internal/core"
	"famspend/internal/log"
	"famspend/internal/parser"
	"famspend/internal/remote"
	"famspend/internal/store"
)

// Backend is the slice of the REST client the remote engine needs.
type Backend interface {
	ChatExpense(ctx context.Context, message string) (*remote.ChatExpenseResponse, error)
	ChatQuery(ctx context.Context, message string) (*remote.ChatQueryResponse, error)
	store.ExpenseLister
}

// RemoteEngine delegates parsing to the backend. When the backend has no
// query endpoint, questions are answered locally over the family collection.
type RemoteEngine struct {
	backend   Backend
	responder *analytics.Responder
	logger    *log.Logger
}

func NewRemoteEngine(backend Backend, responder *analytics.Responder, logger *log.Logger) *RemoteEngine {
	if logger == nil {
		logger = log.Discard()
	}
	return &RemoteEngine{
		backend:   backend,
		responder: responder,
		logger:    logger.WithComponent(log.ComponentChat),
	}
}

func (e *RemoteEngine) LogExpense(ctx context.Context, id core.Identity, text string) (*LogResult, error) {
	res, err := e.backend.ChatExpense(ctx, text)
	if err != nil {
		return nil, err
	}

	out := &LogResult{
		Message:  res.Message,
		Language: languageOr(res.Language),
	}
	if res.Expense != nil {
		out.Expense = res.Expense.Expense()
		if out.Expense.OwnerUserID == "" {
			out.Expense.OwnerUserID = id.UserID
		}
	}
	if res.FamilyTotal != nil {
		total := core.MoneyFromMajor(*res.FamilyTotal)
		out.FamilyTotal = &total
	}
	if res.ParsedData != nil {
		amount := core.MoneyFromMajor(res.ParsedData.Amount)
		out.Parsed = &parser.Utterance{
			RawText:    text,
			Intent:     parser.IntentLogExpense,
			Amount:     &amount,
			Category:   core.NormalizeCategory(res.ParsedData.Category),
			Date:       out.Expense.OccurredAt,
			Confidence: res.ParsedData.Confidence,
			Language:   out.Language,
		}
	}
	return out, nil
}

func (e *RemoteEngine) Query(ctx context.Context, id core.Identity, text string) (*QueryResult, error) {
	res, err := e.backend.ChatQuery(ctx, text)
	if errors.Is(err, remote.ErrNotSupported) {
		e.logger.DebugContext(ctx, "Backend has no query endpoint, answering locally")
		return e.answerLocally(ctx, id, text)
	}
	if err != nil {
		return nil, err
	}

	out := &QueryResult{Message: res.Message, Language: languageOr(res.Language)}
	if res.Context != nil {
		qc := &analytics.Context{
			Kind:    analytics.Classify(text),
			Summary: res.Message,
		}
		if res.Context.Type != "" {
			qc.Kind = analytics.Kind(res.Context.Type)
		}
		for _, d := range res.Context.RecentExpenses {
			qc.Supporting = append(qc.Supporting, d.Expense())
		}
		if len(res.Context.Totals) > 0 {
			qc.Totals = make(map[string]core.Money, len(res.Context.Totals))
			for cat, v := range res.Context.Totals {
				qc.Totals[cat] = core.MoneyFromMajor(v)
			}
		}
		qc.Count = len(qc.Supporting)
		qc.Total = core.Sum(qc.Supporting)
		out.Context = qc
	}
	return out, nil
}

func (e *RemoteEngine) answerLocally(ctx context.Context, id core.Identity, text string) (*QueryResult, error) {
	// The backend resolves the family from the token.
	expenses, err := e.backend.ListExpenses(ctx, store.Scope{UserID: id.UserID, FamilyID: id.FamilyID, Family: true})
	if err != nil {
		return nil, fmt.Errorf("load family expenses: %w", err)
	}
	answer := e.responder.Answer(text, expenses)
	return &QueryResult{Message: answer.Summary, Context: &answer, Language: core.English}, nil
}

func languageOr(l *core.Language) core.Language {
	if l == nil || l.Code == "" {
		return core.English
	}
	return *l
}
