// Package chat runs conversational turns: route the text, record or answer
// it through an Engine, and keep the per-session transcript and stats.
package chat

import (
	"context"

	"famspend/internal/analytics"
	"famspend/internal/core"
	"famspend/internal/parser"
)

// LogResult is a recorded expense plus the text to show for it.
type LogResult struct {
	Expense     core.Expense
	Message     string
	Parsed      *parser.Utterance
	FamilyTotal *core.Money
	Language    core.Language
}

// QueryResult is an answer to an analytics question.
type QueryResult struct {
	Message  string
	Context  *analytics.Context
	Language core.Language
}

// Engine records and answers on behalf of one identity. RemoteEngine is
// the default; LocalEngine runs the same rules in process.
type Engine interface {
	LogExpense(ctx context.Context, id core.Identity, text string) (*LogResult, error)
	Query(ctx context.Context, id core.Identity, text string) (*QueryResult, error)
}
