// Package parser turns chat text into structured slots: intent, amount,
// category and date. Everything here is rule based and deterministic.
package parser

import (
	"time"

	"famspend/internal/core"
)

// Utterance is the parse of one chat message. It is never persisted.
type Utterance struct {
	RawText    string        `json:"rawText"`
	Intent     Intent        `json:"intent"`
	Amount     *core.Money   `json:"-"`
	Category   string        `json:"category,omitempty"`
	Date       time.Time     `json:"date"`
	Confidence float64       `json:"confidence"`
	Language   core.Language `json:"language"`
}

// Parser bundles the extractors around one clock.
type Parser struct {
	dates *DateResolver
}

func New(now Clock) *Parser {
	return &Parser{dates: NewDateResolver(now)}
}

func (p *Parser) Now() time.Time {
	return p.dates.Now()
}

// Parse runs every extractor over text. Missing amounts are not an error
// here; callers that need one use ParseExpense.
func (p *Parser) Parse(text string) Utterance {
	u := Utterance{
		RawText:  text,
		Intent:   Route(text),
		Date:     p.dates.Resolve(text),
		Language: core.English,
	}
	category, categoryMatched := classify(text)
	u.Category = category

	match, err := ExtractAmount(text)
	if err == nil {
		amount := match.Amount
		u.Amount = &amount
	}
	u.Confidence = confidence(err == nil, categoryMatched, match.HasMarker, HasExpenseVerb(text))
	return u
}

// ParseExpense is Parse for the record path: a missing amount fails with
// a *core.ExtractionError.
func (p *Parser) ParseExpense(text string) (Utterance, error) {
	if _, err := ExtractAmount(text); err != nil {
		return Utterance{RawText: text, Intent: IntentLogExpense, Language: core.English}, err
	}
	return p.Parse(text), nil
}

func confidence(amount, category, marker, verb bool) float64 {
	if !amount {
		return 0
	}
	c := 0.6
	if category {
		c += 0.2
	}
	if marker {
		c += 0.1
	}
	if verb {
		c += 0.1
	}
	if c > 1 {
		c = 1
	}
	return c
}
