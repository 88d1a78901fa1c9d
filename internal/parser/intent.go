package parser

import (
	"regexp"
	"strings"
)

// Intent is the classified purpose of an utterance.
type Intent string

const (
	IntentLogExpense Intent = "log_expense"
	IntentQuery      Intent = "query"
)

type intentRule struct {
	name   string
	match  func(string) bool
	intent Intent
}

// intentRules is first-match-wins. An amount token is decisive even when the
// text is phrased as a question.
var intentRules = []intentRule{
	{name: "amount", match: HasAmountToken, intent: IntentLogExpense},
}

var expenseVerbs = regexp.MustCompile(`(?i)\b(spend|spent|paid|pay|bought|buy|purchase[ds]?)\b`)

// Route classifies text. It is pure and never fails; anything that matches
// no rule is a query.
func Route(text string) Intent {
	for _, rule := range intentRules {
		if rule.match(text) {
			return rule.intent
		}
	}
	return IntentQuery
}

// HasExpenseVerb reports whether text uses a spending verb.
func HasExpenseVerb(text string) bool {
	return expenseVerbs.MatchString(strings.ToLower(text))
}
