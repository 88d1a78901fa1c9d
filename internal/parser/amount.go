package parser

import (
	"regexp"
	"strings"
	"unicode"

	"famspend/internal/core"
)

// amountPattern finds the first money-looking token. Group 1 is a leading
// currency marker, group 2 the number, group 3 a trailing marker. Comma
// grouping is checked separately by groupedNumber.
var amountPattern = regexp.MustCompile(
	`(?i)(₹|\brs\.?|\binr\b)?\s*(\d+(?:,\d+)*(?:\.\d+)?)\s*(rupees?\b|rs\b|inr\b|₹)?`,
)

// groupedNumber accepts western (1,234,567) and Indian (12,34,567)
// thousands grouping. The last group always has three digits.
var groupedNumber = regexp.MustCompile(`^(?:\d{1,3}(?:,\d{3})+|\d{1,2}(?:,\d{2})+,\d{3})$`)

// AmountMatch is the result of scanning text for an amount.
type AmountMatch struct {
	Amount    core.Money
	Token     string // the matched text including markers
	HasMarker bool   // an explicit currency marker was attached
}

// ExtractAmount returns the first monetary amount in text.
// A miss yields a *core.ExtractionError; zero is never substituted.
func ExtractAmount(text string) (AmountMatch, error) {
	idx := amountPattern.FindStringSubmatchIndex(text)
	if idx == nil {
		return AmountMatch{}, &core.ExtractionError{Text: text, Reason: "no amount"}
	}
	m := make([]string, 4)
	for i := range m {
		if idx[2*i] >= 0 {
			m[i] = text[idx[2*i]:idx[2*i+1]]
		}
	}

	if negated(text, idx[0]) || negated(text, idx[4]) {
		return AmountMatch{}, &core.ExtractionError{Text: text, Reason: "negative amount " + m[2]}
	}
	whole, _, _ := strings.Cut(m[2], ".")
	if strings.Contains(whole, ",") && !groupedNumber.MatchString(whole) {
		return AmountMatch{}, &core.ExtractionError{Text: text, Reason: "ambiguous digit grouping " + m[2]}
	}
	amount, err := core.ParseAmount(m[2])
	if err != nil {
		return AmountMatch{}, &core.ExtractionError{Text: text, Reason: "unreadable amount " + m[2]}
	}
	return AmountMatch{
		Amount:    amount,
		Token:     strings.TrimSpace(m[0]),
		HasMarker: m[1] != "" || m[3] != "",
	}, nil
}

// negated reports whether a minus sign sits directly before pos and
// starts a word or follows a currency marker, so "-500" and "₹-500" are
// negative while "movie-500" is not.
func negated(text string, pos int) bool {
	if pos == 0 || text[pos-1] != '-' {
		return false
	}
	before := text[:pos-1]
	if before == "" || markerSuffix.MatchString(before) {
		return true
	}
	last := before[len(before)-1]
	return unicode.IsSpace(rune(last)) || last == '('
}

var markerSuffix = regexp.MustCompile(`(?i)(₹|\brs\.?|\binr)\s*$`)

// HasAmountToken reports whether text carries any digit sequence.
func HasAmountToken(text string) bool {
	return digits.MatchString(text)
}

var digits = regexp.MustCompile(`\d`)
