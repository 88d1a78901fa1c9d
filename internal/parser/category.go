package parser

import (
	"strings"
	"unicode"

	"famspend/internal/core"
)

type categoryRule struct {
	category string
	keywords []string
}

// categoryRules is evaluated top to bottom; the first rule with a keyword
// equal to a word of the lower-cased text wins. A word may carry a plural
// "s" or "es" after the keyword.
var categoryRules = []categoryRule{
	{core.CategoryFood, []string{"food", "meal", "restaurant", "grocery", "groceries", "lunch", "dinner", "breakfast", "snack", "coffee", "pizza", "vegetable", "fruit", "milk", "खाने", "खाना"}},
	{core.CategoryTransport, []string{"transport", "taxi", "uber", "cab", "rickshaw", "bus", "train", "metro", "fuel", "petrol", "diesel", "parking", "flight", "travel"}},
	{core.CategoryShopping, []string{"shopping", "clothes", "shirt", "shoes", "dress", "amazon", "flipkart", "mall", "gift"}},
	{core.CategoryBills, []string{"bill", "electricity", "water", "rent", "rental", "internet", "wifi", "phone", "recharge", "gas", "emi", "insurance"}},
	{core.CategoryEntertainment, []string{"movie", "cinema", "netflix", "entertainment", "concert", "game", "party", "spotify"}},
	{core.CategoryHealth, []string{"health", "doctor", "medicine", "medical", "hospital", "pharmacy", "gym", "clinic"}},
	{core.CategoryEducation, []string{"education", "school", "college", "tuition", "course", "book", "fees", "exam", "class"}},
}

// Classify maps text onto the taxonomy. It never fails.
func Classify(text string) string {
	category, _ := classify(text)
	return category
}

func classify(text string) (category string, matched bool) {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsMark(r)
	})
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			for _, w := range words {
				if keywordWord(w, kw) {
					return rule.category, true
				}
			}
		}
	}
	return core.CategoryOthers, false
}

func keywordWord(word, kw string) bool {
	rest, ok := strings.CutPrefix(word, kw)
	return ok && (rest == "" || rest == "s" || rest == "es")
}
