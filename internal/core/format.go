package core

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Formatter renders Money the way people read it in chat: symbol prefix,
// locale grouping, no trailing fractional zeros ("₹1,234", "₹99.5").
type Formatter struct {
	symbol  string
	printer *message.Printer
}

// NewFormatter builds a formatter for a BCP 47 locale. Unknown locales fall back to English.
func NewFormatter(symbol, locale string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return &Formatter{
		symbol:  symbol,
		printer: message.NewPrinter(tag),
	}
}

// DefaultFormatter renders rupees with English grouping.
func DefaultFormatter() *Formatter {
	return NewFormatter("₹", "en")
}

func (f *Formatter) Format(m Money) string {
	return f.symbol + f.Number(m)
}

// Number renders the amount without the currency symbol.
func (f *Formatter) Number(m Money) string {
	return f.printer.Sprint(number.Decimal(m.Major(), number.MaxFractionDigits(2)))
}

func (f *Formatter) Symbol() string {
	return f.symbol
}
