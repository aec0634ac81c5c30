// Package money formats currency amounts for user-facing messages.
package money

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatUSD renders an amount rounded to whole dollars with thousands
// separators, e.g. 250000.4 -> "$250,000".
func FormatUSD(amount decimal.Decimal) string {
	whole := amount.Round(0).IntPart()
	if whole < 0 {
		return printer.Sprintf("-$%d", -whole)
	}
	return printer.Sprintf("$%d", whole)
}
