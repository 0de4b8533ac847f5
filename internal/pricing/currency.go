package pricing

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const CurrencyCode = "NOK"

var (
	locale  = language.MustParse("nb-NO")
	printer = message.NewPrinter(locale)
)

// FormatCurrency renders an amount the way nb-NO prices are shown, with
// two decimals and a trailing "kr": 1499 becomes "1 499,00 kr". Both gaps
// are no-break spaces.
func FormatCurrency(amount float64) string {
	return printer.Sprintf("%v\u00a0kr", number.Decimal(amount,
		number.MinFractionDigits(2),
		number.MaxFractionDigits(2),
	))
}
