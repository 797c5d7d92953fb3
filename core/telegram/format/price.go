package format

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Price renders an amount in dollars with thousands grouping, e.g. "$1,299.50".
func Price(amount float64) string {
	return printer.Sprintf("$%.2f", amount)
}

// Number renders an amount with two decimals and grouping but no currency sign.
func Number(amount float64) string {
	return printer.Sprintf("%.2f", amount)
}
