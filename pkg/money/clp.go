// Package money renders amounts in the storefront's local currency.
package money

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Chilean pesos have no fractional unit in everyday use, so amounts are
// whole pesos formatted with es-CL digit grouping.
var printer = message.NewPrinter(language.MustParse("es-CL"))

// FormatCLP renders an amount of Chilean pesos, e.g. 12990 -> "$12.990".
func FormatCLP(amount int64) string {
	return printer.Sprintf("$%d", amount)
}
