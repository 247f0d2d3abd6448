package provider

import (
	"fmt"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatAmount renders minor units with the currency symbol, e.g. "KES 1,500.00".
// Unknown currency codes fall back to the raw code.
func FormatAmount(cents int64, code string) string {
	major := float64(cents) / 100
	unit, err := currency.ParseISO(code)
	if err != nil {
		return printer.Sprintf("%s %.2f", code, major)
	}
	return printer.Sprint(currency.Symbol(unit.Amount(major)))
}

// Describe is the payer-facing description sent with a push request
func Describe(planName string, cents int64, code string) string {
	if planName == "" {
		return FormatAmount(cents, code)
	}
	return fmt.Sprintf("%s - %s", planName, FormatAmount(cents, code))
}
