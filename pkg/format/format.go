// Package format renders token and fiat amounts for display. All math here is
// on decimal values; base-unit scaling never happens at this layer.
package format

import (
	"strings"

	"github.com/shopspring/decimal"
)

var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
}

// Money renders value with at most places decimal digits, truncating rather
// than rounding, and with trailing zeros trimmed ("12.5", not "12.500").
func Money(value float64, places int32) string {
	d := decimal.NewFromFloat(value).Truncate(places)
	s := d.StringFixed(places)
	if !strings.Contains(s, ".") {
		return s
	}
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// Fiat renders a fiat amount with its currency symbol and two decimals.
// Unknown currencies fall back to the ISO code as a suffix.
func Fiat(value float64, currency string) string {
	amount := decimal.NewFromFloat(value).StringFixed(2)
	if symbol, ok := currencySymbols[currency]; ok {
		return symbol + amount
	}
	if currency == "" {
		return amount
	}
	return amount + " " + currency
}

// Percent renders a percentage with the given precision, e.g. "25.0000%".
func Percent(value float64, places int32) string {
	return decimal.NewFromFloat(value).StringFixed(places) + "%"
}
