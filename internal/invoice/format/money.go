package format

import (
	"fmt"
	"strings"
)

var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"IDR": "Rp",
	"JPY": "¥",
}

// FormatCents renders an integer minor-unit amount for documents and emails.
//
// This function is PURE:
// - No side effects
// - Fully deterministic
func FormatCents(cents int64, currency string) string {
	currency = strings.ToUpper(strings.TrimSpace(currency))

	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}

	amount := fmt.Sprintf("%d.%02d", cents/100, cents%100)
	if symbol, ok := currencySymbols[currency]; ok {
		return sign + symbol + amount
	}
	if currency == "" {
		return sign + amount
	}
	return fmt.Sprintf("%s%s %s", sign, currency, amount)
}

// FormatQuantity trims trailing zeros so whole quantities print as integers.
func FormatQuantity(quantity float64) string {
	s := fmt.Sprintf("%.2f", quantity)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	if s == "" || s == "-" {
		return "0"
	}
	return s
}
