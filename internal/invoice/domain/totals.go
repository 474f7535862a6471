package domain

import "math"

// TotalsResult is the persisted money summary of an invoice.
type TotalsResult struct {
	SubtotalCents int64
	TaxCents      int64
	TotalCents    int64
}

// LineAmount converts a fractional quantity at a unit price in cents to a
// line amount in cents, rounding half up. All later arithmetic is integer,
// so rounding happens exactly once per line.
func LineAmount(quantity float64, unitPriceCents int64) int64 {
	return int64(math.Floor(quantity*float64(unitPriceCents) + 0.5))
}

// TaxAmount applies a percentage rate to a subtotal in cents, rounding half up.
func TaxAmount(subtotalCents int64, taxRate float64) int64 {
	return int64(math.Floor(float64(subtotalCents)*taxRate/100 + 0.5))
}

// Totals sums already-rounded line amounts and adds tax. Integer addition is
// associative, so the result does not depend on item order.
func Totals(lineAmounts []int64, taxCents int64) TotalsResult {
	var subtotal int64
	for _, amount := range lineAmounts {
		subtotal += amount
	}
	return TotalsResult{
		SubtotalCents: subtotal,
		TaxCents:      taxCents,
		TotalCents:    subtotal + taxCents,
	}
}
