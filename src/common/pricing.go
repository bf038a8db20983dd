package common

import (
	"whitepalace/src/models"
)

type OrderTotals struct {
	SubtotalCents int64 `json:"subtotal_cents"`
	TaxCents      int64 `json:"tax_cents"`
	TotalCents    int64 `json:"total_cents"`
}

// CalculateOrderTotals is pure: line items in, totals out. Amounts are
// integer cents so totals are exact; tax is rounded half-up at the order
// level, the way the register rounds it.
func CalculateOrderTotals(items []models.OrderItem, taxRateBasisPoints int64) OrderTotals {
	var subtotal int64
	for _, item := range items {
		subtotal += item.PriceCents * int64(item.Quantity)
	}
	tax := (subtotal*taxRateBasisPoints + 5000) / 10000
	return OrderTotals{
		SubtotalCents: subtotal,
		TaxCents:      tax,
		TotalCents:    subtotal + tax,
	}
}
