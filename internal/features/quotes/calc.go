package quotes

import (
	"fmt"
	"math"
	"time"
)

// Totals is the computed money part of a quote.
type Totals struct {
	Items         []Item
	SubtotalCents int64
	VATCents      int64
	TotalCents    int64
}

// Calculate prices every line and applies VAT to the subtotal. Line
// totals and VAT are rounded half away from zero to whole cents.
func Calculate(items []ItemInput, vatRate int) (Totals, error) {
	t := Totals{Items: make([]Item, 0, len(items))}
	for _, in := range items {
		line := int64(math.Round(in.Quantity * float64(in.UnitPriceCents)))
		t.Items = append(t.Items, Item{
			Description:    in.Description,
			Quantity:       in.Quantity,
			UnitPriceCents: in.UnitPriceCents,
			TotalCents:     line,
		})
		t.SubtotalCents += line
	}
	if t.SubtotalCents < 0 {
		return Totals{}, fmt.Errorf("subtotaal is negatief (%d cent)", t.SubtotalCents)
	}
	t.VATCents = roundDiv(t.SubtotalCents*int64(vatRate), 100)
	t.TotalCents = t.SubtotalCents + t.VATCents
	return t, nil
}

// roundDiv divides and rounds half away from zero.
func roundDiv(a, b int64) int64 {
	if a < 0 {
		return -roundDiv(-a, b)
	}
	return (a + b/2) / b
}

var transitions = map[Status][]Status{
	StatusDraft: {StatusSent, StatusRejected},
	StatusSent:  {StatusAccepted, StatusRejected},
}

// CanTransition reports whether a quote may move from → to.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// FormatNumber renders a quote number, e.g. OFF-2025-0007.
func FormatNumber(year, seq int) string {
	return fmt.Sprintf("OFF-%d-%04d", year, seq)
}

// ValidUntil is the last valid day, days after now in local time.
func ValidUntil(now time.Time, days int) time.Time {
	d := now.AddDate(0, 0, days)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
}
