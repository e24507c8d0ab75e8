// Package quotes is the quote builder: line items, VAT and totals in
// cents, yearly numbering and the draft → sent → accepted/rejected flow.
package quotes

import "time"

// Status of a quote.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusSent     Status = "sent"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// Item is one line of a quote. Quantity may be fractional (hours).
type Item struct {
	Description    string  `json:"description"`
	Quantity       float64 `json:"quantity"`
	UnitPriceCents int64   `json:"unit_price_cents"`
	TotalCents     int64   `json:"total_cents"`
}

// Quote is stored with its computed totals so lists and analytics never
// recalculate.
type Quote struct {
	ID            string    `json:"id" db:"id"`
	LeadID        string    `json:"lead_id" db:"lead_id"`
	Number        string    `json:"quote_number" db:"quote_number"`
	Title         string    `json:"title" db:"title"`
	Items         []Item    `json:"items" db:"items"`
	VATRate       int       `json:"vat_rate" db:"vat_rate"`
	SubtotalCents int64     `json:"subtotal_cents" db:"subtotal_cents"`
	VATCents      int64     `json:"vat_cents" db:"vat_cents"`
	TotalCents    int64     `json:"total_cents" db:"total_cents"`
	Status        Status    `json:"status" db:"status"`
	ValidUntil    time.Time `json:"valid_until" db:"valid_until"`
	Notes         string    `json:"notes" db:"notes"`
	CreatedBy     string    `json:"created_by" db:"created_by"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// ItemInput is one line as sent by the quote builder. Negative prices
// are discount lines.
type ItemInput struct {
	Description    string  `json:"description" validate:"required,max=500"`
	Quantity       float64 `json:"quantity" validate:"gt=0,lte=100000"`
	UnitPriceCents int64   `json:"unit_price_cents" validate:"gte=-100000000,lte=100000000"`
}

// Input handles POST /api/leads/{id}/quotes and PUT /api/quotes/{id}.
type Input struct {
	Title     string      `json:"title" validate:"required,max=160"`
	Items     []ItemInput `json:"items" validate:"required,min=1,max=100,dive"`
	VATRate   *int        `json:"vat_rate" validate:"omitempty,min=0,max=100"`
	ValidDays *int        `json:"valid_days" validate:"omitempty,min=1,max=365"`
	Notes     string      `json:"notes" validate:"max=5000"`
}

// StatusInput is the body of PATCH /api/quotes/{id}/status.
type StatusInput struct {
	Status string `json:"status" validate:"required,oneof=draft sent accepted rejected"`
}
