// Package analytics aggregates leads, customers and accepted quotes into
// time buckets and headline numbers for the admin dashboard.
package analytics

import "time"

// Period is the bucket width.
type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

// Query selects the range [From, To) and the bucket width.
type Query struct {
	Period Period
	From   time.Time
	To     time.Time
}

// LeadRow is the slice of a lead analytics needs.
type LeadRow struct {
	Status    string
	Source    string
	Service   string
	CreatedAt time.Time
}

// CustomerRow is the slice of a customer analytics needs.
type CustomerRow struct {
	ContractValueCents int64
	MonthlyFeeCents    int64
	CreatedAt          time.Time
}

// QuoteRow is an accepted quote; AcceptedAt is its last status change.
type QuoteRow struct {
	TotalCents int64
	AcceptedAt time.Time
}

// Dataset is everything fetched for one report.
type Dataset struct {
	Leads     []LeadRow
	Customers []CustomerRow // every customer created before Query.To
	Quotes    []QuoteRow
}

// Bucket is one period in the series.
type Bucket struct {
	Start              time.Time `json:"start"`
	Label              string    `json:"label"`
	Leads              int       `json:"leads"`
	Converted          int       `json:"converted"`
	Customers          int       `json:"customers"`
	ContractValueCents int64     `json:"contract_value_cents"`
	AcceptedQuoteCents int64     `json:"accepted_quote_cents"`
}

// Report is the GET /api/analytics response.
type Report struct {
	Period                Period         `json:"period"`
	From                  time.Time      `json:"from"`
	To                    time.Time      `json:"to"`
	Buckets               []Bucket       `json:"buckets"`
	TotalLeads            int            `json:"total_leads"`
	ByStatus              map[string]int `json:"by_status"`
	BySource              map[string]int `json:"by_source"`
	ByService             map[string]int `json:"by_service"`
	ConversionRate        float64        `json:"conversion_rate"`
	NewCustomers          int            `json:"new_customers"`
	ContractValueCents    int64          `json:"contract_value_cents"`
	MonthlyRecurringCents int64          `json:"monthly_recurring_cents"`
	AcceptedQuotes        int            `json:"accepted_quotes"`
	AcceptedQuoteCents    int64          `json:"accepted_quote_cents"`
}

// Dashboard holds the headline counters of GET /api/dashboard.
type Dashboard struct {
	LeadsToday            int   `json:"leads_today"`
	LeadsThisWeek         int   `json:"leads_this_week"`
	LeadsThisMonth        int   `json:"leads_this_month"`
	OpenLeads             int   `json:"open_leads"`
	Customers             int   `json:"customers"`
	MonthlyRecurringCents int64 `json:"monthly_recurring_cents"`
	OpenQuotes            int   `json:"open_quotes"`
	OpenQuoteCents        int64 `json:"open_quote_cents"`
}
