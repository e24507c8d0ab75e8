// aggregate.go turns a Dataset into a Report. Pure
// functions; all bucketing happens in the agency's time zone.

package analytics

import (
	"fmt"
	"math"
	"time"

	"pixelwerk.nl/backoffice/internal/common"
)

const statusConverted = "converted"

var monthNames = [...]string{"jan", "feb", "mrt", "apr", "mei", "jun", "jul", "aug", "sep", "okt", "nov", "dec"}

// bucketStart returns the start of the bucket containing t.
func bucketStart(t time.Time, p Period) time.Time {
	switch p {
	case PeriodWeek:
		return common.StartOfWeek(t)
	case PeriodMonth:
		return common.StartOfMonth(t)
	default:
		return common.StartOfDay(t)
	}
}

func nextBucket(t time.Time, p Period) time.Time {
	switch p {
	case PeriodWeek:
		return t.AddDate(0, 0, 7)
	case PeriodMonth:
		return t.AddDate(0, 1, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}

// bucketLabel: "14-03" for days, "week 11" (ISO) for weeks, "mrt 2025" for months.
func bucketLabel(t time.Time, p Period) string {
	switch p {
	case PeriodWeek:
		_, w := t.ISOWeek()
		return fmt.Sprintf("week %d", w)
	case PeriodMonth:
		return fmt.Sprintf("%s %d", monthNames[t.Month()-1], t.Year())
	default:
		return t.Format("02-01")
	}
}

// Buckets returns every bucket overlapping [from, to), empty ones included.
func Buckets(from, to time.Time, p Period) []Bucket {
	var out []Bucket
	for t := bucketStart(from, p); t.Before(to); t = nextBucket(t, p) {
		out = append(out, Bucket{Start: t, Label: bucketLabel(t, p)})
	}
	return out
}

// Aggregate builds the report for q from d. Rows outside [q.From, q.To)
// are ignored, except customers, whose monthly fees all count towards
// the recurring revenue.
func Aggregate(q Query, d Dataset) *Report {
	r := &Report{
		Period:    q.Period,
		From:      q.From,
		To:        q.To,
		Buckets:   Buckets(q.From, q.To, q.Period),
		ByStatus:  make(map[string]int),
		BySource:  make(map[string]int),
		ByService: make(map[string]int),
	}

	index := make(map[int64]int, len(r.Buckets))
	for i, b := range r.Buckets {
		index[b.Start.Unix()] = i
	}
	find := func(t time.Time) (*Bucket, bool) {
		if t.Before(q.From) || !t.Before(q.To) {
			return nil, false
		}
		i, ok := index[bucketStart(t, q.Period).Unix()]
		if !ok {
			return nil, false
		}
		return &r.Buckets[i], true
	}

	converted := 0
	for _, l := range d.Leads {
		b, ok := find(l.CreatedAt)
		if !ok {
			continue
		}
		b.Leads++
		r.TotalLeads++
		r.ByStatus[l.Status]++
		r.BySource[l.Source]++
		service := l.Service
		if service == "" {
			service = "onbekend"
		}
		r.ByService[service]++
		if l.Status == statusConverted {
			b.Converted++
			converted++
		}
	}
	r.ConversionRate = conversionRate(converted, r.TotalLeads)

	for _, c := range d.Customers {
		if c.CreatedAt.Before(q.To) {
			r.MonthlyRecurringCents += c.MonthlyFeeCents
		}
		b, ok := find(c.CreatedAt)
		if !ok {
			continue
		}
		b.Customers++
		b.ContractValueCents += c.ContractValueCents
		r.NewCustomers++
		r.ContractValueCents += c.ContractValueCents
	}

	for _, qt := range d.Quotes {
		b, ok := find(qt.AcceptedAt)
		if !ok {
			continue
		}
		b.AcceptedQuoteCents += qt.TotalCents
		r.AcceptedQuotes++
		r.AcceptedQuoteCents += qt.TotalCents
	}
	return r
}

// conversionRate is converted/total as a percentage with one decimal.
func conversionRate(converted, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(converted)*1000/float64(total)) / 10
}
