package analytics

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixelwerk.nl/backoffice/internal/common"
)

func day(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, common.Location())
}

func TestBuckets(t *testing.T) {
	tests := []struct {
		name   string
		from   time.Time
		to     time.Time
		period Period
		labels []string
	}{
		{"days", day(2025, 3, 1, 0), day(2025, 3, 4, 0), PeriodDay, []string{"01-03", "02-03", "03-03"}},
		{"days across DST", day(2025, 3, 29, 0), day(2025, 4, 1, 0), PeriodDay, []string{"29-03", "30-03", "31-03"}},
		{"weeks start on monday", day(2025, 3, 5, 0), day(2025, 3, 20, 0), PeriodWeek, []string{"week 10", "week 11", "week 12"}},
		{"months", day(2025, 1, 15, 0), day(2025, 3, 1, 0), PeriodMonth, []string{"jan 2025", "feb 2025"}},
		{"empty range", day(2025, 3, 1, 0), day(2025, 3, 1, 0), PeriodDay, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buckets := Buckets(tt.from, tt.to, tt.period)
			var labels []string
			for _, b := range buckets {
				labels = append(labels, b.Label)
			}
			assert.Equal(t, tt.labels, labels)
		})
	}
}

func TestBuckets_WeekStartIsMonday(t *testing.T) {
	buckets := Buckets(day(2025, 3, 5, 0), day(2025, 3, 6, 0), PeriodWeek)
	require.Len(t, buckets, 1)
	assert.Equal(t, time.Monday, buckets[0].Start.Weekday())
	assert.Equal(t, 3, buckets[0].Start.Day())
}

func TestAggregate(t *testing.T) {
	q := Query{Period: PeriodDay, From: day(2025, 3, 1, 0), To: day(2025, 3, 4, 0)}
	d := Dataset{
		Leads: []LeadRow{
			{Status: "converted", Source: "form", Service: "webshop", CreatedAt: day(2025, 3, 1, 9)},
			{Status: "new", Source: "manual", CreatedAt: day(2025, 3, 1, 23)},
			{Status: "lost", Source: "form", Service: "website", CreatedAt: day(2025, 3, 3, 12)},
			{Status: "new", Source: "form", Service: "website", CreatedAt: day(2025, 3, 5, 12)},
		},
		Customers: []CustomerRow{
			{ContractValueCents: 100000, MonthlyFeeCents: 5000, CreatedAt: day(2025, 2, 1, 10)},
			{ContractValueCents: 300000, MonthlyFeeCents: 2500, CreatedAt: day(2025, 3, 2, 10)},
		},
		Quotes: []QuoteRow{
			{TotalCents: 121000, AcceptedAt: day(2025, 3, 3, 16)},
			{TotalCents: 50000, AcceptedAt: day(2025, 2, 28, 16)},
		},
	}

	r := Aggregate(q, d)

	require.Len(t, r.Buckets, 3)
	assert.Equal(t, 2, r.Buckets[0].Leads)
	assert.Equal(t, 1, r.Buckets[0].Converted)
	assert.Equal(t, 0, r.Buckets[1].Leads)
	assert.Equal(t, 1, r.Buckets[1].Customers)
	assert.Equal(t, int64(300000), r.Buckets[1].ContractValueCents)
	assert.Equal(t, 1, r.Buckets[2].Leads)
	assert.Equal(t, int64(121000), r.Buckets[2].AcceptedQuoteCents)

	assert.Equal(t, 3, r.TotalLeads)
	assert.Equal(t, map[string]int{"converted": 1, "new": 1, "lost": 1}, r.ByStatus)
	assert.Equal(t, map[string]int{"form": 2, "manual": 1}, r.BySource)
	assert.Equal(t, map[string]int{"webshop": 1, "website": 1, "onbekend": 1}, r.ByService)
	assert.Equal(t, 33.3, r.ConversionRate)
	assert.Equal(t, 1, r.NewCustomers)
	assert.Equal(t, int64(300000), r.ContractValueCents)
	assert.Equal(t, int64(7500), r.MonthlyRecurringCents)
	assert.Equal(t, 1, r.AcceptedQuotes)
	assert.Equal(t, int64(121000), r.AcceptedQuoteCents)
}

func TestAggregate_NoLeads(t *testing.T) {
	q := Query{Period: PeriodMonth, From: day(2025, 1, 1, 0), To: day(2025, 4, 1, 0)}
	r := Aggregate(q, Dataset{})
	assert.Len(t, r.Buckets, 3)
	assert.Zero(t, r.ConversionRate)
	assert.Empty(t, r.ByStatus)
}

type stubStore struct {
	from, to time.Time
}

func (s *stubStore) Dataset(_ context.Context, from, to time.Time) (*Dataset, error) {
	s.from, s.to = from, to
	return &Dataset{}, nil
}

func (s *stubStore) Dashboard(_ context.Context, today, week, month time.Time) (*Dashboard, error) {
	return &Dashboard{LeadsToday: today.Day(), LeadsThisWeek: week.Day(), LeadsThisMonth: month.Day()}, nil
}

func TestService_Report(t *testing.T) {
	store := &stubStore{}
	svc := NewService(store).WithClock(func() time.Time { return day(2025, 3, 15, 12) })

	r, err := svc.Report(context.Background(), Query{})
	require.NoError(t, err)
	assert.Equal(t, PeriodDay, r.Period)
	assert.Equal(t, day(2025, 3, 16, 0), store.to)
	assert.Equal(t, day(2025, 2, 14, 0), store.from)
	assert.Len(t, r.Buckets, 30)

	tests := []struct {
		name  string
		q     Query
		field string
	}{
		{"unknown period", Query{Period: "year"}, "period"},
		{"from after to", Query{From: day(2025, 3, 10, 0), To: day(2025, 3, 1, 0)}, "from"},
		{"too many buckets", Query{From: day(2023, 1, 1, 0), To: day(2025, 1, 1, 0)}, "period"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Report(context.Background(), tt.q)
			apiErr := common.ToAPIError(err)
			assert.Equal(t, http.StatusBadRequest, apiErr.Status)
			assert.Contains(t, apiErr.Details, tt.field)
		})
	}
}

func TestService_Report_HugeRangeRejectedCheaply(t *testing.T) {
	store := &stubStore{}
	svc := NewService(store)

	for _, p := range []Period{PeriodDay, PeriodWeek, PeriodMonth} {
		t.Run(string(p), func(t *testing.T) {
			start := time.Now()
			_, err := svc.Report(context.Background(), Query{
				Period: p,
				From:   day(1000, 1, 1, 0),
				To:     day(9999, 12, 31, 0),
			})
			apiErr := common.ToAPIError(err)
			assert.Equal(t, http.StatusBadRequest, apiErr.Status)
			assert.Contains(t, apiErr.Details, "period")
			assert.Less(t, time.Since(start), time.Second)
			assert.True(t, store.from.IsZero(), "store must not be queried")
		})
	}
}

func TestCountBuckets(t *testing.T) {
	from := day(2024, 1, 1, 0)
	assert.Equal(t, 400, countBuckets(from, from.AddDate(0, 0, 400), PeriodDay, maxBuckets))
	assert.Equal(t, 401, countBuckets(from, from.AddDate(0, 0, 5000), PeriodDay, maxBuckets))
	assert.Equal(t, 3, countBuckets(from, day(2024, 3, 15, 0), PeriodMonth, maxBuckets))
	assert.Equal(t, len(Buckets(from, day(2024, 3, 15, 0), PeriodWeek)),
		countBuckets(from, day(2024, 3, 15, 0), PeriodWeek, maxBuckets))
}

func TestService_Dashboard(t *testing.T) {
	// Saturday 15 March 2025: week started Monday the 10th.
	svc := NewService(&stubStore{}).WithClock(func() time.Time { return day(2025, 3, 15, 12) })
	d, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 15, d.LeadsToday)
	assert.Equal(t, 10, d.LeadsThisWeek)
	assert.Equal(t, 1, d.LeadsThisMonth)
}
