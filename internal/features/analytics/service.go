// service.go validates the requested range and
// hands the fetched rows to Aggregate.

package analytics

import (
	"context"
	"net/http"
	"time"

	"pixelwerk.nl/backoffice/internal/common"
)

// maxBuckets caps the series length, e.g. a little over a year of days.
const maxBuckets = 400

// Store is the persistence the service needs; Repository implements it.
type Store interface {
	Dataset(ctx context.Context, from, to time.Time) (*Dataset, error)
	Dashboard(ctx context.Context, today, week, month time.Time) (*Dashboard, error)
}

// Service implements the analytics operations.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates the analytics service.
func NewService(store Store) *Service {
	return &Service{store: store, now: common.LocalNow}
}

// WithClock replaces the clock; tests only.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Report aggregates the range in q. Missing bounds default to the last
// 30 days, 12 weeks or 12 months up to and including today.
func (s *Service) Report(ctx context.Context, q Query) (*Report, error) {
	q, err := s.normalize(q)
	if err != nil {
		return nil, err
	}
	d, err := s.store.Dataset(ctx, q.From, q.To)
	if err != nil {
		return nil, err
	}
	return Aggregate(q, *d), nil
}

// Dashboard returns the headline counters for today, this week and this month.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	now := s.now()
	return s.store.Dashboard(ctx, common.StartOfDay(now), common.StartOfWeek(now), common.StartOfMonth(now))
}

func (s *Service) normalize(q Query) (Query, error) {
	if q.Period == "" {
		q.Period = PeriodDay
	}
	switch q.Period {
	case PeriodDay, PeriodWeek, PeriodMonth:
	default:
		return q, invalid("period", "moet day, week of month zijn")
	}

	if q.To.IsZero() {
		q.To = common.StartOfDay(s.now()).AddDate(0, 0, 1)
	}
	if q.From.IsZero() {
		switch q.Period {
		case PeriodWeek:
			q.From = common.StartOfWeek(q.To.AddDate(0, 0, -7*12))
		case PeriodMonth:
			q.From = common.StartOfMonth(q.To.AddDate(0, -11, -1))
		default:
			q.From = q.To.AddDate(0, 0, -30)
		}
	}
	if !q.From.Before(q.To) {
		return q, invalid("from", "moet voor de einddatum liggen")
	}
	if countBuckets(q.From, q.To, q.Period, maxBuckets) > maxBuckets {
		return q, invalid("period", "te veel perioden, kies een grotere periode of een kleiner bereik")
	}
	return q, nil
}

// countBuckets counts the buckets in [from, to) but stops once the count
// passes limit, so the cost is bounded by limit and not by the range.
func countBuckets(from, to time.Time, p Period, limit int) int {
	n := 0
	for t := bucketStart(from, p); t.Before(to) && n <= limit; t = nextBucket(t, p) {
		n++
	}
	return n
}

func invalid(field, msg string) *common.APIError {
	return &common.APIError{
		Status:  http.StatusBadRequest,
		Message: common.MsgInvalidInput,
		Details: map[string]string{field: msg},
	}
}
