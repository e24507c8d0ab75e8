// Package common holds utilities used across the whole project:
// error/response helpers, request validation, local time and Dutch
// number formatting.
package common

import (
	"fmt"
	"net/http"
	"sync"
	"time"
)

var (
	locMu sync.RWMutex
	loc   = loadLocation("Europe/Amsterdam")
)

func loadLocation(name string) *time.Location {
	l, err := time.LoadLocation(name)
	if err != nil {
		// Without tzdata fall back to CET; summer time is then off by an hour.
		return time.FixedZone("CET", 1*60*60)
	}
	return l
}

// SetTimezone changes the location used for day/week/month bucketing.
func SetTimezone(name string) {
	l := loadLocation(name)
	locMu.Lock()
	loc = l
	locMu.Unlock()
}

// Location returns the agency's local time zone.
func Location() *time.Location {
	locMu.RLock()
	defer locMu.RUnlock()
	return loc
}

// LocalNow returns the current time in the agency's time zone.
func LocalNow() time.Time {
	return time.Now().In(Location())
}

// StartOfDay truncates t to local midnight.
func StartOfDay(t time.Time) time.Time {
	t = t.In(Location())
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// StartOfWeek returns the Monday (ISO week start) of t's week.
func StartOfWeek(t time.Time) time.Time {
	d := StartOfDay(t)
	offset := (int(d.Weekday()) + 6) % 7 // Monday = 0
	return d.AddDate(0, 0, -offset)
}

// StartOfMonth returns the first day of t's month.
func StartOfMonth(t time.Time) time.Time {
	t = t.In(Location())
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// FormatDateTime formats t as "02-01-2006 15:04" in local time.
func FormatDateTime(t time.Time) string {
	return t.In(Location()).Format("02-01-2006 15:04")
}

// ParseDateParam reads an optional YYYY-MM-DD query parameter as local
// midnight. Zero time means the parameter was absent.
func ParseDateParam(r *http.Request, name string) (time.Time, *APIError) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation("2006-01-02", raw, Location())
	if err != nil {
		return time.Time{}, &APIError{
			Status:  http.StatusBadRequest,
			Message: MsgInvalidInput,
			Details: map[string]string{name: fmt.Sprintf("moet een datum zijn (JJJJ-MM-DD), kreeg %q", raw)},
			Cause:   err,
		}
	}
	return t, nil
}
