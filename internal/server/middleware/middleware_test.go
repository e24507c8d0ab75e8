package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixelwerk.nl/backoffice/internal/common"
	"pixelwerk.nl/backoffice/internal/ratelimit"
)

var noContent = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func TestRateLimit(t *testing.T) {
	now := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	store := ratelimit.NewMemoryStore(0)
	defer store.Close()
	l := ratelimit.NewLimiter(store).WithClock(func() time.Time { return now })

	h := ClientIP(0)(RateLimit(l, "contact", ratelimit.Quota{Max: 2, Window: time.Hour})(noContent))

	do := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/leads/submit", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := do("203.0.113.9:5000")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusNoContent, do("203.0.113.9:5001").Code)

	rec = do("203.0.113.9:5002")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "3600", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), MsgTooManyRequests)

	// Other address, own budget.
	assert.Equal(t, http.StatusNoContent, do("198.51.100.1:5000").Code)

	// Window elapsed.
	now = now.Add(time.Hour)
	assert.Equal(t, http.StatusNoContent, do("203.0.113.9:5003").Code)
}

type brokenStore struct{}

func (brokenStore) Hit(context.Context, string, time.Duration, time.Time) (ratelimit.Bucket, error) {
	return ratelimit.Bucket{}, errors.New("redis down")
}
func (brokenStore) Close() error { return nil }

func TestRateLimit_FailsOpen(t *testing.T) {
	h := RateLimit(ratelimit.NewLimiter(brokenStore{}), "api", ratelimit.Quota{Max: 1, Window: time.Minute})(noContent)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	}
}

func TestRecovery(t *testing.T) {
	h := Recovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	require.NotPanics(t, func() { h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil)) })
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), common.MsgInternal)
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name string
		hops int
		xff  string
		want string
	}{
		{"remote addr", 0, "", "192.0.2.1"},
		{"ignores proxy header when untrusted", 0, "203.0.113.5", "192.0.2.1"},
		{"address appended by the proxy", 1, "6.6.6.6, 203.0.113.5", "203.0.113.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := ClientIP(tt.hops)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				got = common.ClientIP(r)
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "192.0.2.1:1234"
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRateLimit_SpoofedForwardedFor(t *testing.T) {
	store := ratelimit.NewMemoryStore(0)
	defer store.Close()
	l := ratelimit.NewLimiter(store)
	login := ratelimit.Quota{Max: 10, Window: 15 * time.Minute}

	for _, hops := range []int{0, 1} {
		t.Run(fmt.Sprintf("hops=%d", hops), func(t *testing.T) {
			h := ClientIP(hops)(RateLimit(l, fmt.Sprintf("login%d", hops), login)(noContent))
			for i := 1; i <= 11; i++ {
				req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
				req.RemoteAddr = "198.51.100.7:4000"
				// The client rotates the leftmost entry; the proxy appends the real address.
				req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.9.%d.%d, 198.51.100.7", i, i))
				rec := httptest.NewRecorder()
				h.ServeHTTP(rec, req)
				if i <= 10 {
					require.Equal(t, http.StatusNoContent, rec.Code, "request %d", i)
				} else {
					assert.Equal(t, http.StatusTooManyRequests, rec.Code)
				}
			}
		})
	}
}

func TestLogger_PassesThrough(t *testing.T) {
	rec := httptest.NewRecorder()
	Logger(noContent).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
