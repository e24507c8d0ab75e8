package middleware

import (
	"net/http"
	"strconv"

	log "github.com/sirupsen/logrus"

	"pixelwerk.nl/backoffice/internal/common"
	"pixelwerk.nl/backoffice/internal/ratelimit"
)

// MsgTooManyRequests is the 429 body text.
const MsgTooManyRequests = "Te veel verzoeken, probeer het later opnieuw"

// RateLimit counts requests per "<category>:<client-ip>" against q.
// Every response carries the X-RateLimit-* headers; a rejected one also
// gets Retry-After. When the store fails the request is let through.
func RateLimit(l *ratelimit.Limiter, category string, q ratelimit.Quota) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := category + ":" + common.ClientIP(r)

			res, err := l.Allow(r.Context(), key, q)
			if err != nil {
				log.WithFields(log.Fields{
					"component": "ratelimit",
					"key":       key,
				}).WithError(err).Warn("Rate limit store unavailable, allowing request")
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

			if !res.Allowed {
				retry := res.RetryAfter(l.Now())
				h.Set("Retry-After", strconv.Itoa(int(retry.Seconds())))
				log.WithFields(log.Fields{
					"component": "ratelimit",
					"key":       key,
					"quota":     q.String(),
				}).Info("Rate limit exceeded")
				common.WriteError(w, common.NewAPIError(http.StatusTooManyRequests, MsgTooManyRequests))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
