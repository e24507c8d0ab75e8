package middleware

import (
	"net/http"

	"pixelwerk.nl/backoffice/internal/common"
)

// ClientIP resolves the caller's address once and stores it in the
// request context for the rate limiter, the logger and the handlers.
// proxyHops is the number of trusted proxies; zero ignores X-Forwarded-For.
func ClientIP(proxyHops int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := common.ResolveClientIP(r, proxyHops)
			next.ServeHTTP(w, r.WithContext(common.WithClientIP(r.Context(), ip)))
		})
	}
}
