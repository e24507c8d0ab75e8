// Package middleware holds the HTTP middleware: client address
// resolution, request logging, panic recovery and rate limiting.
package middleware

import (
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"pixelwerk.nl/backoffice/internal/common"
)

// statusRecorder captures the status code written by the handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

// Logger logs one line per request: method, path, status, duration, ip.
// 5xx is logged as error, 4xx as info, the rest at debug.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}

		next.ServeHTTP(rec, r)

		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		entry := log.WithFields(log.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"bytes":    rec.bytes,
			"duration": time.Since(start).Round(time.Microsecond).String(),
			"ip":       common.ClientIP(r),
		})
		switch {
		case rec.status >= http.StatusInternalServerError:
			entry.Error("HTTP request")
		case rec.status >= http.StatusBadRequest:
			entry.Info("HTTP request")
		default:
			entry.Debug("HTTP request")
		}
	})
}
