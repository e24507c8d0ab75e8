package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	log "github.com/sirupsen/logrus"

	"pixelwerk.nl/backoffice/internal/common"
)

// Recovery turns a panic in a handler into a 500 JSON response.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rv := recover()
			if rv == nil {
				return
			}
			if rv == http.ErrAbortHandler {
				panic(rv)
			}
			log.WithFields(log.Fields{
				"component": "panic_recovery",
				"panic":     fmt.Sprintf("%v", rv),
				"path":      r.URL.Path,
				"stack":     string(debug.Stack()),
			}).Error("Panic in handler recovered")
			common.WriteError(w, common.NewAPIError(http.StatusInternalServerError, common.MsgInternal))
		}()
		next.ServeHTTP(w, r)
	})
}
