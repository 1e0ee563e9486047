package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/2beens/ergolog/internal/telemetry/metrics"

	log "github.com/sirupsen/logrus"
)

// PanicRecovery catches panics escaping the handlers below, logs the
// stack and counts the occurrence, so one bad request cannot take the
// whole service down.
func PanicRecovery(metricsManager *metrics.Manager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Errorf("http: panic serving %s: %v\n%s", r.URL.Path, rec, debug.Stack())
					if metricsManager != nil {
						metricsManager.CounterHandleRequestPanic.Inc()
					}
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
