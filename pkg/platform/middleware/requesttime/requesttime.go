// Package requesttime provides middleware for request-scoped time.
// Every builder in a single request reads the same "now", so the bid request
// and its audit event agree on timestamps.
package requesttime

import (
	"net/http"
	"time"

	"rtbconsent/pkg/requestcontext"
)

// Middleware captures the current time at the start of the request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
