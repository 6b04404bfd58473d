// Package device extracts the caller-supplied device identifier that keys
// stored consent lookups.
package device

import (
	"net/http"
	"strings"

	"rtbconsent/pkg/requestcontext"
)

// HeaderDeviceID carries the advertising or vendor device identifier.
const HeaderDeviceID = "X-Device-ID"

// maxDeviceIDLen bounds the header so it cannot be used to build huge store keys.
const maxDeviceIDLen = 128

// Middleware copies a well-formed X-Device-ID header into the request context.
// Oversized or blank values are ignored.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(HeaderDeviceID))
		if id != "" && len(id) <= maxDeviceIDLen {
			r = r.WithContext(requestcontext.WithDeviceID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}
