package testutil

import (
	"context"
	"time"

	"rtbconsent/pkg/requestcontext"
)

// RequestContext returns a context carrying what the HTTP middleware chain
// would have set: request id, device id, client metadata and request time.
// Empty values are left out.
func RequestContext(requestID, deviceID, clientIP, userAgent string, now time.Time) context.Context {
	ctx := context.Background()
	if requestID != "" {
		ctx = requestcontext.WithRequestID(ctx, requestID)
	}
	if deviceID != "" {
		ctx = requestcontext.WithDeviceID(ctx, deviceID)
	}
	if clientIP != "" || userAgent != "" {
		ctx = requestcontext.WithClientMetadata(ctx, clientIP, userAgent)
	}
	if !now.IsZero() {
		ctx = requestcontext.WithTime(ctx, now)
	}
	return ctx
}
