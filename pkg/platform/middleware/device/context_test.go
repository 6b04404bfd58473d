package device

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"rtbconsent/pkg/requestcontext"
)

func TestMiddleware(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"copies header", "device-1", "device-1"},
		{"trims whitespace", "  device-1 ", "device-1"},
		{"blank ignored", "   ", ""},
		{"oversized ignored", strings.Repeat("x", maxDeviceIDLen+1), ""},
		{"max length kept", strings.Repeat("x", maxDeviceIDLen), strings.Repeat("x", maxDeviceIDLen)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := Middleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				got = requestcontext.DeviceID(r.Context())
			}))
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			req.Header.Set(HeaderDeviceID, tt.header)
			h.ServeHTTP(httptest.NewRecorder(), req)
			assert.Equal(t, tt.want, got)
		})
	}
}
