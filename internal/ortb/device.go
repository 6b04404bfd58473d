package ortb

import "encoding/json"

// Device types from OpenRTB list 5.21.
const (
	DeviceTypeMobileTablet int8 = 1
	DeviceTypePC           int8 = 2
	DeviceTypeConnectedTV  int8 = 3
	DeviceTypePhone        int8 = 4
	DeviceTypeTablet       int8 = 5
)

// Device provides information pertaining to the device through which the
// user is interacting (OpenRTB 3.2.18).
type Device struct {
	UA         string `json:"ua,omitempty"`
	IP         string `json:"ip,omitempty"`
	IPv6       string `json:"ipv6,omitempty"`
	DeviceType int8   `json:"devicetype,omitempty"`
	Make       string `json:"make,omitempty"`
	Model      string `json:"model,omitempty"`
	OS         string `json:"os,omitempty"`
	OSV        string `json:"osv,omitempty"`
	W          int64  `json:"w,omitempty"`
	H          int64  `json:"h,omitempty"`
	Language   string `json:"language,omitempty"`

	// Limit ad tracking signal: 0 = unrestricted, 1 = limited.
	Lmt *int8 `json:"lmt,omitempty"`

	// ID sanctioned for advertiser use in the clear (i.e., not hashed).
	IFA string `json:"ifa,omitempty"`

	Ext json.RawMessage `json:"ext,omitempty"`
}
