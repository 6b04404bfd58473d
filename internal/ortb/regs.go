package ortb

import "encoding/json"

// Regs contains any legal, governmental, or industry regulations that the
// sender deems applicable to the request (OpenRTB 2.6, 3.2.3).
//
// The consent builder is the only writer of these fields.
type Regs struct {

	// Attribute:
	//   coppa
	// Type:
	//   integer
	// Description:
	//   Flag indicating if this request is subject to the COPPA
	//   regulations established by the USA FTC, where 0 = no, 1 = yes.
	//   Omitted when applicability is unknown.
	COPPA *int8 `json:"coppa,omitempty"`

	// Attribute:
	//   gdpr
	// Type:
	//   integer
	// Description:
	//   Flag that indicates whether or not the request is subject to
	//   GDPR regulations, 0 = No, 1 = Yes, omission indicates Unknown.
	GDPR *int8 `json:"gdpr,omitempty"`

	// Attribute:
	//   us_privacy
	// Type:
	//   string
	// Description:
	//   Communicates signals regarding consumer privacy under US
	//   privacy regulation under CCPA and LSPA.
	USPrivacy string `json:"us_privacy,omitempty"`

	// Attribute:
	//   gpp
	// Type:
	//   string
	// Description:
	//   Contains the Global Privacy Platform's consent string.
	GPP string `json:"gpp,omitempty"`

	// Attribute:
	//   gpp_sid
	// Type:
	//   integer array
	// Description:
	//   Array of the section(s) of the string which should be applied
	//   for this transaction. An empty array means no section restriction.
	GPPSID *[]int `json:"gpp_sid,omitempty"`

	// Attribute:
	//   ext
	// Type:
	//   object
	// Description:
	//   Placeholder for exchange-specific extensions to OpenRTB.
	Ext json.RawMessage `json:"ext,omitempty"`
}
