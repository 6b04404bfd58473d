package ortb

import "encoding/json"

// 3.2.20 Object: User
//
// This object contains information known or derived about the human user of
// the device (i.e., the audience for advertising).
type User struct {

	// Attribute:
	//   id
	// Type:
	//   string; recommended
	// Description:
	//   Exchange-specific ID for the user.
	ID string `json:"id,omitempty"`

	// Attribute:
	//   yob
	// Type:
	//   integer
	// Description:
	//   Year of birth as a 4-digit integer.
	Yob int64 `json:"yob,omitempty"`

	// Attribute:
	//   gender
	// Type:
	//   string
	// Description:
	//   Gender, where "M" = male, "F" = female, "O" = known to be
	//   other (i.e., omitted is unknown).
	Gender string `json:"gender,omitempty"`

	// Attribute:
	//   keywords
	// Type:
	//   string
	// Description:
	//   Comma separated list of keywords, interests, or intent.
	Keywords string `json:"keywords,omitempty"`

	// Attribute:
	//   consent
	// Type:
	//   string
	// Description:
	//   When GDPR regulations are in effect this attribute contains the
	//   Transparency and Consent Framework's Consent String data
	//   structure.
	Consent string `json:"consent,omitempty"`

	// Attribute:
	//   data
	// Type:
	//   object array
	// Description:
	//   Additional user data. Each Data object represents a different
	//   data source.
	Data []Data `json:"data,omitempty"`

	// Attribute:
	//   ext
	// Type:
	//   object
	// Description:
	//   Placeholder for exchange-specific extensions to OpenRTB.
	Ext json.RawMessage `json:"ext,omitempty"`
}

// Data and Segment objects together allow additional data about the user to
// be specified (OpenRTB 3.2.21 / 3.2.22).
type Data struct {
	ID      string    `json:"id,omitempty"`
	Name    string    `json:"name,omitempty"`
	Segment []Segment `json:"segment,omitempty"`
}

type Segment struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Value string `json:"value,omitempty"`
}
