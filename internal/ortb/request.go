// Package ortb holds the subset of OpenRTB 2.6 objects this service builds.
//
// Field names and JSON tags follow the IAB specification byte for byte because
// exchanges parse them positionally. Fields whose zero value is meaningful
// (regs.gdpr, regs.coppa, regs.gpp_sid, banner.pos) are pointers so that
// "absent" and "0"/"[]" stay distinguishable on the wire.
package ortb

import "encoding/json"

// BidRequest is the top-level object sent to the exchange (OpenRTB 3.2.1).
type BidRequest struct {
	// Unique ID of the bid request, provided by the exchange.
	ID string `json:"id"`

	// Array of Imp objects representing the impressions offered.
	Imp []Imp `json:"imp"`

	App    *App    `json:"app,omitempty"`
	Device *Device `json:"device,omitempty"`
	User   *User   `json:"user,omitempty"`

	// Auction type: 1 = first price, 2 = second price plus.
	AT int64 `json:"at,omitempty"`

	// Maximum time in milliseconds the exchange allows for bids.
	TMax int64 `json:"tmax,omitempty"`

	// Currencies allowed for bids on this request.
	Cur []string `json:"cur,omitempty"`

	Source *Source `json:"source,omitempty"`
	Regs   *Regs   `json:"regs,omitempty"`

	Ext json.RawMessage `json:"ext,omitempty"`
}

// EnsureRegs returns req.Regs, allocating it on first use.
func (req *BidRequest) EnsureRegs() *Regs {
	if req.Regs == nil {
		req.Regs = &Regs{}
	}
	return req.Regs
}

// EnsureUser returns req.User, allocating it on first use.
func (req *BidRequest) EnsureUser() *User {
	if req.User == nil {
		req.User = &User{}
	}
	return req.User
}

// EnsureDevice returns req.Device, allocating it on first use.
func (req *BidRequest) EnsureDevice() *Device {
	if req.Device == nil {
		req.Device = &Device{}
	}
	return req.Device
}

// Source describes the nature and behavior of the entity that is the source
// of the bid request upstream from the exchange (OpenRTB 3.2.2).
type Source struct {
	// Transaction ID common across all participants in this bid request.
	TID string `json:"tid,omitempty"`

	Ext json.RawMessage `json:"ext,omitempty"`
}
