package domain

import (
	"github.com/google/uuid"

	dErrors "rtbconsent/pkg/domain-errors"
)

// RequestID correlates one inbound HTTP request across logs and audit events.
type RequestID uuid.UUID

// BidRequestID is the OpenRTB bid request id sent to the exchange.
type BidRequestID uuid.UUID

// NewRequestID returns a random RequestID.
func NewRequestID() RequestID { return RequestID(uuid.New()) }

// NewBidRequestID returns a random BidRequestID.
func NewBidRequestID() BidRequestID { return BidRequestID(uuid.New()) }

// ParseRequestID parses a client-supplied request id.
//
// Errors: returns CodeInvalidInput when the value is empty, not a UUID, or the
// nil UUID.
func ParseRequestID(s string) (RequestID, error) {
	u, err := parseUUID(s, "request ID")
	return RequestID(u), err
}

// ParseBidRequestID parses a bid request id echoed back by an exchange.
func ParseBidRequestID(s string) (BidRequestID, error) {
	u, err := parseUUID(s, "bid request ID")
	return BidRequestID(u), err
}

func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be nil")
	}
	return u, nil
}

func (id RequestID) String() string    { return uuid.UUID(id).String() }
func (id BidRequestID) String() string { return uuid.UUID(id).String() }

// IsNil reports whether the id is the zero UUID.
func (id RequestID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id BidRequestID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
