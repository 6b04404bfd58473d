package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers events a privacy review needs to reconstruct
	// what consent was sent where. Never sampled.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers routine activity. Can be sampled.
	CategoryOperations EventCategory = "operations"
)

// Action names what happened.
type Action string

const (
	// ActionBidRequestEnriched: a bid request was built and consent applied.
	ActionBidRequestEnriched Action = "bid_request_enriched"
	// ActionConsentSourceUnavailable: the stored-consent lookup failed and
	// the request went out with an empty snapshot.
	ActionConsentSourceUnavailable Action = "consent_source_unavailable"
	// ActionConsentWithheld: a present consent value was left out of the
	// request (malformed or disabled framework).
	ActionConsentWithheld Action = "consent_withheld"
)

var actionCategories = map[Action]EventCategory{
	ActionBidRequestEnriched:       CategoryOperations,
	ActionConsentSourceUnavailable: CategoryOperations,
	ActionConsentWithheld:          CategoryCompliance,
}

// Category returns the EventCategory for this action.
// Unknown actions default to CategoryOperations.
func (a Action) Category() EventCategory {
	if cat, ok := actionCategories[a]; ok {
		return cat
	}
	return CategoryOperations
}

// OmittedField is a consent field that was not written, with the reason.
type OmittedField struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Event records one enrichment. It carries field names and reasons only;
// consent strings and device identifiers are never part of an audit event.
type Event struct {
	Category       EventCategory  `json:"category"`
	Action         Action         `json:"action"`
	Timestamp      time.Time      `json:"timestamp"`
	RequestID      string         `json:"request_id"`
	BidRequestID   string         `json:"bid_request_id,omitempty"`
	SnapshotSource string         `json:"snapshot_source,omitempty"`
	Frameworks     []string       `json:"frameworks,omitempty"`
	Written        []string       `json:"written,omitempty"`
	Omitted        []OmittedField `json:"omitted,omitempty"`
	DeviceAccess   bool           `json:"device_access"`
	Reason         string         `json:"reason,omitempty"`
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}
