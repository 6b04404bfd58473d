package ports

import (
	"context"

	"rtbconsent/pkg/platform/audit"
)

// AuditPublisher defines the interface for emitting audit events.
// Defined here to keep the auction module independent of the publisher.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}
