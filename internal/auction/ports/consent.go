package ports

import (
	"context"

	"rtbconsent/internal/consent/models"
)

// ConsentSource looks up the stored consent snapshot for a device.
// Implementations return sentinel.ErrNotFound when nothing is stored and
// sentinel.ErrUnavailable when the backend cannot be reached.
type ConsentSource interface {
	Lookup(ctx context.Context, deviceID string) (models.Snapshot, error)
}
