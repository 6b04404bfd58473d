package models

import (
	"strings"

	consentmodels "rtbconsent/internal/consent/models"
	"rtbconsent/internal/parambuilder"
	dErrors "rtbconsent/pkg/domain-errors"
)

// AdRequest is what a client sends to get an OpenRTB bid request built.
type AdRequest struct {
	AdUnit parambuilder.AdUnit     `json:"ad_unit"`
	App    parambuilder.AppInfo    `json:"app"`
	Device parambuilder.DeviceInfo `json:"device"`
	User   parambuilder.Targeting  `json:"user"`

	// Consent, when set, is used as-is and wins over every other source.
	Consent *consentmodels.Snapshot `json:"consent,omitempty"`
	// ConsentStorage holds raw IAB CMP storage keys read on the device.
	ConsentStorage map[string]string `json:"consent_storage,omitempty"`

	// DeviceID is the stored-consent lookup key. Set from the X-Device-ID
	// header, never from the body.
	DeviceID string `json:"-"`
}

// Validate checks and normalizes the request.
func (r *AdRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.AdUnit.ConfigID = strings.TrimSpace(r.AdUnit.ConfigID)
	if r.AdUnit.ConfigID == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "ad_unit.config_id is required")
	}
	if len(r.AdUnit.Sizes) == 0 && r.AdUnit.Video == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "ad_unit needs sizes or video")
	}
	for _, s := range r.AdUnit.Sizes {
		if s.W <= 0 || s.H <= 0 {
			return dErrors.New(dErrors.CodeValidation, "ad_unit sizes must be positive")
		}
	}
	r.AdUnit.Position = strings.ToLower(strings.TrimSpace(r.AdUnit.Position))
	if !parambuilder.ValidPosition(r.AdUnit.Position) {
		return dErrors.New(dErrors.CodeValidation, "ad_unit.position is not a known position")
	}

	r.App.Bundle = strings.TrimSpace(r.App.Bundle)
	if r.App.Bundle == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "app.bundle is required")
	}
	return nil
}

// SnapshotSource names where the consent snapshot for a request came from.
type SnapshotSource string

const (
	SourceRequest SnapshotSource = "request"
	SourceStorage SnapshotSource = "storage_keys"
	SourceStore   SnapshotSource = "store"
	SourceNone    SnapshotSource = "none"
)
