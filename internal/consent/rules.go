package consent

import "rtbconsent/internal/consent/models"

// ValidUSPrivacy reports whether s is a well-formed IAB US Privacy string:
// exactly four characters, the version "1" followed by three positions each
// holding 'Y', 'N' or '-'. Lower-case letters are rejected.
//
// This is pure domain logic - no I/O, no side effects.
func ValidUSPrivacy(s string) bool {
	if len(s) != 4 || s[0] != '1' {
		return false
	}
	for i := 1; i < 4; i++ {
		switch s[i] {
		case 'Y', 'N', '-':
		default:
			return false
		}
	}
	return true
}

// DeviceAccessAllowed reports whether device identifiers (IFA) may be read
// and sent. Explicit coarse consent wins; without it, access is allowed only
// when GDPR is known not to apply or applicability is unknown.
//
// This is pure domain logic - no I/O, no side effects.
func DeviceAccessAllowed(s models.Snapshot) bool {
	if s.GDPRConsentGiven != nil {
		return *s.GDPRConsentGiven
	}
	return s.GDPRApplies == nil || !*s.GDPRApplies
}

// flag encodes a tri-state boolean as the OpenRTB 0/1 integer.
func flag(b bool) *int8 {
	var v int8
	if b {
		v = 1
	}
	return &v
}
