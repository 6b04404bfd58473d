package models

import "slices"

// Snapshot is a point-in-time view of the consent values known for a user.
// Every field is optional: a nil pointer means the value is absent, which is
// distinct from a present zero value ("false", "", or an empty section list).
//
// Snapshots are values. Providers hand out copies and enrichment never
// writes back to one.
type Snapshot struct {
	// GDPRApplies is the GDPR applicability flag.
	GDPRApplies *bool `json:"gdpr_applies,omitempty"`
	// TCFConsentString is the IAB TCF consent string.
	TCFConsentString *string `json:"tcf_consent_string,omitempty"`
	// GDPRConsentGiven is the coarse purpose-1 consent flag. It gates device
	// identifier access and is never written into the request itself.
	GDPRConsentGiven *bool `json:"gdpr_consent_given,omitempty"`
	// USPrivacyString is the IAB CCPA string, e.g. "1YNN".
	USPrivacyString *string `json:"us_privacy_string,omitempty"`
	// COPPAApplies is the COPPA applicability flag.
	COPPAApplies *bool `json:"coppa_applies,omitempty"`
	// GPPString is the IAB Global Privacy Platform string.
	GPPString *string `json:"gpp_string,omitempty"`
	// GPPSectionIDs are the applicable GPP section ids. nil means absent; an
	// empty non-nil slice means present with no sections and is kept on
	// the wire as [].
	GPPSectionIDs []int `json:"gpp_section_ids"`
}

// Clone returns a deep copy of s. Presence of every field is preserved,
// including an empty section list.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{
		GDPRApplies:      clonePtr(s.GDPRApplies),
		TCFConsentString: clonePtr(s.TCFConsentString),
		GDPRConsentGiven: clonePtr(s.GDPRConsentGiven),
		USPrivacyString:  clonePtr(s.USPrivacyString),
		COPPAApplies:     clonePtr(s.COPPAApplies),
		GPPString:        clonePtr(s.GPPString),
		GPPSectionIDs:    cloneSections(s.GPPSectionIDs),
	}
}

// IsEmpty reports whether every field is absent.
func (s Snapshot) IsEmpty() bool {
	return s.GDPRApplies == nil &&
		s.TCFConsentString == nil &&
		s.GDPRConsentGiven == nil &&
		s.USPrivacyString == nil &&
		s.COPPAApplies == nil &&
		s.GPPString == nil &&
		s.GPPSectionIDs == nil
}

// Ptr returns a pointer to v. Convenience for building snapshots.
func Ptr[T any](v T) *T {
	return &v
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneSections(ids []int) []int {
	if ids == nil {
		return nil
	}
	out := make([]int, len(ids))
	copy(out, ids)
	return out
}

// Equal reports whether two snapshots carry the same values with the same
// presence.
func (s Snapshot) Equal(o Snapshot) bool {
	return ptrEqual(s.GDPRApplies, o.GDPRApplies) &&
		ptrEqual(s.TCFConsentString, o.TCFConsentString) &&
		ptrEqual(s.GDPRConsentGiven, o.GDPRConsentGiven) &&
		ptrEqual(s.USPrivacyString, o.USPrivacyString) &&
		ptrEqual(s.COPPAApplies, o.COPPAApplies) &&
		ptrEqual(s.GPPString, o.GPPString) &&
		(s.GPPSectionIDs == nil) == (o.GPPSectionIDs == nil) &&
		slices.Equal(s.GPPSectionIDs, o.GPPSectionIDs)
}

func ptrEqual[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
