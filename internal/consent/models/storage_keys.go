package models

import (
	"strconv"
	"strings"
)

// IAB CMP storage keys. CMPs persist these in platform key/value storage
// (NSUserDefaults, SharedPreferences) and they are forwarded verbatim by SDKs.
const (
	KeyTCFGDPRApplies     = "IABTCF_gdprApplies"
	KeyTCFConsentString   = "IABTCF_TCString"
	KeyTCFPurposeConsents = "IABTCF_PurposeConsents"
	KeyUSPrivacyString    = "IABUSPrivacy_String"
	KeyGPPString          = "IABGPP_HDR_GppString"
	KeyGPPSectionIDs      = "IABGPP_GppSID"
)

// FromStorageKeys builds a Snapshot from IAB CMP storage keys. Keys that are
// missing or cannot be parsed leave the matching field absent. String values
// are taken as-is; validating them is left to enrichment.
//
// This is pure domain logic - no I/O, no side effects.
func FromStorageKeys(kv map[string]string) Snapshot {
	var s Snapshot

	if v, ok := kv[KeyTCFGDPRApplies]; ok {
		s.GDPRApplies = parseFlag(v)
	}
	if v, ok := kv[KeyTCFConsentString]; ok {
		s.TCFConsentString = Ptr(v)
	}
	// Purpose 1 (store/access information on a device) is the first bit.
	if v, ok := kv[KeyTCFPurposeConsents]; ok && v != "" {
		s.GDPRConsentGiven = parseFlag(v[:1])
	}
	if v, ok := kv[KeyUSPrivacyString]; ok {
		s.USPrivacyString = Ptr(v)
	}
	if v, ok := kv[KeyGPPString]; ok {
		s.GPPString = Ptr(v)
	}
	if v, ok := kv[KeyGPPSectionIDs]; ok {
		s.GPPSectionIDs = parseSectionIDs(v)
	}

	return s
}

// parseFlag accepts "1"/"0" and the boolean spellings some CMPs write.
func parseFlag(v string) *bool {
	switch strings.TrimSpace(strings.ToLower(v)) {
	case "1", "true":
		return Ptr(true)
	case "0", "false":
		return Ptr(false)
	default:
		return nil
	}
}

// parseSectionIDs parses the underscore-separated section list, e.g. "2_6".
// An empty string is a present, empty list. Any invalid element makes the
// whole list absent.
func parseSectionIDs(v string) []int {
	v = strings.TrimSpace(v)
	if v == "" {
		return []int{}
	}
	parts := strings.Split(v, "_")
	ids := make([]int, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.Atoi(p)
		if err != nil || id < 0 {
			return nil
		}
		ids = append(ids, id)
	}
	return ids
}
