package models

import "testing"

// FuzzFromStorageKeys checks the CMP storage parser never panics and that a
// present section list only ever holds non-negative ids.
func FuzzFromStorageKeys(f *testing.F) {
	f.Add("1", "1011", "2_6")
	f.Add("", "", "")
	f.Add("0", "\xff", "_")
	f.Add("true", "1", "007_8")
	f.Add("x", "0", "99999999999999999999")

	f.Fuzz(func(t *testing.T, applies, purposes, sids string) {
		s := FromStorageKeys(map[string]string{
			KeyTCFGDPRApplies:     applies,
			KeyTCFPurposeConsents: purposes,
			KeyGPPSectionIDs:      sids,
		})

		for _, id := range s.GPPSectionIDs {
			if id < 0 {
				t.Errorf("negative section id %d from %q", id, sids)
			}
		}
		if purposes == "" && s.GDPRConsentGiven != nil {
			t.Error("consent flag derived from empty purpose string")
		}
		if !s.Clone().Equal(s) {
			t.Error("clone changed snapshot")
		}
	})
}
