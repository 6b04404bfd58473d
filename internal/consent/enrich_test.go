package consent

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"rtbconsent/internal/consent/models"
	"rtbconsent/internal/ortb"
	"rtbconsent/pkg/domain"
	dErrors "rtbconsent/pkg/domain-errors"
)

const (
	tcfString = "CPXxRfAPXxRfAAfKABENB-CgAAAAAAAAAAYgAAAAAAAA"
	gppString = "DBACNY~CPXxRfAPXxRfAAfKABENB-CgAAAAAAAAAAYgAAAAAAAA~1YNN"
)

type EnrichSuite struct {
	suite.Suite
}

func TestEnrichSuite(t *testing.T) {
	suite.Run(t, new(EnrichSuite))
}

func newRequest() *ortb.BidRequest {
	return &ortb.BidRequest{
		ID:  "req-1",
		Imp: []ortb.Imp{{ID: "1", Banner: &ortb.Banner{Format: []ortb.Format{{W: 320, H: 50}}}}},
		App: &ortb.App{Bundle: "com.example.app"},
	}
}

func (s *EnrichSuite) enrich(snap models.Snapshot, opts ...Option) (*ortb.BidRequest, Outcome) {
	req := newRequest()
	out, err := Enrich(&snap, req, opts...)
	s.Require().NoError(err)
	return req, out
}

// regsJSON returns the serialized regs object, or "" when regs is absent.
func (s *EnrichSuite) regsJSON(req *ortb.BidRequest) string {
	if req.Regs == nil {
		return ""
	}
	b, err := json.Marshal(req.Regs)
	s.Require().NoError(err)
	return string(b)
}

func (s *EnrichSuite) TestContractViolations() {
	s.Run("nil snapshot", func() {
		_, err := Enrich(nil, newRequest())
		s.Require().Error(err)
		s.True(errors.Is(err, ErrNilSnapshot))
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("nil request", func() {
		_, err := Enrich(&models.Snapshot{}, nil)
		s.Require().Error(err)
		s.True(errors.Is(err, ErrNilRequest))
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func (s *EnrichSuite) TestAllAbsentIsNoop() {
	before := newRequest()
	req, out := s.enrich(models.Snapshot{})

	s.Equal(before, req)
	s.Nil(req.Regs)
	s.Nil(req.User)
	s.True(out.IsNoop())
}

func (s *EnrichSuite) TestGDPR() {
	s.Run("applies with TCF string", func() {
		req, out := s.enrich(models.Snapshot{
			GDPRApplies:      models.Ptr(true),
			TCFConsentString: models.Ptr(tcfString),
		})
		s.Equal(`{"gdpr":1}`, s.regsJSON(req))
		s.Require().NotNil(req.User)
		s.Equal(tcfString, req.User.Consent)
		s.Equal([]Field{FieldRegsGDPR, FieldUserConsent}, out.Written)
		s.Empty(out.Omitted)
	})

	s.Run("does not apply is written as 0", func() {
		req, _ := s.enrich(models.Snapshot{GDPRApplies: models.Ptr(false)})
		s.Equal(`{"gdpr":0}`, s.regsJSON(req))
		s.Nil(req.User)
	})

	s.Run("TCF string is forwarded without applicability", func() {
		req, out := s.enrich(models.Snapshot{TCFConsentString: models.Ptr(tcfString)})
		s.Nil(req.Regs)
		s.Equal(tcfString, req.User.Consent)
		s.Equal([]Field{FieldUserConsent}, out.Written)
	})

	s.Run("TCF string is forwarded when GDPR does not apply", func() {
		req, _ := s.enrich(models.Snapshot{GDPRApplies: models.Ptr(false), TCFConsentString: models.Ptr(tcfString)})
		s.Equal(`{"gdpr":0}`, s.regsJSON(req))
		s.Equal(tcfString, req.User.Consent)
	})

	s.Run("empty TCF string is malformed", func() {
		req, out := s.enrich(models.Snapshot{GDPRApplies: models.Ptr(true), TCFConsentString: models.Ptr("")})
		s.Equal(`{"gdpr":1}`, s.regsJSON(req))
		s.Nil(req.User)
		reason, ok := out.OmittedFor(FieldUserConsent)
		s.True(ok)
		s.Equal(ReasonMalformed, reason)
	})

	s.Run("coarse consent flag is never written", func() {
		req, out := s.enrich(models.Snapshot{GDPRConsentGiven: models.Ptr(true)})
		s.Nil(req.Regs)
		s.Nil(req.User)
		s.True(out.IsNoop())
	})
}

func (s *EnrichSuite) TestUSPrivacy() {
	s.Run("valid string only", func() {
		req, out := s.enrich(models.Snapshot{USPrivacyString: models.Ptr("1YNY")})
		s.Equal(`{"us_privacy":"1YNY"}`, s.regsJSON(req))
		s.Nil(req.User)
		s.Equal([]Field{FieldRegsUSPrivacy}, out.Written)
	})

	s.Run("malformed string writes nothing", func() {
		req, out := s.enrich(models.Snapshot{USPrivacyString: models.Ptr("BAD")})
		s.Nil(req.Regs)
		s.Nil(req.User)
		s.Empty(out.Written)
		s.Equal([]Omission{{Field: FieldRegsUSPrivacy, Reason: ReasonMalformed}}, out.Omitted)
	})

	s.Run("lower-case is malformed", func() {
		req, _ := s.enrich(models.Snapshot{USPrivacyString: models.Ptr("1ynn")})
		s.Nil(req.Regs)
	})
}

func (s *EnrichSuite) TestCOPPA() {
	s.Run("applies", func() {
		req, _ := s.enrich(models.Snapshot{COPPAApplies: models.Ptr(true)})
		s.Equal(`{"coppa":1}`, s.regsJSON(req))
	})

	s.Run("explicit false serializes as 0", func() {
		req, _ := s.enrich(models.Snapshot{COPPAApplies: models.Ptr(false)})
		s.Equal(`{"coppa":0}`, s.regsJSON(req))
	})

	s.Run("absent never defaults", func() {
		req, _ := s.enrich(models.Snapshot{USPrivacyString: models.Ptr("1NNN")})
		s.NotContains(s.regsJSON(req), "coppa")
	})
}

func (s *EnrichSuite) TestGPP() {
	s.Run("string with sections", func() {
		req, out := s.enrich(models.Snapshot{GPPString: models.Ptr(gppString), GPPSectionIDs: []int{2, 6}})
		s.Equal(`{"gpp":"`+gppString+`","gpp_sid":[2,6]}`, s.regsJSON(req))
		s.Equal([]Field{FieldRegsGPP, FieldRegsGPPSID}, out.Written)
	})

	s.Run("empty section list is kept", func() {
		req, _ := s.enrich(models.Snapshot{GPPString: models.Ptr(gppString), GPPSectionIDs: []int{}})
		s.Equal(`{"gpp":"`+gppString+`","gpp_sid":[]}`, s.regsJSON(req))
	})

	s.Run("string alone when sections absent", func() {
		req, _ := s.enrich(models.Snapshot{GPPString: models.Ptr(gppString)})
		s.Equal(`{"gpp":"`+gppString+`"}`, s.regsJSON(req))
	})

	s.Run("sections without a string are dropped", func() {
		req, out := s.enrich(models.Snapshot{GPPSectionIDs: []int{7}})
		s.Nil(req.Regs)
		reason, ok := out.OmittedFor(FieldRegsGPPSID)
		s.True(ok)
		s.Equal(ReasonMalformed, reason)
	})

	s.Run("negative section id drops the list but keeps the string", func() {
		req, out := s.enrich(models.Snapshot{GPPString: models.Ptr(gppString), GPPSectionIDs: []int{2, -1}})
		s.Equal(`{"gpp":"`+gppString+`"}`, s.regsJSON(req))
		s.True(out.Wrote(FieldRegsGPP))
		s.False(out.Wrote(FieldRegsGPPSID))
	})

	s.Run("empty GPP string is malformed", func() {
		req, out := s.enrich(models.Snapshot{GPPString: models.Ptr("")})
		s.Nil(req.Regs)
		reason, _ := out.OmittedFor(FieldRegsGPP)
		s.Equal(ReasonMalformed, reason)
	})
}

func (s *EnrichSuite) TestFrameworksCoexist() {
	s.Run("TCF and US Privacy", func() {
		req, _ := s.enrich(models.Snapshot{
			TCFConsentString: models.Ptr(tcfString),
			USPrivacyString:  models.Ptr("1YNN"),
		})
		s.Equal(tcfString, req.User.Consent)
		s.Equal("1YNN", req.Regs.USPrivacy)
	})

	s.Run("all frameworks in fixed order", func() {
		req, out := s.enrich(models.Snapshot{
			GDPRApplies:      models.Ptr(true),
			TCFConsentString: models.Ptr(tcfString),
			USPrivacyString:  models.Ptr("1---"),
			COPPAApplies:     models.Ptr(false),
			GPPString:        models.Ptr(gppString),
			GPPSectionIDs:    []int{2},
		})
		s.Equal(`{"coppa":0,"gdpr":1,"us_privacy":"1---","gpp":"`+gppString+`","gpp_sid":[2]}`, s.regsJSON(req))
		s.Equal([]Field{
			FieldRegsGDPR, FieldUserConsent, FieldRegsUSPrivacy, FieldRegsCOPPA, FieldRegsGPP, FieldRegsGPPSID,
		}, out.Written)
		s.Equal(domain.AllFrameworks(), out.Frameworks())
	})

	s.Run("one malformed framework leaves the others", func() {
		req, out := s.enrich(models.Snapshot{
			USPrivacyString: models.Ptr("1YN"),
			COPPAApplies:    models.Ptr(true),
		})
		s.Equal(`{"coppa":1}`, s.regsJSON(req))
		s.Len(out.Omitted, 1)
	})
}

func (s *EnrichSuite) TestCapabilities() {
	full := models.Snapshot{
		GDPRApplies:      models.Ptr(true),
		TCFConsentString: models.Ptr(tcfString),
		USPrivacyString:  models.Ptr("1YNN"),
		COPPAApplies:     models.Ptr(true),
		GPPString:        models.Ptr(gppString),
		GPPSectionIDs:    []int{2, 6},
	}

	s.Run("disabled frameworks are reported and not written", func() {
		req, out := s.enrich(full, WithFrameworks(domain.NewCapabilities(domain.FrameworkUSPrivacy)))
		s.Equal(`{"us_privacy":"1YNN"}`, s.regsJSON(req))
		s.Nil(req.User)
		s.Equal([]Field{FieldRegsUSPrivacy}, out.Written)
		s.Equal([]Omission{
			{FieldRegsGDPR, ReasonDisabled},
			{FieldUserConsent, ReasonDisabled},
			{FieldRegsCOPPA, ReasonDisabled},
			{FieldRegsGPP, ReasonDisabled},
			{FieldRegsGPPSID, ReasonDisabled},
		}, out.Omitted)
	})

	s.Run("absent values of disabled frameworks are silent", func() {
		_, out := s.enrich(models.Snapshot{COPPAApplies: models.Ptr(true)},
			WithFrameworks(domain.NewCapabilities(domain.FrameworkCOPPA)))
		s.Empty(out.Omitted)
	})

	s.Run("nothing enabled", func() {
		req, out := s.enrich(full, WithFrameworks(domain.Capabilities{}))
		s.Nil(req.Regs)
		s.Nil(req.User)
		s.Empty(out.Written)
		s.Len(out.Omitted, 6)
	})
}

func (s *EnrichSuite) TestLegacyExt() {
	snap := models.Snapshot{
		GDPRApplies:      models.Ptr(true),
		TCFConsentString: models.Ptr(tcfString),
		USPrivacyString:  models.Ptr("1YNN"),
	}

	s.Run("mirrors into fresh ext objects", func() {
		req, out := s.enrich(snap, WithLegacyExt(true))
		s.JSONEq(`{"gdpr":1,"us_privacy":"1YNN"}`, string(req.Regs.Ext))
		s.JSONEq(`{"consent":"`+tcfString+`"}`, string(req.User.Ext))
		s.True(out.Wrote(FieldRegsExtGDPR))
		s.True(out.Wrote(FieldRegsExtUSPrivacy))
		s.True(out.Wrote(FieldUserExtConsent))
	})

	s.Run("merges into existing ext", func() {
		req := newRequest()
		req.Regs = &ortb.Regs{Ext: json.RawMessage(`{"dsa":{"required":1}}`)}
		_, err := Enrich(&snap, req, WithLegacyExt(true))
		s.Require().NoError(err)
		s.JSONEq(`{"dsa":{"required":1},"gdpr":1,"us_privacy":"1YNN"}`, string(req.Regs.Ext))
	})

	s.Run("non-object ext is left untouched", func() {
		req := newRequest()
		req.User = &ortb.User{Ext: json.RawMessage(`["x"]`)}
		out, err := Enrich(&snap, req, WithLegacyExt(true))
		s.Require().NoError(err)
		s.Equal(`["x"]`, string(req.User.Ext))
		s.Equal(tcfString, req.User.Consent)
		reason, ok := out.OmittedFor(FieldUserExtConsent)
		s.True(ok)
		s.Equal(ReasonMalformedExt, reason)
	})

	s.Run("off by default", func() {
		req, _ := s.enrich(snap)
		s.Empty(req.Regs.Ext)
		s.Empty(req.User.Ext)
	})
}

func (s *EnrichSuite) TestIdempotent() {
	snap := models.Snapshot{
		GDPRApplies:      models.Ptr(true),
		TCFConsentString: models.Ptr(tcfString),
		USPrivacyString:  models.Ptr("1YNN"),
		COPPAApplies:     models.Ptr(false),
		GPPString:        models.Ptr(gppString),
		GPPSectionIDs:    []int{},
	}
	for _, legacy := range []bool{false, true} {
		req := newRequest()
		_, err := Enrich(&snap, req, WithLegacyExt(legacy))
		s.Require().NoError(err)
		first, err := json.Marshal(req)
		s.Require().NoError(err)

		_, err = Enrich(&snap, req, WithLegacyExt(legacy))
		s.Require().NoError(err)
		second, err := json.Marshal(req)
		s.Require().NoError(err)

		s.JSONEq(string(first), string(second))
	}
}

func (s *EnrichSuite) TestLeavesOtherFieldsAlone() {
	req := newRequest()
	req.Regs = &ortb.Regs{GDPR: flag(false), Ext: json.RawMessage(`{"keep":true}`)}
	req.User = &ortb.User{ID: "u-1", Yob: 1990}
	req.Device = &ortb.Device{IFA: "ifa-1", UA: "ua"}

	_, err := Enrich(&models.Snapshot{COPPAApplies: models.Ptr(true)}, req)
	s.Require().NoError(err)

	s.Equal(int8(0), *req.Regs.GDPR, "pre-existing regs.gdpr is not cleared")
	s.Equal(int8(1), *req.Regs.COPPA)
	s.JSONEq(`{"keep":true}`, string(req.Regs.Ext))
	s.Equal(&ortb.User{ID: "u-1", Yob: 1990}, req.User)
	s.Equal(&ortb.Device{IFA: "ifa-1", UA: "ua"}, req.Device)
	s.Equal("com.example.app", req.App.Bundle)
}

func (s *EnrichSuite) TestSnapshotIsNotRetained() {
	snap := models.Snapshot{GPPString: models.Ptr(gppString), GPPSectionIDs: []int{2, 6}}
	req := newRequest()
	_, err := Enrich(&snap, req)
	s.Require().NoError(err)

	snap.GPPSectionIDs[0] = 99
	*snap.GPPString = "changed"

	s.Equal([]int{2, 6}, *req.Regs.GPPSID)
	s.Equal(gppString, req.Regs.GPP)
}

func TestValidUSPrivacy(t *testing.T) {
	tests := []struct {
		input string
		valid bool
	}{
		{"1YNY", true},
		{"1NNN", true},
		{"1---", true},
		{"1Y-N", true},
		{"", false},
		{"1YN", false},
		{"1YNNN", false},
		{"2YNN", false},
		{"1ynn", false},
		{"1YNX", false},
		{"BAD", false},
		{"1 NN", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.valid, ValidUSPrivacy(tt.input))
		})
	}
}

func TestDeviceAccessAllowed(t *testing.T) {
	tests := []struct {
		name     string
		snap     models.Snapshot
		expected bool
	}{
		{"nothing known", models.Snapshot{}, true},
		{"GDPR does not apply", models.Snapshot{GDPRApplies: models.Ptr(false)}, true},
		{"GDPR applies without consent flag", models.Snapshot{GDPRApplies: models.Ptr(true)}, false},
		{"GDPR applies with consent", models.Snapshot{GDPRApplies: models.Ptr(true), GDPRConsentGiven: models.Ptr(true)}, true},
		{"explicit refusal", models.Snapshot{GDPRApplies: models.Ptr(false), GDPRConsentGiven: models.Ptr(false)}, false},
		{"consent without applicability", models.Snapshot{GDPRConsentGiven: models.Ptr(true)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DeviceAccessAllowed(tt.snap))
		})
	}
}

func TestOutcomeFrameworks(t *testing.T) {
	out := Outcome{Written: []Field{FieldRegsGPP, FieldUserConsent, FieldRegsExtGDPR}}
	require.Equal(t, []domain.Framework{domain.FrameworkGDPR, domain.FrameworkGPP}, out.Frameworks())
	assert.Equal(t, domain.FrameworkCOPPA, FieldRegsCOPPA.Framework())
}
