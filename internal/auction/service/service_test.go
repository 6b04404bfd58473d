package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"rtbconsent/internal/auction/metrics"
	"rtbconsent/internal/auction/models"
	"rtbconsent/internal/consent"
	consentmetrics "rtbconsent/internal/consent/metrics"
	consentmodels "rtbconsent/internal/consent/models"
	"rtbconsent/internal/consent/store"
	"rtbconsent/internal/parambuilder"
	"rtbconsent/pkg/domain"
	dErrors "rtbconsent/pkg/domain-errors"
	"rtbconsent/pkg/platform/audit"
	"rtbconsent/pkg/platform/audit/publisher"
	auditmemory "rtbconsent/pkg/platform/audit/store/memory"
	"rtbconsent/pkg/platform/sentinel"
	"rtbconsent/pkg/testutil"
)

type failingSource struct{ err error }

func (f failingSource) Lookup(context.Context, string) (consentmodels.Snapshot, error) {
	return consentmodels.Snapshot{}, f.err
}

type ServiceSuite struct {
	suite.Suite
	ctx            context.Context
	source         *store.InMemorySource
	auditStore     *auditmemory.InMemoryStore
	metrics        *metrics.Metrics
	consentMetrics *consentmetrics.Metrics
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = testutil.RequestContext("req-1", "", "198.51.100.4", "", time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	s.source = store.NewInMemorySource()
	s.auditStore = auditmemory.NewInMemoryStore()
	reg := prometheus.NewRegistry()
	s.metrics = metrics.NewWithRegisterer(reg)
	s.consentMetrics = consentmetrics.NewWithRegisterer(reg)
}

func (s *ServiceSuite) newService(opts ...Option) *Service {
	base := []Option{
		WithConsentSource(s.source),
		WithAuditPublisher(publisher.NewPublisher(s.auditStore)),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(s.metrics),
		WithConsentMetrics(s.consentMetrics),
		WithBasicOptions(parambuilder.WithIDGenerator(func() string { return "bid-1" })),
	}
	return New(append(base, opts...)...)
}

func adRequest() models.AdRequest {
	return models.AdRequest{
		AdUnit: parambuilder.AdUnit{ConfigID: "cfg-1", Sizes: []parambuilder.Size{{W: 320, H: 50}}},
		App:    parambuilder.AppInfo{Bundle: "com.example.app"},
		Device: parambuilder.DeviceInfo{IFA: "ifa-1"},
	}
}

func (s *ServiceSuite) events(action audit.Action) []audit.Event {
	all, err := s.auditStore.ListByRequest(s.ctx, "req-1")
	s.Require().NoError(err)
	var out []audit.Event
	for _, e := range all {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}

func (s *ServiceSuite) TestSnapshotPrecedence() {
	s.source.Put("device-1", consentmodels.Snapshot{USPrivacyString: consentmodels.Ptr("1YYN")})

	s.Run("request snapshot wins over everything", func() {
		req := adRequest()
		req.DeviceID = "device-1"
		req.Consent = &consentmodels.Snapshot{USPrivacyString: consentmodels.Ptr("1NNN")}
		req.ConsentStorage = map[string]string{consentmodels.KeyUSPrivacyString: "1---"}

		res, err := s.newService().Build(s.ctx, req)
		s.Require().NoError(err)
		s.Equal(models.SourceRequest, res.SnapshotSource)
		s.Equal("1NNN", res.Request.Regs.USPrivacy)
	})

	s.Run("storage keys win over the store", func() {
		req := adRequest()
		req.DeviceID = "device-1"
		req.ConsentStorage = map[string]string{consentmodels.KeyUSPrivacyString: "1---"}

		res, err := s.newService().Build(s.ctx, req)
		s.Require().NoError(err)
		s.Equal(models.SourceStorage, res.SnapshotSource)
		s.Equal("1---", res.Request.Regs.USPrivacy)
	})

	s.Run("store looked up by device id", func() {
		req := adRequest()
		req.DeviceID = "device-1"

		res, err := s.newService().Build(s.ctx, req)
		s.Require().NoError(err)
		s.Equal(models.SourceStore, res.SnapshotSource)
		s.Equal("1YYN", res.Request.Regs.USPrivacy)
	})

	s.Run("store falls back to device ifa", func() {
		s.source.Put("ifa-1", consentmodels.Snapshot{COPPAApplies: consentmodels.Ptr(true)})

		res, err := s.newService().Build(s.ctx, adRequest())
		s.Require().NoError(err)
		s.Equal(models.SourceStore, res.SnapshotSource)
		s.Require().NotNil(res.Request.Regs)
		s.Equal(int8(1), *res.Request.Regs.COPPA)
		s.Equal("198.51.100.4", res.Request.Device.IP, "client ip comes from request metadata")
	})

	s.Run("nothing stored means empty snapshot", func() {
		req := adRequest()
		req.Device.IFA = ""
		req.DeviceID = "unknown"

		res, err := s.newService().Build(s.ctx, req)
		s.Require().NoError(err)
		s.Equal(models.SourceNone, res.SnapshotSource)
		s.Nil(res.Request.Regs)
		s.True(res.Outcome.IsNoop())
	})
}

func (s *ServiceSuite) TestSourceUnavailableDegrades() {
	svc := s.newService(WithConsentSource(failingSource{err: fmt.Errorf("%w: connection refused", sentinel.ErrUnavailable)}))

	res, err := svc.Build(s.ctx, adRequest())
	s.Require().NoError(err)
	s.Equal(models.SourceNone, res.SnapshotSource)
	s.Nil(res.Request.Regs)
	s.Nil(res.Request.User)
	s.Equal(1.0, promtestutil.ToFloat64(s.metrics.SourceErrors))

	unavailable := s.events(audit.ActionConsentSourceUnavailable)
	s.Require().Len(unavailable, 1)
	s.Contains(unavailable[0].Reason, "connection refused")
}

func (s *ServiceSuite) TestCancelledLookupFails() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()
	svc := s.newService(WithConsentSource(failingSource{err: context.Canceled}))

	_, err := svc.Build(ctx, adRequest())
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeTimeout))
}

func (s *ServiceSuite) TestDeviceAccess() {
	s.Run("gdpr applies without consent hides ifa", func() {
		req := adRequest()
		req.Consent = &consentmodels.Snapshot{GDPRApplies: consentmodels.Ptr(true)}

		res, err := s.newService().Build(s.ctx, req)
		s.Require().NoError(err)
		s.False(res.DeviceAccess)
		s.Require().NotNil(res.Request.Device)
		s.Empty(res.Request.Device.IFA)
	})

	s.Run("purpose one consent from storage keys allows ifa", func() {
		req := adRequest()
		req.ConsentStorage = map[string]string{
			consentmodels.KeyTCFGDPRApplies:     "1",
			consentmodels.KeyTCFPurposeConsents: "1111",
		}

		res, err := s.newService().Build(s.ctx, req)
		s.Require().NoError(err)
		s.True(res.DeviceAccess)
		s.Equal("ifa-1", res.Request.Device.IFA)
	})
}

func (s *ServiceSuite) TestOutcomeReporting() {
	req := adRequest()
	req.Consent = &consentmodels.Snapshot{
		GDPRApplies:      consentmodels.Ptr(true),
		TCFConsentString: consentmodels.Ptr("CPXxRfAPXxRfAAfKABENB-CgAAAAAAAAAAYgAAAAAAAA"),
		USPrivacyString:  consentmodels.Ptr("1YNN"),
	}
	svc := s.newService(WithFrameworks(domain.NewCapabilities(domain.FrameworkGDPR)))

	res, err := svc.Build(s.ctx, req)
	s.Require().NoError(err)
	s.True(res.Outcome.Wrote(consent.FieldRegsGDPR))
	s.True(res.Outcome.Wrote(consent.FieldUserConsent))
	reason, ok := res.Outcome.OmittedFor(consent.FieldRegsUSPrivacy)
	s.True(ok)
	s.Equal(consent.ReasonDisabled, reason)
	s.Empty(res.Request.Regs.USPrivacy)

	s.Equal(1.0, promtestutil.ToFloat64(s.consentMetrics.FieldsWritten.WithLabelValues("regs.gdpr")))
	s.Equal(1.0, promtestutil.ToFloat64(s.consentMetrics.FieldsOmitted.WithLabelValues("regs.us_privacy", "disabled")))
	s.Equal(1.0, promtestutil.ToFloat64(s.metrics.SnapshotSource.WithLabelValues("request")))

	enriched := s.events(audit.ActionBidRequestEnriched)
	s.Require().Len(enriched, 1)
	s.Equal("bid-1", enriched[0].BidRequestID)
	s.Equal([]string{"gdpr"}, enriched[0].Frameworks)
	s.Equal([]string{"regs.gdpr", "user.consent"}, enriched[0].Written)

	withheld := s.events(audit.ActionConsentWithheld)
	s.Require().Len(withheld, 1)
	s.Equal([]audit.OmittedField{{Field: "regs.us_privacy", Reason: "disabled"}}, withheld[0].Omitted)
}

func (s *ServiceSuite) TestLegacyExt() {
	req := adRequest()
	req.Consent = &consentmodels.Snapshot{USPrivacyString: consentmodels.Ptr("1YNN")}

	res, err := s.newService(WithLegacyExt(true)).Build(s.ctx, req)
	s.Require().NoError(err)
	s.JSONEq(`{"us_privacy":"1YNN"}`, string(res.Request.Regs.Ext))
	s.True(res.Outcome.Wrote(consent.FieldRegsExtUSPrivacy))
}

func TestService_Defaults(t *testing.T) {
	svc := New()
	res, err := svc.Build(context.Background(), adRequest())
	require.NoError(t, err)
	assert.Equal(t, int64(defaultTMaxMillis), res.Request.TMax)
	assert.Equal(t, models.SourceNone, res.SnapshotSource)
	assert.Equal(t, "ifa-1", res.Request.Device.IFA, "no consent signals means device access is allowed")
}

func TestService_WithTMax(t *testing.T) {
	res, err := New(WithTMax(250), WithTMax(0)).Build(context.Background(), adRequest())
	require.NoError(t, err)
	assert.Equal(t, int64(250), res.Request.TMax)
}
