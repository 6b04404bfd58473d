// Package service builds OpenRTB bid requests for ad requests. It resolves
// the consent snapshot, runs the parameter builder pipeline with consent as
// the last stage, and reports the enrichment outcome to metrics and audit.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"rtbconsent/internal/auction/metrics"
	"rtbconsent/internal/auction/models"
	"rtbconsent/internal/auction/ports"
	"rtbconsent/internal/consent"
	consentmetrics "rtbconsent/internal/consent/metrics"
	consentmodels "rtbconsent/internal/consent/models"
	"rtbconsent/internal/ortb"
	"rtbconsent/internal/parambuilder"
	"rtbconsent/pkg/domain"
	dErrors "rtbconsent/pkg/domain-errors"
	"rtbconsent/pkg/platform/audit"
	"rtbconsent/pkg/platform/sentinel"
	"rtbconsent/pkg/requestcontext"
)

const (
	defaultTMaxMillis = 500
	tracerName        = "rtbconsent/auction"
)

// Result is a built bid request with the consent details that shaped it.
type Result struct {
	Request        *ortb.BidRequest
	Outcome        consent.Outcome
	SnapshotSource models.SnapshotSource
	DeviceAccess   bool
}

// Service builds bid requests.
type Service struct {
	source         ports.ConsentSource
	auditor        ports.AuditPublisher
	logger         *slog.Logger
	metrics        *metrics.Metrics
	consentMetrics *consentmetrics.Metrics
	tracer         trace.Tracer

	frameworks domain.Capabilities
	legacyExt  bool
	tmaxMillis int64
	basicOpts  []parambuilder.BasicOption
}

// Option configures the Service.
type Option func(*Service)

// WithConsentSource sets the stored-consent source used when the request
// carries no consent of its own.
func WithConsentSource(src ports.ConsentSource) Option {
	return func(s *Service) {
		s.source = src
	}
}

// WithAuditPublisher sets the audit publisher.
func WithAuditPublisher(p ports.AuditPublisher) Option {
	return func(s *Service) {
		s.auditor = p
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithConsentMetrics(m *consentmetrics.Metrics) Option {
	return func(s *Service) {
		s.consentMetrics = m
	}
}

// WithFrameworks limits the frameworks the consent stage may write.
func WithFrameworks(caps domain.Capabilities) Option {
	return func(s *Service) {
		s.frameworks = caps
	}
}

// WithLegacyExt mirrors consent into the OpenRTB 2.5 ext locations.
func WithLegacyExt(enabled bool) Option {
	return func(s *Service) {
		s.legacyExt = enabled
	}
}

// WithTMax sets the tmax written on every request. Non-positive values are ignored.
func WithTMax(millis int64) Option {
	return func(s *Service) {
		if millis > 0 {
			s.tmaxMillis = millis
		}
	}
}

// WithBasicOptions passes options to the envelope builder.
func WithBasicOptions(opts ...parambuilder.BasicOption) Option {
	return func(s *Service) {
		s.basicOpts = append(s.basicOpts, opts...)
	}
}

// New creates a Service. With no options it builds requests from
// request-supplied consent only.
func New(opts ...Option) *Service {
	s := &Service{
		logger:     slog.Default(),
		frameworks: domain.AllCapabilities(),
		tmaxMillis: defaultTMaxMillis,
		tracer:     otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Build turns req into an OpenRTB bid request.
//
// A stored-consent source that cannot be reached does not fail the build:
// the request goes out with an empty snapshot, which never carries consent
// that was not given. Cancellation of ctx does fail it.
func (s *Service) Build(ctx context.Context, req models.AdRequest) (*Result, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveBuildLatency(time.Since(start)) }()

	ctx, span := s.tracer.Start(ctx, "auction.Build",
		trace.WithAttributes(attribute.String("ad_unit.config_id", req.AdUnit.ConfigID)))
	defer span.End()

	snap, source, err := s.resolveSnapshot(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "snapshot resolution failed")
		return nil, err
	}
	s.metrics.IncSnapshotSource(string(source))

	allowDevice := consent.DeviceAccessAllowed(snap)

	var (
		outcome   consent.Outcome
		enrichErr error
	)
	pipeline := parambuilder.NewPipeline(
		parambuilder.NewBasic(req.AdUnit, s.tmaxMillis, s.basicOpts...),
		parambuilder.NewApp(req.App),
		parambuilder.NewDevice(req.Device, allowDevice,
			parambuilder.WithClientMetadata(requestcontext.ClientIP(ctx), requestcontext.UserAgent(ctx))),
		parambuilder.NewUser(req.User),
		consent.NewBuilder(consent.Static(snap), func(o consent.Outcome, err error) { outcome, enrichErr = o, err },
			consent.WithFrameworks(s.frameworks),
			consent.WithLegacyExt(s.legacyExt),
		),
	)
	bid := pipeline.Build()
	if enrichErr != nil {
		span.RecordError(enrichErr)
		span.SetStatus(codes.Error, "consent enrichment failed")
		return nil, enrichErr
	}

	s.consentMetrics.ObserveOutcome(outcome)
	span.SetAttributes(
		attribute.String("consent.source", string(source)),
		attribute.Int("consent.written", len(outcome.Written)),
		attribute.Int("consent.omitted", len(outcome.Omitted)),
		attribute.Bool("consent.device_access", allowDevice),
	)

	s.logger.InfoContext(ctx, "bid request built",
		"request_id", requestcontext.RequestID(ctx),
		"bid_request_id", bid.ID,
		"snapshot_source", string(source),
		"written", outcome.Written,
		"omitted", outcome.Omitted,
		"device_access", allowDevice,
	)
	s.emitOutcome(ctx, bid.ID, source, outcome, allowDevice)

	return &Result{
		Request:        bid,
		Outcome:        outcome,
		SnapshotSource: source,
		DeviceAccess:   allowDevice,
	}, nil
}

// resolveSnapshot picks the first source that has consent: the request's
// snapshot object, its CMP storage keys, then the stored snapshot for the
// device. Sources are never merged.
func (s *Service) resolveSnapshot(ctx context.Context, req models.AdRequest) (consentmodels.Snapshot, models.SnapshotSource, error) {
	if req.Consent != nil {
		return req.Consent.Clone(), models.SourceRequest, nil
	}
	if len(req.ConsentStorage) > 0 {
		return consentmodels.FromStorageKeys(req.ConsentStorage), models.SourceStorage, nil
	}

	deviceID := req.DeviceID
	if deviceID == "" {
		deviceID = req.Device.IFA
	}
	if s.source == nil || deviceID == "" {
		return consentmodels.Snapshot{}, models.SourceNone, nil
	}

	ctx, span := s.tracer.Start(ctx, "auction.LookupConsent")
	defer span.End()

	snap, err := s.source.Lookup(ctx, deviceID)
	switch {
	case err == nil:
		return snap, models.SourceStore, nil
	case errors.Is(err, sentinel.ErrNotFound):
		return consentmodels.Snapshot{}, models.SourceNone, nil
	case ctx.Err() != nil:
		return consentmodels.Snapshot{}, "", dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "request cancelled during consent lookup")
	}

	span.RecordError(err)
	s.metrics.IncSourceErrors()
	s.logger.WarnContext(ctx, "consent source unavailable, using empty snapshot",
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	s.emit(ctx, audit.Event{
		Action:    audit.ActionConsentSourceUnavailable,
		RequestID: requestcontext.RequestID(ctx),
		Reason:    err.Error(),
	})
	return consentmodels.Snapshot{}, models.SourceNone, nil
}

func (s *Service) emitOutcome(ctx context.Context, bidID string, source models.SnapshotSource, out consent.Outcome, deviceAccess bool) {
	event := audit.Event{
		Action:         audit.ActionBidRequestEnriched,
		RequestID:      requestcontext.RequestID(ctx),
		BidRequestID:   bidID,
		SnapshotSource: string(source),
		DeviceAccess:   deviceAccess,
	}
	for _, fw := range out.Frameworks() {
		event.Frameworks = append(event.Frameworks, fw.String())
	}
	for _, f := range out.Written {
		event.Written = append(event.Written, string(f))
	}
	for _, o := range out.Omitted {
		event.Omitted = append(event.Omitted, audit.OmittedField{Field: string(o.Field), Reason: string(o.Reason)})
	}
	s.emit(ctx, event)

	if len(event.Omitted) > 0 {
		withheld := event
		withheld.Action = audit.ActionConsentWithheld
		withheld.Category = ""
		s.emit(ctx, withheld)
	}
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"request_id", event.RequestID,
			"action", string(event.Action),
			"error", err,
		)
	}
}
