// Package consent translates a consent Snapshot into the OpenRTB fields an
// exchange reads: regs.gdpr, user.consent, regs.us_privacy, regs.coppa,
// regs.gpp and regs.gpp_sid.
//
// Frameworks are applied in a fixed order (GDPR, US Privacy, COPPA, GPP) and
// are independent: every present, valid signal is written and none suppresses
// another. Enrichment never fails on data quality; a value that is absent or
// invalid leaves its field untouched.
package consent

import (
	"encoding/json"

	"rtbconsent/internal/consent/models"
	"rtbconsent/internal/ortb"
	"rtbconsent/pkg/domain"
	dErrors "rtbconsent/pkg/domain-errors"
)

var (
	// ErrNilSnapshot is returned when Enrich is called without a snapshot.
	ErrNilSnapshot = dErrors.New(dErrors.CodeInvariantViolation, "consent snapshot is nil")
	// ErrNilRequest is returned when Enrich is called without a request.
	ErrNilRequest = dErrors.New(dErrors.CodeInvariantViolation, "bid request is nil")
)

type options struct {
	caps      domain.Capabilities
	legacyExt bool
}

// Option configures a single enrichment.
type Option func(*options)

// WithFrameworks limits enrichment to the given frameworks. Present values of
// other frameworks are reported as disabled and left unwritten.
func WithFrameworks(caps domain.Capabilities) Option {
	return func(o *options) {
		o.caps = caps
	}
}

// WithLegacyExt additionally mirrors gdpr and us_privacy into regs.ext and the
// TCF string into user.ext, the OpenRTB 2.5 placement older exchanges read.
func WithLegacyExt(enabled bool) Option {
	return func(o *options) {
		o.legacyExt = enabled
	}
}

// Enrich writes the consent signals in snapshot into req. Only consent fields
// are touched and only when the snapshot carries a value for them; fields
// already on req are never cleared. Calling Enrich twice with the same inputs
// yields the same request.
//
// The snapshot is copied on entry, so the caller may reuse or mutate it once
// Enrich returns. Enrich performs no I/O and is safe for concurrent use on
// distinct requests.
//
// Errors: returns ErrNilSnapshot or ErrNilRequest (CodeInvariantViolation) for
// nil arguments; malformed consent data is reported in the Outcome instead.
func Enrich(snapshot *models.Snapshot, req *ortb.BidRequest, opts ...Option) (Outcome, error) {
	if snapshot == nil {
		return Outcome{}, ErrNilSnapshot
	}
	if req == nil {
		return Outcome{}, ErrNilRequest
	}

	o := options{caps: domain.AllCapabilities()}
	for _, opt := range opts {
		opt(&o)
	}

	e := enrichment{snap: snapshot.Clone(), req: req, opts: o}
	e.gdpr()
	e.usPrivacy()
	e.coppa()
	e.gpp()
	return e.out, nil
}

type enrichment struct {
	snap models.Snapshot
	req  *ortb.BidRequest
	opts options
	out  Outcome
}

// enabled reports whether fw may be written. When it may not, each field in
// present is recorded as disabled.
func (e *enrichment) enabled(fw domain.Framework, present ...Field) bool {
	if e.opts.caps.Enabled(fw) {
		return true
	}
	for _, f := range present {
		e.out.omit(f, ReasonDisabled)
	}
	return false
}

// presentFields keeps the fields whose flag is set, in argument order.
func presentFields(pairs ...fieldPresence) []Field {
	var out []Field
	for _, p := range pairs {
		if p.present {
			out = append(out, p.field)
		}
	}
	return out
}

type fieldPresence struct {
	field   Field
	present bool
}

func (e *enrichment) gdpr() {
	s := e.snap
	if !e.enabled(domain.FrameworkGDPR, presentFields(
		fieldPresence{FieldRegsGDPR, s.GDPRApplies != nil},
		fieldPresence{FieldUserConsent, s.TCFConsentString != nil},
	)...) {
		return
	}

	if s.GDPRApplies != nil {
		regs := e.req.EnsureRegs()
		regs.GDPR = flag(*s.GDPRApplies)
		e.out.write(FieldRegsGDPR)
		if e.opts.legacyExt {
			e.mirror(&regs.Ext, "gdpr", *regs.GDPR, FieldRegsExtGDPR)
		}
	}

	// The TCF string is forwarded whether or not GDPR applies.
	if s.TCFConsentString != nil {
		if *s.TCFConsentString == "" {
			e.out.omit(FieldUserConsent, ReasonMalformed)
			return
		}
		user := e.req.EnsureUser()
		user.Consent = *s.TCFConsentString
		e.out.write(FieldUserConsent)
		if e.opts.legacyExt {
			e.mirror(&user.Ext, "consent", user.Consent, FieldUserExtConsent)
		}
	}
}

func (e *enrichment) usPrivacy() {
	s := e.snap
	if s.USPrivacyString == nil {
		return
	}
	if !e.enabled(domain.FrameworkUSPrivacy, FieldRegsUSPrivacy) {
		return
	}
	if !ValidUSPrivacy(*s.USPrivacyString) {
		e.out.omit(FieldRegsUSPrivacy, ReasonMalformed)
		return
	}
	regs := e.req.EnsureRegs()
	regs.USPrivacy = *s.USPrivacyString
	e.out.write(FieldRegsUSPrivacy)
	if e.opts.legacyExt {
		e.mirror(&regs.Ext, "us_privacy", regs.USPrivacy, FieldRegsExtUSPrivacy)
	}
}

func (e *enrichment) coppa() {
	s := e.snap
	if s.COPPAApplies == nil {
		return
	}
	if !e.enabled(domain.FrameworkCOPPA, FieldRegsCOPPA) {
		return
	}
	e.req.EnsureRegs().COPPA = flag(*s.COPPAApplies)
	e.out.write(FieldRegsCOPPA)
}

func (e *enrichment) gpp() {
	s := e.snap
	if !e.enabled(domain.FrameworkGPP, presentFields(
		fieldPresence{FieldRegsGPP, s.GPPString != nil},
		fieldPresence{FieldRegsGPPSID, s.GPPSectionIDs != nil},
	)...) {
		return
	}

	if s.GPPString == nil || *s.GPPString == "" {
		if s.GPPString != nil {
			e.out.omit(FieldRegsGPP, ReasonMalformed)
		}
		// Section ids without a string have nothing to scope.
		if s.GPPSectionIDs != nil {
			e.out.omit(FieldRegsGPPSID, ReasonMalformed)
		}
		return
	}

	regs := e.req.EnsureRegs()
	regs.GPP = *s.GPPString
	e.out.write(FieldRegsGPP)

	if s.GPPSectionIDs == nil {
		return
	}
	for _, id := range s.GPPSectionIDs {
		if id < 0 {
			e.out.omit(FieldRegsGPPSID, ReasonMalformed)
			return
		}
	}
	ids := s.GPPSectionIDs
	regs.GPPSID = &ids
	e.out.write(FieldRegsGPPSID)
}

// mirror sets key in the ext object at dst. A non-object ext is left as is.
func (e *enrichment) mirror(dst *json.RawMessage, key string, value any, field Field) {
	ext, err := ortb.SetExtField(*dst, key, value)
	if err != nil {
		e.out.omit(field, ReasonMalformedExt)
		return
	}
	*dst = ext
	e.out.write(field)
}
