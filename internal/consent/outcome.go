package consent

import (
	"slices"

	"rtbconsent/pkg/domain"
)

// Field names a request location written by enrichment, in OpenRTB dotted form.
type Field string

const (
	FieldRegsGDPR      Field = "regs.gdpr"
	FieldUserConsent   Field = "user.consent"
	FieldRegsUSPrivacy Field = "regs.us_privacy"
	FieldRegsCOPPA     Field = "regs.coppa"
	FieldRegsGPP       Field = "regs.gpp"
	FieldRegsGPPSID    Field = "regs.gpp_sid"

	// Legacy OpenRTB 2.5 placements.
	FieldRegsExtGDPR      Field = "regs.ext.gdpr"
	FieldRegsExtUSPrivacy Field = "regs.ext.us_privacy"
	FieldUserExtConsent   Field = "user.ext.consent"
)

var fieldFramework = map[Field]domain.Framework{
	FieldRegsGDPR:         domain.FrameworkGDPR,
	FieldUserConsent:      domain.FrameworkGDPR,
	FieldRegsExtGDPR:      domain.FrameworkGDPR,
	FieldUserExtConsent:   domain.FrameworkGDPR,
	FieldRegsUSPrivacy:    domain.FrameworkUSPrivacy,
	FieldRegsExtUSPrivacy: domain.FrameworkUSPrivacy,
	FieldRegsCOPPA:        domain.FrameworkCOPPA,
	FieldRegsGPP:          domain.FrameworkGPP,
	FieldRegsGPPSID:       domain.FrameworkGPP,
}

// Framework returns the framework the field belongs to.
func (f Field) Framework() domain.Framework {
	return fieldFramework[f]
}

// Reason explains why a present snapshot value was not written.
type Reason string

const (
	// ReasonMalformed: the value failed validation.
	ReasonMalformed Reason = "malformed"
	// ReasonDisabled: the framework is not in the caller's capability list.
	ReasonDisabled Reason = "disabled"
	// ReasonMalformedExt: the legacy ext target exists but is not a JSON object.
	ReasonMalformedExt Reason = "malformed_ext"
)

// Omission records a present value that was not written.
type Omission struct {
	Field  Field  `json:"field"`
	Reason Reason `json:"reason"`
}

// Outcome is the per-call report of an enrichment. Values absent from the
// snapshot appear in neither list.
type Outcome struct {
	Written []Field    `json:"written"`
	Omitted []Omission `json:"omitted"`
}

func (o *Outcome) write(f Field) {
	o.Written = append(o.Written, f)
}

func (o *Outcome) omit(f Field, r Reason) {
	o.Omitted = append(o.Omitted, Omission{Field: f, Reason: r})
}

// Wrote reports whether f was written.
func (o Outcome) Wrote(f Field) bool {
	return slices.Contains(o.Written, f)
}

// OmittedFor returns the omission reason for f, if any.
func (o Outcome) OmittedFor(f Field) (Reason, bool) {
	for _, om := range o.Omitted {
		if om.Field == f {
			return om.Reason, true
		}
	}
	return "", false
}

// Frameworks returns the frameworks that wrote at least one field, in
// application order.
func (o Outcome) Frameworks() []domain.Framework {
	var out []domain.Framework
	for _, f := range domain.AllFrameworks() {
		for _, w := range o.Written {
			if w.Framework() == f {
				out = append(out, f)
				break
			}
		}
	}
	return out
}

// IsNoop reports whether nothing was written or omitted.
func (o Outcome) IsNoop() bool {
	return len(o.Written) == 0 && len(o.Omitted) == 0
}
