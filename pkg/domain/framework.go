package domain

import (
	"strings"

	dErrors "rtbconsent/pkg/domain-errors"
)

// Framework identifies a privacy framework whose signals can be written into a
// bid request.
// Invariant: the value must be one of the supported frameworks.
//
// Usage: construct via ParseFramework at trust boundaries (config, request
// bodies); direct casting bypasses validation.
type Framework string

// Supported frameworks, in the order they are applied to a request.
const (
	FrameworkGDPR      Framework = "gdpr"
	FrameworkUSPrivacy Framework = "usp"
	FrameworkCOPPA     Framework = "coppa"
	FrameworkGPP       Framework = "gpp"
)

// frameworkOrder is the single source of truth for valid frameworks and their
// application order.
var frameworkOrder = map[Framework]int{
	FrameworkGDPR:      1,
	FrameworkUSPrivacy: 2,
	FrameworkCOPPA:     3,
	FrameworkGPP:       4,
}

// AllFrameworks lists every supported framework in application order.
func AllFrameworks() []Framework {
	return []Framework{FrameworkGDPR, FrameworkUSPrivacy, FrameworkCOPPA, FrameworkGPP}
}

// ParseFramework constructs a Framework from external input. Matching is
// case-insensitive and ignores surrounding whitespace.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported.
func ParseFramework(s string) (Framework, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "framework cannot be empty")
	}
	f := Framework(s)
	if !f.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unsupported framework: "+s)
	}
	return f, nil
}

// IsValid checks if the framework is one of the supported enum values.
func (f Framework) IsValid() bool {
	_, ok := frameworkOrder[f]
	return ok
}

func (f Framework) String() string {
	return string(f)
}

// Capabilities is the set of frameworks a caller has enabled. The zero value
// enables nothing; use AllCapabilities for the default.
type Capabilities struct {
	enabled map[Framework]struct{}
}

// AllCapabilities enables every supported framework.
func AllCapabilities() Capabilities {
	return NewCapabilities(AllFrameworks()...)
}

// NewCapabilities enables the given frameworks. Invalid values are ignored.
func NewCapabilities(frameworks ...Framework) Capabilities {
	c := Capabilities{enabled: make(map[Framework]struct{}, len(frameworks))}
	for _, f := range frameworks {
		if f.IsValid() {
			c.enabled[f] = struct{}{}
		}
	}
	return c
}

// ParseCapabilities parses a list of framework names. Duplicates collapse.
// An empty list yields a Capabilities with nothing enabled.
func ParseCapabilities(names []string) (Capabilities, error) {
	frameworks := make([]Framework, 0, len(names))
	for _, name := range names {
		f, err := ParseFramework(name)
		if err != nil {
			return Capabilities{}, err
		}
		frameworks = append(frameworks, f)
	}
	return NewCapabilities(frameworks...), nil
}

// Enabled reports whether f is in the set.
func (c Capabilities) Enabled(f Framework) bool {
	_, ok := c.enabled[f]
	return ok
}

// List returns the enabled frameworks in application order.
func (c Capabilities) List() []Framework {
	out := make([]Framework, 0, len(c.enabled))
	for _, f := range AllFrameworks() {
		if c.Enabled(f) {
			out = append(out, f)
		}
	}
	return out
}
