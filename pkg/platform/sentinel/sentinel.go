package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Consent sources and other adapters
// return these (optionally wrapped) so services can translate them into
// domain errors or degrade gracefully.
//
//   - ErrNotFound: no record exists for the requested key
//   - ErrUnavailable: the backing service could not be reached
//   - ErrInvalidState: stored data could not be interpreted
var (
	ErrNotFound     = errors.New("not found")
	ErrUnavailable  = errors.New("unavailable")
	ErrInvalidState = errors.New("invalid state")
)
