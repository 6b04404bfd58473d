package consent

import (
	"rtbconsent/internal/ortb"
	dErrors "rtbconsent/pkg/domain-errors"
)

// ErrNilProvider is the panic value of NewBuilder when given no provider.
var ErrNilProvider = dErrors.New(dErrors.CodeInvariantViolation, "consent provider is nil")

// Builder is the consent stage of the request pipeline. It reads the provider
// once per Build and writes nothing outside the consent fields.
type Builder struct {
	provider Provider
	report   func(Outcome, error)
	opts     []Option
}

// NewBuilder creates a consent Builder. report, when non-nil, receives the
// result of every Build: the Outcome, or the invariant error that stopped
// enrichment. A nil provider is a wiring bug and panics with ErrNilProvider;
// use Static(models.Snapshot{}) when there is no consent data.
func NewBuilder(provider Provider, report func(Outcome, error), opts ...Option) *Builder {
	if provider == nil {
		panic(ErrNilProvider)
	}
	return &Builder{provider: provider, report: report, opts: opts}
}

// Build enriches req from the provider's current snapshot.
func (b *Builder) Build(req *ortb.BidRequest) {
	snap := b.provider.Snapshot()
	outcome, err := Enrich(&snap, req, b.opts...)
	if b.report != nil {
		b.report(outcome, err)
	}
}
