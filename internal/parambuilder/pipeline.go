// Package parambuilder assembles an OpenRTB bid request from an ordered list
// of builders. Each builder owns a slice of the request (imp, app, device,
// user, consent) and must leave the rest alone.
package parambuilder

import "rtbconsent/internal/ortb"

// Builder writes its part of the request in place.
type Builder interface {
	Build(req *ortb.BidRequest)
}

// BuilderFunc adapts a plain function to Builder.
type BuilderFunc func(req *ortb.BidRequest)

func (f BuilderFunc) Build(req *ortb.BidRequest) { f(req) }

// Pipeline runs builders in the order given.
type Pipeline struct {
	builders []Builder
}

// NewPipeline creates a pipeline. nil builders are skipped.
func NewPipeline(builders ...Builder) *Pipeline {
	p := &Pipeline{builders: make([]Builder, 0, len(builders))}
	for _, b := range builders {
		if b != nil {
			p.builders = append(p.builders, b)
		}
	}
	return p
}

// Build returns a fresh request with every builder applied.
func (p *Pipeline) Build() *ortb.BidRequest {
	req := &ortb.BidRequest{}
	p.Apply(req)
	return req
}

// Apply runs every builder against req.
func (p *Pipeline) Apply(req *ortb.BidRequest) {
	for _, b := range p.builders {
		b.Build(req)
	}
}

// Len returns the number of builders.
func (p *Pipeline) Len() int {
	return len(p.builders)
}
