// Package processor shapes the violations of a lint run before they are
// reported.
//
// A Chain runs processors in order. The CLI chain is:
//
//	path-normalization       slash-separated paths
//	severity-override        per-rule severity from config
//	enable-filter            drop disabled rules
//	path-exclusion-filter    drop per-rule path exclusions
//	inline-directive-filter  # docksift ignore=... and friends
//	supersession             drop findings an error already covers
//	deduplication            one finding per rule and span set
//	sorting                  rules.Compare order
//	snippet-attachment       source lines for reporters
package processor

import (
	"github.com/wharflab/docksift/internal/rules"
)

// Processor transforms the violations of a run. Process must not modify
// the slice it is given.
type Processor interface {
	Name() string
	Process(violations []rules.Violation, ctx *Context) []rules.Violation
}

// Func is a Processor backed by a function.
type Func struct {
	name string
	fn   func([]rules.Violation, *Context) []rules.Violation
}

func NewFunc(name string, fn func([]rules.Violation, *Context) []rules.Violation) Func {
	return Func{name: name, fn: fn}
}

func (f Func) Name() string { return f.name }

func (f Func) Process(violations []rules.Violation, ctx *Context) []rules.Violation {
	return f.fn(violations, ctx)
}

// Filter returns a processor keeping the violations keep accepts.
func Filter(name string, keep func(rules.Violation, *Context) bool) Func {
	return NewFunc(name, func(violations []rules.Violation, ctx *Context) []rules.Violation {
		out := make([]rules.Violation, 0, len(violations))
		for _, v := range violations {
			if keep(v, ctx) {
				out = append(out, v)
			}
		}
		return out
	})
}

// Map returns a processor replacing each violation with fn's result.
func Map(name string, fn func(rules.Violation, *Context) rules.Violation) Func {
	return NewFunc(name, func(violations []rules.Violation, ctx *Context) []rules.Violation {
		out := make([]rules.Violation, len(violations))
		for i, v := range violations {
			out[i] = fn(v, ctx)
		}
		return out
	})
}

// Chain runs processors in sequence.
type Chain struct {
	processors []Processor
}

func NewChain(processors ...Processor) *Chain {
	return &Chain{processors: processors}
}

// Processors returns the processors in execution order.
func (c *Chain) Processors() []Processor {
	return c.processors
}

func (c *Chain) Process(violations []rules.Violation, ctx *Context) []rules.Violation {
	for _, p := range c.processors {
		violations = p.Process(violations, ctx)
	}
	return violations
}
