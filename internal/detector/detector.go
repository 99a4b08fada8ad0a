// Package detector recognizes command shapes in resolved argument lists.
//
// A [Detector] is an ordered list of predicates. An attempt walks the
// predicates left to right, popping arguments from a [Queue]. Matching is
// all-or-nothing: a failed attempt leaves the queue as it found it, and a
// successful one returns the arguments it consumed. Unresolved arguments
// stop recognition unless a predicate explicitly accepts them.
//
// Detectors are usually declared with [Builder]:
//
//	insecure := detector.Builder().
//		With(detector.Equals("curl")).
//		WithOptionalRepeatingExcept(detector.Or(detector.ShortFlag('k'), detector.LongFlag("insecure"))).
//		With(detector.Or(detector.ShortFlag('k'), detector.LongFlag("insecure"))).
//		Build()
package detector

import (
	"slices"

	"github.com/wharflab/docksift/internal/resolve"
)

// Detector is an ordered predicate sequence describing one command shape.
// It holds no state and is safe for concurrent use.
type Detector struct {
	predicates []Predicate
}

// New returns a detector over predicates. It panics when predicates is
// empty or when a predicate is ill-formed.
func New(predicates ...Predicate) *Detector {
	if len(predicates) == 0 {
		panic("detector: no predicates")
	}
	for _, p := range predicates {
		validate(p)
	}
	return &Detector{predicates: slices.Clone(predicates)}
}

func validate(p Predicate) {
	switch p := p.(type) {
	case *Singular:
		if p == nil || p.Test == nil {
			panic("detector: singular predicate without a test")
		}
	case *Option:
		if p == nil || p.Flag == nil {
			panic("detector: option without a flag predicate")
		}
		validate(p.Flag)
		if p.Value != nil {
			validate(p.Value)
		}
	case *Unordered:
		if p == nil || len(p.Options) == 0 {
			panic("detector: unordered predicate without options")
		}
		for _, o := range p.Options {
			validate(o)
		}
	default:
		panic("detector: unknown predicate")
	}
}

type status int

const (
	statusContinue status = iota
	statusAbort
	statusNoPredicateMatch
)

// context is the state of one attempt. It never outlives the attempt.
type context struct {
	queue   *Queue
	stack   []Predicate
	matched []*resolve.Resolution
	status  status
	// unresolved is the argument that stopped the attempt, if any.
	unresolved *resolve.Resolution
}

func (c *context) next() Predicate {
	p := c.stack[0]
	c.stack = c.stack[1:]
	return p
}

// requeue puts p back in front of the remaining predicates.
func (c *context) requeue(p Predicate) {
	c.stack = append([]Predicate{p}, c.stack...)
}

// take pops the front argument for s. It returns false, with the argument
// still queued, when the argument is unresolved; the attempt is aborted
// unless s accepts unresolved input.
func (c *context) take(s *Singular) (*resolve.Resolution, bool) {
	arg := c.queue.Pop()
	if arg.IsResolved() {
		return arg, true
	}
	c.queue.Push(arg)
	if !s.AcceptUnresolved {
		c.status = statusAbort
		c.unresolved = arg
	}
	return nil, false
}

func (c *context) singular(s *Singular) {
	arg, ok := c.take(s)
	if c.status != statusContinue {
		return
	}
	if ok && s.Test(arg.Value) {
		switch s.Cardinality {
		case NoMatch:
			c.queue.Push(arg)
			c.status = statusAbort
		case ZeroOrMore:
			c.matched = append(c.matched, arg)
			c.requeue(s)
		default:
			c.matched = append(c.matched, arg)
		}
		return
	}
	if ok {
		c.queue.Push(arg)
	}
	if s.Cardinality == Match {
		c.status = statusNoPredicateMatch
	}
}

// option tries o at the front of the queue and reports whether its flag
// matched. The value is only tried when an argument is left after the flag;
// a value that fails aborts the attempt.
func (c *context) option(o *Option) bool {
	flag, ok := c.take(o.Flag)
	if c.status != statusContinue {
		return false
	}
	if !ok || !o.Flag.Test(flag.Value) {
		if ok {
			c.queue.Push(flag)
		}
		return false
	}
	c.matched = append(c.matched, flag)
	if o.Value == nil {
		return true
	}

	if c.queue.Len() == 0 {
		return true
	}
	value, ok := c.take(o.Value)
	if c.status != statusContinue {
		return true
	}
	if !ok || !o.Value.Test(value.Value) {
		if ok {
			c.queue.Push(value)
		}
		c.status = statusAbort
		return true
	}
	c.matched = append(c.matched, value)
	return true
}

func (c *context) unordered(u *Unordered) {
	remaining := slices.Clone(u.Options)
	for c.status == statusContinue && len(remaining) > 0 && c.queue.Len() > 0 {
		consumed := -1
		for i, o := range remaining {
			if c.option(o) {
				consumed = i
				break
			}
			if c.status != statusContinue {
				return
			}
		}
		if consumed >= 0 {
			remaining = slices.Delete(remaining, consumed, consumed+1)
			continue
		}
		if !u.AllowExtra || !c.wildcard(u) {
			break
		}
	}
	if c.status == statusContinue && slices.ContainsFunc(remaining, (*Option).required) {
		c.status = statusNoPredicateMatch
	}
}

// wildcard consumes an undeclared flag and its value, if the next argument
// is not a flag. Wildcard arguments are never reported.
func (c *context) wildcard(u *Unordered) bool {
	flag := c.queue.Peek()
	if !flag.IsResolved() || !IsFlag(flag.Value) || u.declares(flag.Value) {
		return false
	}
	c.queue.Pop()
	if v := c.queue.Peek(); v.IsResolved() && !IsFlag(v.Value) {
		c.queue.Pop()
	}
	return true
}

// attempt runs the detector once at the front of q. On failure q is
// restored and the returned context tells why.
func (d *Detector) attempt(q *Queue) *context {
	saved := q.save()
	c := &context{queue: q, stack: slices.Clone(d.predicates)}
	for c.status == statusContinue && len(c.stack) > 0 {
		if q.Len() == 0 {
			if slices.ContainsFunc(c.stack, Predicate.required) {
				c.status = statusNoPredicateMatch
			}
			break
		}
		switch p := c.next().(type) {
		case *Singular:
			c.singular(p)
		case *Option:
			if !c.option(p) && c.status == statusContinue && p.required() {
				c.status = statusNoPredicateMatch
			}
		case *Unordered:
			c.unordered(p)
		}
	}
	if c.status != statusContinue {
		q.restore(saved)
		c.matched = nil
	}
	return c
}

// Match runs one attempt at the front of q. On success it returns the
// consumed arguments in order, without the arguments skipped as extra
// flags. On failure it returns nil and q is unchanged.
func (d *Detector) Match(q *Queue) []*resolve.Resolution {
	return dedup(d.attempt(q).matched)
}

// Search slides the detector over args and returns every non-overlapping
// match. A window that stops on an unresolved argument resumes after it.
func (d *Detector) Search(args []*resolve.Resolution) [][]*resolve.Resolution {
	var out [][]*resolve.Resolution
	for i := 0; i < len(args); {
		q := NewQueue(args[i:])
		c := d.attempt(q)
		switch {
		case c.status == statusContinue && len(c.matched) > 0:
			out = append(out, dedup(c.matched))
			i = len(args) - q.Len()
		case c.unresolved != nil:
			i += slices.Index(args[i:], c.unresolved) + 1
		default:
			i++
		}
	}
	return out
}

// MatchAny returns the matches of the first detector that matches args.
func MatchAny(detectors []*Detector, args []*resolve.Resolution) [][]*resolve.Resolution {
	for _, d := range detectors {
		if m := d.Search(args); len(m) > 0 {
			return m
		}
	}
	return nil
}

func dedup(rs []*resolve.Resolution) []*resolve.Resolution {
	if len(rs) == 0 {
		return nil
	}
	seen := make(map[*resolve.Resolution]bool, len(rs))
	out := make([]*resolve.Resolution, 0, len(rs))
	for _, r := range rs {
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	return out
}
