package rules

import (
	"github.com/wharflab/docksift/internal/resolve"
)

// MatchLocation returns the location of a detector match. Each matched
// argument keeps its own span, so reporters can point at the flags and
// values that were recognized rather than at the gaps between them. Words
// split out of an inline shell script share the script argument and collapse
// into its span.
func MatchLocation(file string, match []*resolve.Resolution) Location {
	var spans []Span
	for _, r := range match {
		if r == nil || r.Argument == nil {
			continue
		}
		spans = append(spans, NewLocationFromRange(file, r.Argument.TextRange()).Parts()...)
	}
	return NewLocationFromSpans(file, spans)
}

// MatchEvidence returns the resolved values of a match in order.
// Unresolved arguments are left out.
func MatchEvidence(match []*resolve.Resolution) []string {
	var out []string
	for _, r := range match {
		if r != nil && r.IsResolved() {
			out = append(out, r.Value)
		}
	}
	return out
}

// NewMatchViolation reports a detector match under meta's code, default
// severity and documentation link. The violation points at the matched
// arguments and carries their values as evidence.
func NewMatchViolation(file string, meta RuleMetadata, match []*resolve.Resolution, message string) Violation {
	return NewViolation(MatchLocation(file, match), meta.Code, message, meta.DefaultSeverity).
		WithDocURL(meta.DocURL).
		WithEvidence(MatchEvidence(match)...)
}
