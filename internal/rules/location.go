package rules

import (
	"slices"

	"github.com/wharflab/docksift/internal/tree"
)

// Position is a 1-based line and a 0-based byte column, the convention of
// tree.TextPointer.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

func positionOf(p tree.TextPointer) Position {
	return Position{Line: p.Line, Column: p.Column}
}

func (p Position) before(q Position) bool {
	return p.Line < q.Line || (p.Line == q.Line && p.Column < q.Column)
}

// Span is the half-open range [Start, End) on one or more lines.
type Span struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Location is the part of a file a violation points at.
//
// Start and End always cover the whole location. Spans is set when the
// location is not one contiguous piece of source: the segments of an
// argument split by line continuations or of a heredoc, or the separate
// arguments of a command match. A location with Start.Line < 0 refers to the
// whole file; one with End.Line < 0 is a point.
type Location struct {
	File  string   `json:"file"`
	Start Position `json:"start"`
	End   Position `json:"end"`
	Spans []Span   `json:"spans,omitempty"`
}

// NewFileLocation returns a location for the file as a whole.
func NewFileLocation(file string) Location {
	unset := Position{Line: -1, Column: -1}
	return Location{File: file, Start: unset, End: unset}
}

// NewLineLocation returns a point at the start of a 1-based line.
func NewLineLocation(file string, line int) Location {
	return Location{File: file, Start: Position{Line: line}, End: Position{Line: -1, Column: -1}}
}

// NewRangeLocation returns a contiguous location. Lines are 1-based and
// columns 0-based, the end is exclusive.
func NewRangeLocation(file string, startLine, startCol, endLine, endCol int) Location {
	return Location{
		File:  file,
		Start: Position{Line: startLine, Column: startCol},
		End:   Position{Line: endLine, Column: endCol},
	}
}

// NewLocationFromRange converts a tree range. The segments of a compound
// range become the location's spans.
func NewLocationFromRange(file string, r tree.TextRange) Location {
	loc := Location{File: file, Start: positionOf(r.Start), End: positionOf(r.End)}
	if r.IsCompound() {
		for _, seg := range r.Parts() {
			loc.Spans = append(loc.Spans, Span{Start: positionOf(seg.Start), End: positionOf(seg.End)})
		}
	}
	return loc
}

// NewLocationFromNode returns the location of n. A nil node stands for the
// whole file.
func NewLocationFromNode(file string, n tree.Node) Location {
	if n == nil {
		return NewFileLocation(file)
	}
	return NewLocationFromRange(file, n.TextRange())
}

// NewLocationFromSpans returns the location covering spans, keeping each of
// them. Overlapping and duplicate spans are kept once, in source order.
func NewLocationFromSpans(file string, spans []Span) Location {
	if len(spans) == 0 {
		return NewFileLocation(file)
	}
	sorted := slices.Clone(spans)
	slices.SortFunc(sorted, func(a, b Span) int {
		switch {
		case a.Start.before(b.Start):
			return -1
		case b.Start.before(a.Start):
			return 1
		}
		return 0
	})
	merged := sorted[:1]
	for _, s := range sorted[1:] {
		last := &merged[len(merged)-1]
		if s.Start.before(last.End) || s.Start == last.End {
			if last.End.before(s.End) {
				last.End = s.End
			}
			continue
		}
		merged = append(merged, s)
	}

	loc := Location{File: file, Start: merged[0].Start, End: merged[0].End}
	for _, s := range merged {
		if loc.End.before(s.End) {
			loc.End = s.End
		}
	}
	if len(merged) > 1 {
		loc.Spans = merged
	}
	return loc
}

// IsFileLevel reports whether the location refers to the whole file.
func (l Location) IsFileLevel() bool {
	return l.Start.Line < 0
}

// IsPointLocation reports whether the location covers no text.
func (l Location) IsPointLocation() bool {
	return l.End.Line < 0 || l.End == l.Start
}

// EndLine is the last line the location touches. An exclusive end at
// column 0 of a later line stops on the line before.
func (l Location) EndLine() int {
	if l.IsPointLocation() {
		return l.Start.Line
	}
	if l.End.Column == 0 && l.End.Line > l.Start.Line {
		return l.End.Line - 1
	}
	return l.End.Line
}

// Parts returns the spans of l, or l's own extent when it is contiguous.
// File-level and point locations have no parts.
func (l Location) Parts() []Span {
	switch {
	case l.IsFileLevel() || l.IsPointLocation():
		return nil
	case len(l.Spans) > 0:
		return l.Spans
	}
	return []Span{{Start: l.Start, End: l.End}}
}

// Overlaps reports whether s and o share text. An empty span overlaps a span
// that contains its position.
func (s Span) Overlaps(o Span) bool {
	switch {
	case s.Start == s.End:
		return !s.Start.before(o.Start) && s.Start.before(o.End)
	case o.Start == o.End:
		return o.Overlaps(s)
	}
	return s.Start.before(o.End) && o.Start.before(s.End)
}

// Overlaps reports whether l and o point at shared text of the same file.
// A point location stands for its whole line. File-level locations overlap
// nothing.
func (l Location) Overlaps(o Location) bool {
	if l.File != o.File || l.IsFileLevel() || o.IsFileLevel() {
		return false
	}
	for _, a := range l.regions() {
		for _, b := range o.regions() {
			if a.Overlaps(b) {
				return true
			}
		}
	}
	return false
}

func (l Location) regions() []Span {
	if parts := l.Parts(); parts != nil {
		return parts
	}
	line := l.Start.Line
	return []Span{{Start: Position{Line: line}, End: Position{Line: line + 1}}}
}
