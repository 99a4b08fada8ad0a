// Package tree defines the concrete syntax tree built by the Dockerfile parser.
//
// Every terminal of the tree is a [Token] whose [TextRange] points into the
// original source, even though the parser ran over preprocessed text. Tokens
// that were stitched together from several physical lines (heredoc bodies,
// words split by a line continuation) carry a compound range: one simple
// range per original segment.
//
// Lines are 1-based and columns are 0-based byte offsets. End positions are
// exclusive.
package tree

import (
	"strconv"
	"strings"
)

// TextPointer is a position in the original source.
type TextPointer struct {
	// Line is the 1-based line number.
	Line int `json:"line" yaml:"line"`
	// Column is the 0-based byte column.
	Column int `json:"column" yaml:"column"`
}

// Before reports whether p comes strictly before o.
func (p TextPointer) Before(o TextPointer) bool {
	if p.Line != o.Line {
		return p.Line < o.Line
	}
	return p.Column < o.Column
}

func (p TextPointer) String() string {
	return strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Column)
}

// TextRange is a span of the original source.
//
// A compound range has Segments set; Start and End then equal the start of
// the first segment and the end of the last one.
type TextRange struct {
	Start    TextPointer `json:"start" yaml:"start"`
	End      TextPointer `json:"end" yaml:"end"`
	Segments []TextRange `json:"segments,omitempty" yaml:"segments,omitempty"`
}

// NewRange returns a simple range.
func NewRange(startLine, startCol, endLine, endCol int) TextRange {
	return TextRange{
		Start: TextPointer{Line: startLine, Column: startCol},
		End:   TextPointer{Line: endLine, Column: endCol},
	}
}

// NewCompoundRange merges segments into one range. A single segment yields a
// simple range.
func NewCompoundRange(segments []TextRange) TextRange {
	switch len(segments) {
	case 0:
		return TextRange{}
	case 1:
		return segments[0]
	}
	return TextRange{
		Start:    segments[0].Start,
		End:      segments[len(segments)-1].End,
		Segments: segments,
	}
}

// IsCompound reports whether the range consists of several segments.
func (r TextRange) IsCompound() bool {
	return len(r.Segments) > 0
}

// Parts returns the simple ranges that make up r.
func (r TextRange) Parts() []TextRange {
	if r.IsCompound() {
		return r.Segments
	}
	return []TextRange{r}
}

// Contains reports whether p lies inside r (end exclusive).
func (r TextRange) Contains(p TextPointer) bool {
	return !p.Before(r.Start) && p.Before(r.End)
}

func (r TextRange) String() string {
	if !r.IsCompound() {
		return r.Start.String() + "-" + r.End.String()
	}
	parts := make([]string, len(r.Segments))
	for i, s := range r.Segments {
		parts[i] = s.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Merge returns the smallest simple range covering first and last.
func Merge(first, last TextRange) TextRange {
	return TextRange{Start: first.Start, End: last.End}
}
