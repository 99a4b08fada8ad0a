package sourcemap

import "fmt"

// Breakpoint records a deletion made while preprocessing. Processed indices
// at or after ProcessedIndex map to the original source by adding Shift,
// the total number of bytes deleted so far.
type Breakpoint struct {
	ProcessedIndex int
	Shift          int
}

// Translator maps indices in preprocessed text to positions in the original
// source. It is a forward-only cursor: queries must be non-decreasing, and a
// Translator must not be shared between goroutines.
type Translator struct {
	sm          *SourceMap
	breakpoints []Breakpoint
	next        int
	shift       int
	last        int
}

// NewTranslator returns a Translator over sm seeded with breakpoints, which
// must be sorted by ProcessedIndex.
func NewTranslator(sm *SourceMap, breakpoints []Breakpoint) *Translator {
	return &Translator{sm: sm, breakpoints: breakpoints, last: -1}
}

// AdjustIndex returns the original-source offset of processed index i.
// It panics if i is smaller than a previously queried index.
func (t *Translator) AdjustIndex(i int) int {
	if i < t.last {
		panic(fmt.Sprintf("sourcemap: translator queried at %d after %d", i, t.last))
	}
	t.last = i
	for t.next < len(t.breakpoints) && t.breakpoints[t.next].ProcessedIndex <= i {
		t.shift = t.breakpoints[t.next].Shift
		t.next++
	}
	return i + t.shift
}

// SourceLineAndColumnAt returns the 1-based line and 0-based column of
// processed index i in the original source.
func (t *Translator) SourceLineAndColumnAt(i int) (line, column int) {
	line, column = t.sm.Position(t.AdjustIndex(i))
	return line + 1, column
}
