// Package sourcemap indexes Dockerfile source by line. Lines and columns
// are 0-based here; callers add one for display.
//
// The [Translator] maps offsets in preprocessed text back to the source.
package sourcemap

import (
	"bytes"
	"slices"
	"strings"
)

// SourceMap answers line and offset queries over one source. Lines are
// split on '\n' with a trailing '\r' dropped, so a source ending in a
// newline has an empty last line.
type SourceMap struct {
	source []byte
	// starts[i] is the offset of line i.
	starts []int
	crlf   bool
}

func New(source []byte) *SourceMap {
	sm := &SourceMap{source: source, starts: []int{0}}
	for i, b := range source {
		if b == '\n' {
			sm.starts = append(sm.starts, i+1)
		}
	}
	if first := bytes.IndexByte(source, '\n'); first > 0 {
		sm.crlf = source[first-1] == '\r'
	}
	return sm
}

func (sm *SourceMap) LineCount() int {
	return len(sm.starts)
}

// LineOffset returns the offset where line i starts, or -1 out of range.
func (sm *SourceMap) LineOffset(i int) int {
	if i < 0 || i >= len(sm.starts) {
		return -1
	}
	return sm.starts[i]
}

// Line returns line i without its line ending, or "" out of range.
func (sm *SourceMap) Line(i int) string {
	start := sm.LineOffset(i)
	if start < 0 {
		return ""
	}
	end := len(sm.source)
	if i+1 < len(sm.starts) {
		end = sm.starts[i+1] - 1
	}
	return strings.TrimSuffix(string(sm.source[start:end]), "\r")
}

// Position returns the line and byte column of offset. The line break
// belongs to the line it ends, and the source length maps to the end of
// the last line.
func (sm *SourceMap) Position(offset int) (line, column int) {
	line, found := slices.BinarySearch(sm.starts, offset)
	if !found {
		line--
	}
	line = max(line, 0)
	return line, offset - sm.starts[line]
}

// LineSeparator is the ending of the first line: "\r\n" or "\n".
func (sm *SourceMap) LineSeparator() string {
	if sm.crlf {
		return "\r\n"
	}
	return "\n"
}

// Snippet joins lines first through last, inclusive and clamped to the
// source, with "\n".
func (sm *SourceMap) Snippet(first, last int) string {
	first = max(first, 0)
	last = min(last, len(sm.starts)-1)
	if first > last {
		return ""
	}
	lines := make([]string, 0, last-first+1)
	for i := first; i <= last; i++ {
		lines = append(lines, sm.Line(i))
	}
	return strings.Join(lines, "\n")
}

// ContextRange widens lines first through last by up to pad lines, taken
// alternately before and after. The empty line after a final newline is
// never included.
func (sm *SourceMap) ContextRange(first, last, pad int) (start, end int) {
	n := len(sm.starts)
	if n > 1 && len(sm.source) == sm.starts[n-1] {
		n--
	}
	start, end = max(first, 0), min(last, n-1)
	for pad > 0 {
		grew := false
		if start > 0 {
			start--
			pad--
			grew = true
		}
		if end < n-1 && pad > 0 {
			end++
			pad--
			grew = true
		}
		if !grew {
			break
		}
	}
	return start, end
}

// SnippetAround is the snippet of lines first through last with pad lines
// of context.
func (sm *SourceMap) SnippetAround(first, last, pad int) string {
	return sm.Snippet(sm.ContextRange(first, last, pad))
}

// Source returns the indexed bytes. Callers must not modify them.
func (sm *SourceMap) Source() []byte {
	return sm.source
}
