package dockerfile

import (
	"strings"

	"github.com/wharflab/docksift/internal/tree"
)

// HeredocKind classifies the type of heredoc based on its containing instruction.
type HeredocKind int

const (
	// HeredocKindUnknown indicates a heredoc in an unrecognized instruction.
	HeredocKindUnknown HeredocKind = iota

	// HeredocKindScript indicates a heredoc in a RUN instruction.
	// The content is a shell script to be executed.
	HeredocKindScript

	// HeredocKindInlineSource indicates a heredoc in COPY or ADD instruction.
	// The content is an inline file that does not come from build context.
	HeredocKindInlineSource
)

// String returns the string representation of the HeredocKind.
func (k HeredocKind) String() string {
	switch k {
	case HeredocKindUnknown:
		return "unknown"
	case HeredocKindScript:
		return "script"
	case HeredocKindInlineSource:
		return "inline-source"
	default:
		return "unknown"
	}
}

// KindOf classifies h by the instruction that contains it.
func KindOf(h *tree.Heredoc) HeredocKind {
	instr := tree.EnclosingInstruction(h)
	if instr == nil {
		return HeredocKindUnknown
	}
	switch instr.Name() {
	case "RUN":
		return HeredocKindScript
	case "COPY", "ADD":
		return HeredocKindInlineSource
	}
	return HeredocKindUnknown
}

// parseHeredoc parses the heredocs whose first marker starts at p.pos,
// optionally after a file descriptor number. The returned expression covers
// the markers, the rest of the opener line and every body up to the last
// terminator line. It returns nil, without consuming anything, when p.pos
// does not start a heredoc.
func (p *parser) parseHeredoc() *tree.Heredoc {
	lineStart := strings.LastIndexByte(p.text[:p.pos], '\n') + 1
	lineEnd := p.lineEnd()
	line := p.text[lineStart:lineEnd]
	rel := p.pos - lineStart

	var markers [][]int
	for _, m := range heredocMarkers(line, p.escape) {
		if m[0] >= rel {
			markers = append(markers, m)
		}
	}
	if len(markers) == 0 || strings.Trim(line[rel:markers[0][0]], "0123456789") != "" {
		return nil
	}

	docs := make([]*tree.HeredocDocument, len(markers))
	for i, m := range markers {
		docs[i] = &tree.HeredocDocument{
			Name:   markerName(line, m),
			Chomp:  m[3] > m[2],
			Expand: m[4] < 0 && m[6] < 0,
		}
	}

	// Locate the body lines and the terminator of each document.
	bodies := make([][]span, len(docs))
	var terminators []span
	end := lineEnd
	cursor := p.nextLine(lineEnd)
	for i, d := range docs {
		for cursor < len(p.text) {
			le := p.lineEndFrom(cursor)
			candidate := p.text[cursor:le]
			if d.Chomp {
				candidate = strings.TrimLeft(candidate, "\t")
			}
			end = le
			if candidate == d.Name {
				terminators = append(terminators, span{cursor, le})
				cursor = p.nextLine(le)
				break
			}
			bodies[i] = append(bodies[i], span{cursor, le})
			cursor = p.nextLine(le)
		}
	}

	start := p.pos
	tok, starts := p.segmentedToken(start, end)
	p.pos = end

	// Blank the decoration so that only content remains, keeping columns.
	blanked := []byte(tok.Value)
	blank := func(s, e int) {
		for i := s - start; i < e-start; i++ {
			blanked[i] = ' '
		}
	}
	blank(start, lineStart+markers[0][0])
	for _, m := range markers {
		blank(lineStart+m[0], lineStart+m[1])
	}
	for _, t := range terminators {
		blank(t.start, t.end)
	}

	sub := &parser{
		text:   string(blanked),
		escape: p.escape,
		expand: true,
		ranges: &compoundRanges{segments: tok.Range.Parts(), starts: starts},
	}
	h := &tree.Heredoc{Token: tok, Documents: docs}
	h.Trailing = sub.parseArgs()

	sub.escape = DefaultEscape
	for i, d := range docs {
		sub.expand = d.Expand
		for _, b := range bodies[i] {
			sub.pos = b.start - start
			if args := sub.parseArgs(); len(args) > 0 {
				d.Lines = append(d.Lines, args)
			}
		}
	}
	return h
}

// lineEndFrom returns the end of the line containing index i.
func (p *parser) lineEndFrom(i int) int {
	for !p.eolAt(i) {
		i++
	}
	return i
}

// nextLine returns the start of the line after the line ending at end.
func (p *parser) nextLine(end int) int {
	if end < len(p.text) && p.text[end] == '\r' {
		end++
	}
	if end < len(p.text) && p.text[end] == '\n' {
		end++
	}
	return end
}
