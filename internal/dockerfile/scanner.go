package dockerfile

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/moby/buildkit/util/suggest"

	"github.com/wharflab/docksift/internal/sourcemap"
	"github.com/wharflab/docksift/internal/tree"
)

// rangeStrategy computes the original-source range of text[start:end].
// It also returns the offset, relative to start, at which each range
// segment begins.
type rangeStrategy interface {
	span(start, end int) (tree.TextRange, []int)
}

// translatorRanges maps processed text through the offset translator. Calls
// must come with non-decreasing start indices.
type translatorRanges struct {
	text string
	sm   *sourcemap.SourceMap
	tr   *sourcemap.Translator
}

func (t *translatorRanges) span(start, end int) (tree.TextRange, []int) {
	if start == end {
		l, c := t.sm.Position(t.tr.AdjustIndex(start))
		return tree.NewRange(l+1, c, l+1, c), []int{0}
	}

	var (
		segments []tree.TextRange
		starts   []int
		first    = -1
		last     int
		valStart int
		// lineBegin is the index of the physical line that has not produced
		// a character yet, or -1.
		lineBegin = -1
	)
	flush := func() {
		if first < 0 {
			return
		}
		l1, c1 := t.sm.Position(first)
		l2, c2 := t.sm.Position(last)
		segments = append(segments, tree.NewRange(l1+1, c1, l2+1, c2+1))
		starts = append(starts, valStart)
		first = -1
	}
	for i := start; i < end; i++ {
		switch t.text[i] {
		case '\n':
			flush()
			if lineBegin >= 0 {
				l, c := t.sm.Position(t.tr.AdjustIndex(lineBegin))
				segments = append(segments, tree.NewRange(l+1, c, l+1, c))
				starts = append(starts, lineBegin-start)
			}
			lineBegin = i + 1
			continue
		case '\r':
			if i+1 == end || t.text[i+1] == '\n' {
				continue
			}
		}
		lineBegin = -1
		orig := t.tr.AdjustIndex(i)
		if first >= 0 && orig != last+1 {
			flush()
		}
		if first < 0 {
			first, valStart = orig, i-start
		}
		last = orig
	}
	flush()
	return tree.NewCompoundRange(segments), starts
}

// compoundRanges maps offsets inside a token value through the token's
// compound range: an offset becomes the start of its segment plus a column
// delta. Spans never cross segments.
type compoundRanges struct {
	segments []tree.TextRange
	starts   []int
}

func (c *compoundRanges) pointer(offset int) tree.TextPointer {
	k := 0
	for k+1 < len(c.starts) && c.starts[k+1] <= offset {
		k++
	}
	start := c.segments[k].Start
	return tree.TextPointer{Line: start.Line, Column: start.Column + offset - c.starts[k]}
}

func (c *compoundRanges) span(start, end int) (tree.TextRange, []int) {
	s := c.pointer(start)
	return tree.TextRange{
		Start: s,
		End:   tree.TextPointer{Line: s.Line, Column: s.Column + end - start},
	}, []int{0}
}

// parser is a recursive-descent parser over one line-oriented text. The
// top-level parser runs over preprocessed text; heredoc sub-parsers run over
// a heredoc token value with a compound range strategy.
type parser struct {
	text   string
	pos    int
	escape byte
	// expand enables variable recognition.
	expand bool
	ranges rangeStrategy

	pre      *Preprocessed
	comments []tree.Comment
	next     int
}

func newParser(pre *Preprocessed) *parser {
	return &parser{
		text:   pre.Text,
		escape: byte(pre.Escape),
		expand: true,
		ranges: &translatorRanges{
			text: pre.Text,
			sm:   pre.SourceMap,
			tr:   pre.NewTranslator(),
		},
		pre:      pre,
		comments: pre.Comments,
	}
}

// token creates a token for text[start:end] and attaches the comments that
// precede it.
func (p *parser) token(start, end int) *tree.Token {
	tok, _ := p.segmentedToken(start, end)
	return tok
}

// segmentedToken is token that also reports where each range segment starts
// within the token value.
func (p *parser) segmentedToken(start, end int) (*tree.Token, []int) {
	r, starts := p.ranges.span(start, end)
	tok := &tree.Token{Value: p.text[start:end], Range: r}
	for p.next < len(p.comments) && p.comments[p.next].Start.Before(r.Start) {
		tok.Comments = append(tok.Comments, p.comments[p.next])
		p.next++
	}
	return tok, starts
}

// errorf builds a ParseError located at processed index pos.
func (p *parser) errorf(pos int, format string, args ...any) error {
	err := &ParseError{Detail: fmt.Sprintf(format, args...)}
	if p.pre != nil {
		err.Line, err.Column = p.pre.NewTranslator().SourceLineAndColumnAt(pos)
	}
	return err
}

var instructionNames = slices.Sorted(maps.Keys(knownInstructions))

func (p *parser) unknownInstruction(pos int, keyword string) error {
	if match, ok := suggest.Search(strings.ToLower(keyword), instructionNames, true); ok {
		return p.errorf(pos, "unknown instruction: %s (did you mean %s?)", keyword, strings.ToUpper(match))
	}
	return p.errorf(pos, "unknown instruction: %s", keyword)
}

func (p *parser) eolAt(i int) bool {
	if i >= len(p.text) {
		return true
	}
	switch p.text[i] {
	case '\n':
		return true
	case '\r':
		return i+1 >= len(p.text) || p.text[i+1] == '\n'
	}
	return false
}

func (p *parser) atEOL() bool { return p.eolAt(p.pos) }

func (p *parser) skipEOL() {
	if p.pos < len(p.text) && p.text[p.pos] == '\r' {
		p.pos++
	}
	if p.pos < len(p.text) && p.text[p.pos] == '\n' {
		p.pos++
	}
}

// lineEnd returns the index of the end of the current line.
func (p *parser) lineEnd() int {
	i := p.pos
	for !p.eolAt(i) {
		i++
	}
	return i
}

func isBlankByte(c byte) bool { return c == ' ' || c == '\t' }

func (p *parser) skipBlanks() {
	for p.pos < len(p.text) && isBlankByte(p.text[p.pos]) {
		p.pos++
	}
}

// atWordEnd reports whether a word stops at i.
func (p *parser) atWordEnd(i, limit int, untilEOL bool) bool {
	if i >= limit || p.eolAt(i) {
		return true
	}
	return !untilEOL && isBlankByte(p.text[i])
}

// parseArgs parses whitespace-separated words up to the end of the line.
func (p *parser) parseArgs() []*tree.Argument {
	var args []*tree.Argument
	limit := p.lineEnd()
	for p.skipBlanks(); !p.atEOL(); p.skipBlanks() {
		args = append(args, p.parseWord(limit, false))
	}
	return args
}

// parseWord parses one word ending at whitespace, or at limit when untilEOL
// is set. The word is never empty unless p.pos is already at its end, in
// which case a zero-width literal is returned.
func (p *parser) parseWord(limit int, untilEOL bool) *tree.Argument {
	arg := &tree.Argument{}
	litStart := -1
	flush := func() {
		if litStart >= 0 && litStart < p.pos {
			arg.Expressions = append(arg.Expressions, &tree.Literal{Token: p.token(litStart, p.pos)})
		}
		litStart = -1
	}
	for !p.atWordEnd(p.pos, limit, untilEOL) {
		c := p.text[p.pos]
		switch {
		case c == p.escape:
			if litStart < 0 {
				litStart = p.pos
			}
			p.pos++
			if !p.atWordEnd(p.pos, limit, true) {
				p.pos++
			}
		case c == '\'' || c == '"':
			flush()
			arg.Expressions = append(arg.Expressions, p.parseQuoted(limit))
		case c == '$' && p.expand:
			if v, end := p.scanVariable(limit); v != nil {
				flush()
				v.Token = p.token(p.pos, end)
				p.pos = end
				arg.Expressions = append(arg.Expressions, v)
				continue
			}
			if litStart < 0 {
				litStart = p.pos
			}
			p.pos++
		default:
			if litStart < 0 {
				litStart = p.pos
			}
			p.pos++
		}
	}
	flush()
	if len(arg.Expressions) == 0 {
		arg.Expressions = append(arg.Expressions, &tree.Literal{Token: p.token(p.pos, p.pos)})
	}
	return arg
}

// parseQuoted parses a quoted string starting at p.pos. An unterminated
// string ends at the end of the line with a nil Close token.
func (p *parser) parseQuoted(limit int) *tree.QuotedString {
	quote := p.text[p.pos]
	q := &tree.QuotedString{Quote: quote, Open: p.token(p.pos, p.pos+1)}
	p.pos++

	if quote == '\'' {
		start := p.pos
		for p.pos < limit && !p.atEOL() && p.text[p.pos] != '\'' {
			p.pos++
		}
		if p.pos > start {
			q.Parts = append(q.Parts, &tree.Literal{Token: p.token(start, p.pos)})
		}
	} else {
		litStart := -1
		flush := func() {
			if litStart >= 0 && litStart < p.pos {
				q.Parts = append(q.Parts, &tree.Literal{Token: p.token(litStart, p.pos)})
			}
			litStart = -1
		}
	loop:
		for p.pos < limit && !p.atEOL() {
			switch c := p.text[p.pos]; {
			case c == '"':
				break loop
			case c == p.escape:
				if litStart < 0 {
					litStart = p.pos
				}
				p.pos++
				if p.pos < limit && !p.atEOL() {
					p.pos++
				}
			case c == '$' && p.expand:
				if v, end := p.scanVariable(limit); v != nil {
					flush()
					v.Token = p.token(p.pos, end)
					p.pos = end
					q.Parts = append(q.Parts, v)
					continue
				}
				if litStart < 0 {
					litStart = p.pos
				}
				p.pos++
			default:
				if litStart < 0 {
					litStart = p.pos
				}
				p.pos++
			}
		}
		flush()
	}

	if p.pos < limit && !p.atEOL() && p.text[p.pos] == quote {
		q.Close = p.token(p.pos, p.pos+1)
		p.pos++
	}
	return q
}

// modifiers are the ${NAME<modifier>word} operators, longest first.
var modifiers = []string{":-", ":+", ":?", "##", "%%", "//", "-", "+", "?", "#", "%", "/"}

func isNameStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameByte(c byte) bool {
	return isNameStart(c) || (c >= '0' && c <= '9')
}

// scanVariable recognizes a variable reference at p.pos, which holds '$',
// and returns it with the index where it ends. It returns nil when the '$'
// does not start a reference. The token is left to the caller.
func (p *parser) scanVariable(limit int) (*tree.Variable, int) {
	i := p.pos + 1
	if i >= limit || p.eolAt(i) {
		return nil, 0
	}
	v := &tree.Variable{}
	switch c := p.text[i]; {
	case c == '{':
		depth := 1
		j := i + 1
		for ; j < limit && !p.eolAt(j); j++ {
			if p.text[j] == '{' {
				depth++
			} else if p.text[j] == '}' {
				depth--
				if depth == 0 {
					break
				}
			}
		}
		if j >= limit || p.eolAt(j) {
			return nil, 0
		}
		inner := p.text[i+1 : j]
		n := 0
		for n < len(inner) && isNameByte(inner[n]) {
			n++
		}
		v.Braced = true
		v.Name = inner[:n]
		if rest := inner[n:]; rest != "" {
			for _, m := range modifiers {
				if strings.HasPrefix(rest, m) {
					v.Modifier, v.Word = m, rest[len(m):]
					break
				}
			}
			if v.Modifier == "" {
				v.Name = inner
			}
		}
		return v, j + 1
	case isNameStart(c):
		j := i + 1
		for j < limit && isNameByte(p.text[j]) {
			j++
		}
		v.Name = p.text[i:j]
		return v, j
	case c >= '0' && c <= '9':
		v.Name = p.text[i : i+1]
		return v, i + 1
	}
	return nil, 0
}
