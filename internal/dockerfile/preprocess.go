package dockerfile

import (
	"cmp"
	"maps"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/moby/buildkit/frontend/dockerfile/command"

	"github.com/wharflab/docksift/internal/sourcemap"
	"github.com/wharflab/docksift/internal/tree"
)

const (
	// DefaultEscape is the escape character used unless a parser directive
	// selects another one.
	DefaultEscape = '\\'

	// DirectivePrefix is the unofficial build-directive prefix that may precede
	// an instruction keyword, as in "@RUN". It is removed before parsing.
	DirectivePrefix = "@"

	bom = "\ufeff"
)

// Preprocessed is the result of preprocessing one Dockerfile.
type Preprocessed struct {
	// Text is the processed text handed to the parser.
	Text string
	// Comments are the removed comments, ordered by original line.
	Comments []tree.Comment
	// Breakpoints record every deletion, in order.
	Breakpoints []sourcemap.Breakpoint
	// Escape is the active escape character.
	Escape rune
	// Source is the original text without a leading byte-order mark.
	Source string
	// SourceMap is the line table over Source.
	SourceMap *sourcemap.SourceMap
	// HasBOM is set when a byte-order mark was stripped from the input.
	HasBOM bool
}

// NewTranslator returns a fresh translator from Text indices to Source
// positions.
func (p *Preprocessed) NewTranslator() *sourcemap.Translator {
	return sourcemap.NewTranslator(p.SourceMap, p.Breakpoints)
}

// CommentAt returns the comment starting on the given 1-based line.
func (p *Preprocessed) CommentAt(line int) (tree.Comment, bool) {
	i, found := slices.BinarySearchFunc(p.Comments, line, func(c tree.Comment, l int) int {
		return cmp.Compare(c.Start.Line, l)
	})
	if !found {
		return tree.Comment{}, false
	}
	return p.Comments[i], true
}

// LineSeparator returns the line separator of the original source.
func (p *Preprocessed) LineSeparator() string {
	return p.SourceMap.LineSeparator()
}

var (
	// Same shape as BuildKit's parser directive regex.
	reDirective = regexp.MustCompile(`^#\s*([a-zA-Z][a-zA-Z0-9]*)\s*=\s*(.+?)\s*$`)

	reHeredocMarker = regexp.MustCompile(`<<(-?)(?:"([A-Za-z_]\w*)"|'([A-Za-z_]\w*)'|([A-Za-z_]\w*))`)

	// removalPatterns caches one compiled pattern per escape character.
	removalPatterns sync.Map
)

// keywordAlternation lists instruction keywords, longest first.
var keywordAlternation = func() string {
	keys := slices.Collect(maps.Keys(command.Commands))
	slices.SortFunc(keys, func(a, b string) int {
		if c := cmp.Compare(len(b), len(a)); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	return strings.Join(keys, "|")
}()

// removalPattern returns the compiled deletion pattern for escape. It
// recognizes four kinds of removable sequences:
//
//	cont     an escaped line break plus following blank and comment lines
//	comment  a comment-only line
//	blank    a blank line
//	prefix   the directive prefix before an instruction keyword
func removalPattern(escape rune) *regexp.Regexp {
	if re, ok := removalPatterns.Load(escape); ok {
		return re.(*regexp.Regexp)
	}
	e := regexp.QuoteMeta(string(escape))
	re := regexp.MustCompile(`(?m)` +
		`(?P<cont>` + e + `[ \t]*(?:\r?\n|\z)(?:[ \t]*(?:#[^\r\n]*)?\r?\n)*)` +
		`|(?P<comment>^[ \t]*#[^\r\n]*(?:\r?\n|\z))` +
		`|(?P<blank>^[ \t]*\r?\n)` +
		`|^[ \t]*(?P<prefix>` + regexp.QuoteMeta(DirectivePrefix) + `)(?i:` + keywordAlternation + `)(?:[ \t]|\r?\n)`)
	actual, _ := removalPatterns.LoadOrStore(escape, re)
	return actual.(*regexp.Regexp)
}

// Preprocess removes line continuations, comment-only lines, blank lines and
// directive prefixes from source, recording what it removed so positions in
// the processed text can be mapped back.
func Preprocess(source string) *Preprocessed {
	p := &Preprocessed{Escape: DefaultEscape}
	if strings.HasPrefix(source, bom) {
		source = source[len(bom):]
		p.HasBOM = true
	}
	p.Source = source
	p.SourceMap = sourcemap.New([]byte(source))
	p.Escape = detectEscape(source)

	re := removalPattern(p.Escape)
	groups := re.SubexpNames()
	protected := heredocBodies(source, byte(p.Escape))

	var (
		b     strings.Builder
		prev  int
		shift int
	)
	b.Grow(len(source))
	for _, m := range re.FindAllStringSubmatchIndex(source, -1) {
		start, end, kind := -1, -1, ""
		for g := 1; g < len(groups); g++ {
			if m[2*g] >= 0 {
				start, end, kind = m[2*g], m[2*g+1], groups[g]
				break
			}
		}
		if start < 0 || start == end || intersects(protected, m[0], m[1]) {
			continue
		}
		if kind == "cont" || kind == "comment" {
			p.Comments = append(p.Comments, collectComments(p.SourceMap, source, start, end)...)
		}
		b.WriteString(source[prev:start])
		p.Breakpoints = append(p.Breakpoints, sourcemap.Breakpoint{
			ProcessedIndex: start - shift,
			Shift:          shift + end - start,
		})
		shift += end - start
		prev = end
	}
	b.WriteString(source[prev:])
	p.Text = b.String()
	return p
}

// detectEscape reads the leading parser directives and returns the escape
// character they select. Detection stops at the first line that is not a
// parser directive.
func detectEscape(source string) rune {
	escape := rune(DefaultEscape)
	for line := range strings.Lines(source) {
		m := reDirective.FindStringSubmatch(strings.TrimRight(line, "\r\n"))
		if m == nil {
			break
		}
		if strings.EqualFold(m[1], "escape") {
			switch m[2] {
			case "`":
				escape = '`'
			case `\`:
				escape = '\\'
			}
		}
	}
	return escape
}

// collectComments records every comment line inside source[start:end].
func collectComments(sm *sourcemap.SourceMap, source string, start, end int) []tree.Comment {
	var out []tree.Comment
	offset := start
	for line := range strings.Lines(source[start:end]) {
		lineStart := offset
		offset += len(line)
		text := strings.TrimRight(line, "\r\n")
		trimmed := strings.TrimLeft(text, " \t")
		if !strings.HasPrefix(trimmed, "#") {
			continue
		}
		l, c := sm.Position(lineStart + len(text) - len(trimmed))
		out = append(out, tree.NewComment(trimmed, tree.TextPointer{Line: l + 1, Column: c}))
	}
	return out
}

type span struct{ start, end int }

func intersects(spans []span, start, end int) bool {
	for _, s := range spans {
		if start < s.end && s.start < end {
			return true
		}
	}
	return false
}

// heredocBodies finds the body of every heredoc in source: the lines after
// an opener up to and including the terminator line.
func heredocBodies(source string, escape byte) []span {
	type pending struct {
		name  string
		chomp bool
	}
	var (
		spans  []span
		queue  []pending
		start  int
		offset int
	)
	for line := range strings.Lines(source) {
		offset += len(line)
		text := strings.TrimRight(line, "\r\n")

		if len(queue) > 0 {
			candidate := text
			if queue[0].chomp {
				candidate = strings.TrimLeft(candidate, "\t")
			}
			if candidate == queue[0].name {
				queue = queue[1:]
				if len(queue) == 0 {
					spans = append(spans, span{start: start, end: offset})
				}
			}
			continue
		}

		if strings.HasPrefix(strings.TrimLeft(text, " \t"), "#") {
			continue
		}
		for _, m := range heredocMarkers(text, escape) {
			queue = append(queue, pending{name: markerName(text, m), chomp: m[3] > m[2]})
		}
		if len(queue) > 0 {
			start = offset
		}
	}
	if len(queue) > 0 {
		spans = append(spans, span{start: start, end: len(source)})
	}
	return spans
}

// heredocMarkers returns the submatch indices of the heredoc markers in one
// line. A marker must stand alone as a word, optionally preceded by a file
// descriptor number, and must not sit inside a quoted string.
func heredocMarkers(text string, escape byte) [][]int {
	var (
		out   [][]int
		pos   int
		quote byte
	)
	for _, m := range reHeredocMarker.FindAllStringSubmatchIndex(text, -1) {
		if m[0] < pos {
			continue
		}
		for ; pos < m[0]; pos++ {
			switch c := text[pos]; {
			case quote == '\'':
				if c == '\'' {
					quote = 0
				}
			case c == escape:
				pos++
			case quote == '"':
				if c == '"' {
					quote = 0
				}
			case c == '\'' || c == '"':
				quote = c
			}
		}
		if quote != 0 || pos > m[0] {
			continue
		}
		before := strings.TrimRight(text[:m[0]], "0123456789")
		if before != "" && !isBlank(before[len(before)-1]) {
			continue
		}
		if m[1] < len(text) && !isBlank(text[m[1]]) {
			continue
		}
		out = append(out, m)
		pos = m[1]
	}
	return out
}

func isBlank(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

func markerName(text string, m []int) string {
	for g := 2; g <= 4; g++ {
		if m[2*g] >= 0 {
			return text[m[2*g]:m[2*g+1]]
		}
	}
	return ""
}
