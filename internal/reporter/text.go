package reporter

// Text output follows BuildKit's lint format, styled with Lip Gloss.

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/muesli/termenv"

	"github.com/wharflab/docksift/internal/rules"
	"github.com/wharflab/docksift/internal/sourcemap"
)

var (
	// termenv honors NO_COLOR and CLICOLOR_FORCE.
	useColors = termenv.EnvColorProfile() != termenv.Ascii

	ruleCodeStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	urlStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Underline(true)
	messageStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	detailStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	evidenceStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("180"))
	fixStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Italic(true)
	fileLocStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	lineNumStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	separatorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	markerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	keywordStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("204"))
	summaryStyle   = lipgloss.NewStyle().Bold(true)
)

const (
	plainSeparator  = "--------------------"
	styledSeparator = "────────────────────"
)

type TextOptions struct {
	// Color forces styling on or off. nil detects it from the environment.
	Color *bool
	// SyntaxHighlight styles instruction keywords in snippets.
	SyntaxHighlight bool
	ShowSource      bool
}

func DefaultTextOptions() TextOptions {
	return TextOptions{SyntaxHighlight: true, ShowSource: true}
}

// TextReporter prints violations for a terminal.
type TextReporter struct {
	opts  TextOptions
	color bool
}

func NewTextReporter(opts TextOptions) *TextReporter {
	color := useColors
	if opts.Color != nil {
		color = *opts.Color
	}
	return &TextReporter{opts: opts, color: color}
}

func (r *TextReporter) render(style lipgloss.Style, s string) string {
	if !r.color {
		return s
	}
	return style.Render(s)
}

// Print writes every violation in rules.Compare order.
func (r *TextReporter) Print(w io.Writer, violations []rules.Violation, sources map[string][]byte) error {
	for _, v := range rules.SortViolations(violations) {
		if err := r.printViolation(w, v, lookupSource(sources, toSlash(v.Location.File))); err != nil {
			return err
		}
	}
	return nil
}

// PrintSummary writes the closing count line. A clean run over no files
// prints nothing.
func (r *TextReporter) PrintSummary(w io.Writer, violations []rules.Violation, metadata ReportMetadata) error {
	if len(violations) == 0 && metadata.FilesScanned == 0 {
		return nil
	}

	var line string
	if len(violations) == 0 {
		line = "No problems found in " + plural(metadata.FilesScanned, "file")
	} else {
		files := make(map[string]struct{})
		for _, v := range violations {
			files[v.Location.File] = struct{}{}
		}
		counts := severityCounts(violations)
		var parts []string
		for _, sev := range []rules.Severity{
			rules.SeverityError, rules.SeverityWarning, rules.SeverityInfo, rules.SeverityStyle,
		} {
			switch n := counts[sev]; {
			case n == 0:
			case sev == rules.SeverityInfo:
				parts = append(parts, fmt.Sprintf("%d info", n))
			default:
				parts = append(parts, plural(n, sev.String()))
			}
		}
		line = fmt.Sprintf("Found %s in %s (%s)",
			plural(len(violations), "problem"), plural(len(files), "file"), strings.Join(parts, ", "))
		if metadata.FilesScanned > 0 {
			line += ", " + plural(metadata.FilesScanned, "file") + " scanned"
		}
	}

	_, err := fmt.Fprintf(w, "\n%s\n", r.render(summaryStyle, line))
	return err
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func (r *TextReporter) printViolation(w io.Writer, v rules.Violation, source []byte) error {
	var b strings.Builder

	// SEVERITY: code - url
	fmt.Fprintf(&b, "\n%s %s",
		r.render(levelOf(v.Severity).style, strings.ToUpper(v.Severity.String())+":"),
		r.render(ruleCodeStyle, v.RuleCode))
	if v.DocURL != "" {
		b.WriteString(" - " + r.render(urlStyle, v.DocURL))
	}
	b.WriteString("\n" + r.render(messageStyle, v.Message) + "\n")
	if v.Detail != "" {
		b.WriteString(r.render(detailStyle, v.Detail) + "\n")
	}
	if len(v.Evidence) > 0 {
		b.WriteString(r.render(evidenceStyle, "Matched: "+strings.Join(v.Evidence, " ")) + "\n")
	}
	if v.SuggestedFix != nil && v.SuggestedFix.Description != "" {
		b.WriteString(r.render(fixStyle, "Fix: "+v.SuggestedFix.Description) + "\n")
	}
	if r.opts.ShowSource && !v.Location.IsFileLevel() && len(source) > 0 {
		r.writeSource(&b, v.Location, source)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// markedLines returns the 1-based lines loc touches, in order.
func markedLines(loc rules.Location) []int {
	parts := loc.Parts()
	if parts == nil {
		return []int{loc.Start.Line}
	}
	var lines []int
	for _, s := range parts {
		last := s.End.Line
		if s.End.Column == 0 && s.End.Line > s.Start.Line {
			last--
		}
		for l := s.Start.Line; l <= last; l++ {
			lines = append(lines, l)
		}
	}
	slices.Sort(lines)
	return slices.Compact(lines)
}

// underline marks the bytes of content that parts cover on line. ok is
// false when they cover none.
func underline(parts []rules.Span, line int, content string) (marks []bool, ok bool) {
	marks = make([]bool, len(content))
	for _, s := range parts {
		if line < s.Start.Line || line > s.End.Line {
			continue
		}
		from, to := 0, len(content)
		if line == s.Start.Line {
			from = min(s.Start.Column, len(content))
		}
		if line == s.End.Line {
			to = min(s.End.Column, len(content))
		}
		for i := from; i < to; i++ {
			marks[i] = true
			ok = true
		}
	}
	return marks, ok
}

// writeSource renders the marked lines of loc with a few lines of context,
// underlining the spans.
func (r *TextReporter) writeSource(b *strings.Builder, loc rules.Location, source []byte) {
	sm := sourcemap.New(source)
	marked := markedLines(loc)
	first, last := marked[0], marked[len(marked)-1]

	// Two to four lines of context, shared out around the marked range.
	pad := 2
	if last == first {
		pad = 4
	}
	// The source map counts lines from 0.
	start, end := sm.ContextRange(first-1, last-1, pad)
	if first < 1 || first-1 > end {
		return
	}
	start, end = start+1, end+1

	separator := plainSeparator
	if r.color {
		separator = separatorStyle.Render(styledSeparator)
	}
	b.WriteString("\n" + r.render(fileLocStyle, fmt.Sprintf("%s:%d", loc.File, first)) + "\n")
	b.WriteString(separator + "\n")

	parts := loc.Parts()
	for i := start; i <= end; i++ {
		raw := sm.Line(i - 1)
		gutter := fmt.Sprintf(" %3d |", i)
		if r.color {
			gutter = lineNumStyle.Render(fmt.Sprintf(" %3d │", i))
		}
		marker := "   "
		if _, hit := slices.BinarySearch(marked, i); hit {
			marker = r.render(markerStyle, ">>>")
		}
		content := raw
		if r.color && r.opts.SyntaxHighlight {
			content = highlightKeyword(content)
		}
		fmt.Fprintf(b, "%s %s %s\n", gutter, marker, content)

		if marks, ok := underline(parts, i, raw); ok {
			b.WriteString(r.caretLine(raw, marks) + "\n")
		}
	}
	b.WriteString(separator + "\n")
}

// caretLine puts a caret under every marked byte of content. Tabs before a
// caret are repeated so the carets line up.
func (r *TextReporter) caretLine(content string, marks []bool) string {
	end := len(marks)
	for end > 0 && !marks[end-1] {
		end--
	}
	var pad, carets strings.Builder
	for i := range end {
		switch {
		case marks[i]:
			carets.WriteByte('^')
		case carets.Len() > 0:
			carets.WriteByte(blank(content[i]))
		default:
			pad.WriteByte(blank(content[i]))
		}
	}
	gutter := "     |"
	if r.color {
		gutter = lineNumStyle.Render("     │")
	}
	return gutter + "     " + pad.String() + r.render(markerStyle, carets.String())
}

func blank(c byte) byte {
	if c == '\t' {
		return c
	}
	return ' '
}

// highlightKeyword styles a leading instruction keyword.
func highlightKeyword(line string) string {
	trimmed := strings.TrimLeft(line, " \t")
	indent := line[:len(line)-len(trimmed)]
	if trimmed == "" || trimmed[0] == '#' {
		return line
	}
	word, rest, found := strings.Cut(trimmed, " ")
	if _, ok := instructionKeywords[strings.ToUpper(word)]; !ok {
		return line
	}
	if found {
		rest = " " + rest
	}
	return indent + keywordStyle.Render(word) + rest
}

var instructionKeywords = map[string]struct{}{
	"ADD": {}, "ARG": {}, "CMD": {}, "COPY": {}, "ENTRYPOINT": {}, "ENV": {},
	"EXPOSE": {}, "FROM": {}, "HEALTHCHECK": {}, "LABEL": {}, "MAINTAINER": {},
	"ONBUILD": {}, "RUN": {}, "SHELL": {}, "STOPSIGNAL": {}, "USER": {},
	"VOLUME": {}, "WORKDIR": {},
}

// PrintText prints with DefaultTextOptions.
func PrintText(w io.Writer, violations []rules.Violation, sources map[string][]byte) error {
	return NewTextReporter(DefaultTextOptions()).Print(w, violations, sources)
}

// PrintTextPlain prints without styling, for output that is not a terminal.
func PrintTextPlain(w io.Writer, violations []rules.Violation, sources map[string][]byte) error {
	noColor := false
	return NewTextReporter(TextOptions{Color: &noColor, ShowSource: true}).Print(w, violations, sources)
}
