// Package reporter writes lint results as text, JSON, SARIF, GitHub Actions
// annotations or markdown.
//
// Every format works from the same model: a violation points at one or
// more spans of a file and may carry the argument values that matched.
// Formats that can show several regions show each span; the others point
// at the first one.
package reporter

import (
	"cmp"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/wharflab/docksift/internal/rules"
)

const (
	defaultToolName = "docksift"
	defaultToolURI  = "https://github.com/wharflab/docksift"
)

// ReportMetadata describes the run a report covers.
type ReportMetadata struct {
	FilesScanned int
	// RulesEnabled counts the rules that were not off.
	RulesEnabled int
}

// Reporter writes the violations of a run. sources maps file paths to
// their content, for formats that quote the source.
type Reporter interface {
	Report(violations []rules.Violation, sources map[string][]byte, metadata ReportMetadata) error
}

type Format string

const (
	FormatText          Format = "text"
	FormatJSON          Format = "json"
	FormatSARIF         Format = "sarif"
	FormatGitHubActions Format = "github-actions"
	FormatMarkdown      Format = "markdown"
)

// formats lists every output format with the extra names it is accepted
// under and how to build its reporter from resolved options.
var formats = []struct {
	format  Format
	aliases []string
	build   func(Options) Reporter
}{
	{FormatText, []string{""}, func(o Options) Reporter {
		return &textReporterAdapter{
			reporter: NewTextReporter(TextOptions{Color: o.Color, ShowSource: o.ShowSource, SyntaxHighlight: true}),
			writer:   o.Writer,
		}
	}},
	{FormatJSON, nil, func(o Options) Reporter {
		return NewJSONReporter(o.Writer, o.ToolName, o.ToolVersion)
	}},
	{FormatSARIF, nil, func(o Options) Reporter {
		r := NewSARIFReporter(o.Writer, o.ToolName, o.ToolVersion, o.ToolURI)
		if o.Registry != nil {
			r.registry = o.Registry
		}
		return r
	}},
	{FormatGitHubActions, []string{"github"}, func(o Options) Reporter {
		return NewGitHubActionsReporter(o.Writer)
	}},
	{FormatMarkdown, []string{"md"}, func(o Options) Reporter {
		return NewMarkdownReporter(o.Writer)
	}},
}

// Formats lists the format names in the order they are documented.
func Formats() []Format {
	out := make([]Format, 0, len(formats))
	for _, f := range formats {
		out = append(out, f.format)
	}
	return out
}

// ParseFormat accepts a format name or alias in any case.
func ParseFormat(s string) (Format, error) {
	name := strings.ToLower(s)
	for _, f := range formats {
		if string(f.format) == name || slices.Contains(f.aliases, name) {
			return f.format, nil
		}
	}
	names := make([]string, 0, len(formats))
	for _, f := range formats {
		names = append(names, string(f.format))
	}
	return "", fmt.Errorf("unknown format: %q (valid: %s)", s, strings.Join(names, ", "))
}

type Options struct {
	Format Format
	Writer io.Writer

	// Color forces colored text output on or off. nil detects it from the
	// environment.
	Color *bool
	// ShowSource prints source snippets in text output.
	ShowSource bool

	ToolName    string
	ToolVersion string
	ToolURI     string

	// Registry supplies rule descriptors for SARIF. nil means the default
	// registry.
	Registry *rules.Registry
}

func DefaultOptions() Options {
	return Options{
		Format:      FormatText,
		Writer:      os.Stdout,
		ShowSource:  true,
		ToolName:    defaultToolName,
		ToolURI:     defaultToolURI,
		ToolVersion: "dev",
	}
}

// New returns the reporter for opts.Format. Empty options fall back to
// stdout and the docksift tool identity.
func New(opts Options) (Reporter, error) {
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}
	opts.ToolName = cmp.Or(opts.ToolName, defaultToolName)
	opts.ToolURI = cmp.Or(opts.ToolURI, defaultToolURI)

	for _, f := range formats {
		if f.format == opts.Format || (opts.Format == "" && slices.Contains(f.aliases, "")) {
			return f.build(opts), nil
		}
	}
	return nil, fmt.Errorf("unknown format: %q", opts.Format)
}

type textReporterAdapter struct {
	reporter *TextReporter
	writer   io.Writer
}

func (a *textReporterAdapter) Report(violations []rules.Violation, sources map[string][]byte, metadata ReportMetadata) error {
	if err := a.reporter.Print(a.writer, violations, sources); err != nil {
		return err
	}
	return a.reporter.PrintSummary(a.writer, violations, metadata)
}

// GetWriter opens the destination named by path: "stdout" (or empty),
// "stderr" or a file, which it creates. The returned func closes it.
func GetWriter(path string) (io.Writer, func() error, error) {
	switch path {
	case "stdout", "":
		return os.Stdout, func() error { return nil }, nil
	case "stderr":
		return os.Stderr, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}

// byFile groups sorted violations by slash-separated file path. files
// keeps the order the files first appear in.
func byFile(violations []rules.Violation) (files []string, grouped map[string][]rules.Violation) {
	grouped = make(map[string][]rules.Violation)
	for _, v := range rules.SortViolations(violations) {
		v.Location.File = toSlash(v.Location.File)
		if _, ok := grouped[v.Location.File]; !ok {
			files = append(files, v.Location.File)
		}
		grouped[v.Location.File] = append(grouped[v.Location.File], v)
	}
	return files, grouped
}

// lookupSource finds the source of a slash-normalized file path.
func lookupSource(sources map[string][]byte, file string) []byte {
	if src, ok := sources[file]; ok {
		return src
	}
	for path, src := range sources {
		if toSlash(path) == file {
			return src
		}
	}
	return nil
}

func toSlash(path string) string {
	return strings.ReplaceAll(path, "\\", "/")
}

// spanText returns the source text of s, joining the lines it covers.
// Columns past the end of a line are clamped.
func spanText(source []byte, s rules.Span) string {
	if len(source) == 0 || s.Start.Line < 1 {
		return ""
	}
	lines := strings.Split(string(source), "\n")
	if s.Start.Line > len(lines) {
		return ""
	}
	var b strings.Builder
	for l := s.Start.Line; l <= min(s.End.Line, len(lines)); l++ {
		line := strings.TrimSuffix(lines[l-1], "\r")
		from, to := 0, len(line)
		if l == s.Start.Line {
			from = min(s.Start.Column, len(line))
		}
		if l == s.End.Line {
			to = min(s.End.Column, len(line))
		}
		if l > s.Start.Line {
			if l == s.End.Line && to == 0 {
				break
			}
			b.WriteByte('\n')
		}
		if from < to {
			b.WriteString(line[from:to])
		}
	}
	return b.String()
}
