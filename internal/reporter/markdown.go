package reporter

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/wharflab/docksift/internal/rules"
)

// MarkdownReporter writes compact tables for pull request comments and
// chat-based review. Errors come first. A "Matched" column appears when
// any violation carries evidence.
type MarkdownReporter struct {
	writer io.Writer
}

func NewMarkdownReporter(w io.Writer) *MarkdownReporter {
	return &MarkdownReporter{writer: w}
}

type markdownColumn struct {
	header string
	cell   func(rules.Violation) string
}

func (r *MarkdownReporter) Report(violations []rules.Violation, _ map[string][]byte, _ ReportMetadata) error {
	if len(violations) == 0 {
		_, err := fmt.Fprintln(r.writer, "**No issues found**")
		return err
	}

	sorted := SortViolationsBySeverity(violations)
	files, _ := byFile(sorted)

	var (
		b       strings.Builder
		columns []markdownColumn
	)
	issues := pluralize(len(sorted), "issue", "issues")
	if len(files) == 1 {
		fmt.Fprintf(&b, "**%d %s** in `%s`\n\n", len(sorted), issues, files[0])
	} else {
		fmt.Fprintf(&b, "**%d %s** across %d files\n\n", len(sorted), issues, len(files))
		columns = append(columns, markdownColumn{"File", func(v rules.Violation) string {
			return escapeMarkdown(toSlash(v.Location.File))
		}})
	}
	columns = append(columns,
		markdownColumn{"Line", formatLineNumber},
		markdownColumn{"Rule", func(v rules.Violation) string { return "`" + v.RuleCode + "`" }},
		markdownColumn{"Issue", func(v rules.Violation) string {
			return levelOf(v.Severity).emoji + " " + escapeMarkdown(v.Message)
		}},
	)
	if slices.ContainsFunc(sorted, func(v rules.Violation) bool { return len(v.Evidence) > 0 }) {
		columns = append(columns, markdownColumn{"Matched", formatEvidence})
	}

	writeRow(&b, columns, func(c markdownColumn) string { return c.header })
	for _, c := range columns {
		b.WriteString("|" + strings.Repeat("-", len(c.header)+2))
	}
	b.WriteString("|\n")
	for _, v := range sorted {
		writeRow(&b, columns, func(c markdownColumn) string { return c.cell(v) })
	}

	_, err := io.WriteString(r.writer, b.String())
	return err
}

func writeRow(b *strings.Builder, columns []markdownColumn, cell func(markdownColumn) string) {
	for _, c := range columns {
		b.WriteString("| " + cell(c) + " ")
	}
	b.WriteString("|\n")
}

func formatLineNumber(v rules.Violation) string {
	if v.Location.IsFileLevel() || v.Location.Start.Line <= 0 {
		return "-"
	}
	return strconv.Itoa(v.Location.Start.Line)
}

func formatEvidence(v rules.Violation) string {
	if len(v.Evidence) == 0 {
		return ""
	}
	quoted := make([]string, len(v.Evidence))
	for i, e := range v.Evidence {
		quoted[i] = "`" + escapeMarkdown(strings.ReplaceAll(e, "`", "'")) + "`"
	}
	return strings.Join(quoted, " ")
}

// SortViolationsBySeverity orders errors first, then by rules.Compare. The
// input is not modified.
func SortViolationsBySeverity(violations []rules.Violation) []rules.Violation {
	sorted := slices.Clone(violations)
	slices.SortStableFunc(sorted, func(a, b rules.Violation) int {
		return cmp.Or(cmp.Compare(a.Severity, b.Severity), rules.Compare(a, b))
	})
	return sorted
}

// escapeMarkdown keeps a value inside one table cell.
func escapeMarkdown(s string) string {
	return strings.NewReplacer("|", `\|`, "\r", "", "\n", " ").Replace(s)
}

func pluralize(count int, singular, plural string) string {
	if count == 1 {
		return singular
	}
	return plural
}
