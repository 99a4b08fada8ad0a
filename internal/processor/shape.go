package processor

import (
	"fmt"
	"slices"
	"strings"

	"github.com/wharflab/docksift/internal/rules"
)

// NewPathNormalization rewrites file paths with forward slashes so output
// is the same on every platform.
func NewPathNormalization() Func {
	return Map("path-normalization", func(v rules.Violation, _ *Context) rules.Violation {
		v.Location.File = toSlash(v.Location.File)
		return v
	})
}

// NewSupersession drops warnings and lesser findings whose text an
// error-level finding in the same file already points at. Findings
// elsewhere on the line survive.
func NewSupersession() Func {
	return NewFunc("supersession", func(violations []rules.Violation, _ *Context) []rules.Violation {
		errs := make(map[string][]rules.Location)
		for _, v := range violations {
			if v.Severity == rules.SeverityError && !v.Location.IsFileLevel() {
				errs[v.Location.File] = append(errs[v.Location.File], v.Location)
			}
		}
		if len(errs) == 0 {
			return violations
		}
		return slices.DeleteFunc(slices.Clone(violations), func(v rules.Violation) bool {
			if v.Severity == rules.SeverityError {
				return false
			}
			return slices.ContainsFunc(errs[v.Location.File], v.Location.Overlaps)
		})
	})
}

// NewDeduplication keeps the first of the violations a rule reports at the
// same spans of a file. Two matches of one rule on a line are distinct
// findings when they point at different arguments.
func NewDeduplication() Func {
	return NewFunc("deduplication", func(violations []rules.Violation, _ *Context) []rules.Violation {
		seen := make(map[string]struct{}, len(violations))
		out := make([]rules.Violation, 0, len(violations))
		for _, v := range violations {
			key := fmt.Sprintf("%s\x00%s\x00%v\x00%v",
				toSlash(v.Location.File), v.RuleCode, v.Location.Start, v.Location.Parts())
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, v)
		}
		return out
	})
}

// NewSorting orders violations with rules.Compare.
func NewSorting() Func {
	return NewFunc("sorting", func(violations []rules.Violation, _ *Context) []rules.Violation {
		return rules.SortViolations(violations)
	})
}

// NewSnippetAttachment fills SourceCode with the source lines a violation's
// spans touch. Lines a compound location skips, such as comments inside a
// continued RUN, are left out. Violations that already have a snippet, are
// file-level or belong to a file without source keep SourceCode as is.
func NewSnippetAttachment() Func {
	return Map("snippet-attachment", func(v rules.Violation, ctx *Context) rules.Violation {
		if v.SourceCode != "" || v.Location.IsFileLevel() || ctx == nil {
			return v
		}
		if sm := ctx.GetSourceMap(v.Location.File); sm != nil {
			v.SourceCode = extractSnippet(sm, v.Location)
		}
		return v
	})
}

type lineSource interface {
	LineCount() int
	Line(line int) string
}

// extractSnippet joins the 1-based lines loc touches.
func extractSnippet(src lineSource, loc rules.Location) string {
	var lines []int
	if parts := loc.Parts(); parts != nil {
		for _, s := range parts {
			last := s.End.Line
			if s.End.Column == 0 && s.End.Line > s.Start.Line {
				last--
			}
			for l := s.Start.Line; l <= last; l++ {
				lines = append(lines, l)
			}
		}
	} else {
		lines = append(lines, loc.Start.Line)
	}
	slices.Sort(lines)
	lines = slices.Compact(lines)

	var b strings.Builder
	for _, l := range lines {
		if l < 1 || l > src.LineCount() {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(src.Line(l - 1))
	}
	return b.String()
}
