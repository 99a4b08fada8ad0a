package directive

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/wharflab/docksift/internal/tree"
)

// form is one comment syntax. rules and global index submatches; global is
// 0 when the syntax is always file-wide.
type form struct {
	syntax Syntax
	re     *regexp.Regexp
	global int
	rules  int
}

var forms = []form{
	{SyntaxDocksift, regexp.MustCompile(`(?i)^#\s*docksift\s+(global\s+)?ignore\s*=(.*)$`), 1, 2},
	{SyntaxHadolint, regexp.MustCompile(`(?i)^#\s*hadolint\s+(global\s+)?ignore\s*=(.*)$`), 1, 2},
	{SyntaxBuildx, regexp.MustCompile(`(?i)^#\s*check\s*=\s*skip\s*=(.*)$`), 0, 1},
}

var (
	reasonRE   = regexp.MustCompile(`(?i)[;\s]\s*reason\s*=`)
	ruleCodeRE = regexp.MustCompile(`^[A-Za-z0-9_./*-]+$`)

	errEmptyRules = errors.New("empty rule list")
)

// RuleValidator reports whether a rule code as written in a directive is
// known.
type RuleValidator func(code string) bool

// Parse reads the directives among file's comments. With a validator,
// directives naming unknown rules are kept and also reported as errors.
func Parse(file *tree.File, known RuleValidator) *Result {
	res := &Result{}
	if file == nil {
		return res
	}
	instructions := file.Instructions()

	for _, c := range file.Comments {
		text := strings.TrimSpace(c.Text)
		for _, f := range forms {
			m := f.re.FindStringSubmatch(text)
			if m == nil {
				continue
			}
			d, err := f.directive(c, m, instructions)
			if err != nil {
				res.Errors = append(res.Errors, commentError(c, err.Error()))
			} else {
				if unknown := unknownRules(d.Rules, known); len(unknown) > 0 {
					res.Errors = append(res.Errors, commentError(c, "unknown rule code(s): "+strings.Join(unknown, ", ")))
				}
				res.Directives = append(res.Directives, d)
			}
			break
		}
	}
	return res
}

func (f form) directive(c tree.Comment, m []string, instructions []tree.Instruction) (Directive, error) {
	list, reason := splitReason(m[f.rules])
	codes, err := splitRules(list)
	if err != nil {
		return Directive{}, err
	}
	d := Directive{
		Scope:  ScopeFile,
		Syntax: f.syntax,
		Rules:  codes,
		Reason: reason,
		Line:   c.Start.Line,
		Range:  c.TextRange(),
		Lines:  AllLines,
		Text:   c.Text,
	}
	if f.global > 0 && strings.TrimSpace(m[f.global]) == "" {
		d.Scope = ScopeNextLine
		d.Lines = linesAfter(c.Start.Line, instructions)
	}
	return d, nil
}

func commentError(c tree.Comment, msg string) Error {
	return Error{Line: c.Start.Line, Range: c.TextRange(), Message: msg, Text: c.Text}
}

func unknownRules(codes []string, known RuleValidator) []string {
	if known == nil {
		return nil
	}
	var out []string
	for _, code := range codes {
		if !strings.EqualFold(code, "all") && !known(code) {
			out = append(out, code)
		}
	}
	return out
}

// splitReason cuts a trailing reason off the rule list. Other ;key=value
// settings, like buildx's ;error=true, are dropped.
func splitReason(s string) (list, reason string) {
	if loc := reasonRE.FindStringIndex(s); loc != nil {
		reason = strings.TrimSpace(s[loc[1]:])
		s = s[:loc[0]]
	}
	list, _, _ = strings.Cut(s, ";")
	return strings.TrimSpace(list), reason
}

// splitRules parses a comma-separated list of rule codes. Empty entries
// are skipped but at least one code is required.
func splitRules(s string) ([]string, error) {
	var codes []string
	for part := range strings.SplitSeq(s, ",") {
		code := strings.TrimSpace(part)
		switch {
		case code == "":
			continue
		case !ruleCodeRE.MatchString(code):
			return nil, fmt.Errorf("invalid rule code %q", code)
		}
		codes = append(codes, code)
	}
	if len(codes) == 0 {
		return nil, errEmptyRules
	}
	return codes, nil
}

// linesAfter returns the lines a next-line directive on line covers: the
// next instruction, or the rest of the instruction the comment sits in.
func linesAfter(line int, instructions []tree.Instruction) Lines {
	for _, in := range instructions {
		r := in.TextRange()
		first, last := r.Start.Line, r.End.Line
		// An exclusive end at column 0 stops before that line.
		if r.End.Column == 0 && last > first {
			last--
		}
		switch {
		case first > line:
			return Lines{First: first, Last: last}
		case line < last:
			return Lines{First: line + 1, Last: last}
		}
	}
	return NoLines
}
