// Package secretsincode implements secret detection in Dockerfile content.
// This rule scans heredocs, RUN commands, ENV and LABEL values, and ARG
// defaults for actual secrets like API keys, private keys, and credentials.
//
// Variable names are covered by secrets-in-arg-or-env; this rule looks at
// values, using gitleaks' curated pattern database.
package secretsincode

import (
	"strings"
	"sync"

	"github.com/zricethezav/gitleaks/v8/detect"
	"github.com/zricethezav/gitleaks/v8/report"

	"github.com/wharflab/docksift/internal/rules"
	"github.com/wharflab/docksift/internal/tree"
)

var (
	detectorOnce sync.Once
	detector     *detect.Detector
	detectorErr  error
)

// gitleaks returns the shared detector, built on first use.
func gitleaks() (*detect.Detector, error) {
	detectorOnce.Do(func() {
		detector, detectorErr = detect.NewDetectorDefaultConfig()
	})
	return detector, detectorErr
}

// Rule implements secret detection in Dockerfile content.
type Rule struct{}

// Metadata returns the rule metadata.
func (r *Rule) Metadata() rules.RuleMetadata {
	return rules.RuleMetadata{
		Code:             rules.DocksiftRulePrefix + "secrets-in-code",
		Name:             "Secrets in Dockerfile content",
		Description:      "Detects hardcoded secrets, API keys, and credentials in Dockerfile content",
		DocURL:           "https://github.com/wharflab/docksift/blob/main/docs/rules/secrets-in-code.md",
		DefaultSeverity:  rules.SeverityError,
		Category:         "security",
		EnabledByDefault: true,
	}
}

// scanner carries one Check call.
type scanner struct {
	rule     *Rule
	file     string
	detector *detect.Detector
	out      []rules.Violation
}

// Check scans the Dockerfile for hardcoded secrets.
func (r *Rule) Check(input rules.LintInput) []rules.Violation {
	d, err := gitleaks()
	if err != nil {
		// Without a detector there is nothing to report.
		return nil
	}

	s := &scanner{rule: r, file: input.File, detector: d}
	for _, instr := range input.Instructions() {
		s.instruction(instr)
	}
	return s.out
}

func (s *scanner) instruction(instr tree.Instruction) {
	switch in := instr.(type) {
	case *tree.OnBuild:
		s.instruction(in.Inner)
	case *tree.KeyValue:
		s.pairs(in)
	case *tree.Command:
		s.command(in.Name(), in.Arguments())
	case *tree.Healthcheck:
		if in.Cmd != nil {
			s.command("HEALTHCHECK", in.Cmd.Arguments())
		}
	case *tree.Generic:
		// COPY and ADD heredocs.
		for _, a := range in.Args {
			if h := a.Heredoc(); h != nil {
				s.heredoc(in.Name(), h)
			}
		}
	}
}

// pairs scans ENV, LABEL and ARG values.
func (s *scanner) pairs(kv *tree.KeyValue) {
	context := kv.Name() + " value"
	if kv.Name() == "ARG" {
		context = "ARG default value"
	}
	for _, p := range kv.Pairs {
		if p.Value == nil {
			continue
		}
		value := unquote(p.Value.Text())
		if value == "" {
			continue
		}
		// The key gives keyword-based patterns their context.
		s.scan(p.Key.Value+"="+value, p.Value.TextRange(), context)
	}
}

// command scans the command line and its heredoc bodies.
func (s *scanner) command(name string, args []*tree.Argument) {
	var words []string
	for _, a := range args {
		if h := a.Heredoc(); h != nil {
			s.heredoc(name, h)
			continue
		}
		words = append(words, a.Text())
	}
	if len(words) > 0 {
		s.scan(strings.Join(words, " "), span(args), name+" command")
	}
}

func (s *scanner) heredoc(name string, h *tree.Heredoc) {
	for _, doc := range h.Documents {
		lines := make([]string, len(doc.Lines))
		for i, line := range doc.Lines {
			words := make([]string, len(line))
			for j, a := range line {
				words[j] = a.Text()
			}
			lines[i] = strings.Join(words, " ")
		}
		findings := s.detector.DetectString(strings.Join(lines, "\n"))
		for _, f := range findings {
			rng := h.TextRange()
			if i := f.StartLine; i >= 0 && i < len(doc.Lines) && len(doc.Lines[i]) > 0 {
				rng = span(doc.Lines[i])
			}
			s.report(f, rng, name+" heredoc")
		}
	}
}

func (s *scanner) scan(content string, rng tree.TextRange, context string) {
	for _, f := range s.detector.DetectString(content) {
		s.report(f, rng, context)
	}
}

func (s *scanner) report(f report.Finding, rng tree.TextRange, context string) {
	meta := s.rule.Metadata()

	msg := f.Description
	if msg == "" {
		msg = "Potential secret detected"
	}

	s.out = append(s.out, rules.NewViolation(
		rules.NewLocationFromRange(s.file, rng),
		meta.Code,
		msg+" in "+context,
		meta.DefaultSeverity,
	).WithDocURL(meta.DocURL).WithDetail(
		"Found: "+redact(f.Secret)+" (rule: "+f.RuleID+"). "+
			"Secrets in Dockerfiles are visible in image history and layers. "+
			"Use --mount=type=secret for build-time secrets or environment variables at runtime.",
	))
}

// span covers a non-empty run of arguments.
func span(args []*tree.Argument) tree.TextRange {
	return tree.Merge(args[0].TextRange(), args[len(args)-1].TextRange())
}

// unquote strips one level of matching quotes.
func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

// redact redacts a secret for safe display.
func redact(secret string) string {
	if len(secret) <= 8 {
		return "***"
	}
	// Show first 4 and last 4 characters
	return secret[:4] + "..." + secret[len(secret)-4:]
}

// New creates a new secrets-in-code rule instance.
func New() *Rule {
	return &Rule{}
}

// init registers the rule with the default registry.
func init() {
	rules.Register(New())
}
