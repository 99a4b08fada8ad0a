// Package testutil builds lint inputs and runs table-driven rule tests.
package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wharflab/docksift/internal/dockerfile"
	"github.com/wharflab/docksift/internal/resolve"
	"github.com/wharflab/docksift/internal/rules"
)

// ParseDockerfile runs the full parse pipeline on content and fails the
// test on a syntax error.
func ParseDockerfile(tb testing.TB, content string) *dockerfile.ParseResult {
	tb.Helper()
	result, err := dockerfile.Parse(strings.NewReader(content))
	if err != nil {
		tb.Fatalf("failed to parse Dockerfile: %v", err)
	}
	return result
}

// MakeLintInput returns what the linter hands a rule for content: the
// tree, the source map and a fresh resolver.
func MakeLintInput(tb testing.TB, file, content string) rules.LintInput {
	tb.Helper()
	result := ParseDockerfile(tb, content)
	return rules.LintInput{
		File:      file,
		Tree:      result.File,
		Source:    result.Source,
		SourceMap: result.Preprocessed.SourceMap,
		Resolver:  resolve.New(result.File),
	}
}

func MakeLintInputWithConfig(tb testing.TB, file, content string, config any) rules.LintInput {
	tb.Helper()
	input := MakeLintInput(tb, file, content)
	input.Config = config
	return input
}

// RuleTestCase is one row of a rule table. Zero-valued expectations are
// not checked.
type RuleTestCase struct {
	Name    string
	Content string
	Config  any

	// WantViolations is the expected count; -1 skips the check.
	WantViolations int
	// WantCodes, WantMessages, WantLines and WantEvidence are checked
	// index by index against the violations in the order the rule
	// returned them. Messages match by substring.
	WantCodes    []string
	WantMessages []string
	WantLines    []int
	WantEvidence [][]string
}

// RunRuleTests checks rule against every case as a subtest.
func RunRuleTests(t *testing.T, rule rules.Rule, cases []RuleTestCase) {
	t.Helper()
	for _, tc := range cases {
		t.Run(tc.Name, func(t *testing.T) {
			violations := rule.Check(MakeLintInputWithConfig(t, "Dockerfile", tc.Content, tc.Config))
			got := Describe(violations)

			if tc.WantViolations >= 0 {
				assert.Len(t, violations, tc.WantViolations, "violations: %v", got)
			}
			if len(tc.WantCodes) > 0 {
				codes := make([]string, len(violations))
				for i, v := range violations {
					codes[i] = v.RuleCode
				}
				assert.Equal(t, tc.WantCodes, codes)
			}
			for i, msg := range tc.WantMessages {
				if assert.Less(t, i, len(violations), "no violation[%d] for message %q", i, msg) {
					assert.Contains(t, violations[i].Message, msg, "violation[%d]", i)
				}
			}
			for i, line := range tc.WantLines {
				if assert.Less(t, i, len(violations), "no violation[%d] for line %d", i, line) {
					assert.Equal(t, line, violations[i].Line(), "violation[%d] line", i)
				}
			}
			for i, evidence := range tc.WantEvidence {
				if assert.Less(t, i, len(violations), "no violation[%d] for evidence %q", i, evidence) {
					assert.Equal(t, evidence, violations[i].Evidence, "violation[%d] evidence", i)
				}
			}
		})
	}
}

// Describe renders violations as "code@line: message" for failure output.
func Describe(violations []rules.Violation) []string {
	out := make([]string, len(violations))
	for i, v := range violations {
		out[i] = fmt.Sprintf("%s@%d: %s", v.RuleCode, v.Line(), v.Message)
	}
	return out
}

// AssertNoViolations fails the test when violations is not empty.
func AssertNoViolations(tb testing.TB, violations []rules.Violation) {
	tb.Helper()
	assert.Empty(tb, violations, "violations: %v", Describe(violations))
}
