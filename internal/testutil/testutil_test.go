package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wharflab/docksift/internal/rules"
)

func TestParseDockerfile(t *testing.T) {
	t.Parallel()
	content := "FROM alpine\nRUN echo hello"
	result := ParseDockerfile(t, content)

	require.NotNil(t, result)
	require.NotNil(t, result.File)
	assert.Len(t, result.File.Stages, 1)
	assert.Equal(t, content, string(result.Source))
}

func TestMakeLintInput(t *testing.T) {
	t.Parallel()
	content := "ARG BASE=alpine\nFROM $BASE\nRUN echo hello"
	input := MakeLintInput(t, "test/Dockerfile", content)

	assert.Equal(t, "test/Dockerfile", input.File)
	require.NotNil(t, input.Tree)
	assert.Len(t, input.Tree.Args, 1)
	assert.Len(t, input.Tree.Stages, 1)
	assert.Equal(t, content, string(input.Source))
	require.NotNil(t, input.SourceMap)
	assert.Equal(t, 3, input.SourceMap.LineCount())
	assert.NotNil(t, input.Resolver)
	assert.Nil(t, input.Config)
}

func TestMakeLintInputWithConfig(t *testing.T) {
	t.Parallel()
	config := struct{ Max int }{Max: 100}

	input := MakeLintInputWithConfig(t, "Dockerfile", "FROM alpine", config)

	cfg, ok := input.Config.(struct{ Max int })
	require.True(t, ok, "Config type = %T", input.Config)
	assert.Equal(t, 100, cfg.Max)
}

type lineRule struct{}

func (lineRule) Metadata() rules.RuleMetadata {
	return rules.RuleMetadata{Code: "docksift/test-lines"}
}

func (lineRule) Check(input rules.LintInput) []rules.Violation {
	var out []rules.Violation
	for _, instr := range input.Instructions() {
		loc := rules.NewLocationFromNode(input.File, instr)
		out = append(out, rules.NewViolation(loc, "docksift/test-lines", instr.Name(), rules.SeverityInfo))
	}
	return out
}

func TestRunRuleTests(t *testing.T) {
	t.Parallel()
	RunRuleTests(t, lineRule{}, []RuleTestCase{
		{
			Name:           "one violation per instruction",
			Content:        "FROM alpine\n\nRUN id\n",
			WantViolations: 2,
			WantCodes:      []string{"docksift/test-lines", "docksift/test-lines"},
			WantMessages:   []string{"FROM", "RUN"},
			WantLines:      []int{1, 3},
		},
	})
}

type evidenceRule struct{}

func (evidenceRule) Metadata() rules.RuleMetadata {
	return rules.RuleMetadata{Code: "docksift/test-evidence"}
}

func (evidenceRule) Check(input rules.LintInput) []rules.Violation {
	var out []rules.Violation
	for _, instr := range input.Instructions() {
		loc := rules.NewLocationFromNode(input.File, instr)
		out = append(out, rules.NewViolation(loc, "docksift/test-evidence", "m", rules.SeverityInfo).
			WithEvidence(strings.ToLower(instr.Name())))
	}
	return out
}

func TestRunRuleTests_Evidence(t *testing.T) {
	t.Parallel()
	RunRuleTests(t, evidenceRule{}, []RuleTestCase{
		{
			Name:           "evidence per violation",
			Content:        "FROM alpine\nUSER app\n",
			WantViolations: 2,
			WantEvidence:   [][]string{{"from"}, {"user"}},
		},
	})
}

func TestAssertNoViolations(t *testing.T) {
	t.Parallel()
	AssertNoViolations(t, nil)
	AssertNoViolations(t, []rules.Violation{})
}

func TestDescribe(t *testing.T) {
	t.Parallel()
	v := rules.NewViolation(rules.NewLineLocation("Dockerfile", 4), "docksift/x", "msg", rules.SeverityError)
	assert.Equal(t, []string{"docksift/x@4: msg"}, Describe([]rules.Violation{v}))
	assert.Empty(t, Describe(nil))
}

func TestEqualText(t *testing.T) {
	t.Parallel()
	assert.True(t, EqualText(t, "a\tb\n", "a\tb\n"))

	rec := &recordingTB{TB: t}
	assert.False(t, EqualText(rec, "hello world\n", "hello there\n"))
	require.Len(t, rec.errors, 1)
	assert.Contains(t, rec.errors[0], "text mismatch")
	assert.Contains(t, rec.errors[0], "+there")
}

// recordingTB captures Errorf calls instead of failing the test.
type recordingTB struct {
	testing.TB
	errors []string
}

func (r *recordingTB) Helper() {}

func (r *recordingTB) Errorf(format string, args ...any) {
	r.errors = append(r.errors, fmt.Sprintf(format, args...))
}
