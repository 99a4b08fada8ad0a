package reporter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wharflab/docksift/internal/rules"
	"github.com/wharflab/docksift/internal/testutil"
)

func plainReporter(showSource bool) *TextReporter {
	noColor := false
	return NewTextReporter(TextOptions{Color: &noColor, ShowSource: showSource})
}

func TestPrintTextPlain_Snippet(t *testing.T) {
	t.Parallel()
	violations := []rules.Violation{fixtureViolations()[0]}

	var buf bytes.Buffer
	require.NoError(t, PrintTextPlain(&buf, violations, fixtureSources()))

	want := `
WARNING: docksift/insecure-tls - https://github.com/wharflab/docksift/blob/main/docs/rules/docksift/insecure-tls.md
TLS verification disabled with curl -k

Dockerfile:2
--------------------
   1 |     FROM ubuntu:latest
   2 | >>> RUN curl -k https://example.com/install.sh \
     |              ^^
   3 |         | sh
   4 |     ENV API_TOKEN=ghp_0123456789abcdef
--------------------
`
	testutil.EqualText(t, want, buf.String())
}

func TestPrintTextPlain_MultiLineRange(t *testing.T) {
	t.Parallel()
	// Exclusive end at column 0 of line 4 covers lines 2-3 only.
	violations := []rules.Violation{
		rules.NewViolation(rules.NewRangeLocation("Dockerfile", 2, 0, 4, 0), "hadolint/DL4006", "pipefail", rules.SeverityWarning),
	}

	var buf bytes.Buffer
	require.NoError(t, PrintTextPlain(&buf, violations, fixtureSources()))

	out := buf.String()
	assert.Contains(t, out, "   2 | >>> RUN curl")
	assert.Contains(t, out, "   3 | >>>     | sh")
	assert.Contains(t, out, "   4 |     ENV")
}

func TestPrintTextPlain_DetailAndFix(t *testing.T) {
	t.Parallel()
	v := fixtureViolations()[2].WithSuggestedFix(&rules.SuggestedFix{Description: "Use a build secret"})

	var buf bytes.Buffer
	require.NoError(t, plainReporter(false).Print(&buf, []rules.Violation{v}, fixtureSources()))

	want := `
ERROR: docksift/secrets-in-code
GitHub personal access token found
Move the value into a build secret.
Fix: Use a build secret
`
	testutil.EqualText(t, want, buf.String())
}

func TestPrintTextPlain_Severities(t *testing.T) {
	t.Parallel()
	tests := []struct {
		severity rules.Severity
		want     string
	}{
		{rules.SeverityError, "ERROR:"},
		{rules.SeverityWarning, "WARNING:"},
		{rules.SeverityInfo, "INFO:"},
		{rules.SeverityStyle, "STYLE:"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			v := rules.NewViolation(rules.NewFileLocation("Dockerfile"), "docksift/x", "m", tt.severity)
			var buf bytes.Buffer
			require.NoError(t, PrintTextPlain(&buf, []rules.Violation{v}, nil))
			assert.Contains(t, buf.String(), tt.want+" docksift/x")
		})
	}
}

func TestPrintTextPlain_FileLevelHasNoSnippet(t *testing.T) {
	t.Parallel()
	v := rules.NewViolation(rules.NewFileLocation("Dockerfile"), "docksift/x", "m", rules.SeverityInfo)

	var buf bytes.Buffer
	require.NoError(t, PrintTextPlain(&buf, []rules.Violation{v}, fixtureSources()))
	assert.NotContains(t, buf.String(), ">>>")
}

func TestPrintTextPlain_LineOutOfRange(t *testing.T) {
	t.Parallel()
	v := rules.NewViolation(rules.NewLineLocation("Dockerfile", 40), "docksift/x", "m", rules.SeverityInfo)

	var buf bytes.Buffer
	require.NoError(t, PrintTextPlain(&buf, []rules.Violation{v}, fixtureSources()))
	assert.NotContains(t, buf.String(), "Dockerfile:40")
}

func TestTextReporter_Colored(t *testing.T) {
	t.Parallel()
	color := true
	r := NewTextReporter(TextOptions{Color: &color, ShowSource: true, SyntaxHighlight: true})

	var buf bytes.Buffer
	require.NoError(t, r.Print(&buf, []rules.Violation{fixtureViolations()[1]}, fixtureSources()))

	out := buf.String()
	assert.Contains(t, out, "\x1b[")
	assert.Contains(t, out, "│")
	assert.Contains(t, out, "hadolint/DL3007")
}

func TestPrintSummary(t *testing.T) {
	t.Parallel()
	r := plainReporter(false)

	var buf bytes.Buffer
	require.NoError(t, r.PrintSummary(&buf, fixtureViolations(), ReportMetadata{FilesScanned: 3}))
	testutil.EqualText(t, "\nFound 4 problems in 2 files (2 errors, 2 warnings), 3 files scanned\n", buf.String())

	buf.Reset()
	require.NoError(t, r.PrintSummary(&buf, nil, ReportMetadata{FilesScanned: 1}))
	testutil.EqualText(t, "\nNo problems found in 1 file\n", buf.String())

	buf.Reset()
	require.NoError(t, r.PrintSummary(&buf, nil, ReportMetadata{}))
	assert.Empty(t, buf.String())
}

func TestHighlightKeyword(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "# RUN comment", highlightKeyword("# RUN comment"))
	assert.Equal(t, "    | sh", highlightKeyword("    | sh"))
	assert.Equal(t, "", highlightKeyword(""))

	got := highlightKeyword("  run echo")
	assert.True(t, strings.HasPrefix(got, "  "))
	assert.True(t, strings.HasSuffix(got, " echo"))
	assert.Contains(t, got, "run")
}

func TestPrintTextPlain_MatchSpans(t *testing.T) {
	t.Parallel()
	source := map[string][]byte{"Dockerfile": []byte("FROM alpine\nRUN curl \\\n\t-k https://x\n")}
	loc := rules.NewLocationFromSpans("Dockerfile", []rules.Span{
		{Start: rules.Position{Line: 2, Column: 4}, End: rules.Position{Line: 2, Column: 8}},
		{Start: rules.Position{Line: 3, Column: 1}, End: rules.Position{Line: 3, Column: 3}},
	})
	v := rules.NewViolation(loc, "docksift/insecure-tls", "TLS verification disabled", rules.SeverityWarning).
		WithEvidence("curl", "-k")

	var buf bytes.Buffer
	require.NoError(t, PrintTextPlain(&buf, []rules.Violation{v}, source))

	want := "\nWARNING: docksift/insecure-tls\n" +
		"TLS verification disabled\n" +
		"Matched: curl -k\n" +
		"\nDockerfile:2\n" +
		"--------------------\n" +
		"   1 |     FROM alpine\n" +
		"   2 | >>> RUN curl \\\n" +
		"     |         ^^^^\n" +
		"   3 | >>> \t-k https://x\n" +
		"     |     \t^^\n" +
		"--------------------\n"
	testutil.EqualText(t, want, buf.String())
}

func TestMarkedLines(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []int{3}, markedLines(rules.NewLineLocation("Dockerfile", 3)))
	assert.Equal(t, []int{2, 3}, markedLines(rules.NewRangeLocation("Dockerfile", 2, 0, 4, 0)))
	assert.Equal(t, []int{2, 5}, markedLines(rules.NewLocationFromSpans("Dockerfile", []rules.Span{
		{Start: rules.Position{Line: 2, Column: 0}, End: rules.Position{Line: 2, Column: 3}},
		{Start: rules.Position{Line: 5, Column: 1}, End: rules.Position{Line: 5, Column: 2}},
	})))
}
