package reporter

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wharflab/docksift/internal/rules"
	"github.com/wharflab/docksift/internal/testutil"
)

func TestGitHubActionsReporter(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, NewGitHubActionsReporter(&buf).Report(fixtureViolations(), nil, ReportMetadata{}))

	want := "::warning file=Dockerfile,line=1,col=1,title=hadolint/DL3007::Using latest is prone to errors if the image will ever update\n" +
		"::warning file=Dockerfile,line=2,col=10,endColumn=11,title=docksift/insecure-tls::TLS verification disabled with curl -k\n" +
		"::error file=Dockerfile,line=4,col=5,endColumn=34,title=docksift/secrets-in-code::GitHub personal access token found%0AMove the value into a build secret.\n" +
		"::error file=api/Dockerfile,title=docksift/syntax-error::file is empty\n"
	testutil.EqualText(t, want, buf.String())
}

func TestGitHubActionsReporter_EndLine(t *testing.T) {
	t.Parallel()
	violations := []rules.Violation{
		// Exclusive end at column 0: last covered line is 3.
		rules.NewViolation(rules.NewRangeLocation("Dockerfile", 2, 0, 4, 0), "hadolint/DL4006", "pipefail", rules.SeverityWarning),
		// Same exclusive end on the next line only: single line.
		rules.NewViolation(rules.NewRangeLocation("Dockerfile", 6, 0, 7, 0), "hadolint/DL3004", "sudo", rules.SeverityError),
	}

	var buf bytes.Buffer
	require.NoError(t, NewGitHubActionsReporter(&buf).Report(violations, nil, ReportMetadata{}))

	out := buf.String()
	assert.Contains(t, out, "line=2,col=1,endLine=3,title=hadolint/DL4006")
	assert.Contains(t, out, "line=6,col=1,title=hadolint/DL3004")
}

func TestGitHubActionsReporter_Empty(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, NewGitHubActionsReporter(&buf).Report(nil, nil, ReportMetadata{}))
	assert.Empty(t, buf.String())
}

func TestEscapeGitHub(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "100%25 a:b, c%0Ad%0D", escapeGitHubMessage("100% a:b, c\nd\r"))
	assert.Equal(t, "C%3A\\dir%2Cx%25", escapeGitHubProperty("C:\\dir,x%"))
}

func TestGitHubActionsReporter_MatchAtFirstSpan(t *testing.T) {
	t.Parallel()
	loc := rules.NewLocationFromSpans("Dockerfile", []rules.Span{
		{Start: rules.Position{Line: 2, Column: 4}, End: rules.Position{Line: 2, Column: 8}},
		{Start: rules.Position{Line: 3, Column: 4}, End: rules.Position{Line: 3, Column: 6}},
	})
	v := rules.NewViolation(loc, "docksift/insecure-tls", "TLS verification disabled", rules.SeverityWarning).
		WithEvidence("curl", "-k")

	var buf bytes.Buffer
	require.NoError(t, NewGitHubActionsReporter(&buf).Report([]rules.Violation{v}, nil, ReportMetadata{}))
	testutil.EqualText(t,
		"::warning file=Dockerfile,line=2,col=5,endColumn=8,title=docksift/insecure-tls::TLS verification disabled%0AMatched: curl -k\n",
		buf.String())
}
