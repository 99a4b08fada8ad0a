package reporter

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wharflab/docksift/internal/rules"
)

const fixtureSource = `FROM ubuntu:latest
RUN curl -k https://example.com/install.sh \
    | sh
ENV API_TOKEN=ghp_0123456789abcdef
`

// fixtureViolations returns violations across two files, deliberately unsorted.
func fixtureViolations() []rules.Violation {
	return []rules.Violation{
		rules.NewViolation(
			rules.NewRangeLocation("Dockerfile", 2, 9, 2, 11),
			"docksift/insecure-tls",
			"TLS verification disabled with curl -k",
			rules.SeverityWarning,
		).WithDocURL("https://github.com/wharflab/docksift/blob/main/docs/rules/docksift/insecure-tls.md"),
		rules.NewViolation(
			rules.NewLineLocation("Dockerfile", 1),
			"hadolint/DL3007",
			"Using latest is prone to errors if the image will ever update",
			rules.SeverityWarning,
		),
		rules.NewViolation(
			rules.NewRangeLocation("Dockerfile", 4, 4, 4, 34),
			"docksift/secrets-in-code",
			"GitHub personal access token found",
			rules.SeverityError,
		).WithDetail("Move the value into a build secret."),
		rules.NewViolation(
			rules.NewFileLocation("api/Dockerfile"),
			rules.SyntaxErrorCode,
			"file is empty",
			rules.SeverityError,
		),
	}
}

func fixtureSources() map[string][]byte {
	return map[string][]byte{
		"Dockerfile":     []byte(fixtureSource),
		"api/Dockerfile": {},
	}
}

func TestByFile(t *testing.T) {
	t.Parallel()
	input := append(fixtureViolations(),
		rules.NewViolation(rules.NewLineLocation("api\\Dockerfile", 2), "hadolint/DL3007", "m", rules.SeverityWarning))

	files, grouped := byFile(input)
	assert.Equal(t, []string{"Dockerfile", "api/Dockerfile"}, files)

	codes := make([]string, 0, 3)
	for _, v := range grouped["Dockerfile"] {
		codes = append(codes, v.RuleCode)
	}
	assert.Equal(t, []string{"hadolint/DL3007", "docksift/insecure-tls", "docksift/secrets-in-code"}, codes)
	require.Len(t, grouped["api/Dockerfile"], 2)
	assert.Equal(t, "api/Dockerfile", grouped["api/Dockerfile"][1].Location.File)
	assert.Equal(t, "docksift/insecure-tls", input[0].RuleCode, "input untouched")
}

func TestSpanText(t *testing.T) {
	t.Parallel()
	source := []byte(fixtureSource)
	span := func(l1, c1, l2, c2 int) rules.Span {
		return rules.Span{Start: rules.Position{Line: l1, Column: c1}, End: rules.Position{Line: l2, Column: c2}}
	}

	assert.Equal(t, "-k", spanText(source, span(2, 9, 2, 11)))
	assert.Equal(t, "install.sh \\\n    | sh", spanText(source, span(2, 32, 3, 8)))
	assert.Equal(t, "    | sh", spanText(source, span(3, 0, 4, 0)), "end at column zero stops before the line")
	assert.Equal(t, "latest", spanText(source, span(1, 12, 1, 99)), "clamped")
	assert.Empty(t, spanText(source, span(40, 0, 40, 2)))
	assert.Empty(t, spanText(nil, span(1, 0, 1, 4)))
}

func TestParseFormat(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"JSON", FormatJSON, false},
		{"sarif", FormatSARIF, false},
		{"github-actions", FormatGitHubActions, false},
		{"github", FormatGitHubActions, false},
		{"markdown", FormatMarkdown, false},
		{"md", FormatMarkdown, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "unknown format")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew_AllFormats(t *testing.T) {
	t.Parallel()
	for _, format := range Formats() {
		t.Run(string(format), func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			noColor := false
			r, err := New(Options{Format: format, Writer: &buf, Color: &noColor, ShowSource: true})
			require.NoError(t, err)
			require.NoError(t, r.Report(fixtureViolations(), fixtureSources(), ReportMetadata{FilesScanned: 2, RulesEnabled: 5}))
			assert.NotEmpty(t, buf.String())
		})
	}
}

func TestNew_UnknownFormat(t *testing.T) {
	t.Parallel()
	_, err := New(Options{Format: "yaml"})
	require.Error(t, err)
}

func TestDefaultOptions(t *testing.T) {
	t.Parallel()
	opts := DefaultOptions()
	assert.Equal(t, FormatText, opts.Format)
	assert.Equal(t, "docksift", opts.ToolName)
	assert.True(t, opts.ShowSource)
	assert.Nil(t, opts.Color)
}

func TestGetWriter(t *testing.T) {
	t.Parallel()

	w, closeFn, err := GetWriter("stdout")
	require.NoError(t, err)
	assert.Equal(t, os.Stdout, w)
	require.NoError(t, closeFn())

	w, closeFn, err = GetWriter("stderr")
	require.NoError(t, err)
	assert.Equal(t, os.Stderr, w)
	require.NoError(t, closeFn())

	path := filepath.Join(t.TempDir(), "report.json")
	w, closeFn, err = GetWriter(path)
	require.NoError(t, err)
	_, err = w.Write([]byte("{}"))
	require.NoError(t, err)
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))

	_, _, err = GetWriter(filepath.Join(t.TempDir(), "missing", "report.json"))
	require.Error(t, err)
}
