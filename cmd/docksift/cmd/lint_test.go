package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	gotoml "github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
	"go.yaml.in/yaml/v4"

	"github.com/wharflab/docksift/internal/reporter"
	"github.com/wharflab/docksift/internal/rules"
)

const insecureDockerfile = "FROM ubuntu:latest\nRUN sudo apt-get update\n"

type runResult struct {
	stdout string
	stderr string
	code   int
}

// run executes the CLI in-process with the given standard input.
func run(t *testing.T, stdin string, args ...string) runResult {
	t.Helper()
	var stdout, stderr bytes.Buffer

	app := NewApp()
	app.Writer = &stdout
	app.ErrWriter = &stderr
	app.Reader = strings.NewReader(stdin)
	app.ExitErrHandler = func(context.Context, *cli.Command, error) {}

	err := app.Run(context.Background(), append([]string{"docksift"}, args...))

	res := runResult{stdout: stdout.String(), stderr: stderr.String()}
	if err != nil {
		var exitErr cli.ExitCoder
		require.True(t, errors.As(err, &exitErr), "unexpected error: %v", err)
		res.code = exitErr.ExitCode()
	}
	return res
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func decodeReport(t *testing.T, out string) reporter.JSONOutput {
	t.Helper()
	var report reporter.JSONOutput
	require.NoError(t, json.Unmarshal([]byte(out), &report), out)
	return report
}

func reportCodes(report reporter.JSONOutput) []string {
	var out []string
	for _, f := range report.Files {
		for _, v := range f.Violations {
			out = append(out, v.RuleCode)
		}
	}
	return out
}

func TestLint_JSONViolations(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "Dockerfile", insecureDockerfile)

	res := run(t, "", "lint", "--format", "json", path)
	assert.Equal(t, ExitViolations, res.code, res.stderr)

	report := decodeReport(t, res.stdout)
	assert.Equal(t, "docksift", report.Tool.Name)
	assert.Equal(t, 1, report.FilesScanned)
	assert.Positive(t, report.RulesEnabled)

	got := reportCodes(report)
	assert.Contains(t, got, "hadolint/DL3007")
	assert.Contains(t, got, "hadolint/DL3004")
	assert.Positive(t, report.Summary.Errors)
}

func TestLint_FailLevel(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "Dockerfile", "FROM ubuntu:latest\n")

	res := run(t, "", "lint", "--format", "json", "--fail-level", "none", path)
	assert.Equal(t, ExitSuccess, res.code)

	res = run(t, "", "lint", "--format", "json", "--fail-level", "error", path)
	assert.Equal(t, ExitSuccess, res.code, "DL3007 is only a warning")

	res = run(t, "", "lint", "--format", "json", "--fail-level", "warning", path)
	assert.Equal(t, ExitViolations, res.code)

	res = run(t, "", "lint", "--format", "json", "--fail-level", "bogus", path)
	assert.Equal(t, ExitConfigError, res.code)
	assert.Contains(t, res.stderr, "invalid --fail-level")
}

func TestLint_IgnoreAndSelect(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "Dockerfile", insecureDockerfile)

	res := run(t, "", "lint", "--format", "json", "--ignore", "hadolint/*", "--select", "hadolint/DL3004", path)
	got := reportCodes(decodeReport(t, res.stdout))
	assert.NotContains(t, got, "hadolint/DL3007")
	assert.Contains(t, got, "hadolint/DL3004")
}

func TestLint_InlineDirectives(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "Dockerfile",
		"# docksift ignore=DL3007\nFROM ubuntu:latest\n# hadolint ignore=DL3004\nRUN sudo apt-get update\n")

	got := reportCodes(decodeReport(t, run(t, "", "lint", "--format", "json", path).stdout))
	assert.NotContains(t, got, "hadolint/DL3007")
	assert.NotContains(t, got, "hadolint/DL3004")

	got = reportCodes(decodeReport(t, run(t, "", "lint", "--format", "json", "--no-inline-directives", path).stdout))
	assert.Contains(t, got, "hadolint/DL3007")
	assert.Contains(t, got, "hadolint/DL3004")
}

func TestLint_RequireReason(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "Dockerfile", "# hadolint ignore=DL3007\nFROM ubuntu:latest\n")

	res := run(t, "", "lint", "--format", "json", "--require-reason", path)
	got := reportCodes(decodeReport(t, res.stdout))
	assert.NotContains(t, got, "hadolint/DL3007")
	assert.Contains(t, got, rules.MissingDirectiveReasonCode)
}

func TestLint_Stdin(t *testing.T) {
	res := run(t, insecureDockerfile, "lint", "--format", "json", "-")
	assert.Equal(t, ExitViolations, res.code, res.stderr)

	report := decodeReport(t, res.stdout)
	require.Len(t, report.Files, 1)
	assert.Equal(t, "-", report.Files[0].File)
	assert.Contains(t, reportCodes(report), "hadolint/DL3007")
}

func TestLint_StdinEmpty(t *testing.T) {
	res := run(t, "", "lint", "--format", "json", "-")
	assert.Equal(t, ExitConfigError, res.code)
	assert.NotEmpty(t, res.stderr)
}

func TestLint_SyntaxError(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "Dockerfile", "RUN echo hi\n")

	res := run(t, "", "lint", "--format", "json", path)
	assert.Equal(t, ExitViolations, res.code)
	assert.Equal(t, []string{rules.SyntaxErrorCode}, reportCodes(decodeReport(t, res.stdout)))
}

func TestLint_Directory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Dockerfile", "FROM alpine:3.20\n")
	writeFile(t, dir, "api/Dockerfile", "FROM ubuntu:latest\n")
	writeFile(t, dir, "vendor/Dockerfile", "FROM ubuntu:latest\n")
	writeFile(t, dir, "README.md", "# hi\n")

	res := run(t, "", "lint", "--format", "json", "--exclude", "vendor/**", dir)
	report := decodeReport(t, res.stdout)
	assert.Equal(t, 2, report.FilesScanned)
	for _, f := range report.Files {
		assert.NotContains(t, f.File, "vendor")
	}
}

func TestLint_BadFileDoesNotStopOthers(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "api/Dockerfile", "FROM ubuntu:latest\n")
	writeFile(t, dir, "web/Dockerfile", "FROM\n")

	res := run(t, "", "lint", "--format", "json", dir)
	assert.Equal(t, ExitConfigError, res.code)
	assert.Contains(t, res.stderr, "too small")

	report := decodeReport(t, res.stdout)
	assert.Equal(t, 1, report.FilesScanned)
	require.Len(t, report.Files, 1)
	assert.Contains(t, report.Files[0].File, "api")
	assert.Contains(t, reportCodes(report), "hadolint/DL3007")
}

func TestLint_NoFiles(t *testing.T) {
	dir := t.TempDir()

	res := run(t, "", "lint", "--format", "json", dir)
	assert.Equal(t, ExitNoFiles, res.code)
	assert.Contains(t, res.stderr, "no Dockerfile or Containerfile found")

	res = run(t, "", "lint", "--format", "json", filepath.Join(dir, "missing", "Dockerfile"))
	assert.Equal(t, ExitNoFiles, res.code)
	assert.Contains(t, res.stderr, "file not found")

	res = run(t, "", "lint", "--format", "json", filepath.Join(dir, "*.Dockerfile"))
	assert.Equal(t, ExitNoFiles, res.code)
	assert.Contains(t, res.stderr, "no Dockerfiles matched pattern")
}

func TestLint_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "Dockerfile", insecureDockerfile)
	writeFile(t, dir, ".docksift.toml", "[output]\nformat = \"json\"\n\n[rules]\nexclude = [\"hadolint/DL3004\"]\n")

	// Format comes from the discovered config file.
	res := run(t, "", "lint", path)
	got := reportCodes(decodeReport(t, res.stdout))
	assert.Contains(t, got, "hadolint/DL3007")
	assert.NotContains(t, got, "hadolint/DL3004")

	other := writeFile(t, t.TempDir(), "custom.toml", "[output]\nformat = \"json\"\nfail-level = \"none\"\n")
	res = run(t, "", "lint", "--config", other, path)
	assert.Equal(t, ExitSuccess, res.code)
	assert.Contains(t, reportCodes(decodeReport(t, res.stdout)), "hadolint/DL3004")

	res = run(t, "", "lint", "--config", filepath.Join(dir, "nope.toml"), path)
	assert.Equal(t, ExitConfigError, res.code)
}

func TestLint_OutputFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "Dockerfile", insecureDockerfile)
	out := filepath.Join(dir, "report.sarif")

	res := run(t, "", "lint", "--format", "sarif", "--output", out, path)
	assert.Equal(t, ExitViolations, res.code)
	assert.Empty(t, res.stdout)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"hadolint/DL3007"`)
}

func TestLint_TextOutput(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "Dockerfile", "FROM ubuntu:latest\n")

	res := run(t, "", "lint", "--format", "text", "--no-color", "--hide-source", path)
	assert.Equal(t, ExitViolations, res.code)
	assert.Contains(t, res.stdout, "hadolint/DL3007")
	assert.NotContains(t, res.stdout, "\x1b[")
	assert.NotContains(t, res.stdout, ">>>")

	res = run(t, "", "lint", "--format", "text", "--no-color", path)
	assert.Contains(t, res.stdout, ">>>")
}

func TestLint_UnknownFormat(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "Dockerfile", "FROM alpine:3.20\n")

	res := run(t, "", "lint", "--format", "xml", path)
	assert.Equal(t, ExitConfigError, res.code)
	assert.Contains(t, res.stderr, "unknown format")
}

func TestDetermineExitCode(t *testing.T) {
	violations := []rules.Violation{{Severity: rules.SeverityInfo}}

	assert.Equal(t, ExitViolations, determineExitCode(violations, "style"))
	assert.Equal(t, ExitViolations, determineExitCode(violations, ""))
	assert.Equal(t, ExitViolations, determineExitCode(violations, "info"))
	assert.Equal(t, ExitSuccess, determineExitCode(violations, "warning"))
	assert.Equal(t, ExitSuccess, determineExitCode(violations, "none"))
	assert.Equal(t, ExitSuccess, determineExitCode(nil, "style"))
	assert.Equal(t, ExitConfigError, determineExitCode(violations, "off"))
}

func TestParseCommand(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "Dockerfile", "FROM alpine:3.20\nRUN echo hi\n")

	res := run(t, "", "parse", path)
	assert.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.True(t, strings.HasPrefix(res.stdout, "(stage 0"), res.stdout)

	res = run(t, "", "parse", "--format", "json", path)
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &doc))
	assert.NotEmpty(t, doc["kind"])
	assert.NotEmpty(t, doc["children"])

	res = run(t, "FROM alpine:3.20\n", "parse", "--format", "yaml", "-")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	var ydoc map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(res.stdout), &ydoc))
	assert.Equal(t, doc["kind"], ydoc["kind"])
}

func TestParseCommand_Errors(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, dir, "Dockerfile", "RUN echo hi\n")

	res := run(t, "", "parse", bad)
	assert.Equal(t, ExitConfigError, res.code)
	assert.Contains(t, res.stderr, bad+":1:")

	res = run(t, "", "parse", filepath.Join(dir, "missing"))
	assert.Equal(t, ExitNoFiles, res.code)

	res = run(t, "", "parse")
	assert.Equal(t, ExitConfigError, res.code)

	res = run(t, "", "parse", "--format", "xml", writeFile(t, dir, "ok/Dockerfile", "FROM alpine\n"))
	assert.Equal(t, ExitConfigError, res.code)
}

func TestConfigCommand(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".docksift.toml", "[output]\nformat = \"sarif\"\n")

	res := run(t, "", "config", dir)
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "# Loaded from")

	var doc map[string]any
	require.NoError(t, gotoml.Unmarshal([]byte(res.stdout), &doc))
	assert.Equal(t, "sarif", doc["output"].(map[string]any)["format"])

	res = run(t, "", "config", "--config", filepath.Join(dir, "missing.toml"))
	assert.Equal(t, ExitConfigError, res.code)
}

func TestVersionCommand(t *testing.T) {
	res := run(t, "", "version")
	assert.True(t, strings.HasPrefix(res.stdout, "docksift version "))

	res = run(t, "", "version", "--json")
	var info map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &info))
	assert.Contains(t, info, "version")
}

func TestInvalidLogLevel(t *testing.T) {
	res := run(t, "", "--log-level", "loud", "version")
	assert.Equal(t, ExitConfigError, res.code)
}

func TestVerboseLogsToErrWriter(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "Dockerfile", "FROM alpine:3.20\n")

	res := run(t, "", "--verbose", "lint", "--format", "json", path)
	assert.Contains(t, res.stderr, "level=debug")
	assert.NotContains(t, res.stdout, "level=debug")
}
