package cmd

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/gkampitakis/ciinfo"
	"github.com/urfave/cli/v3"

	"github.com/wharflab/docksift/internal/config"
	"github.com/wharflab/docksift/internal/linter"
	"github.com/wharflab/docksift/internal/reporter"
	"github.com/wharflab/docksift/internal/rules"
	"github.com/wharflab/docksift/internal/version"
)

const githubActionsName = "GitHub Actions"

// outputSettings are the report settings after flags are layered over the
// config file.
type outputSettings struct {
	format     string
	path       string
	showSource bool
	failLevel  string
}

func resolveOutput(cmd *cli.Command, cfg *config.Config) outputSettings {
	s := outputSettings{format: "text", path: "stdout", showSource: true, failLevel: "style"}
	if cfg != nil {
		out := cfg.Output
		s.format = cmp.Or(out.Format, s.format)
		s.path = cmp.Or(out.Path, s.path)
		s.failLevel = cmp.Or(out.FailLevel, s.failLevel)
		s.showSource = out.ShowSource

		// On GitHub Actions annotations replace the text report unless a
		// config file picked a format.
		if ciinfo.Name == githubActionsName && s.format == "text" && cfg.ConfigFile == "" {
			s.format = string(reporter.FormatGitHubActions)
		}
	}

	if cmd.IsSet("format") {
		s.format = cmd.String("format")
	}
	if cmd.IsSet("output") {
		s.path = cmd.String("output")
	}
	if cmd.IsSet("show-source") {
		s.showSource = cmd.Bool("show-source")
	}
	if cmd.Bool("hide-source") {
		s.showSource = false
	}
	if cmd.IsSet("fail-level") {
		s.failLevel = cmd.String("fail-level")
	}
	return s
}

// writeReport writes the report for violations and returns the exit error
// their severities call for.
func writeReport(
	cmd *cli.Command, cfg *config.Config, violations []rules.Violation,
	sources map[string][]byte, filesScanned int,
) error {
	s := resolveOutput(cmd, cfg)

	format, err := reporter.ParseFormat(s.format)
	if err != nil {
		return fail(cmd, ExitConfigError, "%v", err)
	}
	// Checked before anything is written.
	if _, err := parseFailLevel(s.failLevel); err != nil {
		return fail(cmd, ExitConfigError, "invalid --fail-level %q", s.failLevel)
	}

	w := outWriter(cmd)
	if s.path != "stdout" && s.path != "" {
		out, closeOut, err := reporter.GetWriter(s.path)
		if err != nil {
			return fail(cmd, ExitConfigError, "%v", err)
		}
		defer func() {
			if cerr := closeOut(); cerr != nil {
				fmt.Fprintf(errWriter(cmd), "Warning: failed to close output: %v\n", cerr)
			}
		}()
		w = out
	}

	opts := reporter.Options{
		Format:      format,
		Writer:      w,
		ShowSource:  s.showSource,
		ToolVersion: version.Version(),
	}
	if cmd.Bool("no-color") || ciinfo.IsCI {
		opts.Color = new(bool)
	}
	rep, err := reporter.New(opts)
	if err != nil {
		return fail(cmd, ExitConfigError, "failed to create reporter: %v", err)
	}

	meta := reporter.ReportMetadata{
		FilesScanned: filesScanned,
		RulesEnabled: len(linter.EnabledRuleCodes(cfg)),
	}
	if err := rep.Report(violations, sources, meta); err != nil {
		return fail(cmd, ExitConfigError, "failed to write output: %v", err)
	}

	if code := determineExitCode(violations, s.failLevel); code != ExitSuccess {
		return cli.Exit("", code)
	}
	return nil
}

// determineExitCode maps violations to an exit code under failLevel.
// "none" never fails; an unknown level is a config error.
func determineExitCode(violations []rules.Violation, failLevel string) int {
	if failLevel == "none" {
		return ExitSuccess
	}
	threshold, err := parseFailLevel(failLevel)
	if err != nil {
		return ExitConfigError
	}
	if slices.ContainsFunc(violations, func(v rules.Violation) bool {
		return v.Severity.IsAtLeast(threshold)
	}) {
		return ExitViolations
	}
	return ExitSuccess
}

// parseFailLevel reads a --fail-level value. The empty level is "style",
// so any violation fails.
func parseFailLevel(level string) (rules.Severity, error) {
	switch level {
	case "", "style":
		return rules.SeverityStyle, nil
	case "none":
		return rules.SeverityOff, nil
	}
	sev, err := rules.ParseSeverity(level)
	if err != nil {
		return sev, err
	}
	if sev == rules.SeverityOff {
		return sev, fmt.Errorf("invalid fail level %q", level)
	}
	return sev, nil
}
