package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/wharflab/docksift/internal/config"
	"github.com/wharflab/docksift/internal/discovery"
	"github.com/wharflab/docksift/internal/fileval"
	"github.com/wharflab/docksift/internal/linter"
	"github.com/wharflab/docksift/internal/processor"
	"github.com/wharflab/docksift/internal/rules"
)

func lintCommand() *cli.Command {
	return &cli.Command{
		Name:      "lint",
		Usage:     "Lint Dockerfile(s) for issues",
		ArgsUsage: "[DOCKERFILE...] (use - for standard input)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (default: auto-discover)",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, json, sarif, github-actions, markdown",
				Sources: cli.EnvVars("DOCKSIFT_FORMAT", "DOCKSIFT_OUTPUT_FORMAT"),
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output path: stdout, stderr, or file path",
				Sources: cli.EnvVars("DOCKSIFT_OUTPUT_PATH"),
			},
			&cli.BoolFlag{
				Name:    "no-color",
				Usage:   "Disable colored output",
				Sources: cli.EnvVars("NO_COLOR"),
			},
			&cli.BoolFlag{
				Name:    "show-source",
				Usage:   "Show source code snippets (default: true)",
				Value:   true,
				Sources: cli.EnvVars("DOCKSIFT_OUTPUT_SHOW_SOURCE"),
			},
			&cli.BoolFlag{
				Name:  "hide-source",
				Usage: "Hide source code snippets",
			},
			&cli.StringFlag{
				Name:    "fail-level",
				Usage:   "Minimum severity to cause non-zero exit: error, warning, info, style, none",
				Sources: cli.EnvVars("DOCKSIFT_OUTPUT_FAIL_LEVEL"),
			},
			&cli.BoolFlag{
				Name:    "no-inline-directives",
				Usage:   "Disable processing of inline ignore directives",
				Sources: cli.EnvVars("DOCKSIFT_NO_INLINE_DIRECTIVES"),
			},
			&cli.BoolFlag{
				Name:    "warn-unused-directives",
				Usage:   "Warn about unused ignore directives",
				Sources: cli.EnvVars("DOCKSIFT_INLINE_DIRECTIVES_WARN_UNUSED"),
			},
			&cli.BoolFlag{
				Name:    "require-reason",
				Usage:   "Warn about ignore directives without reason= explanation",
				Sources: cli.EnvVars("DOCKSIFT_INLINE_DIRECTIVES_REQUIRE_REASON"),
			},
			&cli.StringSliceFlag{
				Name:    "exclude",
				Usage:   "Glob pattern to exclude files (can be repeated)",
				Sources: cli.EnvVars("DOCKSIFT_EXCLUDE"),
			},
			&cli.StringSliceFlag{
				Name:    "select",
				Usage:   "Enable specific rules (pattern: rule-code, namespace/*, *)",
				Sources: cli.EnvVars("DOCKSIFT_SELECT"),
			},
			&cli.StringSliceFlag{
				Name:    "ignore",
				Usage:   "Disable specific rules (pattern: rule-code, namespace/*, *)",
				Sources: cli.EnvVars("DOCKSIFT_IGNORE"),
			},
			&cli.IntFlag{
				Name:    "jobs",
				Aliases: []string{"j"},
				Usage:   "Number of files linted in parallel (default: number of CPUs)",
				Sources: cli.EnvVars("DOCKSIFT_JOBS"),
			},
		},
		Action: runLint,
	}
}

// lintRun collects the results of one lint invocation across files.
type lintRun struct {
	cmd    *cli.Command
	stderr io.Writer

	violations []rules.Violation
	sources    map[string][]byte
	configs    map[string]*config.Config
	// first is the config of the first file, which decides output settings.
	first *config.Config
	// linted and failed count files; a failed file is reported on stderr
	// and does not stop the others.
	linted, failed int
}

// fileError is a problem confined to one input file.
type fileError struct {
	err error
}

func (e *fileError) Error() string { return e.err.Error() }
func (e *fileError) Unwrap() error { return e.err }

func runLint(ctx context.Context, cmd *cli.Command) error {
	inputs := cmd.Args().Slice()
	if len(inputs) == 0 {
		inputs = []string{"."}
	}

	files, err := discovery.Discover(inputs, discovery.Options{
		Patterns:        discovery.DefaultPatterns(),
		ExcludePatterns: cmd.StringSlice("exclude"),
	})
	var notFound *discovery.FileNotFoundError
	switch {
	case errors.As(err, &notFound):
		return fail(cmd, ExitNoFiles, "%v", notFound)
	case err != nil:
		return fail(cmd, ExitConfigError, "failed to discover files: %v", err)
	case len(files) == 0:
		return fail(cmd, ExitNoFiles, "%s", noFilesMessage(inputs))
	}

	run := &lintRun{
		cmd:     cmd,
		stderr:  errWriter(cmd),
		sources: make(map[string][]byte),
		configs: make(map[string]*config.Config),
	}
	if err := run.lint(ctx, files); err != nil {
		return fail(cmd, ExitConfigError, "%v", err)
	}
	if run.linted == 0 {
		return cli.Exit("", ExitConfigError)
	}

	err = writeReport(cmd, run.first, run.process(), run.sources, run.linted)
	if run.failed == 0 {
		return err
	}
	// A file that could not be linted outranks violations in the others.
	var exit cli.ExitCoder
	if err == nil || errors.As(err, &exit) && exit.ExitCode() == ExitViolations {
		return cli.Exit("", ExitConfigError)
	}
	return err
}

// lint prepares and lints files. Only a config error stops the run.
func (r *lintRun) lint(ctx context.Context, files []discovery.DiscoveredFile) error {
	inputs := make([]linter.Input, 0, len(files))
	for _, df := range files {
		input, err := r.prepare(df)
		var fe *fileError
		switch {
		case errors.As(err, &fe):
			r.fileFailed("%v", err)
			continue
		case err != nil:
			return err
		}
		r.configs[input.FilePath] = input.Config
		if r.first == nil {
			r.first = input.Config
		}
		inputs = append(inputs, input)
	}

	results, err := linter.LintFiles(ctx, inputs, r.cmd.Int("jobs"))
	if err != nil {
		return fmt.Errorf("failed to lint: %w", err)
	}
	for _, res := range results {
		if res.Err != nil {
			r.fileFailed("failed to lint %s: %v", res.FilePath, res.Err)
			continue
		}
		r.linted++
		r.sources[res.FilePath] = res.Source
		r.violations = append(r.violations, res.Violations...)
	}
	return nil
}

func (r *lintRun) fileFailed(format string, args ...any) {
	fmt.Fprintf(r.stderr, "Error: "+format+"\n", args...)
	r.failed++
}

// process runs the violations through the CLI chain, each file under its
// own config, and adds the findings about inline directives.
func (r *lintRun) process() []rules.Violation {
	chain, inline := linter.CLIProcessors()
	pctx := processor.NewContextWithFileConfigs(r.first, r.configs, r.sources)
	out := chain.Process(r.violations, pctx)

	extra := inline.AdditionalViolations()
	if len(extra) == 0 {
		return out
	}
	extra = linter.DirectiveProcessors().Process(extra, pctx)
	return rules.SortViolations(append(out, extra...))
}

// prepare loads the config for one file and runs the pre-parse checks.
// Standard input is read here and discovers its config from the working
// directory.
func (r *lintRun) prepare(df discovery.DiscoveredFile) (linter.Input, error) {
	target := df.Path
	if df.Stdin {
		target = filepath.Join(df.ConfigRoot, "Dockerfile")
	}
	cfg, err := loadConfig(r.cmd, target)
	if err != nil {
		return linter.Input{}, fmt.Errorf("failed to load config for %s: %w", df.Path, err)
	}
	applyRuleFlags(r.cmd, cfg)
	logrus.WithFields(logrus.Fields{"file": df.Path, "config": cfg.ConfigFile}).Debug("loaded config")

	input := linter.Input{FilePath: df.Path, Config: cfg}
	maxSize := cfg.FileValidation.MaxFileSize
	if df.Stdin {
		if input.Content, err = io.ReadAll(inReader(r.cmd)); err != nil {
			return linter.Input{}, &fileError{fmt.Errorf("failed to read standard input: %w", err)}
		}
		err = fileval.ValidateContent(df.Path, input.Content, maxSize)
	} else {
		err = fileval.ValidateFile(df.Path, maxSize)
	}
	if err != nil {
		return linter.Input{}, &fileError{fmt.Errorf("failed to lint %s: %w", df.Path, err)}
	}
	return input, nil
}

// applyRuleFlags layers the rule and directive flags over cfg.
func applyRuleFlags(cmd *cli.Command, cfg *config.Config) {
	cfg.Rules.Include = append(cfg.Rules.Include, cmd.StringSlice("select")...)
	cfg.Rules.Exclude = append(cfg.Rules.Exclude, cmd.StringSlice("ignore")...)

	d := &cfg.InlineDirectives
	if cmd.IsSet("no-inline-directives") {
		d.Enabled = !cmd.Bool("no-inline-directives")
	}
	if cmd.IsSet("warn-unused-directives") {
		d.WarnUnused = cmd.Bool("warn-unused-directives")
	}
	if cmd.IsSet("require-reason") {
		d.RequireReason = cmd.Bool("require-reason")
	}
}

// noFilesMessage explains an empty discovery: the first glob that matched
// nothing, else the first directory searched.
func noFilesMessage(inputs []string) string {
	for _, in := range inputs {
		if discovery.ContainsGlobChars(in) {
			return "no Dockerfiles matched pattern: " + in
		}
	}
	for _, in := range inputs {
		abs, err := filepath.Abs(in)
		if err != nil {
			continue
		}
		if info, err := os.Stat(abs); err == nil && info.IsDir() {
			return "no Dockerfile or Containerfile found in " + abs
		}
	}
	return "no Dockerfiles found"
}
