// Package linter provides the lint pipeline shared by the CLI commands.
//
// The pipeline: config discovery → parse → resolver → rule execution → violation collection.
// Callers use [LintFile] or [LintFiles] to run the pipeline and then apply the
// processor chain from [CLIProcessors] to filter and transform the results.
package linter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/wharflab/docksift/internal/config"
	"github.com/wharflab/docksift/internal/dockerfile"
	"github.com/wharflab/docksift/internal/resolve"
	"github.com/wharflab/docksift/internal/rules"
	_ "github.com/wharflab/docksift/internal/rules/all" // Register all rules.
)

var bom = []byte("\ufeff")

// Input configures a single invocation of [LintFile].
type Input struct {
	// FilePath is used for config discovery and violation locations.
	FilePath string

	// Content is the file content to lint. If nil, LintFile reads from FilePath.
	Content []byte

	// Config is the resolved configuration. If nil, LintFile loads from FilePath.
	Config *config.Config

	// Registry holds the rules to run. Nil means the default registry.
	Registry *rules.Registry
}

// Result contains the output of [LintFile].
type Result struct {
	// FilePath is the linted file, as given in the Input.
	FilePath string

	// Err is set by [LintFiles] when the file could not be linted. The
	// other fields are then empty.
	Err error

	// Violations are raw violations before processor filtering.
	Violations []rules.Violation

	// ParseResult is the parsed Dockerfile. Nil when parsing failed.
	ParseResult *dockerfile.ParseResult

	// Source is the file content without a byte-order mark.
	Source []byte

	// Config is the resolved config (loaded or passed in via Input).
	Config *config.Config
}

// LintFile runs the full lint pipeline for one file.
// It returns raw violations before processor filtering. A syntax error is
// not an error: it is reported as a violation and no rules run.
func LintFile(ctx context.Context, input Input) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log := logrus.WithField("file", input.FilePath)

	content := input.Content
	if content == nil {
		var err error
		content, err = os.ReadFile(input.FilePath)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", input.FilePath, err)
		}
	}

	cfg := input.Config
	if cfg == nil {
		var err error
		cfg, err = config.Load(input.FilePath)
		if err != nil {
			log.WithError(err).Warn("failed to load config, using defaults")
			cfg = config.Default()
		}
	}

	registry := input.Registry
	if registry == nil {
		registry = rules.DefaultRegistry()
	}

	result := &Result{
		FilePath: input.FilePath,
		Source:   bytes.TrimPrefix(content, bom),
		Config: cfg,
	}

	parseResult, err := dockerfile.ParseString(string(content))
	if err != nil {
		var perr *dockerfile.ParseError
		if !errors.As(err, &perr) {
			return nil, fmt.Errorf("parse %s: %w", input.FilePath, err)
		}
		log.WithField("line", perr.Line).Warnf("syntax error: %s", perr.Detail)
		result.Violations = []rules.Violation{syntaxErrorViolation(input.FilePath, perr)}
		return result, nil
	}
	result.ParseResult = parseResult
	result.Source = parseResult.Source

	base := rules.LintInput{
		File:      input.FilePath,
		Tree:      parseResult.File,
		Source:    parseResult.Source,
		SourceMap: parseResult.Preprocessed.SourceMap,
		Resolver:  resolve.New(parseResult.File),
	}

	enabled := registry.Filter(enabledBy(cfg))
	log.WithField("rules", len(enabled)).Debug("linting")

	for _, rule := range enabled {
		ruleInput := base
		ruleInput.Config = cfg.Rules.GetOptions(rule.Metadata().Code)
		result.Violations = append(result.Violations, rule.Check(ruleInput)...)
	}

	return result, nil
}

// syntaxErrorViolation reports a parse failure at its position.
func syntaxErrorViolation(file string, perr *dockerfile.ParseError) rules.Violation {
	line := max(perr.Line, 1)
	col := max(perr.Column, 0)
	return rules.NewViolation(
		rules.NewRangeLocation(file, line, col, line, col),
		rules.SyntaxErrorCode,
		perr.Detail,
		rules.SeverityError,
	)
}

// LintFiles lints inputs concurrently, at most jobs at a time (GOMAXPROCS
// when jobs is not positive). Results keep the order of inputs. A file that
// cannot be linted gets a Result with Err set and does not stop the others.
// The returned error is only set when ctx is done.
func LintFiles(ctx context.Context, inputs []Input, jobs int) ([]*Result, error) {
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	results := make([]*Result, len(inputs))
	var g errgroup.Group
	g.SetLimit(jobs)

	for i, input := range inputs {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			res, err := LintFile(ctx, input)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				logrus.WithField("file", input.FilePath).WithError(err).Debug("lint failed")
				res = &Result{FilePath: input.FilePath, Err: err}
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
