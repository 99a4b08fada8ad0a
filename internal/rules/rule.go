package rules

import (
	"github.com/wharflab/docksift/internal/argstream"
	"github.com/wharflab/docksift/internal/resolve"
	"github.com/wharflab/docksift/internal/sourcemap"
	"github.com/wharflab/docksift/internal/tree"
)

// Rule checks one parsed Dockerfile.
type Rule interface {
	Metadata() RuleMetadata
	Check(input LintInput) []Violation
}

// ConfigurableRule is a rule with options. The linter passes the decoded
// options in LintInput.Config; without a config table the rule gets
// DefaultConfig.
type ConfigurableRule interface {
	Rule
	DefaultConfig() any
	ValidateConfig(config any) error
}

// RuleMetadata describes a rule for configuration, reports and
// documentation.
type RuleMetadata struct {
	// Code is the namespaced identifier, e.g. "hadolint/DL3004" or
	// "docksift/insecure-tls".
	Code            string
	Name            string
	Description     string
	DocURL          string
	DefaultSeverity Severity
	// Category groups rules in reports, e.g. "security".
	Category         string
	EnabledByDefault bool
}

// LintInput is what a rule sees of one file. The linter only calls Check
// on a file that parsed, so Tree, Source, SourceMap and Resolver are set.
//
// Rules must not modify the input. The Resolver caches scopes and belongs
// to the goroutine linting this file.
type LintInput struct {
	File      string
	Tree      *tree.File
	Source    []byte
	SourceMap *sourcemap.SourceMap
	Resolver  *resolve.Resolver
	// Config holds the rule's decoded options, if it has any.
	Config any
}

// Instructions lists every instruction in source order, global ARGs
// included.
func (in LintInput) Instructions() []tree.Instruction {
	if in.Tree == nil {
		return nil
	}
	return in.Tree.Instructions()
}

// Streams lists the argument streams of every instruction, in source
// order. This is what command detectors run over.
func (in LintInput) Streams() []argstream.Stream {
	var out []argstream.Stream
	for _, instr := range in.Instructions() {
		out = append(out, argstream.Streams(in.Resolver, instr)...)
	}
	return out
}

// SnippetForLocation returns the source lines loc touches, or "" for a
// file-level location.
func (in LintInput) SnippetForLocation(loc Location) string {
	if loc.IsFileLevel() || in.SourceMap == nil {
		return ""
	}
	return in.SourceMap.Snippet(loc.Start.Line-1, loc.EndLine()-1)
}
