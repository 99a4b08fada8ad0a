// Package directive reads suppression comments from a Dockerfile:
//
//	# docksift ignore=DL3007,insecure-tls
//	# docksift global ignore=hadolint/*
//	# hadolint ignore=DL3008
//	# check=skip=JSONArgsRecommended
//
// Without "global" a directive covers the next instruction and all of its
// continuation and heredoc lines. "global" and buildx check=skip cover the
// whole file. Any form may end in ";reason=<text>".
package directive

import (
	"math"
	"strings"

	"github.com/wharflab/docksift/internal/rules"
	"github.com/wharflab/docksift/internal/tree"
)

type Scope int

const (
	ScopeNextLine Scope = iota
	ScopeFile
)

func (s Scope) String() string {
	switch s {
	case ScopeNextLine:
		return "next-line"
	case ScopeFile:
		return "global"
	}
	return "unknown"
}

// Syntax names the tool whose comment format a directive used.
type Syntax string

const (
	SyntaxDocksift Syntax = "docksift"
	SyntaxHadolint Syntax = "hadolint"
	SyntaxBuildx   Syntax = "buildx"
)

// Lines is an inclusive range of 1-based lines.
type Lines struct {
	First, Last int
}

// AllLines covers every line of a file.
var AllLines = Lines{First: 1, Last: math.MaxInt}

// NoLines covers nothing.
var NoLines = Lines{First: -1, Last: -1}

func (l Lines) Contains(line int) bool {
	return l.First <= line && line <= l.Last
}

// Directive is one parsed suppression comment.
type Directive struct {
	Scope  Scope
	Syntax Syntax
	// Rules holds the codes as written, bare or namespaced. "all" and
	// "<namespace>/*" are wildcards.
	Rules  []string
	Reason string

	// Line is where the comment is and Range spans it.
	Line  int
	Range tree.TextRange
	// Lines are the lines whose violations the directive suppresses.
	Lines Lines
	Text  string
}

// Suppresses reports whether d silences code on line.
func (d *Directive) Suppresses(code string, line int) bool {
	return d.Lines.Contains(line) && d.Names(code)
}

// Names reports whether one of d's rules selects code.
func (d *Directive) Names(code string) bool {
	for _, r := range d.Rules {
		if strings.EqualFold(r, "all") || ruleMatches(r, code) {
			return true
		}
	}
	return false
}

// ruleMatches compares namespaces only when both sides have one, so
// "DL3007" selects "hadolint/DL3007" and the reverse.
func ruleMatches(pattern, code string) bool {
	pns, pname, pok := rules.Namespace(pattern)
	cns, cname, cok := rules.Namespace(code)
	if pok && cok && pns != cns {
		return false
	}
	return (pok && cok && pname == "*") || pname == cname
}

// Result holds the directives of one file and the comments that looked
// like directives but did not parse.
type Result struct {
	Directives []Directive
	Errors     []Error
}

// Error is a malformed or, when validating, unknown-rule directive.
type Error struct {
	Line    int
	Range   tree.TextRange
	Message string
	Text    string
}
