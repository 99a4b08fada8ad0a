// Package docksift implements docksift's own security rules. Most of them
// recognize shell invocations with detectors run over argument streams.
package docksift

import (
	"github.com/wharflab/docksift/internal/detector"
	"github.com/wharflab/docksift/internal/resolve"
	"github.com/wharflab/docksift/internal/rules"
	"github.com/wharflab/docksift/internal/tree"
)

const docBase = "https://github.com/wharflab/docksift/blob/main/docs/rules/"

// command is one simple command found in an instruction.
type command struct {
	instr tree.Instruction
	args  []*resolve.Resolution
}

// commands returns every simple command run by the file.
func commands(input rules.LintInput) []command {
	var out []command
	for _, s := range input.Streams() {
		for _, args := range s.Commands() {
			out = append(out, command{instr: s.Instruction, args: args})
		}
	}
	return out
}

// search runs detectors over every command of the file and returns the
// matches of the first detector that matches each command.
func search(input rules.LintInput, detectors []*detector.Detector) [][]*resolve.Resolution {
	var out [][]*resolve.Resolution
	for _, c := range commands(input) {
		out = append(out, detector.MatchAny(detectors, c.args)...)
	}
	return out
}

func newViolation(input rules.LintInput, meta rules.RuleMetadata, match []*resolve.Resolution, msg string) rules.Violation {
	return rules.NewMatchViolation(input.File, meta, match, msg)
}

// copyFlags returns the flags of a COPY or ADD instruction, looking through
// ONBUILD.
func copyFlags(instr tree.Instruction) ([]*tree.Flag, bool) {
	if ob, ok := instr.(*tree.OnBuild); ok {
		instr = ob.Inner
	}
	g, ok := instr.(*tree.Generic)
	if !ok || (g.Name() != "COPY" && g.Name() != "ADD") {
		return nil, false
	}
	return g.Flags, true
}
