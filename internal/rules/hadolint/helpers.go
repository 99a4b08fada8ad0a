// Package hadolint implements the hadolint rules docksift carries over.
package hadolint

import (
	"strconv"
	"strings"

	"github.com/distribution/reference"

	"github.com/wharflab/docksift/internal/detector"
	"github.com/wharflab/docksift/internal/resolve"
	"github.com/wharflab/docksift/internal/rules"
)

const wikiBase = "https://github.com/hadolint/hadolint/wiki/"

// runCommands returns the simple commands run by RUN instructions,
// including ONBUILD RUN triggers.
func runCommands(input rules.LintInput) [][]*resolve.Resolution {
	var out [][]*resolve.Resolution
	for _, s := range input.Streams() {
		if s.Instruction.Name() != "RUN" {
			continue
		}
		for _, args := range s.Commands() {
			out = append(out, unwrap(args))
		}
	}
	return out
}

var isWrapper = detector.Program("env", "nice", "ionice", "timeout", "nohup", "exec", "command", "time", "stdbuf")

// wrapperOptionsWithValues maps wrapper commands to their flags that consume the next argument.
// These flags take a value as a separate argument (not with =), so we need to skip that value.
var wrapperOptionsWithValues = map[string]map[string]bool{
	"env": {
		"-u": true, "--unset": true,
		"-C": true, "--chdir": true,
		"-S": true, "--split-string": true,
	},
	"nice": {
		"-n": true, "--adjustment": true,
	},
	"ionice": {
		"-c": true, "--class": true,
		"-n": true, "--classdata": true,
		"-p": true, "--pid": true,
		"-P": true, "--pgid": true,
		"-u": true, "--uid": true,
	},
	"timeout": {
		"-k": true, "--kill-after": true,
		"-s": true, "--signal": true,
	},
	"stdbuf": {
		"-i": true, "-o": true, "-e": true,
	},
}

// unwrap strips wrapper commands such as env, nice and timeout, with their
// flags, assignments and numeric operands, and returns the wrapped command.
// It stops at the first unresolved argument.
func unwrap(args []*resolve.Resolution) []*resolve.Resolution {
	for len(args) > 0 && args[0].IsResolved() && isWrapper(args[0].Value) {
		name := args[0].Value
		if i := strings.LastIndexByte(name, '/'); i >= 0 {
			name = name[i+1:]
		}
		withValues := wrapperOptionsWithValues[name]

		i := 1
	operands:
		for ; i < len(args) && args[i].IsResolved(); i++ {
			v := args[i].Value
			switch {
			case detector.IsFlag(v):
				if withValues[v] {
					i++
				}
			case strings.Contains(v, "=") || isNumeric(v):
			default:
				break operands
			}
		}
		if i >= len(args) {
			return nil
		}
		args = args[i:]
	}
	return args
}

// isNumeric reports whether s is a number or a duration such as 10s.
func isNumeric(s string) bool {
	s = strings.TrimRight(s, "smhd")
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// imageRef wraps a parsed image reference.
type imageRef struct {
	named reference.Named
}

// parseImageRef parses image, or returns nil when it is not a valid
// reference.
func parseImageRef(image string) *imageRef {
	named, err := reference.ParseNormalizedNamed(image)
	if err != nil {
		return nil
	}
	return &imageRef{named: named}
}

// IsLatestTag reports whether the reference is explicitly tagged latest.
func (r *imageRef) IsLatestTag() bool {
	tagged, ok := r.named.(reference.NamedTagged)
	return ok && tagged.Tag() == "latest"
}

// HasDigest reports whether the reference is pinned by digest.
func (r *imageRef) HasDigest() bool {
	_, ok := r.named.(reference.Digested)
	return ok
}

// FamiliarName returns the short name, such as ubuntu for
// docker.io/library/ubuntu:latest.
func (r *imageRef) FamiliarName() string {
	return reference.FamiliarName(r.named)
}
