package shell

import (
	"path"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// Word is one argv word of a simple command.
type Word struct {
	Value string
	// Literal is false when the word depends on an expansion performed at
	// run time, such as $VAR or $(cmd). Value is then the source text.
	Literal bool
}

// SimpleCommands parses script and returns the argv words of every simple
// command it runs, in source order, including commands nested in
// substitutions, subshells and control structures. It returns false when
// the script does not parse.
func SimpleCommands(script string, variant Variant) ([][]Word, bool) {
	parser := syntax.NewParser(
		syntax.Variant(variant.lang()),
		syntax.KeepComments(false),
	)

	file, err := parser.Parse(strings.NewReader(script), "")
	if err != nil {
		return nil, false
	}

	var out [][]Word
	syntax.Walk(file, func(node syntax.Node) bool {
		call, ok := node.(*syntax.CallExpr)
		if !ok || len(call.Args) == 0 {
			return true
		}
		words := make([]Word, 0, len(call.Args))
		for _, w := range call.Args {
			words = append(words, wordOf(script, w))
		}
		out = append(out, words)
		return true
	})
	return out, true
}

// wordOf renders a word made of literals and quotes. Any other part makes
// the word non-literal.
func wordOf(script string, w *syntax.Word) Word {
	var b strings.Builder
	for _, part := range w.Parts {
		switch p := part.(type) {
		case *syntax.Lit:
			b.WriteString(unescape(p.Value))
		case *syntax.SglQuoted:
			b.WriteString(p.Value)
		case *syntax.DblQuoted:
			for _, dp := range p.Parts {
				lit, ok := dp.(*syntax.Lit)
				if !ok {
					return Word{Value: sourceOf(script, w)}
				}
				b.WriteString(lit.Value)
			}
		default:
			return Word{Value: sourceOf(script, w)}
		}
	}
	return Word{Value: b.String(), Literal: true}
}

// unescape drops the backslashes of an unquoted literal.
func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func sourceOf(script string, n syntax.Node) string {
	start, end := int(n.Pos().Offset()), int(n.End().Offset())
	if start < 0 || end > len(script) || start > end {
		return ""
	}
	return script[start:end]
}

// shells are the interpreters whose -c payload is a script.
var shells = map[string]bool{
	"sh":   true,
	"bash": true,
	"dash": true,
	"ash":  true,
	"zsh":  true,
	"ksh":  true,
	"mksh": true,
}

// IsShell reports whether name, possibly a path, names a POSIX-like shell.
func IsShell(name string) bool {
	return shells[path.Base(name)]
}

// CommandFlagPayload returns the index of the script operand of a shell
// invocation such as "sh -c SCRIPT" or "bash -ec SCRIPT". argv[0] must name
// a shell. It returns -1 when argv does not run a script given inline.
func CommandFlagPayload(argv []string) int {
	if len(argv) == 0 || !IsShell(argv[0]) {
		return -1
	}
	for i := 1; i < len(argv); i++ {
		arg := argv[i]
		if arg == "--" || !strings.HasPrefix(arg, "-") || strings.HasPrefix(arg, "--") {
			return -1
		}
		if strings.ContainsRune(arg[1:], 'c') {
			if i+1 < len(argv) {
				return i + 1
			}
			return -1
		}
	}
	return -1
}
