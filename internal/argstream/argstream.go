// Package argstream turns instructions into the argument streams that
// detectors consume. A stream is the argv of one command as it would run:
// the instruction arguments themselves, every simple command of an inline
// "sh -c" script, and every line of a heredoc script.
package argstream

import (
	"regexp"
	"slices"
	"strings"

	"github.com/wharflab/docksift/internal/resolve"
	"github.com/wharflab/docksift/internal/shell"
	"github.com/wharflab/docksift/internal/tree"
)

// maxShellDepth bounds nested "sh -c" unwrapping.
const maxShellDepth = 4

// Stream is the resolved argv of one command.
type Stream struct {
	// Instruction is the instruction the command belongs to. For an ONBUILD
	// trigger it is the inner instruction.
	Instruction tree.Instruction
	Args        []*resolve.Resolution
}

// Values returns the stream values, with unresolved arguments rendered as
// "<unresolved>".
func (s Stream) Values() []string {
	return resolve.Values(s.Args)
}

// Commands splits the stream at unquoted shell control operators written as
// separate words ("&&", "||", ";", "|", "&") or as a ";" glued to the end
// of a word, and drops leading variable assignments from each command.
// Empty commands are omitted.
func (s Stream) Commands() [][]*resolve.Resolution {
	var (
		out [][]*resolve.Resolution
		cmd []*resolve.Resolution
	)
	flush := func() {
		for len(cmd) > 0 && isAssignment(cmd[0]) {
			cmd = cmd[1:]
		}
		if len(cmd) > 0 {
			out = append(out, cmd)
		}
		cmd = nil
	}
	for _, a := range s.Args {
		switch {
		case isOperator(a):
			flush()
		case isTerminated(a):
			word := *a
			word.Value = strings.TrimSuffix(a.Value, ";")
			cmd = append(cmd, &word)
			flush()
		default:
			cmd = append(cmd, a)
		}
	}
	flush()
	return out
}

var controlOperators = map[string]bool{
	"&&": true,
	"||": true,
	";":  true,
	"|":  true,
	"&":  true,
}

// isOperator reports whether r is an unquoted control operator word.
func isOperator(r *resolve.Resolution) bool {
	return r.IsResolved() && controlOperators[r.Value] &&
		r.Argument != nil && r.Argument.Text() == r.Value
}

// isTerminated reports whether r is a word followed by an unquoted,
// unescaped ";", as in "echo done; make".
func isTerminated(r *resolve.Resolution) bool {
	if !r.IsResolved() || r.Argument == nil || len(r.Value) < 2 || !strings.HasSuffix(r.Value, ";") {
		return false
	}
	text := r.Argument.Text()
	return strings.HasSuffix(text, ";") && !strings.HasSuffix(text, `\;`)
}

var reAssignment = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*=`)

func isAssignment(r *resolve.Resolution) bool {
	return r.IsResolved() && reAssignment.MatchString(r.Value)
}

// Streams returns the argument streams of instr. Instructions that do not
// run a command have none.
func Streams(res *resolve.Resolver, instr tree.Instruction) []Stream {
	switch in := instr.(type) {
	case *tree.Command:
		switch in.Name() {
		case "RUN", "CMD", "ENTRYPOINT":
			return commandStreams(res, in, in, res.ScopeAt(in))
		}
	case *tree.OnBuild:
		if in.Inner != nil {
			return Streams(res, in.Inner)
		}
	case *tree.Healthcheck:
		if in.Cmd != nil {
			return commandStreams(res, in, in.Cmd, res.ScopeAt(in))
		}
	}
	return nil
}

func commandStreams(res *resolve.Resolver, instr tree.Instruction, cmd *tree.Command, scope *resolve.Scope) []Stream {
	args := cmd.Arguments()
	main := make([]*resolve.Resolution, len(args))
	for i, a := range args {
		main[i] = res.Resolve(a, scope)
	}

	out := []Stream{{Instruction: instr, Args: main}}
	out = append(out, shellStreams(instr, main, 0)...)
	if !cmd.IsExec() {
		out = append(out, heredocStreams(res, instr, cmd, main, scope)...)
	}
	return out
}

// shellStreams splits the script of "sh -c SCRIPT" into one stream per
// simple command. The words point at the script argument.
func shellStreams(instr tree.Instruction, argv []*resolve.Resolution, depth int) []Stream {
	if depth >= maxShellDepth || len(argv) == 0 {
		return nil
	}
	values := make([]string, 0, len(argv))
	for _, a := range argv {
		if !a.IsResolved() {
			break
		}
		values = append(values, a.Value)
	}
	i := shell.CommandFlagPayload(values)
	if i < 0 {
		return nil
	}
	payload := argv[i]
	commands, ok := shell.SimpleCommands(payload.Value, shell.VariantFromShell(values[0]))
	if !ok {
		return nil
	}

	var out []Stream
	for _, words := range commands {
		s := Stream{Instruction: instr, Args: make([]*resolve.Resolution, len(words))}
		for j, w := range words {
			r := &resolve.Resolution{Value: w.Value, Status: resolve.Unresolved, Argument: payload.Argument}
			if w.Literal {
				r.Status = resolve.Resolved
			}
			s.Args[j] = r
		}
		out = append(out, s)
		out = append(out, shellStreams(instr, s.Args, depth+1)...)
	}
	return out
}

// heredocStreams returns one stream per line of a heredoc script run by the
// default shell or an explicit shell. The command is made of the arguments
// before the first heredoc and the words after its markers.
func heredocStreams(res *resolve.Resolver, instr tree.Instruction, cmd *tree.Command, argv []*resolve.Resolution, scope *resolve.Scope) []Stream {
	if cmd.Name() != "RUN" {
		return nil
	}
	for i, a := range cmd.Args {
		h := a.Heredoc()
		if h == nil {
			continue
		}
		command := slices.Clone(argv[:i])
		for _, t := range h.Trailing {
			command = append(command, res.Resolve(t, scope))
		}
		if len(command) > 0 && (!command[0].IsResolved() || !shell.IsShell(command[0].Value)) {
			return nil
		}
		if len(h.Documents) == 0 {
			return nil
		}
		var out []Stream
		for _, line := range joinContinuations(h.Documents[0].Lines) {
			s := Stream{Instruction: instr, Args: make([]*resolve.Resolution, len(line))}
			for j, word := range line {
				s.Args[j] = res.Resolve(word, scope)
			}
			out = append(out, s)
			out = append(out, shellStreams(instr, s.Args, 0)...)
		}
		return out
	}
	return nil
}

// joinContinuations merges a line ending in a lone backslash with the line
// after it.
func joinContinuations(lines [][]*tree.Argument) [][]*tree.Argument {
	var out [][]*tree.Argument
	var pending []*tree.Argument
	for _, line := range lines {
		if n := len(line); n > 0 && strings.TrimSpace(line[n-1].Text()) == `\` {
			pending = append(pending, line[:n-1]...)
			continue
		}
		out = append(out, append(pending, line...))
		pending = nil
	}
	if len(pending) > 0 {
		out = append(out, pending)
	}
	return out
}
