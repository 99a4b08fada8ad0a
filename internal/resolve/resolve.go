// Package resolve reduces parsed arguments to concrete strings.
//
// A [Resolution] is either a resolved value or an explicit unresolved marker.
// An argument is unresolved when it references a variable that has no known
// value at that point of the Dockerfile, when it is a heredoc, or when the
// BuildKit word lexer rejects it. Consumers must treat unresolved arguments
// as a third state, never as a match.
package resolve

import (
	"strings"

	"github.com/moby/buildkit/frontend/dockerfile/shell"

	"github.com/wharflab/docksift/internal/tree"
)

// Status tells whether a Resolution carries a value.
type Status int

const (
	Resolved Status = iota
	Unresolved
)

func (s Status) String() string {
	if s == Resolved {
		return "resolved"
	}
	return "unresolved"
}

// Resolution is the reduction of one argument to a literal value.
type Resolution struct {
	// Value is the expanded argument. Empty when unresolved.
	Value  string
	Status Status
	// Argument is the node the value comes from. Several resolutions may
	// share one argument when a shell payload is split into words.
	Argument *tree.Argument
}

// IsResolved reports whether r carries a value.
func (r *Resolution) IsResolved() bool { return r != nil && r.Status == Resolved }

func (r *Resolution) String() string {
	if !r.IsResolved() {
		return "<unresolved>"
	}
	return r.Value
}

// Values returns the values of rs, with "<unresolved>" for unresolved ones.
func Values(rs []*Resolution) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.String()
	}
	return out
}

// Resolver resolves the arguments of one file. It caches per-stage scopes
// and is not safe for concurrent use.
type Resolver struct {
	file *tree.File
	lex  *shell.Lex
	raw  *shell.Lex

	// global is the scope after every global ARG; globalAt holds the scope
	// before each of them.
	global   *Scope
	globalAt map[tree.Instruction]*Scope
	scopes   map[tree.Instruction]*Scope
	done     map[*tree.Stage]bool
}

// New returns a resolver for file.
func New(file *tree.File) *Resolver {
	escape := rune('\\')
	if file != nil && file.Escape != 0 {
		escape = file.Escape
	}
	raw := shell.NewLex(escape)
	raw.SkipUnsetEnv = true

	r := &Resolver{
		file:     file,
		lex:      shell.NewLex(escape),
		raw:      raw,
		globalAt: make(map[tree.Instruction]*Scope),
		scopes:   make(map[tree.Instruction]*Scope),
		done:     make(map[*tree.Stage]bool),
	}
	r.global = NewScope(automaticArgs(targetStage(file)))
	if file != nil {
		for _, a := range file.Args {
			r.globalAt[a] = r.global.Clone()
			r.declare(r.global, a)
		}
	}
	return r
}

// targetStage is the stage built by default: the last one.
func targetStage(file *tree.File) string {
	if file == nil || len(file.Stages) == 0 {
		return ""
	}
	return file.Stages[len(file.Stages)-1].Name()
}

// ScopeAt returns the variables known when instr runs: the automatic
// platform ARGs, the global ARGs with a default, then the ARG and ENV
// instructions of the stage that precede instr. An ONBUILD trigger sees the
// scope of its ONBUILD instruction.
func (r *Resolver) ScopeAt(instr tree.Instruction) *Scope {
	instr = topLevel(instr)
	if s, ok := r.globalAt[instr]; ok {
		return s
	}
	if r.file == nil {
		return r.global
	}
	stage := r.file.StageOf(instr)
	if stage == nil {
		return r.global
	}
	if !r.done[stage] {
		r.walkStage(stage)
	}
	if s, ok := r.scopes[instr]; ok {
		return s
	}
	return r.global
}

func topLevel(instr tree.Instruction) tree.Instruction {
	for instr != nil {
		parent, ok := instr.Parent().(*tree.OnBuild)
		if !ok {
			break
		}
		instr = parent
	}
	return instr
}

func (r *Resolver) walkStage(stage *tree.Stage) {
	r.done[stage] = true
	cur := r.global.Clone()
	r.scopes[stage.From] = r.global
	for _, in := range stage.Instructions {
		r.scopes[in] = cur.Clone()
		if kv, ok := in.(*tree.KeyValue); ok {
			r.declare(cur, kv)
		}
	}
}

// declare applies the pairs of an ARG or ENV instruction to scope. Values
// are expanded against the scope as it was before the instruction. A
// variable whose value cannot be determined is removed from the scope.
func (r *Resolver) declare(scope *Scope, kv *tree.KeyValue) {
	name := kv.Name()
	if name != "ARG" && name != "ENV" {
		return
	}
	before := scope.Clone()
	for _, p := range kv.Pairs {
		key := strings.Trim(p.Key.Value, `"'`)
		if p.Value == nil {
			// ARG NAME keeps a value inherited from a global ARG. Otherwise
			// the value is a build-time input.
			if _, ok := before.Get(key); !ok {
				scope.Unset(key)
			}
			continue
		}
		res := r.Resolve(p.Value, before)
		if res.IsResolved() {
			scope.Set(key, res.Value)
		} else {
			scope.Unset(key)
		}
	}
}

// Resolve reduces arg against scope.
func (r *Resolver) Resolve(arg *tree.Argument, scope *Scope) *Resolution {
	res := &Resolution{Argument: arg, Status: Unresolved}
	if arg == nil || len(arg.Expressions) == 0 {
		return res
	}
	if s, ok := arg.Expressions[0].(*tree.ExecString); ok && len(arg.Expressions) == 1 {
		res.Value, res.Status = s.Decoded, Resolved
		return res
	}

	lex := r.lex
	if inRawDocument(arg) {
		lex, scope = r.raw, nil
	}
	for _, e := range arg.Expressions {
		if !resolvable(e, scope) {
			return res
		}
	}
	out, err := lex.ProcessWordWithMatches(arg.Text(), scope)
	if err != nil {
		return res
	}
	res.Value, res.Status = out.Result, Resolved
	return res
}

// Arguments resolves args in the scope of instr.
func (r *Resolver) Arguments(instr tree.Instruction, args []*tree.Argument) []*Resolution {
	scope := r.ScopeAt(instr)
	out := make([]*Resolution, len(args))
	for i, a := range args {
		out[i] = r.Resolve(a, scope)
	}
	return out
}

func resolvable(e tree.Expression, scope *Scope) bool {
	switch e := e.(type) {
	case *tree.Heredoc:
		return false
	case *tree.Variable:
		if _, ok := scope.Get(e.Name); ok {
			return true
		}
		return e.HasDefault()
	case *tree.QuotedString:
		for _, p := range e.Parts {
			if !resolvable(p, scope) {
				return false
			}
		}
	}
	return true
}

// inRawDocument reports whether arg is a body word of a heredoc whose tag
// is quoted, where variables are not expanded.
func inRawDocument(arg *tree.Argument) bool {
	h, ok := arg.Parent().(*tree.Heredoc)
	if !ok {
		return false
	}
	for _, d := range h.Documents {
		for _, line := range d.Lines {
			for _, a := range line {
				if a == arg {
					return !d.Expand
				}
			}
		}
	}
	return false
}
