package tree

import "strings"

// Instruction is a Dockerfile instruction. The set of implementations is
// closed: *From, *Command, *KeyValue, *OnBuild, *Healthcheck and *Generic.
type Instruction interface {
	Node
	// KeywordToken returns the instruction keyword as written.
	KeywordToken() *Token
	// Name returns the upper-cased keyword.
	Name() string

	instruction()
}

func keywordName(t *Token) string {
	if t == nil {
		return ""
	}
	return strings.ToUpper(t.Value)
}

func appendFlags(out []Node, flags []*Flag) []Node {
	for _, f := range flags {
		out = append(out, f)
	}
	return out
}

func appendArgs(out []Node, args []*Argument) []Node {
	for _, a := range args {
		out = append(out, a)
	}
	return out
}

// FlagValue returns the value of the named flag, or "" and false.
func FlagValue(flags []*Flag, name string) (string, bool) {
	for _, f := range flags {
		if strings.EqualFold(f.Key(), name) {
			return f.Value.Text(), true
		}
	}
	return "", false
}

// From is a FROM instruction.
type From struct {
	base
	Keyword *Token
	Flags   []*Flag
	Image   *Argument
	// As and Alias are nil when the stage is unnamed.
	As    *Token
	Alias *Argument
}

func (f *From) TextRange() TextRange { return spanOf(f.Children()) }

func (f *From) Children() []Node {
	out := appendFlags([]Node{f.Keyword}, f.Flags)
	out = append(out, f.Image)
	if f.As != nil {
		out = append(out, f.As, f.Alias)
	}
	return out
}

func (f *From) KeywordToken() *Token { return f.Keyword }
func (f *From) Name() string         { return keywordName(f.Keyword) }
func (*From) instruction()           {}

// ExecForm is a JSON array of strings.
type ExecForm struct {
	base
	Open     *Token
	Elements []*Argument
	Close    *Token
}

func (e *ExecForm) TextRange() TextRange { return spanOf(e.Children()) }

func (e *ExecForm) Children() []Node {
	out := appendArgs([]Node{e.Open}, e.Elements)
	return append(out, e.Close)
}

// Command is a RUN, CMD, ENTRYPOINT or SHELL instruction. Exactly one of
// Exec and Args is set; heredocs appear as Heredoc expressions in Args.
type Command struct {
	base
	Keyword *Token
	Flags   []*Flag
	Exec    *ExecForm
	Args    []*Argument
}

func (c *Command) TextRange() TextRange { return spanOf(c.Children()) }

func (c *Command) Children() []Node {
	var out []Node
	if c.Keyword != nil {
		out = append(out, c.Keyword)
	}
	out = appendFlags(out, c.Flags)
	if c.Exec != nil {
		return append(out, c.Exec)
	}
	return appendArgs(out, c.Args)
}

func (c *Command) KeywordToken() *Token { return c.Keyword }
func (c *Command) Name() string         { return keywordName(c.Keyword) }
func (*Command) instruction()           {}

// IsExec reports whether the command uses the JSON exec form.
func (c *Command) IsExec() bool { return c.Exec != nil }

// Arguments returns the command arguments regardless of form.
func (c *Command) Arguments() []*Argument {
	if c.Exec != nil {
		return c.Exec.Elements
	}
	return c.Args
}

// Heredocs returns the heredoc expressions of a shell-form command.
func (c *Command) Heredocs() []*Heredoc {
	var out []*Heredoc
	for _, a := range c.Args {
		if h := a.Heredoc(); h != nil {
			out = append(out, h)
		}
	}
	return out
}

// Pair is one key/value pair of an ENV, LABEL or ARG instruction.
type Pair struct {
	base
	Key *Token
	// Value is nil for an ARG without a default.
	Value *Argument
}

func (p *Pair) TextRange() TextRange { return spanOf(p.Children()) }

func (p *Pair) Children() []Node {
	if p.Value == nil {
		return []Node{p.Key}
	}
	return []Node{p.Key, p.Value}
}

// KeyValue is an ENV, LABEL or ARG instruction.
type KeyValue struct {
	base
	Keyword *Token
	Pairs   []*Pair
}

func (kv *KeyValue) TextRange() TextRange { return spanOf(kv.Children()) }

func (kv *KeyValue) Children() []Node {
	out := []Node{kv.Keyword}
	for _, p := range kv.Pairs {
		out = append(out, p)
	}
	return out
}

func (kv *KeyValue) KeywordToken() *Token { return kv.Keyword }
func (kv *KeyValue) Name() string         { return keywordName(kv.Keyword) }
func (*KeyValue) instruction()            {}

// OnBuild is an ONBUILD instruction wrapping a trigger instruction.
type OnBuild struct {
	base
	Keyword *Token
	Inner   Instruction
}

func (o *OnBuild) TextRange() TextRange { return spanOf(o.Children()) }
func (o *OnBuild) Children() []Node     { return []Node{o.Keyword, o.Inner} }
func (o *OnBuild) KeywordToken() *Token { return o.Keyword }
func (o *OnBuild) Name() string         { return keywordName(o.Keyword) }
func (*OnBuild) instruction()           {}

// Healthcheck is a HEALTHCHECK instruction. Kind holds NONE or CMD; Cmd is
// set for the CMD kind and has a nil keyword.
type Healthcheck struct {
	base
	Keyword *Token
	Flags   []*Flag
	Kind    *Token
	Cmd     *Command
}

func (h *Healthcheck) TextRange() TextRange { return spanOf(h.Children()) }

func (h *Healthcheck) Children() []Node {
	out := appendFlags([]Node{h.Keyword}, h.Flags)
	out = append(out, h.Kind)
	if h.Cmd != nil {
		out = append(out, h.Cmd)
	}
	return out
}

func (h *Healthcheck) KeywordToken() *Token { return h.Keyword }
func (h *Healthcheck) Name() string         { return keywordName(h.Keyword) }
func (*Healthcheck) instruction()           {}

// IsNone reports whether the healthcheck disables an inherited check.
func (h *Healthcheck) IsNone() bool { return strings.EqualFold(h.Kind.Value, "NONE") }

// Generic is any other instruction: ADD, COPY, EXPOSE, VOLUME, USER,
// WORKDIR, STOPSIGNAL and MAINTAINER.
type Generic struct {
	base
	Keyword *Token
	Flags   []*Flag
	Exec    *ExecForm
	Args    []*Argument
}

func (g *Generic) TextRange() TextRange { return spanOf(g.Children()) }

func (g *Generic) Children() []Node {
	out := appendFlags([]Node{g.Keyword}, g.Flags)
	if g.Exec != nil {
		return append(out, g.Exec)
	}
	return appendArgs(out, g.Args)
}

func (g *Generic) KeywordToken() *Token { return g.Keyword }
func (g *Generic) Name() string         { return keywordName(g.Keyword) }
func (*Generic) instruction()           {}

// Arguments returns the instruction arguments regardless of form.
func (g *Generic) Arguments() []*Argument {
	if g.Exec != nil {
		return g.Exec.Elements
	}
	return g.Args
}

// Stage is a FROM instruction and the instructions that follow it.
type Stage struct {
	base
	From         *From
	Instructions []Instruction
}

func (s *Stage) TextRange() TextRange { return spanOf(s.Children()) }

func (s *Stage) Children() []Node {
	out := make([]Node, 0, len(s.Instructions)+1)
	out = append(out, s.From)
	for _, in := range s.Instructions {
		out = append(out, in)
	}
	return out
}

// Name returns the stage alias, or "" for an unnamed stage.
func (s *Stage) Name() string {
	if s.From.Alias == nil {
		return ""
	}
	return strings.ToLower(s.From.Alias.Text())
}

// File is the root of a parsed Dockerfile.
type File struct {
	base
	// Args are the global ARG instructions before the first FROM.
	Args     []*KeyValue
	Stages   []*Stage
	Comments []Comment
	// Escape is the active escape character.
	Escape rune
	// LineSeparator is "\r\n" or "\n".
	LineSeparator string
}

func (f *File) TextRange() TextRange { return spanOf(f.Children()) }

func (f *File) Children() []Node {
	out := make([]Node, 0, len(f.Args)+len(f.Stages))
	for _, a := range f.Args {
		out = append(out, a)
	}
	for _, s := range f.Stages {
		out = append(out, s)
	}
	return out
}

// Instructions returns every top-level instruction in source order,
// including global ARGs and FROM instructions.
func (f *File) Instructions() []Instruction {
	var out []Instruction
	for _, a := range f.Args {
		out = append(out, a)
	}
	for _, s := range f.Stages {
		out = append(out, s.From)
		out = append(out, s.Instructions...)
	}
	return out
}

// StageOf returns the stage containing instr, or nil for global ARGs.
func (f *File) StageOf(instr Instruction) *Stage {
	for _, s := range f.Stages {
		if Instruction(s.From) == instr {
			return s
		}
		for _, in := range s.Instructions {
			if in == instr {
				return s
			}
		}
	}
	return nil
}
