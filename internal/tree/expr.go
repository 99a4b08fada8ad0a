package tree

import "strings"

// Expression is one piece of an Argument. The set of implementations is
// closed: *Literal, *QuotedString, *Variable, *ExecString and *Heredoc.
type Expression interface {
	Node
	// Raw returns the expression text as it appears in the processed source.
	Raw() string

	expression()
}

// Literal is unquoted text, including escape sequences.
type Literal struct {
	base
	Token *Token
}

func (l *Literal) TextRange() TextRange { return l.Token.Range }
func (l *Literal) Children() []Node     { return []Node{l.Token} }
func (l *Literal) Raw() string          { return l.Token.Value }
func (*Literal) expression()            {}

// QuotedString is a single- or double-quoted string. Double-quoted strings
// are split into Literal and Variable parts; single-quoted strings hold a
// single Literal part (or none when empty).
type QuotedString struct {
	base
	Quote byte
	Open  *Token
	Parts []Expression
	// Close is nil when the string is not terminated on its line.
	Close *Token
}

func (q *QuotedString) TextRange() TextRange { return spanOf(q.Children()) }

func (q *QuotedString) Children() []Node {
	out := make([]Node, 0, len(q.Parts)+2)
	out = append(out, q.Open)
	for _, p := range q.Parts {
		out = append(out, p)
	}
	if q.Close != nil {
		out = append(out, q.Close)
	}
	return out
}

func (q *QuotedString) Raw() string {
	var b strings.Builder
	b.WriteString(q.Open.Value)
	for _, p := range q.Parts {
		b.WriteString(p.Raw())
	}
	if q.Close != nil {
		b.WriteString(q.Close.Value)
	}
	return b.String()
}

func (*QuotedString) expression() {}

// Variable is a $NAME or ${NAME...} reference.
type Variable struct {
	base
	Token *Token
	// Name is the variable name.
	Name string
	// Modifier is one of "", "-", ":-", "+", ":+", "?", ":?" and the
	// pattern operators "#", "##", "%", "%%", "/", "//".
	Modifier string
	// Word is the text following the modifier.
	Word string
	// Braced is true for the ${...} form.
	Braced bool
}

func (v *Variable) TextRange() TextRange { return v.Token.Range }
func (v *Variable) Children() []Node     { return []Node{v.Token} }
func (v *Variable) Raw() string          { return v.Token.Value }
func (*Variable) expression()            {}

// HasDefault reports whether the variable expands to something meaningful
// even when it is unset.
func (v *Variable) HasDefault() bool {
	switch v.Modifier {
	case "-", ":-", "+", ":+":
		return true
	}
	return false
}

// ExecString is one element of a JSON exec form. Token holds the raw JSON
// string including quotes; Decoded holds its value.
type ExecString struct {
	base
	Token   *Token
	Decoded string
}

func (e *ExecString) TextRange() TextRange { return e.Token.Range }
func (e *ExecString) Children() []Node     { return []Node{e.Token} }
func (e *ExecString) Raw() string          { return e.Token.Value }
func (*ExecString) expression()            {}

// HeredocDocument is one here-document attached to a heredoc expression.
type HeredocDocument struct {
	// Name is the delimiter tag.
	Name string
	// Chomp is set for the <<- form, which strips leading tabs.
	Chomp bool
	// Expand is false when the tag was quoted.
	Expand bool
	// Lines holds the arguments of each non-empty body line.
	Lines [][]*Argument
}

// Heredoc is a heredoc expression. Token spans from the first marker to the
// end of the last terminator line and usually has a compound range.
type Heredoc struct {
	base
	Token     *Token
	Documents []*HeredocDocument
	// Trailing holds the arguments that follow the markers on the opener line.
	Trailing []*Argument
}

func (h *Heredoc) TextRange() TextRange { return h.Token.Range }

func (h *Heredoc) Children() []Node {
	out := []Node{h.Token}
	for _, a := range h.Trailing {
		out = append(out, a)
	}
	for _, d := range h.Documents {
		for _, line := range d.Lines {
			for _, a := range line {
				out = append(out, a)
			}
		}
	}
	return out
}

func (h *Heredoc) Raw() string { return h.Token.Value }
func (*Heredoc) expression()   {}

// Argument is a whitespace-delimited word made of expressions.
type Argument struct {
	base
	Expressions []Expression
}

func (a *Argument) TextRange() TextRange {
	if len(a.Expressions) == 1 {
		return a.Expressions[0].TextRange()
	}
	return spanOf(a.Children())
}

func (a *Argument) Children() []Node {
	out := make([]Node, len(a.Expressions))
	for i, e := range a.Expressions {
		out[i] = e
	}
	return out
}

// Text returns the raw argument text.
func (a *Argument) Text() string {
	if a == nil {
		return ""
	}
	var b strings.Builder
	for _, e := range a.Expressions {
		b.WriteString(e.Raw())
	}
	return b.String()
}

// Heredoc returns the heredoc expression of the argument, if any.
func (a *Argument) Heredoc() *Heredoc {
	for _, e := range a.Expressions {
		if h, ok := e.(*Heredoc); ok {
			return h
		}
	}
	return nil
}

// Flag is a --name or --name=value instruction flag.
type Flag struct {
	base
	// Name covers the leading dashes and the flag name.
	Name *Token
	// Value is nil when the flag has no '=value' part.
	Value *Argument
}

func (f *Flag) TextRange() TextRange { return spanOf(f.Children()) }

func (f *Flag) Children() []Node {
	if f.Value == nil {
		return []Node{f.Name}
	}
	return []Node{f.Name, f.Value}
}

// Key returns the flag name without leading dashes.
func (f *Flag) Key() string {
	return strings.TrimLeft(f.Name.Value, "-")
}
