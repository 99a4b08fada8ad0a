package tree

import "strings"

// Node is implemented by every element of the syntax tree.
type Node interface {
	// TextRange returns the node's span in the original source.
	TextRange() TextRange
	// Parent returns the enclosing node, or nil for the root.
	// Parents are assigned by SetParents once the tree is complete.
	Parent() Node
	// Children returns the direct child nodes in source order.
	Children() []Node

	setParent(p Node)
}

type base struct {
	parent Node
}

func (b *base) Parent() Node { return b.parent }

func (b *base) setParent(p Node) { b.parent = p }

// spanOf computes a non-terminal range from its first and last child.
func spanOf(children []Node) TextRange {
	if len(children) == 0 {
		return TextRange{}
	}
	return Merge(children[0].TextRange(), children[len(children)-1].TextRange())
}

// Comment is a comment from the original source. Comments never appear in
// the processed text; they are recorded by the preprocessor and attached to
// the token that follows them.
type Comment struct {
	// Text is the literal comment including the leading '#'.
	Text string `json:"text" yaml:"text"`
	// Content is Text without the '#' and surrounding whitespace.
	Content string `json:"content" yaml:"content"`
	// Start is the position of the '#'.
	Start TextPointer `json:"start" yaml:"start"`
}

// TextRange returns the range covered by the comment text.
func (c Comment) TextRange() TextRange {
	return TextRange{
		Start: c.Start,
		End:   TextPointer{Line: c.Start.Line, Column: c.Start.Column + len(c.Text)},
	}
}

// NewComment builds a Comment from its literal text.
func NewComment(text string, start TextPointer) Comment {
	return Comment{
		Text:    text,
		Content: strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(text), "#")),
		Start:   start,
	}
}

// Token is the atomic unit of the tree.
type Token struct {
	base

	// Value is the token text as it appears in the processed source.
	Value string
	// Range locates Value in the original source.
	Range TextRange
	// Comments are the comments directly preceding the token.
	Comments []Comment
}

func (t *Token) TextRange() TextRange { return t.Range }

func (t *Token) Children() []Node { return nil }

// SetParents assigns parent references to every node below root.
func SetParents(root Node) {
	for _, c := range root.Children() {
		c.setParent(root)
		SetParents(c)
	}
}

// Walk traverses the tree depth-first in source order. If fn returns false
// the children of that node are skipped.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children() {
		Walk(c, fn)
	}
}

// Ancestor returns the closest ancestor of n for which match returns true.
func Ancestor(n Node, match func(Node) bool) Node {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if match(p) {
			return p
		}
	}
	return nil
}

// EnclosingInstruction returns the instruction that contains n. For a node
// inside an ONBUILD trigger this is the trigger instruction.
func EnclosingInstruction(n Node) Instruction {
	if in, ok := n.(Instruction); ok {
		return in
	}
	found := Ancestor(n, func(p Node) bool {
		_, ok := p.(Instruction)
		return ok
	})
	if found == nil {
		return nil
	}
	return found.(Instruction)
}
