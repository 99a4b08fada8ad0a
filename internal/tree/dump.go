package tree

import (
	"strconv"
	"strings"
)

// Dump renders a node as an s-expression. It is meant for debugging output
// and snapshot tests; the format is not stable.
//
// A *File renders one instruction per line, with stage instructions indented
// under their stage.
func Dump(n Node) string {
	if f, ok := n.(*File); ok {
		return dumpFile(f)
	}
	var b strings.Builder
	dump(&b, n)
	return b.String()
}

func dumpFile(f *File) string {
	var lines []string
	for _, a := range f.Args {
		lines = append(lines, Dump(a))
	}
	for i, s := range f.Stages {
		lines = append(lines, "(stage "+strconv.Itoa(i))
		lines = append(lines, "  "+Dump(s.From))
		for _, in := range s.Instructions {
			lines = append(lines, "  "+Dump(in))
		}
		lines[len(lines)-1] += ")"
	}
	return strings.Join(lines, "\n")
}

func dump(b *strings.Builder, n Node) {
	switch n := n.(type) {
	case *Token:
		b.WriteString(strconv.Quote(n.Value))
	case *Literal:
		b.WriteString("(lit " + strconv.Quote(n.Token.Value) + ")")
	case *QuotedString:
		dumpQuoted(b, n)
	case *Variable:
		b.WriteString("(var " + n.Name)
		if n.Modifier != "" {
			b.WriteString(" " + strconv.Quote(n.Modifier) + " " + strconv.Quote(n.Word))
		}
		b.WriteString(")")
	case *ExecString:
		b.WriteString("(str " + strconv.Quote(n.Decoded) + ")")
	case *Heredoc:
		dumpHeredoc(b, n)
	case *Argument:
		b.WriteString("(arg")
		for _, e := range n.Expressions {
			b.WriteByte(' ')
			dump(b, e)
		}
		b.WriteString(")")
	case *Flag:
		b.WriteString("(flag " + strconv.Quote(n.Key()))
		if n.Value != nil {
			b.WriteByte(' ')
			dump(b, n.Value)
		}
		b.WriteString(")")
	case *ExecForm:
		b.WriteString("(exec")
		dumpList(b, n.Elements)
		b.WriteString(")")
	case *Pair:
		b.WriteString("(pair " + strconv.Quote(n.Key.Value))
		if n.Value != nil {
			b.WriteByte(' ')
			dump(b, n.Value)
		}
		b.WriteString(")")
	case *From:
		b.WriteString("(" + n.Name())
		dumpList(b, n.Flags)
		b.WriteByte(' ')
		dump(b, n.Image)
		if n.Alias != nil {
			b.WriteString(" (as ")
			dump(b, n.Alias)
			b.WriteString(")")
		}
		b.WriteString(")")
	case *Command:
		b.WriteString("(" + n.Name())
		dumpCommandBody(b, n)
		b.WriteString(")")
	case *KeyValue:
		b.WriteString("(" + n.Name())
		dumpList(b, n.Pairs)
		b.WriteString(")")
	case *OnBuild:
		b.WriteString("(" + n.Name() + " ")
		dump(b, n.Inner)
		b.WriteString(")")
	case *Healthcheck:
		b.WriteString("(" + n.Name())
		dumpList(b, n.Flags)
		b.WriteString(" " + strings.ToUpper(n.Kind.Value))
		if n.Cmd != nil {
			dumpCommandBody(b, n.Cmd)
		}
		b.WriteString(")")
	case *Generic:
		b.WriteString("(" + n.Name())
		dumpList(b, n.Flags)
		if n.Exec != nil {
			b.WriteByte(' ')
			dump(b, n.Exec)
		} else {
			dumpList(b, n.Args)
		}
		b.WriteString(")")
	case *Stage:
		b.WriteString("(stage")
		for _, c := range n.Children() {
			b.WriteByte(' ')
			dump(b, c)
		}
		b.WriteString(")")
	case *File:
		b.WriteString(dumpFile(n))
	}
}

func dumpList[T Node](b *strings.Builder, nodes []T) {
	for _, n := range nodes {
		b.WriteByte(' ')
		dump(b, n)
	}
}

func dumpCommandBody(b *strings.Builder, c *Command) {
	dumpList(b, c.Flags)
	if c.Exec != nil {
		b.WriteByte(' ')
		dump(b, c.Exec)
		return
	}
	dumpList(b, c.Args)
}

func dumpQuoted(b *strings.Builder, q *QuotedString) {
	if q.Quote == '\'' {
		var content strings.Builder
		for _, p := range q.Parts {
			content.WriteString(p.Raw())
		}
		b.WriteString("(sq " + strconv.Quote(content.String()) + ")")
		return
	}
	b.WriteString("(dq")
	dumpList(b, q.Parts)
	b.WriteString(")")
}

func dumpHeredoc(b *strings.Builder, h *Heredoc) {
	b.WriteString("(heredoc")
	dumpList(b, h.Trailing)
	for _, d := range h.Documents {
		b.WriteString(" (doc " + strconv.Quote(d.Name))
		if d.Chomp {
			b.WriteString(" chomp")
		}
		if !d.Expand {
			b.WriteString(" raw")
		}
		for _, line := range d.Lines {
			b.WriteString(" (line")
			dumpList(b, line)
			b.WriteString(")")
		}
		b.WriteString(")")
	}
	b.WriteString(")")
}
