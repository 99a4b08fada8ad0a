package tree

// Description is a serializable view of a node, used by the parse command's
// JSON and YAML output.
type Description struct {
	Kind     string         `json:"kind" yaml:"kind"`
	Value    string         `json:"value,omitempty" yaml:"value,omitempty"`
	Range    TextRange      `json:"range" yaml:"range"`
	Comments []Comment      `json:"comments,omitempty" yaml:"comments,omitempty"`
	Children []*Description `json:"children,omitempty" yaml:"children,omitempty"`
}

// Describe converts n and its subtree into a Description.
func Describe(n Node) *Description {
	d := &Description{Kind: kindOf(n), Range: n.TextRange()}
	switch n := n.(type) {
	case *Token:
		d.Value = n.Value
		d.Comments = n.Comments
		return d
	case Instruction:
		d.Value = n.Name()
	case Expression:
		d.Value = n.Raw()
	case *Argument:
		d.Value = n.Text()
	case *Flag:
		d.Value = n.Key()
	case *Pair:
		d.Value = n.Key.Value
	case *Stage:
		d.Value = n.Name()
	case *File:
		d.Comments = n.Comments
	}
	for _, c := range n.Children() {
		d.Children = append(d.Children, Describe(c))
	}
	return d
}

func kindOf(n Node) string {
	switch n.(type) {
	case *Token:
		return "token"
	case *Literal:
		return "literal"
	case *QuotedString:
		return "quoted"
	case *Variable:
		return "variable"
	case *ExecString:
		return "exec-string"
	case *Heredoc:
		return "heredoc"
	case *Argument:
		return "argument"
	case *Flag:
		return "flag"
	case *ExecForm:
		return "exec"
	case *Pair:
		return "pair"
	case *From:
		return "from"
	case *Command:
		return "command"
	case *KeyValue:
		return "key-value"
	case *OnBuild:
		return "onbuild"
	case *Healthcheck:
		return "healthcheck"
	case *Generic:
		return "instruction"
	case *Stage:
		return "stage"
	case *File:
		return "file"
	}
	return "unknown"
}
