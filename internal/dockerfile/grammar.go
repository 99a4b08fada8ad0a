package dockerfile

import (
	"encoding/json"
	"strings"

	"github.com/moby/buildkit/frontend/dockerfile/command"

	"github.com/wharflab/docksift/internal/tree"
)

var knownInstructions = command.Commands

// Instructions that accept --flags.
var flagInstructions = map[string]bool{
	"from":        true,
	"run":         true,
	"copy":        true,
	"add":         true,
	"healthcheck": true,
}

// Instructions whose shell form may carry heredocs.
var heredocInstructions = map[string]bool{
	"run":  true,
	"copy": true,
	"add":  true,
}

func (p *parser) parseFile() (*tree.File, error) {
	f := &tree.File{
		Comments:      p.pre.Comments,
		Escape:        rune(p.escape),
		LineSeparator: p.pre.LineSeparator(),
	}
	var stage *tree.Stage
	for {
		p.skipBlanks()
		if p.pos >= len(p.text) {
			break
		}
		if p.atEOL() {
			p.skipEOL()
			continue
		}

		start := p.pos
		instr, err := p.parseInstruction(false)
		if err != nil {
			return nil, err
		}
		switch in := instr.(type) {
		case *tree.From:
			stage = &tree.Stage{From: in}
			f.Stages = append(f.Stages, stage)
		case *tree.KeyValue:
			if stage == nil && in.Name() == "ARG" {
				f.Args = append(f.Args, in)
				break
			}
			if stage == nil {
				return nil, p.errorf(start, "%s instruction before the first FROM", in.Name())
			}
			stage.Instructions = append(stage.Instructions, in)
		default:
			if stage == nil {
				return nil, p.errorf(start, "%s instruction before the first FROM", in.Name())
			}
			stage.Instructions = append(stage.Instructions, in)
		}

		p.skipBlanks()
		if !p.atEOL() {
			return nil, p.errorf(p.pos, "unexpected %q", p.text[p.pos:p.lineEnd()])
		}
		p.skipEOL()
	}
	tree.SetParents(f)
	return f, nil
}

func (p *parser) parseInstruction(nested bool) (tree.Instruction, error) {
	start := p.pos
	for !p.atEOL() && !isBlankByte(p.text[p.pos]) {
		p.pos++
	}
	word := p.text[start:p.pos]
	name := strings.ToLower(word)
	if _, ok := knownInstructions[name]; !ok {
		return nil, p.unknownInstruction(start, word)
	}
	if nested {
		switch name {
		case "onbuild", "from", "maintainer":
			return nil, p.errorf(start, "%s isn't allowed as an ONBUILD trigger", strings.ToUpper(name))
		}
	}
	kw := p.token(start, p.pos)
	p.skipBlanks()

	var flags []*tree.Flag
	if flagInstructions[name] {
		flags = p.parseFlags()
	}

	switch name {
	case "from":
		return p.parseFrom(kw, flags)
	case "run", "cmd", "entrypoint", "shell":
		cmd := &tree.Command{Keyword: kw, Flags: flags}
		if exec := p.parseExecForm(); exec != nil {
			cmd.Exec = exec
			return cmd, nil
		}
		if name == "shell" {
			return nil, p.errorf(p.pos, "SHELL requires the arguments to be in JSON form")
		}
		cmd.Args = p.parseShellArgs(heredocInstructions[name])
		return cmd, nil
	case "env", "label", "arg":
		return p.parsePairs(kw, name)
	case "onbuild":
		if p.atEOL() {
			return nil, p.errorf(p.pos, "ONBUILD requires at least one argument")
		}
		inner, err := p.parseInstruction(true)
		if err != nil {
			return nil, err
		}
		return &tree.OnBuild{Keyword: kw, Inner: inner}, nil
	case "healthcheck":
		return p.parseHealthcheck(kw, flags)
	}

	g := &tree.Generic{Keyword: kw, Flags: flags}
	if exec := p.parseExecForm(); exec != nil {
		g.Exec = exec
	} else {
		g.Args = p.parseShellArgs(heredocInstructions[name])
	}
	return g, nil
}

// parseFlags parses leading --name[=value] flags.
func (p *parser) parseFlags() []*tree.Flag {
	var flags []*tree.Flag
	for strings.HasPrefix(p.text[p.pos:], "--") {
		i := p.pos + 2
		for i < len(p.text) && (isNameByte(p.text[i]) || p.text[i] == '-') {
			i++
		}
		if i == p.pos+2 {
			break
		}
		flag := &tree.Flag{Name: p.token(p.pos, i)}
		p.pos = i
		if p.pos < len(p.text) && p.text[p.pos] == '=' {
			p.pos++
			flag.Value = p.parseWord(p.lineEnd(), false)
		}
		flags = append(flags, flag)
		p.skipBlanks()
	}
	return flags
}

func (p *parser) parseFrom(kw *tree.Token, flags []*tree.Flag) (*tree.From, error) {
	start := p.pos
	args := p.parseArgs()
	from := &tree.From{Keyword: kw, Flags: flags}
	switch len(args) {
	case 1:
		from.Image = args[0]
	case 3:
		as, ok := args[1].Expressions[0].(*tree.Literal)
		if !ok || len(args[1].Expressions) != 1 || !strings.EqualFold(as.Token.Value, "as") {
			return nil, p.errorf(start, "FROM requires either one or three arguments")
		}
		from.Image, from.As, from.Alias = args[0], as.Token, args[2]
	default:
		return nil, p.errorf(start, "FROM requires either one or three arguments")
	}
	return from, nil
}

func (p *parser) parseHealthcheck(kw *tree.Token, flags []*tree.Flag) (*tree.Healthcheck, error) {
	start := p.pos
	for !p.atEOL() && !isBlankByte(p.text[p.pos]) {
		p.pos++
	}
	kind := p.text[start:p.pos]
	hc := &tree.Healthcheck{Keyword: kw, Flags: flags}
	switch strings.ToUpper(kind) {
	case "NONE":
		hc.Kind = p.token(start, p.pos)
		p.skipBlanks()
		if !p.atEOL() {
			return nil, p.errorf(p.pos, "HEALTHCHECK NONE takes no arguments")
		}
	case "CMD":
		hc.Kind = p.token(start, p.pos)
		p.skipBlanks()
		hc.Cmd = &tree.Command{}
		if exec := p.parseExecForm(); exec != nil {
			hc.Cmd.Exec = exec
		} else {
			hc.Cmd.Args = p.parseArgs()
		}
		if hc.Cmd.Exec == nil && len(hc.Cmd.Args) == 0 {
			return nil, p.errorf(p.pos, "missing command after HEALTHCHECK CMD")
		}
	default:
		return nil, p.errorf(start, "unknown type %q in HEALTHCHECK (try CMD)", kind)
	}
	return hc, nil
}

// parseShellArgs parses shell-form arguments. When heredocs is set, a word
// starting with a heredoc marker consumes the markers, the rest of the line
// and the heredoc bodies into a single heredoc argument.
func (p *parser) parseShellArgs(heredocs bool) []*tree.Argument {
	var args []*tree.Argument
	limit := p.lineEnd()
	for p.skipBlanks(); !p.atEOL(); p.skipBlanks() {
		if heredocs {
			if h := p.parseHeredoc(); h != nil {
				args = append(args, &tree.Argument{Expressions: []tree.Expression{h}})
				break
			}
		}
		args = append(args, p.parseWord(limit, false))
	}
	return args
}

// parsePairs parses the key/value pairs of ENV, LABEL and ARG.
func (p *parser) parsePairs(kw *tree.Token, name string) (*tree.KeyValue, error) {
	kv := &tree.KeyValue{Keyword: kw}
	if p.atEOL() {
		return nil, p.errorf(p.pos, "%s requires at least one argument", strings.ToUpper(name))
	}
	limit := p.lineEnd()
	for first := true; !p.atEOL(); first = false {
		keyStart := p.pos
		keyEnd := p.keyEnd(limit)
		key := p.token(keyStart, keyEnd)
		if key.Value == "" {
			return nil, p.errorf(keyStart, "%s names can not be blank", strings.ToUpper(name))
		}
		p.pos = keyEnd
		pair := &tree.Pair{Key: key}

		switch {
		case p.pos < limit && p.text[p.pos] == '=':
			p.pos++
			pair.Value = p.parseWord(limit, false)
		case name == "arg":
		case first:
			// Legacy form: the rest of the line is the value.
			p.skipBlanks()
			if p.atEOL() {
				return nil, p.errorf(p.pos, "%s must have two arguments", strings.ToUpper(name))
			}
			pair.Value = p.parseWord(trimRightBlanks(p.text, p.pos, limit), true)
			kv.Pairs = append(kv.Pairs, pair)
			p.pos = limit
			return kv, nil
		default:
			return nil, p.errorf(keyStart, "can't find = in %q. Must be of the form: name=value", key.Value)
		}
		kv.Pairs = append(kv.Pairs, pair)
		p.skipBlanks()
	}
	return kv, nil
}

// keyEnd returns the end of a pair key: the first '=' or blank outside
// quotes.
func (p *parser) keyEnd(limit int) int {
	i := p.pos
	for i < limit && !isBlankByte(p.text[i]) && p.text[i] != '=' {
		if c := p.text[i]; c == '"' || c == '\'' {
			j := strings.IndexByte(p.text[i+1:limit], c)
			if j < 0 {
				return limit
			}
			i += j + 2
			continue
		}
		i++
	}
	return i
}

func trimRightBlanks(text string, start, end int) int {
	for end > start && isBlankByte(text[end-1]) {
		end--
	}
	return end
}

// parseExecForm parses a JSON array of strings filling the rest of the line.
// It returns nil, without consuming anything, when the rest of the line is
// not such an array.
func (p *parser) parseExecForm() *tree.ExecForm {
	if p.pos >= len(p.text) || p.text[p.pos] != '[' {
		return nil
	}
	elems, closeAt, ok := p.scanExecForm()
	if !ok {
		return nil
	}
	exec := &tree.ExecForm{Open: p.token(p.pos, p.pos+1)}
	for _, e := range elems {
		var decoded string
		_ = json.Unmarshal([]byte(p.text[e[0]:e[1]]), &decoded)
		s := &tree.ExecString{Token: p.token(e[0], e[1]), Decoded: decoded}
		exec.Elements = append(exec.Elements, &tree.Argument{Expressions: []tree.Expression{s}})
	}
	exec.Close = p.token(closeAt, closeAt+1)
	p.pos = closeAt + 1
	return exec
}

// scanExecForm validates the JSON array at p.pos and returns the spans of
// its string elements and the index of the closing bracket.
func (p *parser) scanExecForm() (elems [][2]int, closeAt int, ok bool) {
	limit := p.lineEnd()
	i := p.pos + 1
	skip := func() {
		for i < limit && isBlankByte(p.text[i]) {
			i++
		}
	}
	skip()
	if i < limit && p.text[i] == ']' {
		closeAt = i
	} else {
		for {
			if i >= limit || p.text[i] != '"' {
				return nil, 0, false
			}
			start := i
			for i++; i < limit && p.text[i] != '"'; i++ {
				if p.text[i] == '\\' {
					i++
				}
			}
			if i >= limit {
				return nil, 0, false
			}
			i++
			if !json.Valid([]byte(p.text[start:i])) {
				return nil, 0, false
			}
			elems = append(elems, [2]int{start, i})
			skip()
			if i < limit && p.text[i] == ',' {
				i++
				skip()
				continue
			}
			if i < limit && p.text[i] == ']' {
				closeAt = i
				break
			}
			return nil, 0, false
		}
	}
	if trimRightBlanks(p.text, closeAt+1, limit) != closeAt+1 {
		return nil, 0, false
	}
	return elems, closeAt, true
}
