// Package dockerfile parses Dockerfiles into the syntax tree of package
// tree.
//
// [Preprocess] first strips line continuations, comment and blank lines and
// directive prefixes, recording a breakpoint for every deletion. The grammar
// runs over the processed text and a [sourcemap.Translator] maps each token
// back to the original source.
package dockerfile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/wharflab/docksift/internal/tree"
)

// ParseResult is a parsed Dockerfile with line statistics.
type ParseResult struct {
	File         *tree.File
	Preprocessed *Preprocessed
	// Source is the original content without a byte-order mark.
	Source []byte

	TotalLines   int
	BlankLines   int
	CommentLines int
}

// ParseError is a syntax error. Line is 1-based and Column 0-based; the
// message shows the column 1-based.
type ParseError struct {
	// File only appears in the message.
	File   string
	Line   int
	Column int
	Detail string
}

func (e *ParseError) Error() string {
	where := "line " + fmt.Sprint(e.Line)
	if e.File != "" {
		where = e.File + ":" + fmt.Sprint(e.Line)
	}
	return fmt.Sprintf("%s:%d: %s", where, e.Column+1, e.Detail)
}

// ParseFile parses the file at path, or standard input for "-". Syntax
// errors carry path.
func ParseFile(_ context.Context, path string) (*ParseResult, error) {
	var (
		content []byte
		err     error
	)
	if path == "-" {
		content, err = io.ReadAll(os.Stdin)
	} else {
		content, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	return ParseNamed(path, content)
}

// ParseNamed parses content, naming syntax errors after name.
func ParseNamed(name string, content []byte) (*ParseResult, error) {
	res, err := ParseString(string(content))
	if perr := (*ParseError)(nil); errors.As(err, &perr) {
		perr.File = name
	}
	return res, err
}

func Parse(r io.Reader) (*ParseResult, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return ParseString(string(content))
}

func ParseString(src string) (*ParseResult, error) {
	pre := Preprocess(src)
	file, err := newParser(pre).parseFile()
	if err != nil {
		return nil, err
	}

	res := &ParseResult{File: file, Preprocessed: pre, Source: []byte(pre.Source)}
	for line := range strings.Lines(pre.Source) {
		res.TotalLines++
		switch line = strings.TrimSpace(line); {
		case line == "":
			res.BlankLines++
		case line[0] == '#':
			res.CommentLines++
		}
	}
	return res, nil
}
