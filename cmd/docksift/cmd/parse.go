package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"
	"go.yaml.in/yaml/v4"

	"github.com/wharflab/docksift/internal/discovery"
	"github.com/wharflab/docksift/internal/dockerfile"
	"github.com/wharflab/docksift/internal/tree"
)

func parseCommand() *cli.Command {
	return &cli.Command{
		Name:      "parse",
		Usage:     "Print the syntax tree of a Dockerfile",
		ArgsUsage: "DOCKERFILE (use - for standard input)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: sexp, json, yaml",
				Value:   "sexp",
			},
		},
		Action: runParse,
	}
}

func runParse(_ context.Context, cmd *cli.Command) error {
	stderr := errWriter(cmd)

	if cmd.Args().Len() != 1 {
		fmt.Fprintln(stderr, "Error: parse expects exactly one Dockerfile")
		return cli.Exit("", ExitConfigError)
	}
	path := cmd.Args().First()

	var (
		content []byte
		err     error
	)
	if path == discovery.StdinPath {
		content, err = io.ReadAll(inReader(cmd))
	} else {
		content, err = os.ReadFile(path)
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		if errors.Is(err, os.ErrNotExist) {
			return cli.Exit("", ExitNoFiles)
		}
		return cli.Exit("", ExitConfigError)
	}

	result, err := dockerfile.ParseNamed(path, content)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return cli.Exit("", ExitConfigError)
	}

	w := outWriter(cmd)
	switch format := cmd.String("format"); format {
	case "sexp", "":
		_, err = fmt.Fprintln(w, tree.Dump(result.File))
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(tree.Describe(result.File))
	case "yaml":
		var out []byte
		out, err = yaml.Marshal(tree.Describe(result.File))
		if err == nil {
			_, err = w.Write(out)
		}
	default:
		fmt.Fprintf(stderr, "Error: unknown format: %q (valid: sexp, json, yaml)\n", format)
		return cli.Exit("", ExitConfigError)
	}
	return err
}
