package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/wharflab/docksift/internal/config"
	"github.com/wharflab/docksift/internal/version"
)

// Exit codes
const (
	ExitSuccess     = 0 // No violations (or below fail-level threshold)
	ExitViolations  = 1 // Violations found at or above fail-level
	ExitConfigError = 2 // Parse, config or IO error
	ExitNoFiles     = 3 // No Dockerfiles found (missing file, empty glob, empty directory)
)

// NewApp creates the CLI application
func NewApp() *cli.Command {
	return &cli.Command{
		Name:    "docksift",
		Usage:   "A security-focused linter for Dockerfiles and Containerfiles",
		Version: version.Version(),
		Description: `docksift checks container build files for insecure downloads, leaked
secrets, privilege problems and common Hadolint findings.

Examples:
  docksift lint Dockerfile
  docksift lint --format sarif -o results.sarif .
  cat Dockerfile | docksift lint -
  docksift parse --format yaml Dockerfile`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level: trace, debug, info, warn, error",
				Value:   "warn",
				Sources: cli.EnvVars("DOCKSIFT_LOG_LEVEL"),
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Shorthand for --log-level debug",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			return ctx, setupLogging(cmd)
		},
		Commands: []*cli.Command{
			lintCommand(),
			parseCommand(),
			configCommand(),
			versionCommand(),
		},
	}
}

// Execute runs the CLI application
func Execute() error {
	return NewApp().Run(context.Background(), os.Args)
}

// setupLogging configures the standard logrus logger from the global flags.
func setupLogging(cmd *cli.Command) error {
	level := cmd.String("log-level")
	if cmd.Bool("verbose") {
		level = "debug"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: invalid --log-level %q", level), ExitConfigError)
	}

	out := errWriter(cmd)
	logrus.SetLevel(lvl)
	logrus.SetOutput(out)
	logrus.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
		DisableColors:    !isTerminal(out),
	})
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func outWriter(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func errWriter(cmd *cli.Command) io.Writer {
	if w := cmd.Root().ErrWriter; w != nil {
		return w
	}
	return os.Stderr
}

func inReader(cmd *cli.Command) io.Reader {
	if r := cmd.Root().Reader; r != nil {
		return r
	}
	return os.Stdin
}

// fail prints "Error: ..." to the error writer and exits with code.
func fail(cmd *cli.Command, code int, format string, args ...any) error {
	fmt.Fprintf(errWriter(cmd), "Error: "+format+"\n", args...)
	return cli.Exit("", code)
}

// loadConfig reads --config when given and otherwise discovers the config
// for target.
func loadConfig(cmd *cli.Command, target string) (*config.Config, error) {
	if path := cmd.String("config"); path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load(target)
}
