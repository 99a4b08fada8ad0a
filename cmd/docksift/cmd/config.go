package cmd

import (
	"cmp"
	"context"

	"github.com/urfave/cli/v3"
)

func configCommand() *cli.Command {
	return &cli.Command{
		Name:      "config",
		Usage:     "Print the effective configuration for a path",
		ArgsUsage: "[PATH]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (default: auto-discover)",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			target := cmp.Or(cmd.Args().First(), ".")
			cfg, err := loadConfig(cmd, target)
			if err != nil {
				return fail(cmd, ExitConfigError, "%v", err)
			}

			out, err := cfg.TOML()
			if err != nil {
				return err
			}
			_, err = outWriter(cmd).Write(out)
			return err
		},
	}
}
