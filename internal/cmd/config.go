package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/klauern/hubhooks/internal/config"
)

// NewConfigCmd creates the config command with its subcommands
func NewConfigCmd() *cli.Command {
	return &cli.Command{
		Name:        "config",
		Usage:       "Manage the hubhooks configuration",
		Description: `Write a default configuration file or show the effective configuration.`,
		Commands: []*cli.Command{
			newConfigInitCmd(),
			newConfigShowCmd(),
		},
	}
}

func newConfigInitCmd() *cli.Command {
	return &cli.Command{
		Name:      "init",
		Usage:     "Write the default configuration",
		ArgsUsage: "[path]",
		Description: `Write the default configuration to path, or to the XDG config location when
no path is given. The format follows the extension: .yml, .yaml, .toml or .json.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "force",
				Aliases: []string{"f"},
				Value:   false,
				Usage:   "Overwrite an existing file",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			args := cmd.Args().Slice()
			if len(args) > 1 {
				return fmt.Errorf("at most one argument allowed: [path]")
			}
			path := config.NewXDGConfig().GetConfigPath()
			if len(args) == 1 {
				path = args[0]
			}
			if err := config.WriteDefault(path, cmd.Bool("force")); err != nil {
				return err
			}
			out, _ := writers(cmd)
			fmt.Fprintf(out, "Wrote default configuration to %s\n", path)
			return nil
		},
	}
}

func newConfigShowCmd() *cli.Command {
	return &cli.Command{
		Name:  "show",
		Usage: "Print the effective configuration",
		Description: `Load the configuration the run command would use, environment overrides
included, and print it.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file (default: $XDG_CONFIG_HOME/hubhooks/config.yml when present)",
			},
			&cli.StringFlag{
				Name:  "format",
				Value: string(config.FormatYAML),
				Usage: "Output format: yaml, toml or json",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			path := config.NewXDGConfig().ResolveConfigPath(cmd.String("config"))
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			data, err := config.Marshal(cfg, config.Format(cmd.String("format")))
			if err != nil {
				return err
			}
			out, _ := writers(cmd)
			_, err = out.Write(data)
			return err
		},
	}
}
