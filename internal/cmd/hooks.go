package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli/v3"

	"github.com/klauern/hubhooks/internal/core"
)

// NewHooksCmd creates the command listing the hooks the hub raises
func NewHooksCmd() *cli.Command {
	return &cli.Command{
		Name:        "hooks",
		Usage:       "List the hooks scripts can bind to",
		Description: `List every hook the hub raises, in catalogue order, with the fields of its event record.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "names",
				Aliases: []string{"n"},
				Value:   false,
				Usage:   "Print hook names only, one per line",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			out, _ := writers(cmd)
			hooks := core.AllHooks()
			if cmd.Bool("names") {
				for _, h := range hooks {
					fmt.Fprintln(out, h.Name)
				}
				return nil
			}

			bold := color.New(color.Bold)
			fmt.Fprintf(out, "Available hooks (%d):\n\n", len(hooks))
			for _, h := range hooks {
				bold.Fprintf(out, "  %-26s", h.Name)
				fmt.Fprintf(out, " %s\n", h.Description)
				fmt.Fprintf(out, "  %-26s args: %s\n", "", strings.Join(h.Args, ", "))
			}
			return nil
		},
	}
}
