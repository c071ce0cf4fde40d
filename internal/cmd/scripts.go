package cmd

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli/v3"
	"go.uber.org/multierr"

	"github.com/klauern/hubhooks/internal/constants"
	"github.com/klauern/hubhooks/internal/core"
	"github.com/klauern/hubhooks/internal/hooks"
)

// NewScriptsCmd creates the command listing the bundled scripts
func NewScriptsCmd() *cli.Command {
	return &cli.Command{
		Name:        "scripts",
		Usage:       "List bundled scripts",
		Description: `List the scripts bundled with the binary, their default priority and the hooks they bind.`,
		Action: func(_ context.Context, cmd *cli.Command) error {
			out, errOut := writers(cmd)
			listed, listErr := hooks.ListHooks()
			keys := make([]string, 0, len(listed))
			for k := range listed {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			green := color.New(color.FgGreen)
			fmt.Fprintln(out, "Bundled scripts:")
			fmt.Fprintln(out)
			for _, key := range keys {
				h := listed[key]
				green.Fprintf(out, "  %-12s", key)
				fmt.Fprintf(out, " %s (priority %d)\n", h.Description(), h.Priority())
				fmt.Fprintf(out, "  %-12s hooks: %s\n", "", strings.Join(boundHooks(h.Script()), ", "))
			}
			for _, err := range multierr.Errors(listErr) {
				color.New(color.FgYellow).Fprintf(errOut, "Warning: skipped %v\n", err)
			}
			fmt.Fprintln(out)
			fmt.Fprintf(out, "Enable scripts in the scripts section of %s.\n", constants.ConfigFileName)
			return nil
		},
	}
}

// boundHooks returns the hooks a script binds, in catalogue order
func boundHooks(s core.Script) []string {
	var names []string
	for _, name := range core.HookNames() {
		if _, ok := s.Hooks[name]; ok {
			names = append(names, string(name))
		}
	}
	return names
}
