package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli/v3"

	"github.com/klauern/hubhooks/internal/constants"
	"github.com/klauern/hubhooks/internal/core"
	"github.com/klauern/hubhooks/internal/generator"
)

// NewGenerateCmd creates the 'generate' CLI command for scaffolding new bundled scripts
func NewGenerateCmd() *cli.Command {
	return &cli.Command{
		Name:      "generate",
		Usage:     "Generate a new bundled script from template",
		ArgsUsage: "[script-name]",
		Description: `Generate a new script file bound to the given hooks and optionally a test file.
The script will need to be registered manually in the script registry.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "description",
				Aliases: []string{"d"},
				Value:   "",
				Usage:   "Description of the script",
			},
			&cli.StringSliceFlag{
				Name:    "hooks",
				Aliases: []string{"k"},
				Value:   []string{string(core.OnParsedMsgChat)},
				Usage:   "Hooks the script binds (repeat or comma separate)",
			},
			&cli.BoolFlag{
				Name:  "test",
				Value: true,
				Usage: "Generate test file",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Value:   "",
				Usage:   "Output directory (default: " + constants.InternalHooksDir + ")",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			args := cmd.Args().Slice()
			if len(args) != 1 {
				return fmt.Errorf("exactly one argument required: [script-name]")
			}
			name := args[0]

			if err := generator.ValidateScriptName(name); err != nil {
				return fmt.Errorf("invalid script name '%s': %w", name, err)
			}

			description := cmd.String("description")
			if description == "" {
				description = fmt.Sprintf("handles %s events", name)
			}

			var hooks []core.HookName
			for _, raw := range cmd.StringSlice("hooks") {
				for _, h := range strings.Split(raw, ",") {
					if h = strings.TrimSpace(h); h != "" {
						hooks = append(hooks, core.HookName(h))
					}
				}
			}

			out, _ := writers(cmd)
			outputDir := cmd.String("output")
			gen := generator.NewGenerator(outputDir, out)
			if _, err := gen.GenerateScript(name, description, hooks, cmd.Bool("test")); err != nil {
				return fmt.Errorf("failed to generate script '%s': %w", name, err)
			}

			color.New(color.FgGreen).Fprintf(out, "\nGenerated script '%s'\n", name)
			return nil
		},
	}
}
