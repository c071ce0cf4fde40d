package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/klauern/hubhooks/internal/cmd"
	"github.com/klauern/hubhooks/internal/constants"
)

// set by the release build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func newApp() *cli.Command {
	return &cli.Command{
		Name:    constants.BinaryName,
		Usage:   constants.ProjectTagline,
		Version: version,
		Description: `Run hub scripts through a prioritised hook dispatcher. Scripts bind handlers to
hub hooks; the dispatcher calls them in priority order until one consumes the event.`,
		Commands: []*cli.Command{
			cmd.NewRunCmd(),
			cmd.NewHooksCmd(),
			cmd.NewScriptsCmd(),
			cmd.NewConfigCmd(),
			cmd.NewGenerateCmd(),
			cmd.NewVersionCmd(cmd.VersionInfo{
				Version: version,
				Commit:  commit,
				Date:    date,
				GoVer:   runtime.Version(),
			}),
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newApp().Run(ctx, os.Args)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
