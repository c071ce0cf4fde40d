package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/klauern/hubhooks/internal/admin"
	"github.com/klauern/hubhooks/internal/config"
	"github.com/klauern/hubhooks/internal/core"
	"github.com/klauern/hubhooks/internal/hooks"
	"github.com/klauern/hubhooks/internal/hub"
	"github.com/klauern/hubhooks/internal/metrics"
	"github.com/klauern/hubhooks/internal/store"
)

// runOptions are the inputs of a hub run
type runOptions struct {
	configPath string
	eventsPath string
	metrics    bool
	progress   bool
	colored    bool
	stdout     io.Writer
	stderr     io.Writer
}

// NewRunCmd creates the run command
func NewRunCmd() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Replay hub events through the configured scripts",
		Description: `Load the configured bundled scripts into a dispatcher and replay the events
of a YAML file while the timer source ticks. Notices sent by scripts and by the
dispatcher command are printed to stdout. Scripts are unloaded when the replay
ends.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file (default: $XDG_CONFIG_HOME/hubhooks/config.yml when present)",
			},
			&cli.StringFlag{
				Name:     "events",
				Aliases:  []string{"e"},
				Usage:    "YAML file of events to replay",
				Required: true,
			},
			&cli.BoolFlag{
				Name:    "metrics",
				Aliases: []string{"m"},
				Value:   false,
				Usage:   "Print dispatcher statistics in Prometheus text format when done",
			},
			&cli.BoolFlag{
				Name:    "progress",
				Aliases: []string{"p"},
				Value:   false,
				Usage:   "Show a replay progress bar on stderr",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			stdout, stderr := writers(cmd)
			return runHub(ctx, runOptions{
				configPath: cmd.String("config"),
				eventsPath: cmd.String("events"),
				metrics:    cmd.Bool("metrics"),
				progress:   cmd.Bool("progress"),
				colored:    stdout == os.Stdout && !color.NoColor,
				stdout:     stdout,
				stderr:     stderr,
			})
		},
	}
}

func runHub(ctx context.Context, opts runOptions) (err error) {
	path := config.NewXDGConfig().ResolveConfigPath(opts.configPath)
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	logger, closeLog, err := config.NewLogger(cfg.Logging, opts.stderr)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, closeLog()) }()
	logger.Info("configuration loaded", zap.String("path", path), zap.Int("scripts", len(cfg.Scripts)))

	steps, err := hub.LoadReplayFile(opts.eventsPath)
	if err != nil {
		return err
	}

	deps := hooks.Deps{Logger: logger}
	if cfg.Store.Path != "" {
		st, openErr := store.Open(ctx, cfg.Store.Path)
		if openErr != nil {
			return openErr
		}
		defer func() { err = multierr.Append(err, st.Close()) }()
		deps.Store = st
	}

	messenger := hub.NewWriterMessenger(opts.stdout, opts.colored)
	d := core.New(
		core.WithLogger(logger),
		core.WithMessenger(messenger),
		core.WithDefaultPriority(cfg.Dispatcher.DefaultPriority),
	)
	interp := admin.New(d,
		admin.WithThreshold(cfg.Dispatcher.AdminClass),
		admin.WithMarker(cfg.Dispatcher.CommandMarker),
		admin.WithCommandWord(cfg.Dispatcher.CommandWord),
		admin.WithLogger(logger),
	)

	ids, err := hooks.Load(d, hooks.GetGlobalRegistry(), deps, cfg.Scripts)
	if err != nil {
		return fmt.Errorf("failed to load scripts: %w", err)
	}
	logger.Info("scripts loaded", zap.Int("count", len(ids)))

	h := hub.New(d, interp, messenger, logger)
	timer, err := hub.NewTimerSource(h, cfg.Timer.Interval.Std())
	if err != nil {
		return err
	}

	var progress func()
	if opts.progress {
		bar := newReplayBar(len(steps), opts.stderr)
		progress = func() { _ = bar.Add(1) }
		defer func() { _ = bar.Finish() }()
	}

	if err := h.Run(ctx, timer, steps, progress); err != nil {
		return fmt.Errorf("replay stopped: %w", err)
	}

	if opts.metrics {
		reg, err := metrics.NewRegistry(finalStats(h.LastStats()))
		if err != nil {
			return err
		}
		return metrics.WriteText(opts.stdout, reg)
	}
	return nil
}

// finalStats serves a fixed snapshot to the metrics collector
type finalStats core.Stats

func (s finalStats) Stats() core.Stats { return core.Stats(s) }

func newReplayBar(total int, w io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("Replaying events..."),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// writers returns the output streams of the root command
func writers(cmd *cli.Command) (io.Writer, io.Writer) {
	root := cmd.Root()
	stdout, stderr := root.Writer, root.ErrWriter
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return stdout, stderr
}
