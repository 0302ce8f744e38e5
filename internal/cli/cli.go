// Package cli implements the planner command-line interface.
//
// # Commands
//
//   - solve: run the multi-start local search on a JSON distance matrix or an
//     OR-Library pmed instance
//   - serve: start the HTTP API
//
// All commands accept --config to point at a TOML file and --verbose (-v)
// for debug-level logging.
package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"facility-planner/internal/config"
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config *config.Config
}

// New creates a new CLI instance writing logs to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
	}
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	var (
		verbose bool
		cfgPath string
	)

	root := &cobra.Command{
		Use:          "planner",
		Short:        "Choose facility sites that minimise total travel cost",
		Long:         `planner solves p-median facility location problems with the Teitz-Bart vertex substitution heuristic, from the command line or over an HTTP API.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			c.Config = cfg

			level, _ := cfg.LogLevel()
			if verbose {
				level = log.DebugLevel
			}
			c.Logger.SetLevel(level)
			log.SetDefault(c.Logger)
			return nil
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to a TOML config file (default ~/.facility-planner/planner.toml)")

	root.AddCommand(c.solveCommand())
	root.AddCommand(c.serveCommand())
	return root
}

// Execute runs the planner CLI. SIGINT and SIGTERM cancel the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := New(os.Stderr, log.InfoLevel)
	return c.RootCommand().ExecuteContext(ctx)
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
func (p *progress) done(msg string, keyvals ...any) {
	keyvals = append(keyvals, "elapsed", time.Since(p.start).Round(time.Millisecond))
	p.logger.Info(msg, keyvals...)
}
