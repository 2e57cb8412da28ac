// Package main is the travisjr command line. It lists the repositories
// Travis CI tracks for a GitHub user and shows builds with their job logs.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"travisjr/src/config"
	"travisjr/src/logger"
	"travisjr/src/pipeline"
	"travisjr/src/provider"
	"travisjr/src/session"
	"travisjr/src/tui"
)

// app carries what every command shares.
type app struct {
	configPath string
	user       string

	cfg    *config.Config
	out    io.Writer
	errOut io.Writer
	open   tui.Opener
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "travisjr",
		Short: "travisjr - Travis CI builds and job logs in your terminal",
		Long: `travisjr lists the repositories Travis CI tracks for a GitHub user and
shows a build with the console log of every job.

Configuration is read from built-in defaults, then the YAML file given by
--config or TRAVISJR_CONFIG, then environment variables.

Set REDPANDA_BROKERS to publish build state events to Redpanda and
POSTGRES_DSN to keep the logged-in account in Postgres.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return fmt.Errorf("configuration error: %w", err)
			}
			a.cfg = cfg

			if a.user != "" {
				cmd.SetContext(session.WithTransientUser(cmd.Context(), session.User{Username: a.user}))
			}
			return nil
		},
	}
	rootCmd.SetOut(a.out)
	rootCmd.SetErr(a.errOut)

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&a.user, "user", "", "act as this GitHub user for this invocation only")

	rootCmd.AddCommand(newReposCmd(a))
	rootCmd.AddCommand(newBuildCmd(a))
	rootCmd.AddCommand(newLoginCmd(a))
	rootCmd.AddCommand(newWhoamiCmd(a))
	rootCmd.AddCommand(newEventsCmd(a))
	rootCmd.AddCommand(newMCPCmd(a))

	return rootCmd
}

// newLogger builds the logger selected by the configuration. Console logs
// go to the terminal; structured logs go to w.
func newLogger(cfg *config.Config, w io.Writer) logger.Logger {
	level := logger.ParseLevel(cfg.LogLevel)
	switch cfg.LogFormat {
	case "json", "text":
		return logger.NewStructuredLogger(w, cfg.LogFormat, level)
	}
	return logger.NewConsoleLoggerWithLevel(level)
}

// pipeline connects the services for one command. Interactive commands pass
// a silent logger so log lines do not tear the screen.
func (a *app) pipeline(ctx context.Context, log logger.Logger) (*pipeline.Pipeline, error) {
	if log == nil {
		log = newLogger(a.cfg, a.errOut)
	}
	return pipeline.New(ctx, a.cfg, log)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a := &app{out: os.Stdout, errOut: os.Stderr, open: openIntent}
	if err := newRootCmd(a).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, provider.WrapError(err))
		stop()
		os.Exit(1)
	}
}
