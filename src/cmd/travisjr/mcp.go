package main

import (
	"os"

	"github.com/spf13/cobra"

	"travisjr/src/logger"
	"travisjr/src/mcp"
)

func newMCPCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve repositories and builds over MCP on stdio",
		Long: `Run a Model Context Protocol server on stdin/stdout. It offers the
tools list_repos, get_build and get_job_log.

Logs are written to stderr since stdout carries the protocol.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format := a.cfg.LogFormat
			if format != "json" {
				format = "text"
			}
			log := logger.NewStructuredLogger(os.Stderr, format, logger.ParseLevel(a.cfg.LogLevel))

			p, err := a.pipeline(cmd.Context(), log)
			if err != nil {
				return err
			}
			defer p.Close()

			return mcp.NewServer(p.Repos, p.Session, p.Builds, log).Run()
		},
	}
}
