package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"travisjr/src/contracts"
	"travisjr/src/pipeline"
)

func newEventsCmd(a *app) *cobra.Command {
	var (
		group string
		every time.Duration
	)

	cmd := &cobra.Command{
		Use:   "events [OWNER/REPO BUILD_ID | URL]",
		Short: "Print build state events",
		Long: `Print build state events as they are published.

With REDPANDA_BROKERS set, events published by every travisjr process are
shown. Without it only this process is seen, so give a build to watch; with
--every the build is fetched again at that interval.`,
		Args: cobra.RangeArgs(0, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			p, err := a.pipeline(ctx, nil)
			if err != nil {
				return err
			}
			defer p.Close()

			events, err := p.Publisher.Events(ctx, group)
			if err != nil {
				return fmt.Errorf("failed to subscribe to events: %w", err)
			}

			if len(args) > 0 {
				target, err := parseTarget(args)
				if err != nil {
					return err
				}
				m := p.Watch(ctx, target)
				if err := m.Request(ctx); err != nil {
					return err
				}
				if every > 0 {
					go func() {
						ticker := time.NewTicker(every)
						defer ticker.Stop()
						for {
							select {
							case <-ticker.C:
								m.Request(ctx)
							case <-ctx.Done():
								return
							}
						}
					}()
				}
			} else if p.Mode == pipeline.LocalMode {
				fmt.Fprintln(a.errOut, "Local mode: only events of this process are shown. Set REDPANDA_BROKERS or give a build to watch.")
			}

			for e := range events {
				printEvent(a.out, e)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&group, "group", "travisjr-events", "consumer group ID")
	cmd.Flags().DurationVar(&every, "every", 0, "fetch the watched build again at this interval")

	return cmd
}

func printEvent(w io.Writer, e contracts.BuildStateEvent) {
	line := fmt.Sprintf("%s  %-22s %-8s", e.Timestamp, e.Key(), e.State)
	switch e.State {
	case "content":
		line += fmt.Sprintf(" #%s %s (%d jobs)", e.Number, e.BuildState, e.JobCount)
	case "error":
		line += " " + e.Error
	}
	fmt.Fprintln(w, line)
}
