package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"travisjr/src/intent"
	"travisjr/src/logger"
	"travisjr/src/pipeline"
	"travisjr/src/provider"
	"travisjr/src/sanitize"
	"travisjr/src/tui"
	"travisjr/src/view"
)

func newBuildCmd(a *app) *cobra.Command {
	var (
		plain bool
		tail  int
	)

	cmd := &cobra.Command{
		Use:   "build OWNER/REPO BUILD_ID | build URL",
		Short: "Show a build and the log of every job",
		Long: `Fetch a build and the console log of each of its jobs.

The build can be given as OWNER/REPO BUILD_ID or as a build page URL:
  travisjr build octocat/hello-world 42
  travisjr build https://travis-ci.org/octocat/hello-world/builds/42

By default an interactive view opens. Press r to refresh, tab to switch jobs,
o to open the commit, p to open the repository and e to email the committer.

With --plain the build is printed once and the command exits.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := parseTarget(args)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			if plain {
				log := newLogger(a.cfg, a.errOut)
				p, err := a.pipeline(ctx, log)
				if err != nil {
					return err
				}
				defer p.Close()
				return printBuildOnce(ctx, p, log, target, a.out, tail)
			}

			p, err := a.pipeline(ctx, logger.NewSilentLogger())
			if err != nil {
				return err
			}
			defer p.Close()
			return a.showBuild(ctx, p, target)
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "print the build once instead of opening the interactive view")
	cmd.Flags().IntVar(&tail, "tail", 0, "with --plain, print only the last N lines of each job log (0 prints all)")

	return cmd
}

// parseTarget accepts either a build URL or OWNER/REPO and a build ID.
func parseTarget(args []string) (view.Target, error) {
	if len(args) == 1 {
		ref, err := provider.ParseURL(args[0])
		if err != nil {
			return view.Target{}, err
		}
		return view.Target{Owner: ref.Owner, Repo: ref.Repo, BuildID: ref.BuildID}, nil
	}

	owner, name, ok := strings.Cut(args[0], "/")
	if !ok || strings.Contains(name, "/") {
		return view.Target{}, fmt.Errorf("invalid repository %q: expected OWNER/REPO", args[0])
	}
	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil || id < 0 {
		return view.Target{}, fmt.Errorf("invalid build ID %q", args[1])
	}
	// Empty parts and a zero ID are reported by the fetcher together.
	return view.Target{Owner: owner, Repo: name, BuildID: id}, nil
}

// showBuild runs the interactive build view until the user quits.
func (a *app) showBuild(ctx context.Context, p *pipeline.Pipeline, target view.Target) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := p.Watch(ctx, target)
	if err := m.Request(ctx); err != nil {
		return err
	}

	model := tui.NewBuildModel(ctx, m, intent.NewBuilder(a.cfg.GitHubWebURL), a.open)
	if _, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithReportFocus(), tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// printBuildOnce fetches target and prints it when the view settles. A
// failed fetch is reported with the unavailable notice; the cause only goes
// to the debug log.
func printBuildOnce(ctx context.Context, p *pipeline.Pipeline, log logger.Logger, target view.Target, w io.Writer, tail int) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := p.Watch(ctx, target)
	states := m.Subscribe(ctx)
	if err := m.Request(ctx); err != nil {
		return err
	}

	for s := range states {
		switch s.Kind {
		case view.Content:
			printBuild(w, s, tail)
			return nil
		case view.Error:
			log.Debug("[Build] %s/%s#%d unavailable: %v", target.Owner, target.Repo, target.BuildID, s.Err)
			notice := &provider.UserError{Message: s.Notice()}
			var userErr *provider.UserError
			if errors.As(provider.WrapError(s.Err), &userErr) {
				notice.Hint = userErr.Hint
			}
			return notice
		}
	}
	return ctx.Err()
}

func printBuild(w io.Writer, s *view.State, tail int) {
	b := s.Build
	fmt.Fprintf(w, "%s #%s %s\n", b.Slug(), b.Number(), b.State())
	if b.StartDate() != "" {
		fmt.Fprintf(w, "Started:  %s %s\n", b.StartDate(), b.StartTime())
	}
	if b.Commit() != "" {
		committer := b.CommitterName()
		if email := b.CommitterEmail(); email != "" {
			committer += " <" + email + ">"
		}
		fmt.Fprintf(w, "Commit:   %s by %s\n", b.Commit(), committer)
	}

	for i := 0; i < s.Logs.Len(); i++ {
		job, text := s.Logs.At(i)
		text = sanitize.Clean(text)
		if tail > 0 {
			text = sanitize.Tail(text, tail)
		}
		fmt.Fprintf(w, "\n=== Job %s ===\n%s\n", job, text)
	}
}
