package main

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"travisjr/src/logger"
	"travisjr/src/pipeline"
	"travisjr/src/provider"
	"travisjr/src/repo"
	"travisjr/src/tui"
	"travisjr/src/view"
)

func newReposCmd(a *app) *cobra.Command {
	var (
		owned  bool
		member bool
		find   string
		pick   bool
	)

	cmd := &cobra.Command{
		Use:   "repos",
		Short: "List the repositories Travis CI tracks for a user",
		Long: `List the repositories Travis CI tracks for the logged-in user, or for
--user. Owned repositories belong to the user; member repositories are ones
the user contributes to.

With --pick an interactive list opens; choosing a repository shows its last
build.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var log logger.Logger
			if pick {
				log = logger.NewSilentLogger()
			}
			p, err := a.pipeline(ctx, log)
			if err != nil {
				return err
			}
			defer p.Close()

			if pick {
				return a.pickRepo(ctx, p)
			}

			var repos []provider.Repo
			switch {
			case owned:
				repos, err = p.Repos.ListByOwner(ctx, nil)
			case member:
				repos, err = p.Repos.ListByMember(ctx, nil)
			default:
				repos, err = p.Repos.ListAll(ctx, nil)
			}
			if err != nil {
				return err
			}

			if find != "" {
				r, ok := repo.FindByName(find, repos)
				if !ok {
					return fmt.Errorf("no repository named %q", find)
				}
				repos = []provider.Repo{r}
			}

			printRepos(a.out, repos)
			return nil
		},
	}

	cmd.Flags().BoolVar(&owned, "owned", false, "only repositories the user owns")
	cmd.Flags().BoolVar(&member, "member", false, "only repositories the user contributes to")
	cmd.Flags().StringVar(&find, "find", "", "show the repository with this exact name")
	cmd.Flags().BoolVar(&pick, "pick", false, "choose a repository interactively")
	cmd.MarkFlagsMutuallyExclusive("owned", "member")
	cmd.MarkFlagsMutuallyExclusive("pick", "find")

	return cmd
}

// printRepos writes one aligned row per repository.
func printRepos(w io.Writer, repos []provider.Repo) {
	if len(repos) == 0 {
		fmt.Fprintln(w, "No repositories.")
		return
	}

	headers := []string{"REPOSITORY", "BUILD", "STATE"}
	rows := make([][]string, 0, len(repos))
	for _, r := range repos {
		number, state := "-", "-"
		if b := r.LastBuild; b != nil {
			number, state = "#"+b.Number, b.State
		}
		rows = append(rows, []string{r.Slug(), number, state})
	}

	widths := make([]int, len(headers))
	for _, row := range append([][]string{headers}, rows...) {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}

	for _, row := range append([][]string{headers}, rows...) {
		fmt.Fprintf(w, "%s  %s  %s\n",
			runewidth.FillRight(row[0], widths[0]),
			runewidth.FillRight(row[1], widths[1]),
			row[2])
	}
}

// pickRepo opens the repository picker and shows the last build of the
// chosen repository.
func (a *app) pickRepo(ctx context.Context, p *pipeline.Pipeline) error {
	user, err := p.Session.CurrentUser(ctx)
	if err != nil {
		return err
	}
	all, err := p.Repos.ListAll(ctx, user)
	if err != nil {
		return err
	}
	owned, member, err := repo.Partition(user, all)
	if err != nil {
		return err
	}

	final, err := tea.NewProgram(tui.NewPickerModel(user.Username, owned, member), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	chosen, ok := final.(tui.PickerModel).Choice()
	if !ok {
		return nil
	}
	if chosen.LastBuild == nil {
		fmt.Fprintf(a.out, "%s has no builds yet.\n", chosen.Slug())
		return nil
	}

	return a.showBuild(ctx, p, view.Target{Owner: chosen.Owner, Repo: chosen.Name, BuildID: chosen.LastBuild.ID})
}
