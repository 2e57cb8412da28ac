// Demo program to showcase the build view with a realistic, canned build.
// Nothing leaves the process: a local source stands in for the Travis API.
package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"travisjr/src/build"
	"travisjr/src/intent"
	"travisjr/src/provider"
	"travisjr/src/tui"
	"travisjr/src/view"
)

// demoSource serves one build with three jobs after a short delay.
type demoSource struct{}

func (demoSource) FetchBuild(ctx context.Context, owner, repo string, buildID int64) (*provider.Build, error) {
	if err := pause(ctx, 600*time.Millisecond); err != nil {
		return nil, err
	}
	return &provider.Build{
		ID:             buildID,
		Number:         "1337",
		State:          "failed",
		StartedAt:      time.Now().Add(-7 * time.Minute).UTC().Format(time.RFC3339),
		Commit:         "9f2c1e4b7a0d3c6e8f1a2b4c5d6e7f8091a2b3c4",
		CommitterName:  "Jane Doe",
		CommitterEmail: "jane@example.com",
		Jobs: []provider.Job{
			{ID: 1, Number: "1337.1", State: "passed"},
			{ID: 2, Number: "1337.2", State: "failed"},
			{ID: 3, Number: "1337.3", State: "passed"},
		},
	}, nil
}

func (demoSource) FetchJobLog(ctx context.Context, jobID int64, w io.Writer) error {
	if err := pause(ctx, time.Duration(200+rand.Intn(800))*time.Millisecond); err != nil {
		return err
	}
	_, err := io.WriteString(w, generateLog(jobID))
	return err
}

func pause(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func generateLog(jobID int64) string {
	rubies := map[int64]string{1: "3.1.4", 2: "3.2.2", 3: "3.3.0"}

	var b strings.Builder
	fmt.Fprintf(&b, "travis_fold:start:worker_info\r\x1b[0K\x1b[33;1mWorker information\x1b[0m\r\n")
	fmt.Fprintf(&b, "hostname: worker-%d.travisci.net\r\nversion: v6.2.0\r\n", jobID)
	fmt.Fprintf(&b, "travis_fold:end:worker_info\r\x1b[0K\r\n")
	fmt.Fprintf(&b, "$ rvm use %s --install --binary --fuzzy\r\n", rubies[jobID])
	fmt.Fprintf(&b, "Using /home/travis/.rvm/gems/ruby-%s\r\n", rubies[jobID])
	fmt.Fprintf(&b, "$ bundle install --jobs=3 --retry=3\r\n")
	for _, gem := range []string{"rake 13.1.0", "rspec-core 3.12.2", "rspec-expectations 3.12.3", "rubocop 1.59.0"} {
		fmt.Fprintf(&b, "Using %s\r\n", gem)
	}
	fmt.Fprintf(&b, "$ bundle exec rake\r\n")

	for i := 1; i <= 40; i++ {
		fmt.Fprintf(&b, "  User#valid? example %d passes\n", i)
	}

	if jobID == 2 {
		fmt.Fprintf(&b, "\x1b[31mFailures:\x1b[0m\n\n")
		fmt.Fprintf(&b, "  1) User#valid? rejects blank emails\n")
		fmt.Fprintf(&b, "     Failure/Error: expect(user).not_to be_valid\n")
		fmt.Fprintf(&b, "     # ./spec/models/user_spec.rb:42:in `block (2 levels) in <top (required)>'\n\n")
		fmt.Fprintf(&b, "41 examples, 1 failure\n\n")
		fmt.Fprintf(&b, "The command \"bundle exec rake\" exited with 1.\n")
	} else {
		fmt.Fprintf(&b, "\n41 examples, 0 failures\n\n")
		fmt.Fprintf(&b, "The command \"bundle exec rake\" exited with 0.\n")
	}
	fmt.Fprintf(&b, "\nDone. Your build exited with %d.\n", map[bool]int{true: 1, false: 0}[jobID == 2])
	return b.String()
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fetcher := build.NewFetcher(demoSource{}, nil)
	m := view.NewMachine(fetcher, view.Target{Owner: "octocat", Repo: "hello-world", BuildID: 42})
	go m.Run(ctx)

	fmt.Println("Launching build view...")
	time.Sleep(300 * time.Millisecond) // Brief pause for effect

	if err := m.Request(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error requesting build: %v\n", err)
		os.Exit(1)
	}

	model := tui.NewBuildModel(ctx, m, intent.NewBuilder(""), func(in intent.Intent) error {
		return fmt.Errorf("demo does not open %s", in.URL)
	})
	if _, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithReportFocus()).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}
