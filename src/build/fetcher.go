// Package build retrieves build metadata and job logs from the CI provider.
package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"travisjr/src/joblog"
	"travisjr/src/logger"
	"travisjr/src/provider"
)

// DefaultConcurrency bounds parallel job log downloads.
const DefaultConcurrency = 4

// UnavailableError means a build or its logs could not be fully retrieved.
type UnavailableError struct {
	Owner   string
	Repo    string
	BuildID int64
	Reason  string
	Err     error
}

func (e *UnavailableError) Error() string {
	msg := fmt.Sprintf("build %d of %s/%s is unavailable", e.BuildID, e.Owner, e.Repo)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// Source is the part of a provider the fetcher needs.
type Source interface {
	FetchBuild(ctx context.Context, owner, repo string, buildID int64) (*provider.Build, error)
	FetchJobLog(ctx context.Context, jobID int64, w io.Writer) error
}

// Fetcher retrieves builds and job logs.
type Fetcher struct {
	source      Source
	logger      logger.Logger
	concurrency int
	format      DisplayFormat
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithConcurrency limits the number of job logs fetched at once.
func WithConcurrency(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.concurrency = n
		}
	}
}

// WithLocation sets the time zone of the derived display fields.
func WithLocation(loc *time.Location) Option {
	return func(f *Fetcher) { f.format.Location = loc }
}

func NewFetcher(source Source, log logger.Logger, opts ...Option) *Fetcher {
	f := &Fetcher{
		source:      source,
		logger:      logger.OrSilent(log),
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func missingArguments(owner, repo string, buildID int64) error {
	var missing []string
	if strings.TrimSpace(owner) == "" {
		missing = append(missing, "owner")
	}
	if strings.TrimSpace(repo) == "" {
		missing = append(missing, "repo")
	}
	if buildID <= 0 {
		missing = append(missing, "build id")
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("The following required argument(s) must be supplied, %s.", strings.Join(missing, ", "))
}

// GetBuildInfo fetches build metadata. Inputs are validated before any
// network access; every failure is an *UnavailableError.
func (f *Fetcher) GetBuildInfo(ctx context.Context, owner, repo string, buildID int64) (*BuildInfo, error) {
	if err := missingArguments(owner, repo, buildID); err != nil {
		return nil, &UnavailableError{Owner: owner, Repo: repo, BuildID: buildID, Err: err}
	}

	f.logger.Debug("[Build] Fetching build %d of %s/%s", buildID, owner, repo)
	b, err := f.source.FetchBuild(ctx, owner, repo, buildID)
	if err != nil {
		return nil, &UnavailableError{Owner: owner, Repo: repo, BuildID: buildID, Err: err}
	}
	if b == nil {
		return nil, &UnavailableError{Owner: owner, Repo: repo, BuildID: buildID, Err: provider.ErrMalformedResponse}
	}

	jobs := make([]joblog.Job, len(b.Jobs))
	for i, j := range b.Jobs {
		jobs[i] = joblog.Job{BuildID: buildID, ID: j.ID, Number: j.Number}
	}

	info, err := NewBuildInfo(Fields{
		Owner:          owner,
		Repo:           repo,
		ID:             buildID,
		Number:         b.Number,
		State:          b.State,
		StartedAt:      b.StartedAt,
		Commit:         b.Commit,
		CommitterName:  b.CommitterName,
		CommitterEmail: b.CommitterEmail,
		Jobs:           jobs,
	}, f.format)
	if err != nil {
		return nil, &UnavailableError{
			Owner:   owner,
			Repo:    repo,
			BuildID: buildID,
			Reason:  "unparseable response",
			Err:     errors.Join(provider.ErrMalformedResponse, err),
		}
	}

	return info, nil
}

// GetJobLogs downloads the log of every job in info concurrently. If any job
// fails the whole build is unavailable and no partial set is returned.
func (f *Fetcher) GetJobLogs(ctx context.Context, info *BuildInfo) (joblog.Set, error) {
	if info == nil {
		return joblog.Set{}, &UnavailableError{Reason: "no build"}
	}

	builder := joblog.NewBuilder(info.Jobs())
	jobs := builder.Jobs()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)

	for _, job := range jobs {
		log, err := builder.Log(job)
		if err != nil {
			return joblog.Set{}, &UnavailableError{Owner: info.Owner(), Repo: info.Repo(), BuildID: info.ID(), Err: err}
		}
		g.Go(func() error {
			if err := f.source.FetchJobLog(gctx, job.ID, log); err != nil {
				return fmt.Errorf("job %s: %w", job, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		f.logger.Debug("[Build] Job logs of %s#%s failed: %v", info.Slug(), info.Number(), err)
		return joblog.Set{}, &UnavailableError{
			Owner:   info.Owner(),
			Repo:    info.Repo(),
			BuildID: info.ID(),
			Reason:  "job logs incomplete",
			Err:     err,
		}
	}

	f.logger.Debug("[Build] Fetched %d job logs of %s#%s", len(jobs), info.Slug(), info.Number())
	return builder.Set(), nil
}
