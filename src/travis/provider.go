package travis

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"travisjr/src/provider"
)

func init() {
	// Register the Travis CI provider factory
	provider.RegisterProvider("travis", func(baseURL, token string) provider.Provider {
		return NewProvider(baseURL, token)
	})
}

// Provider implements provider.Provider for Travis CI
type Provider struct {
	client *Client
}

// NewProvider creates a Travis CI provider
func NewProvider(baseURL, token string) *Provider {
	return &Provider{
		client: NewClient(baseURL, token),
	}
}

// Client exposes the underlying API client.
func (p *Provider) Client() *Client {
	return p.client
}

// SetTimeout changes the per-request timeout of the API client.
func (p *Provider) SetTimeout(d time.Duration) {
	p.client.SetTimeout(d)
}

// Name returns "travis"
func (p *Provider) Name() string {
	return "travis"
}

// FetchRepos lists the repositories username is a member of.
func (p *Provider) FetchRepos(ctx context.Context, username string) ([]provider.Repo, error) {
	raw, err := p.client.GetRepos(ctx, username)
	if err != nil {
		return nil, err
	}

	repos := make([]provider.Repo, 0, len(raw))
	for _, r := range raw {
		owner, name, _ := strings.Cut(r.Slug, "/")
		repo := provider.Repo{
			ID:     r.ID,
			Owner:  owner,
			Name:   name,
			Active: r.Active,
		}
		if r.LastBuildID != 0 {
			repo.LastBuild = &provider.BuildSummary{
				ID:        r.LastBuildID,
				Number:    r.LastBuildNumber,
				State:     mapLastBuildStatus(r.LastBuildStatus),
				StartedAt: r.LastBuildStartedAt,
			}
		}
		repos = append(repos, repo)
	}
	return repos, nil
}

// FetchBuild retrieves build metadata and its jobs in matrix order.
func (p *Provider) FetchBuild(ctx context.Context, owner, repo string, buildID int64) (*provider.Build, error) {
	b, err := p.client.GetBuild(ctx, owner, repo, buildID)
	if err != nil {
		return nil, err
	}

	if b.StartedAt != "" {
		if _, err := time.Parse(time.RFC3339, b.StartedAt); err != nil {
			return nil, fmt.Errorf("%w: started_at %q", provider.ErrMalformedResponse, b.StartedAt)
		}
	}

	build := &provider.Build{
		ID:             b.ID,
		Number:         b.Number,
		State:          b.State,
		StartedAt:      b.StartedAt,
		Commit:         b.Commit,
		CommitterName:  b.CommitterName,
		CommitterEmail: b.CommitterEmail,
		Jobs:           make([]provider.Job, 0, len(b.Matrix)),
	}
	for _, j := range b.Matrix {
		build.Jobs = append(build.Jobs, provider.Job{
			ID:     j.ID,
			Number: j.Number,
			State:  j.State,
		})
	}

	return build, nil
}

// FetchJobLog streams the plain text log of a job.
func (p *Provider) FetchJobLog(ctx context.Context, jobID int64, w io.Writer) error {
	return p.client.StreamJobLog(ctx, jobID, w)
}

// mapLastBuildStatus converts the v2 numeric result (0 passed, 1 failed,
// null still running) to a state name.
func mapLastBuildStatus(status *int) string {
	if status == nil {
		return "started"
	}
	switch *status {
	case 0:
		return "passed"
	case 1:
		return "failed"
	default:
		return "errored"
	}
}
