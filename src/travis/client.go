// Package travis talks to the Travis CI REST API.
package travis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"travisjr/src/provider"
)

const (
	// DefaultBaseURL is the public Travis CI API.
	DefaultBaseURL = "https://api.travis-ci.org"
	acceptHeader   = "application/vnd.travis-ci.2+json"
)

// Client is a Travis CI API client
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a new Travis CI client. An empty baseURL uses
// DefaultBaseURL; an empty token sends unauthenticated requests.
func NewClient(baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		token: token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// SetTimeout changes the per-request timeout.
func (c *Client) SetTimeout(d time.Duration) {
	if d > 0 {
		c.httpClient.Timeout = d
	}
}

// GetRepos lists the repositories login is a member of.
func (c *Client) GetRepos(ctx context.Context, login string) ([]Repository, error) {
	endpoint := fmt.Sprintf("%s/repos?member=%s", c.baseURL, url.QueryEscape(login))

	resp, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var repos []Repository
	if err := json.NewDecoder(resp.Body).Decode(&repos); err != nil {
		return nil, fmt.Errorf("%w: decoding repositories: %v", provider.ErrMalformedResponse, err)
	}
	return repos, nil
}

// GetBuild fetches build metadata with its job matrix.
func (c *Client) GetBuild(ctx context.Context, owner, repo string, buildID int64) (*Build, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/%s/builds/%d", c.baseURL, url.PathEscape(owner), url.PathEscape(repo), buildID)

	resp, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var build Build
	if err := json.NewDecoder(resp.Body).Decode(&build); err != nil {
		return nil, fmt.Errorf("%w: decoding build %d: %v", provider.ErrMalformedResponse, buildID, err)
	}
	if build.ID == 0 {
		return nil, fmt.Errorf("%w: build %d has no id", provider.ErrMalformedResponse, buildID)
	}
	return &build, nil
}

// StreamJobLog copies the plain text log of a job into w.
func (c *Client) StreamJobLog(ctx context.Context, jobID int64, w io.Writer) error {
	endpoint := fmt.Sprintf("%s/jobs/%d/log.txt", c.baseURL, jobID)

	resp, err := c.get(ctx, endpoint)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if _, err := io.Copy(w, resp.Body); err != nil {
		return classify(fmt.Errorf("reading log of job %d: %w", jobID, err))
	}
	return nil
}

func (c *Client) get(ctx context.Context, endpoint string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, err
	}

	if c.token != "" {
		req.Header.Set("Authorization", "token "+c.token)
	}
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("User-Agent", "travisjr")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classify(err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, statusError(resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return resp, nil
}

func statusError(code int, body string) error {
	var sentinel error
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		sentinel = provider.ErrAuthFailed
	case http.StatusNotFound:
		sentinel = provider.ErrBuildNotFound
	case http.StatusTooManyRequests:
		sentinel = provider.ErrRateLimited
	default:
		return fmt.Errorf("Travis API error %d: %s", code, body)
	}
	return fmt.Errorf("%w (Travis API %d: %s)", sentinel, code, body)
}

func classify(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %v", provider.ErrNetworkTimeout, err)
	}
	return err
}
