package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"travisjr/src/build"
	"travisjr/src/joblog"
	"travisjr/src/provider"
	"travisjr/src/session"
)

type fakeRepos struct {
	repos []provider.Repo
	err   error
	user  string
}

func (f *fakeRepos) ListAll(ctx context.Context, user *session.User) ([]provider.Repo, error) {
	f.user = user.Username
	return f.repos, f.err
}

type fakeUsers struct {
	stored string
}

func (f fakeUsers) CurrentUser(ctx context.Context) (*session.User, error) {
	if u, ok := session.TransientUser(ctx); ok {
		return &u, nil
	}
	if f.stored == "" {
		return nil, &session.MissingCredentialsError{Linked: "octocat"}
	}
	return &session.User{Username: f.stored}, nil
}

type fakeBuilds struct {
	logs    []string
	err     error
	fetched []int64
}

func (f *fakeBuilds) GetBuildInfo(ctx context.Context, owner, repo string, buildID int64) (*build.BuildInfo, error) {
	f.fetched = append(f.fetched, buildID)
	if f.err != nil {
		return nil, &build.UnavailableError{Owner: owner, Repo: repo, BuildID: buildID, Err: f.err}
	}
	jobs := make([]joblog.Job, len(f.logs))
	for i := range f.logs {
		jobs[i] = joblog.Job{BuildID: buildID, ID: buildID*10 + int64(i), Number: "17." + string(rune('1'+i))}
	}
	return build.NewBuildInfo(build.Fields{
		Owner:     owner,
		Repo:      repo,
		ID:        buildID,
		Number:    "17",
		State:     "failed",
		StartedAt: "2013-05-01T10:00:00Z",
		Commit:    "6b4f4f0c3e2a",
		Jobs:      jobs,
	}, build.DisplayFormat{Location: time.UTC})
}

func (f *fakeBuilds) GetJobLogs(ctx context.Context, info *build.BuildInfo) (joblog.Set, error) {
	return joblog.NewSet(info.Jobs(), f.logs), nil
}

func callTool(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) != 1 {
		t.Fatalf("expected 1 content item, got %d", len(res.Content))
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", res.Content[0])
	}
	return text.Text
}

func decode[T any](t *testing.T, res *mcp.CallToolResult) T {
	t.Helper()
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, res))
	}
	var v T
	if err := json.Unmarshal([]byte(resultText(t, res)), &v); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	return v
}

func testServer(repos *fakeRepos, users fakeUsers, builds *fakeBuilds) *Server {
	return NewServer(repos, users, builds, nil)
}

func TestListRepos(t *testing.T) {
	repos := &fakeRepos{repos: []provider.Repo{
		{Owner: "octocat", Name: "hello-world", Active: true, LastBuild: &provider.BuildSummary{ID: 42, Number: "17", State: "passed"}},
		{Owner: "github", Name: "linguist"},
		{Owner: "octocat", Name: "Spoon-Knife"},
	}}
	srv := testServer(repos, fakeUsers{stored: "octocat"}, &fakeBuilds{})

	tests := []struct {
		relation string
		want     []string
	}{
		{"all", []string{"octocat/hello-world", "github/linguist", "octocat/Spoon-Knife"}},
		{"owned", []string{"octocat/hello-world", "octocat/Spoon-Knife"}},
		{"member", []string{"github/linguist"}},
	}

	for _, tt := range tests {
		t.Run(tt.relation, func(t *testing.T) {
			res, err := srv.handleListRepos(context.Background(), callTool(map[string]any{"relation": tt.relation}))
			if err != nil {
				t.Fatalf("handleListRepos() error = %v", err)
			}
			got := decode[ReposResponse](t, res)

			if got.User != "octocat" || got.Count != len(tt.want) {
				t.Fatalf("got user=%s count=%d", got.User, got.Count)
			}
			for i, slug := range tt.want {
				if got.Repos[i].Slug != slug {
					t.Errorf("Repos[%d] = %s, want %s", i, got.Repos[i].Slug, slug)
				}
			}
		})
	}
}

func TestListRepos_LastBuild(t *testing.T) {
	repos := &fakeRepos{repos: []provider.Repo{
		{Owner: "octocat", Name: "hello-world", Active: true, LastBuild: &provider.BuildSummary{ID: 42, Number: "17", State: "passed"}},
	}}
	srv := testServer(repos, fakeUsers{stored: "octocat"}, &fakeBuilds{})

	res, _ := srv.handleListRepos(context.Background(), callTool(nil))
	got := decode[ReposResponse](t, res)

	r := got.Repos[0]
	if !r.Owned || !r.Active || r.LastBuild == nil || r.LastBuild.State != "passed" {
		t.Errorf("unexpected summary %+v", r)
	}
}

func TestListRepos_TransientUser(t *testing.T) {
	repos := &fakeRepos{}
	srv := testServer(repos, fakeUsers{stored: "octocat"}, &fakeBuilds{})

	res, _ := srv.handleListRepos(context.Background(), callTool(map[string]any{"user": "hubot"}))
	got := decode[ReposResponse](t, res)

	if got.User != "hubot" || repos.user != "hubot" {
		t.Errorf("expected listing for hubot, got user=%s lister=%s", got.User, repos.user)
	}
	if got.Repos == nil {
		t.Error("expected empty list, not null")
	}
}

func TestListRepos_Errors(t *testing.T) {
	t.Run("missing account", func(t *testing.T) {
		srv := testServer(&fakeRepos{}, fakeUsers{}, &fakeBuilds{})
		res, _ := srv.handleListRepos(context.Background(), callTool(nil))
		if !res.IsError || !strings.Contains(resultText(t, res), "travisjr login octocat") {
			t.Errorf("expected missing account hint, got %q", resultText(t, res))
		}
	})

	t.Run("invalid relation", func(t *testing.T) {
		srv := testServer(&fakeRepos{}, fakeUsers{stored: "octocat"}, &fakeBuilds{})
		res, _ := srv.handleListRepos(context.Background(), callTool(map[string]any{"relation": "starred"}))
		if !res.IsError {
			t.Error("expected error for invalid relation")
		}
	})

	t.Run("provider failure", func(t *testing.T) {
		repos := &fakeRepos{err: provider.ErrRateLimited}
		srv := testServer(repos, fakeUsers{stored: "octocat"}, &fakeBuilds{})
		res, _ := srv.handleListRepos(context.Background(), callTool(nil))
		if !res.IsError || !strings.Contains(resultText(t, res), "Rate limited") {
			t.Errorf("expected rate limit message, got %q", resultText(t, res))
		}
	})
}

func TestGetBuild(t *testing.T) {
	builds := &fakeBuilds{logs: []string{
		"$ rake\r\nline 1\r\nline 2\r\nline 3\r\n",
		"travis_fold:start:lint\r\x1b[0K$ rubocop\nno offenses\n",
	}}
	srv := testServer(&fakeRepos{}, fakeUsers{}, builds)

	res, err := srv.handleGetBuild(context.Background(), callTool(map[string]any{
		"url":        "https://travis-ci.org/octocat/hello-world/builds/42",
		"tail_lines": 2,
	}))
	if err != nil {
		t.Fatalf("handleGetBuild() error = %v", err)
	}
	got := decode[BuildResponse](t, res)

	if got.Key != "octocat/hello-world#42" || got.Slug != "octocat/hello-world" {
		t.Errorf("unexpected identity: key=%s slug=%s", got.Key, got.Slug)
	}
	if got.StartDate != "May 1, 2013" || got.StartTime != "10:00 AM" {
		t.Errorf("unexpected start: %s %s", got.StartDate, got.StartTime)
	}
	if len(got.Jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(got.Jobs))
	}
	if got.Jobs[0].Number != "17.1" || got.Jobs[0].TotalLines != 4 {
		t.Errorf("job 0 = %+v", got.Jobs[0])
	}
	if strings.Join(got.Jobs[0].Tail, "|") != "line 2|line 3" {
		t.Errorf("job 0 tail = %q", got.Jobs[0].Tail)
	}
	if strings.Join(got.Jobs[1].Tail, "|") != "$ rubocop|no offenses" {
		t.Errorf("job 1 tail = %q", got.Jobs[1].Tail)
	}
}

func TestGetBuild_Arguments(t *testing.T) {
	builds := &fakeBuilds{logs: []string{"ok"}}
	srv := testServer(&fakeRepos{}, fakeUsers{}, builds)

	res, _ := srv.handleGetBuild(context.Background(), callTool(map[string]any{
		"owner":    "octocat",
		"repo":     "hello-world",
		"build_id": float64(7),
	}))
	got := decode[BuildResponse](t, res)

	if got.ID != 7 || len(builds.fetched) != 1 {
		t.Errorf("expected build 7 fetched once, got id=%d fetched=%v", got.ID, builds.fetched)
	}
}

func TestGetBuild_Errors(t *testing.T) {
	t.Run("invalid url", func(t *testing.T) {
		builds := &fakeBuilds{}
		srv := testServer(&fakeRepos{}, fakeUsers{}, builds)
		res, _ := srv.handleGetBuild(context.Background(), callTool(map[string]any{"url": "https://example.com/build/1"}))
		if !res.IsError || !strings.Contains(resultText(t, res), "Invalid build URL") {
			t.Errorf("expected invalid URL message, got %q", resultText(t, res))
		}
		if len(builds.fetched) != 0 {
			t.Error("invalid URL must not reach the fetcher")
		}
	})

	t.Run("not found", func(t *testing.T) {
		srv := testServer(&fakeRepos{}, fakeUsers{}, &fakeBuilds{err: provider.ErrBuildNotFound})
		res, _ := srv.handleGetBuild(context.Background(), callTool(map[string]any{"owner": "o", "repo": "r", "build_id": 1}))
		if !res.IsError || !strings.Contains(resultText(t, res), "Build not found") {
			t.Errorf("expected not found message, got %q", resultText(t, res))
		}
	})

	t.Run("opaque failure", func(t *testing.T) {
		srv := testServer(&fakeRepos{}, fakeUsers{}, &fakeBuilds{err: errors.New("boom")})
		res, _ := srv.handleGetBuild(context.Background(), callTool(map[string]any{"owner": "o", "repo": "r", "build_id": 1}))
		if !res.IsError {
			t.Error("expected tool error")
		}
	})
}

func TestGetJobLog(t *testing.T) {
	builds := &fakeBuilds{logs: []string{"a\nb\nc\nd\ne\n"}}
	srv := testServer(&fakeRepos{}, fakeUsers{}, builds)

	res, _ := srv.handleGetBuild(context.Background(), callTool(map[string]any{"owner": "o", "repo": "r", "build_id": 1}))
	key := decode[BuildResponse](t, res).Key

	tests := []struct {
		name   string
		offset int
		limit  int
		want   string
	}{
		{"first page", 0, 2, "a|b"},
		{"middle", 2, 2, "c|d"},
		{"past end", 4, 10, "e"},
		{"offset beyond", 9, 2, ""},
		{"negative offset", -3, 1, "a"},
		{"huge limit", 1, math.MaxInt - 1000, "b|c|d|e"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, _ := srv.handleGetJobLog(context.Background(), callTool(map[string]any{
				"key":    key,
				"job":    "17.1",
				"offset": tt.offset,
				"limit":  tt.limit,
			}))
			got := decode[JobLogResponse](t, res)

			if got.TotalLines != 5 {
				t.Errorf("TotalLines = %d, want 5", got.TotalLines)
			}
			if strings.Join(got.Lines, "|") != tt.want {
				t.Errorf("Lines = %q, want %q", got.Lines, tt.want)
			}
		})
	}
}

func TestGetJobLog_NotFetched(t *testing.T) {
	srv := testServer(&fakeRepos{}, fakeUsers{}, &fakeBuilds{})

	res, _ := srv.handleGetJobLog(context.Background(), callTool(map[string]any{"key": "o/r#1", "job": "1.1"}))
	if !res.IsError || !strings.Contains(resultText(t, res), "call get_build first") {
		t.Errorf("expected not found error, got %q", resultText(t, res))
	}

	res, _ = srv.handleGetJobLog(context.Background(), callTool(map[string]any{"job": "1.1"}))
	if !res.IsError {
		t.Error("expected error for missing key")
	}
}
