package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"travisjr/src/build"
	"travisjr/src/contracts"
	"travisjr/src/joblog"
	"travisjr/src/logger"
	"travisjr/src/provider"
	"travisjr/src/repo"
	"travisjr/src/session"
)

const (
	serverName    = "travisjr"
	serverVersion = "1.0.0"

	defaultTailLines = 20
	defaultPageLines = 200
)

// RepoLister lists the repositories tracked for a user.
type RepoLister interface {
	ListAll(ctx context.Context, user *session.User) ([]provider.Repo, error)
}

// UserSource resolves the user a request runs as.
type UserSource interface {
	CurrentUser(ctx context.Context) (*session.User, error)
}

// BuildFetcher fetches build metadata and job logs.
type BuildFetcher interface {
	GetBuildInfo(ctx context.Context, owner, repo string, buildID int64) (*build.BuildInfo, error)
	GetJobLogs(ctx context.Context, info *build.BuildInfo) (joblog.Set, error)
}

// Server is the MCP server for travisjr.
type Server struct {
	mcpServer *server.MCPServer
	repos     RepoLister
	users     UserSource
	builds    BuildFetcher
	cache     *BuildCache
	logger    logger.Logger
}

// NewServer creates an MCP server exposing repositories and builds as tools.
func NewServer(repos RepoLister, users UserSource, builds BuildFetcher, log logger.Logger) *Server {
	s := server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(true),
	)

	srv := &Server{
		mcpServer: s,
		repos:     repos,
		users:     users,
		builds:    builds,
		cache:     NewBuildCache(DefaultCacheSize),
		logger:    logger.OrSilent(log),
	}
	srv.registerTools()

	return srv
}

func (s *Server) registerTools() {
	reposTool := mcp.NewTool("list_repos",
		mcp.WithDescription("List the repositories Travis CI tracks for a GitHub user, with the state of each repository's last build. Owned repositories belong to the user; member repositories are ones the user contributes to."),
		mcp.WithString("user",
			mcp.Description("GitHub username (default: the logged-in user)"),
		),
		mcp.WithString("relation",
			mcp.Description("Which repositories to list (default: all)"),
			mcp.Enum("all", "owned", "member"),
		),
	)

	buildTool := mcp.NewTool("get_build",
		mcp.WithDescription("Fetch one build with the last lines of every job log. Logs are cleaned of Travis fold markers and ANSI codes. Use get_job_log with the returned key to read a full job log."),
		mcp.WithString("url",
			mcp.Description("Build URL, e.g. https://travis-ci.org/owner/repo/builds/123"),
		),
		mcp.WithString("owner",
			mcp.Description("Repository owner (when url is not given)"),
		),
		mcp.WithString("repo",
			mcp.Description("Repository name (when url is not given)"),
		),
		mcp.WithNumber("build_id",
			mcp.Description("Build ID (when url is not given)"),
		),
		mcp.WithNumber("tail_lines",
			mcp.Description("Log lines per job (default: 20)"),
		),
	)

	jobLogTool := mcp.NewTool("get_job_log",
		mcp.WithDescription("Page through the full log of one job of a build previously fetched with get_build."),
		mcp.WithString("key",
			mcp.Required(),
			mcp.Description("Build key from the get_build response"),
		),
		mcp.WithString("job",
			mcp.Required(),
			mcp.Description("Job number, e.g. 123.1"),
		),
		mcp.WithNumber("offset",
			mcp.Description("First line to return (default: 0)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max lines to return (default: 200)"),
		),
	)

	s.mcpServer.AddTool(reposTool, s.handleListRepos)
	s.mcpServer.AddTool(buildTool, s.handleGetBuild)
	s.mcpServer.AddTool(jobLogTool, s.handleGetJobLog)
}

// Run serves MCP over stdio until stdin closes.
func (s *Server) Run() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) handleListRepos(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	relation := request.GetString("relation", "all")
	if relation != "all" && relation != "owned" && relation != "member" {
		return mcp.NewToolResultError(fmt.Sprintf("invalid relation %q: use all, owned or member", relation)), nil
	}

	if name := request.GetString("user", ""); name != "" {
		ctx = session.WithTransientUser(ctx, session.User{Username: name})
	}

	user, err := s.users.CurrentUser(ctx)
	if err != nil {
		return mcp.NewToolResultError(userMessage(err)), nil
	}

	all, err := s.repos.ListAll(ctx, user)
	if err != nil {
		s.logger.Error("[MCP] list_repos for %s failed: %v", user.Username, err)
		return mcp.NewToolResultError(userMessage(err)), nil
	}

	owned, _, err := repo.Partition(user, all)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	isOwned := make(map[string]bool, len(owned))
	for _, r := range owned {
		isOwned[r.Slug()] = true
	}

	response := ReposResponse{User: user.Username, Relation: relation, Repos: []RepoSummary{}}
	for _, r := range all {
		o := isOwned[r.Slug()]
		if (relation == "owned" && !o) || (relation == "member" && o) {
			continue
		}
		response.Repos = append(response.Repos, summarizeRepo(r, o))
	}
	response.Count = len(response.Repos)

	return jsonResult(response)
}

func summarizeRepo(r provider.Repo, owned bool) RepoSummary {
	summary := RepoSummary{Slug: r.Slug(), Owned: owned, Active: r.Active}
	if b := r.LastBuild; b != nil {
		summary.LastBuild = &LastBuild{ID: b.ID, Number: b.Number, State: b.State, StartedAt: b.StartedAt}
	}
	return summary
}

func (s *Server) handleGetBuild(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	owner := request.GetString("owner", "")
	name := request.GetString("repo", "")
	buildID := int64(request.GetInt("build_id", 0))

	if url := request.GetString("url", ""); url != "" {
		ref, err := provider.ParseURL(url)
		if err != nil {
			return mcp.NewToolResultError(userMessage(err)), nil
		}
		owner, name, buildID = ref.Owner, ref.Repo, ref.BuildID
	}

	info, err := s.builds.GetBuildInfo(ctx, owner, name, buildID)
	if err != nil {
		s.logger.Error("[MCP] get_build %s failed: %v", contracts.BuildKey(owner, name, buildID), err)
		return mcp.NewToolResultError(userMessage(err)), nil
	}
	logs, err := s.builds.GetJobLogs(ctx, info)
	if err != nil {
		s.logger.Error("[MCP] get_build %s failed: %v", contracts.BuildKey(owner, name, buildID), err)
		return mcp.NewToolResultError(userMessage(err)), nil
	}

	response := buildResponse(info, joblog.Render(logs), request.GetInt("tail_lines", defaultTailLines), s.cache)
	return jsonResult(response)
}

// buildResponse compacts every job log, caches the full lines and returns the
// response with each log cut to its last n lines.
func buildResponse(info *build.BuildInfo, logs joblog.Set, n int, cache *BuildCache) BuildResponse {
	response := BuildResponse{
		Key:           contracts.BuildKey(info.Owner(), info.Repo(), info.ID()),
		Slug:          info.Slug(),
		ID:            info.ID(),
		Number:        info.Number(),
		State:         info.State(),
		Commit:        info.Commit(),
		CommitterName: info.CommitterName(),
		StartDate:     info.StartDate(),
		StartTime:     info.StartTime(),
		Jobs:          make([]JobSummary, 0, logs.Len()),
	}

	full := make(map[string][]string, logs.Len())
	for i := 0; i < logs.Len(); i++ {
		job, text := logs.At(i)
		lines := compactLog(text)
		full[job.String()] = lines
		response.Jobs = append(response.Jobs, JobSummary{
			ID:         job.ID,
			Number:     job.String(),
			TotalLines: len(lines),
			Tail:       tail(lines, n),
		})
	}

	cache.Store(response, full)
	return response
}

func (s *Server) handleGetJobLog(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key := request.GetString("key", "")
	if key == "" {
		return mcp.NewToolResultError("key parameter is required"), nil
	}
	job := request.GetString("job", "")
	if job == "" {
		return mcp.NewToolResultError("job parameter is required"), nil
	}

	lines, found := s.cache.Get(key, job)
	if !found {
		return mcp.NewToolResultError(fmt.Sprintf("job log not found: key=%s, job=%s (call get_build first)", key, job)), nil
	}

	offset := request.GetInt("offset", 0)
	limit := request.GetInt("limit", defaultPageLines)
	if offset < 0 {
		offset = 0
	}
	if offset > len(lines) {
		offset = len(lines)
	}
	end := len(lines)
	if limit >= 0 && limit < end-offset {
		end = offset + limit
	}

	return jsonResult(JobLogResponse{
		Key:        key,
		Job:        job,
		Offset:     offset,
		TotalLines: len(lines),
		Lines:      lines[offset:end],
	})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// userMessage renders err the way the CLI does, with a hint when one exists.
func userMessage(err error) string {
	return provider.WrapError(err).Error()
}
