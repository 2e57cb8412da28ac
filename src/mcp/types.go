// Package mcp serves tracked repositories and build logs to MCP clients.
package mcp

// ReposResponse is the list_repos tool response.
type ReposResponse struct {
	User     string        `json:"user"`
	Relation string        `json:"relation"`
	Count    int           `json:"count"`
	Repos    []RepoSummary `json:"repos"`
}

// RepoSummary is one repository in a listing.
type RepoSummary struct {
	Slug      string     `json:"slug"`
	Owned     bool       `json:"owned"`
	Active    bool       `json:"active"`
	LastBuild *LastBuild `json:"last_build,omitempty"`
}

// LastBuild is the last-known build of a repository.
type LastBuild struct {
	ID        int64  `json:"id"`
	Number    string `json:"number"`
	State     string `json:"state"`
	StartedAt string `json:"started_at,omitempty"`
}

// BuildResponse is the get_build tool response. Job logs are compacted and
// cut to their last lines; get_job_log pages through the full text.
type BuildResponse struct {
	Key           string       `json:"key"`
	Slug          string       `json:"slug"`
	ID            int64        `json:"id"`
	Number        string       `json:"number"`
	State         string       `json:"state"`
	Commit        string       `json:"commit,omitempty"`
	CommitterName string       `json:"committer_name,omitempty"`
	StartDate     string       `json:"start_date,omitempty"`
	StartTime     string       `json:"start_time,omitempty"`
	Jobs          []JobSummary `json:"jobs"`
}

// JobSummary is the tail of one job log.
type JobSummary struct {
	ID         int64    `json:"id"`
	Number     string   `json:"number"`
	TotalLines int      `json:"total_lines"`
	Tail       []string `json:"tail"`
}

// JobLogResponse is one page of a job log.
type JobLogResponse struct {
	Key        string   `json:"key"`
	Job        string   `json:"job"`
	Offset     int      `json:"offset"`
	TotalLines int      `json:"total_lines"`
	Lines      []string `json:"lines"`
}
