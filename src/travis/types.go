package travis

// Repository is an entry of GET /repos.
type Repository struct {
	ID                 int64  `json:"id"`
	Slug               string `json:"slug"`
	Active             bool   `json:"active"`
	LastBuildID        int64  `json:"last_build_id"`
	LastBuildNumber    string `json:"last_build_number"`
	LastBuildStatus    *int   `json:"last_build_status"`
	LastBuildStartedAt string `json:"last_build_started_at"`
}

// Build is the response of GET /repos/{owner}/{name}/builds/{id}.
type Build struct {
	ID             int64  `json:"id"`
	Number         string `json:"number"`
	State          string `json:"state"`
	StartedAt      string `json:"started_at"`
	Commit         string `json:"commit"`
	CommitterName  string `json:"committer_name"`
	CommitterEmail string `json:"committer_email"`
	Matrix         []Job  `json:"matrix"`
}

// Job is a matrix entry of a build.
type Job struct {
	ID     int64  `json:"id"`
	Number string `json:"number"`
	State  string `json:"state"`
}
