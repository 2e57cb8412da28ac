package provider

// Repo is a repository tracked by the CI provider.
// Identity is (Owner, Name).
type Repo struct {
	ID        int64
	Owner     string
	Name      string
	Active    bool // CI enabled
	LastBuild *BuildSummary
}

// Slug returns "owner/name".
func (r Repo) Slug() string {
	return r.Owner + "/" + r.Name
}

// BuildSummary is the last-known build of a repository.
type BuildSummary struct {
	ID        int64
	Number    string
	State     string
	StartedAt string
}

// Build is the provider's view of a single CI run.
// StartedAt stays in the provider's native format.
type Build struct {
	ID             int64
	Number         string
	State          string
	StartedAt      string
	Commit         string
	CommitterName  string
	CommitterEmail string
	Jobs           []Job // provider order
}

// Job represents a single job within a build
type Job struct {
	ID     int64
	Number string
	State  string
}

// BuildRef identifies a build in a CI system
type BuildRef struct {
	Provider string // "travis"
	Owner    string
	Repo     string
	BuildID  int64
}
