// Package contracts defines the messages travisjr publishes to the broker.
package contracts

// TopicBuildStates is the default topic for build view transitions.
const TopicBuildStates = "travisjr.build.states"

// BuildStateEvent is emitted every time a build view changes state.
// Published to: travisjr.build.states
// Key: {owner}/{repo}#{build_id}
type BuildStateEvent struct {
	// Unique id of the fetch that produced this state.
	FetchID string `json:"fetch_id"`
	// Monotonic request counter of the view.
	Generation uint64 `json:"generation"`
	// One of idle, syncing, content, error.
	State   string `json:"state"`
	Owner   string `json:"owner"`
	Repo    string `json:"repo"`
	BuildID int64  `json:"build_id"`
	// Build number, only set for content.
	Number     string `json:"number,omitempty"`
	BuildState string `json:"build_state,omitempty"`
	Commit     string `json:"commit,omitempty"`
	StartedAt  string `json:"started_at,omitempty"`
	JobCount   int    `json:"job_count,omitempty"`
	// Diagnostic cause, only set for error.
	Error     string `json:"error,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Key returns the partition key of the event.
func (e BuildStateEvent) Key() string {
	return BuildKey(e.Owner, e.Repo, e.BuildID)
}
