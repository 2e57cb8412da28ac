package view

import (
	"time"

	"travisjr/src/build"
	"travisjr/src/contracts"
	"travisjr/src/joblog"
)

// Kind tags the variant of a State.
type Kind int

const (
	Idle Kind = iota
	Syncing
	Content
	Error
)

func (k Kind) String() string {
	switch k {
	case Idle:
		return "idle"
	case Syncing:
		return "syncing"
	case Content:
		return "content"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// UnavailableNotice is shown instead of raw fetch errors.
const UnavailableNotice = "Build information is currently unavailable."

// Target names the build a view shows.
type Target struct {
	Owner   string
	Repo    string
	BuildID int64
}

// State is an immutable snapshot of a build view.
//
// Content always carries both Build and rendered Logs. Syncing may still
// carry the previous payload until the new fetch completes. Error carries
// only the cause.
type State struct {
	Kind       Kind
	Target     Target
	Build      *build.BuildInfo
	Logs       joblog.Set
	Err        error
	Generation uint64
	FetchID    string
	At         time.Time
}

// Notice is the user-facing message for the state, if any.
func (s *State) Notice() string {
	switch s.Kind {
	case Syncing:
		return "Syncing build..."
	case Error:
		return UnavailableNotice
	default:
		return ""
	}
}

// Event converts the state into a broker message.
func (s *State) Event() contracts.BuildStateEvent {
	e := contracts.BuildStateEvent{
		FetchID:    s.FetchID,
		Generation: s.Generation,
		State:      s.Kind.String(),
		Owner:      s.Target.Owner,
		Repo:       s.Target.Repo,
		BuildID:    s.Target.BuildID,
		Timestamp:  s.At.UTC().Format(time.RFC3339),
	}
	switch s.Kind {
	case Content:
		e.Number = s.Build.Number()
		e.BuildState = s.Build.State()
		e.Commit = s.Build.Commit()
		e.StartedAt = s.Build.StartedAt()
		e.JobCount = s.Logs.Len()
	case Error:
		if s.Err != nil {
			e.Error = s.Err.Error()
		}
	}
	return e
}
