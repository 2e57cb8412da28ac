package build

import (
	"fmt"
	"time"

	"travisjr/src/joblog"
)

const (
	// DateLayout and TimeLayout format the derived display fields.
	DateLayout = "Jan 2, 2006"
	TimeLayout = "3:04 PM"
)

// DisplayFormat controls how started_at is presented.
type DisplayFormat struct {
	Location *time.Location
}

func (f DisplayFormat) location() *time.Location {
	if f.Location == nil {
		return time.Local
	}
	return f.Location
}

// BuildInfo is the metadata of one build. The display date and time are
// derived from the raw started_at and only change through SetStartedAt.
type BuildInfo struct {
	owner          string
	repo           string
	id             int64
	number         string
	state          string
	commit         string
	committerName  string
	committerEmail string
	jobs           []joblog.Job

	format    DisplayFormat
	startedAt string
	startDate string
	startTime string
}

// Fields holds the provider-supplied values of a BuildInfo.
type Fields struct {
	Owner          string
	Repo           string
	ID             int64
	Number         string
	State          string
	StartedAt      string
	Commit         string
	CommitterName  string
	CommitterEmail string
	Jobs           []joblog.Job
}

// NewBuildInfo builds a BuildInfo and derives its display fields.
// An unparseable started_at is an error; an empty one yields empty display fields.
func NewBuildInfo(f Fields, format DisplayFormat) (*BuildInfo, error) {
	jobs := make([]joblog.Job, len(f.Jobs))
	copy(jobs, f.Jobs)

	info := &BuildInfo{
		owner:          f.Owner,
		repo:           f.Repo,
		id:             f.ID,
		number:         f.Number,
		state:          f.State,
		commit:         f.Commit,
		committerName:  f.CommitterName,
		committerEmail: f.CommitterEmail,
		jobs:           jobs,
		format:         format,
	}
	if err := info.SetStartedAt(f.StartedAt); err != nil {
		return nil, err
	}
	return info, nil
}

// SetStartedAt replaces the raw timestamp and recomputes the display fields.
// On error the BuildInfo is left unchanged.
func (b *BuildInfo) SetStartedAt(raw string) error {
	if raw == "" {
		b.startedAt, b.startDate, b.startTime = "", "", ""
		return nil
	}

	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return fmt.Errorf("invalid started_at %q: %w", raw, err)
	}

	t = t.In(b.format.location())
	b.startedAt = raw
	b.startDate = t.Format(DateLayout)
	b.startTime = t.Format(TimeLayout)
	return nil
}

func (b *BuildInfo) Owner() string          { return b.owner }
func (b *BuildInfo) Repo() string           { return b.repo }
func (b *BuildInfo) ID() int64              { return b.id }
func (b *BuildInfo) Number() string         { return b.number }
func (b *BuildInfo) State() string          { return b.state }
func (b *BuildInfo) Commit() string         { return b.commit }
func (b *BuildInfo) CommitterName() string  { return b.committerName }
func (b *BuildInfo) CommitterEmail() string { return b.committerEmail }
func (b *BuildInfo) StartedAt() string      { return b.startedAt }
func (b *BuildInfo) StartDate() string      { return b.startDate }
func (b *BuildInfo) StartTime() string      { return b.startTime }

// Slug returns "owner/repo".
func (b *BuildInfo) Slug() string { return b.owner + "/" + b.repo }

// Jobs returns the jobs in provider order.
func (b *BuildInfo) Jobs() []joblog.Job {
	jobs := make([]joblog.Job, len(b.jobs))
	copy(jobs, b.jobs)
	return jobs
}
