// Package joblog holds the per-job console logs of one build fetch and the
// pure rendering step that turns them into displayable text.
//
// A Builder owns one append-only Log per job for the duration of a single
// fetch session. Once every log is complete the Builder is frozen into an
// immutable, ordered Set. A new fetch always starts a new Builder.
package joblog

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

var ErrUnknownJob = errors.New("job not part of this build")

// Job identifies one unit of work within a build.
type Job struct {
	BuildID int64
	ID      int64
	Number  string // provider label, e.g. "42.1"
}

func (j Job) String() string {
	if j.Number != "" {
		return j.Number
	}
	return fmt.Sprintf("job %d", j.ID)
}

// Log accumulates the text of a single job. It only supports appending.
type Log struct {
	mu  sync.Mutex
	job Job
	buf strings.Builder
}

// Write appends p to the log. It implements io.Writer so providers can
// stream response bodies straight into it.
func (l *Log) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buf.Write(p)
}

// Append adds a chunk of text.
func (l *Log) Append(chunk string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buf.WriteString(chunk)
}

func (l *Log) Job() Job { return l.job }

func (l *Log) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buf.String()
}

// Builder collects logs for the jobs of one build fetch.
type Builder struct {
	jobs []Job
	logs map[Job]*Log
}

// NewBuilder prepares an empty Log for each job, keeping the given order.
// Duplicate jobs are collapsed onto their first position.
func NewBuilder(jobs []Job) *Builder {
	b := &Builder{logs: make(map[Job]*Log, len(jobs))}
	for _, j := range jobs {
		if _, dup := b.logs[j]; dup {
			continue
		}
		b.jobs = append(b.jobs, j)
		b.logs[j] = &Log{job: j}
	}
	return b
}

// Jobs returns the distinct jobs in build order.
func (b *Builder) Jobs() []Job {
	jobs := make([]Job, len(b.jobs))
	copy(jobs, b.jobs)
	return jobs
}

// Log returns the accumulator for job.
func (b *Builder) Log(job Job) (*Log, error) {
	l, ok := b.logs[job]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownJob, job)
	}
	return l, nil
}

// Set freezes the accumulated logs into an immutable snapshot.
func (b *Builder) Set() Set {
	text := make(map[Job]string, len(b.jobs))
	for _, j := range b.jobs {
		text[j] = b.logs[j].String()
	}
	jobs := make([]Job, len(b.jobs))
	copy(jobs, b.jobs)
	return Set{jobs: jobs, text: text}
}

// Set is an immutable, ordered mapping from job to log text.
// The zero value is an empty set.
type Set struct {
	jobs []Job
	text map[Job]string
}

// NewSet builds a Set from parallel job/text slices. Used by tests and by
// callers that already hold complete logs.
func NewSet(jobs []Job, texts []string) Set {
	b := NewBuilder(jobs)
	for i, j := range jobs {
		if i < len(texts) {
			b.logs[j].Append(texts[i])
		}
	}
	return b.Set()
}

// Jobs returns the jobs in provider order.
func (s Set) Jobs() []Job {
	out := make([]Job, len(s.jobs))
	copy(out, s.jobs)
	return out
}

// Text returns the log text for job.
func (s Set) Text(job Job) (string, bool) {
	t, ok := s.text[job]
	return t, ok
}

// At returns the job and text at position i in provider order.
func (s Set) At(i int) (Job, string) {
	j := s.jobs[i]
	return j, s.text[j]
}

func (s Set) Len() int { return len(s.jobs) }

// Equal reports whether two sets hold the same jobs, order and text.
func (s Set) Equal(o Set) bool {
	if len(s.jobs) != len(o.jobs) {
		return false
	}
	for i, j := range s.jobs {
		if o.jobs[i] != j || o.text[j] != s.text[j] {
			return false
		}
	}
	return true
}
