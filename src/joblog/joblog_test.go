package joblog

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
)

func testJobs() []Job {
	return []Job{
		{BuildID: 42, ID: 421, Number: "42.1"},
		{BuildID: 42, ID: 422, Number: "42.2"},
		{BuildID: 42, ID: 423, Number: "42.3"},
	}
}

func TestBuilder_AppendOnlyAndOrdered(t *testing.T) {
	jobs := testJobs()
	b := NewBuilder([]Job{jobs[2], jobs[0], jobs[1]})

	l, err := b.Log(jobs[0])
	if err != nil {
		t.Fatalf("Log() error = %v", err)
	}
	l.Append("$ make\n")
	fmt.Fprintf(l, "ok %d\n", 1)

	set := b.Set()

	got := set.Jobs()
	want := []Job{jobs[2], jobs[0], jobs[1]}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Jobs()[%d] = %v, want %v (provider order must be kept)", i, got[i], want[i])
		}
	}

	text, ok := set.Text(jobs[0])
	if !ok || text != "$ make\nok 1\n" {
		t.Errorf("Text() = %q, %v", text, ok)
	}

	if text, _ := set.Text(jobs[1]); text != "" {
		t.Errorf("untouched job should be empty, got %q", text)
	}
}

func TestBuilder_SetIsSnapshot(t *testing.T) {
	jobs := testJobs()
	b := NewBuilder(jobs)
	l, _ := b.Log(jobs[0])
	l.Append("first")

	set := b.Set()
	l.Append(" second")

	if text, _ := set.Text(jobs[0]); text != "first" {
		t.Errorf("frozen set changed after later append: %q", text)
	}

	jobsCopy := set.Jobs()
	jobsCopy[0] = Job{ID: 999}
	if j, _ := set.At(0); j.ID == 999 {
		t.Error("Jobs() must return a copy")
	}
}

func TestBuilder_UnknownJob(t *testing.T) {
	b := NewBuilder(testJobs())
	_, err := b.Log(Job{BuildID: 1, ID: 1})
	if !errors.Is(err, ErrUnknownJob) {
		t.Errorf("Log(unknown) error = %v, want ErrUnknownJob", err)
	}
}

func TestBuilder_DuplicateJobs(t *testing.T) {
	jobs := testJobs()
	b := NewBuilder([]Job{jobs[0], jobs[1], jobs[0]})
	if n := b.Set().Len(); n != 2 {
		t.Errorf("Len() = %d, want 2", n)
	}
	if got := b.Jobs(); len(got) != 2 || got[0] != jobs[0] || got[1] != jobs[1] {
		t.Errorf("Jobs() = %v, want [%v %v]", got, jobs[0], jobs[1])
	}
}

func TestLog_ConcurrentWriters(t *testing.T) {
	jobs := testJobs()
	b := NewBuilder(jobs)

	var wg sync.WaitGroup
	for _, j := range jobs {
		wg.Add(1)
		go func(j Job) {
			defer wg.Done()
			l, _ := b.Log(j)
			io.Copy(l, strings.NewReader(strings.Repeat("x", 1000)))
		}(j)
	}
	wg.Wait()

	set := b.Set()
	for _, j := range jobs {
		if text, _ := set.Text(j); len(text) != 1000 {
			t.Errorf("job %s has %d bytes, want 1000", j, len(text))
		}
	}
}

func TestJob_String(t *testing.T) {
	if got := (Job{ID: 7, Number: "3.1"}).String(); got != "3.1" {
		t.Errorf("String() = %q, want 3.1", got)
	}
	if got := (Job{ID: 7}).String(); got != "job 7" {
		t.Errorf("String() = %q, want job 7", got)
	}
}

func TestZeroSet(t *testing.T) {
	var s Set
	if s.Len() != 0 || len(s.Jobs()) != 0 {
		t.Error("zero Set should be empty")
	}
	if _, ok := s.Text(Job{}); ok {
		t.Error("zero Set should not contain any job")
	}
	if !s.Equal(Render(s)) {
		t.Error("rendering an empty set should yield an empty set")
	}
}
