package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"travisjr/src/provider"
)

type fakeSource struct {
	build     *provider.Build
	buildErr  error
	logs      map[int64]string
	logErrs   map[int64]error
	buildHits atomic.Int32

	mu       sync.Mutex
	inFlight int
	peak     int
}

func (f *fakeSource) FetchBuild(ctx context.Context, owner, repo string, buildID int64) (*provider.Build, error) {
	f.buildHits.Add(1)
	return f.build, f.buildErr
}

func (f *fakeSource) FetchJobLog(ctx context.Context, jobID int64, w io.Writer) error {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.peak {
		f.peak = f.inFlight
	}
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	time.Sleep(5 * time.Millisecond)
	if err := f.logErrs[jobID]; err != nil {
		return err
	}
	_, err := io.WriteString(w, f.logs[jobID])
	return err
}

func helloWorldBuild() *provider.Build {
	return &provider.Build{
		ID:             42,
		Number:         "17",
		State:          "passed",
		StartedAt:      "2013-05-01T10:00:00Z",
		Commit:         "6b4f4f0c",
		CommitterName:  "Jane Doe",
		CommitterEmail: "jane@example.com",
		Jobs: []provider.Job{
			{ID: 421, Number: "17.1"},
			{ID: 422, Number: "17.2"},
		},
	}
}

func TestGetBuildInfo_DerivesDisplayFields(t *testing.T) {
	src := &fakeSource{build: helloWorldBuild()}
	f := NewFetcher(src, nil, WithLocation(time.UTC))

	info, err := f.GetBuildInfo(context.Background(), "octocat", "hello-world", 42)
	if err != nil {
		t.Fatalf("GetBuildInfo() error = %v", err)
	}

	if info.StartTime() != "10:00 AM" {
		t.Errorf("StartTime() = %q, want 10:00 AM", info.StartTime())
	}
	if info.StartDate() != "May 1, 2013" {
		t.Errorf("StartDate() = %q, want May 1, 2013", info.StartDate())
	}
	if info.Slug() != "octocat/hello-world" || info.Number() != "17" || info.CommitterName() != "Jane Doe" {
		t.Errorf("unexpected info: %s #%s by %s", info.Slug(), info.Number(), info.CommitterName())
	}

	jobs := info.Jobs()
	if len(jobs) != 2 || jobs[0].ID != 421 || jobs[1].ID != 422 {
		t.Errorf("Jobs() = %v, want provider order", jobs)
	}
	if jobs[0].BuildID != 42 {
		t.Errorf("job BuildID = %d", jobs[0].BuildID)
	}
}

func TestGetBuildInfo_InvalidInputNoNetwork(t *testing.T) {
	tests := []struct {
		name    string
		owner   string
		repo    string
		buildID int64
		want    string
	}{
		{"missing owner", "", "hello-world", 42, "supplied, owner."},
		{"missing owner and repo", "", " ", 42, "supplied, owner, repo."},
		{"zero build", "octocat", "hello-world", 0, "supplied, build id."},
		{"everything", "", "", -1, "supplied, owner, repo, build id."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &fakeSource{build: helloWorldBuild()}
			f := NewFetcher(src, nil)

			_, err := f.GetBuildInfo(context.Background(), tt.owner, tt.repo, tt.buildID)

			var unavailable *UnavailableError
			if !errors.As(err, &unavailable) {
				t.Fatalf("error = %v, want UnavailableError", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want it to contain %q", err, tt.want)
			}
			if src.buildHits.Load() != 0 {
				t.Error("provider must not be called for invalid input")
			}
		})
	}
}

func TestGetBuildInfo_ProviderFailures(t *testing.T) {
	badTime := helloWorldBuild()
	badTime.StartedAt = "yesterday"

	tests := []struct {
		name string
		src  *fakeSource
		is   error
	}{
		{"not found", &fakeSource{buildErr: provider.ErrBuildNotFound}, provider.ErrBuildNotFound},
		{"nil build", &fakeSource{}, provider.ErrMalformedResponse},
		{"bad started_at", &fakeSource{build: badTime}, provider.ErrMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFetcher(tt.src, nil).GetBuildInfo(context.Background(), "octocat", "hello-world", 42)

			var unavailable *UnavailableError
			if !errors.As(err, &unavailable) {
				t.Fatalf("error = %v, want UnavailableError", err)
			}
			if !errors.Is(err, tt.is) {
				t.Errorf("error = %v, want wrapped %v", err, tt.is)
			}
		})
	}
}

func TestGetJobLogs(t *testing.T) {
	src := &fakeSource{
		build: helloWorldBuild(),
		logs:  map[int64]string{421: "job one\r\n", 422: "job two\n"},
	}
	f := NewFetcher(src, nil)
	ctx := context.Background()

	info, err := f.GetBuildInfo(ctx, "octocat", "hello-world", 42)
	if err != nil {
		t.Fatalf("GetBuildInfo() error = %v", err)
	}

	set, err := f.GetJobLogs(ctx, info)
	if err != nil {
		t.Fatalf("GetJobLogs() error = %v", err)
	}
	if set.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", set.Len())
	}
	j, text := set.At(0)
	if j.ID != 421 || text != "job one\r\n" {
		t.Errorf("At(0) = %v %q", j, text)
	}
	j, text = set.At(1)
	if j.ID != 422 || text != "job two\n" {
		t.Errorf("At(1) = %v %q", j, text)
	}
}

func TestGetJobLogs_DuplicateJobFetchedOnce(t *testing.T) {
	b := helloWorldBuild()
	b.Jobs = []provider.Job{{ID: 7, Number: "17.1"}, {ID: 7, Number: "17.1"}}
	src := &fakeSource{build: b, logs: map[int64]string{7: "line\n"}}
	f := NewFetcher(src, nil)
	ctx := context.Background()

	info, err := f.GetBuildInfo(ctx, "octocat", "hello-world", 42)
	if err != nil {
		t.Fatalf("GetBuildInfo() error = %v", err)
	}

	set, err := f.GetJobLogs(ctx, info)
	if err != nil {
		t.Fatalf("GetJobLogs() error = %v", err)
	}
	if set.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", set.Len())
	}
	if _, text := set.At(0); text != "line\n" {
		t.Errorf("At(0) text = %q, want %q", text, "line\n")
	}
}

func TestGetJobLogs_OneFailureFailsBuild(t *testing.T) {
	src := &fakeSource{
		build:   helloWorldBuild(),
		logs:    map[int64]string{421: "ok"},
		logErrs: map[int64]error{422: provider.ErrNetworkTimeout},
	}
	f := NewFetcher(src, nil)
	ctx := context.Background()

	info, _ := f.GetBuildInfo(ctx, "octocat", "hello-world", 42)
	set, err := f.GetJobLogs(ctx, info)

	var unavailable *UnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("error = %v, want UnavailableError", err)
	}
	if !errors.Is(err, provider.ErrNetworkTimeout) {
		t.Errorf("error = %v, want wrapped timeout", err)
	}
	if set.Len() != 0 {
		t.Errorf("partial set returned with %d jobs", set.Len())
	}
}

func TestGetJobLogs_BoundedConcurrency(t *testing.T) {
	b := helloWorldBuild()
	b.Jobs = nil
	logs := map[int64]string{}
	for i := int64(1); i <= 12; i++ {
		b.Jobs = append(b.Jobs, provider.Job{ID: i, Number: fmt.Sprintf("17.%d", i)})
		logs[i] = "x"
	}
	src := &fakeSource{build: b, logs: logs}
	f := NewFetcher(src, nil, WithConcurrency(3))
	ctx := context.Background()

	info, _ := f.GetBuildInfo(ctx, "octocat", "hello-world", 42)
	if _, err := f.GetJobLogs(ctx, info); err != nil {
		t.Fatalf("GetJobLogs() error = %v", err)
	}
	if src.peak > 3 {
		t.Errorf("peak concurrency = %d, want <= 3", src.peak)
	}
}

func TestBuildInfo_SetStartedAtRecomputes(t *testing.T) {
	info, err := NewBuildInfo(Fields{Owner: "octocat", Repo: "hello-world", ID: 1, StartedAt: "2013-05-01T10:00:00Z"}, DisplayFormat{Location: time.UTC})
	if err != nil {
		t.Fatalf("NewBuildInfo() error = %v", err)
	}

	if err := info.SetStartedAt("2014-12-25T23:30:00Z"); err != nil {
		t.Fatalf("SetStartedAt() error = %v", err)
	}
	if info.StartDate() != "Dec 25, 2014" || info.StartTime() != "11:30 PM" {
		t.Errorf("derived = %q %q", info.StartDate(), info.StartTime())
	}

	if err := info.SetStartedAt("garbage"); err == nil {
		t.Fatal("SetStartedAt(garbage) should fail")
	}
	if info.StartedAt() != "2014-12-25T23:30:00Z" || info.StartDate() != "Dec 25, 2014" {
		t.Error("failed SetStartedAt must leave the info unchanged")
	}

	if err := info.SetStartedAt(""); err != nil {
		t.Fatalf("SetStartedAt(\"\") error = %v", err)
	}
	if info.StartDate() != "" || info.StartTime() != "" {
		t.Error("empty started_at should clear display fields")
	}
}

func TestBuildInfo_Location(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	info, err := NewBuildInfo(Fields{StartedAt: "2013-05-01T20:00:00Z"}, DisplayFormat{Location: tokyo})
	if err != nil {
		t.Fatalf("NewBuildInfo() error = %v", err)
	}
	if info.StartDate() != "May 2, 2013" || info.StartTime() != "5:00 AM" {
		t.Errorf("derived = %q %q", info.StartDate(), info.StartTime())
	}
}
