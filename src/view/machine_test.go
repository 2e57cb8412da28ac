package view

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"travisjr/src/build"
	"travisjr/src/joblog"
	"travisjr/src/provider"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

var target = Target{Owner: "octocat", Repo: "hello-world", BuildID: 42}

// recordingLogger keeps every formatted message.
type recordingLogger struct {
	mu   sync.Mutex
	msgs []string
}

func (r *recordingLogger) record(msg string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, fmt.Sprintf(msg, args...))
}

func (r *recordingLogger) Info(msg string, args ...interface{})  { r.record(msg, args...) }
func (r *recordingLogger) Error(msg string, args ...interface{}) { r.record(msg, args...) }
func (r *recordingLogger) Debug(msg string, args ...interface{}) { r.record(msg, args...) }

func (r *recordingLogger) contains(sub string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.msgs {
		if strings.Contains(m, sub) {
			return true
		}
	}
	return false
}

// providerSource serves one build through the real build.Fetcher.
type providerSource struct {
	build   *provider.Build
	logs    map[int64]string
	logErrs map[int64]error
	calls   atomic.Int32
}

func (p *providerSource) FetchBuild(ctx context.Context, owner, repo string, buildID int64) (*provider.Build, error) {
	p.calls.Add(1)
	return p.build, nil
}

func (p *providerSource) FetchJobLog(ctx context.Context, jobID int64, w io.Writer) error {
	if err := p.logErrs[jobID]; err != nil {
		return err
	}
	_, err := io.WriteString(w, p.logs[jobID])
	return err
}

func helloWorld() *provider.Build {
	return &provider.Build{
		ID:             42,
		Number:         "17",
		State:          "passed",
		StartedAt:      "2013-05-01T10:00:00Z",
		Commit:         "6b4f4f0c",
		CommitterName:  "Jane Doe",
		CommitterEmail: "jane@example.com",
		Jobs:           []provider.Job{{ID: 421, Number: "17.1"}, {ID: 422, Number: "17.2"}},
	}
}

func startMachine(t *testing.T, f Fetcher, opts ...Option) *Machine {
	t.Helper()
	m := NewMachine(f, target, opts...)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		m.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return m
}

func waitKind(t *testing.T, m *Machine, kind Kind) *State {
	t.Helper()
	require.Eventually(t, func() bool { return m.State().Kind == kind }, waitFor, tick,
		"state never became %s (now %s)", kind, m.State().Kind)
	return m.State()
}

func TestMachine_StartsIdle(t *testing.T) {
	m := NewMachine(build.NewFetcher(&providerSource{}, nil), target)
	s := m.State()
	require.Equal(t, Idle, s.Kind)
	require.Nil(t, s.Build)
	require.Empty(t, s.Notice())
}

func TestMachine_RequestToContent(t *testing.T) {
	src := &providerSource{
		build: helloWorld(),
		logs:  map[int64]string{421: "install\r\nscript\r\n", 422: "done\n"},
	}
	m := startMachine(t, build.NewFetcher(src, nil, build.WithLocation(time.UTC)))

	require.NoError(t, m.Request(context.Background()))
	s := waitKind(t, m, Content)

	require.NotNil(t, s.Build)
	require.Equal(t, "10:00 AM", s.Build.StartTime())
	require.Equal(t, "May 1, 2013", s.Build.StartDate())
	require.Equal(t, 2, s.Logs.Len())

	job, text := s.Logs.At(0)
	require.Equal(t, int64(421), job.ID)
	require.Equal(t, "install\nscript\n", text)
	require.NotEmpty(t, s.FetchID)
	require.Equal(t, uint64(1), s.Generation)

	e := s.Event()
	require.Equal(t, "content", e.State)
	require.Equal(t, "17", e.Number)
	require.Equal(t, 2, e.JobCount)
	require.Equal(t, "octocat/hello-world#42", e.Key())
}

func TestMachine_PartialLogFailureIsError(t *testing.T) {
	log := &recordingLogger{}
	src := &providerSource{
		build:   helloWorld(),
		logs:    map[int64]string{421: "ok"},
		logErrs: map[int64]error{422: provider.ErrNetworkTimeout},
	}
	m := startMachine(t, build.NewFetcher(src, nil), WithLogger(log))

	require.NoError(t, m.Request(context.Background()))
	s := waitKind(t, m, Error)

	require.Nil(t, s.Build)
	require.Zero(t, s.Logs.Len())
	require.Equal(t, UnavailableNotice, s.Notice())

	var unavailable *build.UnavailableError
	require.ErrorAs(t, s.Err, &unavailable)
	require.ErrorIs(t, s.Err, provider.ErrNetworkTimeout)
	require.True(t, log.contains("fetch "+s.FetchID+" failed for octocat/hello-world#42"))

	e := s.Event()
	require.Equal(t, "error", e.State)
	require.NotEmpty(t, e.Error)
}

func TestMachine_ResumeUsesCache(t *testing.T) {
	src := &providerSource{build: helloWorld(), logs: map[int64]string{421: "a", 422: "b"}}
	m := startMachine(t, build.NewFetcher(src, nil))
	ctx := context.Background()

	// nothing cached: resume fetches
	require.NoError(t, m.Resume(ctx))
	first := waitKind(t, m, Content)
	require.Equal(t, int32(1), src.calls.Load())

	require.NoError(t, m.Resume(ctx))
	require.Eventually(t, func() bool { return m.State() != first }, waitFor, tick)

	s := m.State()
	require.Equal(t, Content, s.Kind)
	require.Same(t, first.Build, s.Build)
	require.True(t, first.Logs.Equal(s.Logs))
	require.Equal(t, int32(1), src.calls.Load(), "resume with cached build must not fetch")
}

func TestMachine_ErrorClearsCache(t *testing.T) {
	src := &providerSource{build: helloWorld(), logs: map[int64]string{421: "a", 422: "b"}}
	m := startMachine(t, build.NewFetcher(src, nil))
	ctx := context.Background()

	require.NoError(t, m.Request(ctx))
	waitKind(t, m, Content)

	src.logErrs = map[int64]error{421: provider.ErrRateLimited}
	require.NoError(t, m.Request(ctx))
	require.Eventually(t, func() bool {
		s := m.State()
		return s.Kind == Error && s.Generation == 2
	}, waitFor, tick)

	src.logErrs = nil
	require.NoError(t, m.Resume(ctx))
	require.Eventually(t, func() bool {
		s := m.State()
		return s.Kind == Content && s.Generation == 3
	}, waitFor, tick)
	require.Equal(t, int32(3), src.calls.Load())
}

// gatedFetcher blocks every fetch until its gate is released, ignoring
// cancellation so that superseded results arrive late.
type gatedFetcher struct {
	mu      sync.Mutex
	gates   []chan struct{}
	started chan int
}

func newGatedFetcher() *gatedFetcher {
	return &gatedFetcher{started: make(chan int, 16)}
}

func (g *gatedFetcher) GetBuildInfo(ctx context.Context, owner, repo string, buildID int64) (*build.BuildInfo, error) {
	g.mu.Lock()
	gate := make(chan struct{})
	g.gates = append(g.gates, gate)
	n := len(g.gates)
	g.mu.Unlock()

	g.started <- n
	<-gate
	return build.NewBuildInfo(build.Fields{
		Owner:  owner,
		Repo:   repo,
		ID:     buildID,
		Number: fmt.Sprintf("fetch-%d", n),
		Jobs:   []joblog.Job{{BuildID: buildID, ID: int64(n)}},
	}, build.DisplayFormat{})
}

func (g *gatedFetcher) GetJobLogs(ctx context.Context, info *build.BuildInfo) (joblog.Set, error) {
	return joblog.NewSet(info.Jobs(), []string{info.Number()}), nil
}

func (g *gatedFetcher) release(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	close(g.gates[n-1])
}

func TestMachine_LastRequestedWins(t *testing.T) {
	log := &recordingLogger{}
	g := newGatedFetcher()
	m := startMachine(t, g, WithLogger(log))
	ctx := context.Background()

	require.NoError(t, m.Request(ctx))
	<-g.started
	require.NoError(t, m.Request(ctx))
	<-g.started

	// B completes first, then A arrives late
	g.release(2)
	require.Eventually(t, func() bool { return m.State().Kind == Content }, waitFor, tick)
	g.release(1)

	require.Eventually(t, func() bool { return log.contains("discarding superseded result") }, waitFor, tick)

	s := m.State()
	require.Equal(t, Content, s.Kind)
	require.Equal(t, "fetch-2", s.Build.Number())
	require.Equal(t, uint64(2), s.Generation)
}

func TestMachine_ResumeWhileSyncingIsNoop(t *testing.T) {
	g := newGatedFetcher()
	m := startMachine(t, g)
	ctx := context.Background()

	require.NoError(t, m.Request(ctx))
	<-g.started
	syncing := m.State()
	require.Equal(t, Syncing, syncing.Kind)

	require.NoError(t, m.Resume(ctx))
	// Resume was handled once the next command is accepted
	require.NoError(t, m.Resume(ctx))
	require.Same(t, syncing, m.State())

	select {
	case n := <-g.started:
		t.Fatalf("resume while syncing started fetch %d", n)
	default:
	}

	g.release(1)
	waitKind(t, m, Content)
}

func TestMachine_SyncingKeepsPreviousPayload(t *testing.T) {
	g := newGatedFetcher()
	m := startMachine(t, g)
	ctx := context.Background()

	require.NoError(t, m.Request(ctx))
	<-g.started
	g.release(1)
	content := waitKind(t, m, Content)

	require.NoError(t, m.Request(ctx))
	<-g.started
	s := m.State()
	require.Equal(t, Syncing, s.Kind)
	require.Same(t, content.Build, s.Build)

	g.release(2)
	require.Eventually(t, func() bool { return m.State().Generation == 2 && m.State().Kind == Content }, waitFor, tick)
	require.Equal(t, "fetch-2", m.State().Build.Number())
}

// randomFetcher succeeds or fails at random after a short random delay.
type randomFetcher struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func (r *randomFetcher) roll() (time.Duration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return time.Duration(r.rng.Intn(3)) * time.Millisecond, r.rng.Intn(3) == 0
}

func (r *randomFetcher) GetBuildInfo(ctx context.Context, owner, repo string, buildID int64) (*build.BuildInfo, error) {
	delay, fail := r.roll()
	select {
	case <-time.After(delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if fail {
		return nil, errors.New("random failure")
	}
	return build.NewBuildInfo(build.Fields{Owner: owner, Repo: repo, ID: buildID}, build.DisplayFormat{})
}

func (r *randomFetcher) GetJobLogs(ctx context.Context, info *build.BuildInfo) (joblog.Set, error) {
	return joblog.Set{}, nil
}

func TestMachine_EveryFetchTerminates(t *testing.T) {
	for seed := int64(1); seed <= 10; seed++ {
		t.Run(fmt.Sprintf("seed %d", seed), func(t *testing.T) {
			rng := rand.New(rand.NewSource(seed))
			m := startMachine(t, &randomFetcher{rng: rand.New(rand.NewSource(seed))})
			ctx := context.Background()

			for i := 0; i < 30; i++ {
				if rng.Intn(2) == 0 {
					require.NoError(t, m.Request(ctx))
				} else {
					require.NoError(t, m.Resume(ctx))
				}
				if rng.Intn(4) == 0 {
					time.Sleep(time.Millisecond)
				}
			}

			require.Eventually(t, func() bool {
				k := m.State().Kind
				return k == Content || k == Error
			}, waitFor, tick)
		})
	}
}

func TestMachine_ObserversAndSubscribers(t *testing.T) {
	var (
		mu    sync.Mutex
		kinds []Kind
	)
	observer := func(s *State) {
		mu.Lock()
		defer mu.Unlock()
		kinds = append(kinds, s.Kind)
	}

	src := &providerSource{build: helloWorld(), logs: map[int64]string{421: "a", 422: "b"}}
	m := startMachine(t, build.NewFetcher(src, nil), WithObserver(observer))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub := m.Subscribe(ctx)

	require.Equal(t, Idle, (<-sub).Kind)

	require.NoError(t, m.Request(context.Background()))
	waitKind(t, m, Content)

	// the newest state is always the one left in the channel
	var last *State
	require.Eventually(t, func() bool {
		select {
		case s := <-sub:
			last = s
		default:
		}
		return last != nil && last.Kind == Content
	}, waitFor, tick)

	mu.Lock()
	require.Equal(t, []Kind{Syncing, Content}, kinds)
	mu.Unlock()

	cancel()
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-sub:
			return !ok
		default:
			return false
		}
	}, waitFor, tick)
}

func TestMachine_StoppedRejectsRequests(t *testing.T) {
	m := NewMachine(&randomFetcher{rng: rand.New(rand.NewSource(1))}, target)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- m.Run(ctx) }()

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
	require.ErrorIs(t, m.Request(context.Background()), ErrStopped)

	sub := m.Subscribe(context.Background())
	require.Equal(t, Idle, (<-sub).Kind)
	_, ok := <-sub
	require.False(t, ok)
}
