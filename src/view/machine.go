// Package view drives the state of one build view:
// Idle -> Syncing -> Content | Error.
//
// All transitions run on the goroutine that calls Machine.Run. Fetches run on
// worker goroutines and post their results back to it; a result is applied
// only if no newer request was made in the meantime.
package view

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"travisjr/src/build"
	"travisjr/src/joblog"
	"travisjr/src/logger"
)

var ErrStopped = errors.New("view machine is not running")

// Fetcher retrieves a build and its job logs.
type Fetcher interface {
	GetBuildInfo(ctx context.Context, owner, repo string, buildID int64) (*build.BuildInfo, error)
	GetJobLogs(ctx context.Context, info *build.BuildInfo) (joblog.Set, error)
}

// Observer is called on the owning goroutine after every transition.
// It must not block.
type Observer func(*State)

type command int

const (
	cmdRequest command = iota
	cmdResume
)

type result struct {
	generation uint64
	fetchID    string
	info       *build.BuildInfo
	logs       joblog.Set
	err        error
}

type payload struct {
	info *build.BuildInfo
	logs joblog.Set // raw, rendered on install
}

// Machine owns the state of one build view.
type Machine struct {
	fetcher   Fetcher
	target    Target
	logger    logger.Logger
	renderer  joblog.Renderer
	observers []Observer
	now       func() time.Time

	state    atomic.Pointer[State]
	commands chan command
	results  chan result
	done     chan struct{}
	started  atomic.Bool

	subMu   sync.Mutex
	subs    map[chan *State]struct{}
	stopped bool

	// owned by Run
	generation uint64
	cancel     context.CancelFunc
	cached     *payload
}

// Option configures a Machine.
type Option func(*Machine)

func WithLogger(l logger.Logger) Option {
	return func(m *Machine) { m.logger = logger.OrSilent(l) }
}

// WithObserver registers fn to run after every transition.
func WithObserver(fn Observer) Option {
	return func(m *Machine) { m.observers = append(m.observers, fn) }
}

// WithRenderer sets the renderer applied to job logs on Content.
func WithRenderer(r joblog.Renderer) Option {
	return func(m *Machine) { m.renderer = r }
}

// NewMachine creates a machine in the Idle state. Call Run to start it.
func NewMachine(fetcher Fetcher, target Target, opts ...Option) *Machine {
	m := &Machine{
		fetcher:  fetcher,
		target:   target,
		logger:   logger.NewSilentLogger(),
		now:      time.Now,
		commands: make(chan command),
		results:  make(chan result),
		done:     make(chan struct{}),
		subs:     make(map[chan *State]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.state.Store(&State{Kind: Idle, Target: target, At: m.now()})
	return m
}

// State returns the current snapshot. Safe to call from any goroutine.
func (m *Machine) State() *State {
	return m.state.Load()
}

// Target returns the build this view shows.
func (m *Machine) Target() Target {
	return m.target
}

// Request starts a fetch, superseding any fetch still in flight.
func (m *Machine) Request(ctx context.Context) error {
	return m.send(ctx, cmdRequest)
}

// Resume shows the cached build without a fetch. Without a cached build it
// behaves like Request; while a fetch is in flight it does nothing.
func (m *Machine) Resume(ctx context.Context) error {
	return m.send(ctx, cmdResume)
}

func (m *Machine) send(ctx context.Context, cmd command) error {
	select {
	case m.commands <- cmd:
		return nil
	case <-m.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe returns a channel holding the latest state. Intermediate states
// may be skipped by slow readers, the newest one never is. The channel is
// closed when ctx is done or Run returns.
func (m *Machine) Subscribe(ctx context.Context) <-chan *State {
	ch := make(chan *State, 1)

	m.subMu.Lock()
	defer m.subMu.Unlock()

	if m.stopped {
		ch <- m.State()
		close(ch)
		return ch
	}
	ch <- m.State()
	m.subs[ch] = struct{}{}

	go func() {
		select {
		case <-ctx.Done():
		case <-m.done:
		}
		m.subMu.Lock()
		defer m.subMu.Unlock()
		if _, ok := m.subs[ch]; ok {
			delete(m.subs, ch)
			close(ch)
		}
	}()
	return ch
}

// Run applies requests and fetch results until ctx is done. It must be
// called exactly once.
func (m *Machine) Run(ctx context.Context) error {
	if !m.started.CompareAndSwap(false, true) {
		return errors.New("view machine already running")
	}
	defer m.stop()

	for {
		select {
		case <-ctx.Done():
			if m.cancel != nil {
				m.cancel()
			}
			return ctx.Err()

		case cmd := <-m.commands:
			switch cmd {
			case cmdRequest:
				m.startFetch(ctx)
			case cmdResume:
				m.resume(ctx)
			}

		case res := <-m.results:
			m.complete(res)
		}
	}
}

func (m *Machine) stop() {
	close(m.done)

	m.subMu.Lock()
	defer m.subMu.Unlock()
	m.stopped = true
	for ch := range m.subs {
		delete(m.subs, ch)
		close(ch)
	}
}

func (m *Machine) startFetch(ctx context.Context) {
	if m.cancel != nil {
		m.cancel()
	}

	m.generation++
	gen := m.generation
	fetchID := uuid.NewString()

	fetchCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	prev := m.State()
	m.install(&State{
		Kind:       Syncing,
		Target:     m.target,
		Build:      prev.Build,
		Logs:       prev.Logs,
		Generation: gen,
		FetchID:    fetchID,
	})
	m.logger.Debug("[View] fetch %s started for %s/%s#%d (generation %d)",
		fetchID, m.target.Owner, m.target.Repo, m.target.BuildID, gen)

	go func() {
		res := result{generation: gen, fetchID: fetchID}
		res.info, res.err = m.fetcher.GetBuildInfo(fetchCtx, m.target.Owner, m.target.Repo, m.target.BuildID)
		if res.err == nil {
			res.logs, res.err = m.fetcher.GetJobLogs(fetchCtx, res.info)
		}
		if res.err == nil && res.info == nil {
			res.err = errors.New("fetcher returned no build")
		}

		select {
		case m.results <- res:
		case <-m.done:
		}
	}()
}

func (m *Machine) resume(ctx context.Context) {
	if m.cancel != nil {
		return
	}
	if m.cached == nil {
		m.startFetch(ctx)
		return
	}

	prev := m.State()
	m.install(&State{
		Kind:       Content,
		Target:     m.target,
		Build:      m.cached.info,
		Logs:       m.renderer.Render(m.cached.logs),
		Generation: m.generation,
		FetchID:    prev.FetchID,
	})
}

func (m *Machine) complete(res result) {
	if res.generation != m.generation {
		m.logger.Debug("[View] discarding superseded result of fetch %s (generation %d, current %d)",
			res.fetchID, res.generation, m.generation)
		return
	}

	m.cancel()
	m.cancel = nil

	if res.err != nil {
		m.cached = nil
		m.logger.Error("[View] fetch %s failed for %s/%s#%d: %v",
			res.fetchID, m.target.Owner, m.target.Repo, m.target.BuildID, res.err)
		m.install(&State{
			Kind:       Error,
			Target:     m.target,
			Err:        res.err,
			Generation: res.generation,
			FetchID:    res.fetchID,
		})
		return
	}

	m.cached = &payload{info: res.info, logs: res.logs}
	m.install(&State{
		Kind:       Content,
		Target:     m.target,
		Build:      res.info,
		Logs:       m.renderer.Render(res.logs),
		Generation: res.generation,
		FetchID:    res.fetchID,
	})
}

// install publishes s as the current state.
func (m *Machine) install(s *State) {
	s.At = m.now()
	m.state.Store(s)

	for _, fn := range m.observers {
		fn(s)
	}

	m.subMu.Lock()
	defer m.subMu.Unlock()
	for ch := range m.subs {
		select {
		case <-ch:
		default:
		}
		ch <- s
	}
}
