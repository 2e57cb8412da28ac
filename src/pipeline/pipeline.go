// Package pipeline assembles the provider, account store, broker and services
// a travisjr process runs on. It is shared by the CLI and the MCP server.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"travisjr/src/broker"
	"travisjr/src/build"
	"travisjr/src/config"
	"travisjr/src/logger"
	"travisjr/src/provider"
	"travisjr/src/repo"
	"travisjr/src/session"
	"travisjr/src/store"
	"travisjr/src/view"

	_ "travisjr/src/travis"
)

// ProviderName is the registered provider travisjr talks to.
const ProviderName = "travis"

// Mode says where build state events go.
type Mode int

const (
	// LocalMode keeps events in an in-memory broker inside the process.
	LocalMode Mode = iota
	// DistributedMode publishes events to Redpanda for other processes.
	DistributedMode
)

func (m Mode) String() string {
	if m == DistributedMode {
		return "distributed"
	}
	return "local"
}

// DetectMode selects DistributedMode when Redpanda brokers are configured.
func DetectMode(cfg *config.Config) Mode {
	if len(cfg.RedpandaBrokers) > 0 {
		return DistributedMode
	}
	return LocalMode
}

// Pipeline holds the wired services of one process.
type Pipeline struct {
	Mode      Mode
	Config    *config.Config
	Provider  provider.Provider
	Accounts  store.AccountStore
	Broker    broker.Broker
	Publisher *broker.StatePublisher
	Session   *session.Context
	Repos     *repo.Resolver
	Builds    *build.Fetcher

	logger logger.Logger
}

// New connects the account store and broker selected by cfg and builds the
// services on top of them.
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (*Pipeline, error) {
	log = logger.OrSilent(log)

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	prov, err := provider.GetProvider(ProviderName, cfg.TravisAPIURL, cfg.TravisToken)
	if err != nil {
		return nil, err
	}
	if t, ok := prov.(interface{ SetTimeout(time.Duration) }); ok {
		t.SetTimeout(cfg.HTTPTimeout)
	}

	accounts, err := openAccounts(ctx, cfg)
	if err != nil {
		return nil, err
	}

	mode := DetectMode(cfg)
	msgBroker, err := openBroker(mode, cfg, log)
	if err != nil {
		accounts.Close()
		return nil, err
	}

	sess := session.New(accounts, session.NewGHHosts(cfg.GHConfigDir), log)
	log.Debug("[Pipeline] Running in %s mode", mode)

	return &Pipeline{
		Mode:      mode,
		Config:    cfg,
		Provider:  prov,
		Accounts:  accounts,
		Broker:    msgBroker,
		Publisher: broker.NewStatePublisher(msgBroker, cfg.StateTopic, log),
		Session:   sess,
		Repos:     repo.NewResolver(prov, sess, log),
		Builds:    build.NewFetcher(prov, log, build.WithConcurrency(cfg.LogConcurrency), build.WithLocation(loc)),
		logger:    log,
	}, nil
}

func openAccounts(ctx context.Context, cfg *config.Config) (store.AccountStore, error) {
	if cfg.PostgresDSN != "" {
		st, err := store.NewPostgresStore(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
		}
		return st, nil
	}
	if cfg.AccountFile != "" {
		st, err := store.NewFileStore(cfg.AccountFile)
		if err != nil {
			return nil, err
		}
		return st, nil
	}
	return store.NewMemoryStore(), nil
}

func openBroker(mode Mode, cfg *config.Config, log logger.Logger) (broker.Broker, error) {
	if mode == DistributedMode {
		b, err := broker.NewRedpandaBroker(cfg.RedpandaBrokers, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create Redpanda broker: %w", err)
		}
		return b, nil
	}
	return broker.NewInMemoryBroker(), nil
}

// Watch creates a view machine for target, publishes every state it enters
// as a build state event and runs it until ctx is done. Events are published
// off the machine's goroutine.
func (p *Pipeline) Watch(ctx context.Context, target view.Target) *view.Machine {
	events := p.Publisher.Forward(ctx, broker.DefaultQueueSize)
	m := view.NewMachine(p.Builds, target,
		view.WithLogger(p.logger),
		view.WithObserver(func(s *view.State) { events.Enqueue(s.Event()) }),
	)

	go func() {
		if err := m.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			p.logger.Error("[Pipeline] View of %s/%s#%d stopped: %v", target.Owner, target.Repo, target.BuildID, err)
		}
	}()

	return m
}

// Close shuts down the broker and the account store.
func (p *Pipeline) Close() error {
	return errors.Join(p.Broker.Close(), p.Accounts.Close())
}
