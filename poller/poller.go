// Package poller drives the fetch-compare-cache cycle on a fixed interval.
// It is the only error boundary of the adapter: every fetch failure is
// recorded in the reading cache and nothing propagates to the publish path.
package poller

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/meterflow/greenchoice_adapter/cache"
	"github.com/meterflow/greenchoice_adapter/client"
	"github.com/meterflow/greenchoice_adapter/common"
	"github.com/meterflow/greenchoice_adapter/config"
	"github.com/meterflow/greenchoice_adapter/snapshot"
)

// Fetcher retrieves the most recent meter reading from the upstream API.
// *client.SessionClient is the production implementation.
type Fetcher interface {
	LatestReading(ctx context.Context) (common.Reading, error)
}

// Poller owns one account's poll cycle. It has exactly two states, idle
// and polling; ticks that arrive while a poll is in flight are dropped,
// never queued.
type Poller struct {
	fetcher  Fetcher
	cache    *cache.ReadingCache
	store    snapshot.Store // optional, nil disables persistence
	interval time.Duration
	logger   *zap.Logger

	polling     atomic.Bool
	authLatched atomic.Bool

	refreshCh chan struct{}
	stopCh    chan struct{}

	// onUpdate is invoked after a candidate reading was accepted, so the
	// host platform can be nudged to re-publish.
	onUpdate func(common.CachedState)
}

// Option customizes a Poller.
type Option func(*Poller)

// WithSnapshotStore persists the cached state after every accepted update
// and restores it before the first poll.
func WithSnapshotStore(store snapshot.Store) Option {
	return func(p *Poller) {
		p.store = store
	}
}

// WithUpdateFunc registers a callback fired after each accepted update.
func WithUpdateFunc(fn func(common.CachedState)) Option {
	return func(p *Poller) {
		p.onUpdate = fn
	}
}

// WithInterval overrides the configured poll interval.
func WithInterval(interval time.Duration) Option {
	return func(p *Poller) {
		if interval > 0 {
			p.interval = interval
		}
	}
}

// New creates a poller for one account.
func New(fetcher Fetcher, readingCache *cache.ReadingCache, cfg *config.Config, opts ...Option) *Poller {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	p := &Poller{
		fetcher:   fetcher,
		cache:     readingCache,
		interval:  cfg.PollInterval,
		logger:    cfg.GetLogger(),
		refreshCh: make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start blocks, polling on the configured interval until Stop is called or
// the context is cancelled. The first poll runs immediately. A poll that
// outlives its interval simply delays the next tick; overlapping ticks are
// dropped by the idle/polling guard.
func (p *Poller) Start(ctx context.Context) {
	p.logger.Info("starting poll scheduler",
		zap.Duration("interval", p.interval),
	)

	p.restore(ctx)
	p.PollOnce(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if p.authLatched.Load() {
				// A rejected login is surfaced once and not retried on
				// every tick, so the upstream login endpoint is not
				// hammered with known-bad credentials.
				p.logger.Debug("skipping scheduled poll, authentication latched")
				continue
			}
			p.PollOnce(ctx)
		case <-p.refreshCh:
			p.authLatched.Store(false)
			p.PollOnce(ctx)
		case <-p.stopCh:
			p.logger.Info("stopping poll scheduler")
			return
		case <-ctx.Done():
			p.logger.Info("poll scheduler context cancelled")
			return
		}
	}
}

// Stop terminates a running Start loop.
func (p *Poller) Stop() {
	close(p.stopCh)
}

// Refresh requests an immediate poll, clearing any authentication latch.
// It never blocks; a refresh requested while one is already pending is
// coalesced.
func (p *Poller) Refresh() {
	select {
	case p.refreshCh <- struct{}{}:
	default:
	}
}

// PollOnce runs a single fetch-compare-cache cycle. It returns false when
// another poll is already in flight and this one was dropped.
func (p *Poller) PollOnce(ctx context.Context) bool {
	if !p.polling.CompareAndSwap(false, true) {
		p.logger.Debug("poll already in flight, dropping tick")
		return false
	}
	defer p.polling.Store(false)

	reading, err := p.fetcher.LatestReading(ctx)
	if err != nil {
		kind := client.KindOf(err)
		p.cache.RecordPollFailure(kind)

		if kind == common.ErrorKindAuthentication {
			p.authLatched.Store(true)
			p.logger.Error("authentication failed, check the configured credentials",
				zap.Error(err),
			)
		} else {
			p.logger.Warn("poll failed, keeping last known reading",
				zap.String("kind", string(kind)),
				zap.Error(err),
			)
		}
		return true
	}

	if !p.cache.ConsiderUpdate(reading) {
		p.logger.Debug("no new reading",
			zap.Time("date", reading.Date),
		)
		return true
	}

	state := p.cache.Snapshot()
	p.persist(ctx, state)
	if p.onUpdate != nil {
		p.onUpdate(state)
	}
	return true
}

// Polling reports whether a cycle is currently in flight.
func (p *Poller) Polling() bool {
	return p.polling.Load()
}

// restore seeds the cache from the snapshot store, when one is configured.
// Restore failures are not fatal: the state is rebuilt from the next
// successful poll.
func (p *Poller) restore(ctx context.Context) {
	if p.store == nil {
		return
	}

	state, found, err := p.store.Load(ctx)
	if err != nil {
		p.logger.Warn("failed to restore cached state", zap.Error(err))
		return
	}
	if !found {
		return
	}

	p.cache.Restore(*state)
	p.logger.Info("restored cached state from snapshot",
		zap.Bool("has_reading", state.HasReading()),
	)
}

// persist writes the state to the snapshot store, when one is configured.
func (p *Poller) persist(ctx context.Context, state common.CachedState) {
	if p.store == nil {
		return
	}
	if err := p.store.Save(ctx, state); err != nil {
		p.logger.Warn("failed to persist cached state", zap.Error(err))
	}
}
