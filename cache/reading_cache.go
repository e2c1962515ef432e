// Package cache holds the last-known reading for one account and enforces
// the monotonic-by-date update policy: once a reading is cached it is only
// ever replaced by a strictly later-dated one.
package cache

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/meterflow/greenchoice_adapter/common"
)

// ReadingCache is safe for concurrent use: the poll cycle mutates it while
// the sensor adapter reads snapshots on the host platform's own cadence.
type ReadingCache struct {
	mu     sync.RWMutex
	state  common.CachedState
	logger *zap.Logger

	// now is swapped out by tests
	now func() time.Time
}

// NewReadingCache creates an empty cache.
func NewReadingCache(logger *zap.Logger) *ReadingCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReadingCache{
		logger: logger,
		now:    time.Now,
	}
}

// ConsiderUpdate offers a candidate reading. The candidate is accepted only
// when the cache is empty or the candidate is dated strictly later than the
// held reading; otherwise the state is untouched and false is returned.
// A later poll returning an older or duplicate date is "no update", never a
// regression.
func (c *ReadingCache) ConsiderUpdate(candidate common.Reading) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.LastPollAt = c.now()
	c.state.LastError = common.ErrorKindNone

	if c.state.LatestReading != nil && !candidate.NewerThan(*c.state.LatestReading) {
		c.logger.Debug("candidate reading not newer than cached, ignoring",
			zap.Time("candidate_date", candidate.Date),
			zap.Time("cached_date", c.state.LatestReading.Date),
		)
		return false
	}

	c.state.LatestReading = &candidate
	c.logger.Info("cached new meter reading",
		zap.Float64("value", candidate.Value),
		zap.Time("date", candidate.Date),
	)
	return true
}

// RecordPollFailure records a failed poll cycle. The last known good
// reading is never erased by a failure.
func (c *ReadingCache) RecordPollFailure(kind common.ErrorKind) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.LastPollAt = c.now()
	c.state.LastError = kind
}

// Snapshot returns a consistent point-in-time copy of the cached state.
// Callers never observe a partially applied update.
func (c *ReadingCache) Snapshot() common.CachedState {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snapshot := c.state
	if c.state.LatestReading != nil {
		reading := *c.state.LatestReading
		snapshot.LatestReading = &reading
	}
	return snapshot
}

// Restore seeds the cache from a persisted snapshot, typically loaded at
// startup. The monotonic rule still applies, so a stale snapshot can never
// roll back a reading obtained since.
func (c *ReadingCache) Restore(state common.CachedState) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if state.LatestReading != nil {
		if c.state.LatestReading == nil || state.LatestReading.NewerThan(*c.state.LatestReading) {
			reading := *state.LatestReading
			c.state.LatestReading = &reading
		}
	}
	if state.LastPollAt.After(c.state.LastPollAt) {
		c.state.LastPollAt = state.LastPollAt
		c.state.LastError = state.LastError
	}
}
