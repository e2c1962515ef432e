// Package sensor turns the cached adapter state into the stable entity
// shape consumed by the host monitoring platform.
package sensor

import (
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/meterflow/greenchoice_adapter/cache"
	"github.com/meterflow/greenchoice_adapter/common"
)

// Attribute keys published alongside the entity state.
const (
	AttrReadingDate = "reading_date"
	AttrLastPoll    = "last_poll"
	AttrLastError   = "last_error"
)

// Sensor publishes the cached state of one account as an entity. It never
// triggers polls itself: publishing happens on the host platform's cadence
// and always reflects whatever the cache holds at that moment.
type Sensor struct {
	name   string
	cache  *cache.ReadingCache
	logger *zap.Logger
}

// New creates a sensor publishing under the given entity name.
func New(name string, readingCache *cache.ReadingCache, logger *zap.Logger) *Sensor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sensor{
		name:   name,
		cache:  readingCache,
		logger: logger,
	}
}

// Name returns the entity name the sensor publishes under.
func (s *Sensor) Name() string {
	return s.name
}

// Entity builds the publishable entity from the current cached state.
// When no reading has ever been cached the state is "unavailable", never a
// numeric placeholder, so downstream consumers cannot mistake absence for
// a zero meter value.
func (s *Sensor) Entity() common.Entity {
	state := s.cache.Snapshot()

	entity := common.Entity{
		ID:         "sensor." + s.name,
		State:      common.EntityStateUnavailable,
		Attributes: make(map[string]string),
	}

	if !state.LastPollAt.IsZero() {
		entity.Attributes[AttrLastPoll] = state.LastPollAt.Format(time.RFC3339)
	}
	if state.LastError != common.ErrorKindNone {
		entity.Attributes[AttrLastError] = string(state.LastError)
	}

	if !state.HasReading() {
		return entity
	}

	reading := state.LatestReading
	entity.State = formatValue(reading.Value)
	entity.Attributes[AttrReadingDate] = reading.Date.Format(time.RFC3339)
	for kind, value := range reading.Measurements {
		entity.Attributes[string(kind)] = formatValue(value)
	}

	return entity
}

// Available reports whether a reading has ever been cached.
func (s *Sensor) Available() bool {
	return s.cache.Snapshot().HasReading()
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
