package common

import (
	"time"
)

// MeasurementKind identifies a single meter register reported by the
// Greenchoice API. The numeric register codes ("telwerk") map as follows:
// 1 consumption high, 2 consumption low, 3 feed-in high, 4 feed-in low,
// 5 gas.
type MeasurementKind string

const (
	// MeasurementConsumptionHigh normal-tariff electricity consumption (kWh)
	MeasurementConsumptionHigh MeasurementKind = "electricity_consumption_high"
	// MeasurementConsumptionLow off-peak electricity consumption (kWh)
	MeasurementConsumptionLow MeasurementKind = "electricity_consumption_low"
	// MeasurementFeedInHigh normal-tariff feed-in (kWh)
	MeasurementFeedInHigh MeasurementKind = "electricity_return_high"
	// MeasurementFeedInLow off-peak feed-in (kWh)
	MeasurementFeedInLow MeasurementKind = "electricity_return_low"
	// MeasurementGas gas consumption (m3)
	MeasurementGas MeasurementKind = "gas_consumption"
)

// ErrorKind classifies a failed poll cycle for the cached state.
type ErrorKind string

const (
	// ErrorKindNone no error recorded
	ErrorKindNone ErrorKind = ""
	// ErrorKindAuthentication upstream rejected the credentials
	ErrorKindAuthentication ErrorKind = "authentication"
	// ErrorKindNetwork transport-level failure, retryable on the next tick
	ErrorKindNetwork ErrorKind = "network"
	// ErrorKindNoData upstream returned no meter history
	ErrorKindNoData ErrorKind = "no_data"
	// ErrorKindParse upstream response had an unexpected shape
	ErrorKindParse ErrorKind = "parse"
)

// Reading is a single meter reading reported by the upstream metering API.
// Value is the cumulative electricity consumption total (normal plus
// off-peak registers); Measurements carries the per-register breakdown.
// A Reading is immutable once constructed.
type Reading struct {
	Value        float64                     `json:"value"`
	Date         time.Time                   `json:"date"`
	Measurements map[MeasurementKind]float64 `json:"measurements,omitempty"`
}

// NewerThan reports whether the reading's measurement date is strictly
// later than other's. Equal dates are not newer.
func (r Reading) NewerThan(other Reading) bool {
	return r.Date.After(other.Date)
}

// CachedState is the last-known poll outcome for one account.
// LatestReading is nil until the first successful poll.
type CachedState struct {
	LatestReading *Reading  `json:"latest_reading,omitempty"`
	LastPollAt    time.Time `json:"last_poll_at,omitempty"`
	LastError     ErrorKind `json:"last_error,omitempty"`
}

// HasReading reports whether a reading has ever been cached.
func (s CachedState) HasReading() bool {
	return s.LatestReading != nil
}

// EntityStateUnavailable is published when no reading has ever been obtained.
// The host platform must never see a numeric placeholder instead.
const EntityStateUnavailable = "unavailable"

// Entity is the shape handed to the host monitoring platform on every
// publish tick: a state value plus a flat attribute map.
type Entity struct {
	ID         string            `json:"entity_id"`
	State      string            `json:"state"`
	Attributes map[string]string `json:"attributes,omitempty"`
}
