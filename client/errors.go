package client

import (
	"errors"

	"github.com/meterflow/greenchoice_adapter/common"
)

// Error definitions
var (
	// ErrAuthentication the portal rejected the configured credentials
	ErrAuthentication = errors.New("authentication failed")
	// ErrNetwork transport-level failure talking to the portal
	ErrNetwork = errors.New("network error")
	// ErrNoData the portal returned no meter history
	ErrNoData = errors.New("no meter readings available")
	// ErrParse the portal response had an unexpected shape
	ErrParse = errors.New("unexpected response shape")
)

// KindOf maps a fetch-cycle error onto the cached error taxonomy.
// Unclassified errors count as network failures: they are transient until
// proven otherwise and retried on the next scheduled tick.
func KindOf(err error) common.ErrorKind {
	switch {
	case err == nil:
		return common.ErrorKindNone
	case errors.Is(err, ErrAuthentication):
		return common.ErrorKindAuthentication
	case errors.Is(err, ErrNoData):
		return common.ErrorKindNoData
	case errors.Is(err, ErrParse):
		return common.ErrorKindParse
	default:
		return common.ErrorKindNetwork
	}
}
