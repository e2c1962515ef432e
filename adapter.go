package adapter

import (
	"github.com/meterflow/greenchoice_adapter/cache"
	"github.com/meterflow/greenchoice_adapter/client"
	"github.com/meterflow/greenchoice_adapter/common"
	"github.com/meterflow/greenchoice_adapter/config"
	"github.com/meterflow/greenchoice_adapter/internal/auth"
	"github.com/meterflow/greenchoice_adapter/poller"
	"github.com/meterflow/greenchoice_adapter/sensor"
	"github.com/meterflow/greenchoice_adapter/snapshot"
	"github.com/meterflow/greenchoice_adapter/storage"
)

// Adapter version information
const (
	Version = "v0.1.0"
)

// Re-export main types and functions for user convenience
type (
	// Config adapter configuration
	Config = config.Config
	// AccountConfig per-account configuration
	AccountConfig = config.AccountConfig
	// Credentials validated username/password pair
	Credentials = auth.Credentials
	// SessionClient authenticated upstream API client
	SessionClient = client.SessionClient
	// Rates current delivery tariffs
	Rates = client.Rates
	// ReadingCache last-known reading cache
	ReadingCache = cache.ReadingCache
	// Poller fixed-interval poll scheduler
	Poller = poller.Poller
	// Fetcher reading source consumed by the poller
	Fetcher = poller.Fetcher
	// Sensor entity publisher
	Sensor = sensor.Sensor
	// SnapshotStore cached state persistence interface
	SnapshotStore = snapshot.Store
	// Reading single meter reading
	Reading = common.Reading
	// CachedState last-known poll outcome
	CachedState = common.CachedState
	// Entity published entity shape
	Entity = common.Entity
	// MeasurementKind meter register identifier
	MeasurementKind = common.MeasurementKind
	// ErrorKind poll failure classification
	ErrorKind = common.ErrorKind
	// ObjectStorageProvider snapshot storage backend interface
	ObjectStorageProvider = storage.ObjectStorageProvider
	// ProviderConfig storage provider configuration
	ProviderConfig = storage.ProviderConfig
)

// Re-export constants
const (
	ProviderTypeS3      = storage.ProviderTypeS3
	ProviderTypeAzure   = storage.ProviderTypeAzure
	ProviderTypeOSS     = storage.ProviderTypeOSS
	ProviderTypeLocalFS = storage.ProviderTypeLocalFS

	EntityStateUnavailable = common.EntityStateUnavailable
)

// Re-export main functions
var (
	// DefaultConfig creates default configuration
	DefaultConfig = config.DefaultConfig
	// NewDebugConfig creates debug configuration
	NewDebugConfig = config.NewDebugConfig
	// NewAccountFromURI parses a greenchoice:// account URI
	NewAccountFromURI = config.NewAccountFromURI
	// LoadAccountsFile loads account definitions from a YAML or TOML file
	LoadAccountsFile = config.LoadAccountsFile
	// NewCredentials validates a username/password pair
	NewCredentials = auth.NewCredentials
	// NewSessionClient creates the upstream API client
	NewSessionClient = client.NewSessionClient
	// NewReadingCache creates an empty reading cache
	NewReadingCache = cache.NewReadingCache
	// NewPoller creates the poll scheduler
	NewPoller = poller.New
	// NewSensor creates the entity publisher
	NewSensor = sensor.New
	// NewObjectStorageProvider creates a snapshot storage provider
	NewObjectStorageProvider = storage.NewObjectStorageProvider
	// NewSnapshotStore creates an object-storage backed snapshot store
	NewSnapshotStore = snapshot.NewObjectStore
	// NewSnapshotStoreFromURI creates a snapshot store from a storage URI
	NewSnapshotStoreFromURI = snapshot.NewObjectStoreFromURI
)
