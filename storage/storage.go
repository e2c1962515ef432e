package storage

import (
	"context"
	"io"

	"github.com/meterflow/greenchoice_adapter/storage/provider"
)

// ObjectStorageProvider defines the object storage provider interface used
// by the snapshot store. Snapshots are single small objects, so there is
// no listing surface.
type ObjectStorageProvider interface {
	// Upload uploads data to specified path
	Upload(ctx context.Context, path string, data io.Reader) error
	// Download downloads data from specified path
	Download(ctx context.Context, path string) (io.ReadCloser, error)
	// Delete deletes data at specified path
	Delete(ctx context.Context, path string) error
	// Exists checks if data exists at specified path
	Exists(ctx context.Context, path string) (bool, error)
}

// Re-export types from provider package for external use
type (
	ProviderType   = provider.ProviderType
	ProviderConfig = provider.ProviderConfig
	AWSConfig      = provider.AWSConfig
	AzureConfig    = provider.AzureConfig
	OSSConfig      = provider.OSSConfig
	LocalFSConfig  = provider.LocalFSConfig
)

// Re-export constants
const (
	ProviderTypeS3      = provider.ProviderTypeS3
	ProviderTypeAzure   = provider.ProviderTypeAzure
	ProviderTypeOSS     = provider.ProviderTypeOSS
	ProviderTypeLocalFS = provider.ProviderTypeLocalFS
)
