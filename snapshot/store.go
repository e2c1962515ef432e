// Package snapshot persists the cached adapter state to object storage so a
// restart can republish the last-known reading without waiting for the next
// successful poll.
package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/meterflow/greenchoice_adapter/common"
	"github.com/meterflow/greenchoice_adapter/storage"
)

// payloadVersion guards against reading snapshots written by an incompatible
// future layout.
const payloadVersion = 1

// Store persists and restores the cached state for one account.
type Store interface {
	// Save writes the state, replacing any previous snapshot.
	Save(ctx context.Context, state common.CachedState) error
	// Load reads the last saved state. A missing snapshot is not an
	// error: found is false and state is nil.
	Load(ctx context.Context) (state *common.CachedState, found bool, err error)
}

// payload is the stored JSON document.
type payload struct {
	Version int                `json:"version"`
	Account string             `json:"account"`
	SavedAt time.Time          `json:"saved_at"`
	State   common.CachedState `json:"state"`
}

// ObjectStore is a Store backed by an object storage provider. Each account
// owns a single object that is overwritten on every save.
type ObjectStore struct {
	provider storage.ObjectStorageProvider
	account  string
	logger   *zap.Logger
}

// NewObjectStore creates a snapshot store for the named account.
func NewObjectStore(provider storage.ObjectStorageProvider, account string, logger *zap.Logger) (*ObjectStore, error) {
	if provider == nil {
		return nil, fmt.Errorf("storage provider is required")
	}
	if account == "" {
		return nil, fmt.Errorf("account name is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ObjectStore{
		provider: provider,
		account:  account,
		logger:   logger,
	}, nil
}

// NewObjectStoreFromURI builds the storage provider named by a storage URI
// and wraps it in a snapshot store.
func NewObjectStoreFromURI(uri, account string, logger *zap.Logger) (*ObjectStore, error) {
	provider, err := storage.NewProviderFromURI(uri)
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshot storage provider: %w", err)
	}
	return NewObjectStore(provider, account, logger)
}

// objectPath is the per-account snapshot location.
func (s *ObjectStore) objectPath() string {
	return fmt.Sprintf("snapshots/%s/latest.json", s.account)
}

// Save implements Store.
func (s *ObjectStore) Save(ctx context.Context, state common.CachedState) error {
	doc := payload{
		Version: payloadVersion,
		Account: s.account,
		SavedAt: time.Now().UTC(),
		State:   state,
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	path := s.objectPath()
	if err := s.provider.Upload(ctx, path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to upload snapshot to %s: %w", path, err)
	}

	s.logger.Debug("saved snapshot",
		zap.String("path", path),
		zap.Int("size", len(data)),
	)
	return nil
}

// Load implements Store.
func (s *ObjectStore) Load(ctx context.Context) (*common.CachedState, bool, error) {
	path := s.objectPath()

	exists, err := s.provider.Exists(ctx, path)
	if err != nil {
		return nil, false, fmt.Errorf("failed to check snapshot at %s: %w", path, err)
	}
	if !exists {
		return nil, false, nil
	}

	reader, err := s.provider.Download(ctx, path)
	if err != nil {
		return nil, false, fmt.Errorf("failed to download snapshot from %s: %w", path, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read snapshot from %s: %w", path, err)
	}

	var doc payload
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal snapshot from %s: %w", path, err)
	}
	if doc.Version != payloadVersion {
		return nil, false, fmt.Errorf("unsupported snapshot version %d at %s", doc.Version, path)
	}

	s.logger.Debug("loaded snapshot",
		zap.String("path", path),
		zap.Time("saved_at", doc.SavedAt),
	)
	return &doc.State, true, nil
}
