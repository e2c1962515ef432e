package snapshot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/meterflow/greenchoice_adapter/common"
	"github.com/meterflow/greenchoice_adapter/storage"
)

func newLocalStore(t *testing.T, account string) *ObjectStore {
	t.Helper()

	provider, err := storage.NewObjectStorageProvider(&storage.ProviderConfig{
		Type: storage.ProviderTypeLocalFS,
		LocalFS: &storage.LocalFSConfig{
			BasePath:   t.TempDir(),
			CreateDirs: true,
		},
	})
	require.NoError(t, err)

	store, err := NewObjectStore(provider, account, zap.NewNop())
	require.NoError(t, err)
	return store
}

func TestNewObjectStore_Validation(t *testing.T) {
	provider, err := storage.NewObjectStorageProvider(&storage.ProviderConfig{
		Type: storage.ProviderTypeLocalFS,
		LocalFS: &storage.LocalFSConfig{
			BasePath:   t.TempDir(),
			CreateDirs: true,
		},
	})
	require.NoError(t, err)

	_, err = NewObjectStore(nil, "home", zap.NewNop())
	assert.Error(t, err)

	_, err = NewObjectStore(provider, "", zap.NewNop())
	assert.Error(t, err)

	store, err := NewObjectStore(provider, "home", nil)
	assert.NoError(t, err)
	assert.NotNil(t, store)
}

func TestObjectStore_SaveLoad(t *testing.T) {
	store := newLocalStore(t, "energy_consumption")
	ctx := context.Background()

	readingDate := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	state := common.CachedState{
		LatestReading: &common.Reading{
			Value: 12345.6,
			Date:  readingDate,
			Measurements: map[common.MeasurementKind]float64{
				common.MeasurementConsumptionHigh: 8000.1,
				common.MeasurementConsumptionLow:  4345.5,
				common.MeasurementGas:             987.3,
			},
		},
		LastPollAt: time.Date(2026, 8, 25, 9, 30, 0, 0, time.UTC),
	}

	require.NoError(t, store.Save(ctx, state))

	restored, found, err := store.Load(ctx)
	require.NoError(t, err)
	require.True(t, found)
	require.NotNil(t, restored.LatestReading)

	assert.Equal(t, state.LatestReading.Value, restored.LatestReading.Value)
	assert.True(t, restored.LatestReading.Date.Equal(readingDate))
	assert.Equal(t, state.LatestReading.Measurements, restored.LatestReading.Measurements)
	assert.True(t, restored.LastPollAt.Equal(state.LastPollAt))
	assert.Equal(t, common.ErrorKindNone, restored.LastError)
}

func TestObjectStore_SaveOverwrites(t *testing.T) {
	store := newLocalStore(t, "energy_consumption")
	ctx := context.Background()

	first := common.CachedState{
		LatestReading: &common.Reading{Value: 100, Date: time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)},
	}
	second := common.CachedState{
		LatestReading: &common.Reading{Value: 200, Date: time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)},
	}

	require.NoError(t, store.Save(ctx, first))
	require.NoError(t, store.Save(ctx, second))

	restored, found, err := store.Load(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 200.0, restored.LatestReading.Value)
}

func TestObjectStore_LoadMissing(t *testing.T) {
	store := newLocalStore(t, "energy_consumption")

	state, found, err := store.Load(context.Background())
	assert.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, state)
}

func TestObjectStore_AccountsIsolated(t *testing.T) {
	provider, err := storage.NewObjectStorageProvider(&storage.ProviderConfig{
		Type: storage.ProviderTypeLocalFS,
		LocalFS: &storage.LocalFSConfig{
			BasePath:   t.TempDir(),
			CreateDirs: true,
		},
	})
	require.NoError(t, err)

	home, err := NewObjectStore(provider, "home", zap.NewNop())
	require.NoError(t, err)
	office, err := NewObjectStore(provider, "office", zap.NewNop())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, home.Save(ctx, common.CachedState{
		LatestReading: &common.Reading{Value: 111, Date: time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)},
	}))

	_, found, err := office.Load(ctx)
	require.NoError(t, err)
	assert.False(t, found, "office store must not see home's snapshot")

	restored, found, err := home.Load(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 111.0, restored.LatestReading.Value)
}
