package poller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/meterflow/greenchoice_adapter/cache"
	"github.com/meterflow/greenchoice_adapter/client"
	"github.com/meterflow/greenchoice_adapter/common"
	"github.com/meterflow/greenchoice_adapter/config"
)

// fakeFetcher is a scriptable Fetcher: each call pops the next result.
type fakeFetcher struct {
	mu      sync.Mutex
	results []fetchResult
	calls   int
	release chan struct{} // when set, LatestReading blocks until closed
	started chan struct{} // when set, receives a signal as a call begins
}

type fetchResult struct {
	reading common.Reading
	err     error
}

func (f *fakeFetcher) LatestReading(ctx context.Context) (common.Reading, error) {
	f.mu.Lock()
	f.calls++
	var result fetchResult
	if len(f.results) > 0 {
		result = f.results[0]
		if len(f.results) > 1 {
			f.results = f.results[1:]
		}
	}
	started := f.started
	release := f.release
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		<-release
	}
	return result.reading, result.err
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// memStore is an in-memory snapshot store.
type memStore struct {
	mu    sync.Mutex
	state *common.CachedState
	saves int
}

func (m *memStore) Save(ctx context.Context, state common.CachedState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = &state
	m.saves++
	return nil
}

func (m *memStore) Load(ctx context.Context) (*common.CachedState, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return nil, false, nil
	}
	state := *m.state
	return &state, true, nil
}

func (m *memStore) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func testConfig() *config.Config {
	return config.DefaultConfig().WithLogger(zap.NewNop())
}

func testReading(value float64, day int) common.Reading {
	return common.Reading{
		Value: value,
		Date:  time.Date(2026, 8, day, 0, 0, 0, 0, time.UTC),
	}
}

func TestPollOnce_AcceptedUpdate(t *testing.T) {
	fetcher := &fakeFetcher{
		results: []fetchResult{{reading: testReading(1000, 24)}},
	}
	readingCache := cache.NewReadingCache(zap.NewNop())
	store := &memStore{}

	var notified []common.CachedState
	p := New(fetcher, readingCache, testConfig(),
		WithSnapshotStore(store),
		WithUpdateFunc(func(state common.CachedState) {
			notified = append(notified, state)
		}),
	)

	ran := p.PollOnce(context.Background())
	require.True(t, ran)

	state := readingCache.Snapshot()
	require.NotNil(t, state.LatestReading)
	assert.Equal(t, 1000.0, state.LatestReading.Value)

	assert.Equal(t, 1, store.saveCount(), "accepted update must be persisted")
	require.Len(t, notified, 1)
	assert.Equal(t, 1000.0, notified[0].LatestReading.Value)
}

func TestPollOnce_NoNewReading(t *testing.T) {
	fetcher := &fakeFetcher{
		results: []fetchResult{{reading: testReading(1000, 24)}},
	}
	readingCache := cache.NewReadingCache(zap.NewNop())
	store := &memStore{}

	updates := 0
	p := New(fetcher, readingCache, testConfig(),
		WithSnapshotStore(store),
		WithUpdateFunc(func(common.CachedState) { updates++ }),
	)

	require.True(t, p.PollOnce(context.Background()))
	require.True(t, p.PollOnce(context.Background()), "repeat of the same reading still runs")

	assert.Equal(t, 1, updates, "duplicate reading must not notify")
	assert.Equal(t, 1, store.saveCount(), "duplicate reading must not persist")
}

func TestPollOnce_DroppedWhileInFlight(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	fetcher := &fakeFetcher{
		results: []fetchResult{{reading: testReading(1000, 24)}},
		release: release,
		started: started,
	}
	readingCache := cache.NewReadingCache(zap.NewNop())
	p := New(fetcher, readingCache, testConfig())

	done := make(chan bool, 1)
	go func() {
		done <- p.PollOnce(context.Background())
	}()

	<-started
	assert.True(t, p.Polling())
	assert.False(t, p.PollOnce(context.Background()), "overlapping poll must be dropped, not queued")

	close(release)
	assert.True(t, <-done)
	assert.False(t, p.Polling())
	assert.Equal(t, 1, fetcher.callCount())
}

func TestPollOnce_FailureRecordedByKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want common.ErrorKind
	}{
		{
			name: "authentication",
			err:  fmt.Errorf("login rejected: %w", client.ErrAuthentication),
			want: common.ErrorKindAuthentication,
		},
		{
			name: "network",
			err:  fmt.Errorf("request failed: %w", client.ErrNetwork),
			want: common.ErrorKindNetwork,
		},
		{
			name: "no data",
			err:  fmt.Errorf("empty history: %w", client.ErrNoData),
			want: common.ErrorKindNoData,
		},
		{
			name: "parse",
			err:  fmt.Errorf("bad payload: %w", client.ErrParse),
			want: common.ErrorKindParse,
		},
		{
			name: "unclassified errors count as network",
			err:  errors.New("connection reset"),
			want: common.ErrorKindNetwork,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := &fakeFetcher{results: []fetchResult{{err: tt.err}}}
			readingCache := cache.NewReadingCache(zap.NewNop())
			p := New(fetcher, readingCache, testConfig())

			require.True(t, p.PollOnce(context.Background()))
			assert.Equal(t, tt.want, readingCache.Snapshot().LastError)
		})
	}
}

func TestPollOnce_FailureKeepsLastReading(t *testing.T) {
	fetcher := &fakeFetcher{results: []fetchResult{
		{reading: testReading(1000, 24)},
		{err: fmt.Errorf("timeout: %w", client.ErrNetwork)},
	}}
	readingCache := cache.NewReadingCache(zap.NewNop())
	p := New(fetcher, readingCache, testConfig())

	require.True(t, p.PollOnce(context.Background()))
	require.True(t, p.PollOnce(context.Background()))

	state := readingCache.Snapshot()
	require.NotNil(t, state.LatestReading)
	assert.Equal(t, 1000.0, state.LatestReading.Value)
	assert.Equal(t, common.ErrorKindNetwork, state.LastError)
}

func TestPollOnce_AuthFailureLatches(t *testing.T) {
	fetcher := &fakeFetcher{results: []fetchResult{
		{err: fmt.Errorf("bad credentials: %w", client.ErrAuthentication)},
	}}
	readingCache := cache.NewReadingCache(zap.NewNop())
	p := New(fetcher, readingCache, testConfig())

	require.True(t, p.PollOnce(context.Background()))
	assert.True(t, p.authLatched.Load())

	fetcher2 := &fakeFetcher{results: []fetchResult{
		{err: fmt.Errorf("unreachable: %w", client.ErrNetwork)},
	}}
	p2 := New(fetcher2, readingCache, testConfig())
	require.True(t, p2.PollOnce(context.Background()))
	assert.False(t, p2.authLatched.Load(), "non-auth failures must not latch")
}

func TestStart_AuthLatchSkipsTicksUntilRefresh(t *testing.T) {
	fetcher := &fakeFetcher{results: []fetchResult{
		{err: fmt.Errorf("bad credentials: %w", client.ErrAuthentication)},
	}}
	readingCache := cache.NewReadingCache(zap.NewNop())
	p := New(fetcher, readingCache, testConfig(), WithInterval(10*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		p.Start(ctx)
		close(done)
	}()

	// Let several intervals pass: only the immediate first poll may run.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, fetcher.callCount(), "latched poller must not retry the login on every tick")

	// A manual refresh clears the latch and polls immediately.
	p.Refresh()
	require.Eventually(t, func() bool {
		return fetcher.callCount() >= 2
	}, time.Second, 5*time.Millisecond)

	p.Stop()
	<-done
}

func TestStart_RestoresSnapshotBeforeFirstPoll(t *testing.T) {
	persisted := testReading(1000, 24)
	store := &memStore{state: &common.CachedState{
		LatestReading: &persisted,
		LastPollAt:    time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC),
	}}

	fetcher := &fakeFetcher{results: []fetchResult{
		{err: fmt.Errorf("unreachable: %w", client.ErrNetwork)},
	}}
	readingCache := cache.NewReadingCache(zap.NewNop())
	p := New(fetcher, readingCache, testConfig(),
		WithInterval(time.Hour),
		WithSnapshotStore(store),
	)

	done := make(chan struct{})
	go func() {
		p.Start(context.Background())
		close(done)
	}()

	require.Eventually(t, func() bool {
		return fetcher.callCount() >= 1
	}, time.Second, 5*time.Millisecond)
	p.Stop()
	<-done

	state := readingCache.Snapshot()
	require.NotNil(t, state.LatestReading, "restored reading must survive a failed first poll")
	assert.Equal(t, 1000.0, state.LatestReading.Value)
	assert.Equal(t, common.ErrorKindNetwork, state.LastError)
}

func TestRefresh_NeverBlocks(t *testing.T) {
	fetcher := &fakeFetcher{}
	readingCache := cache.NewReadingCache(zap.NewNop())
	p := New(fetcher, readingCache, testConfig())

	// Without a running Start loop nothing drains refreshCh; repeated
	// refreshes coalesce instead of blocking.
	for i := 0; i < 5; i++ {
		p.Refresh()
	}
}

func TestContextCancellationStopsStart(t *testing.T) {
	fetcher := &fakeFetcher{results: []fetchResult{{reading: testReading(1000, 24)}}}
	readingCache := cache.NewReadingCache(zap.NewNop())
	p := New(fetcher, readingCache, testConfig(), WithInterval(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		p.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return fetcher.callCount() >= 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return after context cancellation")
	}
}
