package token

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kevin07696/recharge-gateway/internal/domain"
	"github.com/kevin07696/recharge-gateway/internal/domain/models"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type countingFetcher struct {
	calls     atomic.Int32
	expiresIn string
	err       error
	delay     time.Duration
}

func (f *countingFetcher) FetchToken(ctx context.Context) (*models.Token, error) {
	n := f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &models.Token{
		AccessToken: "token-" + string(rune('0'+n)),
		ExpiresIn:   f.expiresIn,
	}, nil
}

type failingStore struct{}

func (failingStore) Get(ctx context.Context, key string) (*models.CachedToken, bool, error) {
	return nil, false, errors.New("store down")
}

func (failingStore) Set(ctx context.Context, key string, entry *models.CachedToken) error {
	return errors.New("store down")
}

func newTestCache(fetcher Fetcher, clock *fakeClock) *Cache {
	return NewCache(fetcher, "consumer-key", nil, zap.NewNop(), WithClock(clock.Now))
}

func TestCache_ReusesTokenUntilMargin(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 12, 5, 16, 0, 0, 0, time.UTC)}
	fetcher := &countingFetcher{expiresIn: "3600"}
	cache := newTestCache(fetcher, clock)

	first, err := cache.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-1", first.AccessToken)

	clock.Advance(3539 * time.Second)
	second, err := cache.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-1", second.AccessToken)
	assert.Equal(t, "1", second.ExpiresIn)
	assert.Equal(t, int32(1), fetcher.calls.Load())

	// expiresAt = start + 3540s; the cache stops serving at that instant
	clock.Advance(1 * time.Second)
	third, err := cache.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-2", third.AccessToken)
	assert.Equal(t, int32(2), fetcher.calls.Load())
}

func TestCache_RefetchesAfter3541Seconds(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 12, 5, 16, 0, 0, 0, time.UTC)}
	fetcher := &countingFetcher{expiresIn: "3600"}
	cache := newTestCache(fetcher, clock)

	_, err := cache.GetToken(context.Background())
	require.NoError(t, err)

	clock.Advance(3541 * time.Second)
	tok, err := cache.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-2", tok.AccessToken)
}

func TestCache_ReportsRemainingSeconds(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 12, 5, 16, 0, 0, 0, time.UTC)}
	cache := newTestCache(&countingFetcher{expiresIn: "3600"}, clock)

	fresh, err := cache.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "3600", fresh.ExpiresIn)

	clock.Advance(540 * time.Second)
	cached, err := cache.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "3000", cached.ExpiresIn)
}

func TestCache_ShortLifetimeClampsToZero(t *testing.T) {
	tests := []struct {
		name      string
		expiresIn string
	}{
		{name: "below margin", expiresIn: "30"},
		{name: "unparsable", expiresIn: "soon"},
		{name: "missing", expiresIn: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := &fakeClock{now: time.Date(2025, 12, 5, 16, 0, 0, 0, time.UTC)}
			fetcher := &countingFetcher{expiresIn: tt.expiresIn}
			cache := newTestCache(fetcher, clock)

			_, err := cache.GetToken(context.Background())
			require.NoError(t, err)
			_, err = cache.GetToken(context.Background())
			require.NoError(t, err)

			assert.Equal(t, int32(2), fetcher.calls.Load())
		})
	}
}

func TestCache_FetchErrorPropagates(t *testing.T) {
	clock := &fakeClock{now: time.Now().UTC()}
	fetchErr := &domain.UpstreamError{Operation: "token", StatusCode: 500}
	fetcher := &countingFetcher{err: fetchErr}
	cache := newTestCache(fetcher, clock)

	_, err := cache.GetToken(context.Background())
	assert.ErrorIs(t, err, fetchErr)

	_, err = cache.GetToken(context.Background())
	assert.Error(t, err)
	assert.Equal(t, int32(2), fetcher.calls.Load())
}

func TestCache_ConcurrentMissesShareOneFetch(t *testing.T) {
	clock := &fakeClock{now: time.Now().UTC()}
	fetcher := &countingFetcher{expiresIn: "3600", delay: 50 * time.Millisecond}
	cache := newTestCache(fetcher, clock)

	var wg sync.WaitGroup
	tokens := make([]string, 20)
	for i := range tokens {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tok, err := cache.GetToken(context.Background())
			if assert.NoError(t, err) {
				tokens[i] = tok.AccessToken
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), fetcher.calls.Load())
	for _, tok := range tokens {
		assert.Equal(t, "token-1", tok)
	}
}

func TestCache_KeyedByCredential(t *testing.T) {
	clock := &fakeClock{now: time.Now().UTC()}
	store := NewMemoryStore()
	fetcherA := &countingFetcher{expiresIn: "3600"}
	fetcherB := &countingFetcher{expiresIn: "3600"}

	cacheA := NewCache(fetcherA, "tenant-a", store, zap.NewNop(), WithClock(clock.Now))
	cacheB := NewCache(fetcherB, "tenant-b", store, zap.NewNop(), WithClock(clock.Now))

	_, err := cacheA.GetToken(context.Background())
	require.NoError(t, err)
	_, err = cacheB.GetToken(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(1), fetcherA.calls.Load())
	assert.Equal(t, int32(1), fetcherB.calls.Load())
}

func TestCache_StoreFailureFallsBackToFetch(t *testing.T) {
	clock := &fakeClock{now: time.Now().UTC()}
	fetcher := &countingFetcher{expiresIn: "3600"}
	cache := NewCache(fetcher, "consumer-key", failingStore{}, zap.NewNop(), WithClock(clock.Now))

	tok, err := cache.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-1", tok.AccessToken)
}

// blockingFetcher waits for release or its own context, whichever comes first
type blockingFetcher struct {
	calls   atomic.Int32
	release chan struct{}
}

func (f *blockingFetcher) FetchToken(ctx context.Context) (*models.Token, error) {
	f.calls.Add(1)
	select {
	case <-f.release:
		return &models.Token{AccessToken: "shared-token", ExpiresIn: "3600"}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestCache_LeaderDeadlineDoesNotFailWaiters(t *testing.T) {
	clock := &fakeClock{now: time.Now().UTC()}
	fetcher := &blockingFetcher{release: make(chan struct{})}
	cache := newTestCache(fetcher, clock)

	leaderCtx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	leaderErr := make(chan error, 1)
	go func() {
		_, err := cache.GetToken(leaderCtx)
		leaderErr <- err
	}()
	require.Eventually(t, func() bool { return fetcher.calls.Load() == 1 }, time.Second, time.Millisecond)

	type result struct {
		tok *models.Token
		err error
	}
	waiter := make(chan result, 1)
	go func() {
		tok, err := cache.GetToken(context.Background())
		waiter <- result{tok, err}
	}()

	// the leader gives up at its own deadline
	assert.ErrorIs(t, <-leaderErr, context.DeadlineExceeded)

	close(fetcher.release)
	got := <-waiter
	require.NoError(t, got.err)
	assert.Equal(t, "shared-token", got.tok.AccessToken)
	assert.Equal(t, int32(1), fetcher.calls.Load())

	// the refreshed token was stored for later callers
	tok, err := cache.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "shared-token", tok.AccessToken)
	assert.Equal(t, int32(1), fetcher.calls.Load())
}

func TestCache_RefreshTimeoutBoundsSharedFetch(t *testing.T) {
	clock := &fakeClock{now: time.Now().UTC()}
	fetcher := &blockingFetcher{release: make(chan struct{})}
	cache := NewCache(fetcher, "consumer-key", nil, zap.NewNop(),
		WithClock(clock.Now),
		WithRefreshTimeout(20*time.Millisecond),
	)

	_, err := cache.GetToken(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
