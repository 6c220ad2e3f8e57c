package token

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kevin07696/recharge-gateway/internal/domain/models"
	"github.com/kevin07696/recharge-gateway/internal/domain/ports"
	"github.com/kevin07696/recharge-gateway/pkg/observability"
)

// DefaultSafetyMargin is subtracted from the carrier's expiresIn
const DefaultSafetyMargin = 60 * time.Second

// DefaultRefreshTimeout bounds a shared refresh, independent of any caller's deadline
const DefaultRefreshTimeout = 30 * time.Second

// Fetcher acquires a fresh token from the carrier
type Fetcher interface {
	FetchToken(ctx context.Context) (*models.Token, error)
}

// Cache hands out carrier tokens, fetching a new one when the cached one is
// missing or past its expiry. Each credential identity has a single slot.
// Concurrent misses for the same identity share one fetch.
type Cache struct {
	fetcher      Fetcher
	credentialID string
	store        ports.TokenStore
	logger       *zap.Logger

	group          singleflight.Group
	now            func() time.Time
	margin         time.Duration
	refreshTimeout time.Duration
}

// Option configures a Cache
type Option func(*Cache)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithSafetyMargin overrides DefaultSafetyMargin
func WithSafetyMargin(margin time.Duration) Option {
	return func(c *Cache) { c.margin = margin }
}

// WithRefreshTimeout overrides DefaultRefreshTimeout
func WithRefreshTimeout(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.refreshTimeout = d
		}
	}
}

// NewCache creates a token cache. A nil store means an in-memory one.
func NewCache(fetcher Fetcher, credentialID string, store ports.TokenStore, logger *zap.Logger, opts ...Option) *Cache {
	if store == nil {
		store = NewMemoryStore()
	}
	c := &Cache{
		fetcher:      fetcher,
		credentialID: credentialID,
		store:        store,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
		margin:       DefaultSafetyMargin,

		refreshTimeout: DefaultRefreshTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetToken implements ports.TokenProvider.
// A cached token is returned with ExpiresIn set to the whole seconds it has left.
// Fetch errors propagate unchanged and nothing is cached.
func (c *Cache) GetToken(ctx context.Context) (*models.Token, error) {
	if tok, ok := c.cached(ctx); ok {
		observability.RecordTokenCache("hit")
		return tok, nil
	}

	// The refresh is shared, so it must not die with whichever caller started it.
	// Each caller still stops waiting at its own deadline.
	ch := c.group.DoChan(c.credentialID, func() (interface{}, error) {
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.refreshTimeout)
		defer cancel()
		// Another caller may have refreshed while we waited for the group
		if tok, ok := c.cached(flightCtx); ok {
			return tok, nil
		}
		return c.refresh(flightCtx)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		observability.RecordTokenCache("abandoned")
		return nil, ctx.Err()
	}
	if res.Err != nil {
		return nil, res.Err
	}
	v, shared := res.Val, res.Shared

	if shared {
		observability.RecordTokenCache("shared")
	} else {
		observability.RecordTokenCache("miss")
	}

	tok := *v.(*models.Token)
	return &tok, nil
}

func (c *Cache) cached(ctx context.Context) (*models.Token, bool) {
	entry, ok, err := c.store.Get(ctx, c.credentialID)
	if err != nil {
		observability.RecordTokenCache("store_error")
		c.logger.Warn("Token store read failed, fetching a new token",
			zap.Error(err),
		)
		return nil, false
	}
	if !ok || entry == nil || entry.Token.AccessToken == "" {
		return nil, false
	}

	now := c.now()
	if !now.Before(entry.ExpiresAt) {
		return nil, false
	}

	tok := entry.Token
	tok.ExpiresIn = strconv.Itoa(int(entry.ExpiresAt.Sub(now) / time.Second))
	return &tok, true
}

func (c *Cache) refresh(ctx context.Context) (*models.Token, error) {
	tok, err := c.fetcher.FetchToken(ctx)
	if err != nil {
		return nil, err
	}

	now := c.now()
	lifetime := time.Duration(tok.ExpiresInSeconds())*time.Second - c.margin
	if lifetime < 0 {
		lifetime = 0
	}
	entry := &models.CachedToken{
		Token:     *tok,
		ExpiresAt: now.Add(lifetime),
	}

	if err := c.store.Set(ctx, c.credentialID, entry); err != nil {
		c.logger.Warn("Token store write failed, token will not be reused",
			zap.Error(err),
		)
	}

	c.logger.Debug("Carrier token refreshed",
		zap.Time("expires_at", entry.ExpiresAt),
	)

	return tok, nil
}
