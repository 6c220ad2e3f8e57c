package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kevin07696/recharge-gateway/internal/domain/models"
)

// DefaultKeyPrefix namespaces token keys
const DefaultKeyPrefix = "recharge-gateway:carrier-token:"

// Config holds the connection settings for the shared token store
type Config struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// NewClient connects and pings. The caller owns Close.
func NewClient(ctx context.Context, cfg Config) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// TokenStore keeps carrier tokens in Redis so replicas share one token per
// credential. Keys expire together with the cached token.
type TokenStore struct {
	client    goredis.Cmdable
	keyPrefix string
	now       func() time.Time
}

// NewTokenStore creates a TokenStore over an existing client
func NewTokenStore(client goredis.Cmdable, keyPrefix string) *TokenStore {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &TokenStore{
		client:    client,
		keyPrefix: keyPrefix,
		now:       time.Now,
	}
}

// Get implements ports.TokenStore
func (s *TokenStore) Get(ctx context.Context, key string) (*models.CachedToken, bool, error) {
	raw, err := s.client.Get(ctx, s.keyPrefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read token: %w", err)
	}

	var entry models.CachedToken
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached token: %w", err)
	}
	return &entry, true, nil
}

// Set implements ports.TokenStore. Entries already past expiry are not written.
func (s *TokenStore) Set(ctx context.Context, key string, entry *models.CachedToken) error {
	ttl := entry.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return s.client.Del(ctx, s.keyPrefix+key).Err()
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	if err := s.client.Set(ctx, s.keyPrefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write token: %w", err)
	}
	return nil
}
