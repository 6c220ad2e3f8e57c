package token

import (
	"context"
	"sync"

	"github.com/kevin07696/recharge-gateway/internal/domain/models"
)

// MemoryStore is the in-process token store. Nothing survives a restart.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]models.CachedToken
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]models.CachedToken)}
}

// Get implements ports.TokenStore
func (s *MemoryStore) Get(ctx context.Context, key string) (*models.CachedToken, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	return &entry, true, nil
}

// Set implements ports.TokenStore, overwriting any previous entry
func (s *MemoryStore) Set(ctx context.Context, key string, entry *models.CachedToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = *entry
	return nil
}
