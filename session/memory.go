package session

import (
	"context"
	"sync"
)

// MemoryStore keeps the pair in process memory. Nothing survives a restart.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string, 2)}
}

// Save implements Store.
func (s *MemoryStore) Save(ctx context.Context, pair Pair) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[KeyAccessToken] = pair.AccessToken
	s.values[KeyRefreshToken] = pair.RefreshToken
	return nil
}

// Load implements Store.
func (s *MemoryStore) Load(ctx context.Context) (Pair, error) {
	if err := ctx.Err(); err != nil {
		return Pair{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Pair{
		AccessToken:  s.values[KeyAccessToken],
		RefreshToken: s.values[KeyRefreshToken],
	}, nil
}

// Clear implements Store.
func (s *MemoryStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, KeyAccessToken)
	delete(s.values, KeyRefreshToken)
	return nil
}
