package auth

import (
	"context"
	"time"

	"spendlog/internal/cache"
)

// RevocationStore remembers signed-out token ids until they would have
// expired anyway.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// MemoryRevocationStore keeps revocations in process memory. Suitable for a
// single server instance.
type MemoryRevocationStore struct {
	entries *cache.LRUCache[struct{}]
	now     func() time.Time
}

// NewMemoryRevocationStore returns an unbounded store. Register Cleaner()
// with a cache.Manager to drop entries once their tokens have expired.
func NewMemoryRevocationStore() *MemoryRevocationStore {
	return &MemoryRevocationStore{
		entries: cache.NewLRUCache[struct{}](0, time.Hour),
		now:     time.Now,
	}
}

func (s *MemoryRevocationStore) Revoke(_ context.Context, tokenID string, until time.Time) error {
	ttl := until.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	s.entries.SetWithTTL(tokenID, struct{}{}, ttl)
	return nil
}

func (s *MemoryRevocationStore) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	_, ok := s.entries.Get(tokenID)
	return ok, nil
}

// Cleaner exposes the backing cache for periodic expiry sweeps.
func (s *MemoryRevocationStore) Cleaner() cache.Cleaner {
	return s.entries
}
