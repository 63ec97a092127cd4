package storage

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore keeps the latest prediction snapshot per symbol in a map.
// Safe for concurrent use. Snapshots are one per symbol and tiny, so there
// is no TTL or cleanup; for multi-instance deployments use RedisStore.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string]Snapshot
}

// NewMemoryStore creates an empty in-memory snapshot store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		snapshots: make(map[string]Snapshot),
	}
}

// Put stores a snapshot, replacing any existing snapshot for the symbol.
func (s *MemoryStore) Put(ctx context.Context, snapshot Snapshot) error {
	if snapshot.Symbol == "" {
		return fmt.Errorf("snapshot symbol cannot be empty")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshots[snapshot.Symbol] = snapshot
	return nil
}

// GetLatest retrieves the most recent snapshot for a symbol. found is false
// when no snapshot exists.
func (s *MemoryStore) GetLatest(ctx context.Context, symbol string) (Snapshot, bool, error) {
	select {
	case <-ctx.Done():
		return Snapshot{}, false, ctx.Err()
	default:
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot, found := s.snapshots[symbol]
	return snapshot, found, nil
}

// Len returns the number of stored snapshots. Primarily for tests.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snapshots)
}
