package state

import (
	"context"
	"sync"
)

// MemoryRepository keeps the snapshot in process memory. It is the default
// adapter when no durable path is configured.
type MemoryRepository struct {
	mu       sync.RWMutex
	snapshot Snapshot
	present  bool
}

// NewMemoryRepository constructs an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// Load returns the stored snapshot or a not-found StateError.
func (r *MemoryRepository) Load(ctx context.Context) (Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.present {
		return Snapshot{}, notFoundError("state: no snapshot stored")
	}
	return r.snapshot.Clone(), nil
}

// Save stores a copy of the snapshot.
func (r *MemoryRepository) Save(ctx context.Context, snapshot Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshot = snapshot.Clone()
	r.present = true
	return nil
}

// Clear drops the stored snapshot.
func (r *MemoryRepository) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshot = Snapshot{}
	r.present = false
	return nil
}
