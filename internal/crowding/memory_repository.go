package crowding

import (
	"context"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository. It backs
// tests and local development; deployments with a shared click log use
// PostgresRepository.
type InMemoryRepository struct {
	mu        sync.RWMutex
	clicks    []ClickEvent
	snapshots map[string]Snapshot
}

// NewInMemoryRepository creates a new in-memory click log repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		snapshots: make(map[string]Snapshot),
	}
}

// LoadClicks returns a copy of all persisted click events.
func (r *InMemoryRepository) LoadClicks(_ context.Context) ([]ClickEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cpy := make([]ClickEvent, len(r.clicks))
	copy(cpy, r.clicks)
	return cpy, nil
}

// SaveClicks replaces the persisted click log.
func (r *InMemoryRepository) SaveClicks(_ context.Context, events []ClickEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cpy := make([]ClickEvent, len(events))
	copy(cpy, events)
	r.clicks = cpy
	return nil
}

// AppendClick appends one click and drops that shelter's expired events
// under a single lock acquisition, mirroring the transactional append in
// PostgresRepository.
func (r *InMemoryRepository) AppendClick(_ context.Context, event ClickEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := event.Timestamp - RetentionMillis
	live := r.clicks[:0:0]
	for _, e := range r.clicks {
		if e.ShelterID == event.ShelterID && e.Timestamp <= cutoff {
			continue
		}
		live = append(live, e)
	}
	r.clicks = append(live, event)
	return nil
}

// SaveSnapshots stores the advisory snapshot cache.
func (r *InMemoryRepository) SaveSnapshots(_ context.Context, snapshots map[string]Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cpy := make(map[string]Snapshot, len(snapshots))
	for k, v := range snapshots {
		cpy[k] = v
	}
	r.snapshots = cpy
	return nil
}

// Ensure InMemoryRepository implements Repository interface.
var (
	_ Repository    = (*InMemoryRepository)(nil)
	_ ClickAppender = (*InMemoryRepository)(nil)
)
