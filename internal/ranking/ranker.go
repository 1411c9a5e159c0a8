// Package ranking orders shelters by distance from a viewer location.
package ranking

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/shelterspot/shelterspot/internal/geo"
	"github.com/shelterspot/shelterspot/internal/shelter"
)

// DefaultBatchSize is how many shelters get their distance computed between
// snapshot publications.
const DefaultBatchSize = 50

// Entry is a shelter with its distance from the viewer.
type Entry struct {
	Shelter shelter.Shelter

	// Distance is the straight-line distance in kilometers. Nil when the
	// shelter's position is unknown.
	Distance *float64
}

// Rank sorts entries by ascending distance. Entries without a distance sort
// after all resolved ones, keeping their input order. The input slice is
// returned sorted in place.
func Rank(entries []Entry) []Entry {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].Distance, entries[j].Distance
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a < *b
		}
	})
	return entries
}

// RankerConfig holds configuration for the ranker.
type RankerConfig struct {
	// Catalog supplies the shelters to rank.
	Catalog *shelter.Catalog

	// Logger for ranker operations.
	Logger zerolog.Logger

	// BatchSize is how many distances to compute per published snapshot
	// (default: DefaultBatchSize).
	BatchSize int
}

// Ranker computes shelter distances in batches and publishes a sorted
// snapshot after each batch, so readers always see a complete, internally
// consistent ordering even while a recomputation is in flight.
type Ranker struct {
	catalog   *shelter.Catalog
	logger    zerolog.Logger
	batchSize int

	mu       sync.RWMutex
	snapshot []Entry
}

// NewRanker creates a new ranker.
func NewRanker(cfg RankerConfig) *Ranker {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &Ranker{
		catalog:   cfg.Catalog,
		logger:    cfg.Logger,
		batchSize: batchSize,
	}
}

// Recompute ranks the full catalog against the given origin. Distances are
// computed batch by batch; a sorted snapshot is published after every batch,
// with not-yet-computed entries sorting last. Returns the final ordering.
//
// Cancelling the context stops between batches; the last published snapshot
// stays available.
func (r *Ranker) Recompute(ctx context.Context, origin geo.Coordinate) []Entry {
	shelters := r.catalog.List()

	entries := make([]Entry, len(shelters))
	for i := range shelters {
		entries[i] = Entry{Shelter: shelters[i]}
	}

	for start := 0; start < len(entries); start += r.batchSize {
		if err := ctx.Err(); err != nil {
			r.logger.Debug().Err(err).
				Int("computed", start).
				Msg("ranking recomputation cancelled")
			return r.Snapshot()
		}

		end := start + r.batchSize
		if end > len(entries) {
			end = len(entries)
		}

		for i := start; i < end; i++ {
			coord := entries[i].Shelter.Coord
			if !knownPosition(coord) {
				continue
			}
			d := geo.Distance(origin, coord)
			entries[i].Distance = &d
		}

		r.publish(entries)
	}

	if len(entries) == 0 {
		r.publish(entries)
	}

	r.logger.Debug().
		Int("shelters", len(entries)).
		Float64("origin_lat", origin.Lat).
		Float64("origin_lon", origin.Lon).
		Msg("shelter ranking recomputed")

	return r.Snapshot()
}

// Snapshot returns the most recently published ordering. The returned slice
// is a copy.
func (r *Ranker) Snapshot() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cpy := make([]Entry, len(r.snapshot))
	copy(cpy, r.snapshot)
	return cpy
}

// publish sorts a copy of the working entries and swaps it in.
func (r *Ranker) publish(entries []Entry) {
	cpy := make([]Entry, len(entries))
	copy(cpy, entries)
	Rank(cpy)

	r.mu.Lock()
	r.snapshot = cpy
	r.mu.Unlock()
}

// knownPosition reports whether the coordinate is usable for ranking. The
// source dataset leaves missing positions at the zero value, which is open
// ocean and never a real shelter.
func knownPosition(c geo.Coordinate) bool {
	if c.Lat == 0 && c.Lon == 0 {
		return false
	}
	return c.Validate() == nil
}
