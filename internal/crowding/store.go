package crowding

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// StoreConfig holds configuration for the crowding store.
type StoreConfig struct {
	// Repository is the click log backend.
	Repository Repository

	// Logger for store operations.
	Logger zerolog.Logger

	// CacheSnapshots enables writing the advisory snapshot cache after each
	// recorded click. Off by default; the cache is debug output only.
	CacheSnapshots bool
}

// Store owns the click log and the crowding snapshots derived from it. All
// mutation goes through RecordClick; classifier, ranker, and API callers
// only ever read. Query time is an explicit parameter throughout so window
// behavior is deterministic and testable without a mocked clock.
//
// Storage failures never surface: reads degrade to empty results and writes
// to no-ops, because recording interest must never break the caller's flow.
type Store struct {
	repo           Repository
	logger         zerolog.Logger
	cacheSnapshots bool
}

// NewStore creates a new crowding store.
func NewStore(cfg StoreConfig) *Store {
	return &Store{
		repo:           cfg.Repository,
		logger:         cfg.Logger,
		cacheSnapshots: cfg.CacheSnapshots,
	}
}

// RecordClick appends a click for the shelter at the given time, evicts
// events that have fallen out of the retention window, and persists the
// compacted log. Persistence failures are logged and swallowed.
//
// Repositories implementing ClickAppender get the append-and-compact as one
// atomic operation, which concurrent writers sharing a log require. The
// load-append-save path remains for single-writer repositories.
func (s *Store) RecordClick(ctx context.Context, shelterID string, now time.Time) {
	nowMillis := now.UnixMilli()
	event := ClickEvent{ShelterID: shelterID, Timestamp: nowMillis}

	if appender, ok := s.repo.(ClickAppender); ok {
		if err := appender.AppendClick(ctx, event); err != nil {
			s.logger.Warn().Err(err).Str("shelter_id", shelterID).
				Msg("failed to append click")
			return
		}
	} else {
		events, err := s.repo.LoadClicks(ctx)
		if err != nil {
			s.logger.Warn().Err(err).Str("shelter_id", shelterID).
				Msg("click log unavailable, dropping click")
			return
		}

		events = append(events, event)
		events = liveEvents(events, nowMillis)

		if err := s.repo.SaveClicks(ctx, events); err != nil {
			s.logger.Warn().Err(err).Str("shelter_id", shelterID).
				Msg("failed to persist click log")
			return
		}
	}

	s.logger.Debug().
		Str("shelter_id", shelterID).
		Msg("click recorded")

	if s.cacheSnapshots {
		if err := s.repo.SaveSnapshots(ctx, s.AllSnapshots(ctx, now)); err != nil {
			s.logger.Debug().Err(err).Msg("failed to write advisory snapshot cache")
		}
	}
}

// HourlyClickCount returns the number of clicks for the shelter within the
// trailing hour from now. Read-only: it does not evict, but expired events
// are excluded from the count even if still present in storage.
func (s *Store) HourlyClickCount(ctx context.Context, shelterID string, now time.Time) int {
	nowMillis := now.UnixMilli()
	cutoff := nowMillis - RetentionMillis

	count := 0
	for _, e := range s.loadClicks(ctx) {
		if e.ShelterID == shelterID && e.Timestamp > cutoff {
			count++
		}
	}
	return count
}

// Snapshot returns the crowding snapshot for one shelter at the given time.
// Capacity, when known, is forwarded to the classifier as a normalization
// extension point.
func (s *Store) Snapshot(ctx context.Context, shelterID string, now time.Time, capacity *int) Snapshot {
	count := s.HourlyClickCount(ctx, shelterID, now)

	level := Classify(count)
	if capacity != nil {
		level = ClassifyWithCapacity(count, *capacity)
	}

	return Snapshot{
		ShelterID:    shelterID,
		HourlyClicks: count,
		Level:        level,
		ComputedAt:   now.UnixMilli(),
	}
}

// AllSnapshots returns snapshots for every shelter with at least one live
// click. Shelters without clicks are absent; callers treat absence as a
// relaxed, zero-click snapshot.
func (s *Store) AllSnapshots(ctx context.Context, now time.Time) map[string]Snapshot {
	nowMillis := now.UnixMilli()
	cutoff := nowMillis - RetentionMillis

	counts := make(map[string]int)
	for _, e := range s.loadClicks(ctx) {
		if e.Timestamp > cutoff {
			counts[e.ShelterID]++
		}
	}

	snapshots := make(map[string]Snapshot, len(counts))
	for shelterID, count := range counts {
		snapshots[shelterID] = Snapshot{
			ShelterID:    shelterID,
			HourlyClicks: count,
			Level:        Classify(count),
			ComputedAt:   nowMillis,
		}
	}
	return snapshots
}

// Statistics summarizes the live click log: total clicks, shelters with
// activity, and how many shelters sit at each crowding level.
func (s *Store) Statistics(ctx context.Context, now time.Time) Statistics {
	snapshots := s.AllSnapshots(ctx, now)

	stats := Statistics{
		ActiveShelters: len(snapshots),
		LevelCounts: map[Level]int{
			LevelRelaxed: 0,
			LevelNormal:  0,
			LevelBusy:    0,
		},
	}

	for _, snap := range snapshots {
		stats.TotalClicks += snap.HourlyClicks
		stats.LevelCounts[snap.Level]++
	}
	return stats
}

// Compact drops all expired events from the persisted log. RecordClick
// compacts on every write; Compact exists for the background worker to
// bound storage growth during idle periods.
func (s *Store) Compact(ctx context.Context, now time.Time) {
	events, err := s.repo.LoadClicks(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("click log unavailable, skipping compaction")
		return
	}

	live := liveEvents(events, now.UnixMilli())
	if len(live) == len(events) {
		return
	}

	if err := s.repo.SaveClicks(ctx, live); err != nil {
		s.logger.Warn().Err(err).Msg("failed to persist compacted click log")
		return
	}

	s.logger.Info().
		Int("evicted", len(events)-len(live)).
		Int("remaining", len(live)).
		Msg("click log compacted")
}

// Clear wipes the click log. Development and test use only.
func (s *Store) Clear(ctx context.Context) {
	if err := s.repo.SaveClicks(ctx, nil); err != nil {
		s.logger.Warn().Err(err).Msg("failed to clear click log")
	}
}

// loadClicks reads the persisted log, degrading to empty on storage errors.
func (s *Store) loadClicks(ctx context.Context) []ClickEvent {
	events, err := s.repo.LoadClicks(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("click log unavailable, treating as empty")
		return nil
	}
	return events
}

// liveEvents filters events to those still inside the retention window.
func liveEvents(events []ClickEvent, nowMillis int64) []ClickEvent {
	cutoff := nowMillis - RetentionMillis

	live := events[:0:0]
	for _, e := range events {
		if e.Timestamp > cutoff {
			live = append(live, e)
		}
	}
	return live
}
