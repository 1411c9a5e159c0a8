// Package crowding estimates shelter busyness from recent click activity.
// Clicks are the crowding signal: every card click, detail view, or route
// request against a shelter is recorded, and the trailing hour of clicks is
// classified into a three-level ordinal estimate.
package crowding

import "errors"

// Sentinel errors for crowding operations.
var (
	// ErrStorageUnavailable indicates the click log backend could not be
	// read or written. Store operations recover from it locally; it never
	// reaches API callers.
	ErrStorageUnavailable = errors.New("click log storage unavailable")
)

// RetentionMillis is the click retention window. Clicks older than one hour
// carry no crowding signal and are evicted on write, filtered on read.
const RetentionMillis = 60 * 60 * 1000

// ClickEvent is a single recorded user interaction with a shelter.
// Events are append-only and never mutated.
type ClickEvent struct {
	ShelterID string `json:"shelterId"`
	Timestamp int64  `json:"timestamp"` // unix milliseconds
}

// Level is an ordinal crowding estimate. Levels are ordered so they can be
// used directly as sort keys: LevelRelaxed < LevelNormal < LevelBusy.
type Level int

const (
	LevelRelaxed Level = iota
	LevelNormal
	LevelBusy
)

// String returns the wire/log identifier for the level.
func (l Level) String() string {
	switch l {
	case LevelBusy:
		return "BUSY"
	case LevelNormal:
		return "NORMAL"
	default:
		return "RELAXED"
	}
}

// ParseLevel parses a wire identifier as produced by String. The second
// return value is false for unknown identifiers.
func ParseLevel(s string) (Level, bool) {
	switch s {
	case "RELAXED":
		return LevelRelaxed, true
	case "NORMAL":
		return LevelNormal, true
	case "BUSY":
		return LevelBusy, true
	default:
		return LevelRelaxed, false
	}
}

// Label returns the Korean display label for the level.
func (l Level) Label() string {
	switch l {
	case LevelBusy:
		return "혼잡"
	case LevelNormal:
		return "보통"
	default:
		return "여유"
	}
}

// Snapshot is a derived per-shelter crowding view, recomputed on demand from
// the click log. It is never authoritative; the click log is the source of
// truth and any persisted snapshot is purely advisory.
type Snapshot struct {
	ShelterID    string `json:"shelterId"`
	HourlyClicks int    `json:"hourlyClicks"`
	Level        Level  `json:"level"`
	ComputedAt   int64  `json:"computedAt"` // unix milliseconds
}

// Statistics summarizes the live click log across all shelters.
type Statistics struct {
	TotalClicks    int           `json:"totalClicks"`
	ActiveShelters int           `json:"activeShelters"`
	LevelCounts    map[Level]int `json:"levelCounts"`
}
