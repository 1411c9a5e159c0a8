package crowding

import "context"

// Repository persists the click log. The log is a single logical sequence of
// events under a well-known key; implementations must round-trip timestamps
// (integer milliseconds) and shelter identifiers losslessly.
type Repository interface {
	// LoadClicks returns all persisted click events, including any that have
	// expired but not yet been compacted away. Callers filter by window.
	LoadClicks(ctx context.Context) ([]ClickEvent, error)

	// SaveClicks replaces the persisted click log with the given events.
	// Implementations serving multiple writers must make the surrounding
	// append-and-compact atomic per shelter to avoid lost updates.
	SaveClicks(ctx context.Context, events []ClickEvent) error

	// SaveSnapshots persists derived snapshots as an advisory read-through
	// cache. The click log remains the only source of truth; implementations
	// may discard this data at any time and a no-op is a valid
	// implementation.
	SaveSnapshots(ctx context.Context, snapshots map[string]Snapshot) error
}

// ClickAppender is an optional Repository extension: appending one click and
// evicting that shelter's expired events as a single atomic operation.
// Multi-writer deployments need it; load-modify-save across two calls loses
// concurrent appends.
type ClickAppender interface {
	AppendClick(ctx context.Context, event ClickEvent) error
}
