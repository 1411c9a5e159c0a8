package crowding

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository for
// deployments where multiple clients share one click log. AppendClick is
// the click write path: it appends and compacts per shelter in one
// transaction so concurrent writers cannot lose each other's appends.
// SaveClicks replaces the whole log and serves full-log compaction only.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL click log repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// LoadClicks returns all persisted click events, oldest first.
func (r *PostgresRepository) LoadClicks(ctx context.Context) ([]ClickEvent, error) {
	query := `
		SELECT shelter_id, clicked_at_ms
		FROM shelter_clicks
		ORDER BY clicked_at_ms ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("load clicks: %w", err)
	}
	defer rows.Close()

	var events []ClickEvent
	for rows.Next() {
		var e ClickEvent
		if err := rows.Scan(&e.ShelterID, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan click: %w", err)
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load clicks: %w", err)
	}

	return events, nil
}

// SaveClicks replaces the persisted click log with the given events in a
// single transaction.
func (r *PostgresRepository) SaveClicks(ctx context.Context, events []ClickEvent) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("begin save clicks: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM shelter_clicks`); err != nil {
		return fmt.Errorf("clear clicks: %w", err)
	}

	if len(events) > 0 {
		rows := make([][]interface{}, 0, len(events))
		for _, e := range events {
			rows = append(rows, []interface{}{e.ShelterID, e.Timestamp})
		}

		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"shelter_clicks"},
			[]string{"shelter_id", "clicked_at_ms"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return fmt.Errorf("insert clicks: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit clicks: %w", err)
	}

	return nil
}

// AppendClick appends a single click and deletes expired events for the same
// shelter in one transaction. This is the preferred write path for
// multi-writer deployments; SaveClicks exists for full-log compaction.
func (r *PostgresRepository) AppendClick(ctx context.Context, event ClickEvent) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin append click: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	insert := `INSERT INTO shelter_clicks (shelter_id, clicked_at_ms) VALUES ($1, $2)`
	if _, err := tx.Exec(ctx, insert, event.ShelterID, event.Timestamp); err != nil {
		return fmt.Errorf("insert click: %w", err)
	}

	compact := `DELETE FROM shelter_clicks WHERE shelter_id = $1 AND clicked_at_ms <= $2`
	if _, err := tx.Exec(ctx, compact, event.ShelterID, event.Timestamp-RetentionMillis); err != nil {
		return fmt.Errorf("compact clicks: %w", err)
	}

	return tx.Commit(ctx)
}

// SaveSnapshots upserts the advisory snapshot cache.
func (r *PostgresRepository) SaveSnapshots(ctx context.Context, snapshots map[string]Snapshot) error {
	query := `
		INSERT INTO crowding_snapshots (shelter_id, hourly_clicks, level, computed_at_ms)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (shelter_id) DO UPDATE SET
			hourly_clicks = EXCLUDED.hourly_clicks,
			level = EXCLUDED.level,
			computed_at_ms = EXCLUDED.computed_at_ms
	`

	for _, s := range snapshots {
		_, err := r.pool.Exec(ctx, query, s.ShelterID, s.HourlyClicks, s.Level.String(), s.ComputedAt)
		if err != nil {
			return fmt.Errorf("save snapshot %s: %w", s.ShelterID, err)
		}
	}

	return nil
}

// Ensure PostgresRepository implements Repository interface.
var (
	_ Repository    = (*PostgresRepository)(nil)
	_ ClickAppender = (*PostgresRepository)(nil)
)
