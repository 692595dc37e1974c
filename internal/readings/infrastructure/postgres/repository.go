package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	readings "meterdata-cloud/internal/readings/domain"
)

const defaultReadingsTable = "meter_readings"

// ReadingRepository is a Postgres implementation for interval readings.
type ReadingRepository struct {
	db    *sql.DB
	table string
}

// NewReadingRepository constructs a repository with the default table name.
func NewReadingRepository(db *sql.DB, opts ...RepositoryOption) *ReadingRepository {
	repo := &ReadingRepository{db: db, table: defaultReadingsTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// RepositoryOption configures the repository.
type RepositoryOption func(*ReadingRepository)

// WithTable overrides the default table name.
func WithTable(table string) RepositoryOption {
	return func(repo *ReadingRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// InsertReadings upserts a batch of interval readings. A re-sent feed replaces
// earlier values at the same slot.
func (r *ReadingRepository) InsertReadings(ctx context.Context, batch []readings.Reading) error {
	if r == nil || r.db == nil {
		return errors.New("readings repo: nil db")
	}
	if len(batch) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
	meter_number,
	kind,
	ts,
	value,
	unit
) VALUES (
	$1, $2, $3, $4, $5
)
ON CONFLICT (meter_number, kind, ts)
DO UPDATE SET
	value = EXCLUDED.value,
	unit = EXCLUDED.unit,
	updated_at = NOW()`, r.table)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, reading := range batch {
		if !reading.Valid() {
			_ = tx.Rollback()
			return errors.New("readings repo: invalid reading")
		}
		unit := sql.NullString{}
		if reading.Unit != "" {
			unit = sql.NullString{String: reading.Unit, Valid: true}
		}
		if _, err := stmt.ExecContext(
			ctx,
			reading.MeterNumber,
			string(reading.Kind),
			reading.TS,
			reading.Value,
			unit,
		); err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

// QueryRange loads a meter's readings of one kind within [start, end].
func (r *ReadingRepository) QueryRange(ctx context.Context, meterNumber string, kind readings.Kind, start, end time.Time) ([]readings.Reading, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("readings repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT meter_number, kind, ts, value, unit
FROM %s
WHERE meter_number = $1 AND kind = $2 AND ts >= $3 AND ts <= $4
ORDER BY ts ASC`, r.table)

	rows, err := r.db.QueryContext(ctx, query, meterNumber, string(kind), start, end)
	if err != nil {
		return nil, fmt.Errorf("readings repo: query: %w", err)
	}
	defer rows.Close()

	var out []readings.Reading
	for rows.Next() {
		var reading readings.Reading
		var unit sql.NullString
		if err := rows.Scan(&reading.MeterNumber, &reading.Kind, &reading.TS, &reading.Value, &unit); err != nil {
			return nil, fmt.Errorf("readings repo: scan: %w", err)
		}
		reading.Unit = unit.String
		reading.TS = reading.TS.UTC()
		out = append(out, reading)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("readings repo: query: %w", err)
	}
	return out, nil
}
