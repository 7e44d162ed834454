package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sensors "envmonitor-cloud/internal/sensors/domain"
)

const defaultReadingsTable = "sensor_readings"

// ReadingRepository is a Postgres implementation for sensor readings.
type ReadingRepository struct {
	db    *sql.DB
	table string
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

// NewReadingRepository constructs a repository with default table name.
func NewReadingRepository(db *sql.DB, opts ...RepositoryOption) *ReadingRepository {
	repo := &ReadingRepository{db: db, table: defaultReadingsTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// InsertReadings appends readings inside one transaction. A batch either
// commits whole or not at all.
func (r *ReadingRepository) InsertReadings(ctx context.Context, readings []sensors.Reading) error {
	if r == nil || r.db == nil {
		return errors.New("reading repo: nil db")
	}
	if len(readings) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
INSERT INTO %s (sensor_name, value, timestamp, device_id)
VALUES ($1, $2, $3, $4)`, r.table)

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

	for _, reading := range readings {
		if !reading.SensorName.Valid() || reading.TS.IsZero() {
			_ = tx.Rollback()
			return errors.New("reading repo: invalid reading")
		}
		if _, err := stmt.ExecContext(
			ctx,
			string(reading.SensorName),
			reading.Value,
			reading.TS,
			reading.DeviceID,
		); err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}
