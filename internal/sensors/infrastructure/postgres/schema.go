package postgres

import (
	"context"
	"database/sql"
	"errors"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS sensor_readings (
	id          BIGSERIAL PRIMARY KEY,
	sensor_name TEXT NOT NULL,
	value       DOUBLE PRECISION NOT NULL,
	timestamp   TIMESTAMPTZ NOT NULL,
	device_id   TEXT
)`,
	`CREATE INDEX IF NOT EXISTS idx_sensor_readings_name_ts
	ON sensor_readings (sensor_name, timestamp DESC)`,
	`CREATE TABLE IF NOT EXISTS sensor_alerts (
	sensor_name TEXT PRIMARY KEY,
	last_alert  TIMESTAMPTZ NOT NULL,
	last_value  DOUBLE PRECISION NOT NULL,
	message     TEXT NOT NULL
)`,
}

// EnsureSchema creates the readings and alert state tables when absent.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("schema: nil db")
	}
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
