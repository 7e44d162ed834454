package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	alerts "envmonitor-cloud/internal/alerts/domain"
	sensors "envmonitor-cloud/internal/sensors/domain"
)

const defaultAlertStatesTable = "sensor_alerts"

// StateRepository stores the last dispatched alert per sensor kind.
type StateRepository struct {
	db    *sql.DB
	table string
}

// NewStateRepository constructs a repository.
func NewStateRepository(db *sql.DB) *StateRepository {
	return &StateRepository{db: db, table: defaultAlertStatesTable}
}

// Get fetches the alert state for a sensor kind, nil when absent.
func (r *StateRepository) Get(ctx context.Context, kind sensors.SensorKind) (*alerts.AlertState, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("alert state repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT sensor_name, last_alert, last_value, message
FROM %s
WHERE sensor_name = $1`, r.table)
	row := r.db.QueryRowContext(ctx, query, string(kind))

	var state alerts.AlertState
	var name string
	if err := row.Scan(&name, &state.LastAlert, &state.LastValue, &state.Message); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	state.SensorName = sensors.SensorKind(name)
	state.LastAlert = state.LastAlert.UTC()
	return &state, nil
}

// Upsert inserts or overwrites the alert state row for its sensor kind.
// The conflict clause keeps the write atomic under concurrent ingestion.
func (r *StateRepository) Upsert(ctx context.Context, state *alerts.AlertState) error {
	if r == nil || r.db == nil {
		return errors.New("alert state repo: nil db")
	}
	if state == nil {
		return errors.New("alert state repo: nil state")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (sensor_name, last_alert, last_value, message)
VALUES ($1, $2, $3, $4)
ON CONFLICT (sensor_name)
DO UPDATE SET
	last_alert = EXCLUDED.last_alert,
	last_value = EXCLUDED.last_value,
	message = EXCLUDED.message`, r.table)
	_, err := r.db.ExecContext(ctx, query,
		string(state.SensorName),
		state.LastAlert,
		state.LastValue,
		state.Message,
	)
	return err
}
