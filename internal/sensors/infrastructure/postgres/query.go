package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sensors "envmonitor-cloud/internal/sensors/domain"
)

// ReadingQuery is a Postgres query implementation for dashboard views.
type ReadingQuery struct {
	db    *sql.DB
	table string
}

// QueryOption configures the reading query.
type QueryOption func(*ReadingQuery)

// WithQueryTable overrides the default table name for queries.
func WithQueryTable(table string) QueryOption {
	return func(query *ReadingQuery) {
		if query != nil && table != "" {
			query.table = table
		}
	}
}

// NewReadingQuery constructs a query with default table name.
func NewReadingQuery(db *sql.DB, opts ...QueryOption) *ReadingQuery {
	query := &ReadingQuery{db: db, table: defaultReadingsTable}
	for _, opt := range opts {
		opt(query)
	}
	return query
}

// Latest returns the most recent reading for a sensor, nil when none exist.
func (q *ReadingQuery) Latest(ctx context.Context, kind sensors.SensorKind) (*sensors.Reading, error) {
	if q == nil || q.db == nil {
		return nil, errors.New("reading query: nil db")
	}
	query := fmt.Sprintf(`
SELECT sensor_name, value, timestamp, device_id
FROM %s
WHERE sensor_name = $1
ORDER BY timestamp DESC
LIMIT 1`, q.table)

	row := q.db.QueryRowContext(ctx, query, string(kind))
	reading, err := scanReading(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return reading, nil
}

// QueryRange returns readings with start <= timestamp < end, ascending.
func (q *ReadingQuery) QueryRange(ctx context.Context, kind sensors.SensorKind, start, end time.Time) ([]sensors.Reading, error) {
	if q == nil || q.db == nil {
		return nil, errors.New("reading query: nil db")
	}
	if start.IsZero() || end.IsZero() {
		return nil, errors.New("reading query: invalid range")
	}
	query := fmt.Sprintf(`
SELECT sensor_name, value, timestamp, device_id
FROM %s
WHERE sensor_name = $1 AND timestamp >= $2 AND timestamp < $3
ORDER BY timestamp ASC`, q.table)

	return q.queryReadings(ctx, query, string(kind), start, end)
}

// QueryBefore returns readings with timestamp < before, ascending.
func (q *ReadingQuery) QueryBefore(ctx context.Context, kind sensors.SensorKind, before time.Time) ([]sensors.Reading, error) {
	if q == nil || q.db == nil {
		return nil, errors.New("reading query: nil db")
	}
	if before.IsZero() {
		return nil, errors.New("reading query: invalid bound")
	}
	query := fmt.Sprintf(`
SELECT sensor_name, value, timestamp, device_id
FROM %s
WHERE sensor_name = $1 AND timestamp < $2
ORDER BY timestamp ASC`, q.table)

	return q.queryReadings(ctx, query, string(kind), before)
}

func (q *ReadingQuery) queryReadings(ctx context.Context, query string, args ...any) ([]sensors.Reading, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var readings []sensors.Reading
	for rows.Next() {
		reading, err := scanReading(rows)
		if err != nil {
			return nil, err
		}
		readings = append(readings, *reading)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return readings, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReading(row rowScanner) (*sensors.Reading, error) {
	var reading sensors.Reading
	var name string
	var deviceID sql.NullString
	if err := row.Scan(&name, &reading.Value, &reading.TS, &deviceID); err != nil {
		return nil, err
	}
	reading.SensorName = sensors.SensorKind(name)
	reading.TS = reading.TS.UTC()
	if deviceID.Valid {
		reading.DeviceID = deviceID.String
	}
	return &reading, nil
}
