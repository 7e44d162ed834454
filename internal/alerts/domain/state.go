package alerts

import (
	"context"
	"time"

	sensors "envmonitor-cloud/internal/sensors/domain"
)

// AlertState records the last dispatched alert for a sensor kind. At most
// one row exists per kind; every dispatch overwrites it.
type AlertState struct {
	SensorName sensors.SensorKind
	LastAlert  time.Time
	LastValue  float64
	Message    string
}

// StateRepository persists alert state rows.
type StateRepository interface {
	// Get loads the state for a sensor kind, nil when no alert was ever sent.
	Get(ctx context.Context, kind sensors.SensorKind) (*AlertState, error)
	// Upsert atomically inserts or overwrites the state row for its kind.
	Upsert(ctx context.Context, state *AlertState) error
}
