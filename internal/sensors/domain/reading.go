package sensors

import (
	"context"
	"time"
)

// SensorKind identifies one of the fixed measurement channels.
type SensorKind string

const (
	SensorMQ2         SensorKind = "MQ2"
	SensorMQ135       SensorKind = "MQ135"
	SensorHumidity    SensorKind = "Humidity"
	SensorPMDust      SensorKind = "PM_Dust"
	SensorPressure    SensorKind = "BMP_Pressure"
	SensorTemperature SensorKind = "BMP_Temperature"
	SensorAltitude    SensorKind = "BMP_Altitude"
)

// Kinds returns all sensor kinds in display order.
func Kinds() []SensorKind {
	return []SensorKind{
		SensorMQ2,
		SensorMQ135,
		SensorHumidity,
		SensorPMDust,
		SensorPressure,
		SensorTemperature,
		SensorAltitude,
	}
}

// Valid returns true when the kind is a known sensor.
func (k SensorKind) Valid() bool {
	switch k {
	case SensorMQ2, SensorMQ135, SensorHumidity, SensorPMDust,
		SensorPressure, SensorTemperature, SensorAltitude:
		return true
	default:
		return false
	}
}

// Reading is a single stored sensor value. Readings are append-only.
type Reading struct {
	SensorName SensorKind
	Value      float64
	TS         time.Time
	DeviceID   string
}

// ReadingRepository persists sensor readings.
type ReadingRepository interface {
	InsertReadings(ctx context.Context, readings []Reading) error
}

// ReadingQuery loads sensor readings for dashboard views.
type ReadingQuery interface {
	// Latest returns the most recent reading for a sensor, nil when none exist.
	Latest(ctx context.Context, kind SensorKind) (*Reading, error)
	// QueryRange returns readings with start <= ts < end, ascending by time.
	QueryRange(ctx context.Context, kind SensorKind, start, end time.Time) ([]Reading, error)
	// QueryBefore returns readings with ts < before, ascending by time.
	QueryBefore(ctx context.Context, kind SensorKind, before time.Time) ([]Reading, error)
}
