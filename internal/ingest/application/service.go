package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	alertapp "envmonitor-cloud/internal/alerts/application"
	sensors "envmonitor-cloud/internal/sensors/domain"
)

// Clock provides time.
type Clock interface {
	Now() time.Time
}

// Batch is one ingestion request from a single device. Nil fields were not
// reported and produce no reading.
type Batch struct {
	DeviceID    string
	MQ2         *float64
	MQ135       *float64
	Humidity    *float64
	PMDust      *float64
	Pressure    *float64
	Temperature *float64
	Altitude    *float64
}

type batchField struct {
	kind  sensors.SensorKind
	value *float64
}

func (b Batch) fields() []batchField {
	return []batchField{
		{sensors.SensorMQ2, b.MQ2},
		{sensors.SensorMQ135, b.MQ135},
		{sensors.SensorHumidity, b.Humidity},
		{sensors.SensorPMDust, b.PMDust},
		{sensors.SensorPressure, b.Pressure},
		{sensors.SensorTemperature, b.Temperature},
		{sensors.SensorAltitude, b.Altitude},
	}
}

// Service orchestrates ingestion: alert pipeline per sensor, then one
// transactional write for the whole request.
type Service struct {
	readings sensors.ReadingRepository
	alerts   *alertapp.Service
	loc      *time.Location
	clock    Clock
	logger   *log.Logger
}

// ServiceOption customizes the ingest service.
type ServiceOption func(*Service)

// WithClock assigns a clock.
func WithClock(clock Clock) ServiceOption {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewService constructs an ingest service.
func NewService(readings sensors.ReadingRepository, alerts *alertapp.Service, loc *time.Location, logger *log.Logger, opts ...ServiceOption) (*Service, error) {
	if readings == nil {
		return nil, errors.New("ingest: nil reading repository")
	}
	if alerts == nil {
		return nil, errors.New("ingest: nil alert service")
	}
	if loc == nil {
		return nil, errors.New("ingest: nil location")
	}
	if logger == nil {
		logger = log.Default()
	}
	service := &Service{
		readings: readings,
		alerts:   alerts,
		loc:      loc,
		clock:    systemClock{},
		logger:   logger,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// IngestReading stores a single reading, running the alert pipeline first.
// A zero ts means "now".
func (s *Service) IngestReading(ctx context.Context, kind sensors.SensorKind, value float64, ts time.Time, deviceID string) (time.Time, error) {
	if s == nil {
		return time.Time{}, errors.New("ingest: nil service")
	}
	if !kind.Valid() {
		return time.Time{}, fmt.Errorf("ingest: unknown sensor %q", kind)
	}
	if ts.IsZero() {
		ts = s.clock.Now().In(s.loc)
	}
	if dispatched, err := s.alerts.Process(ctx, kind, value); err != nil {
		return time.Time{}, err
	} else if dispatched {
		s.logger.Printf("alert dispatched: sensor=%s value=%v", kind, value)
	}
	err := s.readings.InsertReadings(ctx, []sensors.Reading{{
		SensorName: kind,
		Value:      value,
		TS:         ts,
		DeviceID:   deviceID,
	}})
	if err != nil {
		return time.Time{}, err
	}
	return ts, nil
}

// IngestBatch processes one batch record: for each present sensor value the
// alert pipeline runs, then all readings are inserted in one transaction
// sharing a single ingestion timestamp. The reading count is returned.
func (s *Service) IngestBatch(ctx context.Context, batch Batch) (time.Time, int, error) {
	if s == nil {
		return time.Time{}, 0, errors.New("ingest: nil service")
	}
	ts := s.clock.Now().In(s.loc)

	var readings []sensors.Reading
	for _, field := range batch.fields() {
		if field.value == nil {
			continue
		}
		value := *field.value
		dispatched, err := s.alerts.Process(ctx, field.kind, value)
		if err != nil {
			return time.Time{}, 0, err
		}
		if dispatched {
			s.logger.Printf("alert dispatched: sensor=%s value=%v device=%s", field.kind, value, batch.DeviceID)
		}
		readings = append(readings, sensors.Reading{
			SensorName: field.kind,
			Value:      value,
			TS:         ts,
			DeviceID:   batch.DeviceID,
		})
	}

	if err := s.readings.InsertReadings(ctx, readings); err != nil {
		return time.Time{}, 0, err
	}
	return ts, len(readings), nil
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }
