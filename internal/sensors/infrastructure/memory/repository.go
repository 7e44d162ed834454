package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	sensors "envmonitor-cloud/internal/sensors/domain"
)

// ReadingStore is an in-memory reading store implementing both the
// repository and query interfaces. Used by service tests.
type ReadingStore struct {
	mu       sync.RWMutex
	readings []sensors.Reading
}

// NewReadingStore constructs an empty store.
func NewReadingStore() *ReadingStore {
	return &ReadingStore{}
}

// InsertReadings appends readings.
func (s *ReadingStore) InsertReadings(ctx context.Context, readings []sensors.Reading) error {
	_ = ctx
	s.mu.Lock()
	s.readings = append(s.readings, readings...)
	s.mu.Unlock()
	return nil
}

// Latest returns the most recent reading for a sensor, nil when none exist.
func (s *ReadingStore) Latest(ctx context.Context, kind sensors.SensorKind) (*sensors.Reading, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *sensors.Reading
	for i := range s.readings {
		reading := s.readings[i]
		if reading.SensorName != kind {
			continue
		}
		if latest == nil || reading.TS.After(latest.TS) {
			current := reading
			latest = &current
		}
	}
	return latest, nil
}

// QueryRange returns readings with start <= ts < end, ascending by time.
func (s *ReadingStore) QueryRange(ctx context.Context, kind sensors.SensorKind, start, end time.Time) ([]sensors.Reading, error) {
	_ = ctx
	return s.filter(func(r sensors.Reading) bool {
		return r.SensorName == kind && !r.TS.Before(start) && r.TS.Before(end)
	}), nil
}

// QueryBefore returns readings with ts < before, ascending by time.
func (s *ReadingStore) QueryBefore(ctx context.Context, kind sensors.SensorKind, before time.Time) ([]sensors.Reading, error) {
	_ = ctx
	return s.filter(func(r sensors.Reading) bool {
		return r.SensorName == kind && r.TS.Before(before)
	}), nil
}

// Count returns the number of stored readings for assertion convenience.
func (s *ReadingStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.readings)
}

func (s *ReadingStore) filter(keep func(sensors.Reading) bool) []sensors.Reading {
	s.mu.RLock()
	var matched []sensors.Reading
	for _, reading := range s.readings {
		if keep(reading) {
			matched = append(matched, reading)
		}
	}
	s.mu.RUnlock()
	sort.Slice(matched, func(i, j int) bool { return matched[i].TS.Before(matched[j].TS) })
	return matched
}
