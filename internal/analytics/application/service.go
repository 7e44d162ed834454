package application

import (
	"context"
	"errors"
	"time"

	analytics "envmonitor-cloud/internal/analytics/domain"
	sensors "envmonitor-cloud/internal/sensors/domain"
)

// Clock provides time.
type Clock interface {
	Now() time.Time
}

// TrendView is the 96-slot time-of-day view for one sensor. Slots without
// readings hold nil in both value arrays; the arrays are always exactly
// SlotCount long and positionally aligned with Timestamps.
type TrendView struct {
	Timestamps []string   `json:"timestamps"`
	Today      []*float64 `json:"today"`
	Historical []*float64 `json:"historical"`
}

// DailySummary aggregates today's readings for one sensor. All fields are
// nil when no readings exist today.
type DailySummary struct {
	Min *float64 `json:"min"`
	Max *float64 `json:"max"`
	Avg *float64 `json:"avg"`
}

// Service computes dashboard aggregates from the reading store.
type Service struct {
	query sensors.ReadingQuery
	loc   *time.Location
	clock Clock
}

// ServiceOption customizes the analytics service.
type ServiceOption func(*Service)

// WithClock assigns a clock.
func WithClock(clock Clock) ServiceOption {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewService constructs an analytics service.
func NewService(query sensors.ReadingQuery, loc *time.Location, opts ...ServiceOption) (*Service, error) {
	if query == nil {
		return nil, errors.New("analytics: nil reading query")
	}
	if loc == nil {
		return nil, errors.New("analytics: nil location")
	}
	service := &Service{
		query: query,
		loc:   loc,
		clock: systemClock{},
	}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// Trend builds the 96-slot view for a sensor. The historical series is the
// per-slot mean over readings from days strictly before today; readings
// from the current day contribute only to the today series, which carries
// the most recent value per slot.
func (s *Service) Trend(ctx context.Context, kind sensors.SensorKind) (*TrendView, error) {
	if s == nil {
		return nil, errors.New("analytics: nil service")
	}
	dayStart, dayEnd := analytics.DayBounds(s.clock.Now(), s.loc)

	prior, err := s.query.QueryBefore(ctx, kind, dayStart)
	if err != nil {
		return nil, err
	}
	sums := make([]float64, analytics.SlotCount)
	counts := make([]int, analytics.SlotCount)
	for _, reading := range prior {
		slot := analytics.SlotOf(reading.TS, s.loc)
		sums[slot] += reading.Value
		counts[slot]++
	}
	historical := make([]*float64, analytics.SlotCount)
	for slot := range historical {
		if counts[slot] == 0 {
			continue
		}
		mean := sums[slot] / float64(counts[slot])
		historical[slot] = &mean
	}

	todayReadings, err := s.query.QueryRange(ctx, kind, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	today := make([]*float64, analytics.SlotCount)
	latestTS := make([]time.Time, analytics.SlotCount)
	for _, reading := range todayReadings {
		slot := analytics.SlotOf(reading.TS, s.loc)
		if today[slot] != nil && !reading.TS.After(latestTS[slot]) {
			continue
		}
		value := reading.Value
		today[slot] = &value
		latestTS[slot] = reading.TS
	}

	return &TrendView{
		Timestamps: analytics.SlotLabels(),
		Today:      today,
		Historical: historical,
	}, nil
}

// DailySummary computes min/max/avg over today's readings for a sensor.
func (s *Service) DailySummary(ctx context.Context, kind sensors.SensorKind) (*DailySummary, error) {
	if s == nil {
		return nil, errors.New("analytics: nil service")
	}
	dayStart, dayEnd := analytics.DayBounds(s.clock.Now(), s.loc)
	readings, err := s.query.QueryRange(ctx, kind, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	if len(readings) == 0 {
		return &DailySummary{}, nil
	}

	min := readings[0].Value
	max := readings[0].Value
	sum := 0.0
	for _, reading := range readings {
		if reading.Value < min {
			min = reading.Value
		}
		if reading.Value > max {
			max = reading.Value
		}
		sum += reading.Value
	}
	avg := sum / float64(len(readings))
	return &DailySummary{Min: &min, Max: &max, Avg: &avg}, nil
}

// Latest returns the most recent value per sensor kind, nil entries for
// sensors that never reported.
func (s *Service) Latest(ctx context.Context) (map[string]*float64, error) {
	if s == nil {
		return nil, errors.New("analytics: nil service")
	}
	out := make(map[string]*float64, len(sensors.Kinds()))
	for _, kind := range sensors.Kinds() {
		reading, err := s.query.Latest(ctx, kind)
		if err != nil {
			return nil, err
		}
		if reading == nil {
			out[string(kind)] = nil
			continue
		}
		value := reading.Value
		out[string(kind)] = &value
	}
	return out, nil
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }
