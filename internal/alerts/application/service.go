package application

import (
	"context"
	"errors"
	"time"

	alerts "envmonitor-cloud/internal/alerts/domain"
	"envmonitor-cloud/internal/observability/metrics"
	sensors "envmonitor-cloud/internal/sensors/domain"
)

// Clock provides time.
type Clock interface {
	Now() time.Time
}

// AlertEvent describes a dispatched alert.
type AlertEvent struct {
	Sensor  string    `json:"sensor"`
	Value   float64   `json:"value"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// AlertNotifier delivers dispatched alerts. Implementations must be
// best-effort: delivery failure never propagates to the caller.
type AlertNotifier interface {
	Notify(ctx context.Context, event AlertEvent)
}

// Service evaluates readings against thresholds and enforces the per-sensor
// alert cooldown.
type Service struct {
	rules    alerts.RuleSet
	states   alerts.StateRepository
	notifier AlertNotifier
	clock    Clock
}

// ServiceOption customizes the alert service.
type ServiceOption func(*Service)

// WithNotifier assigns a notifier.
func WithNotifier(notifier AlertNotifier) ServiceOption {
	return func(s *Service) {
		s.notifier = notifier
	}
}

// WithClock assigns a clock.
func WithClock(clock Clock) ServiceOption {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewService constructs an alert service.
func NewService(rules alerts.RuleSet, states alerts.StateRepository, opts ...ServiceOption) (*Service, error) {
	if states == nil {
		return nil, errors.New("alerts: nil state repository")
	}
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	service := &Service{
		rules:  rules,
		states: states,
		clock:  systemClock{},
	}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// Rules returns the immutable rule set the service evaluates against.
func (s *Service) Rules() alerts.RuleSet {
	return s.rules
}

// ShouldAlert reports whether a triggered alert for the sensor may be
// dispatched: true when no alert was ever sent, or when the configured
// cooldown has elapsed since the last one.
func (s *Service) ShouldAlert(ctx context.Context, kind sensors.SensorKind) (bool, error) {
	if s == nil {
		return false, errors.New("alerts: nil service")
	}
	state, err := s.states.Get(ctx, kind)
	if err != nil {
		return false, err
	}
	if state == nil || state.LastAlert.IsZero() {
		return true, nil
	}
	cooldown, ok := s.rules.CooldownFor(kind)
	if !ok {
		return true, nil
	}
	return s.clock.Now().UTC().Sub(state.LastAlert) >= cooldown, nil
}

// Register overwrites the alert state row for the sensor. This is the only
// mutation of alert state; the repository upsert resolves concurrent writers.
func (s *Service) Register(ctx context.Context, kind sensors.SensorKind, value float64, message string) error {
	if s == nil {
		return errors.New("alerts: nil service")
	}
	return s.states.Upsert(ctx, &alerts.AlertState{
		SensorName: kind,
		LastAlert:  s.clock.Now().UTC(),
		LastValue:  value,
		Message:    message,
	})
}

// Process runs the full alert pipeline for one reading: evaluate, check the
// cooldown, notify, and register. It returns true when an alert was
// dispatched. Storage errors propagate; notifier failures do not.
func (s *Service) Process(ctx context.Context, kind sensors.SensorKind, value float64) (bool, error) {
	if s == nil {
		return false, errors.New("alerts: nil service")
	}
	message, triggered := alerts.Evaluate(s.rules, kind, value)
	if !triggered {
		return false, nil
	}
	allowed, err := s.ShouldAlert(ctx, kind)
	if err != nil {
		return false, err
	}
	if !allowed {
		return false, nil
	}
	s.notify(ctx, AlertEvent{
		Sensor:  string(kind),
		Value:   value,
		Message: message,
		At:      s.clock.Now().UTC(),
	})
	if err := s.Register(ctx, kind, value, message); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) notify(ctx context.Context, event AlertEvent) {
	metrics.IncAlertEvent(event.Sensor)
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, event)
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }
