package alerts

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	sensors "envmonitor-cloud/internal/sensors/domain"
)

// ThresholdRule defines per-sensor alert bounds. Nil bounds are not
// evaluated. SecondaryLow is the trigger bound of the low-pressure band;
// SecondaryHigh is its clear bound, kept for configuration fidelity but not
// consulted during evaluation.
type ThresholdRule struct {
	High          *float64
	Low           *float64
	SecondaryLow  *float64
	SecondaryHigh *float64
	Cooldown      time.Duration
}

// Validate checks rule invariants.
func (r ThresholdRule) Validate() error {
	if r.Cooldown <= 0 {
		return errors.New("threshold rule: cooldown must be positive")
	}
	if r.High != nil && r.Low != nil && *r.Low > *r.High {
		return errors.New("threshold rule: low bound above high bound")
	}
	return nil
}

// RuleSet maps sensor kinds to their threshold rules. Built once at startup
// and treated as immutable afterwards.
type RuleSet map[sensors.SensorKind]ThresholdRule

// Validate checks every rule in the set.
func (rs RuleSet) Validate() error {
	for kind, rule := range rs {
		if !kind.Valid() {
			return fmt.Errorf("rule set: unknown sensor %q", kind)
		}
		if err := rule.Validate(); err != nil {
			return fmt.Errorf("rule set: sensor %s: %w", kind, err)
		}
	}
	return nil
}

// CooldownFor returns the cooldown for a sensor kind, false when no rule exists.
func (rs RuleSet) CooldownFor(kind sensors.SensorKind) (time.Duration, bool) {
	rule, ok := rs[kind]
	if !ok {
		return 0, false
	}
	return rule.Cooldown, true
}

// DefaultRules returns the built-in threshold configuration. BMP_Altitude
// carries no rule and never alerts.
func DefaultRules() RuleSet {
	return RuleSet{
		sensors.SensorMQ2:      {High: floatPtr(40), Low: floatPtr(35), Cooldown: 30 * time.Minute},
		sensors.SensorMQ135:    {High: floatPtr(30), Low: floatPtr(25), Cooldown: 30 * time.Minute},
		sensors.SensorHumidity: {High: floatPtr(90), Low: floatPtr(85), Cooldown: 60 * time.Minute},
		sensors.SensorPMDust:   {High: floatPtr(0.5), Low: floatPtr(0.4), Cooldown: 15 * time.Minute},
		sensors.SensorPressure: {
			High:          floatPtr(1030),
			Low:           floatPtr(1020),
			SecondaryLow:  floatPtr(900),
			SecondaryHigh: floatPtr(910),
			Cooldown:      60 * time.Minute,
		},
		sensors.SensorTemperature: {High: floatPtr(32), Low: floatPtr(30), Cooldown: 30 * time.Minute},
	}
}

// Evaluate maps a sensor value to an alert message. It is a pure function:
// no side effects, deterministic for a given rule set.
//
// A value below the generic low bound returns no alert and also stops the
// secondary band check. This mirrors the behavior of the deployed system;
// see the tests before changing it.
func Evaluate(rules RuleSet, kind sensors.SensorKind, value float64) (string, bool) {
	rule, ok := rules[kind]
	if !ok {
		return "", false
	}
	if rule.High != nil && value > *rule.High {
		return fmt.Sprintf("%s ALERT: Value %s above safe limit!", kind, FormatValue(value)), true
	}
	if rule.Low != nil && value < *rule.Low {
		return "", false
	}
	if rule.SecondaryLow != nil && value < *rule.SecondaryLow {
		return fmt.Sprintf("LOW PRESSURE ALERT: %s hPa!", FormatValue(value)), true
	}
	return "", false
}

// FormatValue renders a sensor value for alert messages.
func FormatValue(value float64) string {
	return strconv.FormatFloat(value, 'g', -1, 64)
}

func floatPtr(value float64) *float64 {
	return &value
}
