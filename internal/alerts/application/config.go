package application

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	alerts "envmonitor-cloud/internal/alerts/domain"
	sensors "envmonitor-cloud/internal/sensors/domain"
)

type ruleConfig struct {
	High          *float64 `yaml:"high"`
	Low           *float64 `yaml:"low"`
	SecondaryLow  *float64 `yaml:"secondary_low"`
	SecondaryHigh *float64 `yaml:"secondary_high"`
	CooldownMin   int      `yaml:"cooldown_min"`
}

// LoadRules returns the threshold rule set: the built-in defaults, with
// per-sensor overrides from an optional yaml file. An empty path loads the
// defaults unchanged.
func LoadRules(path string) (alerts.RuleSet, error) {
	rules := alerts.DefaultRules()
	if path == "" {
		return rules, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	overrides := make(map[string]ruleConfig)
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, err
	}

	for name, override := range overrides {
		kind := sensors.SensorKind(name)
		if !kind.Valid() {
			return nil, fmt.Errorf("thresholds config: unknown sensor %q", name)
		}
		rule := rules[kind]
		if override.High != nil {
			rule.High = override.High
		}
		if override.Low != nil {
			rule.Low = override.Low
		}
		if override.SecondaryLow != nil {
			rule.SecondaryLow = override.SecondaryLow
		}
		if override.SecondaryHigh != nil {
			rule.SecondaryHigh = override.SecondaryHigh
		}
		if override.CooldownMin != 0 {
			rule.Cooldown = time.Duration(override.CooldownMin) * time.Minute
		}
		rules[kind] = rule
	}

	if err := rules.Validate(); err != nil {
		return nil, err
	}
	return rules, nil
}
