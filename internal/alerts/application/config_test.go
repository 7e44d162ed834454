package application

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	sensors "envmonitor-cloud/internal/sensors/domain"
)

func TestLoadRulesDefaults(t *testing.T) {
	rules, err := LoadRules("")
	if err != nil {
		t.Fatalf("load rules: %v", err)
	}
	rule, ok := rules[sensors.SensorMQ2]
	if !ok {
		t.Fatal("expected MQ2 rule")
	}
	if rule.High == nil || *rule.High != 40 {
		t.Fatalf("expected MQ2 high 40, got %+v", rule.High)
	}
	if rule.Cooldown != 30*time.Minute {
		t.Fatalf("expected MQ2 cooldown 30m, got %v", rule.Cooldown)
	}
	if _, ok := rules[sensors.SensorAltitude]; ok {
		t.Fatal("altitude must not carry a rule by default")
	}
}

func TestLoadRulesOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thresholds.yaml")
	content := []byte("MQ2:\n  high: 55\n  cooldown_min: 10\nBMP_Pressure:\n  secondary_low: 905\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("load rules: %v", err)
	}
	mq2 := rules[sensors.SensorMQ2]
	if mq2.High == nil || *mq2.High != 55 {
		t.Fatalf("expected overridden high 55, got %+v", mq2.High)
	}
	if mq2.Cooldown != 10*time.Minute {
		t.Fatalf("expected overridden cooldown 10m, got %v", mq2.Cooldown)
	}
	if mq2.Low == nil || *mq2.Low != 35 {
		t.Fatal("untouched fields must keep defaults")
	}
	pressure := rules[sensors.SensorPressure]
	if pressure.SecondaryLow == nil || *pressure.SecondaryLow != 905 {
		t.Fatalf("expected overridden secondary low 905, got %+v", pressure.SecondaryLow)
	}
}

func TestLoadRulesRejectsUnknownSensor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thresholds.yaml")
	if err := os.WriteFile(path, []byte("Radon:\n  high: 1\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadRules(path); err == nil {
		t.Fatal("expected error for unknown sensor override")
	}
}
