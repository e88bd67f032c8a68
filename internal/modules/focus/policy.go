package focus

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Policy is the set of tunables the rules are evaluated against.
type Policy struct {
	ValidThreshold     float64       `yaml:"valid_threshold"`
	RecoveryWindow     time.Duration `yaml:"recovery_window"`
	MaxRecoveries      int           `yaml:"max_recoveries"`
	HeartbeatCap       time.Duration `yaml:"heartbeat_cap"`
	HiddenBudgetRatio  float64       `yaml:"hidden_budget_ratio"`
	PauseBudgetRatio   float64       `yaml:"pause_budget_ratio"`
	PerfectDaySessions int           `yaml:"perfect_day_sessions"`
	EarlyBirdHour      int           `yaml:"early_bird_hour"`
	NightOwlHour       int           `yaml:"night_owl_hour"`
	PointsPerMinute    int           `yaml:"points_per_minute"`
}

func DefaultPolicy() Policy {
	return Policy{
		ValidThreshold:     0.55,
		RecoveryWindow:     60 * time.Second,
		MaxRecoveries:      5,
		HeartbeatCap:       30 * time.Second,
		HiddenBudgetRatio:  0.20,
		PauseBudgetRatio:   0.20,
		PerfectDaySessions: 3,
		EarlyBirdHour:      7,
		NightOwlHour:       23,
		PointsPerMinute:    2,
	}
}

// LoadPolicyFile overlays the YAML document at path onto the defaults.
// An empty path returns the defaults.
func LoadPolicyFile(path string) (Policy, error) {
	p := DefaultPolicy()
	path = strings.TrimSpace(path)
	if path == "" {
		return p, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("read focus policy: %w", err)
	}
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return p, fmt.Errorf("parse focus policy: %w", err)
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

func (p Policy) Validate() error {
	switch {
	case p.ValidThreshold < 0 || p.ValidThreshold > 1:
		return fmt.Errorf("valid_threshold must be within [0,1], got %v", p.ValidThreshold)
	case p.RecoveryWindow <= 0:
		return fmt.Errorf("recovery_window must be positive")
	case p.MaxRecoveries < 0:
		return fmt.Errorf("max_recoveries must be >= 0")
	case p.HeartbeatCap <= 0:
		return fmt.Errorf("heartbeat_cap must be positive")
	case p.HiddenBudgetRatio <= 0 || p.PauseBudgetRatio <= 0:
		return fmt.Errorf("abuse budget ratios must be positive")
	case p.PerfectDaySessions < 1:
		return fmt.Errorf("perfect_day_sessions must be >= 1")
	case p.EarlyBirdHour < 0 || p.EarlyBirdHour > 24 || p.NightOwlHour < 0 || p.NightOwlHour > 24:
		return fmt.Errorf("time-of-day hours must be within [0,24]")
	}
	return nil
}
