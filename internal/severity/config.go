package severity

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config selects and tunes a policy. Zero thresholds fall back to the defaults.
//
//	policy: three-tier
//	critical_threshold: 18
//	warning_threshold: 28
type Config struct {
	Policy            string  `yaml:"policy"`
	AlertThreshold    float64 `yaml:"alert_threshold"`
	CriticalThreshold float64 `yaml:"critical_threshold"`
	WarningThreshold  float64 `yaml:"warning_threshold"`
	ReferenceYield    float64 `yaml:"reference_yield"`
	AlertFraction     float64 `yaml:"alert_fraction"`
}

// LoadFile reads a YAML policy file.
func LoadFile(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read severity policy: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse severity policy %s: %w", path, err)
	}
	return cfg, nil
}

// FromConfig builds the configured policy.
func FromConfig(cfg Config) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Policy)) {
	case "", PolicyTwoTier:
		return TwoTier{Threshold: orDefault(cfg.AlertThreshold, DefaultAlertThreshold)}, nil
	case PolicyThreeTier:
		p := ThreeTier{
			Critical: orDefault(cfg.CriticalThreshold, DefaultCriticalThreshold),
			Warning:  orDefault(cfg.WarningThreshold, DefaultWarningThreshold),
		}
		if p.Critical > p.Warning {
			return nil, fmt.Errorf("critical threshold %.2f above warning threshold %.2f", p.Critical, p.Warning)
		}
		return p, nil
	case PolicyDynamic:
		return Dynamic{
			Fraction:  orDefault(cfg.AlertFraction, DefaultAlertFraction),
			Reference: orDefault(cfg.ReferenceYield, DefaultReferenceYield),
		}, nil
	default:
		return nil, fmt.Errorf("unknown severity policy %q", cfg.Policy)
	}
}

func orDefault(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

// Resolve builds the policy a binary runs with. A policy file, when given,
// supplies thresholds; name overrides the policy it selects.
func Resolve(name, file string) (Policy, error) {
	var cfg Config
	if strings.TrimSpace(file) != "" {
		c, err := LoadFile(file)
		if err != nil {
			return nil, err
		}
		cfg = c
	}
	if strings.TrimSpace(name) != "" {
		cfg.Policy = name
	}
	return FromConfig(cfg)
}
