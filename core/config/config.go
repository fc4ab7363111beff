// Package config defines the adaptive-engine configuration: domain
// target weights, stopping thresholds, exposure control, and the score
// reporting scale. Configuration loads from YAML and is published to
// readers as an atomically swapped immutable snapshot.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/acumenlabs/acumen/core/scoring"
	"github.com/acumenlabs/acumen/core/selection"
	"github.com/acumenlabs/acumen/core/stopping"
)

// Config is the full engine configuration. Treat loaded values as
// immutable; mutate by loading a new snapshot.
type Config struct {
	// Domains maps content domain to target proportion. Must sum to 1.
	Domains map[string]float64 `yaml:"domains"`

	// MinPerDomain is the hard per-domain floor for content balancing.
	MinPerDomain int `yaml:"min_per_domain"`

	// RandomesqueK is the exposure-control candidate window size.
	RandomesqueK int `yaml:"randomesque_k"`

	// Stopping configures the termination rules.
	Stopping stopping.Thresholds `yaml:"stopping"`

	// Scale configures score reporting.
	Scale scoring.Scale `yaml:"scale"`

	// Exposure configures overexposure alerting.
	Exposure ExposureConfig `yaml:"exposure"`
}

// ExposureConfig controls overexposure alerting.
type ExposureConfig struct {
	// AlertThreshold is the exposure rate above which an item is flagged.
	AlertThreshold float64 `yaml:"alert_threshold"`

	// AlertInterval is the period between alert sweeps, as a duration
	// string (e.g. "5m").
	AlertInterval string `yaml:"alert_interval"`
}

// DefaultConfig returns the standard six-domain cognitive battery
// configuration.
func DefaultConfig() *Config {
	return &Config{
		Domains: map[string]float64{
			"logic":      0.20,
			"pattern":    0.20,
			"spatial":    0.15,
			"verbal":     0.15,
			"memory":     0.15,
			"processing": 0.15,
		},
		MinPerDomain: 2,
		RandomesqueK: 5,
		Stopping:     stopping.DefaultThresholds(),
		Scale:        scoring.DefaultScale(),
		Exposure: ExposureConfig{
			AlertThreshold: 0.25,
			AlertInterval:  "5m",
		},
	}
}

// Validate checks the configuration for caller errors. Weights that do
// not sum to 1, non-positive K, or an inverted item range all fail fast.
func (c *Config) Validate() error {
	if err := selection.ValidateWeights(c.Domains); err != nil {
		return err
	}
	if c.MinPerDomain < 0 {
		return fmt.Errorf("min_per_domain %d must be non-negative", c.MinPerDomain)
	}
	if c.RandomesqueK <= 0 {
		return fmt.Errorf("randomesque_k %d must be positive", c.RandomesqueK)
	}
	if c.Stopping.MaxItems <= 0 {
		return fmt.Errorf("stopping.max_items %d must be positive", c.Stopping.MaxItems)
	}
	if c.Stopping.MinItems > c.Stopping.MaxItems {
		return fmt.Errorf("stopping.min_items %d exceeds max_items %d",
			c.Stopping.MinItems, c.Stopping.MaxItems)
	}
	if c.Stopping.SETarget <= 0 || c.Stopping.StableSE <= 0 {
		return fmt.Errorf("stopping SE thresholds must be positive")
	}
	if c.Scale.SD <= 0 {
		return fmt.Errorf("scale.sd %g must be positive", c.Scale.SD)
	}
	if c.Scale.MinScore >= c.Scale.MaxScore {
		return fmt.Errorf("scale range [%g, %g] is inverted",
			c.Scale.MinScore, c.Scale.MaxScore)
	}
	return nil
}

// LoadFile reads and validates a YAML configuration file. Fields absent
// from the file keep their defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := DefaultConfig()
	// yaml.v3 merges into a pre-populated map, which would union the
	// file's domains with the defaults; a file that sets domains must
	// replace them wholesale.
	cfg.Domains = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if len(cfg.Domains) == 0 {
		cfg.Domains = DefaultConfig().Domains
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}
