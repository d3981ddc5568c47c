// Package scoring converts analysis flags into a deterministic 0-100
// score and letter grade. Score is a pure function of (flags, config).
package scoring

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Scoring dimensions. Weights are configurable but must sum to 100.
const (
	DimTransparency    = "transparency"
	DimUserRights      = "user_rights"
	DimDataCollection  = "data_collection"
	DimLegalRights     = "legal_rights"
	DimFairnessBalance = "fairness_balance"
	DimNotifications   = "notifications"
)

// FlagEffect maps one flag type onto per-dimension score deltas. Negative
// deltas lower a dimension, positive deltas raise it.
type FlagEffect struct {
	Deltas map[string]float64 `yaml:"deltas"`
}

// GradeThreshold is one entry of the descending grade lookup.
type GradeThreshold struct {
	Grade string `yaml:"grade"`
	Min   int    `yaml:"min"`
}

// Config is the externally supplied scoring model: dimension weights,
// the flag-type registry, severity multipliers and grade breakpoints.
// Loaded once and treated as immutable for the duration of a scoring call.
type Config struct {
	Weights             map[string]float64    `yaml:"weights"`
	BaselineFraction    float64               `yaml:"baseline_fraction"`
	FlagEffects         map[string]FlagEffect `yaml:"flag_effects"`
	SeverityMultipliers map[int]float64       `yaml:"severity_multipliers"`
	GradeThresholds     []GradeThreshold      `yaml:"grade_thresholds"`
}

// LoadConfig reads and validates a scoring config from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scoring config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse scoring config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DefaultConfig returns the built-in scoring model used when no registry
// file is configured.
func DefaultConfig() *Config {
	return &Config{
		Weights: map[string]float64{
			DimTransparency:    20,
			DimUserRights:      20,
			DimDataCollection:  20,
			DimLegalRights:     20,
			DimFairnessBalance: 10,
			DimNotifications:   10,
		},
		BaselineFraction: 0.7,
		SeverityMultipliers: map[int]float64{
			1: 0.3, 2: 0.4, 3: 0.5, 4: 0.6, 5: 0.7,
			6: 0.8, 7: 0.9, 8: 1.0, 9: 1.1, 10: 1.2,
		},
		GradeThresholds: []GradeThreshold{
			{Grade: "A", Min: 90},
			{Grade: "B", Min: 80},
			{Grade: "C", Min: 70},
			{Grade: "D", Min: 60},
			{Grade: "F", Min: 0},
		},
		FlagEffects: map[string]FlagEffect{
			"forced_arbitration": {Deltas: map[string]float64{
				DimLegalRights: -12, DimFairnessBalance: -4,
			}},
			"class_action_waiver": {Deltas: map[string]float64{
				DimLegalRights: -10,
			}},
			"extended_retention": {Deltas: map[string]float64{
				DimDataCollection: -8, DimUserRights: -4,
			}},
			"broad_data_sharing": {Deltas: map[string]float64{
				DimDataCollection: -10, DimTransparency: -4,
			}},
			"data_sale": {Deltas: map[string]float64{
				DimDataCollection: -12, DimUserRights: -6,
			}},
			"unilateral_changes": {Deltas: map[string]float64{
				DimNotifications: -8, DimFairnessBalance: -4,
			}},
			"no_change_notice": {Deltas: map[string]float64{
				DimNotifications: -10,
			}},
			"vague_language": {Deltas: map[string]float64{
				DimTransparency: -8,
			}},
			"hidden_terms": {Deltas: map[string]float64{
				DimTransparency: -10, DimFairnessBalance: -4,
			}},
			"account_termination": {Deltas: map[string]float64{
				DimUserRights: -8, DimFairnessBalance: -4,
			}},
			"content_license_grab": {Deltas: map[string]float64{
				DimUserRights: -10,
			}},
			"liability_waiver": {Deltas: map[string]float64{
				DimLegalRights: -8,
			}},
			"jurisdiction_restriction": {Deltas: map[string]float64{
				DimLegalRights: -6,
			}},
			"tracking_expansion": {Deltas: map[string]float64{
				DimDataCollection: -8,
			}},
			"clear_language": {Deltas: map[string]float64{
				DimTransparency: 6,
			}},
			"data_deletion_right": {Deltas: map[string]float64{
				DimUserRights: 6, DimDataCollection: 4,
			}},
			"explicit_opt_out": {Deltas: map[string]float64{
				DimUserRights: 6,
			}},
			"advance_notice": {Deltas: map[string]float64{
				DimNotifications: 8,
			}},
			"data_portability": {Deltas: map[string]float64{
				DimUserRights: 4,
			}},
		},
	}
}

// Validate checks structural soundness of a loaded config: weights sum
// to 100, effects reference known dimensions, severities cover 1..10.
func (c *Config) Validate() error {
	if len(c.Weights) == 0 {
		return fmt.Errorf("scoring config: no dimension weights")
	}
	var sum float64
	for dim, w := range c.Weights {
		if w < 0 {
			return fmt.Errorf("scoring config: negative weight for %s", dim)
		}
		sum += w
	}
	if sum != 100 {
		return fmt.Errorf("scoring config: weights sum to %.1f, want 100", sum)
	}
	if c.BaselineFraction < 0 || c.BaselineFraction > 1 {
		return fmt.Errorf("scoring config: baseline_fraction %.2f out of [0,1]", c.BaselineFraction)
	}
	for typ, effect := range c.FlagEffects {
		for dim := range effect.Deltas {
			if _, ok := c.Weights[dim]; !ok {
				return fmt.Errorf("scoring config: flag %s references unknown dimension %s", typ, dim)
			}
		}
	}
	for sev := 1; sev <= 10; sev++ {
		if _, ok := c.SeverityMultipliers[sev]; !ok {
			return fmt.Errorf("scoring config: missing severity multiplier for %d", sev)
		}
	}
	if len(c.GradeThresholds) == 0 {
		return fmt.Errorf("scoring config: no grade thresholds")
	}
	return nil
}

// Dimensions returns the configured dimension names in stable order.
func (c *Config) Dimensions() []string {
	dims := make([]string, 0, len(c.Weights))
	for d := range c.Weights {
		dims = append(dims, d)
	}
	sort.Strings(dims)
	return dims
}
