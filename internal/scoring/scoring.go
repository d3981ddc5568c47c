package scoring

import (
	"math"
	"sort"

	"github.com/policywatch/policywatch-backend/internal/domain"
	"github.com/policywatch/policywatch-backend/pkg/logger"
)

// Result holds per-dimension scores, the clamped total and its grade.
type Result struct {
	DimensionScores map[string]float64 `json:"dimension_scores"`
	TotalScore      int                `json:"total_score"`
	Grade           string             `json:"grade"`
}

// Score applies flags to the configured scoring model. Every dimension
// starts at baseline_fraction of its weight, flag effects scaled by the
// severity multiplier move it, and the result is clamped to [0, weight]
// per dimension and [0,100] overall. Identical inputs always yield
// identical output.
func Score(flags []domain.Flag, cfg *Config) Result {
	scores := make(map[string]float64, len(cfg.Weights))
	for dim, weight := range cfg.Weights {
		scores[dim] = weight * cfg.BaselineFraction
	}

	// Apply flags in a deterministic order so map iteration cannot cause
	// drift when effects are later made order-sensitive.
	ordered := make([]domain.Flag, len(flags))
	copy(ordered, flags)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Type < ordered[j].Type })

	for _, flag := range ordered {
		effect, ok := cfg.FlagEffects[flag.Type]
		if !ok {
			// Open taxonomy: unknown types are logged and skipped.
			logger.GetLogger().Debug().
				Str("flag_type", flag.Type).
				Msg("unknown flag type ignored by scoring")
			continue
		}
		mult := severityMultiplier(cfg, flag.Severity)
		for _, dim := range sortedKeys(effect.Deltas) {
			scores[dim] += effect.Deltas[dim] * mult
		}
	}

	var total float64
	for dim, weight := range cfg.Weights {
		scores[dim] = clamp(scores[dim], 0, weight)
		total += scores[dim]
	}
	total = clamp(total, 0, 100)

	return Result{
		DimensionScores: scores,
		TotalScore:      int(math.Round(total)),
		Grade:           gradeFor(int(math.Round(total)), cfg),
	}
}

func severityMultiplier(cfg *Config, severity int) float64 {
	if severity < 1 {
		severity = 1
	}
	if severity > 10 {
		severity = 10
	}
	return cfg.SeverityMultipliers[severity]
}

func gradeFor(total int, cfg *Config) string {
	thresholds := make([]GradeThreshold, len(cfg.GradeThresholds))
	copy(thresholds, cfg.GradeThresholds)
	sort.SliceStable(thresholds, func(i, j int) bool { return thresholds[i].Min > thresholds[j].Min })
	for _, t := range thresholds {
		if total >= t.Min {
			return t.Grade
		}
	}
	return thresholds[len(thresholds)-1].Grade
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
