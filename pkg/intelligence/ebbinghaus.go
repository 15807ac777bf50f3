package intelligence

import (
	"fmt"
	"math"
	"time"

	"github.com/oceanbase/episodic-go/pkg/memory"
)

// Default promotion policy.
//
// Promotion is strictly sequential, Immediate -> ShortTerm -> LongTerm ->
// Legacy, with no tier skipping:
//   - Immediate -> ShortTerm: salience >= 0.3, 1 hour base window
//   - ShortTerm -> LongTerm: salience >= 0.6, 24 hour base window
//   - LongTerm -> Legacy: salience >= 0.9 and a Milestone tag, no window
const (
	ThresholdImmediateToShortTerm = 0.3
	ThresholdShortTermToLongTerm  = 0.6
	ThresholdLongTermToLegacy     = 0.9

	BaseWindowImmediate = time.Hour
	BaseWindowShortTerm = 24 * time.Hour

	// DecayThreshold is the salience below which ShortTerm memories are purged.
	DecayThreshold = 0.2

	// TraumaSalienceBoost multiplies the salience of trauma-tagged memories
	// at encoding.
	TraumaSalienceBoost = 1.3

	// MaintenanceInterval is the recommended cadence of ApplyMemoryMaintenance.
	MaintenanceInterval = 24 * time.Hour
)

// Config is the maintenance policy.
type Config struct {
	// ImmediateToShortTerm is the salience required to leave Immediate.
	ImmediateToShortTerm float64 `json:"immediate_to_short_term" yaml:"immediate_to_short_term"`

	// ShortTermToLongTerm is the salience required to leave ShortTerm.
	ShortTermToLongTerm float64 `json:"short_term_to_long_term" yaml:"short_term_to_long_term"`

	// LongTermToLegacy is the salience required to enter Legacy.
	LongTermToLegacy float64 `json:"long_term_to_legacy" yaml:"long_term_to_legacy"`

	// ImmediateWindow is the base consolidation window before a memory can
	// leave Immediate.
	ImmediateWindow time.Duration `json:"immediate_window" yaml:"immediate_window"`

	// ShortTermWindow is the base consolidation window before a memory can
	// leave ShortTerm.
	ShortTermWindow time.Duration `json:"short_term_window" yaml:"short_term_window"`

	// DecayThreshold is the ShortTerm purge threshold.
	DecayThreshold float64 `json:"decay_threshold" yaml:"decay_threshold"`

	// TraumaBoost is the encoding multiplier for trauma-tagged memories.
	TraumaBoost float64 `json:"trauma_boost" yaml:"trauma_boost"`

	// Interval is the recommended maintenance cadence.
	Interval time.Duration `json:"interval" yaml:"interval"`
}

// DefaultConfig returns the default maintenance policy.
func DefaultConfig() *Config {
	return &Config{
		ImmediateToShortTerm: ThresholdImmediateToShortTerm,
		ShortTermToLongTerm:  ThresholdShortTermToLongTerm,
		LongTermToLegacy:     ThresholdLongTermToLegacy,
		ImmediateWindow:      BaseWindowImmediate,
		ShortTermWindow:      BaseWindowShortTerm,
		DecayThreshold:       DecayThreshold,
		TraumaBoost:          TraumaSalienceBoost,
		Interval:             MaintenanceInterval,
	}
}

// Validate checks that thresholds are in [0, 1] and increase with tier,
// windows are non-negative and the trauma boost does not weaken memories.
func (c *Config) Validate() error {
	thresholds := []struct {
		name  string
		value float64
	}{
		{"immediate_to_short_term", c.ImmediateToShortTerm},
		{"short_term_to_long_term", c.ShortTermToLongTerm},
		{"long_term_to_legacy", c.LongTermToLegacy},
		{"decay_threshold", c.DecayThreshold},
	}
	for _, th := range thresholds {
		if th.value < 0 || th.value > 1 || math.IsNaN(th.value) {
			return fmt.Errorf("%s must be in [0, 1], got %g", th.name, th.value)
		}
	}
	if c.ImmediateToShortTerm > c.ShortTermToLongTerm || c.ShortTermToLongTerm > c.LongTermToLegacy {
		return fmt.Errorf("promotion thresholds must not decrease with tier")
	}
	// A memory promoted into ShortTerm must survive the purge of the next pass.
	if c.DecayThreshold > c.ImmediateToShortTerm {
		return fmt.Errorf("decay_threshold %g must not exceed immediate_to_short_term %g",
			c.DecayThreshold, c.ImmediateToShortTerm)
	}
	if c.ImmediateWindow < 0 || c.ShortTermWindow < 0 {
		return fmt.Errorf("consolidation windows must be non-negative")
	}
	if c.TraumaBoost < 1 {
		return fmt.Errorf("trauma_boost must be >= 1, got %g", c.TraumaBoost)
	}
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}
	return nil
}

// Threshold returns the salience required to promote out of from.
// Legacy has no successor and reports false.
func (c *Config) Threshold(from memory.MemoryLayer) (float64, bool) {
	switch from {
	case memory.LayerImmediate:
		return c.ImmediateToShortTerm, true
	case memory.LayerShortTerm:
		return c.ShortTermToLongTerm, true
	case memory.LayerLongTerm:
		return c.LongTermToLegacy, true
	}
	return 0, false
}

// BaseWindow returns the base consolidation window for promoting out of
// from. LongTerm and Legacy have none.
func (c *Config) BaseWindow(from memory.MemoryLayer) time.Duration {
	switch from {
	case memory.LayerImmediate:
		return c.ImmediateWindow
	case memory.LayerShortTerm:
		return c.ShortTermWindow
	}
	return 0
}

// ConsolidationWindow returns the arousal-modulated window an entry in from
// must wait after encoding before promotion.
func (c *Config) ConsolidationWindow(from memory.MemoryLayer, arousal float64) time.Duration {
	return modulateWindow(c.BaseWindow(from), arousal)
}

// ComputeConsolidationWindow computes the arousal-modulated consolidation
// window for a base window given in hours.
//
// Arousal at encoding follows an inverted U:
//
//	normalized = (arousal + 1) / 2
//	impairment = (2 * |normalized - 0.5|)^2
//	modifier   = 0.5 + 0.5 * (1 - impairment)
//	window     = base / modifier
//
// Neutral arousal (0) gives the base window; either extreme doubles it.
func ComputeConsolidationWindow(baseHours, arousal float64) time.Duration {
	return time.Duration(baseHours / arousalModifier(arousal) * float64(time.Hour))
}

func modulateWindow(base time.Duration, arousal float64) time.Duration {
	if base <= 0 {
		return 0
	}
	return time.Duration(float64(base) / arousalModifier(arousal))
}

// arousalModifier is in [0.5, 1]. NaN arousal counts as neutral.
func arousalModifier(arousal float64) float64 {
	if math.IsNaN(arousal) {
		arousal = 0
	}
	arousal = math.Max(-1, math.Min(1, arousal))
	normalized := (arousal + 1) / 2
	distance := math.Abs(normalized-0.5) * 2
	impairment := distance * distance
	return 0.5 + 0.5*(1-impairment)
}

// ShouldRunMaintenance reports whether at least one maintenance interval
// has passed between lastRun and elapsed. Both are measured from entity
// creation.
func ShouldRunMaintenance(lastRun, elapsed time.Duration) bool {
	return defaultManager.ShouldRunMaintenance(lastRun, elapsed)
}

// ShouldRunMaintenance reports whether the manager's interval has passed
// since lastRun.
func (m *MaintenanceManager) ShouldRunMaintenance(lastRun, elapsed time.Duration) bool {
	if elapsed <= lastRun {
		return false
	}
	return elapsed-lastRun >= m.config.Interval
}
