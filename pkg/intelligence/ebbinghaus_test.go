package intelligence_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceanbase/episodic-go/pkg/intelligence"
	"github.com/oceanbase/episodic-go/pkg/memory"
)

func TestComputeConsolidationWindow(t *testing.T) {
	tests := []struct {
		name      string
		baseHours float64
		arousal   float64
		want      time.Duration
	}{
		{"optimal arousal", 1, 0, time.Hour},
		{"extreme low arousal", 1, -1, 2 * time.Hour},
		{"extreme high arousal", 1, 1, 2 * time.Hour},
		{"short-term base", 24, 0, 24 * time.Hour},
		{"short-term extreme", 24, 1, 48 * time.Hour},
		{"no base window", 0, 1, 0},
		{"nan arousal is neutral", 1, math.NaN(), time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, intelligence.ComputeConsolidationWindow(tt.baseHours, tt.arousal))
		})
	}
}

func TestConsolidationWindowInvertedU(t *testing.T) {
	low := intelligence.ComputeConsolidationWindow(1, -0.4)
	high := intelligence.ComputeConsolidationWindow(1, 0.4)

	for _, w := range []time.Duration{low, high} {
		assert.GreaterOrEqual(t, w, time.Hour)
		assert.Less(t, w, 2*time.Hour)
	}
	assert.InDelta(t, low.Hours(), high.Hours(), 1e-9)

	prev := intelligence.ComputeConsolidationWindow(1, 0)
	for _, a := range []float64{0.2, 0.4, 0.6, 0.8, 1.0} {
		w := intelligence.ComputeConsolidationWindow(1, a)
		assert.GreaterOrEqual(t, w, prev, "window must widen as arousal moves away from neutral")
		prev = w
	}
}

func TestConfigPolicyAccessors(t *testing.T) {
	cfg := intelligence.DefaultConfig()

	th, ok := cfg.Threshold(memory.LayerImmediate)
	assert.True(t, ok)
	assert.Equal(t, 0.3, th)
	th, _ = cfg.Threshold(memory.LayerShortTerm)
	assert.Equal(t, 0.6, th)
	th, _ = cfg.Threshold(memory.LayerLongTerm)
	assert.Equal(t, 0.9, th)
	_, ok = cfg.Threshold(memory.LayerLegacy)
	assert.False(t, ok)

	assert.Equal(t, time.Hour, cfg.BaseWindow(memory.LayerImmediate))
	assert.Equal(t, 24*time.Hour, cfg.BaseWindow(memory.LayerShortTerm))
	assert.Equal(t, time.Duration(0), cfg.BaseWindow(memory.LayerLongTerm))
	assert.Equal(t, time.Duration(0), cfg.ConsolidationWindow(memory.LayerLongTerm, 1))
	assert.Equal(t, 2*time.Hour, cfg.ConsolidationWindow(memory.LayerImmediate, -1))
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, intelligence.DefaultConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*intelligence.Config)
	}{
		{"threshold above one", func(c *intelligence.Config) { c.LongTermToLegacy = 1.2 }},
		{"negative decay threshold", func(c *intelligence.Config) { c.DecayThreshold = -0.1 }},
		{"decreasing thresholds", func(c *intelligence.Config) { c.ShortTermToLongTerm = 0.2 }},
		{"purge above promotion threshold", func(c *intelligence.Config) { c.DecayThreshold = 0.5 }},
		{"nan decay threshold", func(c *intelligence.Config) { c.DecayThreshold = math.NaN() }},
		{"negative window", func(c *intelligence.Config) { c.ImmediateWindow = -time.Minute }},
		{"weakening trauma boost", func(c *intelligence.Config) { c.TraumaBoost = 0.9 }},
		{"zero interval", func(c *intelligence.Config) { c.Interval = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := intelligence.DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestApplyTraumaSalienceBoost(t *testing.T) {
	tests := []struct {
		name    string
		tags    []memory.MemoryTag
		initial float64
		want    float64
		boosted bool
	}{
		{"violence", []memory.MemoryTag{memory.TagViolence}, 0.5, 0.65, true},
		{"clamped at one", []memory.MemoryTag{memory.TagDeath}, 0.9, 1.0, true},
		{"crisis among others", []memory.MemoryTag{memory.TagMission, memory.TagCrisis}, 0.4, 0.52, true},
		{"betrayal", []memory.MemoryTag{memory.TagBetrayal}, 0.2, 0.26, true},
		{"negative but not trauma", []memory.MemoryTag{memory.TagLoss}, 0.5, 0.5, false},
		{"untagged", nil, 0.5, 0.5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := newEntry("a", day, tt.initial, memory.WithTags(tt.tags...))
			assert.Equal(t, tt.boosted, intelligence.ApplyTraumaSalienceBoost(&entry))
			assert.InDelta(t, tt.want, entry.Salience(), 1e-9)
			assert.LessOrEqual(t, entry.Salience(), 1.0)
		})
	}
}
