package intelligence_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/oceanbase/episodic-go/pkg/intelligence"
	"github.com/oceanbase/episodic-go/pkg/memory"
)

func singleMemory(entry memory.MemoryEntry) *memory.MemoryLayers {
	layers := memory.NewMemoryLayers()
	layers.Add(memory.LayerLongTerm, entry)
	return layers
}

func TestComputePrimingDeltasEmpty(t *testing.T) {
	deltas := intelligence.ComputePrimingDeltas(memory.NewMemoryLayers(), memory.NewPAD(-0.8, 0.5, 0))
	assert.True(t, deltas.IsZero())
}

func TestComputePrimingDeltasSingleTraumaMemory(t *testing.T) {
	layers := singleMemory(newEntry("a", 0, 0.8, memory.WithTags(memory.TagViolence)))

	// Polarity -1 blended with a neutral snapshot gives -0.7; a negative
	// mood of 0.5 boosts it by 1.25.
	deltas := intelligence.ComputePrimingDeltas(layers, memory.NewPAD(-0.5, 0, 0))
	assert.InDelta(t, -0.7*0.8*1.25*0.1, deltas.ValenceDelta, 1e-12)
	assert.InDelta(t, 0.8*0.02, deltas.ArousalDelta, 1e-12)
}

type nanMood struct{}

func (nanMood) Valence() float64   { return math.NaN() }
func (nanMood) Arousal() float64   { return math.NaN() }
func (nanMood) Dominance() float64 { return math.NaN() }

func TestComputePrimingDeltasTreatsNaNMoodAsNeutral(t *testing.T) {
	layers := singleMemory(newEntry("a", 0, 0.8, memory.WithTags(memory.TagViolence)))

	deltas := intelligence.ComputePrimingDeltas(layers, nanMood{})
	assert.Equal(t, intelligence.ComputePrimingDeltas(layers, memory.NewPAD(0, 0, 0)), deltas)
	assert.False(t, math.IsNaN(deltas.ValenceDelta))
}

func TestMoodCongruentPriming(t *testing.T) {
	negative := singleMemory(newEntry("neg", 0, 0.7, memory.WithTags(memory.TagLoss)))
	positive := singleMemory(newEntry("pos", 0, 0.7, memory.WithTags(memory.TagAchievement)))

	sad := memory.NewPAD(-0.6, 0, 0)
	happy := memory.NewPAD(0.6, 0, 0)

	t.Run("negative mood amplifies negative memories", func(t *testing.T) {
		inSad := intelligence.ComputePrimingDeltas(negative, sad)
		inHappy := intelligence.ComputePrimingDeltas(negative, happy)
		assert.Less(t, inSad.ValenceDelta, 0.0)
		assert.Less(t, inSad.ValenceDelta, inHappy.ValenceDelta)
	})

	t.Run("positive mood amplifies positive memories", func(t *testing.T) {
		inHappy := intelligence.ComputePrimingDeltas(positive, happy)
		inSad := intelligence.ComputePrimingDeltas(positive, sad)
		assert.Greater(t, inHappy.ValenceDelta, 0.0)
		assert.Greater(t, inHappy.ValenceDelta, inSad.ValenceDelta)
	})

	t.Run("neutral mood applies no bias", func(t *testing.T) {
		neutral := intelligence.ComputePrimingDeltas(negative, memory.NewPAD(0.05, 0, 0))
		assert.InDelta(t, -0.7*0.7*0.1, neutral.ValenceDelta, 1e-12)
	})
}

func TestPrimingWithoutPolarTagsUsesSnapshot(t *testing.T) {
	layers := singleMemory(newEntry("a", 0, 0.5,
		memory.WithTags(memory.TagMilestone, memory.TagPersonal),
		memory.WithEmotionalSnapshot(memory.NewEmotionalSnapshot(0.6, 0, 0))))

	deltas := intelligence.ComputePrimingDeltas(layers, memory.NewPAD(-0.9, 0, 0))
	assert.InDelta(t, 0.6*0.5*0.1, deltas.ValenceDelta, 1e-12)
}

func TestPrimingMixedTagsIsUnbiased(t *testing.T) {
	layers := singleMemory(newEntry("a", 0, 1.0,
		memory.WithTags(memory.TagConflict, memory.TagSupport),
		memory.WithEmotionalSnapshot(memory.NewEmotionalSnapshot(-0.5, 0, 0))))

	// Net polarity 0 leaves only the 30% snapshot share and no mood bias.
	deltas := intelligence.ComputePrimingDeltas(layers, memory.NewPAD(-0.9, 0, 0))
	assert.InDelta(t, -0.5*0.3*0.1, deltas.ValenceDelta, 1e-12)
}

func TestArousalPrimingOnlyFromHighSalience(t *testing.T) {
	low := singleMemory(newEntry("low", 0, 0.49))
	assert.Equal(t, 0.0, intelligence.ComputePrimingDeltas(low, memory.NewPAD(0, 0, 0)).ArousalDelta)

	high := singleMemory(newEntry("high", 0, 0.5))
	assert.InDelta(t, 0.01, intelligence.ComputePrimingDeltas(high, memory.NewPAD(0, 0, 0)).ArousalDelta, 1e-12)
}

func TestPrimingNormalizedByCount(t *testing.T) {
	layers := memory.NewMemoryLayers()
	layers.Add(memory.LayerImmediate, newEntry("trauma", 0, 0.8, memory.WithTags(memory.TagViolence)))
	layers.Add(memory.LayerImmediate, newEntry("faded", 0, 0))

	deltas := intelligence.ComputePrimingDeltas(layers, memory.NewPAD(0, 0, 0))
	assert.InDelta(t, -0.7*0.8*0.1/2, deltas.ValenceDelta, 1e-12)
	assert.InDelta(t, 0.8*0.02/2, deltas.ArousalDelta, 1e-12)
}

func TestPrimingBounded(t *testing.T) {
	layers := memory.NewMemoryLayers()
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"} {
		layers.Add(memory.LayerLegacy, newEntry(id, 0, 1.0,
			memory.WithTags(memory.TagDeath, memory.TagViolence),
			memory.WithEmotionalSnapshot(memory.NewEmotionalSnapshot(-1, 1, -1))))
	}

	deltas := intelligence.ComputePrimingDeltas(layers, memory.NewPAD(-1, 1, -1))
	assert.GreaterOrEqual(t, deltas.ValenceDelta, -intelligence.MaxPrimingEffect)
	assert.LessOrEqual(t, deltas.ValenceDelta, intelligence.MaxPrimingEffect)
	assert.GreaterOrEqual(t, deltas.ArousalDelta, 0.0)
	assert.LessOrEqual(t, deltas.ArousalDelta, intelligence.MaxPrimingEffect)
}

func TestApplyMemoryConsolidation(t *testing.T) {
	layers := singleMemory(newEntry("a", 0, 0.8, memory.WithTags(memory.TagViolence)))

	t.Run("zero duration is a no-op", func(t *testing.T) {
		state := memory.NewLiveMood(-0.5, 0, 0)
		applied := intelligence.ApplyMemoryConsolidation(state, layers, 0)
		assert.True(t, applied.IsZero())
		assert.Equal(t, 0.0, state.ValenceDelta)
		assert.Equal(t, 0.0, state.ArousalDelta)
	})

	t.Run("empty layers are a no-op", func(t *testing.T) {
		state := memory.NewLiveMood(-0.5, 0, 0)
		applied := intelligence.ApplyMemoryConsolidation(state, memory.NewMemoryLayers(), 30*day)
		assert.True(t, applied.IsZero())
		assert.Equal(t, 0.0, state.ValenceDelta)
	})

	t.Run("scales with duration", func(t *testing.T) {
		full := intelligence.ComputePrimingDeltas(layers, memory.NewPAD(-0.5, 0, 0))

		state := memory.NewLiveMood(-0.5, 0, 0)
		applied := intelligence.ApplyMemoryConsolidation(state, layers, 30*day)
		assert.InDelta(t, full.ValenceDelta*0.3, applied.ValenceDelta, 1e-12)
		assert.InDelta(t, full.ArousalDelta*0.3, applied.ArousalDelta, 1e-12)
		assert.InDelta(t, applied.ValenceDelta, state.ValenceDelta, 1e-12)
		assert.InDelta(t, applied.ArousalDelta, state.ArousalDelta, 1e-12)
	})

	t.Run("scale saturates at 100 days", func(t *testing.T) {
		full := intelligence.ComputePrimingDeltas(layers, memory.NewPAD(-0.5, 0, 0))

		state := memory.NewLiveMood(-0.5, 0, 0)
		applied := intelligence.ApplyMemoryConsolidation(state, layers, 400*day)
		assert.InDelta(t, full.ValenceDelta, applied.ValenceDelta, 1e-12)
	})

	t.Run("deterministic", func(t *testing.T) {
		a := memory.NewLiveMood(-0.5, 0.2, 0.1)
		b := memory.NewLiveMood(-0.5, 0.2, 0.1)
		intelligence.ApplyMemoryConsolidation(a, layers, 12*day+7*time.Hour)
		intelligence.ApplyMemoryConsolidation(b, layers, 12*day+7*time.Hour)
		assert.Equal(t, *a, *b)
	})
}
