package intelligence

import (
	"math"
	"time"

	"github.com/oceanbase/episodic-go/pkg/memory"
)

const (
	// PrimingScalePerDay is the fraction of the priming deltas applied per
	// day of consolidation, up to the full deltas at 100 days.
	PrimingScalePerDay = 0.01

	// MaxPrimingEffect bounds both priming deltas.
	MaxPrimingEffect = 0.2

	// ArousalPrimingSalienceThreshold is the salience from which a memory
	// raises arousal.
	ArousalPrimingSalienceThreshold = 0.5

	// ArousalPrimingFactor is the arousal contribution per unit salience.
	ArousalPrimingFactor = 0.02

	tagPolarityWeight      = 0.7
	snapshotPolarityWeight = 0.3
	valencePrimingFactor   = 0.1

	neutralMoodBand     = 0.1
	neutralPolarityBand = 0.1
	congruentBoost      = 0.5
	incongruentPenalty  = 0.3
)

// ComputePrimingDeltas computes how the memories in layers bias mood.
//
// Each memory's valence comes from its tags when it has polar tags (70%
// tag polarity, 30% snapshot valence) and from its snapshot otherwise. A
// memory whose tag polarity matches the sign of the mood's valence is
// weighted up, an opposed one down. Memories with salience of at least 0.5
// also raise arousal. Both sums are averaged over the memory count and
// clamped: valence to [-0.2, 0.2], arousal to [0, 0.2].
func ComputePrimingDeltas(layers *memory.MemoryLayers, mood memory.Mood) PrimingDeltas {
	if layers.IsEmpty() {
		return PrimingDeltas{}
	}

	moodValence := mood.Valence()
	if math.IsNaN(moodValence) {
		moodValence = 0
	}
	var valence, arousal float64
	count := 0
	for entry := range layers.All() {
		count++
		salience := entry.Salience()
		snapshotValence := entry.EmotionalSnapshot().Valence()

		polarity, polar := tagPolarity(entry.Tags())
		memoryValence := snapshotValence
		if polar {
			memoryValence = polarity*tagPolarityWeight + snapshotValence*snapshotPolarityWeight
		}

		valence += memoryValence * salience * moodCongruenceMultiplier(moodValence, polarity, polar) * valencePrimingFactor
		if salience >= ArousalPrimingSalienceThreshold {
			arousal += salience * ArousalPrimingFactor
		}
	}

	n := float64(count)
	return PrimingDeltas{
		ValenceDelta: clampRange(valence/n, -MaxPrimingEffect, MaxPrimingEffect),
		ArousalDelta: clampRange(arousal/n, 0, MaxPrimingEffect),
	}
}

// ApplyMemoryConsolidation adds the priming deltas of layers, scaled by
// min(days*0.01, 1) for duration, to state. It returns the deltas applied.
//
// A non-positive duration or an empty container applies nothing. The
// result depends only on the inputs.
func ApplyMemoryConsolidation(state memory.MoodState, layers *memory.MemoryLayers, duration time.Duration) PrimingDeltas {
	if duration <= 0 || layers.IsEmpty() {
		return PrimingDeltas{}
	}

	days := duration.Hours() / 24
	scale := math.Min(days*PrimingScalePerDay, 1)
	applied := ComputePrimingDeltas(layers, state).Scale(scale)

	state.AddValenceDelta(applied.ValenceDelta)
	state.AddArousalDelta(applied.ArousalDelta)
	return applied
}

// tagPolarity returns (positive-negative)/(positive+negative) over the
// polar tags, and false when there are none.
func tagPolarity(tags []memory.MemoryTag) (float64, bool) {
	var positive, negative int
	for _, t := range tags {
		switch {
		case t.IsPositive():
			positive++
		case t.IsNegative():
			negative++
		}
	}
	total := positive + negative
	if total == 0 {
		return 0, false
	}
	return float64(positive-negative) / float64(total), true
}

func moodCongruenceMultiplier(moodValence, polarity float64, polar bool) float64 {
	if !polar || math.Abs(moodValence) < neutralMoodBand {
		return 1
	}
	sameSign := (moodValence < 0) == (polarity < 0)
	switch {
	case sameSign && math.Abs(polarity) > neutralPolarityBand:
		return 1 + math.Abs(moodValence)*congruentBoost
	case math.Abs(polarity) < neutralPolarityBand:
		return 1
	default:
		return 1 - math.Abs(moodValence)*incongruentPenalty
	}
}

// clampRange maps NaN to 0, which is inside every priming range.
func clampRange(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(lo, math.Min(hi, v))
}
