package memory

import "math"

// Mood is a read-only view of an entity's current affect on the
// pleasure-arousal-dominance axes. Every value is in [-1, 1].
type Mood interface {
	Valence() float64
	Arousal() float64
	Dominance() float64
}

// MoodState is a Mood that accepts priming deltas from consolidation.
type MoodState interface {
	Mood
	AddValenceDelta(amount float64)
	AddArousalDelta(amount float64)
}

// PAD is an immutable mood value with each axis clamped to [-1, 1].
type PAD struct {
	valence   float64
	arousal   float64
	dominance float64
}

// NewPAD creates a clamped mood value.
func NewPAD(valence, arousal, dominance float64) PAD {
	return PAD{
		valence:   clampUnit(valence),
		arousal:   clampUnit(arousal),
		dominance: clampUnit(dominance),
	}
}

func (p PAD) Valence() float64 { return p.valence }
func (p PAD) Arousal() float64 { return p.arousal }
func (p PAD) Dominance() float64 { return p.dominance }

// LiveMood is a mutable mood made of a stable base plus accumulated deltas.
//
// The effective value of each axis is base+delta clamped to [-1, 1]. Deltas
// are unbounded internally so that opposite pushes cancel correctly.
type LiveMood struct {
	ValenceBase    float64
	ArousalBase    float64
	DominanceBase  float64
	ValenceDelta   float64
	ArousalDelta   float64
	DominanceDelta float64
}

// NewLiveMood creates a live mood with the given baselines and no deltas.
func NewLiveMood(valence, arousal, dominance float64) *LiveMood {
	return &LiveMood{
		ValenceBase:   clampUnit(valence),
		ArousalBase:   clampUnit(arousal),
		DominanceBase: clampUnit(dominance),
	}
}

func (m *LiveMood) Valence() float64 { return clampUnit(m.ValenceBase + m.ValenceDelta) }
func (m *LiveMood) Arousal() float64 { return clampUnit(m.ArousalBase + m.ArousalDelta) }
func (m *LiveMood) Dominance() float64 { return clampUnit(m.DominanceBase + m.DominanceDelta) }

// AddValenceDelta shifts the valence delta by amount.
func (m *LiveMood) AddValenceDelta(amount float64) { m.ValenceDelta += amount }

// AddArousalDelta shifts the arousal delta by amount.
func (m *LiveMood) AddArousalDelta(amount float64) { m.ArousalDelta += amount }

// Snapshot freezes the effective values.
func (m *LiveMood) Snapshot() PAD {
	return NewPAD(m.Valence(), m.Arousal(), m.Dominance())
}

// clampUnit maps NaN to the neutral 0.
func clampUnit(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return clamp(v, -1, 1)
}

// clamp maps NaN to lo.
func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
