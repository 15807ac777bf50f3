package memory

import "math"

// Congruence weights per PAD axis. Valence dominates.
const (
	congruenceValenceWeight   = 0.60
	congruenceArousalWeight   = 0.25
	congruenceDominanceWeight = 0.15
)

// EmotionalSnapshot is the frozen mood captured when a memory was encoded.
//
// Unlike a live mood, a snapshot never decays. Each axis is clamped to
// [-1, 1] at construction.
type EmotionalSnapshot struct {
	valence   float64
	arousal   float64
	dominance float64
}

// NewEmotionalSnapshot creates a snapshot, clamping every axis.
func NewEmotionalSnapshot(valence, arousal, dominance float64) EmotionalSnapshot {
	return EmotionalSnapshot{
		valence:   clampUnit(valence),
		arousal:   clampUnit(arousal),
		dominance: clampUnit(dominance),
	}
}

// NeutralSnapshot returns the all-zero snapshot.
func NeutralSnapshot() EmotionalSnapshot {
	return EmotionalSnapshot{}
}

// SnapshotFromMood freezes the effective values of mood.
func SnapshotFromMood(mood Mood) EmotionalSnapshot {
	return NewEmotionalSnapshot(mood.Valence(), mood.Arousal(), mood.Dominance())
}

func (s EmotionalSnapshot) Valence() float64 { return s.valence }
func (s EmotionalSnapshot) Arousal() float64 { return s.arousal }
func (s EmotionalSnapshot) Dominance() float64 { return s.dominance }

// Congruence returns how closely the snapshot matches a reference mood.
//
// Each axis contributes clamp(1-|Δ|, 0, 1), weighted 0.60/0.25/0.15 for
// valence/arousal/dominance. The result is in [0, 1]: identical triples give
// exactly 1.0 and fully opposed triples (Δ=2 on every axis) give exactly 0.0.
func (s EmotionalSnapshot) Congruence(valence, arousal, dominance float64) float64 {
	vm := clamp(1-math.Abs(s.valence-valence), 0, 1)
	am := clamp(1-math.Abs(s.arousal-arousal), 0, 1)
	dm := clamp(1-math.Abs(s.dominance-dominance), 0, 1)

	return vm*congruenceValenceWeight + am*congruenceArousalWeight + dm*congruenceDominanceWeight
}

// CongruenceWithMood is Congruence against the effective values of mood.
func (s EmotionalSnapshot) CongruenceWithMood(mood Mood) float64 {
	return s.Congruence(mood.Valence(), mood.Arousal(), mood.Dominance())
}
