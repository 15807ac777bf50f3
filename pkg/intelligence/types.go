// Package intelligence provides the memory maintenance policy: tier
// promotion, low-salience purging, trauma boosting at encoding and the
// mood priming feedback of consolidation.
package intelligence

import (
	"time"

	"github.com/oceanbase/episodic-go/pkg/memory"
)

// MaintenanceReport summarizes one ApplyMemoryMaintenance run.
//
// The id slices list exactly which memories moved, were purged or were
// pushed out of a full tier by a promotion. Counts always equal the length of
// the matching slice.
type MaintenanceReport struct {
	// Elapsed is the maintenance instant the report was produced at.
	Elapsed time.Duration `json:"elapsed"`

	// Promoted is the number of memories moved up one tier.
	Promoted int `json:"promoted"`

	// Decayed is the number of ShortTerm memories purged for low salience.
	Decayed int `json:"decayed"`

	// Evicted is the number of memories dropped from a full destination tier.
	Evicted int `json:"evicted"`

	PromotedIDs []memory.MemoryID `json:"promoted_ids,omitempty"`
	DecayedIDs  []memory.MemoryID `json:"decayed_ids,omitempty"`
	EvictedIDs  []memory.MemoryID `json:"evicted_ids,omitempty"`
}

// HasChanges reports whether the run changed the container.
func (r *MaintenanceReport) HasChanges() bool {
	return r.Promoted > 0 || r.Decayed > 0 || r.Evicted > 0
}

func (r *MaintenanceReport) addPromoted(id memory.MemoryID) {
	r.Promoted++
	r.PromotedIDs = append(r.PromotedIDs, id)
}

func (r *MaintenanceReport) addDecayed(id memory.MemoryID) {
	r.Decayed++
	r.DecayedIDs = append(r.DecayedIDs, id)
}

func (r *MaintenanceReport) addEvicted(id memory.MemoryID) {
	r.Evicted++
	r.EvictedIDs = append(r.EvictedIDs, id)
}

// PrimingDeltas are the mood adjustments produced by memory consolidation.
//
// ValenceDelta is in [-0.2, 0.2] and ArousalDelta is in [0, 0.2].
type PrimingDeltas struct {
	ValenceDelta float64 `json:"valence_delta"`
	ArousalDelta float64 `json:"arousal_delta"`
}

// IsZero reports whether both deltas are zero.
func (p PrimingDeltas) IsZero() bool {
	return p.ValenceDelta == 0 && p.ArousalDelta == 0
}

// Scale returns the deltas multiplied by factor.
func (p PrimingDeltas) Scale(factor float64) PrimingDeltas {
	return PrimingDeltas{
		ValenceDelta: p.ValenceDelta * factor,
		ArousalDelta: p.ArousalDelta * factor,
	}
}

// Observer receives maintenance events, typically to export metrics.
// Implementations must not modify the container they are handed.
type Observer interface {
	// ObservePromotion is called once per memory moved from one tier to the next.
	ObservePromotion(from, to memory.MemoryLayer)

	// ObservePurge is called once per memory removed for low salience.
	ObservePurge(layer memory.MemoryLayer)

	// ObserveEviction is called once per memory dropped from a full tier.
	ObserveEviction(layer memory.MemoryLayer)

	// ObserveLayers is called after each maintenance run with the resulting container.
	ObserveLayers(layers *memory.MemoryLayers)
}
