package core

import (
	"time"

	"github.com/oceanbase/episodic-go/pkg/memory"
)

// CaptureResult describes the outcome of a Capture operation.
type CaptureResult struct {
	// Entry is a copy of the stored memory, after any trauma boost.
	Entry memory.MemoryEntry `json:"-"`

	// ID is the stored memory's id.
	ID memory.MemoryID `json:"id"`

	// Boosted reports whether the trauma salience boost was applied.
	Boosted bool `json:"boosted"`

	// Evicted is the id of the memory dropped from the full Immediate tier,
	// or empty when nothing was evicted.
	Evicted memory.MemoryID `json:"evicted,omitempty"`
}

// LayerStats holds the number of memories in each tier.
type LayerStats struct {
	Immediate int `json:"immediate"`
	ShortTerm int `json:"short_term"`
	LongTerm  int `json:"long_term"`
	Legacy    int `json:"legacy"`
	Total     int `json:"total"`
}

// Count returns the count for one tier.
func (s LayerStats) Count(layer memory.MemoryLayer) int {
	switch layer {
	case memory.LayerImmediate:
		return s.Immediate
	case memory.LayerShortTerm:
		return s.ShortTerm
	case memory.LayerLongTerm:
		return s.LongTerm
	case memory.LayerLegacy:
		return s.Legacy
	}
	return 0
}

// Snapshot is a point-in-time summary of one entity's memory.
type Snapshot struct {
	// EntityID is the entity the memory belongs to.
	EntityID memory.EntityID `json:"entity_id"`

	// Layers holds the tier counts.
	Layers LayerStats `json:"layers"`

	// LastMaintenance is the elapsed time of the last maintenance run, if any.
	LastMaintenance *time.Duration `json:"last_maintenance,omitempty"`
}

func statsOf(layers *memory.MemoryLayers) LayerStats {
	return LayerStats{
		Immediate: layers.ImmediateCount(),
		ShortTerm: layers.ShortTermCount(),
		LongTerm:  layers.LongTermCount(),
		Legacy:    layers.LegacyCount(),
		Total:     layers.TotalCount(),
	}
}
