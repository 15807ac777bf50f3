package memory

import (
	"fmt"
	"iter"
	"time"
)

// Tier capacities. Legacy is unbounded.
const (
	ImmediateCapacity = 10
	ShortTermCapacity = 20
	LongTermCapacity  = 50
)

// MemoryLayer names one of the four tiers, in increasing permanence.
type MemoryLayer int

const (
	// LayerImmediate holds fresh memories (minutes to hours).
	LayerImmediate MemoryLayer = iota
	// LayerShortTerm holds memories over days to weeks.
	LayerShortTerm
	// LayerLongTerm holds memories over months to years.
	LayerLongTerm
	// LayerLegacy holds milestone memories permanently. It never evicts,
	// never decays and is never purged.
	LayerLegacy

	layerCount = int(LayerLegacy) + 1
)

// AllLayers returns the tiers in promotion order.
func AllLayers() []MemoryLayer {
	return []MemoryLayer{LayerImmediate, LayerShortTerm, LayerLongTerm, LayerLegacy}
}

// Capacity returns the tier's bound, or false for the unbounded Legacy tier.
func (l MemoryLayer) Capacity() (int, bool) {
	switch l {
	case LayerImmediate:
		return ImmediateCapacity, true
	case LayerShortTerm:
		return ShortTermCapacity, true
	case LayerLongTerm:
		return LongTermCapacity, true
	}
	return 0, false
}

// Next returns the tier a memory is promoted into, or false for Legacy.
func (l MemoryLayer) Next() (MemoryLayer, bool) {
	switch l {
	case LayerImmediate:
		return LayerShortTerm, true
	case LayerShortTerm:
		return LayerLongTerm, true
	case LayerLongTerm:
		return LayerLegacy, true
	}
	return l, false
}

func (l MemoryLayer) String() string {
	switch l {
	case LayerImmediate:
		return "Immediate"
	case LayerShortTerm:
		return "ShortTerm"
	case LayerLongTerm:
		return "LongTerm"
	case LayerLegacy:
		return "Legacy"
	}
	return fmt.Sprintf("MemoryLayer(%d)", int(l))
}

// MemoryLayers is the tiered container that owns every memory of one entity.
//
// Invariants:
//   - an id lives in at most one tier
//   - Immediate, ShortTerm and LongTerm never exceed their capacity except
//     transiently inside Add (evict, then append)
//
// MemoryLayers does no internal synchronization. Each entity owns its own
// container, and callers must not touch one container from two goroutines.
//
// Pointers returned by GetByIDMut, All and the Retrieve* methods point into
// the container and stay valid only until the next Add, RemoveByID or
// MoveToLayer.
type MemoryLayers struct {
	tiers [layerCount][]MemoryEntry
}

// NewMemoryLayers creates an empty container.
func NewMemoryLayers() *MemoryLayers {
	return &MemoryLayers{}
}

// Add inserts entry into layer.
//
// When the tier is full, the least important entry is evicted first: lowest
// salience, then oldest timestamp, then earliest inserted. The evicted entry
// is returned, or nil when nothing was evicted. Legacy never evicts.
// The entry's id must not already be held by any tier.
func (l *MemoryLayers) Add(layer MemoryLayer, entry MemoryEntry) *MemoryEntry {
	var evicted *MemoryEntry
	if capacity, bounded := layer.Capacity(); bounded && len(l.tiers[layer]) >= capacity {
		evicted = l.evictLowestSalience(layer)
	}
	l.tiers[layer] = append(l.tiers[layer], entry)
	return evicted
}

// evictLowestSalience removes the minimum of the tier under
// (salience asc, timestamp asc) in a single scan.
func (l *MemoryLayers) evictLowestSalience(layer MemoryLayer) *MemoryEntry {
	tier := l.tiers[layer]
	if len(tier) == 0 {
		return nil
	}

	minIdx := 0
	for i := 1; i < len(tier); i++ {
		s, m := tier[i].salience, tier[minIdx].salience
		if s < m || (s == m && tier[i].timestamp < tier[minIdx].timestamp) {
			minIdx = i
		}
	}

	evicted := tier[minIdx]
	l.tiers[layer] = append(tier[:minIdx], tier[minIdx+1:]...)
	return &evicted
}

// Count returns the number of entries in layer.
func (l *MemoryLayers) Count(layer MemoryLayer) int {
	return len(l.tiers[layer])
}

// ImmediateCount returns the number of entries in the Immediate tier.
func (l *MemoryLayers) ImmediateCount() int { return l.Count(LayerImmediate) }

// ShortTermCount returns the number of entries in the ShortTerm tier.
func (l *MemoryLayers) ShortTermCount() int { return l.Count(LayerShortTerm) }

// LongTermCount returns the number of entries in the LongTerm tier.
func (l *MemoryLayers) LongTermCount() int { return l.Count(LayerLongTerm) }

// LegacyCount returns the number of entries in the Legacy tier. Legacy is
// unbounded.
func (l *MemoryLayers) LegacyCount() int { return l.Count(LayerLegacy) }

// TotalCount returns the number of entries across all tiers.
func (l *MemoryLayers) TotalCount() int {
	total := 0
	for i := range l.tiers {
		total += len(l.tiers[i])
	}
	return total
}

// IsEmpty reports whether no tier holds any entry.
func (l *MemoryLayers) IsEmpty() bool {
	return l.TotalCount() == 0
}

// Layer returns a copy of the entries in layer, in insertion order.
func (l *MemoryLayers) Layer(layer MemoryLayer) []MemoryEntry {
	out := make([]MemoryEntry, len(l.tiers[layer]))
	copy(out, l.tiers[layer])
	return out
}

// All iterates every entry: Immediate, ShortTerm, LongTerm, then Legacy,
// each in insertion order. The sequence is lazy and can be ranged over any
// number of times.
func (l *MemoryLayers) All() iter.Seq[*MemoryEntry] {
	return func(yield func(*MemoryEntry) bool) {
		for layer := range l.tiers {
			for i := range l.tiers[layer] {
				if !yield(&l.tiers[layer][i]) {
					return
				}
			}
		}
	}
}

// AllWithLayer is All, paired with the tier holding each entry.
func (l *MemoryLayers) AllWithLayer() iter.Seq2[MemoryLayer, *MemoryEntry] {
	return func(yield func(MemoryLayer, *MemoryEntry) bool) {
		for layer := range l.tiers {
			for i := range l.tiers[layer] {
				if !yield(MemoryLayer(layer), &l.tiers[layer][i]) {
					return
				}
			}
		}
	}
}

func (l *MemoryLayers) locate(id MemoryID) (MemoryLayer, int, bool) {
	for layer := range l.tiers {
		for i := range l.tiers[layer] {
			if l.tiers[layer][i].id == id {
				return MemoryLayer(layer), i, true
			}
		}
	}
	return 0, 0, false
}

// FindLayer returns the tier holding id.
func (l *MemoryLayers) FindLayer(id MemoryID) (MemoryLayer, bool) {
	layer, _, ok := l.locate(id)
	return layer, ok
}

// GetByID returns a copy of the entry with id.
func (l *MemoryLayers) GetByID(id MemoryID) (MemoryEntry, bool) {
	layer, i, ok := l.locate(id)
	if !ok {
		return MemoryEntry{}, false
	}
	return l.tiers[layer][i], true
}

// GetByIDMut returns a pointer to the stored entry with id, or nil.
func (l *MemoryLayers) GetByIDMut(id MemoryID) *MemoryEntry {
	layer, i, ok := l.locate(id)
	if !ok {
		return nil
	}
	return &l.tiers[layer][i]
}

// RemoveByID removes the entry with id from whichever tier holds it.
func (l *MemoryLayers) RemoveByID(id MemoryID) (MemoryEntry, bool) {
	layer, i, ok := l.locate(id)
	if !ok {
		return MemoryEntry{}, false
	}
	tier := l.tiers[layer]
	entry := tier[i]
	l.tiers[layer] = append(tier[:i], tier[i+1:]...)
	return entry, true
}

// MoveToLayer removes the entry with id from its tier and adds it to to.
//
// The move may evict an entry from the destination tier, which is returned.
// Returns a *NotFoundError if no tier holds id.
func (l *MemoryLayers) MoveToLayer(id MemoryID, to MemoryLayer) (*MemoryEntry, error) {
	entry, ok := l.RemoveByID(id)
	if !ok {
		return nil, &NotFoundError{ID: id}
	}
	return l.Add(to, entry), nil
}

// ApplySalienceDecayAll decays every entry in Immediate, ShortTerm and
// LongTerm. Legacy memories are permanent and never decay.
func (l *MemoryLayers) ApplySalienceDecayAll(duration time.Duration, timeScale, halfLifeDays float64) {
	for _, layer := range []MemoryLayer{LayerImmediate, LayerShortTerm, LayerLongTerm} {
		for i := range l.tiers[layer] {
			l.tiers[layer][i].ApplySalienceDecay(duration, timeScale, halfLifeDays)
		}
	}
}
