package intelligence

import (
	"slices"

	"github.com/oceanbase/episodic-go/pkg/memory"
)

// HasTraumaTag reports whether entry carries any of the trauma tags
// (Violence, Death, Crisis, Betrayal).
func HasTraumaTag(entry *memory.MemoryEntry) bool {
	return slices.ContainsFunc(entry.Tags(), memory.MemoryTag.IsTrauma)
}

// ApplyTraumaSalienceBoost applies the default ×1.3 encoding boost to a
// trauma-tagged entry, clamped to 1.
//
// Example:
//
//	entry := memory.NewMemoryEntry(day, "Violent incident",
//	    memory.WithTags(memory.TagViolence),
//	    memory.WithSalience(0.5))
//	intelligence.ApplyTraumaSalienceBoost(&entry) // salience is now 0.65
func ApplyTraumaSalienceBoost(entry *memory.MemoryEntry) bool {
	return defaultManager.ApplyTraumaSalienceBoost(entry)
}
