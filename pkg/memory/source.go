package memory

import "fmt"

// MemorySource describes how the entity learned about an event.
type MemorySource int

const (
	// SourceSelf means the entity experienced the event directly.
	SourceSelf MemorySource = iota
	// SourceWitness means the entity observed the event happen to others.
	SourceWitness
	// SourceRumor means the entity heard about the event second-hand.
	SourceRumor
)

// Fixed confidence weights per source.
const (
	SelfConfidence    = 1.0
	WitnessConfidence = 0.7
	RumorConfidence   = 0.4
)

// AllSources returns every source in declaration order.
func AllSources() []MemorySource {
	return []MemorySource{SourceSelf, SourceWitness, SourceRumor}
}

// Confidence returns the retrieval confidence weight for the source.
func (s MemorySource) Confidence() float64 {
	switch s {
	case SourceWitness:
		return WitnessConfidence
	case SourceRumor:
		return RumorConfidence
	default:
		return SelfConfidence
	}
}

// String returns the source name.
func (s MemorySource) String() string {
	switch s {
	case SourceSelf:
		return "Self"
	case SourceWitness:
		return "Witness"
	case SourceRumor:
		return "Rumor"
	}
	return fmt.Sprintf("MemorySource(%d)", int(s))
}
