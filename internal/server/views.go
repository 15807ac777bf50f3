package server

import (
	"time"

	"github.com/oceanbase/episodic-go/pkg/memory"
)

// memoryView is the JSON form of a memory entry.
type memoryView struct {
	ID           memory.MemoryID       `json:"id"`
	Layer        string                `json:"layer"`
	Day          float64               `json:"day"`
	Summary      string                `json:"summary"`
	Salience     float64               `json:"salience"`
	Source       string                `json:"source"`
	Tags         []string              `json:"tags,omitempty"`
	Participants []memory.EntityID     `json:"participants,omitempty"`
	Context      memory.MicrosystemID  `json:"context,omitempty"`
	EventID      memory.EventID        `json:"event_id,omitempty"`
	Emotion      [3]float64            `json:"emotion"`
	Deltas       *memory.DeltasApplied `json:"deltas,omitempty"`
}

type scoredView struct {
	Memory memoryView `json:"memory"`
	Score  float64    `json:"score"`
}

func newMemoryView(e *memory.MemoryEntry, layer memory.MemoryLayer) memoryView {
	snap := e.EmotionalSnapshot()
	v := memoryView{
		ID:           e.ID(),
		Layer:        layer.String(),
		Day:          float64(e.Timestamp()) / float64(24*time.Hour),
		Summary:      e.Summary(),
		Salience:     e.Salience(),
		Source:       e.Source().String(),
		Participants: e.Participants(),
		Emotion:      [3]float64{snap.Valence(), snap.Arousal(), snap.Dominance()},
	}
	for _, t := range e.Tags() {
		v.Tags = append(v.Tags, t.String())
	}
	if ctx, ok := e.MicrosystemContext(); ok {
		v.Context = ctx
	}
	if ev, ok := e.EventID(); ok {
		v.EventID = ev
	}
	if d := e.DeltasApplied(); d.HasChanges() {
		v.Deltas = &d
	}
	return v
}
