// Package scenario replays a scripted life course against one entity's memory.
//
// A scenario is a YAML document:
//
//	entity: alice
//	days: 365
//	mood: {valence: 0.1, arousal: 0, dominance: 0}
//	events:
//	  - day: 3
//	    summary: first day at the new school
//	    salience: 0.6
//	    tags: [Milestone, Personal]
//	    context: school
//	  - day: 10.5
//	    summary: Bob spread a rumor
//	    tags: [Betrayal]
//	    participants: [bob]
//	    source: witness
package scenario

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/oceanbase/episodic-go/pkg/memory"
)

// ErrInvalidScenario indicates a malformed scenario document.
var ErrInvalidScenario = errors.New("invalid scenario")

// Scenario is a scripted life course.
type Scenario struct {
	// Entity names the simulated individual.
	Entity string `yaml:"entity" json:"entity"`

	// Days is the simulated horizon. Every event must fall inside it.
	Days int `yaml:"days" json:"days"`

	// Mood is the baseline mood. Consolidation primes it day by day.
	Mood PAD `yaml:"mood" json:"mood"`

	// Events are the experiences to encode, in any order.
	Events []Event `yaml:"events" json:"events"`
}

// PAD is a mood triple as written in a scenario file.
type PAD struct {
	Valence   float64 `yaml:"valence" json:"valence"`
	Arousal   float64 `yaml:"arousal" json:"arousal"`
	Dominance float64 `yaml:"dominance" json:"dominance"`
}

// Event is one experience of the entity.
type Event struct {
	// Day is the simulated day of the event; fractions are hours into the day.
	Day float64 `yaml:"day" json:"day"`

	Summary      string   `yaml:"summary" json:"summary"`
	Salience     *float64 `yaml:"salience,omitempty" json:"salience,omitempty"`
	Tags         []string `yaml:"tags,omitempty" json:"tags,omitempty"`
	Participants []string `yaml:"participants,omitempty" json:"participants,omitempty"`
	Context      string   `yaml:"context,omitempty" json:"context,omitempty"`

	// Source is self, witness or rumor. Empty means self.
	Source string `yaml:"source,omitempty" json:"source,omitempty"`

	// Mood overrides the entity's current mood as the emotional snapshot.
	Mood *PAD `yaml:"mood,omitempty" json:"mood,omitempty"`
}

// Load reads and parses a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a scenario document. Events are returned
// sorted by day, keeping file order for events on the same day.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	sc.Events = sortedEvents(sc.Events)
	return &sc, nil
}

// sortedEvents returns a copy of events ordered by day, keeping the given
// order for events on the same day.
func sortedEvents(events []Event) []Event {
	sorted := slices.Clone(events)
	slices.SortStableFunc(sorted, func(a, b Event) int {
		return cmp.Compare(a.Day, b.Day)
	})
	return sorted
}

// Validate checks the scenario for errors a replay would hit.
func (s *Scenario) Validate() error {
	if s.Entity == "" {
		return invalid("entity is required")
	}
	if s.Days <= 0 {
		return invalid("days must be positive, got %d", s.Days)
	}
	if !s.Mood.finite() {
		return invalid("mood must be finite")
	}
	for i, ev := range s.Events {
		if !finite(ev.Day) || ev.Day < 0 || ev.Day > float64(s.Days) {
			return invalid("event %d: day %g outside [0, %d]", i, ev.Day, s.Days)
		}
		if ev.Salience != nil && (!finite(*ev.Salience) || *ev.Salience < 0 || *ev.Salience > 1) {
			return invalid("event %d: salience %g outside [0, 1]", i, *ev.Salience)
		}
		if ev.Mood != nil && !ev.Mood.finite() {
			return invalid("event %d: mood must be finite", i)
		}
		if _, err := ev.tags(); err != nil {
			return invalid("event %d: %v", i, err)
		}
		if _, err := ParseSource(ev.Source); err != nil {
			return invalid("event %d: %v", i, err)
		}
	}
	return nil
}

func (p PAD) finite() bool {
	return finite(p.Valence) && finite(p.Arousal) && finite(p.Dominance)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidScenario, fmt.Sprintf(format, args...))
}

// ParseSource maps self, witness or rumor (any case) to a memory source.
// Empty means self.
func ParseSource(name string) (memory.MemorySource, error) {
	switch strings.ToLower(name) {
	case "", "self":
		return memory.SourceSelf, nil
	case "witness":
		return memory.SourceWitness, nil
	case "rumor":
		return memory.SourceRumor, nil
	}
	return memory.SourceSelf, fmt.Errorf("unknown memory source %q", name)
}

func (e Event) tags() ([]memory.MemoryTag, error) {
	tags := make([]memory.MemoryTag, 0, len(e.Tags))
	for _, name := range e.Tags {
		tag, err := memory.ParseMemoryTag(name)
		if err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

func (e Event) participants() []memory.EntityID {
	ids := make([]memory.EntityID, len(e.Participants))
	for i, p := range e.Participants {
		ids[i] = memory.EntityID(p)
	}
	return ids
}
