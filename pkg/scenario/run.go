package scenario

import (
	"fmt"
	"time"

	"github.com/oceanbase/episodic-go/pkg/core"
	"github.com/oceanbase/episodic-go/pkg/intelligence"
	"github.com/oceanbase/episodic-go/pkg/memory"
)

const day = 24 * time.Hour

// Result summarizes a replay.
type Result struct {
	Entity   string `json:"entity"`
	Days     int    `json:"days"`
	Captured int    `json:"captured"`
	Boosted  int    `json:"boosted"`
	Promoted int    `json:"promoted"`
	Purged   int    `json:"purged"`
	Evicted  int    `json:"evicted"`

	// Reports holds every maintenance pass that changed something.
	Reports []*intelligence.MaintenanceReport `json:"reports,omitempty"`

	// Snapshot is the memory state at the end of the horizon.
	Snapshot core.Snapshot `json:"snapshot"`

	// Mood is the entity's mood at the end, including memory priming.
	Mood PAD `json:"mood"`
}

// Run replays the scenario against client one simulated day at a time.
//
// Each day d:
//  1. runs maintenance at the start of the day when it is due
//  2. encodes the day's events at their exact timestamps
//  3. primes the mood with one day of memory consolidation
//  4. decays salience by one day
//
// A final maintenance pass runs at the end of the horizon. Events may be in
// any order; sc is not modified. The replay is deterministic: the same
// scenario and configuration give the same result.
func Run(client *core.Client, sc *Scenario) (*Result, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	events := sortedEvents(sc.Events)

	mood := memory.NewLiveMood(sc.Mood.Valence, sc.Mood.Arousal, sc.Mood.Dominance)
	result := &Result{Entity: sc.Entity, Days: sc.Days}
	next := 0

	for d := 0; d <= sc.Days; d++ {
		now := time.Duration(d) * day
		if err := maintain(client, result, now); err != nil {
			return result, err
		}
		if d == sc.Days {
			break
		}

		for next < len(events) && events[next].Day < float64(d+1) {
			if err := capture(client, result, events[next], mood); err != nil {
				return result, fmt.Errorf("event %d (%q): %w", next, events[next].Summary, err)
			}
			next++
		}

		client.Consolidate(mood, day)
		client.DecayAll(day)
	}

	// Events on the final day are encoded after the last pass.
	for ; next < len(events); next++ {
		if err := capture(client, result, events[next], mood); err != nil {
			return result, fmt.Errorf("event %d (%q): %w", next, events[next].Summary, err)
		}
	}

	result.Snapshot = client.Snapshot()
	result.Mood = PAD{Valence: mood.Valence(), Arousal: mood.Arousal(), Dominance: mood.Dominance()}
	return result, nil
}

func maintain(client *core.Client, result *Result, now time.Duration) error {
	report, ran, err := client.MaintainIfDue(now)
	if err != nil {
		return err
	}
	if !ran || !report.HasChanges() {
		return nil
	}
	result.Promoted += report.Promoted
	result.Purged += report.Decayed
	result.Evicted += report.Evicted
	result.Reports = append(result.Reports, report)
	return nil
}

func capture(client *core.Client, result *Result, ev Event, mood memory.Mood) error {
	tags, err := ev.tags()
	if err != nil {
		return err
	}
	source, err := ParseSource(ev.Source)
	if err != nil {
		return err
	}

	opts := []core.CaptureOption{
		core.WithTags(tags...),
		core.WithParticipants(ev.participants()...),
		core.WithSource(source),
		core.WithContext(memory.MicrosystemID(ev.Context)),
	}
	if ev.Salience != nil {
		opts = append(opts, core.WithSalience(*ev.Salience))
	}
	if ev.Mood != nil {
		opts = append(opts, core.WithSnapshot(memory.NewEmotionalSnapshot(ev.Mood.Valence, ev.Mood.Arousal, ev.Mood.Dominance)))
	} else {
		opts = append(opts, core.WithMood(mood))
	}

	timestamp := time.Duration(ev.Day * float64(day))
	res, err := client.Capture(timestamp, ev.Summary, opts...)
	if err != nil {
		return err
	}
	result.Captured++
	if res.Boosted {
		result.Boosted++
	}
	if res.Evicted != "" {
		result.Evicted++
	}
	return nil
}
