package core

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/oceanbase/episodic-go/pkg/intelligence"
	"github.com/oceanbase/episodic-go/pkg/memory"
	"github.com/oceanbase/episodic-go/pkg/metrics"
)

// Client is the episodic memory of one simulated entity.
//
// It ties together:
//   - the four-tier memory container
//   - the promotion and purge policy (maintenance)
//   - mood consolidation
//   - logging and optional Prometheus metrics
//
// A Client is not safe for concurrent use. Each entity owns its own Client;
// the simulation drives time by passing elapsed simulated durations.
//
// Example usage:
//
//	config, _ := core.LoadConfigFromEnv()
//	client, _ := core.NewClient("alice", config)
//
//	client.Capture(10*24*time.Hour, "lost her job",
//	    core.WithTags(memory.TagLoss, memory.TagMission),
//	    core.WithSalience(0.7),
//	)
//	report, _ := client.Maintain(11 * 24 * time.Hour)
type Client struct {
	// entity is the owner of the memories.
	entity memory.EntityID

	// config contains the client configuration.
	config *Config

	// layers holds the entity's memories.
	layers *memory.MemoryLayers

	// manager applies the promotion and purge policy.
	manager *intelligence.MaintenanceManager

	logger   *zap.Logger
	recorder *metrics.Recorder

	// lastMaintenance is the elapsed time of the last successful maintenance run.
	lastMaintenance *time.Duration
}

// NewClient creates the memory of entity.
//
// A nil config uses DefaultConfig. The configuration is validated first.
// Unless overridden by options, the logger is built from config.Logging and
// a metrics recorder is created when config.Metrics.Enabled is set.
//
// Parameters:
//   - entity: The entity that owns the memories; must not be empty
//   - config: Client configuration
//   - opts: Logger and metrics overrides
//
// Returns a Client instance, or an error if initialization fails.
func NewClient(entity memory.EntityID, config *Config, opts ...ClientOption) (*Client, error) {
	if entity == "" {
		return nil, NewMemoryError("NewClient", fmt.Errorf("%w: entity id is required", ErrInvalidInput))
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, NewMemoryError("NewClient", err)
	}

	options := &clientOptions{}
	for _, opt := range opts {
		opt(options)
	}

	logger := options.logger
	if logger == nil {
		var err error
		logger, err = NewLogger(config.Logging)
		if err != nil {
			return nil, NewMemoryError("NewClient", err)
		}
	}
	logger = logger.With(zap.String("entity_id", string(entity)))

	recorder := options.recorder
	if recorder == nil && config.Metrics.Enabled {
		recorder = metrics.NewRecorder(config.Metrics.Namespace)
		if options.registerer != nil {
			if err := recorder.Register(options.registerer); err != nil {
				return nil, NewMemoryError("NewClient", fmt.Errorf("%w: %w", ErrMetricsRegistration, err))
			}
		}
	}

	managerOpts := []intelligence.ManagerOption{intelligence.WithLogger(logger)}
	if recorder != nil {
		managerOpts = append(managerOpts, intelligence.WithObserver(recorder))
	}

	return &Client{
		entity:   entity,
		config:   config,
		layers:   memory.NewMemoryLayers(),
		manager:  intelligence.NewMaintenanceManager(&config.Maintenance, managerOpts...),
		logger:   logger,
		recorder: recorder,
	}, nil
}

// EntityID returns the entity that owns the memories.
func (c *Client) EntityID() memory.EntityID {
	return c.entity
}

// Config returns the client configuration.
func (c *Client) Config() *Config {
	return c.config
}

// Layers returns the underlying container. Mutating it bypasses logging and
// metrics.
func (c *Client) Layers() *memory.MemoryLayers {
	return c.layers
}

// Capture encodes a new memory into the Immediate tier.
//
// The trauma salience boost is applied once, here, when the memory carries a
// trauma tag. When the Immediate tier is full, the least salient memory is
// evicted and reported in the result.
//
// Parameters:
//   - timestamp: Simulated time of the event; must not be negative
//   - summary: Opaque description of the event
//   - opts: Tags, participants, source, salience, mood and context
//
// Example:
//
//	result, err := client.Capture(now, "was attacked on the way home",
//	    core.WithTags(memory.TagViolence),
//	    core.WithMood(currentMood),
//	)
func (c *Client) Capture(timestamp time.Duration, summary string, opts ...CaptureOption) (*CaptureResult, error) {
	if timestamp < 0 {
		return nil, NewMemoryError("Capture", fmt.Errorf("%w: negative timestamp %s", ErrInvalidInput, timestamp))
	}

	options := applyCaptureOptions(opts)
	entry := memory.NewMemoryEntry(timestamp, summary, options.entryOptions()...)
	boosted := c.manager.ApplyTraumaSalienceBoost(&entry)

	result := &CaptureResult{Entry: entry, ID: entry.ID(), Boosted: boosted}
	if evicted := c.layers.Add(memory.LayerImmediate, entry); evicted != nil {
		result.Evicted = evicted.ID()
		c.recorder.ObserveEviction(memory.LayerImmediate)
		c.logger.Debug("memory evicted",
			zap.String("memory_id", evicted.ID().String()),
			zap.Stringer("layer", memory.LayerImmediate),
			zap.Float64("salience", evicted.Salience()))
	}
	c.recorder.ObserveCapture()

	c.logger.Debug("memory captured",
		zap.String("memory_id", entry.ID().String()),
		zap.Duration("timestamp", timestamp),
		zap.Float64("salience", entry.Salience()),
		zap.Bool("trauma_boost", boosted))
	return result, nil
}

// Get returns a copy of the memory with id and the tier holding it.
func (c *Client) Get(id memory.MemoryID) (memory.MemoryEntry, memory.MemoryLayer, error) {
	layer, ok := c.layers.FindLayer(id)
	if !ok {
		return memory.MemoryEntry{}, 0, NewMemoryError("Get", &memory.NotFoundError{ID: id})
	}
	entry, _ := c.layers.GetByID(id)
	return entry, layer, nil
}

// Forget removes the memory with id from whichever tier holds it.
func (c *Client) Forget(id memory.MemoryID) (memory.MemoryEntry, error) {
	entry, ok := c.layers.RemoveByID(id)
	if !ok {
		return memory.MemoryEntry{}, NewMemoryError("Forget", &memory.NotFoundError{ID: id})
	}
	c.logger.Debug("memory forgotten", zap.String("memory_id", id.String()))
	return entry, nil
}

// Promote moves one memory up a single tier at elapsed, checking the
// salience threshold, the Legacy milestone gate and the consolidation window.
//
// Errors wrap the memory package's typed errors, so callers can use
// errors.Is(err, memory.ErrSalienceThresholdNotMet) and similar.
func (c *Client) Promote(id memory.MemoryID, elapsed time.Duration) error {
	return NewMemoryError("Promote", c.manager.PromoteMemoryAt(c.layers, id, elapsed))
}

// Maintain runs one maintenance pass at elapsed: purge low-salience
// short-term memories, then promote every eligible memory by one tier.
//
// Running twice at the same elapsed changes nothing the second time.
func (c *Client) Maintain(elapsed time.Duration) (*intelligence.MaintenanceReport, error) {
	report, err := c.manager.ApplyMemoryMaintenance(c.layers, elapsed)
	if err != nil {
		return report, NewMemoryError("Maintain", err)
	}
	c.lastMaintenance = &elapsed
	return report, nil
}

// MaintainIfDue runs Maintain when no pass has run yet or the maintenance
// interval has passed since the last one. It reports whether a pass ran.
//
// Example:
//
//	for now := time.Duration(0); now < horizon; now += time.Hour {
//	    if _, ran, err := client.MaintainIfDue(now); err != nil {
//	        return err
//	    } else if ran {
//	        client.DecayAll(24 * time.Hour)
//	    }
//	}
func (c *Client) MaintainIfDue(elapsed time.Duration) (*intelligence.MaintenanceReport, bool, error) {
	if c.lastMaintenance != nil && !c.manager.ShouldRunMaintenance(*c.lastMaintenance, elapsed) {
		return nil, false, nil
	}
	report, err := c.Maintain(elapsed)
	return report, true, err
}

// DecayAll decays the salience of every non-Legacy memory over duration,
// using the configured time scale and half-life.
func (c *Client) DecayAll(duration time.Duration) {
	c.layers.ApplySalienceDecayAll(duration, c.config.Memory.TimeScale, c.config.Memory.SalienceHalfLifeDays)
}

// Consolidate primes state with the emotional weight of the stored
// memories over duration and returns the deltas applied.
func (c *Client) Consolidate(state memory.MoodState, duration time.Duration) intelligence.PrimingDeltas {
	applied := intelligence.ApplyMemoryConsolidation(state, c.layers, duration)
	if !applied.IsZero() {
		c.logger.Debug("mood primed by memories",
			zap.Duration("duration", duration),
			zap.Float64("valence_delta", applied.ValenceDelta),
			zap.Float64("arousal_delta", applied.ArousalDelta))
	}
	return applied
}

// Retrieve returns the best-matching memories at now, ranked by the
// weighted retrieval score. Without a limit option the configured
// retrieval limit applies.
//
// The returned entries point into the container and stay valid until the
// next mutating call.
//
// Example:
//
//	results := client.Retrieve(now,
//	    core.WithTagsForRetrieve(memory.TagBetrayal),
//	    core.WithParticipantForRetrieve("bob"),
//	    core.WithMoodForRetrieve(mood),
//	    core.WithLimit(3),
//	)
func (c *Client) Retrieve(now time.Duration, opts ...RetrieveOption) []memory.ScoredMemory {
	options := applyRetrieveOptions(c.config.Memory.RetrievalLimit, opts)
	results := c.layers.RetrieveScored(options.query(now))
	c.recorder.ObserveRetrieval("scored", len(results))
	return results
}

// RetrieveBySalience returns memories with salience at or above threshold,
// most salient first.
func (c *Client) RetrieveBySalience(threshold float64) []*memory.MemoryEntry {
	return c.observed("by_salience", c.layers.RetrieveBySalience(threshold))
}

// RetrieveMoodCongruent returns memories whose emotional snapshot is at
// least minCongruence congruent with mood, most salient first.
func (c *Client) RetrieveMoodCongruent(mood memory.Mood, minCongruence float64) []*memory.MemoryEntry {
	return c.observed("mood_congruent", c.layers.RetrieveMoodCongruent(mood, minCongruence))
}

// RetrieveByTag returns memories carrying tag.
func (c *Client) RetrieveByTag(tag memory.MemoryTag) []*memory.MemoryEntry {
	return c.observed("by_tag", c.layers.RetrieveByTag(tag))
}

// RetrieveByParticipant returns memories involving id.
func (c *Client) RetrieveByParticipant(id memory.EntityID) []*memory.MemoryEntry {
	return c.observed("by_participant", c.layers.RetrieveByParticipant(id))
}

// RetrieveByContext returns memories formed in microsystem id.
func (c *Client) RetrieveByContext(id memory.MicrosystemID) []*memory.MemoryEntry {
	return c.observed("by_context", c.layers.RetrieveByContext(id))
}

func (c *Client) observed(kind string, results []*memory.MemoryEntry) []*memory.MemoryEntry {
	c.recorder.ObserveRetrieval(kind, len(results))
	return results
}

// Snapshot returns the tier counts and the last maintenance time.
func (c *Client) Snapshot() Snapshot {
	snap := Snapshot{
		EntityID: c.entity,
		Layers:   statsOf(c.layers),
	}
	if c.lastMaintenance != nil {
		last := *c.lastMaintenance
		snap.LastMaintenance = &last
	}
	return snap
}
