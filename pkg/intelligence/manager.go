package intelligence

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/oceanbase/episodic-go/pkg/memory"
)

// ErrMaintenanceInvariant is returned by ApplyMemoryMaintenance when a
// pre-filtered candidate fails to promote. It indicates a bug, not a
// condition callers are expected to handle.
var ErrMaintenanceInvariant = errors.New("maintenance invariant violated")

// MaintenanceManager applies the promotion and decay policy to an entity's
// memory layers.
//
// The manager holds no per-entity state and may be shared by any number of
// entities, but each MemoryLayers it is handed must only be touched by one
// goroutine at a time.
//
// Example usage:
//
//	manager := NewMaintenanceManager(nil, WithLogger(logger))
//	if manager.ShouldRunMaintenance(lastRun, now) {
//	    report, err := manager.ApplyMemoryMaintenance(layers, now)
//	    ...
//	}
type MaintenanceManager struct {
	config   *Config
	logger   *zap.Logger
	observer Observer
}

// ManagerOption configures a MaintenanceManager.
type ManagerOption func(*MaintenanceManager)

// WithLogger sets the logger. Promotions, purges and evictions are logged
// at debug level, run summaries at info level.
func WithLogger(logger *zap.Logger) ManagerOption {
	return func(m *MaintenanceManager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithObserver registers an observer for maintenance events.
func WithObserver(observer Observer) ManagerOption {
	return func(m *MaintenanceManager) {
		m.observer = observer
	}
}

// NewMaintenanceManager creates a manager for config (nil uses DefaultConfig).
func NewMaintenanceManager(config *Config, opts ...ManagerOption) *MaintenanceManager {
	if config == nil {
		config = DefaultConfig()
	}
	m := &MaintenanceManager{
		config: config,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

var defaultManager = NewMaintenanceManager(nil)

// Config returns the manager's policy.
func (m *MaintenanceManager) Config() *Config {
	return m.config
}

// PromoteMemory moves the memory with id up one tier under the default policy.
func PromoteMemory(layers *memory.MemoryLayers, id memory.MemoryID) error {
	return defaultManager.PromoteMemory(layers, id)
}

// PromoteMemoryAt is PromoteMemory with the consolidation window checked
// against elapsed, under the default policy.
func PromoteMemoryAt(layers *memory.MemoryLayers, id memory.MemoryID, elapsed time.Duration) error {
	return defaultManager.PromoteMemoryAt(layers, id, elapsed)
}

// CheckDecay returns a *memory.BelowDecayThresholdError if entry's salience
// is below threshold.
func CheckDecay(entry *memory.MemoryEntry, threshold float64) error {
	if s := entry.Salience(); s < threshold {
		return &memory.BelowDecayThresholdError{Salience: s, Threshold: threshold}
	}
	return nil
}

// DecayLowSalience purges ShortTerm memories below threshold under the
// default policy.
func DecayLowSalience(layers *memory.MemoryLayers, threshold float64) []memory.MemoryID {
	return defaultManager.DecayLowSalience(layers, threshold)
}

// ApplyMemoryMaintenance runs one maintenance pass under the default policy.
func ApplyMemoryMaintenance(layers *memory.MemoryLayers, elapsed time.Duration) (*MaintenanceReport, error) {
	return defaultManager.ApplyMemoryMaintenance(layers, elapsed)
}

// PromoteMemory moves the memory with id up one tier.
//
// It fails with:
//   - *memory.NotFoundError if no tier holds id
//   - *memory.InvalidLayerTransitionError if the memory is already Legacy
//   - *memory.SalienceThresholdError if salience is below the tier threshold
//   - memory.ErrMissingMilestoneTag for a Legacy promotion without TagMilestone
//
// The consolidation window is not checked; use PromoteMemoryAt for that.
// A full destination tier evicts its least important entry.
func (m *MaintenanceManager) PromoteMemory(layers *memory.MemoryLayers, id memory.MemoryID) error {
	_, _, err := m.promote(layers, id, nil)
	return err
}

// PromoteMemoryAt is PromoteMemory that also requires the arousal-modulated
// consolidation window to have passed between the memory's encoding and
// elapsed. It fails with *memory.ConsolidationWindowError otherwise.
func (m *MaintenanceManager) PromoteMemoryAt(layers *memory.MemoryLayers, id memory.MemoryID, elapsed time.Duration) error {
	_, _, err := m.promote(layers, id, &elapsed)
	return err
}

// promote checks every requirement, then moves the entry. It returns the
// source tier and any entry evicted from the destination.
func (m *MaintenanceManager) promote(layers *memory.MemoryLayers, id memory.MemoryID, elapsed *time.Duration) (memory.MemoryLayer, *memory.MemoryEntry, error) {
	from, ok := layers.FindLayer(id)
	if !ok {
		return 0, nil, &memory.NotFoundError{ID: id}
	}
	to, ok := from.Next()
	if !ok {
		return from, nil, &memory.InvalidLayerTransitionError{From: from, To: from}
	}

	entry := layers.GetByIDMut(id)
	if err := m.checkEligible(entry, from, elapsed); err != nil {
		return from, nil, err
	}

	evicted, err := layers.MoveToLayer(id, to)
	if err != nil {
		return from, nil, err
	}

	m.logger.Debug("memory promoted",
		zap.String("memory_id", id.String()),
		zap.Stringer("from", from),
		zap.Stringer("to", to))
	m.notifyPromotion(from, to)
	if evicted != nil {
		m.logger.Debug("memory evicted",
			zap.String("memory_id", evicted.ID().String()),
			zap.Stringer("layer", to),
			zap.Float64("salience", evicted.Salience()))
		m.notifyEviction(to)
	}
	return from, evicted, nil
}

func (m *MaintenanceManager) checkEligible(entry *memory.MemoryEntry, from memory.MemoryLayer, elapsed *time.Duration) error {
	required, _ := m.config.Threshold(from)
	if s := entry.Salience(); s < required {
		return &memory.SalienceThresholdError{Required: required, Actual: s}
	}
	if from == memory.LayerLongTerm && !entry.HasTag(memory.TagMilestone) {
		return memory.ErrMissingMilestoneTag
	}
	if elapsed != nil {
		window := m.config.ConsolidationWindow(from, entry.EmotionalSnapshot().Arousal())
		if since := sinceEncoding(entry, *elapsed); since < window {
			return &memory.ConsolidationWindowError{Required: window, Elapsed: since}
		}
	}
	return nil
}

func sinceEncoding(entry *memory.MemoryEntry, elapsed time.Duration) time.Duration {
	return max(elapsed-entry.Timestamp(), 0)
}

// DecayLowSalience removes every ShortTerm memory whose salience is below
// threshold and returns their ids. Immediate, LongTerm and Legacy are never
// touched.
func (m *MaintenanceManager) DecayLowSalience(layers *memory.MemoryLayers, threshold float64) []memory.MemoryID {
	var doomed []memory.MemoryID
	for layer, entry := range layers.AllWithLayer() {
		if layer != memory.LayerShortTerm {
			continue
		}
		if CheckDecay(entry, threshold) != nil {
			doomed = append(doomed, entry.ID())
		}
	}

	for _, id := range doomed {
		layers.RemoveByID(id)
		m.logger.Debug("memory purged", zap.String("memory_id", id.String()), zap.Float64("threshold", threshold))
		if m.observer != nil {
			m.observer.ObservePurge(memory.LayerShortTerm)
		}
	}
	return doomed
}

// ApplyMemoryMaintenance runs one maintenance pass at elapsed, the
// simulated time since entity creation.
//
// The pass:
//  1. purges ShortTerm memories below the decay threshold
//  2. collects, per tier, the memories meeting the salience threshold, the
//     consolidation window and (for LongTerm) the Milestone tag
//  3. promotes every collected memory by exactly one tier
//
// Candidates are collected before any memory moves, and a memory already
// promoted by a pass at or after elapsed is skipped, so each memory advances
// at most one tier per maintenance instant and re-running with the same
// elapsed changes nothing. Promotions run from the highest tier down so a
// pending candidate is never evicted by a promotion from below.
//
// A candidate that fails to promote returns an error wrapping
// ErrMaintenanceInvariant along with the partial report.
func (m *MaintenanceManager) ApplyMemoryMaintenance(layers *memory.MemoryLayers, elapsed time.Duration) (*MaintenanceReport, error) {
	start := time.Now()
	report := &MaintenanceReport{Elapsed: elapsed}

	for _, id := range m.DecayLowSalience(layers, m.config.DecayThreshold) {
		report.addDecayed(id)
	}

	var candidates [memory.LayerLegacy][]memory.MemoryID
	for layer, entry := range layers.AllWithLayer() {
		if layer == memory.LayerLegacy || !m.eligibleAt(entry, layer, elapsed) {
			continue
		}
		candidates[layer] = append(candidates[layer], entry.ID())
	}

	for _, layer := range []memory.MemoryLayer{memory.LayerLongTerm, memory.LayerShortTerm, memory.LayerImmediate} {
		for _, id := range candidates[layer] {
			_, evicted, err := m.promote(layers, id, &elapsed)
			if err != nil {
				m.logger.Error("maintenance candidate failed to promote",
					zap.String("memory_id", id.String()),
					zap.Stringer("layer", layer),
					zap.Error(err))
				return report, fmt.Errorf("%w: promote %s from %s: %w", ErrMaintenanceInvariant, id, layer, err)
			}
			if moved := layers.GetByIDMut(id); moved != nil {
				moved.RecordPromotion(elapsed)
			}
			report.addPromoted(id)
			if evicted != nil {
				report.addEvicted(evicted.ID())
			}
		}
	}

	if m.observer != nil {
		m.observer.ObserveLayers(layers)
	}
	if report.HasChanges() {
		m.logger.Info("memory maintenance complete",
			zap.Duration("elapsed", elapsed),
			zap.Int("promoted", report.Promoted),
			zap.Int("decayed", report.Decayed),
			zap.Int("evicted", report.Evicted),
			zap.Int("total", layers.TotalCount()),
			zap.Duration("took", time.Since(start)))
	}
	return report, nil
}

// eligibleAt reports whether entry in layer would promote at elapsed.
func (m *MaintenanceManager) eligibleAt(entry *memory.MemoryEntry, layer memory.MemoryLayer, elapsed time.Duration) bool {
	if at, ok := entry.LastPromotion(); ok && at >= elapsed {
		return false
	}
	return m.checkEligible(entry, layer, &elapsed) == nil
}

// ApplyTraumaSalienceBoost multiplies the salience of an entry tagged
// Violence, Death, Crisis or Betrayal by the manager's trauma boost,
// clamped to 1. Other entries are unchanged. It reports whether the boost
// was applied and must run once, at encoding.
func (m *MaintenanceManager) ApplyTraumaSalienceBoost(entry *memory.MemoryEntry) bool {
	if !HasTraumaTag(entry) {
		return false
	}
	before := entry.Salience()
	entry.SetSalience(before * m.config.TraumaBoost)
	m.logger.Debug("trauma salience boost",
		zap.String("memory_id", entry.ID().String()),
		zap.Float64("before", before),
		zap.Float64("after", entry.Salience()))
	return true
}

func (m *MaintenanceManager) notifyPromotion(from, to memory.MemoryLayer) {
	if m.observer != nil {
		m.observer.ObservePromotion(from, to)
	}
}

func (m *MaintenanceManager) notifyEviction(layer memory.MemoryLayer) {
	if m.observer != nil {
		m.observer.ObserveEviction(layer)
	}
}
