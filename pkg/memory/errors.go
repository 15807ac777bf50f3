package memory

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for the memory engine. The typed errors below match them
// through errors.Is, so callers can branch on the kind and still use
// errors.As to read the details.
var (
	// ErrMemoryNotFound indicates that no tier holds the requested id.
	ErrMemoryNotFound = errors.New("memory not found")

	// ErrInvalidLayerTransition indicates a promotion with no next tier.
	ErrInvalidLayerTransition = errors.New("invalid layer transition")

	// ErrSalienceThresholdNotMet indicates salience below the promotion threshold.
	ErrSalienceThresholdNotMet = errors.New("salience threshold not met")

	// ErrConsolidationWindowNotElapsed indicates the arousal-modulated
	// consolidation window has not passed yet.
	ErrConsolidationWindowNotElapsed = errors.New("consolidation window not elapsed")

	// ErrMissingMilestoneTag indicates a Legacy promotion without TagMilestone.
	ErrMissingMilestoneTag = errors.New("legacy promotion requires Milestone tag")

	// ErrBelowDecayThreshold indicates salience below the purge threshold.
	ErrBelowDecayThreshold = errors.New("below decay threshold")

	// ErrInvalidID indicates an empty memory id.
	ErrInvalidID = errors.New("invalid memory id")
)

// NotFoundError reports a by-id operation on an id no tier holds.
type NotFoundError struct {
	ID MemoryID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("memory not found: %s", e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrMemoryNotFound }

// InvalidLayerTransitionError reports a promotion that has no valid target.
// From and To are equal when the source tier has no successor.
type InvalidLayerTransitionError struct {
	From MemoryLayer
	To   MemoryLayer
}

func (e *InvalidLayerTransitionError) Error() string {
	return fmt.Sprintf("invalid layer transition: %s -> %s", e.From, e.To)
}

func (e *InvalidLayerTransitionError) Is(target error) bool {
	return target == ErrInvalidLayerTransition
}

// SalienceThresholdError reports a promotion attempted below threshold.
type SalienceThresholdError struct {
	Required float64
	Actual   float64
}

func (e *SalienceThresholdError) Error() string {
	return fmt.Sprintf("salience threshold not met: required %g, actual %g", e.Required, e.Actual)
}

func (e *SalienceThresholdError) Is(target error) bool {
	return target == ErrSalienceThresholdNotMet
}

// ConsolidationWindowError reports a promotion attempted before the
// consolidation window elapsed.
type ConsolidationWindowError struct {
	Required time.Duration
	Elapsed  time.Duration
}

func (e *ConsolidationWindowError) Error() string {
	return fmt.Sprintf("consolidation window not elapsed: required %s, elapsed %s", e.Required, e.Elapsed)
}

func (e *ConsolidationWindowError) Is(target error) bool {
	return target == ErrConsolidationWindowNotElapsed
}

// BelowDecayThresholdError reports a memory whose salience fell below the
// purge threshold.
type BelowDecayThresholdError struct {
	Salience  float64
	Threshold float64
}

func (e *BelowDecayThresholdError) Error() string {
	return fmt.Sprintf("memory below decay threshold: salience %g, threshold %g", e.Salience, e.Threshold)
}

func (e *BelowDecayThresholdError) Is(target error) bool {
	return target == ErrBelowDecayThreshold
}
