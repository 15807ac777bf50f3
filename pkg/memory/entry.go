package memory

import (
	"math"
	"slices"
	"time"
)

// DefaultSalience is the salience of an entry created without WithSalience.
const DefaultSalience = 0.5

// MemoryEntry is a single episodic memory.
//
// An entry's logical content is fixed at creation. The only mutations are
// salience changes (SetSalience, ApplySalienceDecay) and the promotion
// bookkeeping written by maintenance. MemoryLayers owns entries by value.
//
// Example:
//
//	entry := memory.NewMemoryEntry(72*time.Hour, "Argued with a sibling",
//	    memory.WithTags(memory.TagConflict, memory.TagPersonal),
//	    memory.WithParticipants("entity_sibling"),
//	    memory.WithSalience(0.6),
//	)
type MemoryEntry struct {
	id                 MemoryID
	eventID            EventID
	timestamp          time.Duration
	participants       []EntityID
	tags               []MemoryTag
	source             MemorySource
	sourceConfidence   float64
	snapshot           EmotionalSnapshot
	salience           float64
	deltas             DeltasApplied
	summary            string
	microsystemContext MicrosystemID

	lastPromotion time.Duration
	promoted      bool
}

// EntryOption configures a MemoryEntry at creation.
type EntryOption func(*MemoryEntry)

// WithEventID links the memory to the event that produced it.
func WithEventID(id EventID) EntryOption {
	return func(e *MemoryEntry) { e.eventID = id }
}

// WithParticipants sets the entities involved in the memory.
func WithParticipants(ids ...EntityID) EntryOption {
	return func(e *MemoryEntry) { e.participants = append(e.participants, ids...) }
}

// WithTags sets the memory's tags. Order is irrelevant to queries.
func WithTags(tags ...MemoryTag) EntryOption {
	return func(e *MemoryEntry) { e.tags = append(e.tags, tags...) }
}

// WithSource sets how the entity learned about the event and caches the
// source's confidence.
func WithSource(source MemorySource) EntryOption {
	return func(e *MemoryEntry) {
		e.source = source
		e.sourceConfidence = source.Confidence()
	}
}

// WithEmotionalSnapshot sets the frozen mood at encoding.
func WithEmotionalSnapshot(s EmotionalSnapshot) EntryOption {
	return func(e *MemoryEntry) { e.snapshot = s }
}

// WithSalience sets the initial salience, clamped to [0, 1].
func WithSalience(salience float64) EntryOption {
	return func(e *MemoryEntry) { e.salience = clamp(salience, 0, 1) }
}

// WithDeltasApplied records what the event changed.
func WithDeltasApplied(d DeltasApplied) EntryOption {
	return func(e *MemoryEntry) { e.deltas = d }
}

// WithMicrosystemContext sets the social context the memory formed in.
func WithMicrosystemContext(id MicrosystemID) EntryOption {
	return func(e *MemoryEntry) { e.microsystemContext = id }
}

// NewMemoryEntry creates an entry with a freshly generated MemoryID.
//
// timestamp is simulated time since entity creation; negative values are
// treated as zero.
func NewMemoryEntry(timestamp time.Duration, summary string, opts ...EntryOption) MemoryEntry {
	return NewMemoryEntryWithID(NewMemoryID(), timestamp, summary, opts...)
}

// NewMemoryEntryWithID creates an entry with a caller-chosen id.
func NewMemoryEntryWithID(id MemoryID, timestamp time.Duration, summary string, opts ...EntryOption) MemoryEntry {
	if timestamp < 0 {
		timestamp = 0
	}
	e := MemoryEntry{
		id:               id,
		timestamp:        timestamp,
		source:           SourceSelf,
		sourceConfidence: SourceSelf.Confidence(),
		snapshot:         NeutralSnapshot(),
		salience:         DefaultSalience,
		summary:          summary,
	}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// ID returns the entry's unique id.
func (e MemoryEntry) ID() MemoryID { return e.id }

// Timestamp returns the simulated time of encoding since entity creation.
func (e MemoryEntry) Timestamp() time.Duration { return e.timestamp }

// Source returns how the entity learned about the event.
func (e MemoryEntry) Source() MemorySource { return e.source }

// SourceConfidence returns the confidence cached from the source at creation.
func (e MemoryEntry) SourceConfidence() float64 { return e.sourceConfidence }

// EmotionalSnapshot returns the mood frozen at encoding.
func (e MemoryEntry) EmotionalSnapshot() EmotionalSnapshot { return e.snapshot }

// Salience returns the current salience in [0, 1].
func (e MemoryEntry) Salience() float64 { return e.salience }

// DeltasApplied returns what the originating event changed.
func (e MemoryEntry) DeltasApplied() DeltasApplied { return e.deltas }

// Summary returns the opaque description of the event.
func (e MemoryEntry) Summary() string { return e.summary }

// EventID returns the originating event, if any.
func (e MemoryEntry) EventID() (EventID, bool) {
	return e.eventID, e.eventID != ""
}

// MicrosystemContext returns the context the memory formed in, if any.
func (e MemoryEntry) MicrosystemContext() (MicrosystemID, bool) {
	return e.microsystemContext, e.microsystemContext != ""
}

// Participants returns a copy of the involved entities.
func (e MemoryEntry) Participants() []EntityID {
	return slices.Clone(e.participants)
}

// Tags returns a copy of the memory's tags.
func (e MemoryEntry) Tags() []MemoryTag {
	return slices.Clone(e.tags)
}

// HasTag reports whether the memory carries tag.
func (e MemoryEntry) HasTag(tag MemoryTag) bool {
	return slices.Contains(e.tags, tag)
}

// InvolvesParticipant reports whether id took part in the memory.
func (e MemoryEntry) InvolvesParticipant(id EntityID) bool {
	return slices.Contains(e.participants, id)
}

// IsInContext reports whether the memory formed in the given context.
func (e MemoryEntry) IsInContext(id MicrosystemID) bool {
	return e.microsystemContext != "" && e.microsystemContext == id
}

// SetSalience replaces the salience, clamped to [0, 1].
func (e *MemoryEntry) SetSalience(salience float64) {
	e.salience = clamp(salience, 0, 1)
}

// ApplySalienceDecay decays salience exponentially over duration.
//
// The formula is:
//
//	salience = salience * 2^(-(elapsed_days * timeScale) / halfLifeDays)
//
// Elapsed days are fractional, so decaying for d1 then d2 equals decaying
// once for d1+d2. A non-positive duration, time scale or half-life leaves
// the salience unchanged.
func (e *MemoryEntry) ApplySalienceDecay(duration time.Duration, timeScale, halfLifeDays float64) {
	e.salience = DecaySalience(e.salience, duration, timeScale, halfLifeDays)
}

// DecaySalience returns salience decayed over duration without mutating
// any entry.
func DecaySalience(salience float64, duration time.Duration, timeScale, halfLifeDays float64) float64 {
	if duration <= 0 || timeScale <= 0 || halfLifeDays <= 0 {
		return clamp(salience, 0, 1)
	}
	scaledDays := days(duration) * timeScale
	return clamp(salience*math.Exp2(-scaledDays/halfLifeDays), 0, 1)
}

// LastPromotion returns the maintenance instant at which the entry was last
// moved by batch maintenance.
func (e MemoryEntry) LastPromotion() (time.Duration, bool) {
	return e.lastPromotion, e.promoted
}

// RecordPromotion stamps the entry with the maintenance instant that moved it.
func (e *MemoryEntry) RecordPromotion(at time.Duration) {
	e.lastPromotion = at
	e.promoted = true
}

func days(d time.Duration) float64 {
	return d.Hours() / 24
}
