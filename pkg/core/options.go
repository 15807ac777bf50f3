package core

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/oceanbase/episodic-go/pkg/memory"
	"github.com/oceanbase/episodic-go/pkg/metrics"
)

// ClientOption configures a Client at construction.
type ClientOption func(*clientOptions)

type clientOptions struct {
	logger     *zap.Logger
	recorder   *metrics.Recorder
	registerer prometheus.Registerer
}

// WithLogger sets the logger used by the client and its maintenance manager.
// It takes precedence over Config.Logging.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(opts *clientOptions) {
		opts.logger = logger
	}
}

// WithRecorder shares one metrics recorder across clients.
//
// A simulation normally creates one Recorder, registers it once, and hands
// it to every entity's client. It takes precedence over Config.Metrics.
//
// Example:
//
//	rec := metrics.NewRecorder("sim")
//	_ = rec.Register(prometheus.DefaultRegisterer)
//	client, _ := core.NewClient("alice", cfg, core.WithRecorder(rec))
func WithRecorder(recorder *metrics.Recorder) ClientOption {
	return func(opts *clientOptions) {
		opts.recorder = recorder
	}
}

// WithRegisterer sets where a recorder created from Config.Metrics is
// registered. Without it the recorder is created but not registered.
func WithRegisterer(reg prometheus.Registerer) ClientOption {
	return func(opts *clientOptions) {
		opts.registerer = reg
	}
}

// CaptureOption is a function type for configuring Capture operations.
//
// Options are applied using the functional options pattern, allowing
// flexible configuration without requiring all parameters.
type CaptureOption func(*CaptureOptions)

// CaptureOptions contains configuration options for Capture operations.
type CaptureOptions struct {
	// EventID links the memory to the event that produced it.
	EventID memory.EventID

	// Participants are the entities involved in the event.
	Participants []memory.EntityID

	// Tags classify the event.
	Tags []memory.MemoryTag

	// Source is how the entity learned of the event. Default: SourceSelf
	Source memory.MemorySource

	// Salience is the encoding salience before any trauma boost.
	// Nil means memory.DefaultSalience.
	Salience *float64

	// Mood is the entity's mood at encoding. It is ignored when Snapshot is set.
	Mood memory.Mood

	// Snapshot is the emotional snapshot recorded with the memory.
	Snapshot *memory.EmotionalSnapshot

	// Context is the microsystem the event happened in.
	Context memory.MicrosystemID

	// Deltas records the relationship and reputation changes the event caused.
	Deltas memory.DeltasApplied
}

// WithEventID sets the originating event for Capture operations.
func WithEventID(id memory.EventID) CaptureOption {
	return func(opts *CaptureOptions) {
		opts.EventID = id
	}
}

// WithParticipants sets the participants for Capture operations.
//
// Example:
//
//	client.Capture(now, "argued with Bob", core.WithParticipants("bob"))
func WithParticipants(ids ...memory.EntityID) CaptureOption {
	return func(opts *CaptureOptions) {
		opts.Participants = append(opts.Participants, ids...)
	}
}

// WithTags adds tags for Capture operations.
//
// Trauma tags (Violence, Death, Crisis, Betrayal) boost salience at encoding.
//
// Example:
//
//	client.Capture(now, "house fire", core.WithTags(memory.TagCrisis, memory.TagLoss))
func WithTags(tags ...memory.MemoryTag) CaptureOption {
	return func(opts *CaptureOptions) {
		opts.Tags = append(opts.Tags, tags...)
	}
}

// WithSource sets the memory source for Capture operations.
func WithSource(source memory.MemorySource) CaptureOption {
	return func(opts *CaptureOptions) {
		opts.Source = source
	}
}

// WithSalience sets the encoding salience for Capture operations.
func WithSalience(salience float64) CaptureOption {
	return func(opts *CaptureOptions) {
		opts.Salience = &salience
	}
}

// WithMood records the entity's current mood as the memory's emotional snapshot.
func WithMood(mood memory.Mood) CaptureOption {
	return func(opts *CaptureOptions) {
		opts.Mood = mood
	}
}

// WithSnapshot sets the emotional snapshot explicitly.
func WithSnapshot(snapshot memory.EmotionalSnapshot) CaptureOption {
	return func(opts *CaptureOptions) {
		opts.Snapshot = &snapshot
	}
}

// WithContext sets the microsystem context for Capture operations.
func WithContext(id memory.MicrosystemID) CaptureOption {
	return func(opts *CaptureOptions) {
		opts.Context = id
	}
}

// WithDeltas records the relationship and reputation changes of the event.
func WithDeltas(deltas memory.DeltasApplied) CaptureOption {
	return func(opts *CaptureOptions) {
		opts.Deltas = deltas
	}
}

// applyCaptureOptions applies CaptureOption functions and returns the resulting CaptureOptions.
func applyCaptureOptions(opts []CaptureOption) *CaptureOptions {
	options := &CaptureOptions{}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// entryOptions converts the capture options to memory entry options.
func (o *CaptureOptions) entryOptions() []memory.EntryOption {
	entryOpts := []memory.EntryOption{memory.WithSource(o.Source)}
	if o.EventID != "" {
		entryOpts = append(entryOpts, memory.WithEventID(o.EventID))
	}
	if len(o.Participants) > 0 {
		entryOpts = append(entryOpts, memory.WithParticipants(o.Participants...))
	}
	if len(o.Tags) > 0 {
		entryOpts = append(entryOpts, memory.WithTags(o.Tags...))
	}
	if o.Salience != nil {
		entryOpts = append(entryOpts, memory.WithSalience(*o.Salience))
	}
	switch {
	case o.Snapshot != nil:
		entryOpts = append(entryOpts, memory.WithEmotionalSnapshot(*o.Snapshot))
	case o.Mood != nil:
		entryOpts = append(entryOpts, memory.WithEmotionalSnapshot(memory.SnapshotFromMood(o.Mood)))
	}
	if o.Context != "" {
		entryOpts = append(entryOpts, memory.WithMicrosystemContext(o.Context))
	}
	if o.Deltas.HasChanges() {
		entryOpts = append(entryOpts, memory.WithDeltasApplied(o.Deltas))
	}
	return entryOpts
}

// RetrieveOption is a function type for configuring Retrieve operations.
type RetrieveOption func(*RetrieveOptions)

// RetrieveOptions contains the cues of a scored retrieval.
type RetrieveOptions struct {
	// Tags are the topic cues.
	Tags []memory.MemoryTag

	// Participant is the entity cue.
	Participant memory.EntityID

	// Mood is the current mood cue.
	Mood memory.Mood

	// Context is the microsystem cue.
	Context memory.MicrosystemID

	// Limit is the maximum number of results. Zero means
	// Config.Memory.RetrievalLimit; a negative limit returns nothing.
	Limit int
}

// WithTagsForRetrieve adds topic cues for Retrieve operations.
//
// Example:
//
//	results := client.Retrieve(now, core.WithTagsForRetrieve(memory.TagCooperation))
func WithTagsForRetrieve(tags ...memory.MemoryTag) RetrieveOption {
	return func(opts *RetrieveOptions) {
		opts.Tags = append(opts.Tags, tags...)
	}
}

// WithParticipantForRetrieve sets the entity cue for Retrieve operations.
func WithParticipantForRetrieve(id memory.EntityID) RetrieveOption {
	return func(opts *RetrieveOptions) {
		opts.Participant = id
	}
}

// WithMoodForRetrieve sets the mood cue for Retrieve operations.
func WithMoodForRetrieve(mood memory.Mood) RetrieveOption {
	return func(opts *RetrieveOptions) {
		opts.Mood = mood
	}
}

// WithContextForRetrieve sets the microsystem cue for Retrieve operations.
func WithContextForRetrieve(id memory.MicrosystemID) RetrieveOption {
	return func(opts *RetrieveOptions) {
		opts.Context = id
	}
}

// WithLimit sets the maximum number of results for Retrieve operations.
func WithLimit(limit int) RetrieveOption {
	return func(opts *RetrieveOptions) {
		opts.Limit = limit
	}
}

// applyRetrieveOptions applies RetrieveOption functions over the configured default limit.
func applyRetrieveOptions(defaultLimit int, opts []RetrieveOption) *RetrieveOptions {
	options := &RetrieveOptions{}
	for _, opt := range opts {
		opt(options)
	}
	if options.Limit == 0 {
		options.Limit = defaultLimit
	}
	return options
}

// query builds the retrieval query evaluated at now.
func (o *RetrieveOptions) query(now time.Duration) memory.RetrievalQuery {
	return memory.NewRetrievalQuery(now).
		WithTags(o.Tags...).
		WithParticipant(o.Participant).
		WithMood(o.Mood).
		WithContext(o.Context).
		WithLimit(o.Limit)
}
