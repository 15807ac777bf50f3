package memory

import (
	"cmp"
	"math"
	"slices"
	"time"
)

// RecencyHalfLifeDays is the fixed half-life of the recency term in
// retrieval scoring.
const RecencyHalfLifeDays = 30.0

// DefaultRetrievalLimit is the result limit of a new RetrievalQuery.
const DefaultRetrievalLimit = 10

// Retrieval score weights. They are untyped constants so WeightSum is
// computed exactly and equals 1.
const (
	WeightTagRelevance      = 0.25
	WeightParticipantMatch  = 0.20
	WeightSalience          = 0.15
	WeightRecency           = 0.10
	WeightMoodCongruence    = 0.10
	WeightContextCongruence = 0.10
	WeightSourceConfidence  = 0.05
	WeightBaseScore         = 0.05

	WeightSum = WeightTagRelevance + WeightParticipantMatch + WeightSalience + WeightRecency +
		WeightMoodCongruence + WeightContextCongruence + WeightSourceConfidence + WeightBaseScore
)

// neutralScore is used for every criterion the query leaves unspecified.
const neutralScore = 0.5

// RetrievalQuery holds the parameters of a scored retrieval. Queries are
// ephemeral and never stored.
//
// Example:
//
//	query := memory.NewRetrievalQuery(now).
//	    WithTags(memory.TagBetrayal).
//	    WithParticipant("entity_rival").
//	    WithMood(currentMood).
//	    WithLimit(5)
//	results := layers.RetrieveScored(query)
type RetrievalQuery struct {
	// Tags filters by relevance; empty means unspecified.
	Tags []MemoryTag

	// Participant matches memories involving the entity; empty means unspecified.
	Participant EntityID

	// Mood is the reference for congruence; nil means unspecified.
	Mood Mood

	// Context matches memories formed in the microsystem; empty means unspecified.
	Context MicrosystemID

	// Limit caps the number of results.
	Limit int

	// CurrentTime is the simulated time the query is made at.
	CurrentTime time.Duration
}

// NewRetrievalQuery creates a query at now with every criterion unspecified.
func NewRetrievalQuery(now time.Duration) RetrievalQuery {
	return RetrievalQuery{
		Limit:       DefaultRetrievalLimit,
		CurrentTime: now,
	}
}

func (q RetrievalQuery) WithTags(tags ...MemoryTag) RetrievalQuery {
	q.Tags = slices.Clone(tags)
	return q
}

func (q RetrievalQuery) WithParticipant(id EntityID) RetrievalQuery {
	q.Participant = id
	return q
}

func (q RetrievalQuery) WithMood(mood Mood) RetrievalQuery {
	q.Mood = mood
	return q
}

func (q RetrievalQuery) WithContext(id MicrosystemID) RetrievalQuery {
	q.Context = id
	return q
}

func (q RetrievalQuery) WithLimit(limit int) RetrievalQuery {
	q.Limit = limit
	return q
}

// ScoredMemory pairs an entry with its retrieval score.
type ScoredMemory struct {
	Entry *MemoryEntry
	Score float64
}

// ComputeRetrievalScore scores entry against query. The score is in [0, 1]:
//
//	score = tag_relevance      * 0.25
//	      + participant_match  * 0.20
//	      + salience           * 0.15
//	      + recency            * 0.10
//	      + mood_congruence    * 0.10
//	      + context_congruence * 0.10
//	      + source_confidence  * 0.05
//	      + 1.0                * 0.05
//
// Unspecified criteria score 0.5.
func ComputeRetrievalScore(entry *MemoryEntry, query RetrievalQuery) float64 {
	tagScore := neutralScore
	if len(query.Tags) > 0 {
		matching := 0
		for _, t := range query.Tags {
			if entry.HasTag(t) {
				matching++
			}
		}
		tagScore = float64(matching) / float64(len(query.Tags))
	}

	participantScore := neutralScore
	if query.Participant != "" {
		participantScore = boolScore(entry.InvolvesParticipant(query.Participant))
	}

	moodScore := neutralScore
	if query.Mood != nil {
		moodScore = entry.snapshot.CongruenceWithMood(query.Mood)
	}

	contextScore := neutralScore
	if query.Context != "" {
		contextScore = boolScore(entry.IsInContext(query.Context))
	}

	return tagScore*WeightTagRelevance +
		participantScore*WeightParticipantMatch +
		entry.salience*WeightSalience +
		RecencyScore(entry.timestamp, query.CurrentTime)*WeightRecency +
		moodScore*WeightMoodCongruence +
		contextScore*WeightContextCongruence +
		entry.source.Confidence()*WeightSourceConfidence +
		1.0*WeightBaseScore
}

// RecencyScore decays from 1 with a 30-day half-life on the memory's age.
// Memories timestamped after now count as age zero.
func RecencyScore(memoryTime, now time.Duration) float64 {
	age := max(now-memoryTime, 0)
	return math.Exp2(-days(age) / RecencyHalfLifeDays)
}

func boolScore(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// RetrieveScored scores every entry, sorts by score descending and keeps the
// first query.Limit results. Equal scores keep tier order.
func (l *MemoryLayers) RetrieveScored(query RetrievalQuery) []ScoredMemory {
	if query.Limit <= 0 {
		return nil
	}

	scored := make([]ScoredMemory, 0, l.TotalCount())
	for entry := range l.All() {
		scored = append(scored, ScoredMemory{Entry: entry, Score: ComputeRetrievalScore(entry, query)})
	}
	slices.SortStableFunc(scored, func(a, b ScoredMemory) int {
		return cmp.Compare(b.Score, a.Score)
	})

	if len(scored) > query.Limit {
		scored = scored[:query.Limit]
	}
	return scored
}

// retrieveWhere filters All by keep and sorts by salience descending.
func (l *MemoryLayers) retrieveWhere(keep func(*MemoryEntry) bool) []*MemoryEntry {
	var results []*MemoryEntry
	for entry := range l.All() {
		if keep(entry) {
			results = append(results, entry)
		}
	}
	SortBySalienceDescending(results)
	return results
}

// SortBySalienceDescending sorts entries by salience, highest first. Equal
// saliences keep their relative order.
func SortBySalienceDescending(entries []*MemoryEntry) {
	slices.SortStableFunc(entries, func(a, b *MemoryEntry) int {
		return cmp.Compare(b.salience, a.salience)
	})
}

// RetrieveBySalience returns memories with salience >= threshold.
func (l *MemoryLayers) RetrieveBySalience(threshold float64) []*MemoryEntry {
	return l.retrieveWhere(func(e *MemoryEntry) bool { return e.salience >= threshold })
}

// RetrieveMoodCongruent returns memories whose snapshot congruence with mood
// is at least minCongruence.
//
// A minimum of 1.0 or more always yields nothing: an exact float match is
// not a meaningful retrieval criterion.
func (l *MemoryLayers) RetrieveMoodCongruent(mood Mood, minCongruence float64) []*MemoryEntry {
	if minCongruence >= 1.0 {
		return nil
	}
	return l.retrieveWhere(func(e *MemoryEntry) bool {
		return e.snapshot.CongruenceWithMood(mood) >= minCongruence
	})
}

// RetrieveByTag returns memories carrying tag.
func (l *MemoryLayers) RetrieveByTag(tag MemoryTag) []*MemoryEntry {
	return l.retrieveWhere(func(e *MemoryEntry) bool { return e.HasTag(tag) })
}

// RetrieveByParticipant returns memories involving id.
func (l *MemoryLayers) RetrieveByParticipant(id EntityID) []*MemoryEntry {
	return l.retrieveWhere(func(e *MemoryEntry) bool { return e.InvolvesParticipant(id) })
}

// RetrieveByContext returns memories formed in the microsystem id.
func (l *MemoryLayers) RetrieveByContext(id MicrosystemID) []*MemoryEntry {
	return l.retrieveWhere(func(e *MemoryEntry) bool { return e.IsInContext(id) })
}
