package memory

// RelationshipDelta records relationship changes toward one entity caused by
// the event behind a memory. Nil fields mean "unchanged".
type RelationshipDelta struct {
	TargetEntity     EntityID `json:"target_entity"`
	Affinity         *float64 `json:"affinity,omitempty"`
	TrustCompetence  *float64 `json:"trust_competence,omitempty"`
	TrustBenevolence *float64 `json:"trust_benevolence,omitempty"`
	TrustIntegrity   *float64 `json:"trust_integrity,omitempty"`
	Tension          *float64 `json:"tension,omitempty"`
}

// HasChanges reports whether any dimension changed.
func (d RelationshipDelta) HasChanges() bool {
	return d.Affinity != nil || d.TrustCompetence != nil || d.TrustBenevolence != nil ||
		d.TrustIntegrity != nil || d.Tension != nil
}

// ReputationDelta records reputation changes caused by the event.
type ReputationDelta struct {
	Trusted *float64 `json:"trusted,omitempty"`
	Feared  *float64 `json:"feared,omitempty"`
	Hated   *float64 `json:"hated,omitempty"`
}

// HasChanges reports whether any dimension changed.
func (d ReputationDelta) HasChanges() bool {
	return d.Trusted != nil || d.Feared != nil || d.Hated != nil
}

// DeltasApplied is the informational record of what the event changed when
// the memory formed. The memory engine never reads it.
type DeltasApplied struct {
	Relationship *RelationshipDelta `json:"relationship,omitempty"`
	Reputation   *ReputationDelta   `json:"reputation,omitempty"`
}

// HasChanges reports whether either delta is present.
func (d DeltasApplied) HasChanges() bool {
	return d.Relationship != nil || d.Reputation != nil
}

// Float returns a pointer to v, for filling optional delta fields.
func Float(v float64) *float64 {
	return &v
}
