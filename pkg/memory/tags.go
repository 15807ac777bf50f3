package memory

import "fmt"

// MemoryTag categorizes a memory for retrieval and polarity analysis.
//
// Tags fall into three groups:
//   - Negative: Violence, Betrayal, Injustice, Death, Crisis,
//     RelationshipBreakdown, Loss, Conflict, Scarcity
//   - Positive: Ceremony, Therapy, Support, Achievement, Cooperation
//   - Neutral: Mission, Personal, Milestone
//
// A subset of the negative tags (Violence, Death, Crisis, Betrayal) are
// trauma tags and receive a salience boost at encoding.
type MemoryTag int

const (
	TagMission MemoryTag = iota
	TagPersonal
	TagViolence
	TagBetrayal
	TagInjustice
	TagCeremony
	TagScarcity
	TagDeath
	TagCrisis
	TagRelationshipBreakdown
	TagTherapy
	TagSupport
	TagAchievement
	TagLoss
	TagConflict
	TagCooperation
	// TagMilestone is required for promotion into the Legacy tier.
	TagMilestone
)

var tagNames = [...]string{
	TagMission:               "Mission",
	TagPersonal:              "Personal",
	TagViolence:              "Violence",
	TagBetrayal:              "Betrayal",
	TagInjustice:             "Injustice",
	TagCeremony:              "Ceremony",
	TagScarcity:              "Scarcity",
	TagDeath:                 "Death",
	TagCrisis:                "Crisis",
	TagRelationshipBreakdown: "RelationshipBreakdown",
	TagTherapy:               "Therapy",
	TagSupport:               "Support",
	TagAchievement:           "Achievement",
	TagLoss:                  "Loss",
	TagConflict:              "Conflict",
	TagCooperation:           "Cooperation",
	TagMilestone:             "Milestone",
}

// AllTags returns every tag in declaration order.
func AllTags() []MemoryTag {
	tags := make([]MemoryTag, len(tagNames))
	for i := range tagNames {
		tags[i] = MemoryTag(i)
	}
	return tags
}

// ParseMemoryTag returns the tag with the given name.
func ParseMemoryTag(name string) (MemoryTag, error) {
	for i, n := range tagNames {
		if n == name {
			return MemoryTag(i), nil
		}
	}
	return 0, fmt.Errorf("memory: unknown tag %q", name)
}

// String returns the tag name.
func (t MemoryTag) String() string {
	if t < 0 || int(t) >= len(tagNames) {
		return fmt.Sprintf("MemoryTag(%d)", int(t))
	}
	return tagNames[t]
}

// IsNegative reports whether the tag carries negative emotional polarity.
func (t MemoryTag) IsNegative() bool {
	switch t {
	case TagViolence, TagBetrayal, TagInjustice, TagDeath, TagCrisis,
		TagRelationshipBreakdown, TagLoss, TagConflict, TagScarcity:
		return true
	}
	return false
}

// IsPositive reports whether the tag carries positive emotional polarity.
func (t MemoryTag) IsPositive() bool {
	switch t {
	case TagCeremony, TagTherapy, TagSupport, TagAchievement, TagCooperation:
		return true
	}
	return false
}

// IsNeutral reports whether the tag carries no polarity.
func (t MemoryTag) IsNeutral() bool {
	switch t {
	case TagMission, TagPersonal, TagMilestone:
		return true
	}
	return false
}

// IsTrauma reports whether the tag triggers the encoding salience boost.
func (t MemoryTag) IsTrauma() bool {
	switch t {
	case TagViolence, TagDeath, TagCrisis, TagBetrayal:
		return true
	}
	return false
}
