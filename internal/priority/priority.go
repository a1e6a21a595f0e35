// Package priority ranks notes by authority and information density. The
// score decides which member of a duplicate group survives.
package priority

import (
	"ward.fit/collate/internal/markers"
	"ward.fit/collate/internal/note"
)

const (
	lengthDivisor        = 100.0
	entityWeight         = 10.0
	temporalMarkerWeight = 5.0

	consultantBonus = 30.0
	attendingBonus  = 20.0
	operativeBonus  = 15.0
)

// Score ties a note to its computed priority value.
type Score struct {
	NoteID string  `json:"note_id"`
	Score  float64 `json:"score"`
}

// Scorer computes priority scores. The entity and temporal counters come
// from the upstream extraction context; when absent they default to the
// lexicon-backed counters, and a nil counter degrades to zero so a missing
// collaborator can never crash the pipeline.
type Scorer struct {
	entities markers.EntityCounter
	temporal markers.TemporalCounter
}

// NewScorer builds a scorer with the default lexicon-backed counters.
func NewScorer() *Scorer {
	return &Scorer{
		entities: markers.CountEntities,
		temporal: markers.CountTemporalMarkers,
	}
}

// NewScorerWithCounters injects collaborator counters; nil counters count
// zero.
func NewScorerWithCounters(entities markers.EntityCounter, temporal markers.TemporalCounter) *Scorer {
	return &Scorer{
		entities: entities,
		temporal: temporal,
	}
}

// Score computes length/100 + entities*10 + temporalMarkers*5 + roleBonus.
// Deterministic and pure: the same note always scores the same value.
func (s *Scorer) Score(n *note.Note) Score {
	if n == nil {
		return Score{}
	}

	normalized := n.Normalized()
	value := float64(normalized.Len()) / lengthDivisor
	value += float64(s.countEntities(normalized.Lowered)) * entityWeight
	value += float64(s.countTemporal(normalized.Lowered)) * temporalMarkerWeight
	value += roleBonus(n.SourceRole, normalized.Lowered)

	return Score{
		NoteID: n.ID,
		Score:  value,
	}
}

func (s *Scorer) countEntities(text string) int {
	if s == nil || s.entities == nil {
		return 0
	}
	return s.entities(text)
}

func (s *Scorer) countTemporal(text string) int {
	if s == nil || s.temporal == nil {
		return 0
	}
	return s.temporal(text)
}

// roleBonus is look-up only, not learned. The operative bonus is additive
// per operative mention in the text, with a minimum of one unit so an
// operative-tagged note always outranks an untagged one.
func roleBonus(role note.SourceRole, loweredText string) float64 {
	switch role {
	case note.RoleConsultant:
		return consultantBonus
	case note.RoleAttending:
		return attendingBonus
	case note.RoleOperative:
		mentions := markers.CountOperativeMentions(loweredText)
		if mentions < 1 {
			mentions = 1
		}
		return operativeBonus * float64(mentions)
	default:
		return 0
	}
}
