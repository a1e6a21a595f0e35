package engine

import "context"

// exactPhase groups byte-identical notes by normalized-content
// fingerprint and keeps one representative per group. A cheap O(n) pass
// that shrinks the set the O(n^2) phases must examine.
func (e *Engine) exactPhase(ctx context.Context, input []*workingNote, result *Result) ([]*workingNote, error) {
	if err := ctx.Err(); err != nil {
		return input, err
	}

	groups := make(map[[32]byte][]*workingNote, len(input))
	order := make([][32]byte, 0, len(input))
	for _, w := range input {
		fingerprint := w.norm.Fingerprint()
		if _, seen := groups[fingerprint]; !seen {
			order = append(order, fingerprint)
		}
		groups[fingerprint] = append(groups[fingerprint], w)
	}

	survivors := make([]*workingNote, 0, len(order))
	for _, fingerprint := range order {
		group := groups[fingerprint]
		representative := e.pickExactRepresentative(group)
		survivors = append(survivors, representative)

		for _, member := range group {
			if member == representative {
				continue
			}
			result.PhaseStats.ExactRemoved++
			result.Decisions = append(result.Decisions, Decision{
				NoteID:     member.id,
				Phase:      PhaseExact,
				Action:     ActionExactDuplicate,
				KeptNoteID: representative.id,
			})
		}

		if len(group) > 1 {
			e.logger.Debug().
				Str("kept_note_id", representative.id).
				Int("group_size", len(group)).
				Msg("collapsed exact-duplicate group")
		}
	}

	sortBySequence(survivors)
	return survivors, nil
}

// pickExactRepresentative keeps the highest-priority member; ties go to
// the lowest sequence index.
func (e *Engine) pickExactRepresentative(group []*workingNote) *workingNote {
	best := group[0]
	bestScore := e.priorityOf(best)
	for _, candidate := range group[1:] {
		score := e.priorityOf(candidate)
		if score > bestScore || (score == bestScore && candidate.seq < best.seq) {
			best = candidate
			bestScore = score
		}
	}
	return best
}
