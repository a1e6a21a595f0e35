package engine

import "context"

// clusterPhase groups near-duplicate notes. Notes are visited in
// ascending sequence index; each unclustered note opens a cluster and
// absorbs every later unclustered note whose combined similarity reaches
// the near threshold. A note assigned to a cluster is excluded from all
// further comparisons, so each note belongs to exactly one cluster.
func (e *Engine) clusterPhase(ctx context.Context, input []*workingNote, result *Result) ([]*workingNote, error) {
	clustered := make(map[string]bool, len(input))
	survivors := make([]*workingNote, 0, len(input))

	for i, seed := range input {
		if err := ctx.Err(); err != nil {
			return input, err
		}
		if clustered[seed.id] {
			continue
		}
		clustered[seed.id] = true

		members := []*workingNote{seed}
		memberScores := map[string]*Decision{}
		for _, candidate := range input[i+1:] {
			if clustered[candidate.id] {
				continue
			}
			if simhashFar(seed.norm, candidate.norm) {
				continue
			}
			score := e.scorer.Score(seed.norm, candidate.norm)
			if score.Combined < e.cfg.ThresholdNear {
				continue
			}
			clustered[candidate.id] = true
			members = append(members, candidate)
			scoreCopy := score
			memberScores[candidate.id] = &Decision{
				NoteID: candidate.id,
				Phase:  PhaseCluster,
				Action: ActionNearDuplicate,
				Score:  &scoreCopy,
			}
		}

		representative := e.pickClusterRepresentative(members)
		survivors = append(survivors, representative)

		if len(members) > 1 {
			result.ClusterCount++
			cluster := Cluster{RepresentativeNoteID: representative.id}
			for _, member := range members {
				cluster.MemberNoteIDs = append(cluster.MemberNoteIDs, member.id)
			}
			result.Clusters = append(result.Clusters, cluster)
		}

		for _, member := range members {
			if member == representative {
				continue
			}
			result.PhaseStats.NearDuplicatesRemoved++
			decision := Decision{
				NoteID:     member.id,
				Phase:      PhaseCluster,
				Action:     ActionNearDuplicate,
				KeptNoteID: representative.id,
			}
			if recorded, ok := memberScores[member.id]; ok {
				decision.Score = recorded.Score
			}
			result.Decisions = append(result.Decisions, decision)
		}

		if len(members) > 1 {
			e.logger.Debug().
				Str("representative_note_id", representative.id).
				Int("member_count", len(members)).
				Msg("formed near-duplicate cluster")
		}
	}

	sortBySequence(survivors)
	return survivors, nil
}

// pickClusterRepresentative: highest priority score, then longer
// normalized text, then lowest sequence index.
func (e *Engine) pickClusterRepresentative(members []*workingNote) *workingNote {
	best := members[0]
	bestScore := e.priorityOf(best)
	for _, candidate := range members[1:] {
		score := e.priorityOf(candidate)
		switch {
		case score > bestScore:
			best = candidate
			bestScore = score
		case score == bestScore && candidate.norm.Len() > best.norm.Len():
			best = candidate
		case score == bestScore && candidate.norm.Len() == best.norm.Len() && candidate.seq < best.seq:
			best = candidate
		}
	}
	return best
}
