package engine

import (
	"context"

	"ward.fit/collate/internal/markers"
	"ward.fit/collate/internal/note"
)

// complementaryPhase merges note pairs that describe the same encounter
// from partial angles: moderately similar text plus a shared temporal
// context. The earlier note keeps its identity and absorbs the later
// note's non-redundant sentences.
func (e *Engine) complementaryPhase(ctx context.Context, input []*workingNote, result *Result) ([]*workingNote, error) {
	if !e.cfg.MergeComplementary {
		return input, nil
	}

	pool := append([]*workingNote(nil), input...)
	sortBySequence(pool)

	absorbed := make(map[*workingNote]bool)
	for i, earlier := range pool {
		if err := ctx.Err(); err != nil {
			return survivorsOf(pool, absorbed), err
		}
		if absorbed[earlier] {
			continue
		}
		for j := i + 1; j < len(pool); j++ {
			later := pool[j]
			if absorbed[later] {
				continue
			}
			score := e.scorer.Score(earlier.norm, later.norm)
			if score.Combined < e.cfg.ComplementaryMin || score.Combined >= e.cfg.ComplementaryMax {
				continue
			}
			if !sharesTemporalContext(earlier, later) {
				continue
			}

			e.mergeInto(earlier, later)
			absorbed[later] = true
			result.PhaseStats.ComplementaryMerges++
			scoreCopy := score
			result.Decisions = append(result.Decisions, Decision{
				NoteID:     later.id,
				Phase:      PhaseComplementary,
				Action:     ActionMergedInto,
				KeptNoteID: earlier.id,
				Score:      &scoreCopy,
			})
			e.logger.Debug().
				Str("kept_note_id", earlier.id).
				Str("merged_note_id", later.id).
				Float64("combined", score.Combined).
				Msg("complementary merge")
		}
	}

	return survivorsOf(pool, absorbed), nil
}

// sharesTemporalContext reports whether two notes describe the same point
// in the clinical timeline: either an explicit shared reference (same POD,
// hospital day, or date), or direct adjacency in the note sequence with no
// conflicting references between them.
func sharesTemporalContext(a, b *workingNote) bool {
	if markers.SharedTemporalRef(a.text(), b.text()) {
		return true
	}
	diff := a.seq - b.seq
	if diff < 0 {
		diff = -diff
	}
	if diff != 1 {
		return false
	}
	// Adjacent notes conflict only when both carry temporal references
	// and none of them match.
	refsA := markers.TemporalRefs(a.text())
	refsB := markers.TemporalRefs(b.text())
	return len(refsA) == 0 || len(refsB) == 0
}

// mergeInto folds the later note into the earlier one. The earlier note's
// sentences stay first; the later note contributes only sentences that are
// not already covered at the sentence threshold.
func (e *Engine) mergeInto(earlier, later *workingNote) {
	union := make([]sentenceWithNorm, 0, len(earlier.sentences)+len(later.sentences))
	for _, sentence := range earlier.sentences {
		union = append(union, sentenceWithNorm{
			sentence: sentence,
			norm:     note.Normalize(sentence.Text),
		})
	}
	for _, sentence := range later.sentences {
		union = append(union, sentenceWithNorm{
			sentence: sentence,
			norm:     note.Normalize(sentence.Text),
		})
	}
	deduped := e.dedupSentenceUnion(union)

	merged := make([]note.Sentence, 0, len(deduped))
	for _, entry := range deduped {
		merged = append(merged, entry.sentence)
	}
	earlier.sentences = merged
	earlier.sources = appendUniqueSources(earlier.sources, later.sources)
	earlier.merged = true
	earlier.rebuild()
}

func appendUniqueSources(dst, src []string) []string {
	seen := make(map[string]bool, len(dst)+len(src))
	for _, id := range dst {
		seen[id] = true
	}
	for _, id := range src {
		if seen[id] {
			continue
		}
		seen[id] = true
		dst = append(dst, id)
	}
	return dst
}

func survivorsOf(pool []*workingNote, absorbed map[*workingNote]bool) []*workingNote {
	out := make([]*workingNote, 0, len(pool))
	for _, w := range pool {
		if absorbed[w] {
			continue
		}
		out = append(out, w)
	}
	return out
}
