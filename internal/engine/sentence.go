package engine

import (
	"context"

	"ward.fit/collate/internal/note"
)

// sentenceWithNorm pairs an extracted sentence with its cached normalized
// form so pairwise comparisons normalize each sentence once.
type sentenceWithNorm struct {
	sentence note.Sentence
	norm     *note.NormalizedText
}

// sentencePhase removes redundant sentences across the surviving notes.
// Sentences are compared with the same similarity scorer; when two match
// at the sentence threshold, the earliest occurrence (source sequence
// index, then position) survives and the later repeat is dropped. Dedup
// never reorders surviving content, it only deletes later repeats.
func (e *Engine) sentencePhase(ctx context.Context, input []*workingNote, result *Result) ([]*workingNote, error) {
	type taggedSentence struct {
		owner    *workingNote
		position int
		norm     *note.NormalizedText
	}

	var all []taggedSentence
	for _, w := range input {
		for position, sentence := range w.sentences {
			all = append(all, taggedSentence{
				owner:    w,
				position: position,
				norm:     note.Normalize(sentence.Text),
			})
		}
	}

	removedPerNote := make(map[*workingNote]map[int]bool)
	dropped := make([]bool, len(all))
	for i := range all {
		if err := ctx.Err(); err != nil {
			return input, err
		}
		if dropped[i] {
			continue
		}
		for j := i + 1; j < len(all); j++ {
			if dropped[j] {
				continue
			}
			if simhashFar(all[i].norm, all[j].norm) {
				continue
			}
			score := e.scorer.Score(all[i].norm, all[j].norm)
			if score.Combined < e.cfg.ThresholdSentence {
				continue
			}
			// all is built in sequence order, so j is always the later
			// occurrence.
			dropped[j] = true
			result.PhaseStats.SentencesRemoved++
			if removedPerNote[all[j].owner] == nil {
				removedPerNote[all[j].owner] = make(map[int]bool)
			}
			removedPerNote[all[j].owner][all[j].position] = true
		}
	}

	survivors := make([]*workingNote, 0, len(input))
	for _, w := range input {
		removed := removedPerNote[w]
		if len(removed) == 0 {
			survivors = append(survivors, w)
			continue
		}

		kept := w.sentences[:0:0]
		for position, sentence := range w.sentences {
			if removed[position] {
				continue
			}
			kept = append(kept, sentence)
		}
		w.sentences = kept
		w.rebuild()

		if len(w.sentences) == 0 {
			result.PhaseStats.NotesEmptied++
			result.Decisions = append(result.Decisions, Decision{
				NoteID: w.id,
				Phase:  PhaseSentence,
				Action: ActionEmptied,
			})
			e.logger.Debug().
				Str("note_id", w.id).
				Msg("note emptied by sentence dedup")
			continue
		}

		result.Decisions = append(result.Decisions, Decision{
			NoteID: w.id,
			Phase:  PhaseSentence,
			Action: ActionSentenceTrimmed,
		})
		survivors = append(survivors, w)
	}

	return survivors, nil
}

// dedupSentenceUnion re-applies the sentence-phase matching rule over a
// merged sentence union, keeping the first occurrence of each duplicate
// pair.
func (e *Engine) dedupSentenceUnion(sentences []sentenceWithNorm) []sentenceWithNorm {
	kept := make([]sentenceWithNorm, 0, len(sentences))
	for _, candidate := range sentences {
		duplicate := false
		for _, existing := range kept {
			score := e.scorer.Score(existing.norm, candidate.norm)
			if score.Combined >= e.cfg.ThresholdSentence {
				duplicate = true
				break
			}
		}
		if !duplicate {
			kept = append(kept, candidate)
		}
	}
	return kept
}
