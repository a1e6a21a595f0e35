// Package ingest turns a validated note bundle into engine inputs:
// HTML extraction, role resolution, and identity/sequence defaults all
// happen here, exactly once.
package ingest

import (
	"fmt"
	"strings"

	"ward.fit/collate/internal/engine"
	"ward.fit/collate/internal/note"
	"ward.fit/collate/internal/reader"
	"ward.fit/collate/internal/similarity"
	bundleschema "ward.fit/collate/schema"
)

// BuildNotes converts bundle entries into notes. Missing ids become
// positional ones, missing sequence indexes fall back to array position,
// and free-text role labels resolve onto the closed enum.
func BuildNotes(bundle *bundleschema.NoteBundle) ([]note.Note, error) {
	if bundle == nil {
		return nil, fmt.Errorf("bundle is nil")
	}

	notes := make([]note.Note, 0, len(bundle.Notes))
	for i, entry := range bundle.Notes {
		text := entry.Text
		if strings.EqualFold(strings.TrimSpace(entry.ContentType), "html") {
			extracted, err := reader.ExtractText(entry.Text)
			if err != nil {
				return nil, fmt.Errorf("notes[%d]: extract html text: %w", i, err)
			}
			text = extracted
		}

		id := strings.TrimSpace(entry.ID)
		if id == "" {
			id = fmt.Sprintf("note-%03d", i+1)
		}

		seq := i
		if entry.SequenceIndex != nil {
			seq = *entry.SequenceIndex
		}

		role := note.InferSourceRole(entry.SourceRole)
		notes = append(notes, note.New(id, text, role, seq))
	}

	return notes, nil
}

// EngineConfig applies per-request option overrides onto a base config.
// The result still goes through engine.New validation.
func EngineConfig(base engine.Config, opts *bundleschema.BundleOptions) engine.Config {
	if opts == nil {
		return base
	}

	cfg := base
	if opts.Weights != nil {
		cfg.Weights = similarity.Weights{
			Jaccard:     opts.Weights.Jaccard,
			Levenshtein: opts.Weights.Levenshtein,
			Semantic:    opts.Weights.Semantic,
		}
	}
	if opts.ThresholdNear != nil {
		cfg.ThresholdNear = *opts.ThresholdNear
	}
	if opts.ThresholdSentence != nil {
		cfg.ThresholdSentence = *opts.ThresholdSentence
	}
	if opts.ComplementaryMin != nil {
		cfg.ComplementaryMin = *opts.ComplementaryMin
	}
	if opts.ComplementaryMax != nil {
		cfg.ComplementaryMax = *opts.ComplementaryMax
	}
	if opts.PreserveChronology != nil {
		cfg.PreserveChronology = *opts.PreserveChronology
	}
	if opts.MergeComplementary != nil {
		cfg.MergeComplementary = *opts.MergeComplementary
	}
	return cfg
}
