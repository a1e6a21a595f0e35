// Package engine implements the multi-phase note deduplication pipeline:
// exact-duplicate grouping, near-duplicate clustering, sentence-level
// dedup, and complementary merging. The whole pipeline is a pure,
// synchronous batch computation; nothing persists beyond one call.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"ward.fit/collate/internal/lexicon"
	"ward.fit/collate/internal/markers"
	"ward.fit/collate/internal/note"
	"ward.fit/collate/internal/priority"
	"ward.fit/collate/internal/similarity"
)

// Engine runs the pipeline. Build one per configuration; safe for
// sequential reuse across calls.
type Engine struct {
	cfg      Config
	logger   zerolog.Logger
	scorer   *similarity.Scorer
	priority *priority.Scorer
}

// Option customizes collaborator hooks.
type Option func(*options)

type options struct {
	entities markers.EntityCounter
	temporal markers.TemporalCounter
	concepts lexicon.LookupFunc
}

// WithEntityCounter injects the upstream entity counter used by the
// priority scorer.
func WithEntityCounter(counter markers.EntityCounter) Option {
	return func(o *options) { o.entities = counter }
}

// WithTemporalCounter injects the upstream temporal-marker counter.
func WithTemporalCounter(counter markers.TemporalCounter) Option {
	return func(o *options) { o.temporal = counter }
}

// WithConceptLookup injects the category-lexicon lookup behind the
// semantic similarity signal.
func WithConceptLookup(lookup lexicon.LookupFunc) Option {
	return func(o *options) { o.concepts = lookup }
}

// New validates the configuration and builds an engine. Configuration
// problems are the only fatal error class; everything later fails closed.
func New(cfg Config, logger zerolog.Logger, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}

	o := options{
		entities: markers.CountEntities,
		temporal: markers.CountTemporalMarkers,
		concepts: lexicon.Concepts,
	}
	for _, opt := range opts {
		opt(&o)
	}

	scorer, err := similarity.NewScorer(cfg.Weights, o.concepts)
	if err != nil {
		return nil, fmt.Errorf("invalid similarity weights: %w", err)
	}

	return &Engine{
		cfg:      cfg,
		logger:   logger,
		scorer:   scorer,
		priority: priority.NewScorerWithCounters(o.entities, o.temporal),
	}, nil
}

// Config returns the engine's immutable configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Dedup runs the full pipeline over the ingested notes. It never returns
// an error: a failing phase is recorded in PhaseStats.Errors and its input
// passes through unchanged, so a single bad note cannot block summary
// generation. On context deadline the best-effort result computed so far
// is returned with Partial set.
func (e *Engine) Dedup(ctx context.Context, notes []note.Note) Result {
	if ctx == nil {
		ctx = context.Background()
	}

	result := Result{InputCount: len(notes)}

	working := e.intake(notes, &result)

	phases := []struct {
		name string
		run  func(context.Context, []*workingNote, *Result) ([]*workingNote, error)
	}{
		{PhaseExact, e.exactPhase},
		{PhaseCluster, e.clusterPhase},
		{PhaseSentence, e.sentencePhase},
		{PhaseComplementary, e.complementaryPhase},
	}

	for _, phase := range phases {
		if ctx.Err() != nil {
			result.Partial = true
			break
		}
		output, aborted := e.runPhase(ctx, phase.name, phase.run, working, &result)
		working = output
		if aborted {
			result.Partial = true
			break
		}
	}

	if e.cfg.PreserveChronology {
		sortBySequence(working)
	} else {
		e.sortByPriority(working)
	}

	result.Notes = make([]Note, 0, len(working))
	for _, w := range working {
		result.Notes = append(result.Notes, w.output())
		result.Decisions = append(result.Decisions, Decision{
			NoteID: w.id,
			Phase:  PhaseComplementary,
			Action: ActionKept,
		})
	}
	result.OutputCount = len(result.Notes)
	result.ReductionPercent = reductionPercent(result.InputCount, result.OutputCount)

	e.logger.Info().
		Int("input_count", result.InputCount).
		Int("output_count", result.OutputCount).
		Float64("reduction_percent", result.ReductionPercent).
		Int("cluster_count", result.ClusterCount).
		Bool("partial", result.Partial).
		Int("phase_errors", len(result.PhaseStats.Errors)).
		Msg("dedup pipeline completed")

	return result
}

// intake drops null or unusable inputs with a warning; an invalid note is
// never fatal.
func (e *Engine) intake(notes []note.Note, result *Result) []*workingNote {
	working := make([]*workingNote, 0, len(notes))
	for i := range notes {
		n := &notes[i]
		if n.Normalized().IsEmpty() {
			result.PhaseStats.SkippedInputs++
			result.Decisions = append(result.Decisions, Decision{
				NoteID: n.ID,
				Phase:  PhaseIntake,
				Action: ActionSkippedInput,
			})
			e.logger.Warn().
				Str("note_id", n.ID).
				Int("sequence_index", n.SequenceIndex).
				Msg("skipping note with no usable text")
			continue
		}
		working = append(working, newWorkingNote(n))
	}
	sortBySequence(working)
	return working
}

// runPhase executes one phase fail-closed: a panic or error inside the
// phase is recorded and the phase's unmodified input flows onward. A
// context error aborts the remaining phases instead.
func (e *Engine) runPhase(
	ctx context.Context,
	name string,
	run func(context.Context, []*workingNote, *Result) ([]*workingNote, error),
	input []*workingNote,
	result *Result,
) (output []*workingNote, aborted bool) {
	output = input

	defer func() {
		if recovered := recover(); recovered != nil {
			output = input
			result.PhaseStats.Errors = append(result.PhaseStats.Errors, PhaseError{
				Phase:   name,
				Message: fmt.Sprintf("panic: %v", recovered),
			})
			e.logger.Error().
				Str("phase", name).
				Interface("panic", recovered).
				Msg("phase panicked; passing input through")
		}
	}()

	phaseOutput, err := run(ctx, input, result)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			e.logger.Warn().
				Str("phase", name).
				Err(err).
				Msg("phase aborted by deadline; returning best-effort result")
			return input, true
		}
		result.PhaseStats.Errors = append(result.PhaseStats.Errors, PhaseError{
			Phase:   name,
			Message: err.Error(),
		})
		e.logger.Error().
			Str("phase", name).
			Err(err).
			Msg("phase failed; passing input through")
		return input, false
	}

	return phaseOutput, false
}

func sortBySequence(notes []*workingNote) {
	sortWorking(notes, func(a, b *workingNote) bool {
		return a.seq < b.seq
	})
}

// sortByPriority orders survivors by descending priority when chronology
// preservation is disabled.
func (e *Engine) sortByPriority(notes []*workingNote) {
	scores := make(map[string]float64, len(notes))
	for _, w := range notes {
		scores[w.id] = e.priorityOf(w)
	}
	sortWorking(notes, func(a, b *workingNote) bool {
		if scores[a.id] != scores[b.id] {
			return scores[a.id] > scores[b.id]
		}
		return a.seq < b.seq
	})
}

// priorityOf scores the note's current content under its original role.
func (e *Engine) priorityOf(w *workingNote) float64 {
	n := note.New(w.id, w.text(), w.role, w.seq)
	return e.priority.Score(&n).Score
}

func sortWorking(notes []*workingNote, less func(a, b *workingNote) bool) {
	sort.SliceStable(notes, func(i, j int) bool {
		return less(notes[i], notes[j])
	})
}

func reductionPercent(inputCount, outputCount int) float64 {
	if inputCount <= 0 {
		return 0
	}
	reduction := float64(inputCount-outputCount) / float64(inputCount) * 100
	return math.Max(0, math.Min(100, reduction))
}
