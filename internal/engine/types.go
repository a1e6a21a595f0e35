package engine

import (
	"strings"

	"ward.fit/collate/internal/note"
	"ward.fit/collate/internal/similarity"
)

// Phase names carried in stats and decision records.
const (
	PhaseIntake        = "intake"
	PhaseExact         = "exact"
	PhaseCluster       = "cluster"
	PhaseSentence      = "sentence"
	PhaseComplementary = "complementary"
)

// Note is one surviving (possibly merged) output note. Every output note
// traces back to at least one input note through SourceNoteIDs.
type Note struct {
	ID            string          `json:"id"`
	Text          string          `json:"text"`
	SourceRole    note.SourceRole `json:"source_role"`
	SequenceIndex int             `json:"sequence_index"`
	SourceNoteIDs []string        `json:"source_note_ids"`
	Language      string          `json:"language,omitempty"`
	Merged        bool            `json:"merged"`
}

// Decision records what happened to one input note, mirroring the
// per-document dedup event ledger.
type Decision struct {
	NoteID     string            `json:"note_id"`
	Phase      string            `json:"phase"`
	Action     string            `json:"action"`
	KeptNoteID string            `json:"kept_note_id,omitempty"`
	Score      *similarity.Score `json:"score,omitempty"`
}

// Decision actions.
const (
	ActionSkippedInput    = "skipped_input"
	ActionExactDuplicate  = "exact_duplicate"
	ActionNearDuplicate   = "near_duplicate"
	ActionSentenceTrimmed = "sentence_trimmed"
	ActionEmptied         = "emptied"
	ActionMergedInto      = "merged_into"
	ActionKept            = "kept"
)

// PhaseError is one recorded, inspectable phase failure.
type PhaseError struct {
	Phase   string `json:"phase"`
	Message string `json:"message"`
}

// PhaseStats accumulates per-phase removal counts and failures.
type PhaseStats struct {
	SkippedInputs         int          `json:"skipped_inputs"`
	ExactRemoved          int          `json:"exact_removed"`
	NearDuplicatesRemoved int          `json:"near_duplicates_removed"`
	SentencesRemoved      int          `json:"sentences_removed"`
	NotesEmptied          int          `json:"notes_emptied"`
	ComplementaryMerges   int          `json:"complementary_merges"`
	Errors                []PhaseError `json:"errors,omitempty"`
}

// Result is the full pipeline output. The caller always receives one,
// even under total phase failure.
type Result struct {
	Notes            []Note     `json:"notes"`
	InputCount       int        `json:"input_count"`
	OutputCount      int        `json:"output_count"`
	ReductionPercent float64    `json:"reduction_percent"`
	ClusterCount     int        `json:"cluster_count"`
	Clusters         []Cluster  `json:"clusters,omitempty"`
	Partial          bool       `json:"partial"`
	PhaseStats       PhaseStats `json:"phase_stats"`
	Decisions        []Decision `json:"decisions,omitempty"`
}

// Cluster groups near-duplicate notes behind one representative.
type Cluster struct {
	RepresentativeNoteID string   `json:"representative_note_id"`
	MemberNoteIDs        []string `json:"member_note_ids"`
}

// workingNote is the mutable in-flight form a note takes between phases.
// The ingested note.Note stays immutable; phases rewrite only this.
type workingNote struct {
	id        string
	role      note.SourceRole
	seq       int
	sources   []string
	sentences []note.Sentence
	norm      *note.NormalizedText
	rawText   string
	language  string
	rewritten bool
	merged    bool
}

func newWorkingNote(n *note.Note) *workingNote {
	norm := n.Normalized()
	sentences := make([]note.Sentence, 0, len(norm.Sentences))
	for position, text := range norm.Sentences {
		sentences = append(sentences, note.Sentence{
			SourceNoteID:  n.ID,
			SequenceIndex: n.SequenceIndex,
			Position:      position,
			Text:          text,
		})
	}
	return &workingNote{
		id:        n.ID,
		role:      n.SourceRole,
		seq:       n.SequenceIndex,
		sources:   []string{n.ID},
		sentences: sentences,
		norm:      norm,
		rawText:   n.RawText,
		language:  norm.Language,
	}
}

// text returns the note body: the original raw text while untouched, the
// joined surviving sentences once a phase has rewritten the note.
func (w *workingNote) text() string {
	if !w.rewritten {
		return strings.TrimSpace(w.rawText)
	}
	parts := make([]string, 0, len(w.sentences))
	for _, sentence := range w.sentences {
		parts = append(parts, sentence.Text)
	}
	return strings.Join(parts, " ")
}

// rebuild recomputes the normalized form after sentence edits.
func (w *workingNote) rebuild() {
	w.rewritten = true
	w.norm = note.Normalize(w.text())
}

func (w *workingNote) output() Note {
	return Note{
		ID:            w.id,
		Text:          w.text(),
		SourceRole:    w.role,
		SequenceIndex: w.seq,
		SourceNoteIDs: append([]string(nil), w.sources...),
		Language:      w.language,
		Merged:        w.merged,
	}
}
