package similarity

import (
	"math"
	"testing"

	"ward.fit/collate/internal/note"
)

func newTestScorer(t *testing.T) *Scorer {
	t.Helper()
	scorer, err := NewScorer(DefaultWeights(), nil)
	if err != nil {
		t.Fatalf("NewScorer: %v", err)
	}
	return scorer
}

func TestWeightsValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		weights Weights
		wantErr bool
	}{
		{"default", DefaultWeights(), false},
		{"alternate split", Weights{Jaccard: 0.5, Levenshtein: 0.25, Semantic: 0.25}, false},
		{"sum below one", Weights{Jaccard: 0.4, Levenshtein: 0.2, Semantic: 0.3}, true},
		{"sum above one", Weights{Jaccard: 0.5, Levenshtein: 0.5, Semantic: 0.5}, true},
		{"negative component", Weights{Jaccard: 1.2, Levenshtein: -0.2, Semantic: 0.0}, true},
		{"zero weights", Weights{}, true},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := tc.weights.Validate()
			if tc.wantErr && err == nil {
				t.Fatalf("expected validation error for %+v", tc.weights)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestNewScorerRejectsBadWeights(t *testing.T) {
	t.Parallel()

	if _, err := NewScorer(Weights{Jaccard: 1, Levenshtein: 1, Semantic: 1}, nil); err == nil {
		t.Fatal("expected construction to fail on invalid weights")
	}
}

func TestScoreSymmetry(t *testing.T) {
	t.Parallel()

	scorer := newTestScorer(t)
	pairs := [][2]string{
		{"patient with vasospasm started on nimodipine.", "nimodipine started for vasospasm today."},
		{"pod 3 afebrile tolerating diet.", "wound clean, ambulating in hallway."},
		{"ct head stable, no new hemorrhage.", "completely unrelated cardiology follow up visit."},
	}
	for _, pair := range pairs {
		forward := scorer.ScoreText(pair[0], pair[1])
		backward := scorer.ScoreText(pair[1], pair[0])
		if math.Abs(forward.Combined-backward.Combined) > 1e-12 {
			t.Fatalf("score not symmetric: %v vs %v", forward.Combined, backward.Combined)
		}
	}
}

func TestScoreRange(t *testing.T) {
	t.Parallel()

	scorer := newTestScorer(t)
	texts := []string{
		"",
		"pod 2 exam unchanged.",
		"patient underwent craniotomy for aneurysm clipping. cta shows no vasospasm.",
		"tolerating diet, afebrile, wound clean and dry.",
		"short",
	}
	for _, left := range texts {
		for _, right := range texts {
			score := scorer.ScoreText(left, right)
			for name, v := range map[string]float64{
				"jaccard":     score.Jaccard,
				"levenshtein": score.Levenshtein,
				"semantic":    score.Semantic,
				"combined":    score.Combined,
			} {
				if v < 0 || v > 1 {
					t.Fatalf("%s score %v out of [0,1] for %q vs %q", name, v, left, right)
				}
			}
		}
	}
}

func TestScoreIdentity(t *testing.T) {
	t.Parallel()

	scorer := newTestScorer(t)
	texts := []string{
		"patient developed vasospasm on pod 3, started nimodipine, cta pending.",
		// No lexicon concept matches here; identity must hold anyway.
		"follow up in two weeks.",
		"family meeting held, questions answered.",
	}
	for _, text := range texts {
		score := scorer.ScoreText(text, text)
		if math.Abs(score.Combined-1.0) > 1e-9 {
			t.Fatalf("identity score for %q = %v, want 1.0 (parts %+v)", text, score.Combined, score)
		}
	}
}

func TestScoreNilNormalizedText(t *testing.T) {
	t.Parallel()

	scorer := newTestScorer(t)
	norm := note.Normalize("afebrile, wound clean.")
	score := scorer.Score(nil, norm)
	if score.Combined < 0 || score.Combined > 1 {
		t.Fatalf("combined score %v out of range for nil input", score.Combined)
	}
	if score.Combined == scorer.Score(norm, norm).Combined {
		t.Fatal("nil input should not score like an identical note")
	}
}

func TestSemanticSignalUsesCategoryQualifiedConcepts(t *testing.T) {
	t.Parallel()

	scorer := newTestScorer(t)

	// Same concepts, different phrasing keeps semantic high.
	same := scorer.ScoreText(
		"cta demonstrates vasospasm, nimodipine continued.",
		"vasospasm seen on cta; continue nimodipine.",
	)
	if same.Semantic != 1.0 {
		t.Fatalf("semantic = %v, want 1.0 for an identical concept set", same.Semantic)
	}

	// Concept-free and disjoint on both sides contributes nothing.
	none := scorer.ScoreText("follow up in two weeks.", "call if questions arise.")
	if none.Semantic != 0 {
		t.Fatalf("semantic = %v, want 0 for disjoint concept-free texts", none.Semantic)
	}

	// One concept-free side against a concept-bearing one contributes
	// nothing either.
	oneSided := scorer.ScoreText("call if questions arise.", "cta shows vasospasm.")
	if oneSided.Semantic != 0 {
		t.Fatalf("semantic = %v, want 0 when only one text has concepts", oneSided.Semantic)
	}
}

func TestSemanticSignalCountsSharedTemporalAnchor(t *testing.T) {
	t.Parallel()

	scorer := newTestScorer(t)

	// Each side has two findings plus the shared POD anchor: Dice over
	// {pod 3, afebrile, tolerating diet} x {pod 3, ambulating, wound
	// clean} is 2*1/6.
	score := scorer.ScoreText(
		"pod 3: patient afebrile, tolerating diet.",
		"pod 3: ambulating with patient, wound clean.",
	)
	if math.Abs(score.Semantic-1.0/3.0) > 1e-9 {
		t.Fatalf("semantic = %v, want 1/3 for a shared temporal anchor", score.Semantic)
	}
}

// Same-day partial notes must land inside the complementary merge band.
func TestScoreSameDayPartialNotesReachMergeBand(t *testing.T) {
	t.Parallel()

	scorer := newTestScorer(t)
	score := scorer.ScoreText(
		"POD 3: patient afebrile, tolerating diet.",
		"POD 3: ambulating with PT, wound clean.",
	)
	if score.Combined < 0.30 || score.Combined >= 0.60 {
		t.Fatalf("combined = %v, want within [0.30, 0.60) (parts %+v)", score.Combined, score)
	}
}

func TestLevenshteinSimilarity(t *testing.T) {
	t.Parallel()

	cases := []struct {
		left, right string
		want        float64
	}{
		{"", "", 1},
		{"abc", "", 0},
		{"abc", "abc", 1},
		{"kitten", "sitten", 1 - 1.0/6.0},
	}
	for _, tc := range cases {
		got := levenshteinSimilarity(tc.left, tc.right)
		if math.Abs(got-tc.want) > 1e-12 {
			t.Fatalf("levenshteinSimilarity(%q, %q) = %v, want %v", tc.left, tc.right, got, tc.want)
		}
	}
}

func TestWordSetJaccard(t *testing.T) {
	t.Parallel()

	if got := wordSetJaccard(nil, nil); got != 0 {
		t.Fatalf("jaccard of two empty sets = %v, want 0", got)
	}
	got := wordSetJaccard([]string{"a", "b", "c"}, []string{"b", "c", "d"})
	if math.Abs(got-0.5) > 1e-12 {
		t.Fatalf("jaccard = %v, want 0.5", got)
	}
}
