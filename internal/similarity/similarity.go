package similarity

import (
	"fmt"
	"math"

	"ward.fit/collate/internal/lexicon"
	"ward.fit/collate/internal/markers"
	"ward.fit/collate/internal/note"
)

const (
	DefaultJaccardWeight     = 0.4
	DefaultLevenshteinWeight = 0.2
	DefaultSemanticWeight    = 0.4

	weightSumEpsilon = 1e-6
)

// Weights combines the three independent similarity signals. The weights
// must sum to 1.0; violating sets are rejected at construction.
type Weights struct {
	Jaccard     float64
	Levenshtein float64
	Semantic    float64
}

// DefaultWeights returns the 0.4/0.2/0.4 default.
func DefaultWeights() Weights {
	return Weights{
		Jaccard:     DefaultJaccardWeight,
		Levenshtein: DefaultLevenshteinWeight,
		Semantic:    DefaultSemanticWeight,
	}
}

// Validate rejects weights outside [0,1] or not summing to 1.0.
func (w Weights) Validate() error {
	for name, value := range map[string]float64{
		"jaccard":     w.Jaccard,
		"levenshtein": w.Levenshtein,
		"semantic":    w.Semantic,
	} {
		if value < 0 || value > 1 {
			return fmt.Errorf("%s weight must be within [0,1], got %.6f", name, value)
		}
	}
	sum := w.Jaccard + w.Levenshtein + w.Semantic
	if math.Abs(sum-1.0) > weightSumEpsilon {
		return fmt.Errorf("similarity weights must sum to 1.0, got %.6f", sum)
	}
	return nil
}

// Score carries the three component scores and their weighted combination.
// Every field is within [0,1].
type Score struct {
	Jaccard     float64 `json:"jaccard"`
	Levenshtein float64 `json:"levenshtein"`
	Semantic    float64 `json:"semantic"`
	Combined    float64 `json:"combined"`
}

// Scorer computes similarity scores between two normalized text spans.
// Construction validates the weights; scoring never fails.
type Scorer struct {
	weights  Weights
	concepts lexicon.LookupFunc
}

// NewScorer builds a scorer. A nil concept lookup falls back to the static
// lexicon.
func NewScorer(weights Weights, concepts lexicon.LookupFunc) (*Scorer, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	if concepts == nil {
		concepts = lexicon.Concepts
	}
	return &Scorer{
		weights:  weights,
		concepts: concepts,
	}, nil
}

// Weights returns the configured weights.
func (s *Scorer) Weights() Weights {
	return s.weights
}

// Score computes all component scores between a and b. Nil inputs are
// coerced to empty normalized text; the result is symmetric in a and b.
func (s *Scorer) Score(a, b *note.NormalizedText) Score {
	if a == nil {
		a = &note.NormalizedText{}
	}
	if b == nil {
		b = &note.NormalizedText{}
	}

	jaccard := wordSetJaccard(a.Words, b.Words)
	levenshtein := levenshteinSimilarity(a.Lowered, b.Lowered)
	semantic := s.semanticScore(a, b)

	combined := (s.weights.Jaccard * jaccard) +
		(s.weights.Levenshtein * levenshtein) +
		(s.weights.Semantic * semantic)

	return Score{
		Jaccard:     jaccard,
		Levenshtein: levenshtein,
		Semantic:    semantic,
		Combined:    clamp01(combined),
	}
}

// ScoreText scores two raw spans through normalization; used for
// sentence-granularity comparisons.
func (s *Scorer) ScoreText(a, b string) Score {
	return s.Score(note.Normalize(a), note.Normalize(b))
}

func wordSetJaccard(left, right []string) float64 {
	leftSet := toSet(left)
	rightSet := toSet(right)
	if len(leftSet) == 0 && len(rightSet) == 0 {
		return 0
	}

	intersection := 0
	for token := range leftSet {
		if _, ok := rightSet[token]; ok {
			intersection++
		}
	}
	union := len(leftSet) + len(rightSet) - intersection
	if union <= 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func toSet(tokens []string) map[string]struct{} {
	if len(tokens) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		set[token] = struct{}{}
	}
	return set
}

// levenshteinSimilarity is 1 - editDistance/max(len). Two empty strings
// are identical by definition.
func levenshteinSimilarity(left, right string) float64 {
	leftRunes := []rune(left)
	rightRunes := []rune(right)

	longest := len(leftRunes)
	if len(rightRunes) > longest {
		longest = len(rightRunes)
	}
	if longest == 0 {
		return 1
	}

	distance := levenshteinDistance(leftRunes, rightRunes)
	return clamp01(1 - float64(distance)/float64(longest))
}

// levenshteinDistance is the classic two-row dynamic program over runes.
func levenshteinDistance(left, right []rune) int {
	if len(left) == 0 {
		return len(right)
	}
	if len(right) == 0 {
		return len(left)
	}

	previous := make([]int, len(right)+1)
	current := make([]int, len(right)+1)
	for j := 0; j <= len(right); j++ {
		previous[j] = j
	}

	for i := 1; i <= len(left); i++ {
		current[0] = i
		for j := 1; j <= len(right); j++ {
			substitution := previous[j-1]
			if left[i-1] != right[j-1] {
				substitution++
			}
			insertion := current[j-1] + 1
			deletion := previous[j] + 1

			best := substitution
			if insertion < best {
				best = insertion
			}
			if deletion < best {
				best = deletion
			}
			current[j] = best
		}
		previous, current = current, previous
	}
	return previous[len(right)]
}

// semanticScore is the Sørensen-Dice coefficient over category-qualified
// concept sets, with the text's temporal references counted as concepts
// so two partial notes anchored to the same post-operative day still
// register semantic overlap. When neither side carries any concept the
// signal falls back to word overlap: the identity property holds for
// every non-empty text, concept-rich or not.
func (s *Scorer) semanticScore(a, b *note.NormalizedText) float64 {
	left := s.conceptSet(a.Lowered)
	right := s.conceptSet(b.Lowered)
	if len(left) == 0 && len(right) == 0 {
		return wordSetJaccard(a.Words, b.Words)
	}
	if len(left) == 0 || len(right) == 0 {
		return 0
	}

	intersection := 0
	for concept := range left {
		if _, ok := right[concept]; ok {
			intersection++
		}
	}
	return float64(2*intersection) / float64(len(left)+len(right))
}

// conceptSet unions the lexicon concepts with the temporal references of
// the text. The lookup's map is never mutated.
func (s *Scorer) conceptSet(lowered string) map[lexicon.Concept]struct{} {
	concepts := s.concepts(lowered)
	refs := markers.TemporalRefs(lowered)
	if len(refs) == 0 {
		return concepts
	}

	merged := make(map[lexicon.Concept]struct{}, len(concepts)+len(refs))
	for concept := range concepts {
		merged[concept] = struct{}{}
	}
	for _, ref := range refs {
		merged[lexicon.Concept{Category: lexicon.CategoryTemporal, Token: ref}] = struct{}{}
	}
	return merged
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
