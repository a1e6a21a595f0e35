package engine

import (
	"math/bits"

	"ward.fit/collate/internal/note"
)

const (
	// simhashMinWords keeps the filter off short spans, where single
	// tokens swing too many simhash bits to trust the distance.
	simhashMinWords = 12

	// simhashSkipDistance is the Hamming distance beyond which full
	// scoring cannot plausibly reach the near-duplicate threshold.
	simhashSkipDistance = 26
)

// simhashFar reports whether two normalized texts are far enough apart in
// simhash space to skip full similarity scoring. It only ever rules pairs
// out: false means "score it", never "duplicate".
func simhashFar(a, b *note.NormalizedText) bool {
	if a == nil || b == nil || !a.HasSimhash || !b.HasSimhash {
		return false
	}
	if len(a.Words) < simhashMinWords || len(b.Words) < simhashMinWords {
		return false
	}
	return bits.OnesCount64(a.Simhash^b.Simhash) > simhashSkipDistance
}
