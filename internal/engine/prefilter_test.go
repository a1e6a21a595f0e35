package engine

import (
	"fmt"
	"testing"

	"ward.fit/collate/internal/note"
)

func prefilterNorm(words int, simhash uint64) *note.NormalizedText {
	n := &note.NormalizedText{Simhash: simhash, HasSimhash: true}
	for i := 0; i < words; i++ {
		n.Words = append(n.Words, fmt.Sprintf("w%d", i))
	}
	return n
}

func TestSimhashFar(t *testing.T) {
	t.Parallel()

	long := simhashMinWords
	short := simhashMinWords - 1

	cases := []struct {
		name string
		a, b *note.NormalizedText
		want bool
	}{
		{"identical hashes", prefilterNorm(long, 0xF0F0), prefilterNorm(long, 0xF0F0), false},
		{"distance at the cutoff", prefilterNorm(long, 0), prefilterNorm(long, 1<<simhashSkipDistance-1), false},
		{"distance past the cutoff", prefilterNorm(long, 0), prefilterNorm(long, 1<<(simhashSkipDistance+1)-1), true},
		{"maximal distance", prefilterNorm(long, 0), prefilterNorm(long, ^uint64(0)), true},
		{"short left side", prefilterNorm(short, 0), prefilterNorm(long, ^uint64(0)), false},
		{"short right side", prefilterNorm(long, 0), prefilterNorm(short, ^uint64(0)), false},
		{"nil side", nil, prefilterNorm(long, 0), false},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := simhashFar(tc.a, tc.b); got != tc.want {
				t.Fatalf("simhashFar = %v, want %v", got, tc.want)
			}
		})
	}

	missing := prefilterNorm(long, 0)
	missing.HasSimhash = false
	if simhashFar(missing, prefilterNorm(long, ^uint64(0))) {
		t.Fatal("missing simhash must never rule a pair out")
	}
}
