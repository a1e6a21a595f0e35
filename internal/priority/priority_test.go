package priority

import (
	"testing"

	"ward.fit/collate/internal/note"
)

func scoreWithRole(t *testing.T, scorer *Scorer, role note.SourceRole, text string) float64 {
	t.Helper()
	n := note.New("n-"+string(role), text, role, 0)
	return scorer.Score(&n).Score
}

func TestRoleBonusOrdering(t *testing.T) {
	t.Parallel()

	scorer := NewScorer()
	// Same body across roles; no operative keyword, so the operative
	// bonus stays at its single-unit minimum.
	text := "exam unchanged overnight. plan continue current management."

	consultant := scoreWithRole(t, scorer, note.RoleConsultant, text)
	attending := scoreWithRole(t, scorer, note.RoleAttending, text)
	operative := scoreWithRole(t, scorer, note.RoleOperative, text)
	resident := scoreWithRole(t, scorer, note.RoleResident, text)
	unknown := scoreWithRole(t, scorer, note.RoleUnknown, text)

	if !(consultant > attending && attending > operative && operative > resident) {
		t.Fatalf("bonus ordering broken: consultant=%v attending=%v operative=%v resident=%v",
			consultant, attending, operative, resident)
	}
	if resident != unknown {
		t.Fatalf("resident and unknown should carry no bonus: %v vs %v", resident, unknown)
	}
}

func TestOperativeBonusPerMention(t *testing.T) {
	t.Parallel()

	scorer := NewScorerWithCounters(nil, nil)
	once := note.New("op-1", "operative course uneventful", note.RoleOperative, 0)
	twice := note.New("op-2", "operative course uneventful, surgery tolerated", note.RoleOperative, 1)

	a := scorer.Score(&once).Score
	b := scorer.Score(&twice).Score
	if b <= a {
		t.Fatalf("second operative mention should raise the score: %v vs %v", a, b)
	}
}

func TestScoreCountsEntitiesAndTemporalMarkers(t *testing.T) {
	t.Parallel()

	scorer := NewScorer()
	sparse := note.New("s", "doing well today overall.", note.RoleResident, 0)
	dense := note.New("d", "pod 3: vasospasm on cta, nimodipine started.", note.RoleResident, 1)

	if scorer.Score(&dense).Score <= scorer.Score(&sparse).Score {
		t.Fatal("concept- and marker-dense note should outscore a sparse one")
	}
}

func TestScoreMonotonicInLength(t *testing.T) {
	t.Parallel()

	scorer := NewScorerWithCounters(nil, nil)
	short := note.New("a", "stable exam.", note.RoleUnknown, 0)
	long := note.New("b", "stable exam. stable exam. stable exam. stable exam.", note.RoleUnknown, 1)

	if scorer.Score(&long).Score <= scorer.Score(&short).Score {
		t.Fatal("longer note with equal counts should score higher")
	}
}

func TestNilInputsDoNotCrash(t *testing.T) {
	t.Parallel()

	scorer := NewScorerWithCounters(nil, nil)
	if got := scorer.Score(nil); got.Score != 0 {
		t.Fatalf("nil note score = %v, want 0", got.Score)
	}

	n := note.New("x", "afebrile this morning.", note.RoleAttending, 0)
	if got := scorer.Score(&n); got.NoteID != "x" {
		t.Fatalf("note id = %q, want %q", got.NoteID, "x")
	}
}

func TestScoreDeterministic(t *testing.T) {
	t.Parallel()

	scorer := NewScorer()
	n := note.New("det", "pod 2: wound clean, afebrile, ambulating.", note.RoleAttending, 3)
	first := scorer.Score(&n)
	for i := 0; i < 5; i++ {
		if got := scorer.Score(&n); got != first {
			t.Fatalf("score changed between calls: %+v vs %+v", first, got)
		}
	}
}
