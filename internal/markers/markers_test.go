package markers

import (
	"reflect"
	"testing"
)

func TestTemporalRefsNormalizesPODVariants(t *testing.T) {
	t.Parallel()

	variants := []string{
		"POD 3: doing well.",
		"pod3 exam stable.",
		"POD#3 afebrile.",
		"Post-op day 3 without events.",
		"postop day 3, tolerating diet.",
	}
	for _, text := range variants {
		refs := TemporalRefs(text)
		if !reflect.DeepEqual(refs, []string{"pod 3"}) {
			t.Fatalf("TemporalRefs(%q) = %v, want [pod 3]", text, refs)
		}
	}
}

func TestTemporalRefsKindsAndDedup(t *testing.T) {
	t.Parallel()

	text := "POD 2 / HD 4. Angiogram on 1/15/2026, repeat POD 2 exam. Seen Jan 16."
	refs := TemporalRefs(text)
	want := []string{"pod 2", "hd 4", "1/15/2026", "jan 16"}
	if !reflect.DeepEqual(refs, want) {
		t.Fatalf("TemporalRefs = %v, want %v", refs, want)
	}
}

func TestTemporalRefsEmpty(t *testing.T) {
	t.Parallel()

	for _, text := range []string{"", "   ", "exam unchanged, plan continues."} {
		if refs := TemporalRefs(text); refs != nil {
			t.Fatalf("TemporalRefs(%q) = %v, want nil", text, refs)
		}
	}
}

func TestCountTemporalMarkers(t *testing.T) {
	t.Parallel()

	cases := []struct {
		text string
		want int
	}{
		{"", 0},
		{"exam unchanged.", 0},
		{"POD 3: stable overnight.", 2},
		{"Seen today and yesterday; CTA on 2026-01-15.", 3},
	}
	for _, tc := range cases {
		if got := CountTemporalMarkers(tc.text); got != tc.want {
			t.Fatalf("CountTemporalMarkers(%q) = %d, want %d", tc.text, got, tc.want)
		}
	}
}

func TestCountEntities(t *testing.T) {
	t.Parallel()

	if got := CountEntities("plan: continue observation."); got != 0 {
		t.Fatalf("entity count = %d, want 0", got)
	}
	got := CountEntities("cta shows vasospasm; nimodipine continued.")
	if got != 3 {
		t.Fatalf("entity count = %d, want 3 (imaging, pathology, medication)", got)
	}
}

func TestCountOperativeMentions(t *testing.T) {
	t.Parallel()

	cases := []struct {
		text string
		want int
	}{
		{"", 0},
		{"postoperative check unremarkable.", 0},
		{"operative report: surgery tolerated well.", 2},
		{"intraop findings reviewed with surgical team.", 2},
	}
	for _, tc := range cases {
		if got := CountOperativeMentions(tc.text); got != tc.want {
			t.Fatalf("CountOperativeMentions(%q) = %d, want %d", tc.text, got, tc.want)
		}
	}
}

func TestSharedTemporalRef(t *testing.T) {
	t.Parallel()

	cases := []struct {
		a, b string
		want bool
	}{
		{"POD 3: stable.", "Post-op day 3, ambulating.", true},
		{"POD 3: stable.", "POD#3 wound clean.", true},
		{"POD 3: stable.", "POD 4: worse.", false},
		{"Seen 1/15/2026.", "Follow-up 1/15/2026 noted.", true},
		{"POD 3: stable.", "exam unchanged.", false},
		{"", "POD 3.", false},
	}
	for _, tc := range cases {
		if got := SharedTemporalRef(tc.a, tc.b); got != tc.want {
			t.Fatalf("SharedTemporalRef(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}
