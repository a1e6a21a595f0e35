package note

import "testing"

func TestParseSourceRole(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw     string
		want    SourceRole
		wantErr bool
	}{
		{"attending", RoleAttending, false},
		{" Consultant ", RoleConsultant, false},
		{"PT_OT", RolePTOT, false},
		{"operative", RoleOperative, false},
		{"", RoleUnknown, false},
		{"unknown", RoleUnknown, false},
		{"surgeon", RoleUnknown, true},
	}
	for _, tc := range cases {
		got, err := ParseSourceRole(tc.raw)
		if tc.wantErr && err == nil {
			t.Fatalf("ParseSourceRole(%q): expected error", tc.raw)
		}
		if !tc.wantErr && err != nil {
			t.Fatalf("ParseSourceRole(%q): %v", tc.raw, err)
		}
		if got != tc.want {
			t.Fatalf("ParseSourceRole(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestInferSourceRole(t *testing.T) {
	t.Parallel()

	cases := []struct {
		label string
		want  SourceRole
	}{
		{"Attending Progress Note", RoleAttending},
		{"Neurology Consult", RoleConsultant},
		{"PT consult", RolePTOT}, // therapy, not consultant
		{"Occupational Therapy Eval", RolePTOT},
		{"Operative Report", RoleOperative},
		{"Resident Daily Note", RoleResident},
		{"Nursing Flowsheet", RoleUnknown},
		{"", RoleUnknown},
	}
	for _, tc := range cases {
		if got := InferSourceRole(tc.label); got != tc.want {
			t.Fatalf("InferSourceRole(%q) = %q, want %q", tc.label, got, tc.want)
		}
	}
}

func TestNormalizeLowercasesAndCollapsesWhitespace(t *testing.T) {
	t.Parallel()

	norm := Normalize("  POD 3:\t Patient   AFEBRILE.\n\nWound   clean. ")
	want := "pod 3: patient afebrile. wound clean."
	if norm.Lowered != want {
		t.Fatalf("Lowered = %q, want %q", norm.Lowered, want)
	}
	if len(norm.Sentences) != 2 {
		t.Fatalf("sentence count = %d, want 2: %q", len(norm.Sentences), norm.Sentences)
	}
}

func TestNormalizeExpandsClinicalShorthand(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw  string
		want string
	}{
		{"Pt developed vasospasm POD#3.", "patient developed vasospasm pod 3."},
		{"Post-op day 3: s/p craniotomy, pt c/o headache.", "pod 3: status post craniotomy, patient complains of headache."},
		{"Hospital Day 4, afebrile, w/o events.", "hd 4, afebrile, without events."},
		{"Pts seen w/ family, hx reviewed.", "patients seen with family, history reviewed."},
	}
	for _, tc := range cases {
		if got := Normalize(tc.raw).Lowered; got != tc.want {
			t.Fatalf("Normalize(%q).Lowered = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestFingerprintMatchesAcrossShorthandVariants(t *testing.T) {
	t.Parallel()

	a := Normalize("Patient developed vasospasm on POD 3.")
	b := Normalize("Pt developed vasospasm on POD#3.")
	if a.Fingerprint() != b.Fingerprint() {
		t.Fatal("shorthand variants of identical content should share a fingerprint")
	}
}

func TestNormalizeStripsBoilerplateHeaders(t *testing.T) {
	t.Parallel()

	raw := "Patient Name: Doe, J\r\nMRN: 000123\r\nDOB: 1/1/1960\r\nPOD 2: afebrile, tolerating diet."
	norm := Normalize(raw)
	if norm.Lowered != "pod 2: afebrile, tolerating diet." {
		t.Fatalf("boilerplate survived normalization: %q", norm.Lowered)
	}
}

func TestNormalizeEmptyInput(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "   ", "\n\t\r\n", "MRN: 123"} {
		norm := Normalize(raw)
		if !norm.IsEmpty() {
			t.Fatalf("Normalize(%q) should be empty, got %q", raw, norm.Lowered)
		}
		if norm.HasSimhash {
			t.Fatalf("empty text should carry no simhash: %q", raw)
		}
	}
}

func TestSplitSentences(t *testing.T) {
	t.Parallel()

	cases := []struct {
		text string
		want []string
	}{
		{"one sentence without terminator", []string{"one sentence without terminator"}},
		{"first. second! third?", []string{"first.", "second!", "third?"}},
		// Dotted numerics do not end sentences mid-token.
		{"temp 37.2 stable. plan unchanged.", []string{"temp 37.2 stable.", "plan unchanged."}},
		{"...", nil},
		{"", nil},
	}
	for _, tc := range cases {
		got := splitSentences(tc.text)
		if len(got) != len(tc.want) {
			t.Fatalf("splitSentences(%q) = %q, want %q", tc.text, got, tc.want)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("splitSentences(%q)[%d] = %q, want %q", tc.text, i, got[i], tc.want[i])
			}
		}
	}
}

func TestFingerprintMatchesAcrossFormattingVariants(t *testing.T) {
	t.Parallel()

	a := Normalize("Patient afebrile.\nWound clean.")
	b := Normalize("patient   AFEBRILE. wound clean.")
	if a.Fingerprint() != b.Fingerprint() {
		t.Fatal("formatting variants of identical content should share a fingerprint")
	}

	c := Normalize("patient febrile. wound clean.")
	if a.Fingerprint() == c.Fingerprint() {
		t.Fatal("different content should not share a fingerprint")
	}
}

func TestSimhashStableAcrossTokenOrder(t *testing.T) {
	t.Parallel()

	a := Normalize("nimodipine started for vasospasm")
	b := Normalize("vasospasm for started nimodipine")
	if !a.HasSimhash || !b.HasSimhash {
		t.Fatal("both texts should produce a simhash")
	}
	if a.Simhash != b.Simhash {
		t.Fatal("simhash should be order-independent over the same token bag")
	}
}

func TestNoteCachesNormalizedForm(t *testing.T) {
	t.Parallel()

	n := New(" n-1 ", "Afebrile today.", RoleAttending, 4)
	if n.ID != "n-1" {
		t.Fatalf("ID = %q, want trimmed id", n.ID)
	}
	first := n.Normalized()
	if first == nil || first.IsEmpty() {
		t.Fatal("expected cached normalized text")
	}
	if n.Normalized() != first {
		t.Fatal("Normalized should return the cached pointer")
	}
}
