package reader

import (
	"strings"
	"testing"
)

func TestCleanTextCollapsesWhitespaceAndKeepsLines(t *testing.T) {
	input := "  POD 3:   afebrile \r\n\r\n Wound\tclean "
	got := CleanText(input)
	want := "POD 3: afebrile\nWound clean"
	if got != want {
		t.Fatalf("CleanText mismatch\nwant: %q\ngot:  %q", want, got)
	}
}

func TestExtractTextFromHTMLNote(t *testing.T) {
	html := `<html><head><title>Progress Note</title></head><body>
		<div class="note"><p>POD 3: afebrile, wound clean.</p>
		<p>Tolerating diet, ambulating with PT.</p></div>
	</body></html>`

	text, err := ExtractText(html)
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if !strings.Contains(text, "POD 3: afebrile, wound clean.") {
		t.Fatalf("missing first paragraph in %q", text)
	}
	if !strings.Contains(text, "Tolerating diet, ambulating with PT.") {
		t.Fatalf("missing second paragraph in %q", text)
	}
	if strings.Contains(text, "<p>") {
		t.Fatalf("markup leaked into extracted text: %q", text)
	}
}

func TestExtractTextEmptyInput(t *testing.T) {
	if _, err := ExtractText("   "); err == nil {
		t.Fatalf("expected error for empty html")
	}
}

func TestStripTagsFallback(t *testing.T) {
	got := CleanText(stripTags("<div>POD 2: stable.</div><div>Plan unchanged.</div>"))
	want := "POD 2: stable.\nPlan unchanged."
	if got != want {
		t.Fatalf("stripTags fallback mismatch\nwant: %q\ngot:  %q", want, got)
	}
}
