// Package reader turns HTML-exported chart notes into the plain text the
// dedup engine consumes. No network access: the HTML arrives inside the
// note bundle.
package reader

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	readability "codeberg.org/readeck/go-readability/v2"
)

// baseURL anchors relative references inside exported documents; the
// exports never link anywhere meaningful, the parser just needs one.
var baseURL = &url.URL{Scheme: "https", Host: "localhost", Path: "/note"}

// ExtractText extracts the readable text of an HTML note export. Exports
// that readability cannot parse fall back to a tag-stripped rendering so
// a badly formed note still enters the pipeline instead of failing it.
func ExtractText(html string) (string, error) {
	trimmed := strings.TrimSpace(html)
	if trimmed == "" {
		return "", fmt.Errorf("html content is empty")
	}

	article, err := readability.FromReader(strings.NewReader(trimmed), baseURL)
	if err != nil {
		if fallback := CleanText(stripTags(trimmed)); fallback != "" {
			return fallback, nil
		}
		return "", fmt.Errorf("readability parse: %w", err)
	}

	var rendered bytes.Buffer
	if err := article.RenderText(&rendered); err != nil {
		return "", fmt.Errorf("render readability text: %w", err)
	}

	text := CleanText(rendered.String())
	if text == "" {
		text = CleanText(stripTags(trimmed))
	}
	if text == "" {
		return "", fmt.Errorf("extracted empty content")
	}

	return text, nil
}

// CleanText normalizes line endings and collapses in-line whitespace while
// keeping paragraph breaks, which later become sentence boundaries.
func CleanText(raw string) string {
	normalized := strings.ReplaceAll(raw, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")

	lines := strings.Split(normalized, "\n")
	paragraphs := make([]string, 0, len(lines))
	for _, line := range lines {
		clean := strings.Join(strings.Fields(strings.TrimSpace(line)), " ")
		if clean == "" {
			continue
		}
		paragraphs = append(paragraphs, clean)
	}

	return strings.TrimSpace(strings.Join(paragraphs, "\n"))
}

// stripTags is the crude fallback for markup readability rejects: drop
// everything between angle brackets, inserting breaks for block-ish tags.
func stripTags(html string) string {
	var b strings.Builder
	b.Grow(len(html))
	inTag := false
	for _, r := range html {
		switch {
		case r == '<':
			inTag = true
			b.WriteRune('\n')
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return b.String()
}
