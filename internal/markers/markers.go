// Package markers extracts temporal references (post-operative day
// counters, explicit dates) and exposes the collaborator counter
// signatures the priority scorer consumes.
package markers

import (
	"regexp"
	"strings"

	"ward.fit/collate/internal/lexicon"
)

// EntityCounter reports how many clinical entities a text mentions.
type EntityCounter func(text string) int

// TemporalCounter reports how many temporal markers a text carries.
type TemporalCounter func(text string) int

var (
	// podRegex matches post-operative day references: "POD 3", "POD#3",
	// "pod3", "post-op day 3".
	podRegex = regexp.MustCompile(`(?i)\b(?:pod|post[- ]?op(?:erative)? day)\s*#?\s*(\d{1,3})\b`)

	// hospitalDayRegex matches "HD 4" / "hospital day 4".
	hospitalDayRegex = regexp.MustCompile(`(?i)\b(?:hd|hospital day)\s*#?\s*(\d{1,3})\b`)

	// numericDateRegex matches 1/2/2026, 01-02-26, 2026-01-02.
	numericDateRegex = regexp.MustCompile(`\b(?:\d{4}-\d{1,2}-\d{1,2}|\d{1,2}[/-]\d{1,2}(?:[/-]\d{2,4})?)\b`)

	// monthDateRegex matches "jan 3", "january 3rd", "3 feb".
	monthDateRegex = regexp.MustCompile(`(?i)\b(?:(?:jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec)[a-z]*\.?\s+\d{1,2}(?:st|nd|rd|th)?|\d{1,2}\s+(?:jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec)[a-z]*\.?)\b`)

	// relativeDayRegex matches relative day words that mark a temporal
	// anchor without naming a date.
	relativeDayRegex = regexp.MustCompile(`(?i)\b(?:today|yesterday|overnight|this morning|this evening|tonight)\b`)
)

// TemporalRefs returns the normalized temporal references of a text: POD
// and hospital-day counters first ("pod 3", "hd 4"), then literal date
// strings. The same reference appearing twice is reported once.
func TemporalRefs(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	seen := make(map[string]struct{})
	var refs []string
	add := func(ref string) {
		if ref == "" {
			return
		}
		if _, ok := seen[ref]; ok {
			return
		}
		seen[ref] = struct{}{}
		refs = append(refs, ref)
	}

	for _, match := range podRegex.FindAllStringSubmatch(text, -1) {
		if len(match) > 1 {
			add("pod " + match[1])
		}
	}
	for _, match := range hospitalDayRegex.FindAllStringSubmatch(text, -1) {
		if len(match) > 1 {
			add("hd " + match[1])
		}
	}
	for _, match := range numericDateRegex.FindAllString(text, -1) {
		add(strings.ToLower(match))
	}
	for _, match := range monthDateRegex.FindAllString(text, -1) {
		add(strings.ToLower(strings.Join(strings.Fields(match), " ")))
	}
	return refs
}

// CountTemporalMarkers counts distinct temporal references plus relative
// day anchors; it is the default TemporalCounter.
func CountTemporalMarkers(text string) int {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	count := len(TemporalRefs(text))
	count += len(relativeDayRegex.FindAllString(text, -1))
	return count
}

// CountEntities counts distinct category-qualified concepts via the static
// lexicon; it is the default EntityCounter.
func CountEntities(text string) int {
	return len(lexicon.Concepts(text))
}

// CountOperativeMentions counts references to an operation or procedure;
// the priority scorer adds one operative bonus unit per mention.
var operativeMentionRegex = regexp.MustCompile(`(?i)\b(?:operative|operation|procedure|surgery|surgical|intraop(?:erative)?)\b`)

func CountOperativeMentions(text string) int {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	return len(operativeMentionRegex.FindAllString(text, -1))
}

// SharedTemporalRef reports whether two texts name at least one common
// POD/date reference.
func SharedTemporalRef(a, b string) bool {
	refsA := TemporalRefs(a)
	if len(refsA) == 0 {
		return false
	}
	refsB := TemporalRefs(b)
	if len(refsB) == 0 {
		return false
	}

	set := make(map[string]struct{}, len(refsA))
	for _, ref := range refsA {
		set[ref] = struct{}{}
	}
	for _, ref := range refsB {
		if _, ok := set[ref]; ok {
			return true
		}
	}
	return false
}
