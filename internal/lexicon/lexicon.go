// Package lexicon holds the static category→keyword tables behind the
// semantic similarity signal. The tables are data, not code: matching is a
// pure lookup so the semantic score stays deterministic and testable
// independent of the rest of the pipeline.
package lexicon

import (
	"strings"
	"unicode"
)

// Category is one clinical concept family.
type Category string

const (
	CategoryProcedures  Category = "procedures"
	CategoryPathologies Category = "pathologies"
	CategoryImaging     Category = "imaging"
	CategoryMedications Category = "medications"
	CategoryAnatomy     Category = "anatomy"
	CategoryFindings    Category = "findings"

	// CategoryTemporal qualifies temporal reference tokens ("pod 3",
	// dates) contributed by the markers package. It has no keyword table
	// here; the similarity scorer adds these concepts itself.
	CategoryTemporal Category = "temporal"
)

// Concept is a category-qualified token: "coiling" under procedures is a
// different concept from "coiling" under any other category.
type Concept struct {
	Category Category
	Token    string
}

// LookupFunc is the collaborator signature the similarity scorer consumes.
type LookupFunc func(text string) map[Concept]struct{}

// categoryKeywords is the versioned concept table. Multi-word keywords are
// matched as phrases against the normalized text; single words against the
// token stream.
var categoryKeywords = map[Category][]string{
	CategoryProcedures: {
		"craniotomy", "coiling", "clipping", "embolization", "evd",
		"ventriculostomy", "shunt", "angioplasty", "thrombectomy",
		"intubation", "extubation", "tracheostomy", "laminectomy",
		"fusion", "decompression", "drain placement", "lumbar puncture",
		"central line", "peg placement",
	},
	CategoryPathologies: {
		"vasospasm", "aneurysm", "hemorrhage", "hematoma", "hydrocephalus",
		"edema", "infarct", "stroke", "seizure", "infection", "sepsis",
		"pneumonia", "dvt", "pulmonary embolism", "meningitis", "fever",
		"sah", "subarachnoid hemorrhage", "stenosis", "herniation",
	},
	CategoryImaging: {
		"ct", "cta", "mri", "mra", "angiogram", "angiography", "x-ray",
		"xray", "ultrasound", "doppler", "tcd", "transcranial doppler",
		"perfusion", "eeg",
	},
	CategoryMedications: {
		"nimodipine", "heparin", "warfarin", "aspirin", "keppra",
		"levetiracetam", "mannitol", "hypertonic saline", "dexamethasone",
		"vancomycin", "cefepime", "insulin", "metoprolol", "labetalol",
		"nicardipine", "fentanyl", "propofol",
	},
	CategoryAnatomy: {
		"aca", "mca", "pca", "ica", "basilar", "vertebral", "carotid",
		"frontal", "temporal", "parietal", "occipital", "cerebellum",
		"brainstem", "ventricle", "spine", "cervical", "lumbar", "thoracic",
	},
	CategoryFindings: {
		"afebrile", "febrile", "alert", "oriented", "lethargic", "obtunded",
		"ambulating", "tolerating diet", "wound clean", "wound intact",
		"neurologically intact", "pupils equal", "hemiparesis", "aphasia",
		"drift", "gcs", "stable", "improving", "deteriorating",
	},
}

// Concepts extracts the category-qualified concept set of a text span.
// Texts without any matched concept yield an empty, non-nil set.
func Concepts(text string) map[Concept]struct{} {
	normalized := normalizeForLookup(text)
	if normalized == "" {
		return map[Concept]struct{}{}
	}

	tokens := make(map[string]struct{})
	for _, field := range strings.FieldsFunc(normalized, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '-'
	}) {
		if field != "" {
			tokens[field] = struct{}{}
		}
	}

	concepts := make(map[Concept]struct{})
	for category, keywords := range categoryKeywords {
		for _, keyword := range keywords {
			if strings.ContainsRune(keyword, ' ') || strings.ContainsRune(keyword, '-') {
				if containsPhrase(normalized, keyword) {
					concepts[Concept{Category: category, Token: keyword}] = struct{}{}
				}
				continue
			}
			if _, ok := tokens[keyword]; ok {
				concepts[Concept{Category: category, Token: keyword}] = struct{}{}
			}
		}
	}
	return concepts
}

// Categories lists the known categories in a stable order.
func Categories() []Category {
	return []Category{
		CategoryProcedures,
		CategoryPathologies,
		CategoryImaging,
		CategoryMedications,
		CategoryAnatomy,
		CategoryFindings,
	}
}

// KeywordCount returns the table size for a category; zero for unknown
// categories.
func KeywordCount(category Category) int {
	return len(categoryKeywords[category])
}

func normalizeForLookup(text string) string {
	lowered := strings.ToLower(strings.TrimSpace(text))
	if lowered == "" {
		return ""
	}
	return strings.Join(strings.Fields(lowered), " ")
}

// containsPhrase checks a multi-word keyword with word boundaries on both
// sides so "sah" never matches inside "sahara".
func containsPhrase(text, phrase string) bool {
	idx := 0
	for {
		found := strings.Index(text[idx:], phrase)
		if found < 0 {
			return false
		}
		start := idx + found
		end := start + len(phrase)

		leftOK := start == 0 || !isWordChar(rune(text[start-1]))
		rightOK := end == len(text) || !isWordChar(rune(text[end]))
		if leftOK && rightOK {
			return true
		}
		idx = start + 1
		if idx >= len(text) {
			return false
		}
	}
}

func isWordChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r)
}
