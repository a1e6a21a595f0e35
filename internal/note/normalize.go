package note

import (
	"crypto/sha256"
	"hash/fnv"
	"regexp"
	"strings"
	"unicode"

	"ward.fit/collate/internal/langdetect"
)

// NormalizedText is the derived, cached per-note form every similarity
// phase works on. Never mutated after creation.
type NormalizedText struct {
	Lowered    string
	Words      []string
	Sentences  []string
	Language   string
	Simhash    uint64
	HasSimhash bool
}

// boilerplateHeaderPrefixes are chart-export header lines that carry no
// clinical content and would otherwise inflate lexical overlap between
// every pair of notes from the same system.
var boilerplateHeaderPrefixes = []string{
	"patient name:",
	"patient:",
	"mrn:",
	"dob:",
	"date of birth:",
	"date of service:",
	"service date:",
	"electronically signed",
	"signed by:",
	"page ",
	"confidential",
}

// clinicalShorthand rewrites chart shorthand to its spelled-out form so
// abbreviation variants of the same statement normalize to the same
// tokens: "Pt developed vasospasm POD#3." and "Patient developed
// vasospasm on POD 3." must land in the same near-duplicate cluster.
// Applied after lowercasing, longest patterns first.
var clinicalShorthand = []struct {
	pattern *regexp.Regexp
	repl    string
}{
	{regexp.MustCompile(`\bpost[- ]?op(?:erative)?\s+day\s*#?\s*(\d{1,3})\b`), "pod $1"},
	{regexp.MustCompile(`\bpod\s*#?\s*(\d{1,3})\b`), "pod $1"},
	{regexp.MustCompile(`\bhospital\s+day\s*#?\s*(\d{1,3})\b`), "hd $1"},
	{regexp.MustCompile(`\bhd\s*#?\s*(\d{1,3})\b`), "hd $1"},
	{regexp.MustCompile(`\bpts\b`), "patients"},
	{regexp.MustCompile(`\bpt\b`), "patient"},
	{regexp.MustCompile(`\bhx\b`), "history"},
	{regexp.MustCompile(`\btx\b`), "treatment"},
	{regexp.MustCompile(`\bfx\b`), "fracture"},
	{regexp.MustCompile(`\babx\b`), "antibiotics"},
	{regexp.MustCompile(`\bs/p\b`), "status post"},
	{regexp.MustCompile(`\bc/o\b`), "complains of"},
	{regexp.MustCompile(`\by/o\b`), "year old"},
	{regexp.MustCompile(`\bw/o\b`), "without"},
	{regexp.MustCompile(`\bw/`), "with "},
}

// Normalize lowercases, strips boilerplate headers and control characters,
// expands clinical shorthand, collapses whitespace, and tokenizes into
// words and sentences. Malformed input degrades to an empty
// NormalizedText; it never panics.
func Normalize(raw string) *NormalizedText {
	cleaned := stripBoilerplate(raw)
	lowered := expandShorthand(normalizeText(cleaned))

	n := &NormalizedText{
		Lowered:   lowered,
		Words:     tokenize(lowered),
		Sentences: splitSentences(lowered),
	}
	if lowered != "" {
		n.Language = langdetect.DetectISO6391(lowered)
	}
	if hash, ok := simhash64(n.Words); ok {
		n.Simhash = hash
		n.HasSimhash = true
	}
	return n
}

// Fingerprint is the SHA-256 digest of the normalized text, used only for
// exact-duplicate grouping.
func (n *NormalizedText) Fingerprint() [32]byte {
	if n == nil {
		return sha256.Sum256(nil)
	}
	return sha256.Sum256([]byte(n.Lowered))
}

// IsEmpty reports whether normalization produced no usable content.
func (n *NormalizedText) IsEmpty() bool {
	return n == nil || n.Lowered == ""
}

// Len returns the character length of the normalized form.
func (n *NormalizedText) Len() int {
	if n == nil {
		return 0
	}
	return len([]rune(n.Lowered))
}

func stripBoilerplate(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	normalized := strings.ReplaceAll(raw, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")

	lines := strings.Split(normalized, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if isBoilerplateLine(trimmed) {
			continue
		}
		kept = append(kept, trimmed)
	}
	return strings.Join(kept, "\n")
}

func isBoilerplateLine(line string) bool {
	lowered := strings.ToLower(line)
	for _, prefix := range boilerplateHeaderPrefixes {
		if strings.HasPrefix(lowered, prefix) {
			return true
		}
	}
	return false
}

func normalizeText(input string) string {
	trimmed := strings.TrimSpace(strings.ToLower(input))
	if trimmed == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(trimmed))
	lastSpace := false
	for _, r := range trimmed {
		if unicode.IsSpace(r) {
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
		lastSpace = false
	}
	return strings.TrimSpace(b.String())
}

func expandShorthand(lowered string) string {
	if lowered == "" {
		return ""
	}
	expanded := lowered
	for _, entry := range clinicalShorthand {
		expanded = entry.pattern.ReplaceAllString(expanded, entry.repl)
	}
	// Replacements can introduce doubled spaces; re-collapse.
	return strings.Join(strings.Fields(expanded), " ")
}

func tokenize(text string) []string {
	if text == "" {
		return nil
	}

	parts := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		tokens = append(tokens, p)
	}
	return tokens
}

// splitSentences cuts normalized text on terminal punctuation. The input
// is already whitespace-collapsed, so a terminator followed by a space or
// end of text closes a sentence.
func splitSentences(text string) []string {
	if text == "" {
		return nil
	}

	var sentences []string
	runes := []rune(text)
	start := 0
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		atEnd := i == len(runes)-1
		if !atEnd && runes[i+1] != ' ' {
			continue
		}
		sentence := strings.TrimSpace(string(runes[start : i+1]))
		if sentenceHasContent(sentence) {
			sentences = append(sentences, sentence)
		}
		start = i + 1
	}
	if start < len(runes) {
		sentence := strings.TrimSpace(string(runes[start:]))
		if sentenceHasContent(sentence) {
			sentences = append(sentences, sentence)
		}
	}
	return sentences
}

func sentenceHasContent(sentence string) bool {
	for _, r := range sentence {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			return true
		}
	}
	return false
}

func simhash64(tokens []string) (uint64, bool) {
	if len(tokens) == 0 {
		return 0, false
	}

	var bitWeights [64]int
	for _, token := range tokens {
		h := hashToken64(token)
		for bit := 0; bit < 64; bit++ {
			mask := uint64(1) << bit
			if h&mask != 0 {
				bitWeights[bit]++
			} else {
				bitWeights[bit]--
			}
		}
	}

	var result uint64
	for bit := 0; bit < 64; bit++ {
		if bitWeights[bit] > 0 {
			result |= uint64(1) << bit
		}
	}
	return result, true
}

func hashToken64(token string) uint64 {
	hasher := fnv.New64a()
	_, _ = hasher.Write([]byte(token))
	return hasher.Sum64()
}
