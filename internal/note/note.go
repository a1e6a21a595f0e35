package note

import (
	"fmt"
	"strings"
)

// SourceRole classifies who authored a clinical note. Resolved once at
// ingestion; never re-inferred downstream.
type SourceRole string

const (
	RoleAttending  SourceRole = "attending"
	RoleResident   SourceRole = "resident"
	RoleConsultant SourceRole = "consultant"
	RolePTOT       SourceRole = "pt_ot"
	RoleOperative  SourceRole = "operative"
	RoleUnknown    SourceRole = "unknown"
)

// ParseSourceRole maps a canonical role string onto the closed enum.
func ParseSourceRole(raw string) (SourceRole, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return RoleUnknown, nil
	case "attending":
		return RoleAttending, nil
	case "resident":
		return RoleResident, nil
	case "consultant":
		return RoleConsultant, nil
	case "pt_ot":
		return RolePTOT, nil
	case "operative":
		return RoleOperative, nil
	case "unknown":
		return RoleUnknown, nil
	default:
		return RoleUnknown, fmt.Errorf("unknown source role %q", raw)
	}
}

// roleKeywords resolves free-text source labels ("PT consult",
// "Attending Note") seen in upstream exports. Order matters: the first
// matching group wins, and therapy notes are checked before consultant
// because "PT consult" names a therapy note, not a consultant one.
var roleKeywords = []struct {
	role     SourceRole
	keywords []string
}{
	{RolePTOT, []string{"pt consult", "ot consult", "physical therapy", "occupational therapy", "pt/ot", "pt note", "ot note"}},
	{RoleOperative, []string{"operative", "op note", "procedure note", "surgery note", "surgical note"}},
	{RoleConsultant, []string{"consult", "consultant", "consultation"}},
	{RoleAttending, []string{"attending", "attg"}},
	{RoleResident, []string{"resident", "house officer", "intern note"}},
}

// InferSourceRole resolves a free-text source label onto the enum.
// Unrecognized labels become RoleUnknown.
func InferSourceRole(label string) SourceRole {
	lowered := strings.ToLower(strings.TrimSpace(label))
	if lowered == "" {
		return RoleUnknown
	}
	if role, err := ParseSourceRole(lowered); err == nil && role != RoleUnknown {
		return role
	}
	for _, group := range roleKeywords {
		for _, keyword := range group.keywords {
			if strings.Contains(lowered, keyword) {
				return group.role
			}
		}
	}
	return RoleUnknown
}

// Note is one ingested clinical text fragment. Immutable once built;
// SequenceIndex preserves upload order and is the tie-break of last resort.
type Note struct {
	ID            string
	RawText       string
	SourceRole    SourceRole
	SequenceIndex int

	norm *NormalizedText
}

// New builds a note and caches its normalized form.
func New(id, rawText string, role SourceRole, sequenceIndex int) Note {
	return Note{
		ID:            strings.TrimSpace(id),
		RawText:       rawText,
		SourceRole:    role,
		SequenceIndex: sequenceIndex,
		norm:          Normalize(rawText),
	}
}

// Normalized returns the cached normalized form, computing it when the
// note was built without New.
func (n *Note) Normalized() *NormalizedText {
	if n.norm == nil {
		n.norm = Normalize(n.RawText)
	}
	return n.norm
}

// Sentence is one extracted sentence tagged with its owner note and
// position. Ownership is never shared across notes.
type Sentence struct {
	SourceNoteID  string
	SequenceIndex int
	Position      int
	Text          string
}
