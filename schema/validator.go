// Package bundleschema validates v1 note-bundle payloads against the
// embedded JSON Schema before anything downstream touches them.
package bundleschema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed note_bundle.schema.json
var noteBundleSchemaJSON string

// BundleNote is one raw note entry as uploaded. Roles are free text here;
// ingestion resolves them onto the closed enum exactly once.
type BundleNote struct {
	ID            string  `json:"id,omitempty"`
	Text          string  `json:"text"`
	ContentType   string  `json:"content_type,omitempty"`
	SourceRole    string  `json:"source_role,omitempty"`
	SequenceIndex *int    `json:"sequence_index,omitempty"`
	AuthoredAt    *string `json:"authored_at,omitempty"`
}

// BundleOptions overrides the engine defaults per request.
type BundleOptions struct {
	Weights *struct {
		Jaccard     float64 `json:"jaccard"`
		Levenshtein float64 `json:"levenshtein"`
		Semantic    float64 `json:"semantic"`
	} `json:"weights,omitempty"`
	ThresholdNear      *float64 `json:"threshold_near,omitempty"`
	ThresholdSentence  *float64 `json:"threshold_sentence,omitempty"`
	ComplementaryMin   *float64 `json:"complementary_min,omitempty"`
	ComplementaryMax   *float64 `json:"complementary_max,omitempty"`
	PreserveChronology *bool    `json:"preserve_chronology,omitempty"`
	MergeComplementary *bool    `json:"merge_complementary,omitempty"`
}

// NoteBundle is the validated v1 payload.
type NoteBundle struct {
	PayloadVersion string         `json:"payload_version"`
	Notes          []BundleNote   `json:"notes"`
	Options        *BundleOptions `json:"options,omitempty"`
}

var (
	compileOnce       sync.Once
	compiledSchema    *jsonschema.Schema
	compiledSchemaErr error
)

// ValidateNoteBundle checks the payload against the embedded schema plus
// the semantic rules the schema cannot express, and returns the decoded
// bundle.
func ValidateNoteBundle(payload json.RawMessage) (*NoteBundle, error) {
	value, err := decodeStrictJSON(payload)
	if err != nil {
		return nil, fmt.Errorf("decode payload JSON: %w", err)
	}

	schema, err := loadSchema()
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}

	if err := schema.Validate(value); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	normalized, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("normalize payload JSON: %w", err)
	}

	var bundle NoteBundle
	if err := json.Unmarshal(normalized, &bundle); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}

	if err := validateSemantics(&bundle); err != nil {
		return nil, err
	}

	return &bundle, nil
}

func loadSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		compiler.AssertFormat = true

		if err := compiler.AddResource("note_bundle.schema.json", strings.NewReader(noteBundleSchemaJSON)); err != nil {
			compiledSchemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}

		schema, err := compiler.Compile("note_bundle.schema.json")
		if err != nil {
			compiledSchemaErr = fmt.Errorf("compile schema: %w", err)
			return
		}

		compiledSchema = schema
	})

	if compiledSchemaErr != nil {
		return nil, compiledSchemaErr
	}
	if compiledSchema == nil {
		return nil, fmt.Errorf("schema not initialized")
	}
	return compiledSchema, nil
}

func decodeStrictJSON(raw []byte) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("payload is empty")
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}

	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("payload contains trailing content")
	}

	return value, nil
}

func validateSemantics(bundle *NoteBundle) error {
	if bundle == nil {
		return fmt.Errorf("payload is nil")
	}

	if strings.TrimSpace(bundle.PayloadVersion) != "v1" {
		return fmt.Errorf("payload_version must be v1")
	}
	if len(bundle.Notes) == 0 {
		return fmt.Errorf("notes must not be empty")
	}

	seenIDs := make(map[string]struct{}, len(bundle.Notes))
	for i, entry := range bundle.Notes {
		if strings.TrimSpace(entry.Text) == "" {
			return fmt.Errorf("notes[%d].text must not be blank", i)
		}
		if id := strings.TrimSpace(entry.ID); id != "" {
			if _, dup := seenIDs[id]; dup {
				return fmt.Errorf("notes[%d].id %q is duplicated", i, id)
			}
			seenIDs[id] = struct{}{}
		}
		if entry.SequenceIndex != nil && *entry.SequenceIndex < 0 {
			return fmt.Errorf("notes[%d].sequence_index must not be negative", i)
		}
		if entry.AuthoredAt != nil {
			if _, err := time.Parse(time.RFC3339, strings.TrimSpace(*entry.AuthoredAt)); err != nil {
				return fmt.Errorf("notes[%d].authored_at must be RFC3339: %w", i, err)
			}
		}
	}

	if opts := bundle.Options; opts != nil {
		if opts.ComplementaryMin != nil && opts.ComplementaryMax != nil &&
			*opts.ComplementaryMin >= *opts.ComplementaryMax {
			return fmt.Errorf("options.complementary_min must be below complementary_max")
		}
	}

	return nil
}
