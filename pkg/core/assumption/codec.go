package assumption

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	"github.com/google/uuid"
	hjson "github.com/hjson/hjson-go/v4"
)

// SchemaVersion is the version written by Encode.
//
// Version history:
//
//	0: bare assumptions object, no envelope
//	1: envelope with schema_version, revision, saved_at, assumptions
//
// Schema changes are additive only. Fields are never renamed or removed;
// new fields are filled from Defaults when absent from older documents.
const SchemaVersion = 1

// Document is a decoded saved assumptions blob.
type Document struct {
	SchemaVersion int
	Revision      string
	SavedAt       time.Time
	Assumptions   *Assumptions
	Repaired      bool // Parsed only after json-repair rewrote the input
}

type envelope struct {
	SchemaVersion int             `json:"schema_version"`
	Revision      string          `json:"revision"`
	SavedAt       time.Time       `json:"saved_at"`
	Assumptions   json.RawMessage `json:"assumptions"`
}

type rawDocument map[string]json.RawMessage

// migrations[v] lifts a document from schema version v to v+1.
var migrations = []func(rawDocument) (rawDocument, error){
	wrapBareDocument,
}

// Encode serializes a into the current envelope under a fresh revision id.
func Encode(a *Assumptions) ([]byte, string, error) {
	body, err := json.Marshal(a)
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal assumptions: %w", err)
	}
	rev := uuid.NewString()
	data, err := json.Marshal(envelope{
		SchemaVersion: SchemaVersion,
		Revision:      rev,
		SavedAt:       time.Now().UTC(),
		Assumptions:   body,
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal envelope: %w", err)
	}
	return data, rev, nil
}

// Decode is DecodeDocument without the envelope metadata.
func Decode(raw []byte) (*Assumptions, error) {
	doc, err := DecodeDocument(raw)
	if err != nil {
		return nil, err
	}
	return doc.Assumptions, nil
}

// DecodeStrict is Decode without json-repair: malformed input is an error.
// Use it for documents a client is submitting, not for saved ones.
func DecodeStrict(raw []byte) (*Assumptions, error) {
	doc, err := parseStrict(raw)
	if err != nil {
		return nil, err
	}
	out, err := decodeParsed(doc)
	if err != nil {
		return nil, err
	}
	return out.Assumptions, nil
}

// DecodeDocument migrates raw to the current schema and overlays it on
// Defaults, so every field missing from an older document gets its default.
// A year-keyed map that is present replaces the default map entirely.
// Damaged JSON goes through json-repair before it is rejected.
func DecodeDocument(raw []byte) (*Document, error) {
	doc, repaired, err := parseLenient(raw)
	if err != nil {
		return nil, err
	}
	out, err := decodeParsed(doc)
	if err != nil {
		return nil, err
	}
	out.Repaired = repaired
	return out, nil
}

func decodeParsed(doc rawDocument) (*Document, error) {
	version := 0
	if v, ok := doc["schema_version"]; ok {
		if err := json.Unmarshal(v, &version); err != nil {
			return nil, fmt.Errorf("invalid schema_version: %w", err)
		}
	}
	if version > SchemaVersion {
		return nil, fmt.Errorf("schema version %d is newer than supported version %d", version, SchemaVersion)
	}
	for v := version; v < SchemaVersion; v++ {
		var err error
		if doc, err = migrations[v](doc); err != nil {
			return nil, fmt.Errorf("migrate schema %d -> %d: %w", v, v+1, err)
		}
	}

	out := &Document{SchemaVersion: SchemaVersion, Assumptions: Defaults()}
	if v, ok := doc["revision"]; ok {
		if err := json.Unmarshal(v, &out.Revision); err != nil {
			return nil, fmt.Errorf("invalid revision: %w", err)
		}
	}
	if v, ok := doc["saved_at"]; ok {
		if err := json.Unmarshal(v, &out.SavedAt); err != nil {
			return nil, fmt.Errorf("invalid saved_at: %w", err)
		}
	}
	if body, ok := doc["assumptions"]; ok && len(body) > 0 && string(body) != "null" {
		if err := dropPresentMaps(out.Assumptions, body); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(body, out.Assumptions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal assumptions: %w", err)
		}
	}
	return out, nil
}

// dropPresentMaps clears every year-keyed map of a that body carries, so the
// saved map replaces the default one instead of being merged into it.
func dropPresentMaps(a *Assumptions, body json.RawMessage) error {
	var top rawDocument
	if err := json.Unmarshal(body, &top); err != nil {
		return fmt.Errorf("assumptions must be a JSON object: %w", err)
	}
	if _, ok := top["growth"]; ok {
		a.Growth = nil
	}
	if _, ok := top["fundraising"]; ok {
		a.Fundraising = nil
	}
	for key, ua := range map[string]*UnitAssumptions{"primary": &a.Primary, "secondary": &a.Secondary} {
		unit, ok := top[key]
		if !ok {
			continue
		}
		var fields rawDocument
		if err := json.Unmarshal(unit, &fields); err != nil {
			return fmt.Errorf("%s must be a JSON object: %w", key, err)
		}
		if _, ok := fields["opex"]; ok {
			ua.Opex = nil
		}
	}
	return nil
}

// DecodeHJSON reads a hand-written scenario file. Hjson allows comments,
// unquoted keys and optional commas.
func DecodeHJSON(raw []byte) (*Assumptions, error) {
	var parsed interface{}
	if err := hjson.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("HJSON_PARSE_ERROR: %w", err)
	}
	data, err := json.Marshal(parsed)
	if err != nil {
		return nil, fmt.Errorf("JSON_MARSHAL_ERROR: %w", err)
	}
	return DecodeStrict(data)
}

func parseStrict(raw []byte) (rawDocument, error) {
	if strings.TrimSpace(string(raw)) == "" {
		return nil, fmt.Errorf("empty assumptions document")
	}
	var doc rawDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("assumptions document is not a JSON object: %w", err)
	}
	return doc, nil
}

// parseLenient reports whether json-repair was needed.
func parseLenient(raw []byte) (rawDocument, bool, error) {
	doc, err := parseStrict(raw)
	if err == nil || strings.TrimSpace(string(raw)) == "" {
		return doc, false, err
	}

	repaired, err := jsonrepair.RepairJSON(string(raw))
	if err != nil {
		return nil, false, fmt.Errorf("JSON_REPAIR_FAILED: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), &doc); err != nil {
		return nil, false, fmt.Errorf("assumptions document is not a JSON object: %w", err)
	}
	return doc, true, nil
}

// wrapBareDocument moves a version 0 document under an envelope.
func wrapBareDocument(doc rawDocument) (rawDocument, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	return rawDocument{
		"schema_version": json.RawMessage("1"),
		"assumptions":    body,
	}, nil
}
