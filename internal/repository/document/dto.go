package document

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/semindex/internal/domain"
	domdoc "github.com/kailas-cloud/semindex/internal/domain/document"
)

// encodePayload serializes a write payload. Vector and metadata travel as
// regular JSON keys next to the user fields.
func encodePayload(payload map[string]any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	return data, nil
}

// decodeStored parses a stored JSON object into a domain Document.
// A vector that is not a numeric array is treated as absent.
func decodeStored(id string, data []byte) (domdoc.Document, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return domdoc.Document{}, fmt.Errorf("unmarshal document %s: %w", id, err)
	}

	fields := make(map[string]any, len(raw))
	var vector []float32
	var metadata *domain.EmbeddingMetadata

	for k, v := range raw {
		switch k {
		case domdoc.FieldVector:
			vector = parseVector(v)
		case domdoc.FieldMetadata:
			metadata = parseMetadata(v)
		default:
			var val any
			if err := json.Unmarshal(v, &val); err != nil {
				return domdoc.Document{}, fmt.Errorf("unmarshal field %q of %s: %w", k, id, err)
			}
			fields[k] = val
		}
	}

	return domdoc.Reconstruct(id, fields, vector, metadata), nil
}

func parseVector(raw json.RawMessage) []float32 {
	if isNull(raw) {
		return nil
	}
	var v []float32
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	if len(v) == 0 {
		return nil
	}
	return v
}

func parseMetadata(raw json.RawMessage) *domain.EmbeddingMetadata {
	if isNull(raw) {
		return nil
	}
	var m domain.EmbeddingMetadata
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return &m
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// storedPayload rebuilds the full JSON object for a document.
func storedPayload(doc *domdoc.Document) map[string]any {
	m := make(map[string]any, len(doc.Fields())+2)
	for k, v := range doc.Fields() {
		m[k] = v
	}
	if doc.HasVector() {
		m[domdoc.FieldVector] = doc.Vector()
	}
	if md := doc.Metadata(); md != nil {
		m[domdoc.FieldMetadata] = md
	}
	return m
}

// localize replaces per-locale field variants ({"en": "...", "de": "..."})
// with the value for locale. Fields without that locale key are unchanged.
func localize(fields map[string]any, locale string) map[string]any {
	if locale == "" {
		return fields
	}
	var out map[string]any
	for k, v := range fields {
		variants, ok := v.(map[string]any)
		if !ok {
			continue
		}
		val, ok := variants[locale]
		if !ok {
			continue
		}
		if out == nil {
			out = make(map[string]any, len(fields))
			for fk, fv := range fields {
				out[fk] = fv
			}
		}
		out[k] = val
	}
	if out == nil {
		return fields
	}
	return out
}
