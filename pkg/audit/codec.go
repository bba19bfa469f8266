package audit

import (
	"encoding/json"
	"fmt"

	"mediatrust-hq/orchestrator/pkg/evidence"
)

// EncodeEvidence serializes an evidence bundle for a JSON column.
func EncodeEvidence(ev evidence.Evidence) ([]byte, error) {
	data, err := json.Marshal(ev.Normalize())
	if err != nil {
		return nil, fmt.Errorf("encode evidence: %w", err)
	}
	return data, nil
}

// DecodeEvidence restores an evidence bundle written by EncodeEvidence.
func DecodeEvidence(data []byte) (evidence.Evidence, error) {
	var ev evidence.Evidence
	if err := json.Unmarshal(data, &ev); err != nil {
		return evidence.Evidence{}, fmt.Errorf("decode evidence: %w", err)
	}
	return ev.Normalize(), nil
}

// EncodeMetadata serializes metadata for a nullable JSON column.
// A nil map encodes as nil, which callers store as SQL NULL.
func EncodeMetadata(md map[string]any) ([]byte, error) {
	if md == nil {
		return nil, nil
	}
	data, err := json.Marshal(md)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	return data, nil
}

// DecodeMetadata restores metadata written by EncodeMetadata. Empty input
// decodes to nil.
func DecodeMetadata(data []byte) (map[string]any, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var md map[string]any
	if err := json.Unmarshal(data, &md); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return md, nil
}
