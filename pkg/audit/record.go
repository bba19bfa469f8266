package audit

import (
	"time"

	"mediatrust-hq/orchestrator/pkg/evidence"
	"mediatrust-hq/orchestrator/pkg/policy"
)

// Record is the durable outcome of one inspection, keyed by AssetID.
// Records are replaced wholesale on every save; there are no partial updates.
type Record struct {
	// AssetID is the unique key.
	AssetID string `json:"assetId"`

	// Verdict is the fused verdict kind.
	Verdict policy.Kind `json:"verdict"`

	// Confidence is the verdict confidence in [0,1], two decimals.
	Confidence float64 `json:"confidence"`

	// Evidence is the bundle the verdict was derived from.
	Evidence evidence.Evidence `json:"evidence"`

	// Metadata is caller-supplied context. Nil when none was supplied.
	Metadata map[string]any `json:"metadata,omitempty"`

	// StoredAt is when the inspection was recorded.
	StoredAt time.Time `json:"storedAt"`

	// StorageLocation points at the stored asset bytes, if any were stored.
	StorageLocation string `json:"storageLocation,omitempty"`
}

// Clone returns a deep copy of r. Metadata values are copied one level deep.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := *r
	out.Evidence = r.Evidence.Clone()
	if r.Metadata != nil {
		out.Metadata = make(map[string]any, len(r.Metadata))
		for k, v := range r.Metadata {
			out.Metadata[k] = v
		}
	}
	return &out
}

// Validate checks the fields every backend relies on.
func (r *Record) Validate() error {
	if r == nil {
		return ErrInvalidRecord
	}
	if r.AssetID == "" {
		return ErrInvalidRecord
	}
	if _, err := policy.ParseKind(string(r.Verdict)); err != nil {
		return ErrInvalidRecord
	}
	return nil
}
