package inspection

import (
	"time"

	"mediatrust-hq/orchestrator/pkg/audit"
	"mediatrust-hq/orchestrator/pkg/evidence"
	"mediatrust-hq/orchestrator/pkg/policy"
)

// TimestampLayout renders storedAt: RFC 3339, millisecond precision, UTC.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// InspectResponse is the body returned by POST /inspect.
type InspectResponse struct {
	AssetID         string            `json:"assetId"`
	Verdict         policy.Kind       `json:"verdict"`
	Confidence      float64           `json:"confidence"`
	Evidence        evidence.Evidence `json:"evidence"`
	StoredAt        string            `json:"storedAt"`
	StorageLocation string            `json:"storageLocation,omitempty"`
}

// ReportResponse is the body returned by GET /report/{assetId}.
type ReportResponse struct {
	AssetID         string            `json:"assetId"`
	Verdict         policy.Kind       `json:"verdict"`
	Confidence      float64           `json:"confidence"`
	Evidence        evidence.Evidence `json:"evidence"`
	Metadata        map[string]any    `json:"metadata,omitempty"`
	StoredAt        string            `json:"storedAt"`
	StorageLocation string            `json:"storageLocation,omitempty"`
}

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

func newInspectResponse(rec *audit.Record) *InspectResponse {
	return &InspectResponse{
		AssetID:         rec.AssetID,
		Verdict:         rec.Verdict,
		Confidence:      rec.Confidence,
		Evidence:        rec.Evidence.Normalize(),
		StoredAt:        FormatTimestamp(rec.StoredAt),
		StorageLocation: rec.StorageLocation,
	}
}

// NewReportResponse builds the report view of a stored record.
func NewReportResponse(rec *audit.Record) *ReportResponse {
	return &ReportResponse{
		AssetID:         rec.AssetID,
		Verdict:         rec.Verdict,
		Confidence:      rec.Confidence,
		Evidence:        rec.Evidence.Normalize(),
		Metadata:        rec.Metadata,
		StoredAt:        FormatTimestamp(rec.StoredAt),
		StorageLocation: rec.StorageLocation,
	}
}
