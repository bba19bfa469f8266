package evidence

import "context"

// Source names used in logs, metrics and spans.
const (
	SourceProvenance = "provenance"
	SourceWatermark  = "watermark"
	SourceDetectors  = "detectors"
)

// ProvenanceRequest is the input to a provenance verification.
type ProvenanceRequest struct {
	AssetID string
	Base64  string
	URL     string
}

// ProvenanceVerifier checks an asset's cryptographic origin claims.
//
// A nil result with a nil error means the verifier had nothing to say about
// the asset and the bundle records provenance as absent.
type ProvenanceVerifier interface {
	Verify(ctx context.Context, req ProvenanceRequest) (*ProvenanceEvidence, error)
}

// WatermarkRequest is the input to a watermark check.
type WatermarkRequest struct {
	AssetID  string
	Modality Modality
	Signal   string
}

// WatermarkChecker looks for an embedded watermark signal.
type WatermarkChecker interface {
	Check(ctx context.Context, req WatermarkRequest) (*WatermarkEvidence, error)
}

// AnalyzeRequest is the input to a passive detector.
type AnalyzeRequest struct {
	AssetID     string
	Data        []byte
	ContentType string
	Modality    Modality
}

// PassiveDetector is one ML deepfake-detection backend.
type PassiveDetector interface {
	// Name identifies the backend in logs and metrics.
	Name() string

	// Analyze scores the asset.
	Analyze(ctx context.Context, req AnalyzeRequest) (DetectorEvidence, error)
}

// PassiveDetectorPool runs every configured detector and returns the
// evidence of those that succeeded. It never returns an error.
type PassiveDetectorPool interface {
	Run(ctx context.Context, req AnalyzeRequest) []DetectorEvidence
}

// Observer receives one observation per evidence call.
// Outcome is one of "ok", "error", "timeout" or "skipped".
type Observer interface {
	ObserveSource(source, outcome string, seconds float64)
}

// Outcome labels reported to an Observer.
const (
	OutcomeOK      = "ok"
	OutcomeError   = "error"
	OutcomeTimeout = "timeout"
	OutcomeSkipped = "skipped"
)
