package evidence

import "fmt"

// Modality identifies the kind of media being inspected.
type Modality string

const (
	// ModalityImage is a still image.
	ModalityImage Modality = "image"

	// ModalityVideo is a video clip.
	ModalityVideo Modality = "video"

	// ModalityAudio is an audio clip.
	ModalityAudio Modality = "audio"
)

// Modalities lists every supported modality in declaration order.
var Modalities = []Modality{ModalityImage, ModalityVideo, ModalityAudio}

// ParseModality converts a string into a Modality.
func ParseModality(s string) (Modality, error) {
	switch Modality(s) {
	case ModalityImage, ModalityVideo, ModalityAudio:
		return Modality(s), nil
	default:
		return "", fmt.Errorf("modality must be one of image, video, audio (got %q)", s)
	}
}

// ProvenanceEvidence is the outcome of a cryptographic provenance check.
// A nil *ProvenanceEvidence means the asset was not checked, which is
// different from Valid == false.
type ProvenanceEvidence struct {
	AssetID string   `json:"assetId"`
	Valid   bool     `json:"valid"`
	Issuer  string   `json:"issuer,omitempty"`
	Errors  []string `json:"errors"`
}

// WatermarkEvidence is the outcome of an invisible-watermark check.
// Confidence may be non-zero while Present is false.
type WatermarkEvidence struct {
	Present    bool     `json:"present"`
	Confidence float64  `json:"confidence"`
	Modality   Modality `json:"modality"`
	Notes      []string `json:"notes"`
}

// DetectorEvidence is the score returned by one passive detector backend.
type DetectorEvidence struct {
	Label        string   `json:"label"`
	Score        float64  `json:"score"`
	Reasons      []string `json:"reasons"`
	ModelVersion string   `json:"modelVersion"`
}

// Evidence is the bundle assembled for a single inspection.
//
// Provenance and Watermark are optional. Detectors is never nil once the
// bundle has passed through Normalize, so it always serializes as a list.
type Evidence struct {
	Provenance *ProvenanceEvidence `json:"provenance,omitempty"`
	Watermark  *WatermarkEvidence  `json:"watermark,omitempty"`
	Detectors  []DetectorEvidence  `json:"detectors"`
}

// Normalize returns a copy of e whose Detectors field is a non-nil slice.
func (e Evidence) Normalize() Evidence {
	if e.Detectors == nil {
		e.Detectors = []DetectorEvidence{}
	}
	return e
}

// Clone returns a deep copy of e.
func (e Evidence) Clone() Evidence {
	out := Evidence{Detectors: make([]DetectorEvidence, len(e.Detectors))}

	if e.Provenance != nil {
		p := *e.Provenance
		p.Errors = cloneStrings(e.Provenance.Errors)
		out.Provenance = &p
	}
	if e.Watermark != nil {
		w := *e.Watermark
		w.Notes = cloneStrings(e.Watermark.Notes)
		out.Watermark = &w
	}
	for i, d := range e.Detectors {
		d.Reasons = cloneStrings(d.Reasons)
		out.Detectors[i] = d
	}

	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// Subject describes the asset handed to the Fan-Out Coordinator.
// Each evidence task reads only the fields it needs.
type Subject struct {
	// AssetID is the caller-supplied asset identifier.
	AssetID string

	// Data holds the decoded asset bytes, or nil when none were supplied.
	Data []byte

	// Base64 is the original encoded payload, forwarded to the provenance
	// verifier as-is.
	Base64 string

	// URL is an optional source location for provenance verification.
	URL string

	// ContentType is the MIME type of Data.
	ContentType string

	// Modality is the media kind.
	Modality Modality

	// WatermarkSignal is an explicit watermark detector signal.
	WatermarkSignal string
}

// HasData reports whether raw bytes were supplied.
func (s Subject) HasData() bool {
	return len(s.Data) > 0
}
