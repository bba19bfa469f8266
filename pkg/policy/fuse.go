package policy

import (
	"fmt"
	"math"

	"mediatrust-hq/orchestrator/pkg/evidence"
)

// Decision thresholds.
const (
	// RejectThreshold is the detector score at or above which an asset is rejected.
	RejectThreshold = 0.90

	// FlagThreshold is the watermark confidence or detector score at or above
	// which an asset is flagged for review.
	FlagThreshold = 0.60

	// ApprovedConfidence is reported for assets with valid provenance.
	ApprovedConfidence = 0.90

	// UnknownConfidence is reported when no rule matched. It is also the
	// stand-in detector score for the flagged rule when no detector responded.
	UnknownConfidence = 0.5
)

// Kind is the verdict category.
type Kind string

const (
	KindApproved Kind = "approved"
	KindFlagged  Kind = "flagged"
	KindReject   Kind = "reject"
	KindUnknown  Kind = "unknown"
)

// Kinds lists every verdict kind.
var Kinds = []Kind{KindApproved, KindFlagged, KindReject, KindUnknown}

// ParseKind converts a stored verdict string back into a Kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown verdict %q", s)
}

// Verdict is the fused outcome of an inspection.
type Verdict struct {
	Kind       Kind              `json:"verdict"`
	Confidence float64           `json:"confidence"`
	Evidence   evidence.Evidence `json:"evidence"`
}

// FuseSignals applies the trust policy to an evidence bundle.
//
// Rules are evaluated in order and the first match wins:
//
//  1. valid provenance -> approved (0.90), regardless of any other signal
//  2. strongest detector >= 0.90 -> reject (its score)
//  3. present watermark >= 0.60, detector >= 0.60 or invalid provenance -> flagged
//  4. otherwise -> unknown (0.5)
//
// FuseSignals is pure: it performs no I/O and does not modify ev. The
// returned verdict carries its own copy of the evidence.
func FuseSignals(ev evidence.Evidence) Verdict {
	bundle := ev.Clone()

	// Rule 1: valid provenance short-circuits every other signal.
	if bundle.Provenance != nil && bundle.Provenance.Valid {
		return newVerdict(KindApproved, ApprovedConfidence, bundle)
	}

	top, ok := maxDetector(bundle.Detectors)

	// Rule 2: reject-level detector score.
	if ok && top.Score >= RejectThreshold {
		return newVerdict(KindReject, top.Score, bundle)
	}

	// Rule 3: any flag-level signal.
	watermarkHit := bundle.Watermark != nil && bundle.Watermark.Present && bundle.Watermark.Confidence >= FlagThreshold
	detectorHit := ok && top.Score >= FlagThreshold
	provenanceFailed := bundle.Provenance != nil && !bundle.Provenance.Valid

	if watermarkHit || detectorHit || provenanceFailed {
		watermarkScore := 0.0
		if bundle.Watermark != nil {
			watermarkScore = bundle.Watermark.Confidence
		}
		detectorScore := UnknownConfidence
		if ok {
			detectorScore = top.Score
		}
		return newVerdict(KindFlagged, math.Max(watermarkScore, detectorScore), bundle)
	}

	// Rule 4: nothing conclusive.
	return newVerdict(KindUnknown, UnknownConfidence, bundle)
}

// maxDetector returns the entry with the greatest score. Ties keep the
// first entry encountered.
func maxDetector(detectors []evidence.DetectorEvidence) (evidence.DetectorEvidence, bool) {
	if len(detectors) == 0 {
		return evidence.DetectorEvidence{}, false
	}
	top := detectors[0]
	for _, d := range detectors[1:] {
		if d.Score > top.Score {
			top = d
		}
	}
	return top, true
}

func newVerdict(kind Kind, confidence float64, ev evidence.Evidence) Verdict {
	return Verdict{
		Kind:       kind,
		Confidence: Round2(clamp01(confidence)),
		Evidence:   ev,
	}
}

// Round2 rounds x to two decimal places, halves away from zero.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// clamp01 keeps backend scores outside [0,1] from leaking into a verdict.
func clamp01(x float64) float64 {
	switch {
	case math.IsNaN(x):
		return 0
	case x < 0:
		return 0
	case x > 1:
		return 1
	default:
		return x
	}
}
