package policy

import (
	"reflect"
	"testing"

	"mediatrust-hq/orchestrator/pkg/evidence"
)

func detectors(scores ...float64) []evidence.DetectorEvidence {
	out := make([]evidence.DetectorEvidence, len(scores))
	for i, s := range scores {
		out[i] = evidence.DetectorEvidence{Label: "d", Score: s, ModelVersion: "v1"}
	}
	return out
}

func TestFuseSignals(t *testing.T) {
	tests := []struct {
		name     string
		input    evidence.Evidence
		wantKind Kind
		wantConf float64
	}{
		{
			name:     "empty bundle is unknown",
			input:    evidence.Evidence{},
			wantKind: KindUnknown,
			wantConf: 0.5,
		},
		{
			name: "valid provenance approves",
			input: evidence.Evidence{
				Provenance: &evidence.ProvenanceEvidence{AssetID: "a", Valid: true},
			},
			wantKind: KindApproved,
			wantConf: 0.9,
		},
		{
			name: "valid provenance overrides reject-level detector",
			input: evidence.Evidence{
				Provenance: &evidence.ProvenanceEvidence{AssetID: "a", Valid: true},
				Watermark:  &evidence.WatermarkEvidence{Present: true, Confidence: 0.99},
				Detectors:  detectors(0.99),
			},
			wantKind: KindApproved,
			wantConf: 0.9,
		},
		{
			name:     "reject on high detector score",
			input:    evidence.Evidence{Detectors: detectors(0.95)},
			wantKind: KindReject,
			wantConf: 0.95,
		},
		{
			name:     "reject exactly at threshold",
			input:    evidence.Evidence{Detectors: detectors(0.1, 0.9)},
			wantKind: KindReject,
			wantConf: 0.9,
		},
		{
			name: "flag on invalid provenance and watermark",
			input: evidence.Evidence{
				Provenance: &evidence.ProvenanceEvidence{Valid: false},
				Watermark:  &evidence.WatermarkEvidence{Present: true, Confidence: 0.8},
				Detectors:  []evidence.DetectorEvidence{},
			},
			wantKind: KindFlagged,
			wantConf: 0.8,
		},
		{
			name: "invalid provenance alone uses detector stand-in",
			input: evidence.Evidence{
				Provenance: &evidence.ProvenanceEvidence{Valid: false, Errors: []string{"timeout"}},
			},
			wantKind: KindFlagged,
			wantConf: 0.5,
		},
		{
			name: "invalid provenance with weak detector takes detector score",
			input: evidence.Evidence{
				Provenance: &evidence.ProvenanceEvidence{Valid: false},
				Detectors:  detectors(0.2),
			},
			wantKind: KindFlagged,
			wantConf: 0.2,
		},
		{
			name:     "flag on detector at threshold",
			input:    evidence.Evidence{Detectors: detectors(0.6)},
			wantKind: KindFlagged,
			wantConf: 0.6,
		},
		{
			name: "absent watermark does not flag on confidence alone",
			input: evidence.Evidence{
				Watermark: &evidence.WatermarkEvidence{Present: false, Confidence: 0.8},
			},
			wantKind: KindUnknown,
			wantConf: 0.5,
		},
		{
			name: "absent watermark confidence still feeds the flag score",
			input: evidence.Evidence{
				Watermark: &evidence.WatermarkEvidence{Present: false, Confidence: 0.8},
				Detectors: detectors(0.65),
			},
			wantKind: KindFlagged,
			wantConf: 0.8,
		},
		{
			name: "flag takes max of watermark and detector",
			input: evidence.Evidence{
				Watermark: &evidence.WatermarkEvidence{Present: true, Confidence: 0.61},
				Detectors: detectors(0.3, 0.72),
			},
			wantKind: KindFlagged,
			wantConf: 0.72,
		},
		{
			name: "weak signals are unknown",
			input: evidence.Evidence{
				Watermark: &evidence.WatermarkEvidence{Present: false, Confidence: 0.1},
				Detectors: detectors(0.59),
			},
			wantKind: KindUnknown,
			wantConf: 0.5,
		},
		{
			name:     "confidence rounded to two decimals",
			input:    evidence.Evidence{Detectors: detectors(0.93456)},
			wantKind: KindReject,
			wantConf: 0.93,
		},
		{
			name:     "out of range scores are clamped",
			input:    evidence.Evidence{Detectors: detectors(1.7)},
			wantKind: KindReject,
			wantConf: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FuseSignals(tt.input)
			if got.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", got.Kind, tt.wantKind)
			}
			if got.Confidence != tt.wantConf {
				t.Errorf("Confidence = %v, want %v", got.Confidence, tt.wantConf)
			}
			if got.Confidence < 0 || got.Confidence > 1 {
				t.Errorf("Confidence %v outside [0,1]", got.Confidence)
			}
			if got.Evidence.Detectors == nil {
				t.Error("Evidence.Detectors must never be nil")
			}
		})
	}
}

func TestFuseSignals_TieKeepsFirstDetector(t *testing.T) {
	ev := evidence.Evidence{Detectors: []evidence.DetectorEvidence{
		{Label: "first", Score: 0.7},
		{Label: "second", Score: 0.7},
	}}

	top, ok := maxDetector(ev.Detectors)
	if !ok {
		t.Fatal("expected a max detector")
	}
	if top.Label != "first" {
		t.Errorf("tie resolved to %q, want first", top.Label)
	}
}

func TestFuseSignals_IsPure(t *testing.T) {
	input := evidence.Evidence{
		Provenance: &evidence.ProvenanceEvidence{Valid: false, Errors: []string{"bad signature"}},
		Watermark:  &evidence.WatermarkEvidence{Present: true, Confidence: 0.7, Notes: []string{"n"}},
		Detectors:  detectors(0.4, 0.8),
	}
	snapshot := input.Clone()

	first := FuseSignals(input)
	second := FuseSignals(input)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("FuseSignals not deterministic: %+v vs %+v", first, second)
	}
	if !reflect.DeepEqual(input, snapshot) {
		t.Error("FuseSignals modified its input")
	}

	first.Evidence.Detectors[0].Score = 0
	if input.Detectors[0].Score != 0.4 {
		t.Error("verdict evidence aliases the input")
	}
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0.125, 0.13},
		{0.5, 0.5},
		{0.999, 1},
		{0.004, 0},
		{-0.125, -0.13},
	}
	for _, tt := range tests {
		if got := Round2(tt.in); got != tt.want {
			t.Errorf("Round2(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds {
		got, err := ParseKind(string(k))
		if err != nil || got != k {
			t.Errorf("ParseKind(%q) = %q, %v", k, got, err)
		}
	}
	if _, err := ParseKind("maybe"); err == nil {
		t.Error("expected error for unknown verdict")
	}
}
