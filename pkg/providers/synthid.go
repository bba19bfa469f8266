package providers

import (
	"context"

	"mediatrust-hq/orchestrator/pkg/evidence"
)

type checkRequest struct {
	AssetID        string            `json:"assetId"`
	Modality       evidence.Modality `json:"modality"`
	DetectorSignal string            `json:"detectorSignal"`
}

// SynthIDClient checks for invisible watermarks through POST {base}/check.
type SynthIDClient struct {
	*Client
}

// NewSynthIDClient creates a watermark checker client.
func NewSynthIDClient(config ClientConfig) (*SynthIDClient, error) {
	if config.Name == "" {
		config.Name = "synthid"
	}
	c, err := NewClient(config)
	if err != nil {
		return nil, err
	}
	return &SynthIDClient{Client: c}, nil
}

// Check implements evidence.WatermarkChecker.
func (s *SynthIDClient) Check(ctx context.Context, req evidence.WatermarkRequest) (*evidence.WatermarkEvidence, error) {
	var out evidence.WatermarkEvidence
	err := s.DoJSON(ctx, "/check", checkRequest{
		AssetID:        req.AssetID,
		Modality:       req.Modality,
		DetectorSignal: req.Signal,
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.Modality == "" {
		out.Modality = req.Modality
	}
	return &out, nil
}
