package providers

import (
	"context"

	"mediatrust-hq/orchestrator/pkg/evidence"
)

type verifyRequest struct {
	AssetIDSnake string `json:"asset_id"`
	AssetID      string `json:"assetId"`
	Base64       string `json:"base64,omitempty"`
	URL          string `json:"url,omitempty"`
}

// ProvenanceClient verifies cryptographic provenance through POST {base}/verify.
type ProvenanceClient struct {
	*Client
}

// NewProvenanceClient creates a provenance verifier client.
func NewProvenanceClient(config ClientConfig) (*ProvenanceClient, error) {
	if config.Name == "" {
		config.Name = evidence.SourceProvenance
	}
	c, err := NewClient(config)
	if err != nil {
		return nil, err
	}
	return &ProvenanceClient{Client: c}, nil
}

// Verify implements evidence.ProvenanceVerifier.
func (p *ProvenanceClient) Verify(ctx context.Context, req evidence.ProvenanceRequest) (*evidence.ProvenanceEvidence, error) {
	var out evidence.ProvenanceEvidence
	err := p.DoJSON(ctx, "/verify", verifyRequest{
		AssetIDSnake: req.AssetID,
		AssetID:      req.AssetID,
		Base64:       req.Base64,
		URL:          req.URL,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
