package providers

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"mediatrust-hq/orchestrator/pkg/evidence"
)

// Detector backend kinds.
const (
	KindSensity         = "sensity"
	KindHive            = "hive"
	KindRealityDefender = "reality_defender"
)

// DetectorKinds lists the supported passive detector backends.
var DetectorKinds = []string{KindSensity, KindHive, KindRealityDefender}

// DetectorClient submits assets to a passive detector through a multipart
// POST {base}/analyze.
type DetectorClient struct {
	*Client
	kind string
}

// NewDetectorClient creates a detector client for one of DetectorKinds.
func NewDetectorClient(kind string, config ClientConfig) (*DetectorClient, error) {
	switch kind {
	case KindSensity, KindHive, KindRealityDefender:
	default:
		return nil, &ConfigError{
			Source:  config.Name,
			Field:   "type",
			Message: fmt.Sprintf("unsupported detector type %q (supported: %s)", kind, strings.Join(DetectorKinds, ", ")),
		}
	}
	if config.Name == "" {
		config.Name = kind
	}
	c, err := NewClient(config)
	if err != nil {
		return nil, err
	}
	return &DetectorClient{Client: c, kind: kind}, nil
}

// Kind returns the backend kind.
func (d *DetectorClient) Kind() string {
	return d.kind
}

// fileField is the multipart field carrying the asset. Hive takes video
// under "frames".
func (d *DetectorClient) fileField(m evidence.Modality) string {
	if d.kind == KindHive && m == evidence.ModalityVideo {
		return "frames"
	}
	return "file"
}

// Analyze implements evidence.PassiveDetector.
func (d *DetectorClient) Analyze(ctx context.Context, req evidence.AnalyzeRequest) (evidence.DetectorEvidence, error) {
	body, contentType, err := d.form(req)
	if err != nil {
		return evidence.DetectorEvidence{}, fmt.Errorf("failed to build form: %w", err)
	}

	data, err := d.Do(ctx, http.MethodPost, "/analyze", body, contentType)
	if err != nil {
		return evidence.DetectorEvidence{}, err
	}

	var out evidence.DetectorEvidence
	if err := d.decode(data, &out); err != nil {
		return evidence.DetectorEvidence{}, err
	}
	return out, nil
}

func (d *DetectorClient) form(req evidence.AnalyzeRequest) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	partType := req.ContentType
	if partType == "" {
		partType = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, d.fileField(req.Modality), req.AssetID))
	h.Set("Content-Type", partType)

	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(req.Data); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("modality", string(req.Modality)); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("assetId", req.AssetID); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
