package inspection

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"mediatrust-hq/orchestrator/pkg/evidence"
)

// MaxAssetIDLength bounds asset identifiers, which double as storage keys.
const MaxAssetIDLength = 256

// DefaultContentType is used when a request does not name one.
const DefaultContentType = "application/octet-stream"

// Request is the body of POST /inspect.
type Request struct {
	AssetID         string            `json:"assetId"`
	Base64          string            `json:"base64,omitempty"`
	URL             string            `json:"url,omitempty"`
	Modality        evidence.Modality `json:"modality,omitempty"`
	ContentType     string            `json:"contentType,omitempty"`
	WatermarkSignal string            `json:"watermarkSignal,omitempty"`
	Metadata        map[string]any    `json:"metadata,omitempty"`

	// payload holds the decoded Base64 bytes once Validate succeeds.
	payload []byte
}

// DecodeRequest parses a JSON request body. Type mismatches are reported as
// ValidationError on the offending field.
func DecodeRequest(r io.Reader) (*Request, error) {
	var req Request
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return nil, &ValidationError{
				Field:   typeErr.Field,
				Message: fmt.Sprintf("must be of type %s", jsonTypeName(typeErr.Field)),
			}
		}
		if errors.Is(err, io.EOF) {
			return nil, &ValidationError{Field: "body", Message: "request body is empty"}
		}
		return nil, &ValidationError{Field: "body", Message: fmt.Sprintf("invalid JSON: %v", err)}
	}
	return &req, nil
}

func jsonTypeName(field string) string {
	if field == "metadata" || strings.HasPrefix(field, "metadata.") {
		return "object"
	}
	return "string"
}

// Validate checks required fields and enumerations, and decodes the inline
// payload so it is read once per request.
func (r *Request) Validate() error {
	r.payload = nil
	if strings.TrimSpace(r.AssetID) == "" {
		return &ValidationError{Field: "assetId", Message: "assetId is required"}
	}
	if len(r.AssetID) > MaxAssetIDLength {
		return &ValidationError{Field: "assetId", Message: fmt.Sprintf("assetId must be at most %d characters", MaxAssetIDLength)}
	}
	if r.Modality != "" {
		if _, err := evidence.ParseModality(string(r.Modality)); err != nil {
			return &ValidationError{Field: "modality", Message: "modality must be one of image, video, audio"}
		}
	}
	if r.Base64 != "" {
		data, err := base64.StdEncoding.DecodeString(r.Base64)
		if err != nil {
			return &ValidationError{Field: "base64", Message: "base64 must be valid standard base64"}
		}
		r.payload = data
	}
	return nil
}
