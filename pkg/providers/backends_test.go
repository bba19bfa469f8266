package providers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediatrust-hq/orchestrator/pkg/evidence"
)

func TestProvenanceClient_Verify(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/verify", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"assetId":"a1","valid":true,"issuer":"Example CA"}`))
	}))
	defer srv.Close()

	c, err := NewProvenanceClient(ClientConfig{BaseURL: srv.URL + "/"})
	require.NoError(t, err)
	assert.Equal(t, evidence.SourceProvenance, c.Name())

	ev, err := c.Verify(context.Background(), evidence.ProvenanceRequest{AssetID: "a1", Base64: "AQID"})
	require.NoError(t, err)
	assert.Equal(t, &evidence.ProvenanceEvidence{AssetID: "a1", Valid: true, Issuer: "Example CA"}, ev)

	assert.Equal(t, "a1", got["asset_id"])
	assert.Equal(t, "a1", got["assetId"])
	assert.Equal(t, "AQID", got["base64"])
	assert.NotContains(t, got, "url")
}

func TestProvenanceClient_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "manifest store offline", http.StatusBadRequest)
	}))
	defer srv.Close()

	c, err := NewProvenanceClient(ClientConfig{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = c.Verify(context.Background(), evidence.ProvenanceRequest{AssetID: "a1", URL: "https://cdn/a.png"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400 manifest store offline")
}

func TestSynthIDClient_Check(t *testing.T) {
	var got checkRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/check", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"present":true,"confidence":0.83,"notes":["synthid v2"]}`))
	}))
	defer srv.Close()

	c, err := NewSynthIDClient(ClientConfig{BaseURL: srv.URL})
	require.NoError(t, err)

	ev, err := c.Check(context.Background(), evidence.WatermarkRequest{
		AssetID:  "a1",
		Modality: evidence.ModalityAudio,
		Signal:   "sig",
	})
	require.NoError(t, err)
	assert.True(t, ev.Present)
	assert.InDelta(t, 0.83, ev.Confidence, 1e-9)
	assert.Equal(t, evidence.ModalityAudio, ev.Modality, "missing modality falls back to the request")
	assert.Equal(t, []string{"synthid v2"}, ev.Notes)

	assert.Equal(t, checkRequest{AssetID: "a1", Modality: evidence.ModalityAudio, DetectorSignal: "sig"}, got)
}

type capturedForm struct {
	field       string
	filename    string
	partType    string
	data        string
	modality    string
	assetID     string
	contentType string
}

func detectorServer(t *testing.T, captured *capturedForm, reply string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/analyze", r.URL.Path)
		captured.contentType = r.Header.Get("Content-Type")

		mr, err := r.MultipartReader()
		require.NoError(t, err)
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			require.NoError(t, err)
			body, _ := io.ReadAll(part)
			switch part.FormName() {
			case "modality":
				captured.modality = string(body)
			case "assetId":
				captured.assetID = string(body)
			default:
				captured.field = part.FormName()
				captured.filename = part.FileName()
				captured.partType = part.Header.Get("Content-Type")
				captured.data = string(body)
			}
		}
		_, _ = w.Write([]byte(reply))
	}))
}

func TestDetectorClient_Analyze(t *testing.T) {
	tests := []struct {
		kind      string
		modality  evidence.Modality
		wantField string
	}{
		{KindSensity, evidence.ModalityImage, "file"},
		{KindRealityDefender, evidence.ModalityVideo, "file"},
		{KindHive, evidence.ModalityImage, "file"},
		{KindHive, evidence.ModalityVideo, "frames"},
	}

	for _, tt := range tests {
		t.Run(tt.kind+"/"+string(tt.modality), func(t *testing.T) {
			var captured capturedForm
			srv := detectorServer(t, &captured,
				`{"label":"synthetic","score":0.91,"reasons":["gan artifacts"],"modelVersion":"2024.1"}`)
			defer srv.Close()

			c, err := NewDetectorClient(tt.kind, ClientConfig{BaseURL: srv.URL})
			require.NoError(t, err)
			assert.Equal(t, tt.kind, c.Name())

			ev, err := c.Analyze(context.Background(), evidence.AnalyzeRequest{
				AssetID:     "asset-9",
				Data:        []byte("raw-bytes"),
				ContentType: "image/jpeg",
				Modality:    tt.modality,
			})
			require.NoError(t, err)
			assert.Equal(t, evidence.DetectorEvidence{
				Label:        "synthetic",
				Score:        0.91,
				Reasons:      []string{"gan artifacts"},
				ModelVersion: "2024.1",
			}, ev)

			assert.Contains(t, captured.contentType, "multipart/form-data")
			assert.Equal(t, tt.wantField, captured.field)
			assert.Equal(t, "asset-9", captured.filename)
			assert.Equal(t, "image/jpeg", captured.partType)
			assert.Equal(t, "raw-bytes", captured.data)
			assert.Equal(t, string(tt.modality), captured.modality)
			assert.Equal(t, "asset-9", captured.assetID)
		})
	}
}

func TestNewDetectorClient_UnknownKind(t *testing.T) {
	_, err := NewDetectorClient("deepware", ClientConfig{BaseURL: "http://x"})
	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "type", ce.Field)
}

func TestNewSet(t *testing.T) {
	set, err := NewSet(SourcesConfig{
		Provenance: ClientConfig{BaseURL: "http://provenance"},
		Detectors: []DetectorConfig{
			{Type: KindSensity, ClientConfig: ClientConfig{BaseURL: "http://sensity"}},
			{Type: KindHive, ClientConfig: ClientConfig{BaseURL: ""}},
			{Type: KindHive, ClientConfig: ClientConfig{Name: "hive-eu", BaseURL: "http://hive"}},
		},
	})
	require.NoError(t, err)
	defer set.Close()

	assert.NotNil(t, set.Provenance)
	assert.Nil(t, set.Watermark)
	require.Len(t, set.Detectors, 2)
	assert.Equal(t, "sensity", set.Detectors[0].Name())
	assert.Equal(t, "hive-eu", set.Detectors[1].Name())
	assert.Len(t, set.Backends(), 3)

	sources := set.Sources()
	assert.NotNil(t, sources.Provenance)
	assert.Nil(t, sources.Watermark, "unconfigured source must be a nil interface")
	require.NotNil(t, sources.Detectors)
}

func TestNewSet_DuplicateDetectorName(t *testing.T) {
	_, err := NewSet(SourcesConfig{
		Detectors: []DetectorConfig{
			{Type: KindSensity, ClientConfig: ClientConfig{BaseURL: "http://a"}},
			{Type: KindSensity, ClientConfig: ClientConfig{BaseURL: "http://b"}},
		},
	})
	assert.Error(t, err)
}
