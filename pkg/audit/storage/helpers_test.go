package storage

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"mediatrust-hq/orchestrator/pkg/audit"
	"mediatrust-hq/orchestrator/pkg/evidence"
	"mediatrust-hq/orchestrator/pkg/policy"
)

func sampleRecord(id string) *audit.Record {
	return &audit.Record{
		AssetID:    id,
		Verdict:    policy.KindFlagged,
		Confidence: 0.72,
		Evidence: evidence.Evidence{
			Provenance: &evidence.ProvenanceEvidence{AssetID: id, Valid: false, Errors: []string{"no manifest"}},
			Watermark:  &evidence.WatermarkEvidence{Present: true, Confidence: 0.61, Modality: evidence.ModalityImage},
			Detectors: []evidence.DetectorEvidence{
				{Label: "synthetic", Score: 0.72, Reasons: []string{"face warp"}, ModelVersion: "2024-05"},
			},
		},
		Metadata:        map[string]any{"source": "upload", "batch": "b-17"},
		StoredAt:        time.Date(2026, 3, 1, 12, 30, 45, 123000000, time.UTC),
		StorageLocation: "memory://" + id,
	}
}

// exerciseStore runs the behaviour every audit.Store backend shares.
func exerciseStore(t *testing.T, store audit.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing record", func(t *testing.T) {
		_, err := store.Find(ctx, "does-not-exist")
		if !errors.Is(err, audit.ErrNotFound) {
			t.Fatalf("Find() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("round trip", func(t *testing.T) {
		want := sampleRecord("asset-round-trip")
		if err := store.Save(ctx, want); err != nil {
			t.Fatalf("Save() failed: %v", err)
		}
		got, err := store.Find(ctx, want.AssetID)
		if err != nil {
			t.Fatalf("Find() failed: %v", err)
		}
		if !got.StoredAt.Equal(want.StoredAt) {
			t.Errorf("StoredAt = %v, want %v", got.StoredAt, want.StoredAt)
		}
		got.StoredAt = want.StoredAt
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Find() = %+v, want %+v", got, want)
		}
	})

	t.Run("last write wins", func(t *testing.T) {
		first := sampleRecord("asset-overwrite")
		if err := store.Save(ctx, first); err != nil {
			t.Fatalf("Save() failed: %v", err)
		}
		second := sampleRecord("asset-overwrite")
		second.Verdict = policy.KindReject
		second.Confidence = 0.95
		second.Metadata = nil
		second.StorageLocation = ""
		if err := store.Save(ctx, second); err != nil {
			t.Fatalf("Save() failed: %v", err)
		}

		got, err := store.Find(ctx, "asset-overwrite")
		if err != nil {
			t.Fatalf("Find() failed: %v", err)
		}
		if got.Verdict != policy.KindReject || got.Confidence != 0.95 {
			t.Errorf("got verdict %q/%v, want reject/0.95", got.Verdict, got.Confidence)
		}
		if got.Metadata != nil {
			t.Errorf("Metadata = %v, want nil", got.Metadata)
		}
		if got.StorageLocation != "" {
			t.Errorf("StorageLocation = %q, want empty", got.StorageLocation)
		}
	})

	t.Run("empty detectors stay non-nil", func(t *testing.T) {
		rec := sampleRecord("asset-bare")
		rec.Evidence = evidence.Evidence{}
		if err := store.Save(ctx, rec); err != nil {
			t.Fatalf("Save() failed: %v", err)
		}
		got, err := store.Find(ctx, "asset-bare")
		if err != nil {
			t.Fatalf("Find() failed: %v", err)
		}
		if got.Evidence.Detectors == nil {
			t.Error("Detectors decoded as nil")
		}
		if got.Evidence.Provenance != nil || got.Evidence.Watermark != nil {
			t.Errorf("unexpected evidence: %+v", got.Evidence)
		}
	})

	t.Run("invalid record rejected", func(t *testing.T) {
		err := store.Save(ctx, &audit.Record{Verdict: policy.KindUnknown})
		if !errors.Is(err, audit.ErrInvalidRecord) {
			t.Errorf("Save() error = %v, want ErrInvalidRecord", err)
		}
	})
}
