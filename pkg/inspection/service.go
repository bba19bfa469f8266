package inspection

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"mediatrust-hq/orchestrator/pkg/assets"
	"mediatrust-hq/orchestrator/pkg/audit"
	"mediatrust-hq/orchestrator/pkg/evidence"
	"mediatrust-hq/orchestrator/pkg/policy"
)

// Gatherer assembles the evidence bundle for an asset.
type Gatherer interface {
	Gather(ctx context.Context, s evidence.Subject) evidence.Evidence
}

// Recorder receives per-inspection measurements.
type Recorder interface {
	RecordInspection(verdict string, confidence float64, seconds float64)
}

// Service runs inspections and serves stored reports.
type Service struct {
	gatherer        Gatherer
	audit           audit.Store
	assets          assets.Store
	defaultModality evidence.Modality
	now             func() time.Time
	recorder        Recorder
	tracer          trace.Tracer
	logger          *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithAssetStore stores raw bytes alongside each inspection.
func WithAssetStore(s assets.Store) Option {
	return func(svc *Service) { svc.assets = s }
}

// WithDefaultModality sets the modality used when a request omits one.
func WithDefaultModality(m evidence.Modality) Option {
	return func(svc *Service) {
		if m != "" {
			svc.defaultModality = m
		}
	}
}

// WithClock overrides the time source for storedAt.
func WithClock(now func() time.Time) Option {
	return func(svc *Service) { svc.now = now }
}

// WithRecorder reports verdicts and latency.
func WithRecorder(r Recorder) Option {
	return func(svc *Service) { svc.recorder = r }
}

// WithTracer overrides the tracer.
func WithTracer(t trace.Tracer) Option {
	return func(svc *Service) { svc.tracer = t }
}

// NewService creates a Service. The asset store is optional.
func NewService(g Gatherer, store audit.Store, opts ...Option) *Service {
	svc := &Service{
		gatherer:        g,
		audit:           store,
		defaultModality: evidence.ModalityImage,
		now:             time.Now,
		tracer:          otel.Tracer("mediatrust-hq/orchestrator/pkg/inspection"),
		logger:          slog.Default().With("component", "inspection.service"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Inspect gathers evidence for req, fuses a verdict, persists the audit
// record and returns a view of it.
//
// Asset storage and evidence gathering run concurrently. A storage or
// persistence failure fails the inspection; evidence source failures never do.
func (s *Service) Inspect(ctx context.Context, req *Request) (*InspectResponse, error) {
	start := time.Now()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	data := req.payload

	contentType := req.ContentType
	if contentType == "" {
		contentType = DefaultContentType
	}
	modality := req.Modality
	if modality == "" {
		modality = s.defaultModality
	}

	ctx, span := s.tracer.Start(ctx, "inspection.inspect", trace.WithAttributes(
		attribute.String("asset.id", req.AssetID),
		attribute.String("asset.modality", string(modality)),
		attribute.Int("asset.size", len(data)),
	))
	defer span.End()

	var (
		stored *assets.Stored
		bundle evidence.Evidence
	)

	g, gctx := errgroup.WithContext(ctx)
	if len(data) > 0 && s.assets != nil {
		g.Go(func() error {
			out, err := s.assets.Store(gctx, req.AssetID, data, contentType)
			if err != nil {
				return err
			}
			stored = &out
			return nil
		})
	}
	g.Go(func() error {
		bundle = s.gatherer.Gather(gctx, evidence.Subject{
			AssetID:         req.AssetID,
			Data:            data,
			Base64:          req.Base64,
			URL:             req.URL,
			ContentType:     contentType,
			Modality:        modality,
			WatermarkSignal: req.WatermarkSignal,
		})
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.ErrorContext(ctx, "asset storage failed", "asset_id", req.AssetID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "asset storage failed")
		return nil, err
	}

	verdict := policy.FuseSignals(bundle)

	rec := &audit.Record{
		AssetID:    req.AssetID,
		Verdict:    verdict.Kind,
		Confidence: verdict.Confidence,
		Evidence:   verdict.Evidence,
		Metadata:   req.Metadata,
		StoredAt:   s.now().UTC().Truncate(time.Millisecond),
	}
	if stored != nil {
		rec.StorageLocation = stored.Location
	}

	if err := s.audit.Save(ctx, rec); err != nil {
		s.logger.ErrorContext(ctx, "audit save failed", "asset_id", req.AssetID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "audit save failed")
		return nil, err
	}

	span.SetAttributes(
		attribute.String("inspection.verdict", string(verdict.Kind)),
		attribute.Float64("inspection.confidence", verdict.Confidence),
	)
	if s.recorder != nil {
		s.recorder.RecordInspection(string(verdict.Kind), verdict.Confidence, time.Since(start).Seconds())
	}

	s.logger.InfoContext(ctx, "inspection complete",
		"asset_id", req.AssetID,
		"verdict", verdict.Kind,
		"confidence", verdict.Confidence,
		"detectors", len(verdict.Evidence.Detectors),
		"stored", rec.StorageLocation != "",
		"duration", time.Since(start),
	)

	return newInspectResponse(rec), nil
}

// GetReport returns the stored report for assetID, or ErrNotFound.
func (s *Service) GetReport(ctx context.Context, assetID string) (*ReportResponse, error) {
	if assetID == "" {
		return nil, &ValidationError{Field: "assetId", Message: "assetId is required"}
	}
	rec, err := s.audit.Find(ctx, assetID)
	if err != nil {
		if !errors.Is(err, audit.ErrNotFound) {
			s.logger.ErrorContext(ctx, "audit lookup failed", "asset_id", assetID, "error", err)
		}
		return nil, err
	}
	return NewReportResponse(rec), nil
}
