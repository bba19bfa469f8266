package evidence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// DefaultSourceTimeout bounds each top-level evidence call when no timeout
// is configured.
const DefaultSourceTimeout = 10 * time.Second

const tracerName = "mediatrust-hq/orchestrator/pkg/evidence"

// Sources groups the capabilities the coordinator fans out to.
// A nil Provenance or Watermark means that capability is not configured.
type Sources struct {
	Provenance ProvenanceVerifier
	Watermark  WatermarkChecker
	Detectors  PassiveDetectorPool
}

// Coordinator gathers evidence from all sources concurrently and never
// fails: every source error degrades to a documented default.
type Coordinator struct {
	sources  Sources
	timeout  time.Duration
	observer Observer
	tracer   trace.Tracer
	logger   *slog.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithTimeout bounds each top-level evidence call.
func WithTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithObserver reports per-source latency and outcome.
func WithObserver(o Observer) Option {
	return func(c *Coordinator) {
		c.observer = o
	}
}

// WithTracer overrides the global OpenTelemetry tracer.
func WithTracer(t trace.Tracer) Option {
	return func(c *Coordinator) {
		if t != nil {
			c.tracer = t
		}
	}
}

// WithLogger overrides the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCoordinator creates a Coordinator over the given sources.
func NewCoordinator(sources Sources, opts ...Option) *Coordinator {
	c := &Coordinator{
		sources: sources,
		timeout: DefaultSourceTimeout,
		tracer:  otel.Tracer(tracerName),
		logger:  slog.Default().With("component", "evidence.coordinator"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.sources.Detectors == nil {
		c.sources.Detectors = NewDetectorPool(nil)
	}
	return c
}

// Gather runs the provenance, watermark and detector tasks concurrently and
// assembles the bundle once all three have settled.
func (c *Coordinator) Gather(ctx context.Context, s Subject) Evidence {
	ctx, span := c.tracer.Start(ctx, "evidence.gather",
		trace.WithAttributes(attribute.String("asset.id", s.AssetID)))
	defer span.End()

	var (
		provenance *ProvenanceEvidence
		watermark  *WatermarkEvidence
		detectors  []DetectorEvidence
	)

	// Units never return an error, so one failing source cannot cancel
	// its siblings.
	var g errgroup.Group
	g.Go(func() error {
		provenance = c.gatherProvenance(ctx, s)
		return nil
	})
	g.Go(func() error {
		watermark = c.gatherWatermark(ctx, s)
		return nil
	})
	g.Go(func() error {
		detectors = c.gatherDetectors(ctx, s)
		return nil
	})
	_ = g.Wait()

	ev := Evidence{
		Provenance: provenance,
		Watermark:  watermark,
		Detectors:  detectors,
	}.Normalize()

	span.SetAttributes(
		attribute.Bool("evidence.provenance", ev.Provenance != nil),
		attribute.Bool("evidence.watermark", ev.Watermark != nil),
		attribute.Int("evidence.detectors", len(ev.Detectors)),
	)
	return ev
}

func (c *Coordinator) gatherProvenance(ctx context.Context, s Subject) *ProvenanceEvidence {
	if !s.HasData() && s.URL == "" {
		c.observe(SourceProvenance, OutcomeSkipped, 0)
		return nil
	}
	if c.sources.Provenance == nil {
		c.logger.WarnContext(ctx, "provenance verifier not configured; skipping verification",
			"asset_id", s.AssetID)
		c.observe(SourceProvenance, OutcomeSkipped, 0)
		return nil
	}

	var result *ProvenanceEvidence
	err := c.call(ctx, SourceProvenance, func(ctx context.Context) error {
		var err error
		result, err = c.sources.Provenance.Verify(ctx, ProvenanceRequest{
			AssetID: s.AssetID,
			Base64:  s.Base64,
			URL:     s.URL,
		})
		return err
	})
	if err != nil {
		c.logger.ErrorContext(ctx, "provenance check failed",
			"asset_id", s.AssetID,
			"error", err,
		)
		// Recorded as invalid so a failed verification stays auditable.
		return &ProvenanceEvidence{
			AssetID: s.AssetID,
			Valid:   false,
			Errors:  []string{err.Error()},
		}
	}
	return result
}

func (c *Coordinator) gatherWatermark(ctx context.Context, s Subject) *WatermarkEvidence {
	if !s.HasData() && s.WatermarkSignal == "" {
		c.observe(SourceWatermark, OutcomeSkipped, 0)
		return nil
	}
	if c.sources.Watermark == nil {
		c.logger.WarnContext(ctx, "watermark checker not configured; skipping watermark check",
			"asset_id", s.AssetID)
		c.observe(SourceWatermark, OutcomeSkipped, 0)
		return nil
	}

	signal := s.WatermarkSignal
	if signal == "" {
		signal = s.Base64
	}
	if signal == "" {
		signal = s.AssetID
	}

	var result *WatermarkEvidence
	err := c.call(ctx, SourceWatermark, func(ctx context.Context) error {
		var err error
		result, err = c.sources.Watermark.Check(ctx, WatermarkRequest{
			AssetID:  s.AssetID,
			Modality: s.Modality,
			Signal:   signal,
		})
		return err
	})
	if err != nil {
		c.logger.ErrorContext(ctx, "watermark check failed",
			"asset_id", s.AssetID,
			"error", err,
		)
		return nil
	}
	return result
}

func (c *Coordinator) gatherDetectors(ctx context.Context, s Subject) []DetectorEvidence {
	if !s.HasData() {
		c.observe(SourceDetectors, OutcomeSkipped, 0)
		return []DetectorEvidence{}
	}

	var result []DetectorEvidence
	_ = c.call(ctx, SourceDetectors, func(ctx context.Context) error {
		result = c.sources.Detectors.Run(ctx, AnalyzeRequest{
			AssetID:     s.AssetID,
			Data:        s.Data,
			ContentType: s.ContentType,
			Modality:    s.Modality,
		})
		return nil
	})
	return result
}

// call runs fn under the per-source timeout inside its own span and reports
// the outcome. Panics inside fn are converted to errors.
func (c *Coordinator) call(ctx context.Context, source string, fn func(context.Context) error) (err error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ctx, span := c.tracer.Start(ctx, "evidence."+source)
	defer span.End()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s source panicked: %v", source, r)
		}

		outcome := OutcomeOK
		switch {
		case err != nil && errors.Is(err, context.DeadlineExceeded):
			outcome = OutcomeTimeout
		case err != nil:
			outcome = OutcomeError
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		c.observe(source, outcome, time.Since(start).Seconds())
	}()

	return fn(ctx)
}

func (c *Coordinator) observe(source, outcome string, seconds float64) {
	if c.observer == nil {
		return
	}
	c.observer.ObserveSource(source, outcome, seconds)
}
