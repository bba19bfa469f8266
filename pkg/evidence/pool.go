package evidence

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// DetectorPool fans a request out to every configured passive detector and
// keeps the results of those that respond. A detector that errors, panics or
// times out is dropped without affecting the others.
type DetectorPool struct {
	detectors []PassiveDetector
	timeout   time.Duration
	observer  Observer
	logger    *slog.Logger
}

// PoolOption configures a DetectorPool.
type PoolOption func(*DetectorPool)

// WithDetectorTimeout bounds each individual detector call.
func WithDetectorTimeout(d time.Duration) PoolOption {
	return func(p *DetectorPool) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithDetectorObserver reports per-backend latency and outcome, using
// "detector:<name>" as the source label.
func WithDetectorObserver(o Observer) PoolOption {
	return func(p *DetectorPool) {
		p.observer = o
	}
}

// NewDetectorPool creates a pool over detectors. An empty pool is valid and
// always yields an empty result.
func NewDetectorPool(detectors []PassiveDetector, opts ...PoolOption) *DetectorPool {
	p := &DetectorPool{
		detectors: detectors,
		timeout:   DefaultSourceTimeout,
		logger:    slog.Default().With("component", "evidence.detectors"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Len returns the number of configured detectors.
func (p *DetectorPool) Len() int {
	return len(p.detectors)
}

// Run calls every detector concurrently. Results keep the configured
// detector order, so the first configured backend wins score ties.
func (p *DetectorPool) Run(ctx context.Context, req AnalyzeRequest) []DetectorEvidence {
	if len(p.detectors) == 0 {
		p.logger.WarnContext(ctx, "no passive detectors configured", "asset_id", req.AssetID)
		return []DetectorEvidence{}
	}

	slots := make([]*DetectorEvidence, len(p.detectors))

	var g errgroup.Group
	for i, d := range p.detectors {
		i, d := i, d
		g.Go(func() error {
			ev, err := p.analyze(ctx, d, req)
			if err != nil {
				p.logger.ErrorContext(ctx, "detector call failed",
					"detector", d.Name(),
					"asset_id", req.AssetID,
					"error", err,
				)
				return nil
			}
			slots[i] = &ev
			return nil
		})
	}
	_ = g.Wait()

	out := make([]DetectorEvidence, 0, len(slots))
	for _, ev := range slots {
		if ev != nil {
			out = append(out, *ev)
		}
	}
	return out
}

func (p *DetectorPool) analyze(ctx context.Context, d PassiveDetector, req AnalyzeRequest) (ev DetectorEvidence, err error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("detector %s panicked: %v", d.Name(), r)
		}
		if p.observer != nil {
			outcome := OutcomeOK
			switch {
			case err != nil && ctx.Err() != nil:
				outcome = OutcomeTimeout
			case err != nil:
				outcome = OutcomeError
			}
			p.observer.ObserveSource("detector:"+d.Name(), outcome, time.Since(start).Seconds())
		}
	}()

	return d.Analyze(ctx, req)
}
