package providers

import (
	"errors"
	"fmt"
	"log/slog"

	"mediatrust-hq/orchestrator/pkg/evidence"
)

// DetectorConfig configures one passive detector backend.
type DetectorConfig struct {
	// Type is one of DetectorKinds
	Type string

	ClientConfig
}

// SourcesConfig configures every evidence backend. A source whose BaseURL is
// empty is not configured.
type SourcesConfig struct {
	Provenance ClientConfig
	Watermark  ClientConfig
	Detectors  []DetectorConfig
}

// Set holds the constructed evidence clients.
type Set struct {
	Provenance *ProvenanceClient
	Watermark  *SynthIDClient
	Detectors  []*DetectorClient
}

// NewSet builds a client for every configured source.
func NewSet(config SourcesConfig) (*Set, error) {
	set := &Set{}

	if config.Provenance.BaseURL != "" {
		c, err := NewProvenanceClient(config.Provenance)
		if err != nil {
			return nil, fmt.Errorf("failed to create provenance client: %w", err)
		}
		set.Provenance = c
	} else {
		slog.Warn("provenance endpoint not configured; verification will be skipped")
	}

	if config.Watermark.BaseURL != "" {
		c, err := NewSynthIDClient(config.Watermark)
		if err != nil {
			return nil, fmt.Errorf("failed to create watermark client: %w", err)
		}
		set.Watermark = c
	} else {
		slog.Warn("watermark endpoint not configured; watermark checks will be skipped")
	}

	seen := make(map[string]bool)
	for _, dc := range config.Detectors {
		if dc.BaseURL == "" {
			continue
		}
		c, err := NewDetectorClient(dc.Type, dc.ClientConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create detector %q: %w", dc.Name, err)
		}
		if seen[c.Name()] {
			return nil, &ConfigError{Source: c.Name(), Field: "name", Message: "duplicate detector name"}
		}
		seen[c.Name()] = true
		set.Detectors = append(set.Detectors, c)
	}
	if len(set.Detectors) == 0 {
		slog.Warn("no passive detectors configured")
	}

	slog.Info("evidence sources created",
		"provenance", set.Provenance != nil,
		"watermark", set.Watermark != nil,
		"detectors", len(set.Detectors),
	)

	return set, nil
}

// Sources adapts the set to the coordinator's capability interfaces.
// Unconfigured capabilities stay nil interfaces.
func (s *Set) Sources(opts ...evidence.PoolOption) evidence.Sources {
	var out evidence.Sources
	if s.Provenance != nil {
		out.Provenance = s.Provenance
	}
	if s.Watermark != nil {
		out.Watermark = s.Watermark
	}
	detectors := make([]evidence.PassiveDetector, 0, len(s.Detectors))
	for _, d := range s.Detectors {
		detectors = append(detectors, d)
	}
	out.Detectors = evidence.NewDetectorPool(detectors, opts...)
	return out
}

// Backends returns every configured client.
func (s *Set) Backends() []Backend {
	var out []Backend
	if s.Provenance != nil {
		out = append(out, s.Provenance)
	}
	if s.Watermark != nil {
		out = append(out, s.Watermark)
	}
	for _, d := range s.Detectors {
		out = append(out, d)
	}
	return out
}

// Close closes every client.
func (s *Set) Close() error {
	var errs []error
	for _, b := range s.Backends() {
		if err := b.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
