// Package providers implements the HTTP clients for the evidence backends.
//
// # Overview
//
// Every backend client embeds Client, which provides:
//
//   - connection pooling
//   - retries with exponential backoff for network errors, timeouts and 5xx
//   - a per-backend circuit breaker
//   - an optional outbound rate limit and API key header
//   - health tracking from live traffic plus an on-demand HealthCheck
//
// # Backends
//
//	ProvenanceClient   POST {base}/verify    JSON       evidence.ProvenanceVerifier
//	SynthIDClient      POST {base}/check     JSON       evidence.WatermarkChecker
//	DetectorClient     POST {base}/analyze   multipart  evidence.PassiveDetector
//
// DetectorClient serves the Sensity, Hive and Reality Defender backends,
// which share one wire format. Hive takes video under the "frames" field.
//
// # Usage
//
//	set, err := providers.NewSet(providers.SourcesConfig{
//	    Provenance: providers.ClientConfig{BaseURL: "http://provenance:8080"},
//	    Detectors: []providers.DetectorConfig{
//	        {Type: providers.KindHive, ClientConfig: providers.ClientConfig{BaseURL: "http://hive:8080"}},
//	    },
//	})
//	if err != nil {
//	    return err
//	}
//	defer set.Close()
//
//	coord := evidence.NewCoordinator(set.Sources())
package providers
