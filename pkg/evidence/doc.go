// Package evidence collects the independent trust signals for a media asset
// and assembles them into a single Evidence bundle.
//
// # Sources
//
// Three capabilities feed an inspection:
//
//  1. ProvenanceVerifier - cryptographic origin claims
//  2. WatermarkChecker - embedded watermark detection
//  3. PassiveDetectorPool - one or more ML deepfake detectors
//
// Concrete HTTP implementations live in package providers.
//
// # Fan-Out
//
// Coordinator.Gather launches the three tasks concurrently and joins them.
// The detector task is itself a fan-out over every configured backend
// (DetectorPool). Both levels are fail-soft:
//
//	provenance   skipped without bytes or URL; error -> {valid:false, errors:[msg]}
//	watermark    skipped without bytes or signal; error -> absent (logged)
//	detectors    skipped without bytes; failing backend -> dropped
//
// Every call runs under a timeout, and a timeout degrades exactly like any
// other source error.
//
// # Usage
//
//	coord := evidence.NewCoordinator(evidence.Sources{
//	    Provenance: provenanceClient,
//	    Watermark:  synthIDClient,
//	    Detectors:  evidence.NewDetectorPool(detectors),
//	}, evidence.WithTimeout(5*time.Second))
//
//	bundle := coord.Gather(ctx, evidence.Subject{AssetID: "a1", Data: raw})
package evidence
