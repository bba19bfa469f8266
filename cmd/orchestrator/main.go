// Orchestrator is the media trust inspection service.
//
// For each submitted asset it gathers provenance, watermark and passive
// detector evidence concurrently, fuses them into a verdict and records an
// auditable report.
//
// Usage:
//
//	# Start the HTTP service with defaults and environment overrides
//	orchestrator run
//
//	# Start with a configuration file
//	orchestrator run --config /etc/orchestrator/config.yaml
//
//	# Print a stored report
//	orchestrator report asset-123 --format json
//
//	# Check a configuration file
//	orchestrator validate --config config.yaml
package main

func main() {
	Execute()
}
