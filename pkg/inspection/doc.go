// Package inspection composes evidence gathering, verdict fusion and audit
// persistence into the two operations exposed over HTTP: Inspect and
// GetReport.
package inspection
