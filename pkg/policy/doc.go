// Package policy turns an evidence bundle into a trust verdict.
//
// FuseSignals is deterministic and side-effect free; callers may invoke it
// from any goroutine.
package policy
