// Package telemetry provides structured logging (zerolog) and Prometheus
// metrics for generator runs.
//
// The Logger wraps zerolog with field helpers for the identifiers that
// matter during a run (run ID, phase, task, target) and supports context
// plumbing so collaborators can pick up the active logger without explicit
// wiring. Metrics collects run/task counters and durations in a private
// registry; watch mode can serve them over HTTP.
package telemetry
