// Package observability provides metrics extensions for the onboarding
// engine. The MetricsExtension implements lifecycle hooks to record
// system-wide counters for saga starts, completions, abandonments,
// event correlation, and status degradation.
//
// For per-execution tracing and metrics, see the middleware package:
// middleware.Tracing() and middleware.Metrics().
package observability
