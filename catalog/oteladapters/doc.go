// Package oteladapters provides OpenTelemetry implementations of the catalog observability interfaces.
//
// The catalog packages only depend on the small Logger, ContextualLogger, MetricsCollector, and
// TracingCollector interfaces. This package plugs them into OpenTelemetry:
//   - SlogBridgeLogger logs through log/slog, via the otelslog bridge for automatic trace correlation
//   - MetricsCollector maps durations to histograms, counters to counters, values to gauges
//   - TracingCollector creates spans and maps status strings to span status codes
package oteladapters
