// Package otel publishes goSession engine metrics through an OpenTelemetry
// Meter. Counters become Int64ObservableCounters; the gate latency histogram
// becomes one cumulative gauge per bucket plus a count gauge. All values are
// read from the engine snapshot in a single callback per collection.
package otel
