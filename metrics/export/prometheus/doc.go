// Package prometheus renders goSession engine metrics in the Prometheus text
// exposition format. Counters are named gosession_*_total and the gate
// latency histogram is gosession_gate_latency_seconds.
//
// Nothing is registered globally; callers mount [Exporter.Handler] on their
// own mux.
package prometheus
