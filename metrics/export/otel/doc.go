// Package otel bridges credauth engine metrics into OpenTelemetry.
//
// [NewOTelExporter] registers an Int64ObservableCounter per engine counter. The
// login latency histogram becomes three instruments: a cumulative bucket gauge
// with an "le" attribute per bound, a count and a sum in seconds. A single
// callback reads [credauth.Engine.MetricsSnapshot] on each collection cycle.
// Callers own the MeterProvider.
package otel
