// Package prometheus renders credauth engine metrics in Prometheus text
// exposition format.
//
// [NewPrometheusExporter] wraps a [credauth.Engine] and exposes an
// [http.Handler]. Counter names are prefixed credauth_ and end in _total; the
// single histogram is credauth_login_latency_seconds. The exporter never
// registers with a global registry and never mutates engine state.
package prometheus
