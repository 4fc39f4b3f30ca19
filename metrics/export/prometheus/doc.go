// Package prometheus exposes session manager metrics to Prometheus.
//
// [Collector] implements prometheus.Collector and turns each scrape into a
// [examAuth.SessionManager.MetricsSnapshot] read. Counter names are
// examauth_*_total; the single histogram is examauth_remote_latency_seconds.
// [Collector.Handler] serves it from a private registry, or callers can
// register it with their own.
//
// # What this package must NOT do
//
//   - Register metrics in the global Prometheus registry.
//   - Mutate manager state.
package prometheus
