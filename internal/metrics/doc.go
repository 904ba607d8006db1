// Package metrics exposes panel counters and gauges through Prometheus.
package metrics
