// Package metrics exposes Prometheus metrics describing the simulated
// cluster: object counts by kind, pod counts by phase, endpoint counts per
// service and engine tick counters. The engine refreshes gauges at the end
// of every reconcile tick.
package metrics
