// Package metrics defines the Prometheus collectors shared across the
// server. Collectors are package-level and registered on the default
// registry via promauto; main exposes them at /metrics.
package metrics
