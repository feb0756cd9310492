// Package observability provides structured logging and Prometheus metrics
// for the fhs service.
//
// This package implements:
//   - zap logger construction from configuration
//   - authentication outcome and authorization decision counters
//   - HTTP request counters and latency histograms
//
// Metrics live in their own registry so tests can build isolated instances.
package observability
