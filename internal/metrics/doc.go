// Package metrics exposes the Prometheus collectors for the memory engine:
// HTTP traffic, interaction throughput, text-analysis latency, document
// store IO, session activity, cache effectiveness, and database pool state.
//
// This package is internal and should not be imported by external projects.
package metrics
