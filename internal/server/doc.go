// Package server owns the HTTP listener lifecycle for the memory service:
// non-blocking start, asynchronous serve errors, signal-driven graceful
// shutdown with a bounded drain timeout.
//
// This package is internal and should not be imported by external projects.
package server
