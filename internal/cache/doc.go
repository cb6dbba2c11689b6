// Package cache provides the Redis-backed cache layer used to keep hot
// entity documents and derived statistics close to the request path.
//
// The Manager wraps a go-redis client with:
//   - JSON helpers for document payloads
//   - a configurable key prefix so several engine instances can share one
//     Redis deployment without colliding
//   - a background health-check loop
//   - pattern-based invalidation for entity document keys
//
// This package is internal and should not be imported by external projects.
package cache
