// Package api defines the HTTP surface of the memoria daemon: request and
// response payloads plus the handlers that expose the memory engine over
// REST. Route wiring and middleware live in cmd/memoriad.
package api
