// Package handlers implements the HTTP handlers for the memoria REST API.
//
// Handlers translate HTTP requests into memory engine calls and render the
// uniform response envelope. They carry no business logic of their own.
package handlers
