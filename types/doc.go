// Package types provides unified type definitions for the memoria engine.
//
// The package is the import root of every other package in the module and is
// deliberately dependency-free: entity rows, sidecar documents, analysis
// results, personality parameters, session structures and the error taxonomy
// all live here so that analyzer, store, personality, session and the facade
// can exchange values without import cycles.
package types
