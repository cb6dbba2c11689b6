// Package migration manages the relational schema for the memory engine
// using golang-migrate with embedded, per-dialect SQL files.
//
// The schema holds the queryable index of the memory system: entity rows,
// the interaction log, per-channel activity statistics, and the keyword
// term tables used for search. Entity documents live outside the schema
// in the document store.
//
// Migrations are embedded per database type under migrations/<dialect>,
// so the binary needs no external files at deploy time.
//
// This package is internal and should not be imported by external projects.
package migration
