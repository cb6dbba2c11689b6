// Package database manages the relational connection pool shared by the
// entity store. It tunes sql.DB pool limits, runs a background health
// check, and wraps GORM transactions with retry for transient failures
// such as SQLite "database is locked" and PostgreSQL serialization errors.
//
// This package is internal and should not be imported by external projects.
package database
