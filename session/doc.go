// Package session manages conversation histories as role-tagged message
// lists persisted through the document store.
//
// Session ids are timestamp-prefixed with a random suffix so they sort
// chronologically and never collide. Histories can be exported to and
// imported from standalone JSON files.
package session
