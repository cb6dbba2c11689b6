// Package store persists everything the memory engine knows about users,
// channels and their interactions.
//
// Storage is split in two, mirrored by the embedded schema migrations:
//
//   - a relational index (gorm; sqlite by default, postgres/mysql by
//     configuration) holding entity rows, the append-only interaction log,
//     per-channel participation stats and the keyword term tables used for
//     search and statistics;
//   - sidecar JSON documents (DocumentStore) holding the rich per-entity
//     state: expressions, emotion and tone distributions, topic relevance,
//     and the channel personality block.
//
// A row and its document are created together under the entity's lock
// stripe; same-entity operations serialize, distinct entities proceed
// concurrently.
package store
