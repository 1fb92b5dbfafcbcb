// Package storage defines the persistence interfaces for ladder state.
//
// It covers tenant configuration, member profiles, match records with their
// participants, operational audit events, and aggregate statistics.
// Implementations (e.g., SQLite) live in subpackages.
//
// Common error types:
//   - ErrNotConnected: a data operation ran before the store was opened
//   - ErrNotFound: requested record is missing
//   - ErrUnavailable: the backing engine failed to execute a statement
package storage
