// Package storage provides the BBolt database interface for tradebutler.
//
// Database structure uses five buckets:
//   - config: schema version, timestamps, vault ID
//   - credential: lock-screen secret records (digest, salt, kind, iterations,
//     lock flag)
//   - trades: imported and manually entered trades
//   - journal: journal entries, revisions, strategies, checklist items
//   - checklist: per-entry checklist responses
//
// The credential bucket is the persistence surface of the credential store:
// digest, salt, and kind are written inside a single transaction so a reader
// never observes a partially written record.
//
// BBolt provides ACID transactions, file locking, and corruption detection.
package storage
