// Package store provides SQLite-backed durable storage for the bot's
// session credentials and processed-match ledger.
//
// Two tables:
//   - credentials: singleton access-token pair (0 or 1 rows, replaced
//     atomically on each successful authorization handshake)
//   - matches: append-only ledger of every search result already handled
//
// The ledger doubles as the dedup record and the search cursor: the
// highest match id ever stored bounds future search queries, so a match
// is never reprocessed across restarts.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//
// No concurrent writers are assumed; the poll loop is the sole writer
// during normal operation.
package store
