// Package history persists a ledger of batch runs and their per-job results
// in SQLite so past extractions can be listed and inspected from the CLI.
//
// The store opens in WAL mode with a busy timeout and retries writes that
// hit SQLITE_BUSY, so several hardsub processes can share one database.
package history
