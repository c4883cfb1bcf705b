// Package ledger implements the append-only, hash-chained audit ledger.
//
// Every successful evaluation appends one record holding the full request and
// result payload. Each record's hash is computed over its canonical payload
// bytes concatenated with the previous record's hash, so corrupting any one
// record invalidates every hash after it.
//
// Appends are the one true critical section in the system: the Ledger
// serializes "read previous hash + append" under a single mutex so two
// concurrent evaluations can never fork the chain. Verify walks the stored
// chain recomputing every hash; a mismatch is fatal and halts further
// appends.
//
// Two storage backends are provided: an in-memory backend for tests and
// ephemeral runs, and a SQLite backend for durable deployments.
package ledger
