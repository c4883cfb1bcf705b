// Package cache implements the short-TTL result cache for evaluations.
//
// Entries are keyed by a stable hash of (scenario ID, normalized options) and
// hold the full serialized result. A hit younger than the configured TTL
// short-circuits the whole pipeline; anything older is treated as a miss and
// never returned as fresh. Concurrent writes to the same key are
// last-writer-wins: the computation is deterministic for a given catalog
// snapshot, so either write is correct.
//
// A memory backend serves single-process deployments; a SQLite backend keeps
// the cache warm across restarts. The Sweeper purges expired entries on a
// cron schedule so backends do not grow without bound.
package cache
