// Package source provides catalog snapshot sources: a file source with
// fsnotify hot reload, and a git source that pins every snapshot to a commit.
//
// Both sources hand out immutable *catalog.Catalog snapshots through an
// atomic pointer, so a reload never disturbs in-flight evaluations. A failed
// reload keeps the last good snapshot and logs the parse or validation error.
package source
