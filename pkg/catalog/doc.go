// Package catalog defines the lender-program data model and the immutable
// catalog snapshot the evaluation engine reads from.
//
// A Catalog is built once from a parsed Document and never mutated afterwards.
// Hot reload (see the source subpackage) swaps whole snapshots atomically, so
// an in-flight evaluation always sees a single consistent view of programs,
// criteria, coverage rules, house rules, scoring models, and match patterns.
//
// Program versions are immutable by construction: the loader rejects duplicate
// (program, version) pairs, and published versions referenced by audit records
// are never edited in place. A change to a program is a new version.
package catalog
