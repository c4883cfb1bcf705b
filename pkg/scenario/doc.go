// Package scenario holds the request-side data model: loan scenarios, their
// typed question answers, and exception grants.
//
// Answers arrive from the upstream import pipeline already quality-gated; the
// typed Value union is validated once at the boundary and read without
// re-parsing inside the evaluation engine. The Store interface stands in for
// the workflow layer that owns scenario lifecycle — this package never mutates
// workflow state.
package scenario
