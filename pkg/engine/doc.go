// Package engine implements the evaluation core: the pipeline that resolves
// geographic coverage, evaluates criteria bands, honors exception grants,
// scores and ranks candidate programs, and records every evaluation.
//
// Control flow for one request:
//
//	admission check -> cache lookup -> coverage filter -> criteria evaluation
//	-> exception resolution -> scoring & ranking -> ledger append -> cache store
//
// Evaluations for different scenarios run fully in parallel; the engine holds
// no mutable state of its own. The per-tenant admission counters, the result
// cache, and the audit ledger are the only shared collaborators, and each
// owns its own synchronization.
package engine
