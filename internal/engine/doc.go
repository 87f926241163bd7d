// Package engine is the market ledger engine: the sole writer over the
// account directory, market catalog, and wager ledger. It validates
// requests, enforces the event lifecycle, computes quotes through the
// pricing model, and applies cross-table balance changes as a unit.
//
// Every mutating operation runs under a single in-process mutex:
// load tables, validate against current state, mutate in-memory copies,
// persist all affected tables. All validation happens before any
// mutation; a failed request never persists a partial change.
package engine
