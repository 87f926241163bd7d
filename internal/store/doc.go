// Package store provides the typed tables behind the market: the
// account directory, the market catalog, and the wager ledger, all
// persisted through the tabular store.
//
// Open initializes missing tables (header-only files) and seeds the
// bootstrap administrator on first run. Header field order is fixed per
// table and stable across writes.
package store
