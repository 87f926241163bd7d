// Package metrics provides Prometheus metrics for monitoring.
//
// Key metrics:
//   - HTTP request counts by method and path
//   - Bets placed and points wagered
//   - Events created, closed, and resolved
//   - Flat payouts credited on settlement
//
// Metrics and a health probe are served on a dedicated port, separate
// from the public API.
package metrics
