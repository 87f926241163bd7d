// Package model defines shared data types used across the points market.
//
// Conventions:
//   - Prices and points: plain integers (base prices are 1-99 points)
//   - Timestamps: time.Time, persisted as RFC 3339 strings
//   - IDs: opaque strings (UUIDs at generation time)
package model
