// Package httpapi exposes the market ledger engine over HTTP. It is a
// thin transport: handlers parse request bodies, resolve the bearer
// principal, delegate to the engine, and map the engine's typed error
// kinds to status codes. All business rules live in the engine.
package httpapi
