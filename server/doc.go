// Package server exposes the ledger over HTTP: transactions are posted
// through the same decoding rules as the batch stream and applied to one
// shared ledger, and account snapshots are served back as JSON. It also
// carries the graceful shutdown manager for the serving process.
package server
