// Package stream is the textual boundary of the payments engine: it
// decodes the transaction CSV into typed ledger transactions and encodes
// final account snapshots back to CSV.
//
// Decode failures are per-record ParseError values; the Reader stays
// usable after one, so a driving loop can log the record and continue.
// The per-kind amount rules (deposits and withdrawals carry an amount,
// the dispute lifecycle kinds must not) are enforced here, in Assemble,
// which the HTTP transport shares, so the ledger never sees a malformed
// transaction.
package stream
