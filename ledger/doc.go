// Package ledger implements the payments core: per-client accounts with
// available and held funds, the five transaction kinds that move money
// between them, and the Ledger orchestrator that resolves disputes
// against previously recorded deposits.
//
// The package is deliberately free of I/O and logging. Every operation
// either fully applies or fully no-ops, reporting rejection as a
// TransactionError value so the caller can log and keep processing.
// Arithmetic is exact (shopspring/decimal); rounding happens once, in
// the snapshot projection.
package ledger
