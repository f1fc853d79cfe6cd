// Package engine drives the batch pipeline: it streams transactions from
// an input into a fresh ledger and writes the closing account snapshot to
// an output. Records that fail to decode and transactions the ledger
// rejects are logged and skipped; the run only aborts on input, output,
// or context failure.
package engine
