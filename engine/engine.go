package engine

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/jim-og/payments-engine/ledger"
	"github.com/jim-og/payments-engine/log"
	"github.com/jim-og/payments-engine/stream"
)

// Stats summarizes one run.
type Stats struct {
	// Applied counts transactions the ledger accepted.
	Applied int
	// DecodeFailures counts records that never became transactions.
	DecodeFailures int
	// TransactionFailures counts well-formed transactions the ledger
	// rejected.
	TransactionFailures int
}

// Apply streams every record from input into book. Bad records and
// rejected transactions are logged at warn level and skipped; the loop
// only stops early on an input failure or context cancellation, and the
// transactions applied before that point stay applied.
func Apply(ctx context.Context, book *ledger.Ledger, input io.Reader, logger log.Logger) (Stats, error) {
	if logger == nil {
		logger = log.NewNop()
	}

	var stats Stats

	reader := stream.NewReader(input)

	for {
		if err := ctx.Err(); err != nil {
			return stats, fmt.Errorf("reading transactions: %w", err)
		}

		tx, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return stats, nil
		}

		var parseErr stream.ParseError
		if errors.As(err, &parseErr) {
			stats.DecodeFailures++
			logger.Log(ctx, log.LevelWarn, "skipping undecodable record", log.Err(parseErr))

			continue
		}

		if err != nil {
			return stats, fmt.Errorf("reading transactions: %w", err)
		}

		if err := book.Update(tx); err != nil {
			stats.TransactionFailures++
			logger.Log(ctx, log.LevelWarn, "transaction rejected",
				log.String("kind", string(tx.Kind)),
				log.Uint("client", uint64(tx.Client)),
				log.Uint("tx", uint64(tx.Tx)),
				log.Err(err))

			continue
		}

		stats.Applied++
	}
}

// Run decodes every record from input, applies it to a fresh ledger, and
// writes the final snapshot to output. A run always produces a snapshot
// for every client that got at least one transaction through; even when
// the input fails mid-stream the snapshot covers everything applied
// before the failure. The returned error is non-nil only for input or
// output failures and context cancellation.
func Run(ctx context.Context, input io.Reader, output io.Writer, logger log.Logger) (Stats, error) {
	if logger == nil {
		logger = log.NewNop()
	}

	logger = logger.With(log.String("run_id", uuid.Must(uuid.NewV7()).String()))

	book := ledger.New()

	stats, applyErr := Apply(ctx, book, input, logger)

	if err := stream.NewWriter(output).WriteSnapshot(book.Snapshot()); err != nil {
		return stats, fmt.Errorf("writing snapshot: %w", err)
	}

	logger.Log(ctx, log.LevelInfo, "run complete",
		log.Int("applied", stats.Applied),
		log.Int("decode_failures", stats.DecodeFailures),
		log.Int("transaction_failures", stats.TransactionFailures))

	return stats, applyErr
}
