package stream

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/jim-og/payments-engine/ledger"
)

// outputPlaces is the rendered decimal width. Snapshot values arrive
// already rounded to this scale, so rendering only pads.
const outputPlaces = 4

// Writer encodes final account snapshots to the output CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer over w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteSnapshot writes the header and one row per account, in the order
// given. Numeric fields carry exactly four digits after the decimal
// point; locked renders as the literal true or false.
func (w *Writer) WriteSnapshot(snapshots []ledger.AccountSnapshot) error {
	if err := w.csv.Write([]string{"client", "available", "held", "total", "locked"}); err != nil {
		return fmt.Errorf("writing snapshot header: %w", err)
	}

	for _, snapshot := range snapshots {
		record := []string{
			strconv.FormatUint(uint64(snapshot.Client), 10),
			snapshot.Available.StringFixed(outputPlaces),
			snapshot.Held.StringFixed(outputPlaces),
			snapshot.Total.StringFixed(outputPlaces),
			strconv.FormatBool(snapshot.Locked),
		}

		if err := w.csv.Write(record); err != nil {
			return fmt.Errorf("writing snapshot row for client %d: %w", snapshot.Client, err)
		}
	}

	w.csv.Flush()

	return w.csv.Error()
}
