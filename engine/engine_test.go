package engine

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"testing/iotest"

	"github.com/jim-og/payments-engine/ledger"
	"github.com/jim-og/payments-engine/log"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Helper functions
// ---------------------------------------------------------------------------

// recordingLogger captures events and bound fields for assertions.
type recordingLogger struct {
	mu      sync.Mutex
	bound   []log.Field
	entries []recordedEntry
}

type recordedEntry struct {
	level log.Level
	msg   string
}

func (l *recordingLogger) Log(_ context.Context, level log.Level, msg string, _ ...log.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, recordedEntry{level: level, msg: msg})
}

func (l *recordingLogger) With(fields ...log.Field) log.Logger {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.bound = append(l.bound, fields...)

	return l
}

func (l *recordingLogger) WithGroup(_ string) log.Logger { return l }
func (l *recordingLogger) Enabled(_ log.Level) bool      { return true }
func (l *recordingLogger) Sync(_ context.Context) error  { return nil }

func (l *recordingLogger) messages(level log.Level) []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	var msgs []string

	for _, e := range l.entries {
		if e.level == level {
			msgs = append(msgs, e.msg)
		}
	}

	return msgs
}

func (l *recordingLogger) boundValue(key string) (any, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, f := range l.bound {
		if f.Key == key {
			return f.Value, true
		}
	}

	return nil, false
}

// dataRows strips the header off the snapshot output and returns the
// remaining rows for order-independent comparison.
func dataRows(t *testing.T, out string) []string {
	t.Helper()

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.NotEmpty(t, lines)
	require.Equal(t, "client,available,held,total,locked", lines[0])

	return lines[1:]
}

func transactionsCSV(rows ...string) io.Reader {
	return strings.NewReader("type, client, tx, amount\n" + strings.Join(rows, "\n") + "\n")
}

// ---------------------------------------------------------------------------
// Run
// ---------------------------------------------------------------------------

func TestRun_EndToEnd(t *testing.T) {
	t.Parallel()

	input := transactionsCSV(
		"deposit, 1, 1, 0.2436",
		"deposit, 1, 2, 0.3965",
		"deposit, 1, 3, 0.0027",
		"withdrawal, 1, 4, 0.1374",
		"dispute, 1, 1,",
		"deposit, 2, 5, 0.8263",
		"deposit, 2, 6, 1.2749",
		"withdrawal, 2, 7, 0.0537",
		"dispute, 2, 5,",
		"chargeback, 2, 5,",
	)

	var out bytes.Buffer

	stats, err := Run(context.Background(), input, &out, log.NewNop())

	require.NoError(t, err)
	assert.Equal(t, Stats{Applied: 10}, stats)

	// Row order mirrors map iteration and is deliberately unspecified.
	assert.ElementsMatch(t, []string{
		"1,0.2618,0.2436,0.5054,false",
		"2,1.2212,0.0000,1.2212,true",
	}, dataRows(t, out.String()))
}

func TestRun_SkipsBadRecordsAndRejectedTransactions(t *testing.T) {
	t.Parallel()

	input := transactionsCSV(
		"deposit, 1, 1, 5.0",
		"transfer, 1, 2, 5.0",
		"withdrawal, 1, 3, 9.99",
		"dispute, 1, 42,",
		"withdrawal, 1, 4, 1.5",
	)

	logger := &recordingLogger{}

	var out bytes.Buffer

	stats, err := Run(context.Background(), input, &out, logger)

	require.NoError(t, err)
	assert.Equal(t, Stats{Applied: 2, DecodeFailures: 1, TransactionFailures: 2}, stats)

	warns := logger.messages(log.LevelWarn)
	assert.Equal(t, []string{
		"skipping undecodable record",
		"transaction rejected",
		"transaction rejected",
	}, warns)

	assert.Equal(t, []string{"1,3.5000,0.0000,3.5000,false"}, dataRows(t, out.String()))
}

func TestRun_AttachesRunID(t *testing.T) {
	t.Parallel()

	logger := &recordingLogger{}

	var out bytes.Buffer

	_, err := Run(context.Background(), transactionsCSV("deposit, 1, 1, 1.0"), &out, logger)
	require.NoError(t, err)

	runID, ok := logger.boundValue("run_id")
	require.True(t, ok, "every run binds a run_id")
	assert.NotEmpty(t, runID)

	infos := logger.messages(log.LevelInfo)
	assert.Equal(t, []string{"run complete"}, infos)
}

func TestApply_UsesCallerLedger(t *testing.T) {
	t.Parallel()

	book := ledger.New()

	stats, err := Apply(context.Background(), book, transactionsCSV(
		"deposit, 7, 1, 2.5",
		"withdrawal, 7, 2, 1.0",
	), log.NewNop())

	require.NoError(t, err)
	assert.Equal(t, Stats{Applied: 2}, stats)

	snapshot, ok := book.Account(7)
	require.True(t, ok)
	assert.True(t, snapshot.Available.Equal(decimal.RequireFromString("1.5")))

	// A second pass layers onto the same state.
	stats, err = Apply(context.Background(), book, transactionsCSV("deposit, 7, 3, 0.5"), log.NewNop())

	require.NoError(t, err)
	assert.Equal(t, Stats{Applied: 1}, stats)

	snapshot, ok = book.Account(7)
	require.True(t, ok)
	assert.True(t, snapshot.Available.Equal(decimal.RequireFromString("2.0")))
}

func TestRun_EmptyInput(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	stats, err := Run(context.Background(), strings.NewReader(""), &out, log.NewNop())

	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)
	assert.Empty(t, dataRows(t, out.String()))
}

func TestRun_NilLogger(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	assert.NotPanics(t, func() {
		stats, err := Run(context.Background(), transactionsCSV("deposit, 1, 1, 1.0"), &out, nil)

		require.NoError(t, err)
		assert.Equal(t, Stats{Applied: 1}, stats)
	})
}

func TestRun_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer

	stats, err := Run(ctx, transactionsCSV("deposit, 1, 1, 1.0"), &out, log.NewNop())

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, Stats{}, stats)

	// The snapshot is still produced for whatever had been applied.
	assert.Empty(t, dataRows(t, out.String()))
}

func TestRun_InputFailureKeepsPartialSnapshot(t *testing.T) {
	t.Parallel()

	brokenPipe := errors.New("broken pipe")
	input := io.MultiReader(
		strings.NewReader("type, client, tx, amount\ndeposit, 1, 1, 1.0\n"),
		iotest.ErrReader(brokenPipe),
	)

	var out bytes.Buffer

	stats, err := Run(context.Background(), input, &out, log.NewNop())

	require.ErrorIs(t, err, brokenPipe)
	assert.Equal(t, Stats{Applied: 1}, stats)
	assert.Equal(t, []string{"1,1.0000,0.0000,1.0000,false"}, dataRows(t, out.String()))
}
