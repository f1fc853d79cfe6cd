package stream

import (
	"bytes"
	"testing"

	"github.com/jim-og/payments-engine/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_WriteSnapshot(t *testing.T) {
	t.Parallel()

	snapshots := []ledger.AccountSnapshot{
		{Client: 1, Available: dec("1.6587"), Held: dec("4.7654"), Total: dec("6.4241"), Locked: false},
		{Client: 2, Available: dec("6.3625"), Held: dec("9.4532"), Total: dec("15.8157"), Locked: true},
	}

	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf).WriteSnapshot(snapshots))

	expected := "client,available,held,total,locked\n" +
		"1,1.6587,4.7654,6.4241,false\n" +
		"2,6.3625,9.4532,15.8157,true\n"
	assert.Equal(t, expected, buf.String())
}

func TestWriter_PadsToFourPlaces(t *testing.T) {
	t.Parallel()

	snapshots := []ledger.AccountSnapshot{
		{Client: 7, Available: dec("0"), Held: dec("1.2"), Total: dec("1.2"), Locked: false},
	}

	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf).WriteSnapshot(snapshots))

	assert.Equal(t, "client,available,held,total,locked\n7,0.0000,1.2000,1.2000,false\n", buf.String())
}

func TestWriter_NegativeAvailable(t *testing.T) {
	t.Parallel()

	// A disputed deposit that was already partly withdrawn leaves the
	// available balance below zero and the row must say so.
	snapshots := []ledger.AccountSnapshot{
		{Client: 1, Available: dec("-1.1864"), Held: dec("1.4567"), Total: dec("0.2703"), Locked: false},
	}

	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf).WriteSnapshot(snapshots))

	assert.Equal(t, "client,available,held,total,locked\n1,-1.1864,1.4567,0.2703,false\n", buf.String())
}

func TestWriter_NoAccounts(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf).WriteSnapshot(nil))

	assert.Equal(t, "client,available,held,total,locked\n", buf.String())
}
