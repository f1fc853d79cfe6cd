package ledger

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Helper functions
// ---------------------------------------------------------------------------

// dec parses a decimal literal written next to the assertion that uses
// it; malformed literals are authoring mistakes and panic.
func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// assertAmount compares a decimal against its expected literal value.
// Comparison uses decimal equality, not representation equality, so
// 1.40 and 1.4 compare equal.
func assertAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()

	assert.True(t, got.Equal(dec(want)), "want %s, got %s", want, got)
}

// assertTransactionError extracts a TransactionError from err, verifies
// the error code, and returns it for additional assertions.
func assertTransactionError(t *testing.T, err error, expectedCode ErrorCode) TransactionError {
	t.Helper()

	require.Error(t, err)

	var txErr TransactionError
	require.True(t, errors.As(err, &txErr), "expected TransactionError, got %T: %v", err, err)
	assert.Equal(t, expectedCode, txErr.Code)

	return txErr
}

// seedLedger applies transactions that must all succeed.
func seedLedger(t *testing.T, l *Ledger, txs ...Transaction) {
	t.Helper()

	for _, tx := range txs {
		require.NoError(t, l.Update(tx))
	}
}

// ---------------------------------------------------------------------------
// Account transitions
// ---------------------------------------------------------------------------

func TestAccount_Deposit(t *testing.T) {
	t.Parallel()

	acct, err := NewAccount(1).Deposit(dec("1.4567"))

	require.NoError(t, err)
	assertAmount(t, "1.4567", acct.Available)
	assertAmount(t, "0", acct.Held)
	assertAmount(t, "1.4567", acct.Total())
	assert.False(t, acct.Locked)
}

func TestAccount_Withdraw(t *testing.T) {
	t.Parallel()

	acct, err := NewAccount(1).Deposit(dec("1.4567"))
	require.NoError(t, err)

	acct, err = acct.Withdraw(dec("1.1864"))

	require.NoError(t, err)
	assertAmount(t, "0.2703", acct.Available)
	assertAmount(t, "0.2703", acct.Total())
}

func TestAccount_Withdraw_InsufficientFunds(t *testing.T) {
	t.Parallel()

	acct, err := NewAccount(1).Deposit(dec("1.4567"))
	require.NoError(t, err)

	_, err = acct.Withdraw(dec("1.4568"))

	txErr := assertTransactionError(t, err, ErrorWithdrawalInsufficientFunds)
	assertAmount(t, "1.4567", txErr.Available)
	assertAmount(t, "1.4568", txErr.Requested)

	// The original value is untouched by the failed transition.
	assertAmount(t, "1.4567", acct.Available)
	assertAmount(t, "0", acct.Held)
}

func TestAccount_Withdraw_ExactBalance(t *testing.T) {
	t.Parallel()

	acct, err := NewAccount(1).Deposit(dec("1.4567"))
	require.NoError(t, err)

	acct, err = acct.Withdraw(dec("1.4567"))

	require.NoError(t, err)
	assertAmount(t, "0", acct.Available)
}

func TestAccount_Dispute(t *testing.T) {
	t.Parallel()

	acct, err := NewAccount(1).Deposit(dec("1.4567"))
	require.NoError(t, err)

	acct, err = acct.Dispute(dec("1.4567"))

	require.NoError(t, err)
	assertAmount(t, "0", acct.Available)
	assertAmount(t, "1.4567", acct.Held)
	assertAmount(t, "1.4567", acct.Total())
}

func TestAccount_Dispute_PartlySpentDeposit(t *testing.T) {
	t.Parallel()

	// Disputing more than is available is trusted upstream, not checked
	// here: available goes negative while total stays consistent.
	acct, err := NewAccount(1).Deposit(dec("1.4567"))
	require.NoError(t, err)

	acct, err = acct.Withdraw(dec("1.1864"))
	require.NoError(t, err)

	acct, err = acct.Dispute(dec("1.4567"))

	require.NoError(t, err)
	assertAmount(t, "-1.1864", acct.Available)
	assertAmount(t, "1.4567", acct.Held)
	assertAmount(t, "0.2703", acct.Total())
}

func TestAccount_Resolve(t *testing.T) {
	t.Parallel()

	acct, err := NewAccount(1).Deposit(dec("1.4567"))
	require.NoError(t, err)

	disputed, err := acct.Dispute(dec("1.4567"))
	require.NoError(t, err)

	resolved, err := disputed.Resolve(dec("1.4567"))

	require.NoError(t, err)
	assert.True(t, resolved.Available.Equal(acct.Available), "resolve must restore available exactly")
	assert.True(t, resolved.Held.Equal(acct.Held), "resolve must restore held exactly")
}

func TestAccount_Chargeback(t *testing.T) {
	t.Parallel()

	acct, err := NewAccount(1).Deposit(dec("1.4567"))
	require.NoError(t, err)

	acct, err = acct.Dispute(dec("1.4567"))
	require.NoError(t, err)

	acct, err = acct.Chargeback(dec("1.4567"))

	require.NoError(t, err)
	assertAmount(t, "0", acct.Available)
	assertAmount(t, "0", acct.Held)
	assertAmount(t, "0", acct.Total())
	assert.True(t, acct.Locked)
}

func TestAccount_Locked_RejectsEveryOperation(t *testing.T) {
	t.Parallel()

	locked := Account{
		Client:    1,
		Available: dec("2.5"),
		Held:      dec("0.5"),
		Locked:    true,
	}

	operations := []struct {
		name  string
		apply func() (Account, error)
	}{
		{name: "deposit", apply: func() (Account, error) { return locked.Deposit(dec("1")) }},
		{name: "withdraw", apply: func() (Account, error) { return locked.Withdraw(dec("1")) }},
		{name: "dispute", apply: func() (Account, error) { return locked.Dispute(dec("1")) }},
		{name: "resolve", apply: func() (Account, error) { return locked.Resolve(dec("1")) }},
		{name: "chargeback", apply: func() (Account, error) { return locked.Chargeback(dec("1")) }},
	}

	for _, op := range operations {
		op := op

		t.Run(op.name, func(t *testing.T) {
			t.Parallel()

			_, err := op.apply()
			assertTransactionError(t, err, ErrorClientAccountLocked)
		})
	}

	// The source value is still exactly what it was.
	assertAmount(t, "2.5", locked.Available)
	assertAmount(t, "0.5", locked.Held)
	assert.True(t, locked.Locked)
}

func TestAccount_TotalInvariant(t *testing.T) {
	t.Parallel()

	acct := NewAccount(7)

	steps := []func(Account) (Account, error){
		func(a Account) (Account, error) { return a.Deposit(dec("10.0001")) },
		func(a Account) (Account, error) { return a.Deposit(dec("0.9999")) },
		func(a Account) (Account, error) { return a.Withdraw(dec("3.25")) },
		func(a Account) (Account, error) { return a.Dispute(dec("10.0001")) },
		func(a Account) (Account, error) { return a.Resolve(dec("10.0001")) },
	}

	for _, step := range steps {
		next, err := step(acct)
		require.NoError(t, err)

		assert.True(t, next.Total().Equal(next.Available.Add(next.Held)))
		acct = next
	}

	assertAmount(t, "7.75", acct.Total())
}
