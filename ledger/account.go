package ledger

import (
	"github.com/shopspring/decimal"
)

// Account is the per-client balance state machine: available funds, held
// funds frozen under open disputes, and the terminal locked flag.
//
// Operations are value transitions: each returns the updated Account, or
// an error and the zero Account with nothing applied. Every operation
// first checks Locked; a locked account rejects all five kinds uniformly,
// including Resolve and Chargeback.
type Account struct {
	Client    ClientID        `json:"client"`
	Available decimal.Decimal `json:"available"`
	Held      decimal.Decimal `json:"held"`
	Locked    bool            `json:"locked"`
}

// NewAccount creates an empty, unlocked account for client.
func NewAccount(client ClientID) Account {
	return Account{Client: client, Available: decimal.Zero, Held: decimal.Zero}
}

// Total returns available + held. The equality total == available + held
// holds after every successful transition.
func (a Account) Total() decimal.Decimal {
	return a.Available.Add(a.Held)
}

// Deposit credits available funds. It fails only on a locked account.
func (a Account) Deposit(amount decimal.Decimal) (Account, error) {
	if a.Locked {
		return Account{}, errAccountLocked(a.Client)
	}

	a.Available = a.Available.Add(amount)

	return a, nil
}

// Withdraw debits available funds. It fails on a locked account or when
// available funds do not cover the amount, in both cases without touching
// the balances.
func (a Account) Withdraw(amount decimal.Decimal) (Account, error) {
	if a.Locked {
		return Account{}, errAccountLocked(a.Client)
	}

	if a.Available.LessThan(amount) {
		return Account{}, errInsufficientFunds(a.Client, a.Available, amount)
	}

	a.Available = a.Available.Sub(amount)

	return a, nil
}

// Dispute freezes amount: available decreases, held increases, total is
// unchanged. The caller is trusted to pass an amount that was actually
// deposited; disputing a partly spent deposit drives Available negative
// while Total stays consistent. That trust is an upstream contract, not
// a check performed here.
func (a Account) Dispute(amount decimal.Decimal) (Account, error) {
	if a.Locked {
		return Account{}, errAccountLocked(a.Client)
	}

	a.Available = a.Available.Sub(amount)
	a.Held = a.Held.Add(amount)

	return a, nil
}

// Resolve releases a disputed amount back to available funds, exactly
// undoing the corresponding Dispute. The same upstream trust applies to
// Held covering the amount.
func (a Account) Resolve(amount decimal.Decimal) (Account, error) {
	if a.Locked {
		return Account{}, errAccountLocked(a.Client)
	}

	a.Available = a.Available.Add(amount)
	a.Held = a.Held.Sub(amount)

	return a, nil
}

// Chargeback removes a disputed amount from held funds and locks the
// account. Locking is terminal: this is the only transition into the
// locked state and nothing transitions out of it.
func (a Account) Chargeback(amount decimal.Decimal) (Account, error) {
	if a.Locked {
		return Account{}, errAccountLocked(a.Client)
	}

	a.Held = a.Held.Sub(amount)
	a.Locked = true

	return a, nil
}
