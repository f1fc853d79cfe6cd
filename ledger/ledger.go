package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// snapshotPlaces is the decimal scale applied once, at the output
// boundary. Internal arithmetic is never rounded.
const snapshotPlaces int32 = 4

// depositKey identifies a deposit by (client, transaction id) jointly,
// so equal transaction ids under different clients never collide.
type depositKey struct {
	client ClientID
	tx     TransactionID
}

// Ledger owns every account plus the two registries that give disputes
// their meaning: the permanent record of deposit amounts and the set of
// currently open disputes.
//
// A Ledger is an explicit, caller-owned object; independent instances
// share nothing. It is not safe for concurrent use: callers feed it one
// transaction at a time, and results are a deterministic function of the
// transaction order.
type Ledger struct {
	accounts map[ClientID]Account
	deposits map[depositKey]decimal.Decimal
	disputes map[depositKey]struct{}
}

// New creates an empty Ledger.
func New() *Ledger {
	return &Ledger{
		accounts: make(map[ClientID]Account),
		deposits: make(map[depositKey]decimal.Decimal),
		disputes: make(map[depositKey]struct{}),
	}
}

// Update applies one transaction. Rejections come back as a
// TransactionError value and leave the Ledger exactly as it was; the
// caller logs and moves on to the next record.
func (l *Ledger) Update(tx Transaction) error {
	switch tx.Kind {
	case KindDeposit:
		return l.deposit(tx)
	case KindWithdrawal:
		return l.withdraw(tx)
	case KindDispute:
		return l.dispute(tx)
	case KindResolve:
		return l.resolve(tx)
	case KindChargeback:
		return l.chargeback(tx)
	default:
		return fmt.Errorf("unsupported transaction kind %q", tx.Kind)
	}
}

// deposit is the only path that creates an account. The deposit registry
// entry is recorded after the account accepts the credit, so a locked
// account never grows new disputable deposits.
func (l *Ledger) deposit(tx Transaction) error {
	acct, ok := l.accounts[tx.Client]
	if !ok {
		acct = NewAccount(tx.Client)
	}

	updated, err := acct.Deposit(tx.Amount)
	if err != nil {
		return err
	}

	l.accounts[tx.Client] = updated
	l.deposits[depositKey{client: tx.Client, tx: tx.Tx}] = tx.Amount

	return nil
}

func (l *Ledger) withdraw(tx Transaction) error {
	acct, ok := l.accounts[tx.Client]
	if !ok {
		return errClientDoesNotExist(tx.Client)
	}

	updated, err := acct.Withdraw(tx.Amount)
	if err != nil {
		return err
	}

	l.accounts[tx.Client] = updated

	return nil
}

// dispute requires a recorded deposit under (client, tx). Withdrawals
// never enter the deposit registry, so a withdrawal's transaction id can
// never be disputed.
func (l *Ledger) dispute(tx Transaction) error {
	key := depositKey{client: tx.Client, tx: tx.Tx}

	amount, ok := l.deposits[key]
	if !ok {
		return errDisputeFailed(tx.Client, tx.Tx)
	}

	acct, ok := l.accounts[tx.Client]
	if !ok {
		// A deposit record always implies an account; if the two ever
		// disagree, surface it as the client lookup failure.
		return errClientDoesNotExist(tx.Client)
	}

	updated, err := acct.Dispute(amount)
	if err != nil {
		return err
	}

	l.accounts[tx.Client] = updated
	l.disputes[key] = struct{}{}

	return nil
}

// resolve requires an open dispute on (client, tx). The dispute-set entry
// is removed only after the account accepts the release, so a rejection
// (for example on a locked account) leaves the dispute open.
func (l *Ledger) resolve(tx Transaction) error {
	key := depositKey{client: tx.Client, tx: tx.Tx}

	if _, open := l.disputes[key]; !open {
		return errResolveFailed(tx.Client, tx.Tx)
	}

	amount, ok := l.deposits[key]
	if !ok {
		return errResolveFailed(tx.Client, tx.Tx)
	}

	acct, ok := l.accounts[tx.Client]
	if !ok {
		return errClientDoesNotExist(tx.Client)
	}

	updated, err := acct.Resolve(amount)
	if err != nil {
		return err
	}

	l.accounts[tx.Client] = updated
	delete(l.disputes, key)

	return nil
}

// chargeback mirrors resolve but closes the dispute by reversal and
// leaves the account locked.
func (l *Ledger) chargeback(tx Transaction) error {
	key := depositKey{client: tx.Client, tx: tx.Tx}

	if _, open := l.disputes[key]; !open {
		return errChargebackFailed(tx.Client, tx.Tx)
	}

	amount, ok := l.deposits[key]
	if !ok {
		return errChargebackFailed(tx.Client, tx.Tx)
	}

	acct, ok := l.accounts[tx.Client]
	if !ok {
		return errClientDoesNotExist(tx.Client)
	}

	updated, err := acct.Chargeback(amount)
	if err != nil {
		return err
	}

	l.accounts[tx.Client] = updated
	delete(l.disputes, key)

	return nil
}

// AccountSnapshot is the output projection of one account: balances
// rounded to four decimal places (banker's rounding, matching the
// upstream settlement convention) plus the computed total.
type AccountSnapshot struct {
	Client    ClientID        `json:"client"`
	Available decimal.Decimal `json:"available"`
	Held      decimal.Decimal `json:"held"`
	Total     decimal.Decimal `json:"total"`
	Locked    bool            `json:"locked"`
}

func newAccountSnapshot(a Account) AccountSnapshot {
	return AccountSnapshot{
		Client:    a.Client,
		Available: a.Available.RoundBank(snapshotPlaces),
		Held:      a.Held.RoundBank(snapshotPlaces),
		Total:     a.Total().RoundBank(snapshotPlaces),
		Locked:    a.Locked,
	}
}

// Snapshot projects every known account for output. Row order follows
// the account map's iteration order and is deliberately unspecified;
// consumers must tolerate any permutation.
func (l *Ledger) Snapshot() []AccountSnapshot {
	out := make([]AccountSnapshot, 0, len(l.accounts))

	for _, acct := range l.accounts {
		out = append(out, newAccountSnapshot(acct))
	}

	return out
}

// Account projects a single client's account, reporting whether the
// client is known.
func (l *Ledger) Account(client ClientID) (AccountSnapshot, bool) {
	acct, ok := l.accounts[client]
	if !ok {
		return AccountSnapshot{}, false
	}

	return newAccountSnapshot(acct), true
}
