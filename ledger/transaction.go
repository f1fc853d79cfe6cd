package ledger

import (
	"github.com/shopspring/decimal"
)

// ClientID identifies a client account. It is opaque: equality and map
// keying are the only operations performed on it.
type ClientID uint16

// TransactionID identifies a deposit or withdrawal within one input
// stream. Uniqueness per funded transaction is assumed upstream, not
// enforced here.
type TransactionID uint32

// Kind discriminates the five transaction kinds the Ledger handles.
//
// The set is closed: Ledger.Update dispatches with an exhaustive switch
// whose default arm rejects, so introducing a sixth kind forces a
// visible change at every dispatch site.
type Kind string

const (
	// KindDeposit credits a client's available funds.
	KindDeposit Kind = "deposit"
	// KindWithdrawal debits a client's available funds.
	KindWithdrawal Kind = "withdrawal"
	// KindDispute moves a prior deposit's amount from available to held.
	KindDispute Kind = "dispute"
	// KindResolve returns a disputed amount from held to available.
	KindResolve Kind = "resolve"
	// KindChargeback reverses a disputed deposit and locks the account.
	KindChargeback Kind = "chargeback"
)

// Transaction is one event from the input stream.
//
// Amount is meaningful only for deposits and withdrawals. The dispute
// lifecycle kinds reference a prior deposit by transaction id; their
// amounts are resolved from the Ledger's deposit registry, never taken
// from the event. Use the per-kind constructors so the shape rules hold
// by construction.
type Transaction struct {
	Kind   Kind
	Client ClientID
	Tx     TransactionID
	Amount decimal.Decimal
}

// NewDeposit builds a deposit of amount for client under transaction id tx.
func NewDeposit(client ClientID, tx TransactionID, amount decimal.Decimal) Transaction {
	return Transaction{Kind: KindDeposit, Client: client, Tx: tx, Amount: amount}
}

// NewWithdrawal builds a withdrawal of amount for client under transaction id tx.
func NewWithdrawal(client ClientID, tx TransactionID, amount decimal.Decimal) Transaction {
	return Transaction{Kind: KindWithdrawal, Client: client, Tx: tx, Amount: amount}
}

// NewDispute builds a dispute referencing client's deposit tx.
func NewDispute(client ClientID, tx TransactionID) Transaction {
	return Transaction{Kind: KindDispute, Client: client, Tx: tx}
}

// NewResolve builds a resolve closing the open dispute on client's deposit tx.
func NewResolve(client ClientID, tx TransactionID) Transaction {
	return Transaction{Kind: KindResolve, Client: client, Tx: tx}
}

// NewChargeback builds a chargeback closing the open dispute on client's
// deposit tx by reversal.
func NewChargeback(client ClientID, tx TransactionID) Transaction {
	return Transaction{Kind: KindChargeback, Client: client, Tx: tx}
}
