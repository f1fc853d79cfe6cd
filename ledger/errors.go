package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrorCode is a closed code identifying why a transaction was rejected.
type ErrorCode string

const (
	// ErrorClientDoesNotExist indicates the transaction references a client
	// with no account. Only deposits create accounts.
	ErrorClientDoesNotExist ErrorCode = "client_does_not_exist"
	// ErrorWithdrawalInsufficientFunds indicates available funds do not
	// cover the requested withdrawal.
	ErrorWithdrawalInsufficientFunds ErrorCode = "withdrawal_insufficient_funds"
	// ErrorDisputeFailed indicates the disputed transaction id was never
	// recorded as a deposit for that client.
	ErrorDisputeFailed ErrorCode = "dispute_failed"
	// ErrorResolveFailed indicates the transaction id is not under open
	// dispute for that client.
	ErrorResolveFailed ErrorCode = "resolve_failed"
	// ErrorChargebackFailed indicates the transaction id is not under open
	// dispute for that client.
	ErrorChargebackFailed ErrorCode = "chargeback_failed"
	// ErrorClientAccountLocked indicates the account was locked by a prior
	// chargeback; locked accounts reject every operation.
	ErrorClientAccountLocked ErrorCode = "client_account_locked"
)

// TransactionError reports why the Ledger rejected one transaction. It is
// a per-record, recoverable failure: after a rejection the Ledger's state
// is exactly what it was before the transaction.
//
// Available and Requested are populated only for
// ErrorWithdrawalInsufficientFunds.
type TransactionError struct {
	Code      ErrorCode
	Client    ClientID
	Tx        TransactionID
	Available decimal.Decimal
	Requested decimal.Decimal
}

// Error returns the formatted rejection message.
func (e TransactionError) Error() string {
	switch e.Code {
	case ErrorClientDoesNotExist:
		return fmt.Sprintf("client %d does not exist, transaction failed", e.Client)
	case ErrorWithdrawalInsufficientFunds:
		return fmt.Sprintf("client %d has insufficient funds to withdraw %s (available %s)", e.Client, e.Requested, e.Available)
	case ErrorDisputeFailed:
		return fmt.Sprintf("failed to dispute transaction, transaction id %d does not exist for client %d", e.Tx, e.Client)
	case ErrorResolveFailed:
		return fmt.Sprintf("failed to resolve dispute, transaction id %d is not under dispute for client %d", e.Tx, e.Client)
	case ErrorChargebackFailed:
		return fmt.Sprintf("failed to chargeback dispute, transaction id %d is not under dispute for client %d", e.Tx, e.Client)
	case ErrorClientAccountLocked:
		return fmt.Sprintf("account has been locked for client %d, operation failed", e.Client)
	default:
		return fmt.Sprintf("%s: transaction rejected for client %d", e.Code, e.Client)
	}
}

// IsCode reports whether err is a TransactionError carrying code.
func IsCode(err error, code ErrorCode) bool {
	var te TransactionError

	return errors.As(err, &te) && te.Code == code
}

func errClientDoesNotExist(client ClientID) error {
	return TransactionError{Code: ErrorClientDoesNotExist, Client: client}
}

func errInsufficientFunds(client ClientID, available, requested decimal.Decimal) error {
	return TransactionError{
		Code:      ErrorWithdrawalInsufficientFunds,
		Client:    client,
		Available: available,
		Requested: requested,
	}
}

func errDisputeFailed(client ClientID, tx TransactionID) error {
	return TransactionError{Code: ErrorDisputeFailed, Client: client, Tx: tx}
}

func errResolveFailed(client ClientID, tx TransactionID) error {
	return TransactionError{Code: ErrorResolveFailed, Client: client, Tx: tx}
}

func errChargebackFailed(client ClientID, tx TransactionID) error {
	return TransactionError{Code: ErrorChargebackFailed, Client: client, Tx: tx}
}

func errAccountLocked(client ClientID) error {
	return TransactionError{Code: ErrorClientAccountLocked, Client: client}
}
