package paymentsengine

import (
	"errors"

	"github.com/jim-og/payments-engine/ledger"
)

// Response represents a business error with code, title, and message.
type Response struct {
	EntityType string `json:"entityType,omitempty"`
	Title      string `json:"title,omitempty"`
	Message    string `json:"message,omitempty"`
	Code       string `json:"code,omitempty"`
	Err        error  `json:"err,omitempty"`
}

func (e Response) Error() string {
	return e.Message
}

// ValidateBusinessError translates a ledger transaction error into the
// business error shape served to clients. The underlying error's
// specifics stay in logs; the response carries a stable code, title, and
// message per error class. Errors that are not transaction errors pass
// through unchanged.
func ValidateBusinessError(err error, entityType string) error {
	var txErr ledger.TransactionError
	if !errors.As(err, &txErr) {
		return err
	}

	errorMap := map[ledger.ErrorCode]Response{
		ledger.ErrorClientDoesNotExist: {
			EntityType: entityType,
			Code:       string(ledger.ErrorClientDoesNotExist),
			Title:      "Client Not Found",
			Message:    "No account exists for the requested client. Only a deposit opens an account; please verify the client id and try again.",
		},
		ledger.ErrorWithdrawalInsufficientFunds: {
			EntityType: entityType,
			Code:       string(ledger.ErrorWithdrawalInsufficientFunds),
			Title:      "Insufficient Funds",
			Message:    "The withdrawal could not be completed due to insufficient available funds in the account. Please add sufficient funds to your account and try again.",
		},
		ledger.ErrorDisputeFailed: {
			EntityType: entityType,
			Code:       string(ledger.ErrorDisputeFailed),
			Title:      "Dispute Failed",
			Message:    "The referenced transaction does not exist as a deposit for this client, so it cannot be disputed. Please verify the transaction id and try again.",
		},
		ledger.ErrorResolveFailed: {
			EntityType: entityType,
			Code:       string(ledger.ErrorResolveFailed),
			Title:      "Resolve Failed",
			Message:    "The referenced transaction is not under dispute for this client, so it cannot be resolved. Please verify the transaction id and try again.",
		},
		ledger.ErrorChargebackFailed: {
			EntityType: entityType,
			Code:       string(ledger.ErrorChargebackFailed),
			Title:      "Chargeback Failed",
			Message:    "The referenced transaction is not under dispute for this client, so it cannot be charged back. Please verify the transaction id and try again.",
		},
		ledger.ErrorClientAccountLocked: {
			EntityType: entityType,
			Code:       string(ledger.ErrorClientAccountLocked),
			Title:      "Account Locked",
			Message:    "The account was locked by a chargeback and accepts no further transactions.",
		},
	}

	if mapped, found := errorMap[txErr.Code]; found {
		return mapped
	}

	return err
}
