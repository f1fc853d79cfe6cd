package stream

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jim-og/payments-engine/ledger"
	"github.com/shopspring/decimal"
)

// ErrorCode is a closed code identifying why a record failed to decode.
type ErrorCode string

const (
	// ErrorMissingAmount indicates a deposit or withdrawal without an amount.
	ErrorMissingAmount ErrorCode = "missing_amount"
	// ErrorUnexpectedAmount indicates a dispute, resolve, or chargeback
	// carrying an amount.
	ErrorUnexpectedAmount ErrorCode = "unexpected_amount"
	// ErrorUnknownKind indicates an unrecognized transaction type tag.
	ErrorUnknownKind ErrorCode = "unknown_kind"
	// ErrorInvalidClient indicates a client field that is not a 16-bit
	// unsigned integer.
	ErrorInvalidClient ErrorCode = "invalid_client"
	// ErrorInvalidTransaction indicates a tx field that is not a 32-bit
	// unsigned integer.
	ErrorInvalidTransaction ErrorCode = "invalid_transaction"
	// ErrorInvalidAmount indicates an amount field that is not a decimal.
	ErrorInvalidAmount ErrorCode = "invalid_amount"
	// ErrorMalformedRecord indicates a structurally broken record: wrong
	// field count or a CSV-level failure.
	ErrorMalformedRecord ErrorCode = "malformed_record"
)

// ParseError reports one undecodable record. It is recoverable: the
// Reader that produced it keeps going, and Record says which 1-based
// data record (header excluded) failed. Record is zero when the error
// came from Assemble outside a CSV stream.
type ParseError struct {
	Code    ErrorCode
	Record  int
	Message string
	Err     error
}

// Error returns the formatted decode failure.
func (e ParseError) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}

	if e.Record > 0 {
		return fmt.Sprintf("record %d: %s", e.Record, msg)
	}

	return msg
}

// Unwrap exposes the underlying cause, if any.
func (e ParseError) Unwrap() error {
	return e.Err
}

// IsCode reports whether err is a ParseError carrying code.
func IsCode(err error, code ErrorCode) bool {
	var pe ParseError

	return errors.As(err, &pe) && pe.Code == code
}

// Assemble converts raw transaction fields into a typed transaction. The
// kind tag is matched case-insensitively after trimming; deposits and
// withdrawals require a non-empty amount, the dispute lifecycle kinds
// must not carry one. Both transports (CSV and HTTP) decode through
// here so the rules cannot drift apart.
func Assemble(kind string, client uint16, tx uint32, amount string) (ledger.Transaction, error) {
	clientID := ledger.ClientID(client)
	txID := ledger.TransactionID(tx)

	switch ledger.Kind(strings.ToLower(strings.TrimSpace(kind))) {
	case ledger.KindDeposit:
		value, err := requireAmount(ledger.KindDeposit, amount)
		if err != nil {
			return ledger.Transaction{}, err
		}

		return ledger.NewDeposit(clientID, txID, value), nil
	case ledger.KindWithdrawal:
		value, err := requireAmount(ledger.KindWithdrawal, amount)
		if err != nil {
			return ledger.Transaction{}, err
		}

		return ledger.NewWithdrawal(clientID, txID, value), nil
	case ledger.KindDispute:
		if err := forbidAmount(ledger.KindDispute, amount); err != nil {
			return ledger.Transaction{}, err
		}

		return ledger.NewDispute(clientID, txID), nil
	case ledger.KindResolve:
		if err := forbidAmount(ledger.KindResolve, amount); err != nil {
			return ledger.Transaction{}, err
		}

		return ledger.NewResolve(clientID, txID), nil
	case ledger.KindChargeback:
		if err := forbidAmount(ledger.KindChargeback, amount); err != nil {
			return ledger.Transaction{}, err
		}

		return ledger.NewChargeback(clientID, txID), nil
	default:
		return ledger.Transaction{}, ParseError{
			Code:    ErrorUnknownKind,
			Message: fmt.Sprintf("unknown transaction type %q", kind),
		}
	}
}

func requireAmount(kind ledger.Kind, amount string) (decimal.Decimal, error) {
	if amount == "" {
		return decimal.Decimal{}, ParseError{
			Code:    ErrorMissingAmount,
			Message: fmt.Sprintf("%s is missing an amount", kind),
		}
	}

	value, err := decimal.NewFromString(amount)
	if err != nil {
		return decimal.Decimal{}, ParseError{
			Code:    ErrorInvalidAmount,
			Message: fmt.Sprintf("invalid amount %q", amount),
			Err:     err,
		}
	}

	return value, nil
}

func forbidAmount(kind ledger.Kind, amount string) error {
	if amount != "" {
		return ParseError{
			Code:    ErrorUnexpectedAmount,
			Message: fmt.Sprintf("%s contains unexpected amount", kind),
		}
	}

	return nil
}

// Reader decodes the transaction CSV: a header row, then one record per
// transaction in `type, client, tx, amount` order. Records may carry
// three or four fields; every field is trimmed before interpretation.
type Reader struct {
	csv        *csv.Reader
	headerRead bool
	record     int
}

// NewReader creates a Reader over r. The header row is consumed by the
// first Read call, matching the upstream format which always carries one.
func NewReader(r io.Reader) *Reader {
	cr := csv.NewReader(r)
	// Rows legitimately vary between three and four fields; width is
	// validated per record in decode instead.
	cr.FieldsPerRecord = -1

	return &Reader{csv: cr}
}

// Read returns the next validated transaction. io.EOF cleanly terminates
// the stream. A record-level problem comes back as a ParseError and the
// Reader stays usable, the next call moving past the bad record; a
// failure of the underlying reader surfaces as a plain error and means
// the stream is dead.
func (r *Reader) Read() (ledger.Transaction, error) {
	if !r.headerRead {
		r.headerRead = true

		if _, err := r.csv.Read(); err != nil {
			if errors.Is(err, io.EOF) {
				return ledger.Transaction{}, io.EOF
			}

			var csvErr *csv.ParseError
			if errors.As(err, &csvErr) {
				return ledger.Transaction{}, ParseError{
					Code:    ErrorMalformedRecord,
					Message: "reading header",
					Err:     err,
				}
			}

			return ledger.Transaction{}, fmt.Errorf("reading header: %w", err)
		}
	}

	record, err := r.csv.Read()
	if errors.Is(err, io.EOF) {
		return ledger.Transaction{}, io.EOF
	}

	r.record++

	if err != nil {
		// Record-level CSV problems are recoverable; an underlying read
		// failure is not and surfaces as-is so callers stop the stream.
		var csvErr *csv.ParseError
		if errors.As(err, &csvErr) {
			return ledger.Transaction{}, ParseError{
				Code:    ErrorMalformedRecord,
				Record:  r.record,
				Message: "reading record",
				Err:     err,
			}
		}

		return ledger.Transaction{}, fmt.Errorf("reading record %d: %w", r.record, err)
	}

	return r.decode(record)
}

func (r *Reader) decode(record []string) (ledger.Transaction, error) {
	fields := make([]string, len(record))
	for i, field := range record {
		fields[i] = strings.TrimSpace(field)
	}

	if len(fields) < 3 || len(fields) > 4 {
		return ledger.Transaction{}, ParseError{
			Code:    ErrorMalformedRecord,
			Record:  r.record,
			Message: fmt.Sprintf("expected 3 or 4 fields, got %d", len(fields)),
		}
	}

	client, err := strconv.ParseUint(fields[1], 10, 16)
	if err != nil {
		return ledger.Transaction{}, ParseError{
			Code:    ErrorInvalidClient,
			Record:  r.record,
			Message: fmt.Sprintf("invalid client %q", fields[1]),
			Err:     err,
		}
	}

	tx, err := strconv.ParseUint(fields[2], 10, 32)
	if err != nil {
		return ledger.Transaction{}, ParseError{
			Code:    ErrorInvalidTransaction,
			Record:  r.record,
			Message: fmt.Sprintf("invalid transaction id %q", fields[2]),
			Err:     err,
		}
	}

	amount := ""
	if len(fields) == 4 {
		amount = fields[3]
	}

	tr, err := Assemble(fields[0], uint16(client), uint32(tx), amount)
	if err != nil {
		var pe ParseError
		if errors.As(err, &pe) {
			pe.Record = r.record
			return ledger.Transaction{}, pe
		}

		return ledger.Transaction{}, err
	}

	return tr, nil
}
