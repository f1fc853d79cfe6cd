package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	paymentsengine "github.com/jim-og/payments-engine"
	"github.com/jim-og/payments-engine/engine"
	"github.com/jim-og/payments-engine/ledger"
	"github.com/jim-og/payments-engine/log"
	"github.com/jim-og/payments-engine/pointers"
	"github.com/jim-og/payments-engine/stream"
)

// TransactionRequest is the JSON body for POST /v1/transactions. Amount
// is a string to keep exact decimal semantics on the wire; it must be
// present for deposits and withdrawals and absent for the dispute
// lifecycle kinds.
type TransactionRequest struct {
	Type   string  `json:"type"`
	Client uint16  `json:"client"`
	Tx     uint32  `json:"tx"`
	Amount *string `json:"amount,omitempty"`
}

// Server serves one ledger over HTTP. Every ledger access goes through
// one mutex, so the batch pipeline's single-writer semantics carry over
// unchanged.
type Server struct {
	app     *fiber.App
	logger  log.Logger
	version string

	mu   sync.Mutex
	book *ledger.Ledger
}

// New assembles the fiber application with its routes and middleware.
func New(logger log.Logger) *Server {
	if logger == nil {
		logger = log.NewNop()
	}

	s := &Server{
		logger:  logger,
		version: paymentsengine.GetenvOrDefault("VERSION", "unknown"),
		book:    ledger.New(),
	}

	app := fiber.New(fiber.Config{
		AppName:               "payments-engine",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	app.Use(recover.New())
	app.Use(WithHTTPLogging(logger))

	app.Post("/v1/transactions", s.createTransaction)
	app.Get("/v1/accounts", s.listAccounts)
	app.Get("/v1/accounts/:client", s.getAccount)
	app.Get("/health", s.health)
	app.Get("/version", s.getVersion)

	s.app = app

	return s
}

// App exposes the underlying fiber application for serving and tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Seed replays a batch transaction stream into the server's ledger,
// typically at startup before the listener opens. Per-record failures
// are logged and skipped exactly as in a batch run.
func (s *Server) Seed(ctx context.Context, input io.Reader) (engine.Stats, error) {
	seedLogger := s.logger.With(log.String("run_id", uuid.Must(uuid.NewV7()).String()))

	s.mu.Lock()
	defer s.mu.Unlock()

	stats, err := engine.Apply(ctx, s.book, input, seedLogger)
	if err != nil {
		return stats, fmt.Errorf("seeding ledger: %w", err)
	}

	seedLogger.Log(ctx, log.LevelInfo, "seed complete",
		log.Int("applied", stats.Applied),
		log.Int("decode_failures", stats.DecodeFailures),
		log.Int("transaction_failures", stats.TransactionFailures))

	return stats, nil
}

func (s *Server) createTransaction(c *fiber.Ctx) error {
	var req TransactionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid_payload", "Invalid Payload", "the request body is not a valid transaction")
	}

	tx, err := stream.Assemble(req.Type, req.Client, req.Tx, pointers.From(req.Amount))
	if err != nil {
		var parseErr stream.ParseError
		if errors.As(err, &parseErr) {
			return badRequest(c, string(parseErr.Code), "Invalid Transaction", parseErr.Message)
		}

		return badRequest(c, "invalid_payload", "Invalid Payload", err.Error())
	}

	snapshot, err := s.apply(tx)
	if err != nil {
		log.FromContext(c.UserContext()).Log(c.UserContext(), log.LevelWarn, "transaction rejected",
			log.String("kind", string(tx.Kind)),
			log.Uint("client", uint64(tx.Client)),
			log.Uint("tx", uint64(tx.Tx)),
			log.Err(err))

		return renderTransactionError(c, err)
	}

	log.FromContext(c.UserContext()).Log(c.UserContext(), log.LevelInfo, "transaction applied",
		log.String("kind", string(tx.Kind)),
		log.Uint("client", uint64(tx.Client)),
		log.Uint("tx", uint64(tx.Tx)))

	return c.Status(fiber.StatusCreated).JSON(snapshot)
}

// apply runs one transaction under the server mutex and returns the
// resulting snapshot of the touched account.
func (s *Server) apply(tx ledger.Transaction) (ledger.AccountSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.book.Update(tx); err != nil {
		return ledger.AccountSnapshot{}, err
	}

	// Update succeeded, so the account exists.
	snapshot, _ := s.book.Account(tx.Client)

	return snapshot, nil
}

func (s *Server) listAccounts(c *fiber.Ctx) error {
	s.mu.Lock()
	snapshots := s.book.Snapshot()
	s.mu.Unlock()

	return c.Status(fiber.StatusOK).JSON(snapshots)
}

func (s *Server) getAccount(c *fiber.Ctx) error {
	client, err := strconv.ParseUint(c.Params("client"), 10, 16)
	if err != nil {
		return badRequest(c, "invalid_client", "Invalid Client", "client must be an unsigned 16-bit integer")
	}

	s.mu.Lock()
	snapshot, ok := s.book.Account(ledger.ClientID(client))
	s.mu.Unlock()

	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(paymentsengine.Response{
			EntityType: "account",
			Code:       "account_not_found",
			Title:      "Account Not Found",
			Message:    "no account exists for the requested client",
		})
	}

	return c.Status(fiber.StatusOK).JSON(snapshot)
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.SendString("pong")
}

func (s *Server) getVersion(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"version": s.version})
}

// renderTransactionError maps a ledger rejection onto its business
// response and HTTP status.
func renderTransactionError(c *fiber.Ctx, err error) error {
	mapped := paymentsengine.ValidateBusinessError(err, "transaction")

	var response paymentsengine.Response
	if !errors.As(mapped, &response) {
		return internalServerError(c)
	}

	return c.Status(statusForCode(ledger.ErrorCode(response.Code))).JSON(response)
}

// statusForCode picks the HTTP status for a transaction error class:
// references to things that do not exist map to 404, a withdrawal the
// balance cannot cover to 422, and a locked account to 409.
func statusForCode(code ledger.ErrorCode) int {
	switch code {
	case ledger.ErrorClientDoesNotExist,
		ledger.ErrorDisputeFailed,
		ledger.ErrorResolveFailed,
		ledger.ErrorChargebackFailed:
		return fiber.StatusNotFound
	case ledger.ErrorWithdrawalInsufficientFunds:
		return fiber.StatusUnprocessableEntity
	case ledger.ErrorClientAccountLocked:
		return fiber.StatusConflict
	}

	return fiber.StatusInternalServerError
}

func badRequest(c *fiber.Ctx, code, title, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(paymentsengine.Response{
		Code:    code,
		Title:   title,
		Message: message,
	})
}

func internalServerError(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(paymentsengine.Response{
		Code:    "internal_error",
		Title:   "Internal Server Error",
		Message: "internal server error",
	})
}

// errorHandler renders errors that escape the handlers, fiber's own
// included, through the same Response contract.
func errorHandler(c *fiber.Ctx, err error) error {
	var response paymentsengine.Response
	if errors.As(err, &response) {
		return c.Status(statusForCode(ledger.ErrorCode(response.Code))).JSON(response)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(paymentsengine.Response{
			Code:    strconv.Itoa(fiberErr.Code),
			Title:   http.StatusText(fiberErr.Code),
			Message: fiberErr.Message,
		})
	}

	return internalServerError(c)
}
