package server

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jim-og/payments-engine/log"
)

// HeaderRequestID carries the request correlation id. Requests arriving
// without a valid UUID in it get one assigned.
const HeaderRequestID = "X-Request-Id"

// WithHTTPLogging is a middleware to log access to the HTTP server. It
// stamps the request id on both request and response, binds a
// request-scoped logger into the user context, and emits one access
// event per request. /health is exempt.
func WithHTTPLogging(logger log.Logger) fiber.Handler {
	if logger == nil {
		logger = log.NewNop()
	}

	return func(c *fiber.Ctx) error {
		if c.Path() == "/health" {
			return c.Next()
		}

		requestID := c.Get(HeaderRequestID)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString()
		}

		c.Request().Header.Set(HeaderRequestID, requestID)
		c.Set(HeaderRequestID, requestID)

		requestLogger := logger.With(log.String("request_id", requestID))
		c.SetUserContext(log.ContextWithLogger(c.UserContext(), requestLogger))

		start := time.Now().UTC()

		err := c.Next()

		requestLogger.Log(c.UserContext(), log.LevelInfo, "http request",
			log.String("method", c.Method()),
			log.String("path", c.Path()),
			log.Int("status", c.Response().StatusCode()),
			log.String("ip", c.IP()),
			log.String("duration", time.Since(start).String()),
			log.Int("size", len(c.Response().Body())))

		return err
	}
}
