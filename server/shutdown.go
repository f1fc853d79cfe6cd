package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jim-og/payments-engine/log"
)

// ErrNoServersConfigured indicates no servers were configured for the manager
var ErrNoServersConfigured = errors.New("no servers configured: use WithHTTPServer()")

// ServerManager handles the lifecycle of the HTTP server: it starts the
// listener in the background, waits for a termination signal or a
// startup failure, and drains in-flight requests before exiting.
type ServerManager struct {
	httpServer         *fiber.App
	logger             log.Logger
	httpAddress        string
	serversStarted     chan struct{}
	serversStartedOnce sync.Once
	shutdownChan       <-chan struct{}
	shutdownOnce       sync.Once
	shutdownTimeout    time.Duration
	startupErrors      chan error
}

// NewServerManager creates a new instance of ServerManager. If logger is
// nil, a no-op logger is used to ensure nil-safe operation throughout
// the server lifecycle.
func NewServerManager(logger log.Logger) *ServerManager {
	if logger == nil {
		logger = log.NewNop()
	}

	return &ServerManager{
		logger:          logger,
		serversStarted:  make(chan struct{}),
		shutdownTimeout: 30 * time.Second,
		startupErrors:   make(chan error, 1),
	}
}

// WithHTTPServer configures the HTTP server for the ServerManager.
func (sm *ServerManager) WithHTTPServer(app *fiber.App, address string) *ServerManager {
	sm.httpServer = app
	sm.httpAddress = address

	return sm
}

// WithShutdownChannel configures a custom shutdown channel for the
// ServerManager. This allows tests to trigger shutdown deterministically
// instead of relying on OS signals.
func (sm *ServerManager) WithShutdownChannel(ch <-chan struct{}) *ServerManager {
	sm.shutdownChan = ch

	return sm
}

// WithShutdownTimeout configures the maximum duration to wait for
// in-flight requests to drain before the listener is forced closed.
// Defaults to 30 seconds.
func (sm *ServerManager) WithShutdownTimeout(d time.Duration) *ServerManager {
	sm.shutdownTimeout = d

	return sm
}

// ServersStarted returns a channel that is closed when the server
// goroutine has been launched. Note: this signals that the goroutine was
// spawned, not that the socket is bound and ready to accept connections.
func (sm *ServerManager) ServersStarted() <-chan struct{} {
	return sm.serversStarted
}

// StartWithGracefulShutdownWithError validates configuration and starts
// the server, then blocks until a shutdown signal is received, the
// shutdown channel is closed, or startup fails.
func (sm *ServerManager) StartWithGracefulShutdownWithError() error {
	if sm.httpServer == nil {
		return ErrNoServersConfigured
	}

	sm.startServers()
	sm.handleShutdown()

	return nil
}

func (sm *ServerManager) startServers() {
	go func() {
		sm.logInfof("Starting HTTP server on %s", sm.httpAddress)

		if err := sm.httpServer.Listen(sm.httpAddress); err != nil {
			sm.logErrorf("HTTP server error: %v", err)

			select {
			case sm.startupErrors <- fmt.Errorf("HTTP server: %w", err):
			default:
			}
		}
	}()

	sm.serversStartedOnce.Do(func() {
		close(sm.serversStarted)
	})
}

// handleShutdown waits for a termination signal, a closed shutdown
// channel, or a server startup error, then executes the shutdown
// sequence.
func (sm *ServerManager) handleShutdown() {
	if sm.shutdownChan != nil {
		select {
		case <-sm.shutdownChan:
		case err := <-sm.startupErrors:
			sm.logErrorf("Server startup failed: %v", err)
		}
	} else {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)

		select {
		case <-c:
			signal.Stop(c)
		case err := <-sm.startupErrors:
			sm.logErrorf("Server startup failed: %v", err)
		}
	}

	sm.logInfo("Gracefully shutting down all servers...")

	sm.executeShutdown()
}

// executeShutdown performs the actual shutdown operations. It is
// idempotent: multiple calls are safe, but only the first invocation
// executes the shutdown sequence.
func (sm *ServerManager) executeShutdown() {
	sm.shutdownOnce.Do(func() {
		if sm.httpServer != nil {
			sm.logInfo("Shutting down HTTP server...")

			if err := sm.httpServer.ShutdownWithTimeout(sm.shutdownTimeout); err != nil {
				sm.logErrorf("Error during HTTP server shutdown: %v", err)
			}
		}

		sm.logInfo("Syncing logger...")

		if err := sm.logger.Sync(context.Background()); err != nil {
			sm.logErrorf("Failed to sync logger: %v", err)
		}

		sm.logInfo("Graceful shutdown completed")
	})
}

func (sm *ServerManager) logInfo(msg string) {
	sm.logger.Log(context.Background(), log.LevelInfo, msg)
}

func (sm *ServerManager) logInfof(format string, args ...any) {
	sm.logger.Log(context.Background(), log.LevelInfo, fmt.Sprintf(format, args...))
}

func (sm *ServerManager) logErrorf(format string, args ...any) {
	sm.logger.Log(context.Background(), log.LevelError, fmt.Sprintf(format, args...))
}
