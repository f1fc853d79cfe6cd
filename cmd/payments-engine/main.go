package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	paymentsengine "github.com/jim-og/payments-engine"
	"github.com/jim-og/payments-engine/engine"
	"github.com/jim-og/payments-engine/log"
	"github.com/jim-og/payments-engine/server"
	"github.com/jim-og/payments-engine/zap"
)

// config is the process configuration, filled from the environment on
// top of these defaults.
type config struct {
	EnvName                string `env:"ENV_NAME"`
	LogLevel               string `env:"LOG_LEVEL"`
	ServerAddress          string `env:"SERVER_ADDRESS"`
	ShutdownTimeoutSeconds int64  `env:"SHUTDOWN_TIMEOUT_SECONDS"`
}

func loadConfig() (config, error) {
	cfg := config{
		EnvName:                string(zap.EnvironmentLocal),
		ServerAddress:          ":3000",
		ShutdownTimeoutSeconds: 30,
	}

	if err := paymentsengine.SetConfigFromEnvVars(&cfg); err != nil {
		return config{}, fmt.Errorf("loading configuration: %w", err)
	}

	return cfg, nil
}

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), `Usage:
  payments-engine [flags] <transactions.csv>   process one batch, snapshot to stdout
  payments-engine -serve [seed.csv]            serve the ledger over HTTP

Flags:
`)
	flag.PrintDefaults()
}

func main() {
	serve := flag.Bool("serve", false, "serve the ledger over HTTP instead of running one batch")
	flag.Usage = usage
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, err := zap.New(zap.Config{
		Environment: zap.Environment(cfg.EnvName),
		Level:       cfg.LogLevel,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuring logger: %v\n", err)
		os.Exit(1)
	}

	if *serve {
		os.Exit(runServe(cfg, logger, flag.Args()))
	}

	os.Exit(runBatch(logger, flag.Args()))
}

// runBatch processes exactly one transaction file and writes the final
// snapshot to stdout. Diagnostics go to stderr so the snapshot stays
// machine-readable.
func runBatch(logger log.Logger, args []string) int {
	ctx := context.Background()
	defer func() { _ = logger.Sync(ctx) }()

	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "expected exactly one transactions file")
		flag.Usage()

		return 2
	}

	input, err := os.Open(args[0])
	if err != nil {
		logger.Log(ctx, log.LevelError, "opening transactions file",
			log.String("path", args[0]), log.Err(err))

		return 1
	}
	defer input.Close()

	if _, err := engine.Run(ctx, input, os.Stdout, logger); err != nil {
		logger.Log(ctx, log.LevelError, "batch failed", log.Err(err))

		return 1
	}

	return 0
}

// runServe hosts the ledger over HTTP, optionally seeding it from a
// batch file first, and blocks until shutdown.
func runServe(cfg config, logger log.Logger, args []string) int {
	ctx := context.Background()
	defer func() { _ = logger.Sync(ctx) }()

	if len(args) > 1 {
		fmt.Fprintln(os.Stderr, "expected at most one seed file")
		flag.Usage()

		return 2
	}

	srv := server.New(logger)

	if len(args) == 1 {
		seed, err := os.Open(args[0])
		if err != nil {
			logger.Log(ctx, log.LevelError, "opening seed file",
				log.String("path", args[0]), log.Err(err))

			return 1
		}

		_, err = srv.Seed(ctx, seed)

		seed.Close()

		if err != nil {
			logger.Log(ctx, log.LevelError, "seeding ledger", log.Err(err))

			return 1
		}
	}

	manager := server.NewServerManager(logger).
		WithHTTPServer(srv.App(), cfg.ServerAddress).
		WithShutdownTimeout(time.Duration(cfg.ShutdownTimeoutSeconds) * time.Second)

	if err := manager.StartWithGracefulShutdownWithError(); err != nil {
		logger.Log(ctx, log.LevelError, "server failed", log.Err(err))

		return 1
	}

	return 0
}
