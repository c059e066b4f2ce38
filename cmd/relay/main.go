package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"chat-relay/internal"
	"chat-relay/repositories"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"chat-relay/transport"
)

// insecureFallbackSecret keys redaction when IP_HASH_SECRET is unset.
// Tokens produced with it are linkable by anyone reading this source.
const insecureFallbackSecret = "chat-relay-insecure-dev-secret"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and centralizes
// error reporting, so every defer (database close included) executes before the
// process exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if err := validator.New().Struct(config); err != nil {
		return fmt.Errorf("config validation error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	secret := config.IPHashSecret
	if secret == "" {
		secret = insecureFallbackSecret
		log.Warn("IP_HASH_SECRET is not set, falling back to an insecure built-in key; " +
			"address tokens are linkable across deployments")
	}

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Engine & Supervision
	registry := runtime.NewRegistry()
	limiter := runtime.NewSessionLimiter(config.MessageInterval)
	redactor := runtime.NewRedactor(secret)
	store := repositories.NewHistoryStore(db, log)

	engine := runtime.NewEngine(log, registry, limiter, redactor, store,
		config.HistoryLimit, config.MaxMessageLength, config.BufferSize)

	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(workers.NewBroadcastWorker(log, registry, store, engine.Events()))
	sup.Add(workers.NewStatsWorker(log, config.StatsInterval, engine.Stats))

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	supDone := make(chan struct{})
	go func() {
		sup.Run(ctx)
		close(supDone)
	}()

	// 5. Optional debug inspector
	if config.DebugPort > 0 {
		internal.StartDebugServer(log, db, config.DebugPort, engine.Stats)
	}

	// 6. QUIC server
	tlsConf, err := transport.ServerTLSConfig(config.TLSCertFile, config.TLSKeyFile)
	if err != nil {
		return fmt.Errorf("tls setup failed: %w", err)
	}
	server := transport.NewServer(log, engine, tlsConf,
		config.ConnectionBufferSize, config.SinkTimeout)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting relay", "address", address)
		if err := server.ListenAndServe(ctx, address); err != nil {
			errChan <- err
		}
	}()

	// 7. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 8. Final Cleanup
	sup.Stop()
	<-supDone
	log.Info("Program stopped cleanly")

	return nil
}
