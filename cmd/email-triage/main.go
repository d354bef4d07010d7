package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/autou/email-triage/internal/adapters/httpapi"
	"github.com/autou/email-triage/internal/adapters/smtpgw"
	"github.com/autou/email-triage/internal/config"
	"github.com/autou/email-triage/internal/core"
	"github.com/autou/email-triage/internal/di"
	"github.com/autou/email-triage/internal/factory"
)

func main() {
	// Build the dependency injection container
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	logger *zap.Logger,
	cfg *config.Config,
	server *httpapi.Server,
	gateway *smtpgw.Gateway,
	llmFactory *factory.LLMFactory,
	cacheRepo core.CacheRepository,
) error {
	defer logger.Sync()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	if cfg.GetSMTP().Enabled {
		if err := gateway.Start(); err != nil {
			logger.Fatal("Failed to start SMTP gateway", zap.Error(err))
			return err
		}
	}

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("HTTP server failed", zap.Error(err))
			return err
		}
	case sig := <-sigCh:
		logger.Info("Shutting down...", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Failed to shut down HTTP server", zap.Error(err))
	}
	if cfg.GetSMTP().Enabled {
		if err := gateway.Stop(); err != nil {
			logger.Error("Failed to stop SMTP gateway", zap.Error(err))
		}
	}

	// Close provider clients holding connections
	llmFactory.Close()

	// Stop the cache if needed
	if stopper, ok := cacheRepo.(interface{ Stop() }); ok {
		stopper.Stop()
	}

	logger.Info("Shutdown complete")
	return nil
}
