// Command main is the entry point for the FoodShare API server.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"foodshare/internal/bootstrap"
	"foodshare/internal/config"
	"foodshare/internal/middleware"
	"foodshare/internal/observability"
	"foodshare/internal/server"
)

var version = "dev"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	middleware.Logger = middleware.NewLogger(cfg.Env)

	shutdownTracing, err := observability.InitTracing(observability.TracingConfigFrom(cfg, version))
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}

	rt, err := bootstrap.InitRuntime(context.Background(), cfg, bootstrap.Options{
		SeedDemo: cfg.DBDriver == config.DriverMemory,
	})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}

	srv := server.NewServer(rt)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		middleware.Logger.Error("Server stopped", "error", err)
	case sig := <-sigChan:
		middleware.Logger.Info("Shutting down server...", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		middleware.Logger.Error("Server shutdown error", "error", err)
	}
	if err := rt.Close(); err != nil {
		middleware.Logger.Error("Runtime close error", "error", err)
	}
	if err := shutdownTracing(ctx); err != nil {
		middleware.Logger.Error("Tracing shutdown error", "error", err)
	}
}
