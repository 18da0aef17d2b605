package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/pageswitch/internal/activation"
	"github.com/pscheid92/pageswitch/internal/adapter/gateclient"
	"github.com/pscheid92/pageswitch/internal/adapter/httpserver"
	"github.com/pscheid92/pageswitch/internal/adapter/metrics"
	"github.com/pscheid92/pageswitch/internal/platform/config"
	"github.com/pscheid92/pageswitch/internal/platform/logging"
)

func runGracefulShutdown(srv *httpserver.Server) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, draining requests...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		close(done)
	}()

	return done
}

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Activator starting", "env", cfg.AppEnv, "port", cfg.Port, "gate_server_url", cfg.GateServerURL)

	reg := metrics.NewRegistry()

	client, err := gateclient.NewClient(cfg.GateServerURL, cfg.GateRequestTimeout)
	if err != nil {
		slog.Error("Failed to create gate client", "error", err)
		os.Exit(1)
	}

	forwarder := activation.NewForwarder(client, metrics.NewActivationMetrics(reg), clock)

	healthChecks := []httpserver.HealthCheck{
		{Name: "gate", Check: client.Ping},
	}
	srv := httpserver.NewActivatorServer(cfg, forwarder, clock, reg, healthChecks)

	done := runGracefulShutdown(srv)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
