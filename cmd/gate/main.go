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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/pscheid92/pageswitch/internal/adapter/httpserver"
	"github.com/pscheid92/pageswitch/internal/adapter/metrics"
	"github.com/pscheid92/pageswitch/internal/adapter/redis"
	"github.com/pscheid92/pageswitch/internal/domain"
	"github.com/pscheid92/pageswitch/internal/gate"
	"github.com/pscheid92/pageswitch/internal/platform/config"
	"github.com/pscheid92/pageswitch/internal/platform/logging"
	goredis "github.com/redis/go-redis/v9"
)

func runGracefulShutdown(srv *httpserver.Server, svc *gate.Service) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		// Closing the hub first ends open event streams, which Shutdown
		// would otherwise wait on.
		svc.Stop()

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

func setupRedis(ctx context.Context, cfg *config.Config) *goredis.Client {
	client, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

func setupStore(cfg *config.Config, clock clockwork.Clock, reg *prometheus.Registry) (domain.SessionStore, []httpserver.HealthCheck, func()) {
	if cfg.GateStore != config.StoreRedis {
		return gate.NewInMemoryStore(clock), nil, func() {}
	}

	redisClient := setupRedis(context.Background(), cfg)
	redisClient.AddHook(redis.NewMetricsHook(metrics.NewRedisMetrics(reg)))
	healthChecks := []httpserver.HealthCheck{
		{Name: "redis", Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }},
	}
	return redis.NewSessionStore(redisClient), healthChecks, func() { _ = redisClient.Close() }
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Gate starting", "env", cfg.AppEnv, "port", cfg.GatePort, "store", cfg.GateStore)

	reg := metrics.NewRegistry()

	store, healthChecks, closeStore := setupStore(cfg, clock, reg)
	defer closeStore()

	gateMetrics := metrics.NewGateMetrics(reg)
	svc := gate.NewService(store, gate.NewHub(gateMetrics), clock, gateMetrics, cfg.GateDefaultTimeout)

	srv, err := httpserver.NewGateServer(cfg, svc, clock, reg, healthChecks)
	if err != nil {
		slog.Error("Failed to create server", "error", err)
		os.Exit(1)
	}

	done := runGracefulShutdown(srv, svc)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
