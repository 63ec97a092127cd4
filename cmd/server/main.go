// Command server implements the candlecast prediction API.
//
// The server loads trained model artifacts (model, scaler, target metadata)
// from a models directory and serves point predictions over JSON/HTTP:
//  1. POST /predict validates the request and runs the windowed-inference
//     pipeline: scale, predict, inverse-scale.
//  2. Artifacts are cached in memory; concurrent first requests for the
//     same symbol coalesce into a single disk load.
//  3. Each served prediction is stored as a snapshot, retrievable via
//     GET /prediction/latest?symbol=<name>.
//
// The server also exposes:
//   - GET /healthz - Health check endpoint
//   - GET /metrics - Prometheus metrics endpoint
//
// Usage:
//
//	server -models-dir=/data/models -listen=:8080
//
// Environment variables:
//
//	LISTEN           - HTTP listen address (default: :8080)
//	MODELS_DIR       - Model artifact directory (default: models)
//	PRELOAD          - Load all artifacts at startup (default: true)
//	STORAGE          - Snapshot backend: memory or redis (default: memory)
//	REDIS_ADDR       - Redis server address
//	REDIS_TTL        - Redis snapshot TTL (default: 30m)
//	RATE_LIMIT_RPS   - Requests per second limit, 0 disables (default: 0)
//	LOG_LEVEL        - Logging level: debug, info, warn, error (default: info)
//	LOG_FORMAT       - Logging format: text, json (default: text)
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/slicken/candlecast/cmd/server/config"
	"github.com/slicken/candlecast/cmd/server/logger"
	"github.com/slicken/candlecast/cmd/server/metrics"
	"github.com/slicken/candlecast/cmd/server/router"
	"github.com/slicken/candlecast/pkg/artifact"
	"github.com/slicken/candlecast/pkg/httpx"
	"github.com/slicken/candlecast/pkg/inference"
	"github.com/slicken/candlecast/pkg/storage"
	candletls "github.com/slicken/candlecast/pkg/tls"
)

// version is set via ldflags at build time
var version = "dev"

func main() {
	cfg := config.ParseFlags()

	logger := logger.New(cfg)
	slog.SetDefault(logger)

	logger.Info("starting candlecast server",
		"version", version,
		"models_dir", cfg.ModelsDir,
		"storage", cfg.Storage,
	)

	store, err := artifact.NewStore(cfg.ModelsDir, logger)
	if err != nil {
		logger.Error("failed to open models directory", "error", err)
		os.Exit(1)
	}

	cache := artifact.NewCache(store, logger)
	if cfg.Preload {
		loaded, err := cache.Preload(context.Background())
		if err != nil {
			logger.Error("failed to preload model artifacts", "error", err)
			os.Exit(1)
		}
		logger.Info("preloaded model artifacts", "count", loaded)
	}

	snapshots := newSnapshotStore(cfg, logger)
	if closer, ok := snapshots.(interface{ Close() error }); ok {
		defer func() {
			if err := closer.Close(); err != nil {
				logger.Error("failed to close snapshot store", "error", err)
			}
		}()
	}

	m := metrics.New()
	m.RegisterCache(cache)

	pipeline := inference.New(cache, logger)

	mux := router.SetupRoutes(pipeline, snapshots, m, logger)

	var handler http.Handler = mux
	handler = httpx.RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst)(handler)
	handler = httpx.LoggingMiddleware(logger)(handler)
	handler = httpx.RecoveryMiddleware(logger)(handler)

	httpServer := httpx.NewServer(cfg.Listen, handler, logger)

	serverErr := make(chan error, 1)
	go func() {
		if cfg.TLS.Enabled {
			httpServer.SetTLSConfig(candletls.NewServerTLSConfig())
			serverErr <- httpServer.StartTLS(cfg.TLS.CertFile, cfg.TLS.KeyFile)
		} else {
			serverErr <- httpServer.Start()
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig)
	case err := <-serverErr:
		if err != nil {
			logger.Error("server failed", "error", err)
		}
	}

	logger.Info("shutting down")

	if err := httpServer.Stop(cfg.ShutdownTimeout); err != nil {
		logger.Error("server shutdown failed", "error", err)
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}

// newSnapshotStore selects the snapshot backend from configuration.
func newSnapshotStore(cfg *config.Config, logger *slog.Logger) storage.Store {
	if cfg.Storage == "redis" {
		store, err := storage.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisTTL)
		if err != nil {
			logger.Error("failed to connect to redis", "addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		logger.Info("using redis snapshot store", "addr", cfg.RedisAddr, "ttl", cfg.RedisTTL)
		return store
	}
	return storage.NewMemoryStore()
}
