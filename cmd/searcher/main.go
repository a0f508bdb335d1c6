// Command searcher starts the real-time search service.
//
// The searcher opens a real-time indexer over a directory of committed
// segments, connects to Redis for query caching, and exposes an HTTP API
// for full-text search, single-document ingestion, flush, cache
// management, and health checks.
//
// Usage:
//
//	go run ./cmd/searcher -config configs/development.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/shelfdex/shelfdex/internal/analyzer"
	"github.com/shelfdex/shelfdex/internal/api"
	"github.com/shelfdex/shelfdex/internal/realtime"
	"github.com/shelfdex/shelfdex/internal/wal"
	"github.com/shelfdex/shelfdex/pkg/config"
	"github.com/shelfdex/shelfdex/pkg/health"
	"github.com/shelfdex/shelfdex/pkg/logger"
	"github.com/shelfdex/shelfdex/pkg/metrics"
	"github.com/shelfdex/shelfdex/pkg/middleware"
	pkgredis "github.com/shelfdex/shelfdex/pkg/redis"
)

// main initialises all dependencies (config, logging, metrics, real-time
// indexer, Redis cache, health checker) and starts the HTTP server on the
// configured port. Graceful shutdown is triggered by SIGINT/SIGTERM.
func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting search service", "port", cfg.Server.Port)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		metricsShutdown := metrics.StartServer(cfg.Metrics.Port)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			metricsShutdown(shutdownCtx)
		}()
		slog.Info("prometheus metrics enabled", "port", cfg.Metrics.Port)
	}

	an := analyzer.New(analyzer.Config{
		Language:  analyzer.Language(cfg.Analyzer.Language),
		Stopwords: cfg.Analyzer.Stopwords,
	})

	var publisher realtime.Publisher
	if len(cfg.Kafka.Brokers) > 0 && cfg.Kafka.Topics.IndexComplete != "" {
		kp := realtime.NewKafkaPublisher(cfg.Kafka)
		defer kp.Close()
		publisher = kp
	}

	idx, err := realtime.Open(cfg.Pipeline.DataDir, an, wal.Options{}, publisher)
	if err != nil {
		slog.Error("failed to open real-time indexer", "error", err, "data_dir", cfg.Pipeline.DataDir)
		os.Exit(1)
	}
	defer idx.Close()
	slog.Info("real-time indexer opened", "data_dir", cfg.Pipeline.DataDir)

	var queryCache *realtime.QueryCache
	var redisClient *pkgredis.Client
	redisClient, err = pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, search caching disabled", "error", err)
	} else {
		defer redisClient.Close()
		queryCache = realtime.NewQueryCache(redisClient, cfg.Redis)
		slog.Info("search cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checker := health.NewChecker()
	checker.Register("index", func(ctx context.Context) health.ComponentHealth {
		return health.ComponentHealth{Status: health.StatusUp}
	})
	checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
		if redisClient == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
		}
		if err := redisClient.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})

	h := api.New(idx, queryCache, m, cfg.Search.DefaultTopK, cfg.Search.MaxTopK)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("POST /api/v1/documents", h.Ingest)
	mux.HandleFunc("POST /api/v1/flush", h.Flush)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	if m != nil {
		chain = middleware.Metrics(m)(chain)
	}
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := idx.Flush(shutdownCtx); err != nil {
			slog.Error("final flush before shutdown failed", "error", err)
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("search service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("search service stopped")
}
