// Command server runs the uptime-mon control plane: the REST API, the
// frequency-bucket schedulers and the probe dispatch pipeline.
//
// # Usage
//
//	server --config /etc/uptimemon/server.yaml
//	server --database postgres://localhost/uptimemon --port 8080
//
// # Configuration
//
// The server can be configured via (highest precedence first):
// - Command-line flags
// - Environment variables (UPTIMEMON_*)
// - Config file (YAML)
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
	"time"

	"github.com/vigil-net/uptime-mon/control-plane/internal/agentpool"
	"github.com/vigil-net/uptime-mon/control-plane/internal/api"
	"github.com/vigil-net/uptime-mon/control-plane/internal/buffer"
	"github.com/vigil-net/uptime-mon/control-plane/internal/cache"
	"github.com/vigil-net/uptime-mon/control-plane/internal/config"
	"github.com/vigil-net/uptime-mon/control-plane/internal/metrics"
	"github.com/vigil-net/uptime-mon/control-plane/internal/probe"
	"github.com/vigil-net/uptime-mon/control-plane/internal/secrets"
	"github.com/vigil-net/uptime-mon/control-plane/internal/service"
	"github.com/vigil-net/uptime-mon/control-plane/internal/store"
	"github.com/vigil-net/uptime-mon/control-plane/internal/worker"
	"github.com/vigil-net/uptime-mon/db/migrate"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to YAML config file")
		port       = flag.Int("port", 0, "HTTP server port (overrides config)")
		dbURL      = flag.String("database", "", "Database URL (postgres://...)")
		redisURL   = flag.String("redis", "", "Redis URL (redis://...), empty disables cache and buffer")
		debug      = flag.Bool("debug", false, "Enable debug logging")
		version    = flag.Bool("version", false, "Print version and exit")
	)
	flag.Parse()

	if *version {
		fmt.Println("uptimemon-server v0.1.0")
		os.Exit(0)
	}

	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))

	cfg, err := config.LoadServerConfig(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg.ApplyEnvOverrides()
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *dbURL != "" {
		cfg.Database.URL = *dbURL
	}
	if *redisURL != "" {
		cfg.Redis.URL = *redisURL
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}

	// Database. Unreachable storage at startup is the one fatal condition.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := store.NewStoreFromURL(ctx, cfg.Database.URL)
	cancel()
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	pingCtx, pingCancel := context.WithTimeout(context.Background(), config.DatabasePingTimeout)
	err = db.Ping(pingCtx)
	pingCancel()
	if err != nil {
		logger.Error("database ping failed", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to database")

	migCtx, migCancel := context.WithTimeout(context.Background(), 60*time.Second)
	err = migrate.Run(migCtx, db.Pool(), logger)
	migCancel()
	if err != nil {
		logger.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	// Redis is optional: the cache, the sample buffer and the scheduler tick
	// locks all degrade away together when it is not configured.
	var (
		responseCache *cache.Cache
		sampleBuffer  *buffer.SampleBuffer
		flusher       *buffer.Flusher
		tickLocks     worker.TickLocker
		bufferStats   metrics.BufferStatsProvider
	)
	if cfg.Redis.URL != "" {
		responseCache, err = cache.New(cfg.Redis.URL, logger)
		if err != nil {
			logger.Warn("redis unavailable, running without cache and buffer", "error", err)
			responseCache = nil
		} else {
			tickLocks = responseCache

			// Locks left behind by an unclean shutdown must not suppress the
			// first ticks.
			wipeCtx, wipeCancel := context.WithTimeout(context.Background(), config.RedisConnectionTimeout)
			wiped, werr := responseCache.WipeSchedulerLocks(wipeCtx)
			wipeCancel()
			if werr != nil {
				logger.Warn("failed to wipe scheduler locks", "error", werr)
			} else if wiped > 0 {
				logger.Info("wiped stale scheduler locks", "count", wiped)
			}

			sampleBuffer, err = buffer.NewSampleBuffer(cfg.Redis.URL, logger)
			if err != nil {
				logger.Warn("sample buffer unavailable, samples will insert directly", "error", err)
				sampleBuffer = nil
			} else {
				flusher = buffer.NewFlusher(sampleBuffer, db, logger)
				flusher.Start()
				bufferStats = flusher
			}
		}
	}

	// Probe token: explicit config wins, otherwise the secrets provider.
	probeToken := cfg.Probing.Token
	if probeToken == "" {
		provider, perr := secrets.NewProvider(secrets.ConfigFromEnv(), logger)
		if perr != nil {
			logger.Error("failed to initialize secrets provider", "error", perr)
			os.Exit(1)
		}
		tokenCtx, tokenCancel := context.WithTimeout(context.Background(), 10*time.Second)
		probeToken, perr = provider.GetProbeToken(tokenCtx)
		tokenCancel()
		provider.Close()
		if perr != nil {
			logger.Error("failed to resolve probe token", "error", perr)
			os.Exit(1)
		}
	}

	// Pipeline wiring: registry -> pool -> checker -> bucket workers.
	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()

	pool := agentpool.New(logger)
	agentSync := worker.NewAgentSync(db, pool, worker.DefaultAgentSyncConfig(), logger)
	syncCtx, syncCancel := context.WithTimeout(runCtx, 10*time.Second)
	err = agentSync.SyncNow(syncCtx)
	syncCancel()
	if err != nil {
		// Not fatal: the pool starts empty and checks skip until agents load.
		logger.Warn("initial agent pool load failed", "error", err)
	}
	agentSync.Start(runCtx)

	prober := probe.NewClient(probe.Config{
		RateLimit: cfg.Probing.RateLimit,
		Token:     probeToken,
	}, logger)

	samples := service.NewSampleWriter(sampleBuffer, db)
	checker := service.NewChecker(db, pool, prober, samples, logger)

	workers := make([]*worker.BucketWorker, 0, len(config.Buckets))
	for _, bucket := range config.Buckets {
		w := worker.NewBucketWorker(db, checker, tickLocks, worker.DefaultBucketWorkerConfig(bucket), logger)
		w.Start(runCtx)
		workers = append(workers, w)
	}

	// API.
	svc := service.NewService(db, logger)
	collector := metrics.NewCollector(db, bufferStats)
	apiServer := api.NewServer(svc, collector, responseCache, cfg.Auth.APIKeyHash, logger)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      apiServer.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("starting server", "port", cfg.Server.Port, "buckets", config.Buckets)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")

	for _, w := range workers {
		w.Stop()
	}
	agentSync.Stop()
	runCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	if flusher != nil {
		// Final drain so buffered samples survive the restart.
		flusher.Stop()
	}
	if sampleBuffer != nil {
		sampleBuffer.Close()
	}

	logger.Info("shutdown complete")
}
