// Command agent runs a regional probe agent for the uptime-mon control
// plane. It listens for probe requests and executes web, ping and port
// checks against the requested targets.
//
// # Usage
//
//	agent --listen :9090 --token upmon_probe_xxx --region us-east
//
// # Configuration
//
// Configuration can be provided via:
// - Command-line flags
// - Environment variables (UPTIMEMON_AGENT_*)
// - Config file (--config)
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

	"github.com/vigil-net/uptime-mon/agent/internal/config"
	"github.com/vigil-net/uptime-mon/agent/internal/prober"
	"github.com/vigil-net/uptime-mon/agent/internal/server"
)

func main() {
	var (
		configFile = flag.String("config", "", "Path to config file")
		listen     = flag.String("listen", "", "Listen address (overrides config)")
		token      = flag.String("token", "", "Shared probe token")
		region     = flag.String("region", "", "Agent region")
		debug      = flag.Bool("debug", false, "Enable debug logging")
		version    = flag.Bool("version", false, "Print version and exit")
	)
	flag.Parse()

	if *version {
		fmt.Println("uptimemon-agent v0.1.0")
		os.Exit(0)
	}

	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))

	cfg := config.DefaultConfig()
	if *configFile != "" {
		fileCfg, err := config.LoadFromFile(*configFile)
		if err != nil {
			logger.Error("failed to load config file", "error", err)
			os.Exit(1)
		}
		cfg = fileCfg
	}
	cfg.ApplyEnvOverrides()

	if *listen != "" {
		cfg.Server.Listen = *listen
	}
	if *token != "" {
		cfg.Agent.Token = *token
	}
	if *region != "" {
		cfg.Agent.Region = *region
	}

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	p := prober.New(cfg.Probing, logger)
	srv := server.New(p, cfg.Agent.Token, cfg.Agent.Region, logger)

	httpServer := &http.Server{
		Addr:         cfg.Server.Listen,
		Handler:      srv.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("starting agent", "listen", cfg.Server.Listen, "region", cfg.Agent.Region)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received shutdown signal", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("agent shutdown complete")
}
