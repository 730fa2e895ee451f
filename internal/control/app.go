// Package control wires the application components together and manages
// their lifecycle.
package control

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/cosmoswatch/upgradewatch/internal/core/domain"
	redisclient "github.com/cosmoswatch/upgradewatch/internal/infra/redis"
	"github.com/cosmoswatch/upgradewatch/internal/probe"
	"github.com/cosmoswatch/upgradewatch/internal/registry"
	"github.com/cosmoswatch/upgradewatch/internal/scan"
	"github.com/cosmoswatch/upgradewatch/internal/server"
	"github.com/cosmoswatch/upgradewatch/internal/upgrade"
)

// Config holds the application configuration.
type Config struct {
	Port      int
	Registry  registry.Config
	Probe     probe.Config
	Query     upgrade.Config
	Redis     redisclient.Config
	Blacklist []string
}

// App is the main application struct managing the scan pipeline and the
// HTTP server.
type App struct {
	cfg     Config
	scanner *scan.Scanner
	server  *server.Server
	redis   *redisclient.Client
	log     *slog.Logger
}

// NewApp creates an App with all dependencies initialized.
func NewApp(cfg Config) (*App, error) {
	log := slog.Default()

	// Registry cache is optional: enabled only when Redis is configured
	// and reachable.
	var cache registry.Cache
	var redisClient *redisclient.Client
	if cfg.Redis.URL != "" {
		var err error
		redisClient, err = redisclient.NewClient(cfg.Redis)
		if err != nil {
			log.Warn("Failed to connect to Redis, registry cache disabled", "error", err)
		} else {
			cache = redisClient
			log.Info("Registry cache enabled")
		}
	}

	reg := registry.NewClient(cfg.Registry, cache, log)
	prober := probe.NewProber(cfg.Probe, log)
	reader := upgrade.NewClient(cfg.Query, log)
	scanner := scan.NewScanner(prober, reader, reg, cfg.Blacklist, log)
	srv := server.NewServer(scanner, cfg.Port, log)

	return &App{
		cfg:     cfg,
		scanner: scanner,
		server:  srv,
		redis:   redisClient,
		log:     log,
	}, nil
}

// Start starts the HTTP server.
func (a *App) Start(ctx context.Context) error {
	go func() {
		if err := a.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("HTTP server failed", "error", err)
		}
	}()
	a.log.Info("HTTP server listening", "port", a.cfg.Port)
	return nil
}

// Stop shuts the application down.
func (a *App) Stop(ctx context.Context) error {
	a.log.Info("Stopping upgrade watcher...")

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn("Failed to close Redis", "error", err)
		}
	}

	return a.server.Stop(ctx)
}

// ScanAll runs a one-shot batch scan without the HTTP server.
func (a *App) ScanAll(ctx context.Context, req scan.Request) []domain.NetworkResult {
	return a.scanner.ScanAll(ctx, req)
}
