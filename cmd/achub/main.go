package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pnatali/achub/internal/blob"
	"github.com/pnatali/achub/internal/config"
	"github.com/pnatali/achub/internal/core"
	"github.com/pnatali/achub/internal/logger"
	"github.com/pnatali/achub/internal/plugins"
	"github.com/pnatali/achub/internal/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", envOrDefault("ACHUB_CONFIG", config.DefaultPath), "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Get(logger.ErrorLevel).Fatalw("load config", "path", *configPath, "err", err)
	}

	log := logger.Get(cfg.Core.LogLevel)
	defer log.Sync()

	var store blob.Store
	if cfg.Blob != nil {
		s3, err := blob.NewS3Store(cfg.Blob)
		if err != nil {
			log.Fatalw("init blob store", "err", err)
		}
		store = s3
	}

	active := plugins.Compiled(cfg, plugins.Deps{Store: store, Log: log})
	if err := core.ValidatePlugins(active); err != nil {
		log.Fatalw("validate plugins", "err", err)
	}
	if err := core.ValidateEnabledPlugins(active, config.EnabledPlugins(cfg), false); err != nil {
		log.Fatalw("validate enabled plugins", "err", err)
	}

	registry := core.NewRegistry(active)

	metricsRegistry := core.MetricsRegistry(active)
	metricsRegistry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "achub_build_info",
		Help: "Build information",
	}, func() float64 { return 1 }))

	if err := core.WriteDashboards(cfg.Core.DashboardDir, active); err != nil {
		log.Fatalw("write dashboards", "dir", cfg.Core.DashboardDir, "err", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", server.HealthHandler)
	mux.Handle("/metrics", server.MetricsHandler(metricsRegistry))
	mux.Handle("/dashboards/", server.DashboardsHandler(core.DashboardsMap(active)))
	mux.Handle("/api/plugins", server.RegistryHandler(registry))
	mux.Handle("/api/plugins/", server.RegistryHandler(registry))
	server.MountPlugins(mux, active)

	stop := make(chan struct{})
	var runners sync.WaitGroup
	for _, plugin := range active {
		runner, ok := plugin.(core.Runner)
		if !ok {
			continue
		}
		runners.Add(1)
		go func() {
			defer runners.Done()
			runner.Run(stop)
		}()
	}

	httpServer := server.NewHTTPServer(cfg.Core.HTTPAddr, mux)
	go func() {
		log.Infow("http server listening", "addr", cfg.Core.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("http serve", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Infow("shutting down")

	close(stop)
	runners.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Errorw("http shutdown", "err", err)
	}
	log.Infow("shutdown complete")
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
