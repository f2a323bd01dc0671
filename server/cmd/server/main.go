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

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/espdash/espdash/server/internal/alerts"
	"github.com/espdash/espdash/server/internal/api"
	"github.com/espdash/espdash/server/internal/config"
	"github.com/espdash/espdash/server/internal/persist"
	"github.com/espdash/espdash/server/internal/store"
	"github.com/espdash/espdash/server/internal/ws"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	uiDir := flag.String("ui-dir", "", "serve the dashboard static files from this directory (e.g. public); leave empty to disable")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	slog.Info("espdash-server starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	slog.Info("config loaded",
		"http_port", cfg.Server.HTTPPort,
		"store_backend", cfg.Server.Store.Backend,
		"store_capacity", cfg.Server.Store.Capacity,
		"stream_interval", cfg.Server.Stream.Interval.Std(),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Persistence backend behind the store's save/load contract.
	persister, closePersister, err := buildPersister(cfg.Server.Store)
	if err != nil {
		slog.Error("failed to open persistence backend",
			"backend", cfg.Server.Store.Backend, "err", err)
		os.Exit(1)
	}
	defer closePersister()

	// Measurement store, seeded from persisted state. A broken backing
	// file logs and starts empty rather than stopping the server.
	st := store.New(cfg.Server.Store.Capacity, persister)
	st.Load()

	// Alerts engine — evaluates threshold rules on every ingested record.
	alertEngine := alerts.New(cfg.Server.Alerts)

	// WebSocket hub — pushes the latest measurement to dashboard clients.
	hub := ws.New(st, cfg.Server.Stream.Interval.Std())
	go hub.Run(ctx)

	// Combined HTTP server: JSON API + WebSocket hub + metrics on HTTPPort.
	apiHandler := api.New(st, alertEngine)
	httpMux := http.NewServeMux()
	for _, route := range apiHandler.Routes() {
		httpMux.Handle(route, apiHandler)
	}
	httpMux.Handle("/ws/stream", hub)
	httpMux.Handle("/metrics", promhttp.Handler())

	// Optional: serve the dashboard from a local directory.
	// Usage:  ./bin/espdash-server -config config.yaml -ui-dir public
	if *uiDir != "" {
		httpMux.Handle("/", http.FileServer(http.Dir(*uiDir)))
		slog.Info("serving dashboard static files", "dir", *uiDir)
	}

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler: httpMux,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
		}
	}()

	<-ctx.Done()
	slog.Info("espdash-server shutting down")
	httpSrv.Shutdown(context.Background()) //nolint:errcheck
}

// buildPersister maps the store config to a persistence backend. The
// returned close func releases backend resources on shutdown (sqlite holds
// a database handle; file and none hold nothing).
func buildPersister(cfg config.StoreConfig) (persist.Persister, func(), error) {
	switch cfg.Backend {
	case "sqlite":
		s, err := persist.OpenSQLite(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	case "none":
		return persist.Nop{}, func() {}, nil
	default: // "file" and the zero value
		return persist.NewFile(cfg.Path), func() {}, nil
	}
}
