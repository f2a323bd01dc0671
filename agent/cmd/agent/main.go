package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/espdash/espdash/agent/internal/config"
	"github.com/espdash/espdash/agent/internal/sensor"
	"github.com/espdash/espdash/agent/internal/shipper"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	slog.Info("espdash-agent starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	slog.Info("config loaded",
		"server_url", cfg.Agent.ServerURL,
		"sample_interval", cfg.Agent.SampleInterval.Std(),
		"buffer_size", cfg.Agent.BufferSize,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sampler := sensor.New(cfg.Agent.Seed)

	// Sample interval is swapped by the hot-reload path below; the ticker
	// reads it from this channel rather than the config struct.
	intervals := make(chan time.Duration, 1)

	// Watch config file for hot-reload. Only the sample interval is applied
	// live; changing server_url or buffer_size requires a restart.
	go func() {
		if err := config.Watch(ctx, *configPath, func(updated *config.Config) {
			select {
			case intervals <- updated.Agent.SampleInterval.Std():
			default:
			}
		}); err != nil {
			slog.Error("config watcher stopped", "err", err)
		}
	}()

	// Start the shipper — runs until ctx is cancelled.
	ship := shipper.New(cfg.Agent)
	go ship.Run(ctx)

	// Sample loop: take a reading every SampleInterval and hand it to the
	// shipper. The shipper buffers and retries on its own.
	go func() {
		ticker := time.NewTicker(cfg.Agent.SampleInterval.Std())
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case d := <-intervals:
				ticker.Reset(d)
				slog.Info("sample interval updated", "sample_interval", d)
			case t := <-ticker.C:
				reading := sampler.Sample(t)
				ship.Ship(reading)
				slog.Debug("sampled reading",
					"valueA", reading["valueA"],
					"valueB", reading["valueB"],
					"valueC", reading["valueC"],
				)
			}
		}
	}()

	<-ctx.Done()
	slog.Info("espdash-agent shutting down", "pending", ship.Pending())
}
