package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/oksasatya/tapvote/config"
	"github.com/oksasatya/tapvote/internal/container"
	"github.com/oksasatya/tapvote/pkg/helpers"
)

// energy_worker adds one energy point to every user below the cap on each
// tick of ENERGY_REGEN_INTERVAL.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-energy-worker", cfg.Env)

	if cfg.StorageDriver == "memory" {
		logger.Fatal("energy worker needs a shared store; STORAGE_DRIVER=memory is per-process")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	c, err := container.Build(ctx, cfg, logger, container.Options{})
	if err != nil {
		logger.Fatalf("bootstrap: %v", err)
	}
	defer c.Close()

	interval := cfg.EnergyRegenInterval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Infof("energy worker ticking every %s", interval)
	for {
		select {
		case <-ctx.Done():
			logger.Info("energy worker stopped")
			return
		case <-ticker.C:
			tickCtx, cancelTick := context.WithTimeout(ctx, interval)
			n, err := c.Economy.RegenerateAll(tickCtx)
			cancelTick()
			if err != nil {
				logger.WithError(err).Error("regenerate energy failed")
				continue
			}
			if n > 0 {
				logger.WithField("users", n).Debug("energy regenerated")
			}
		}
	}
}

