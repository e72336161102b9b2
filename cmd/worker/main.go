// cmd/worker/main.go
//
// The export worker subscribes to forecast updates and flushes CSV snapshots,
// locally and to S3-compatible storage when configured. It exposes a small
// health endpoint for the orchestrator.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"github.com/fuelops/spbu-backoffice/internal/cache"
	"github.com/fuelops/spbu-backoffice/internal/config"
	"github.com/fuelops/spbu-backoffice/internal/domain"
	"github.com/fuelops/spbu-backoffice/internal/events"
	"github.com/fuelops/spbu-backoffice/internal/export"
	"github.com/fuelops/spbu-backoffice/internal/storage"
	"github.com/fuelops/spbu-backoffice/pkg/logger"
)

const flushInterval = time.Minute

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger.SetLevel(cfg.Server.Mode)

	if !cfg.Cache.Enabled {
		log.Fatal("Worker requires redis (set CACHE_ENABLED=true)")
	}

	client, err := cache.NewRedisClient(cfg.Cache)
	if err != nil {
		log.Fatalf("Failed to connect to redis: %v", err)
	}

	var store storage.ObjectStorage
	if cfg.Export.Enabled {
		s3, err := storage.NewS3Client(cfg.Export)
		if err != nil {
			log.Fatalf("Failed to initialize export storage: %v", err)
		}
		store = s3
	}

	exporter := export.NewSnapshotExporter(cfg.Export.SnapshotDir, store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Health endpoint
	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	healthAddr := fmt.Sprintf(":%s", workerPort())
	go func() {
		logger.Log.Info().Str("addr", healthAddr).Msg("Worker health endpoint listening")
		if err := http.ListenAndServe(healthAddr, r); err != nil && err != http.ErrServerClosed {
			logger.Log.Error().Err(err).Msg("Health endpoint failed")
		}
	}()

	// Periodic flush so quiet hours still produce snapshots
	go func() {
		ticker := time.NewTicker(flushInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := exporter.Flush(ctx); err != nil {
					logger.Log.Error().Err(err).Msg("Periodic snapshot flush failed")
				}
			}
		}
	}()

	subscriber := events.NewSubscriber(client)
	go func() {
		logger.Log.Info().Str("channel", events.UpdateChannel).Msg("Subscribed to forecast updates")
		err := subscriber.Listen(ctx, func(update domain.ForecastUpdate) {
			exporter.HandleUpdate(ctx, update)
		})
		if err != nil && err != context.Canceled {
			logger.Log.Error().Err(err).Msg("Subscriber stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down worker...")
	cancel()

	flushCtx, flushCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer flushCancel()
	if err := exporter.Flush(flushCtx); err != nil {
		logger.Log.Error().Err(err).Msg("Final snapshot flush failed")
	}

	logger.Log.Info().Msg("Worker exiting")
}

func workerPort() string {
	if port := os.Getenv("WORKER_PORT"); port != "" {
		return port
	}
	return "8081"
}
