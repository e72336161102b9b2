// cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fuelops/spbu-backoffice/internal/api"
	"github.com/fuelops/spbu-backoffice/internal/cache"
	"github.com/fuelops/spbu-backoffice/internal/config"
	"github.com/fuelops/spbu-backoffice/internal/events"
	"github.com/fuelops/spbu-backoffice/internal/repository/postgres"
	"github.com/fuelops/spbu-backoffice/internal/service"
	"github.com/fuelops/spbu-backoffice/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database
	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	salesRepo := postgres.NewSalesRepository(db)
	deliveryRepo := postgres.NewDeliveryRepository(db)
	tankRepo := postgres.NewTankRepository(db)

	forecastCache, err := cache.NewForecastCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Cache unavailable, running without it")
		forecastCache = cache.NewNoopForecastCache()
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.Cache.Enabled {
		if client, err := cache.NewRedisClient(cfg.Cache); err != nil {
			logger.Log.Warn().Err(err).Msg("Redis unavailable, forecast updates will not be published")
		} else {
			publisher = events.NewPublisher(client)
		}
	}

	services := &api.Services{
		ForecastService: service.NewForecastService(salesRepo, deliveryRepo, tankRepo, forecastCache, cfg.Forecast),
		RecalcService:   service.NewRecalcService(salesRepo, tankRepo, forecastCache, publisher, cfg.Forecast),
	}

	router := api.NewRouter(services, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
