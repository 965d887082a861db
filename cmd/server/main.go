package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"reservation-service/internal/api"
	"reservation-service/internal/catalog"
	"reservation-service/internal/config"
	"reservation-service/internal/interfaces"
	"reservation-service/internal/kafka"
	"reservation-service/internal/ledger"
	"reservation-service/internal/locks"
	redisCache "reservation-service/internal/redis"
	"reservation-service/internal/repository"
	"reservation-service/internal/service"
)

// setupLogging configures structured logging
func setupLogging() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}

// initializeDatabase sets up and tests the database connection
func initializeDatabase(cfg *config.Config) *sqlx.DB {
	db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}

	db.SetMaxOpenConns(cfg.DatabaseMaxConns)
	db.SetMaxIdleConns(cfg.DatabaseMaxIdleConns)

	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}

	log.Info().Msg("Database connection established")
	return db
}

// initializeCache sets up the Redis status cache when enabled
func initializeCache(cfg *config.Config) interfaces.StatusCache {
	if !cfg.RedisEnabled {
		log.Info().Msg("Redis status cache disabled")
		return nil
	}

	cache := redisCache.NewStatusCache(cfg.RedisAddrs, cfg.RedisPassword, cfg.RedisTTL, cfg.RedisKeyPrefix)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := cache.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	log.Info().Msg("Redis connection established")

	return cache
}

// initializeKafka sets up the stock event publisher when enabled
func initializeKafka(cfg *config.Config) interfaces.EventPublisher {
	if !cfg.KafkaEnabled {
		log.Info().Msg("Kafka event publishing disabled")
		return nil
	}

	log.Info().Strs("kafka_brokers", cfg.KafkaBrokers).Msg("Initializing Kafka publisher with brokers")
	return kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaEventsTopicName)
}

// startHTTPServer starts the HTTP server
func startHTTPServer(cfg *config.Config, engine *service.ReservationService, batch *service.BatchOrchestrator) *http.Server {
	handler := api.NewHandler(engine, batch)
	router := handler.SetupRoutes()

	serverAddr := fmt.Sprintf("%s:%s", cfg.ServerAddr, cfg.ServerPort)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("address", serverAddr).Msg("Reservation service HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start HTTP server")
		}
	}()

	return server
}

// gracefulShutdown handles graceful shutdown of the service
func gracefulShutdown(server *http.Server, publisher interfaces.EventPublisher, cache interfaces.StatusCache, db *sqlx.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down reservation service...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	if publisher != nil {
		if err := publisher.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close Kafka publisher")
		}
	}
	if cache != nil {
		if err := cache.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close Redis client")
		}
	}
	if err := db.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close database")
	}

	log.Info().Msg("Reservation service stopped")
}

func main() {
	setupLogging()

	cfg := config.LoadConfig()
	log.Info().
		Str("service", cfg.ServiceName).
		Str("environment", cfg.Environment).
		Msg("Starting reservation service")

	db := initializeDatabase(cfg)
	cache := initializeCache(cfg)
	publisher := initializeKafka(cfg)

	catalogClient := catalog.NewClient(cfg.CatalogBaseURL, cfg.CatalogTimeout)
	lockManager := locks.NewKeyedMutex()

	stockLedger := ledger.NewLedger(repository.NewLedgerRepository(db), catalogClient, lockManager)
	engine := service.NewReservationService(stockLedger, repository.NewRecordRepository(db), publisher, cache)
	batch := service.NewBatchOrchestrator(engine)

	server := startHTTPServer(cfg, engine, batch)
	gracefulShutdown(server, publisher, cache, db)
}
