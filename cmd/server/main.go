package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"

	"github.com/rahul-reddy-dataops/WebSocketKafkaStreamer/internal/app"
	"github.com/rahul-reddy-dataops/WebSocketKafkaStreamer/internal/broadcast"
	"github.com/rahul-reddy-dataops/WebSocketKafkaStreamer/internal/config"
	"github.com/rahul-reddy-dataops/WebSocketKafkaStreamer/internal/domain"
	"github.com/rahul-reddy-dataops/WebSocketKafkaStreamer/internal/ingest"
	"github.com/rahul-reddy-dataops/WebSocketKafkaStreamer/internal/logging"
	"github.com/rahul-reddy-dataops/WebSocketKafkaStreamer/internal/postgres"
	"github.com/rahul-reddy-dataops/WebSocketKafkaStreamer/internal/server"
	"github.com/rahul-reddy-dataops/WebSocketKafkaStreamer/internal/stream"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := postgres.RunMigrationsWithLock(ctx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return pool
}

func runGracefulShutdown(srv *server.Server, appSvc *app.Service, hub *broadcast.Hub, stopProducer context.CancelFunc) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		stopProducer()
		appSvc.Stop()
		hub.Stop()

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	// Initialize structured logging
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	// Persistence is optional; without DATABASE_URL the stream runs
	// purely in memory.
	var (
		pool *pgxpool.Pool
		sink domain.Sink
	)
	if cfg.DatabaseURL != "" {
		pool = setupDB(cfg)
		defer pool.Close()
		sink = postgres.NewRecordSink(pool, clock)
	} else {
		slog.Info("No DATABASE_URL configured, running without persistence")
	}

	buffer := stream.NewBuffer(cfg.MaxRecords)
	hub := broadcast.NewHub(buffer, clock, cfg.MaxWebSocketConnections)

	normalizer := ingest.NewNormalizer(clock)
	generator := ingest.NewGenerator(clock)
	appSvc := app.NewService(normalizer, generator, buffer, hub, sink, clock)

	producerCtx, stopProducer := context.WithCancel(context.Background())
	defer stopProducer()
	if cfg.EnableSimulation {
		producer := stream.NewProducer(appSvc, generator, clock, cfg.SimulationInterval, cfg.SimulationWarmup)
		go producer.Run(producerCtx)
	}

	// Pass nil explicitly to avoid a typed-nil interface in the server.
	var srv *server.Server
	if pool != nil {
		srv = server.NewServer(cfg, appSvc, hub, pool, clock)
	} else {
		srv = server.NewServer(cfg, appSvc, hub, nil, clock)
	}

	done := runGracefulShutdown(srv, appSvc, hub, stopProducer)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
