package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/rahul-reddy-dataops/WebSocketKafkaStreamer/internal/broadcast"
	"github.com/rahul-reddy-dataops/WebSocketKafkaStreamer/internal/config"
	"github.com/rahul-reddy-dataops/WebSocketKafkaStreamer/internal/domain"
)

const (
	maxConnectionsPerIP     = 32
	connectionRatePerSecond = 10.0
	connectionRateBurst     = 10
)

// AppService is the application layer surface the handlers need.
type AppService interface {
	IngestUpload(ctx context.Context, filename string, payload []byte, hint domain.ShapeHint) (domain.Batch, error)
	LoadSample(ctx context.Context, count int) (domain.Batch, error)
	Snapshot() []domain.Record
	Summary() domain.Summary
}

// Broadcaster registers stream subscribers for WebSocket clients.
type Broadcaster interface {
	Subscribe() (*broadcast.Subscriber, error)
	Unsubscribe(id uuid.UUID)
}

// databaseHealthChecker is a minimal interface for PostgreSQL health checks.
type databaseHealthChecker interface {
	Ping(ctx context.Context) error
}

type Server struct {
	echo        *echo.Echo
	config      *config.Config
	app         AppService
	broadcaster Broadcaster
	db          databaseHealthChecker // nil when no database is configured
	limits      *ConnectionLimits
	clock       clockwork.Clock
	startTime   time.Time
}

func NewServer(cfg *config.Config, app AppService, broadcaster Broadcaster, db databaseHealthChecker, clock clockwork.Clock) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	srv := &Server{
		echo:        e,
		config:      cfg,
		app:         app,
		broadcaster: broadcaster,
		db:          db,
		limits: NewConnectionLimits(
			int64(cfg.MaxWebSocketConnections),
			maxConnectionsPerIP,
			connectionRatePerSecond,
			connectionRateBurst,
		),
		clock:     clock,
		startTime: clock.Now(),
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
