package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	// Observability endpoints
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	s.echo.GET("/version", s.handleVersion)

	// Ingestion (uploads are rate limited per IP)
	uploadLimiter := newRateLimiter(s.config.UploadRatePerSecond, s.config.UploadRateBurst)
	s.echo.POST("/api/upload", s.handleUpload, uploadLimiter)
	s.echo.POST("/api/sample", s.handleSample)

	// Snapshot reads
	s.echo.GET("/api/data", s.handleData)
	s.echo.GET("/api/summary", s.handleSummary)

	// Live stream
	s.echo.GET("/ws", s.handleWebSocket)
}
