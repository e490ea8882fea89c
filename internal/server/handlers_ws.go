package server

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/rahul-reddy-dataops/WebSocketKafkaStreamer/internal/broadcast"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Dashboards embed from arbitrary origins
	},
}

func (s *Server) handleWebSocket(c echo.Context) error {
	ip := c.RealIP()

	allowed, reason := s.limits.Acquire(ip)
	if !allowed {
		slog.Warn("WebSocket connection rejected", "ip", ip, "reason", string(reason))
		status := http.StatusServiceUnavailable
		if reason == LimitReasonRate || reason == LimitReasonPerIP {
			status = http.StatusTooManyRequests
		}
		return c.JSON(status, map[string]string{"error": "connection limit reached"})
	}
	defer s.limits.Release(ip)

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Warn("Failed to upgrade WebSocket", "error", err)
		return nil
	}

	sub, err := s.broadcaster.Subscribe()
	if err != nil {
		slog.Warn("Failed to subscribe WebSocket client", "error", err)
		_ = conn.Close()
		return nil
	}

	writer := broadcast.NewWriter(conn, sub, s.clock)

	// Read pump — blocks until the connection closes. Inbound frames are
	// discarded; the stream is one-way.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.broadcaster.Unsubscribe(sub.ID())
	writer.Stop("connection closed")

	return nil
}
