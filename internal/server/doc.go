// Package server implements the HTTP server using Echo framework.
//
// Routes: uploads and sample loading (POST /api/upload, /api/sample),
// snapshot reads (GET /api/data, /api/summary), the WebSocket stream
// (GET /ws) and observability endpoints (/health/*, /metrics).
package server
