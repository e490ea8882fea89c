package server

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/rahul-reddy-dataops/WebSocketKafkaStreamer/internal/domain"
	"github.com/rahul-reddy-dataops/WebSocketKafkaStreamer/internal/metrics"
)

// shapeHintForFilename maps an upload's extension to the parser used for
// it. Only .csv and .json are accepted.
func shapeHintForFilename(filename string) (domain.ShapeHint, bool) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return domain.HintDelimited, true
	case ".json":
		return domain.HintStructured, true
	default:
		return 0, false
	}
}

func (s *Server) handleUpload(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		metrics.UploadRejectionsTotal.WithLabelValues("missing_file").Inc()
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "missing file field"})
	}

	hint, ok := shapeHintForFilename(fileHeader.Filename)
	if !ok {
		metrics.UploadRejectionsTotal.WithLabelValues("unsupported_extension").Inc()
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "unsupported file type, expected .csv or .json",
		})
	}

	if fileHeader.Size > s.config.MaxUploadBytes {
		metrics.UploadRejectionsTotal.WithLabelValues("too_large").Inc()
		return c.JSON(http.StatusRequestEntityTooLarge, map[string]string{
			"error": "file exceeds upload size limit",
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to read upload"})
	}
	defer file.Close()

	// LimitReader guards against a lying Content-Length.
	payload, err := io.ReadAll(io.LimitReader(file, s.config.MaxUploadBytes+1))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to read upload"})
	}
	if int64(len(payload)) > s.config.MaxUploadBytes {
		metrics.UploadRejectionsTotal.WithLabelValues("too_large").Inc()
		return c.JSON(http.StatusRequestEntityTooLarge, map[string]string{
			"error": "file exceeds upload size limit",
		})
	}

	batch, err := s.app.IngestUpload(c.Request().Context(), fileHeader.Filename, payload, hint)
	if err != nil {
		return s.uploadError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"status":   "ok",
		"batch_id": batch.ID.String(),
		"source":   batch.Source,
		"records":  len(batch.Records),
	})
}

func (s *Server) uploadError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrUnsupportedFormat):
		metrics.UploadRejectionsTotal.WithLabelValues("unsupported_format").Inc()
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrUndecodableEncoding):
		metrics.UploadRejectionsTotal.WithLabelValues("undecodable_encoding").Inc()
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrMalformedBatch):
		metrics.UploadRejectionsTotal.WithLabelValues("malformed").Inc()
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrShuttingDown):
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "server is shutting down"})
	default:
		slog.Error("Upload failed", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func (s *Server) handleSample(c echo.Context) error {
	batch, err := s.app.LoadSample(c.Request().Context(), s.config.SampleRecordCount)
	if err != nil {
		if errors.Is(err, domain.ErrShuttingDown) {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "server is shutting down"})
		}
		slog.Error("Failed to load sample data", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"status":   "ok",
		"batch_id": batch.ID.String(),
		"source":   batch.Source,
		"records":  len(batch.Records),
	})
}

func (s *Server) handleData(c echo.Context) error {
	records := s.app.Snapshot()
	if records == nil {
		records = []domain.Record{}
	}
	return c.JSON(http.StatusOK, map[string]any{
		"records":       records,
		"total_records": len(records),
	})
}

func (s *Server) handleSummary(c echo.Context) error {
	return c.JSON(http.StatusOK, s.app.Summary())
}
