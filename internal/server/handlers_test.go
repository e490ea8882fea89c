package server

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/rahul-reddy-dataops/WebSocketKafkaStreamer/internal/broadcast"
	"github.com/rahul-reddy-dataops/WebSocketKafkaStreamer/internal/config"
	"github.com/rahul-reddy-dataops/WebSocketKafkaStreamer/internal/domain"
)

// mockAppService implements AppService with canned responses.
type mockAppService struct {
	uploadBatch domain.Batch
	uploadErr   error
	sampleBatch domain.Batch
	sampleErr   error
	records     []domain.Record
	summary     domain.Summary

	lastFilename string
	lastPayload  []byte
	lastHint     domain.ShapeHint
}

func (m *mockAppService) IngestUpload(_ context.Context, filename string, payload []byte, hint domain.ShapeHint) (domain.Batch, error) {
	m.lastFilename = filename
	m.lastPayload = payload
	m.lastHint = hint
	if m.uploadErr != nil {
		return domain.Batch{}, m.uploadErr
	}
	return m.uploadBatch, nil
}

func (m *mockAppService) LoadSample(context.Context, int) (domain.Batch, error) {
	if m.sampleErr != nil {
		return domain.Batch{}, m.sampleErr
	}
	return m.sampleBatch, nil
}

func (m *mockAppService) Snapshot() []domain.Record { return m.records }
func (m *mockAppService) Summary() domain.Summary   { return m.summary }

// mockBroadcaster hands out subscribers backed by a real hub so writer
// plumbing works end to end.
type mockBroadcaster struct {
	hub *broadcast.Hub
}

func (m *mockBroadcaster) Subscribe() (*broadcast.Subscriber, error) { return m.hub.Subscribe() }
func (m *mockBroadcaster) Unsubscribe(id uuid.UUID)                  { m.hub.Unsubscribe(id) }

type staticSource struct{ records []domain.Record }

func (s *staticSource) Snapshot() []domain.Record { return s.records }

func testConfig() *config.Config {
	return &config.Config{
		Port:                    "8080",
		MaxRecords:              1000,
		SampleRecordCount:       100,
		MaxUploadBytes:          1024,
		UploadRatePerSecond:     100,
		UploadRateBurst:         100,
		MaxWebSocketConnections: 100,
	}
}

func newTestServer(t *testing.T, app AppService) *Server {
	t.Helper()
	return newTestServerWithConfig(t, app, testConfig())
}

func newTestServerWithConfig(t *testing.T, app AppService, cfg *config.Config) *Server {
	t.Helper()

	hub := broadcast.NewHub(&staticSource{}, clockwork.NewRealClock(), 0)
	t.Cleanup(hub.Stop)

	return NewServer(cfg, app, &mockBroadcaster{hub: hub}, nil, clockwork.NewRealClock())
}

// multipartUpload builds a multipart request body with one file field.
func multipartUpload(t *testing.T, filename string, payload []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(payload)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	return &buf, writer.FormDataContentType()
}

func uploadRequest(t *testing.T, srv *Server, filename string, payload []byte) *httptest.ResponseRecorder {
	t.Helper()

	body, contentType := multipartUpload(t, filename, payload)
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	c := srv.echo.NewContext(req, rec)

	require.NoError(t, srv.handleUpload(c))
	return rec
}
