package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/rahul-reddy-dataops/WebSocketKafkaStreamer/internal/domain"
	"github.com/rahul-reddy-dataops/WebSocketKafkaStreamer/internal/ingest"
	"github.com/rahul-reddy-dataops/WebSocketKafkaStreamer/internal/metrics"
)

const sinkSaveTimeout = 10 * time.Second

// Store is the in-memory record stream the service appends to and reads from.
type Store interface {
	Append(batch domain.Batch)
	Snapshot() []domain.Record
	Len() int
}

// Publisher notifies connected subscribers that the stream changed.
type Publisher interface {
	Publish(source string)
}

// Service orchestrates ingestion: normalize, append, persist, publish.
type Service struct {
	normalizer *ingest.Normalizer
	gen        *ingest.Generator
	store      Store
	publisher  Publisher
	sink       domain.Sink // nil when persistence is not configured
	clock      clockwork.Clock

	mu       sync.Mutex // guards closing and the sinkWg.Add/Wait pairing
	closing  bool
	sinkWg   sync.WaitGroup
	stopOnce sync.Once
}

// NewService creates the application layer service.
// sink may be nil if no database is configured.
func NewService(normalizer *ingest.Normalizer, gen *ingest.Generator, store Store, publisher Publisher, sink domain.Sink, clock clockwork.Clock) *Service {
	return &Service{
		normalizer: normalizer,
		gen:        gen,
		store:      store,
		publisher:  publisher,
		sink:       sink,
		clock:      clock,
	}
}

// IngestUpload normalizes an uploaded payload and feeds it through the
// ingestion path. The batch source carries the original filename.
func (s *Service) IngestUpload(ctx context.Context, filename string, payload []byte, hint domain.ShapeHint) (domain.Batch, error) {
	if s.isClosing() {
		return domain.Batch{}, domain.ErrShuttingDown
	}

	source := "upload:" + filename
	batch, err := s.normalizer.Normalize(payload, hint, source)
	if err != nil {
		metrics.IngestBatchesTotal.WithLabelValues(source, "error").Inc()
		return domain.Batch{}, err
	}

	if err := s.Ingest(ctx, batch); err != nil {
		return domain.Batch{}, err
	}
	return batch, nil
}

// LoadSample replaces nothing: it appends the canned demonstration
// batch like any other ingestion.
func (s *Service) LoadSample(ctx context.Context, count int) (domain.Batch, error) {
	if s.isClosing() {
		return domain.Batch{}, domain.ErrShuttingDown
	}

	batch := s.gen.SampleBatch(count)
	if err := s.Ingest(ctx, batch); err != nil {
		return domain.Batch{}, err
	}
	return batch, nil
}

// Ingest appends a batch to the stream, pushes it to the sink in the
// background and publishes the new snapshot. Sink failures are logged
// and never surface to the caller.
func (s *Service) Ingest(ctx context.Context, batch domain.Batch) error {
	// The save slot is reserved under the same lock as the closing
	// check, so every Add happens before Stop begins to Wait.
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		return domain.ErrShuttingDown
	}
	persist := s.sink != nil
	if persist {
		s.sinkWg.Add(1)
	}
	s.mu.Unlock()

	s.store.Append(batch)
	metrics.IngestBatchesTotal.WithLabelValues(batch.Source, "ok").Inc()
	metrics.IngestRecordsTotal.WithLabelValues(batch.Source).Add(float64(len(batch.Records)))

	if persist {
		go s.saveToSink(batch)
	}

	s.publisher.Publish(batch.Source)
	return nil
}

func (s *Service) isClosing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closing
}

func (s *Service) saveToSink(batch domain.Batch) {
	defer s.sinkWg.Done()

	// Detached from the request context so an aborted upload still persists.
	ctx, cancel := context.WithTimeout(context.Background(), sinkSaveTimeout)
	defer cancel()

	saved, err := s.sink.Save(ctx, batch)
	if err != nil {
		slog.Warn("Failed to persist batch, stream unaffected",
			"batch_id", batch.ID.String(), "source", batch.Source, "error", err)
		return
	}
	slog.Debug("Persisted batch", "batch_id", batch.ID.String(), "records", saved)
}

// Snapshot returns the current buffered records, oldest first.
func (s *Service) Snapshot() []domain.Record {
	return s.store.Snapshot()
}

// Summary recomputes column statistics from the live snapshot. A column
// is missing in a record when the field is absent or null.
func (s *Service) Summary() domain.Summary {
	records := s.store.Snapshot()

	type columnStats struct {
		numeric   int
		timestamp int
		text      int
		present   int
	}
	columns := make([]string, 0)
	stats := make(map[string]*columnStats)

	for _, rec := range records {
		for _, f := range rec.Fields() {
			cs, ok := stats[f.Name]
			if !ok {
				cs = &columnStats{}
				stats[f.Name] = cs
				columns = append(columns, f.Name)
			}
			switch f.Value.Kind() {
			case domain.KindInt, domain.KindFloat:
				cs.numeric++
				cs.present++
			case domain.KindTimestamp:
				cs.timestamp++
				cs.present++
			case domain.KindText:
				cs.text++
				cs.present++
			}
		}
	}

	summary := domain.Summary{
		TotalRecords: len(records),
		TotalColumns: len(columns),
	}
	for _, name := range columns {
		cs := stats[name]
		switch {
		case cs.present == 0 || cs.text > 0:
			summary.TextColumns++
		case cs.timestamp > 0 && cs.numeric == 0:
			summary.TimestampColumns++
		default:
			summary.NumericColumns++
		}
		summary.MissingValues += len(records) - cs.present
	}
	return summary
}

// Stop rejects further ingestion and waits for in-flight sink saves.
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.closing = true
		s.mu.Unlock()
		s.sinkWg.Wait()
		slog.Info("Ingestion service stopped")
	})
}
