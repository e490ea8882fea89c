package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/sony/gobreaker"

	"github.com/rahul-reddy-dataops/WebSocketKafkaStreamer/internal/domain"
	"github.com/rahul-reddy-dataops/WebSocketKafkaStreamer/internal/metrics"
)

// RecordSink archives ingested batches to PostgreSQL. Saves run behind a
// circuit breaker so a dead database fails fast instead of piling up
// blocked goroutines.
type RecordSink struct {
	pool    *pgxpool.Pool
	breaker *gobreaker.CircuitBreaker
	clock   clockwork.Clock
}

var _ domain.Sink = (*RecordSink)(nil)

func NewRecordSink(pool *pgxpool.Pool, clock clockwork.Clock) *RecordSink {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "postgres-sink",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Sink circuit breaker state changed",
				"name", name, "from", from.String(), "to", to.String())
		},
	})
	return &RecordSink{pool: pool, breaker: breaker, clock: clock}
}

// Save writes the batch header and its records in one transaction and
// returns the number of records persisted.
func (s *RecordSink) Save(ctx context.Context, batch domain.Batch) (int64, error) {
	start := s.clock.Now()
	saved, err := s.breaker.Execute(func() (any, error) {
		return s.save(ctx, batch)
	})
	metrics.SinkSaveDuration.Observe(s.clock.Since(start).Seconds())
	if err != nil {
		metrics.SinkSavesTotal.WithLabelValues("error").Inc()
		return 0, err
	}

	metrics.SinkSavesTotal.WithLabelValues("ok").Inc()
	return saved.(int64), nil
}

func (s *RecordSink) save(ctx context.Context, batch domain.Batch) (int64, error) {
	payloads := make([][]byte, len(batch.Records))
	for i, rec := range batch.Records {
		payload, err := json.Marshal(rec)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal record %d: %w", i, err)
		}
		payloads[i] = payload
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	_, err = tx.Exec(ctx, `
		INSERT INTO record_batches (id, source, record_count, ingested_at)
		VALUES ($1, $2, $3, $4)
	`, batch.ID, batch.Source, len(batch.Records), batch.IngestedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert batch: %w", err)
	}

	copied, err := tx.CopyFrom(ctx,
		pgx.Identifier{"batch_records"},
		[]string{"batch_id", "position", "payload"},
		pgx.CopyFromSlice(len(payloads), func(i int) ([]any, error) {
			return []any{batch.ID, i, payloads[i]}, nil
		}),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to copy records: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return copied, nil
}
