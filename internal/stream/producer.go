package stream

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/rahul-reddy-dataops/WebSocketKafkaStreamer/internal/domain"
	"github.com/rahul-reddy-dataops/WebSocketKafkaStreamer/internal/ingest"
	"github.com/rahul-reddy-dataops/WebSocketKafkaStreamer/internal/metrics"
)

const defaultFailureBackoff = 5 * time.Second

// Ingestor is the entry point the producer shares with every other
// record source. The producer holds no special privilege over the buffer.
type Ingestor interface {
	Ingest(ctx context.Context, batch domain.Batch) error
}

// Producer periodically manufactures simulation records and feeds them
// through the normal ingestion path. It stops cooperatively when its
// context is cancelled, within one sleep interval.
type Producer struct {
	ingestor Ingestor
	gen      *ingest.Generator
	clock    clockwork.Clock
	interval time.Duration
	warmup   time.Duration
	backoff  time.Duration
}

func NewProducer(ingestor Ingestor, gen *ingest.Generator, clock clockwork.Clock, interval, warmup time.Duration) *Producer {
	return &Producer{
		ingestor: ingestor,
		gen:      gen,
		clock:    clock,
		interval: interval,
		warmup:   warmup,
		backoff:  defaultFailureBackoff,
	}
}

// Run blocks until ctx is cancelled. Transient ingestion failures are
// logged and retried after an extended interval, never fatal.
func (p *Producer) Run(ctx context.Context) {
	slog.Info("Simulation producer starting", "interval", p.interval, "warmup", p.warmup)

	warmup := p.clock.NewTimer(p.warmup)
	select {
	case <-ctx.Done():
		warmup.Stop()
		return
	case <-warmup.Chan():
	}

	counter := 0
	for {
		wait := p.interval
		batch := p.gen.SimulationBatch(counter)
		if err := p.ingestor.Ingest(ctx, batch); err != nil {
			slog.Warn("Simulation ingest failed, backing off", "counter", counter, "error", err)
			metrics.SimulationFailuresTotal.Inc()
			wait = p.backoff
		} else {
			metrics.SimulationRecordsTotal.Inc()
			counter++
		}

		timer := p.clock.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			slog.Info("Simulation producer stopped", "records_produced", counter)
			return
		case <-timer.Chan():
		}
	}
}
