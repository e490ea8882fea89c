package stream

import (
	"sync"

	"github.com/rahul-reddy-dataops/WebSocketKafkaStreamer/internal/domain"
	"github.com/rahul-reddy-dataops/WebSocketKafkaStreamer/internal/metrics"
)

// DefaultMaxRecords is the retention cap used when none is configured.
const DefaultMaxRecords = 1000

// Buffer is the single shared record store. It holds the most recent
// records up to a fixed cap, evicting oldest-first. All mutation goes
// through Append and all reads through Snapshot, so the cap and recency
// ordering hold under arbitrary interleaving of producers and readers.
type Buffer struct {
	mu      sync.RWMutex
	max     int
	records []domain.Record
}

func NewBuffer(max int) *Buffer {
	if max <= 0 {
		max = DefaultMaxRecords
	}
	return &Buffer{max: max}
}

// Append atomically extends the buffer with all records of the batch and
// truncates to the newest max records. An oversized batch is accepted
// and immediately truncated to its own newest max records.
func (b *Buffer) Append(batch domain.Batch) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.records = append(b.records, batch.Records...)
	if excess := len(b.records) - b.max; excess > 0 {
		// Copy the tail into a fresh slice so evicted records are not
		// pinned by the backing array.
		trimmed := make([]domain.Record, b.max)
		copy(trimmed, b.records[excess:])
		b.records = trimmed
	}

	metrics.StreamBufferRecords.Set(float64(len(b.records)))
}

// Snapshot returns an independent copy of the current contents. A
// concurrent Append is observed entirely or not at all.
func (b *Buffer) Snapshot() []domain.Record {
	b.mu.RLock()
	defer b.mu.RUnlock()

	snap := make([]domain.Record, len(b.records))
	copy(snap, b.records)
	return snap
}

func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.records)
}

// Max returns the retention cap.
func (b *Buffer) Max() int { return b.max }
