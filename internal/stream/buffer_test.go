package stream

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahul-reddy-dataops/WebSocketKafkaStreamer/internal/domain"
)

func batchOf(ids ...int64) domain.Batch {
	records := make([]domain.Record, len(ids))
	for i, id := range ids {
		rec := domain.NewRecord()
		rec.Set("id", domain.Int(id))
		records[i] = rec
	}
	return domain.Batch{ID: uuid.New(), Source: "sample", Records: records}
}

func recordID(t *testing.T, rec domain.Record) int64 {
	t.Helper()
	v, ok := rec.Get("id")
	require.True(t, ok)
	return v.Int64()
}

func TestBuffer_AppendAndSnapshot(t *testing.T) {
	buf := NewBuffer(10)
	buf.Append(batchOf(1, 2, 3))

	snap := buf.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, int64(1), recordID(t, snap[0]))
	assert.Equal(t, int64(3), recordID(t, snap[2]))
}

func TestBuffer_EvictsOldestFirst(t *testing.T) {
	// 1500 single-record appends against a cap of 1000 must leave
	// exactly records 501..1500 in order.
	buf := NewBuffer(1000)
	for i := int64(1); i <= 1500; i++ {
		buf.Append(batchOf(i))
	}

	snap := buf.Snapshot()
	require.Len(t, snap, 1000)
	assert.Equal(t, int64(501), recordID(t, snap[0]))
	assert.Equal(t, int64(1500), recordID(t, snap[999]))
	for i, rec := range snap {
		require.Equal(t, int64(501+i), recordID(t, rec))
	}
}

func TestBuffer_OversizedBatchKeepsNewestTail(t *testing.T) {
	buf := NewBuffer(3)
	buf.Append(batchOf(1, 2, 3, 4, 5))

	snap := buf.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, int64(3), recordID(t, snap[0]))
	assert.Equal(t, int64(5), recordID(t, snap[2]))
}

func TestBuffer_RecencyOrderingAcrossBatches(t *testing.T) {
	buf := NewBuffer(4)
	buf.Append(batchOf(1, 2, 3))
	buf.Append(batchOf(4, 5))

	snap := buf.Snapshot()
	require.Len(t, snap, 4)
	// The survivors of the first batch precede every record of the second.
	assert.Equal(t, []int64{2, 3, 4, 5}, []int64{
		recordID(t, snap[0]), recordID(t, snap[1]),
		recordID(t, snap[2]), recordID(t, snap[3]),
	})
}

func TestBuffer_SnapshotIsIndependentCopy(t *testing.T) {
	buf := NewBuffer(10)
	buf.Append(batchOf(1))

	snap := buf.Snapshot()
	buf.Append(batchOf(2))

	assert.Len(t, snap, 1)
	assert.Len(t, buf.Snapshot(), 2)
}

func TestBuffer_ConcurrentAppendsLoseNothing(t *testing.T) {
	const (
		producers         = 8
		appendsPerProducer = 50
	)
	buf := NewBuffer(producers * appendsPerProducer)

	var wg sync.WaitGroup
	for p := range producers {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := range appendsPerProducer {
				buf.Append(batchOf(int64(p*appendsPerProducer + i)))
			}
		}(p)
	}
	wg.Wait()

	assert.Equal(t, producers*appendsPerProducer, buf.Len())
}

func TestBuffer_BoundInvariantUnderConcurrency(t *testing.T) {
	const cap = 100
	buf := NewBuffer(cap)

	var readers, writers sync.WaitGroup
	done := make(chan struct{})

	// Readers assert the bound while writers race.
	for range 4 {
		readers.Add(1)
		go func() {
			defer readers.Done()
			for {
				select {
				case <-done:
					return
				default:
					assert.LessOrEqual(t, len(buf.Snapshot()), cap)
				}
			}
		}()
	}

	for p := range 4 {
		writers.Add(1)
		go func(p int) {
			defer writers.Done()
			for i := range 200 {
				buf.Append(batchOf(int64(p*200+i), int64(p*200+i)))
			}
		}(p)
	}

	writers.Wait()
	close(done)
	readers.Wait()

	assert.LessOrEqual(t, buf.Len(), cap)
}
