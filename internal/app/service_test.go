package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahul-reddy-dataops/WebSocketKafkaStreamer/internal/domain"
	"github.com/rahul-reddy-dataops/WebSocketKafkaStreamer/internal/ingest"
	"github.com/rahul-reddy-dataops/WebSocketKafkaStreamer/internal/stream"
)

type fakePublisher struct {
	mu      sync.Mutex
	sources []string
}

func (f *fakePublisher) Publish(source string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sources = append(f.sources, source)
}

func (f *fakePublisher) published() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sources...)
}

type fakeSink struct {
	mu       sync.Mutex
	saved    []domain.Batch
	failWith error
}

func (f *fakeSink) Save(_ context.Context, batch domain.Batch) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return 0, f.failWith
	}
	f.saved = append(f.saved, batch)
	return int64(len(batch.Records)), nil
}

func (f *fakeSink) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saved)
}

func testService(sink domain.Sink) (*Service, *stream.Buffer, *fakePublisher) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	buf := stream.NewBuffer(1000)
	pub := &fakePublisher{}
	svc := NewService(ingest.NewNormalizer(clock), ingest.NewGenerator(clock), buf, pub, sink, clock)
	return svc, buf, pub
}

func TestService_IngestUpload(t *testing.T) {
	svc, buf, pub := testService(nil)

	payload := []byte("id,value\n1,10\n2,20\n")
	batch, err := svc.IngestUpload(context.Background(), "data.csv", payload, domain.HintDelimited)
	require.NoError(t, err)

	assert.Equal(t, "upload:data.csv", batch.Source)
	assert.Len(t, batch.Records, 2)
	assert.Equal(t, 2, buf.Len())
	assert.Equal(t, []string{"upload:data.csv"}, pub.published())
}

func TestService_IngestUploadRejectsInvalidPayload(t *testing.T) {
	svc, buf, pub := testService(nil)

	// Undecodable JSON is an unsupported format; a decodable payload
	// with no records is a malformed batch.
	_, err := svc.IngestUpload(context.Background(), "bad.json", []byte("{not json"), domain.HintStructured)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)

	_, err = svc.IngestUpload(context.Background(), "empty.json", []byte(`{"records":[]}`), domain.HintStructured)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMalformedBatch)

	assert.Equal(t, 0, buf.Len())
	assert.Empty(t, pub.published())
}

func TestService_LoadSample(t *testing.T) {
	svc, buf, pub := testService(nil)

	batch, err := svc.LoadSample(context.Background(), 50)
	require.NoError(t, err)

	assert.Equal(t, ingest.SourceSample, batch.Source)
	assert.Equal(t, 50, buf.Len())
	assert.Equal(t, []string{ingest.SourceSample}, pub.published())
}

func TestService_IngestPushesToSink(t *testing.T) {
	sink := &fakeSink{}
	svc, _, _ := testService(sink)

	_, err := svc.LoadSample(context.Background(), 10)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return sink.count() == 1
	}, time.Second, time.Millisecond)
}

func TestService_SinkFailureDoesNotAffectStream(t *testing.T) {
	sink := &fakeSink{failWith: errors.New("connection refused")}
	svc, buf, pub := testService(sink)

	_, err := svc.LoadSample(context.Background(), 10)
	require.NoError(t, err)

	assert.Equal(t, 10, buf.Len())
	assert.Len(t, pub.published(), 1)
	svc.Stop() // waits for the in-flight save
	assert.Equal(t, 0, sink.count())
}

func TestService_StopRejectsFurtherIngestion(t *testing.T) {
	svc, _, _ := testService(nil)
	svc.Stop()

	_, err := svc.LoadSample(context.Background(), 1)
	assert.ErrorIs(t, err, domain.ErrShuttingDown)

	_, err = svc.IngestUpload(context.Background(), "x.csv", []byte("a\n1\n"), domain.HintDelimited)
	assert.ErrorIs(t, err, domain.ErrShuttingDown)

	err = svc.Ingest(context.Background(), domain.Batch{})
	assert.ErrorIs(t, err, domain.ErrShuttingDown)
}

func TestService_StopWaitsForEveryAcceptedSave(t *testing.T) {
	sink := &fakeSink{}
	svc, _, _ := testService(sink)

	// Hammer Ingest from several goroutines while Stop races the save
	// reservation. Once Stop returns, every accepted ingest must have
	// its save completed.
	var accepted atomic.Int64
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if err := svc.Ingest(context.Background(), domain.Batch{Source: "simulation"}); err != nil {
					return
				}
				accepted.Add(1)
			}
		}()
	}

	require.Eventually(t, func() bool {
		return sink.count() > 0
	}, time.Second, time.Millisecond)

	svc.Stop()
	wg.Wait()
	assert.Equal(t, accepted.Load(), int64(sink.count()))
}

func TestService_Summary(t *testing.T) {
	svc, _, _ := testService(nil)

	payload := []byte("id,name,join_date\n1,alice,2024-01-15\n2,bob,2024-02-20\n3,,2024-03-25\n")
	_, err := svc.IngestUpload(context.Background(), "users.csv", payload, domain.HintDelimited)
	require.NoError(t, err)

	summary := svc.Summary()
	assert.Equal(t, 3, summary.TotalRecords)
	// id, name, joined plus the two synthetic fields.
	assert.Equal(t, 5, summary.TotalColumns)
	assert.Equal(t, 2, summary.NumericColumns)
	assert.Equal(t, 2, summary.TimestampColumns)
	assert.Equal(t, 1, summary.TextColumns)
	assert.Equal(t, 1, summary.MissingValues)
}

func TestService_SummaryEmptyStream(t *testing.T) {
	svc, _, _ := testService(nil)

	summary := svc.Summary()
	assert.Equal(t, domain.Summary{}, summary)
}
