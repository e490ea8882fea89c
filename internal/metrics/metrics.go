package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ingestion metrics
var (
	// IngestBatchesTotal tracks normalization outcomes by source and status
	IngestBatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_batches_total",
			Help: "Total ingested batches by source and status",
		},
		[]string{"source", "status"},
	)

	// IngestRecordsTotal tracks records appended to the stream by source
	IngestRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_records_total",
			Help: "Total records appended to the stream buffer by source",
		},
		[]string{"source"},
	)

	// UploadRejectionsTotal tracks rejected uploads by reason
	UploadRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upload_rejections_total",
			Help: "Total rejected uploads by reason",
		},
		[]string{"reason"},
	)
)

// Stream buffer metrics
var (
	// StreamBufferRecords tracks the current number of buffered records
	StreamBufferRecords = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stream_buffer_records",
			Help: "Current number of records held in the stream buffer",
		},
	)

	// SimulationRecordsTotal tracks records produced by the simulation loop
	SimulationRecordsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "simulation_records_total",
			Help: "Total records produced by the synthetic producer",
		},
	)

	// SimulationFailuresTotal tracks transient simulation ingest failures
	SimulationFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "simulation_failures_total",
			Help: "Total transient failures in the synthetic producer",
		},
	)
)

// Broadcast metrics
var (
	// BroadcastSubscribers tracks currently registered subscribers
	BroadcastSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "broadcast_subscribers",
			Help: "Number of currently registered subscribers",
		},
	)

	// BroadcastPublishesTotal tracks snapshot publishes to the hub
	BroadcastPublishesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "broadcast_publishes_total",
			Help: "Total snapshot publishes through the broadcast hub",
		},
	)

	// BroadcastCoalescedUpdatesTotal tracks stale pending snapshots replaced by newer ones
	BroadcastCoalescedUpdatesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "broadcast_coalesced_updates_total",
			Help: "Total stale pending snapshots replaced before delivery",
		},
	)

	// BroadcastSlowSubscribersEvicted tracks subscribers removed for not draining
	BroadcastSlowSubscribersEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "broadcast_slow_subscribers_evicted_total",
			Help: "Total subscribers evicted for failing to drain updates",
		},
	)

	// WebSocketMessageSendDuration tracks outbound websocket write latency
	WebSocketMessageSendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "websocket_message_send_duration_seconds",
			Help:    "WebSocket message send duration in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		},
	)
)

// Sink metrics
var (
	// SinkSavesTotal tracks persistence attempts by status
	SinkSavesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sink_saves_total",
			Help: "Total batch persistence attempts by status",
		},
		[]string{"status"},
	)

	// SinkSaveDuration tracks persistence latency in seconds
	SinkSaveDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sink_save_duration_seconds",
			Help:    "Batch persistence duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
	)
)
