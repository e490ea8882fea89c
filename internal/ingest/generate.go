package ingest

import (
	"math"
	"math/rand"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/rahul-reddy-dataops/WebSocketKafkaStreamer/internal/domain"
)

const (
	SourceSample     = "sample"
	SourceSimulation = "simulation"

	// sampleSeed keeps the canned sample reproducible across runs.
	sampleSeed = 42
)

var (
	sampleCategories = []string{"A", "B", "C", "D", "E"}
	sampleStatuses   = []string{"active", "inactive", "pending"}
	samplePriorities = []string{"high", "medium", "low"}
	regions          = []string{"North", "South", "East", "West"}
)

// Generator manufactures record batches for the sample loader and the
// simulation producer. Generated batches carry the same synthetic fields
// as normalized uploads so downstream consumers see one uniform shape.
type Generator struct {
	clock clockwork.Clock
}

func NewGenerator(clock clockwork.Clock) *Generator {
	return &Generator{clock: clock}
}

// SampleBatch produces count demonstration records with a fixed RNG seed.
func (g *Generator) SampleBatch(count int) domain.Batch {
	rng := rand.New(rand.NewSource(sampleSeed))
	now := g.clock.Now().UTC()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	records := make([]domain.Record, count)
	for i := range count {
		rec := domain.NewRecord()
		rec.Set("id", domain.Int(int64(i+1)))
		rec.Set("timestamp", domain.Timestamp(start.Add(time.Duration(i)*time.Hour)))
		rec.Set("value", domain.Float(round2(rng.NormFloat64()*15+100)))
		rec.Set("category", domain.Text(sampleCategories[rng.Intn(len(sampleCategories))]))
		rec.Set("status", domain.Text(sampleStatuses[rng.Intn(len(sampleStatuses))]))
		rec.Set("score", domain.Float(round2(rng.Float64()*100)))
		rec.Set("region", domain.Text(regions[rng.Intn(len(regions))]))
		rec.Set("priority", domain.Text(samplePriorities[rng.Intn(len(samplePriorities))]))
		rec.Set("amount", domain.Float(round2(rng.ExpFloat64()*50)))
		rec.Set(FieldRecordID, domain.Int(int64(i)))
		rec.Set(FieldProcessedAt, domain.Timestamp(now))
		records[i] = rec
	}

	return domain.Batch{
		ID:         uuid.New(),
		Source:     SourceSample,
		IngestedAt: now,
		Records:    records,
		Types: domain.FieldTypeMap{
			"id":             domain.FieldNumeric,
			"timestamp":      domain.FieldTimestamp,
			"value":          domain.FieldNumeric,
			"category":       domain.FieldText,
			"status":         domain.FieldText,
			"score":          domain.FieldNumeric,
			"region":         domain.FieldText,
			"priority":       domain.FieldText,
			"amount":         domain.FieldNumeric,
			FieldRecordID:    domain.FieldNumeric,
			FieldProcessedAt: domain.FieldTimestamp,
		},
	}
}

// SimulationBatch produces the single-record batch the synthetic
// producer feeds into the ingestion path on each tick.
func (g *Generator) SimulationBatch(counter int) domain.Batch {
	now := g.clock.Now().UTC()

	status := "inactive"
	if counter%2 == 0 {
		status = "active"
	}

	rec := domain.NewRecord()
	rec.Set("id", domain.Int(int64(counter)))
	rec.Set("timestamp", domain.Timestamp(now))
	rec.Set("value", domain.Int(int64(100+counter%50)))
	rec.Set("category", domain.Text("Category_"+strconv.Itoa(counter%5)))
	rec.Set("status", domain.Text(status))
	rec.Set("metric_1", domain.Float(round2(math.Mod(float64(counter)*1.5, 100))))
	rec.Set("metric_2", domain.Float(round2(math.Mod(float64(counter)*2.3, 200))))
	rec.Set("region", domain.Text(regions[counter%len(regions)]))
	rec.Set(FieldRecordID, domain.Int(0))
	rec.Set(FieldProcessedAt, domain.Timestamp(now))

	return domain.Batch{
		ID:         uuid.New(),
		Source:     SourceSimulation,
		IngestedAt: now,
		Records:    []domain.Record{rec},
		Types: domain.FieldTypeMap{
			"id":             domain.FieldNumeric,
			"timestamp":      domain.FieldTimestamp,
			"value":          domain.FieldNumeric,
			"category":       domain.FieldText,
			"status":         domain.FieldText,
			"metric_1":       domain.FieldNumeric,
			"metric_2":       domain.FieldNumeric,
			"region":         domain.FieldText,
			FieldRecordID:    domain.FieldNumeric,
			FieldProcessedAt: domain.FieldTimestamp,
		},
	}
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
