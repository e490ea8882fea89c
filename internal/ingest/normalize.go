package ingest

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/rahul-reddy-dataops/WebSocketKafkaStreamer/internal/domain"
)

// Synthetic fields attached to every normalized record.
const (
	FieldRecordID    = "_record_id"
	FieldProcessedAt = "_processed_at"
)

// containerKeys are conventional wrapper keys searched, in order, when a
// structured payload is a nested object. First match with an array value
// wins.
var containerKeys = []string{"data", "items", "records", "results", "rows", "entries"}

// Normalizer converts raw payload bytes into a Batch of uniform typed
// records. It never mutates shared state; appending the result to the
// stream buffer is the caller's job.
type Normalizer struct {
	clock clockwork.Clock
}

func NewNormalizer(clock clockwork.Clock) *Normalizer {
	return &Normalizer{clock: clock}
}

// Normalize parses the payload according to the shape hint, cleans it,
// infers column types and produces an immutable Batch tagged with the
// given source. Failures are typed: ErrUnsupportedFormat,
// ErrUndecodableEncoding or ErrMalformedBatch.
func (n *Normalizer) Normalize(payload []byte, hint domain.ShapeHint, source string) (domain.Batch, error) {
	var (
		table *rawTable
		err   error
	)
	switch hint {
	case domain.HintDelimited:
		table, err = parseDelimited(payload)
	case domain.HintStructured:
		table, err = parseStructured(payload)
	default:
		return domain.Batch{}, fmt.Errorf("%w: unknown shape hint %d", domain.ErrUnsupportedFormat, hint)
	}
	if err != nil {
		return domain.Batch{}, err
	}

	table.clean()
	if len(table.rows) == 0 || len(table.columns) == 0 {
		return domain.Batch{}, fmt.Errorf("%w: no records after cleaning", domain.ErrMalformedBatch)
	}

	types := InferTypes(table)
	applyTypes(table, types)

	now := n.clock.Now().UTC()
	records := make([]domain.Record, len(table.rows))
	for i, row := range table.rows {
		rec := domain.NewRecord()
		for _, col := range table.columns {
			rec.Set(col, row[col])
		}
		rec.Set(FieldRecordID, domain.Int(int64(i)))
		rec.Set(FieldProcessedAt, domain.Timestamp(now))
		records[i] = rec
	}
	types[FieldRecordID] = domain.FieldNumeric
	types[FieldProcessedAt] = domain.FieldTimestamp

	return domain.Batch{
		ID:         uuid.New(),
		Source:     source,
		IngestedAt: now,
		Records:    records,
		Types:      types,
	}, nil
}

// parseDelimited handles the CSV path: decode with the encoding ladder,
// read header plus data rows, map empty cells to null.
func parseDelimited(payload []byte) (*rawTable, error) {
	text, _, err := decodeText(payload)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedBatch, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty delimited payload", domain.ErrMalformedBatch)
	}

	header := make([]string, len(rows[0]))
	for i, raw := range rows[0] {
		name := canonicalName(raw)
		if name == "" {
			name = "column_" + strconv.Itoa(i)
		}
		header[i] = name
	}

	table := newRawTable()
	for _, name := range header {
		table.addColumn(name)
	}

	for _, raw := range rows[1:] {
		row := make(map[string]domain.Value, len(header))
		for i, name := range header {
			if i < len(raw) {
				row[name] = cellValue(raw[i])
			} else {
				row[name] = domain.Null()
			}
		}
		table.rows = append(table.rows, row)
	}
	return table, nil
}

// parseStructured handles the JSON path. A top-level array yields one
// record per element; a flat object yields a single record; a nested
// object is searched for the record source.
func parseStructured(payload []byte) (*rawTable, error) {
	v, err := parseJSON(payload)
	if err != nil {
		return nil, err
	}

	switch v := v.(type) {
	case []any:
		return tableFromArray(v)
	case *jsonObject:
		return tableFromObject(v)
	default:
		return nil, fmt.Errorf("%w: top-level JSON value must be an object or array", domain.ErrUnsupportedFormat)
	}
}

func tableFromObject(obj *jsonObject) (*rawTable, error) {
	// Conventional container keys first.
	for _, key := range containerKeys {
		if v, ok := obj.get(key); ok {
			if arr, ok := v.([]any); ok {
				return tableFromArray(arr)
			}
		}
	}

	// Fall back to the largest array field; ties keep the first key.
	var (
		best    []any
		bestLen = -1
	)
	for _, k := range obj.keys {
		if arr, ok := obj.values[k].([]any); ok && len(arr) > bestLen {
			best = arr
			bestLen = len(arr)
		}
	}
	if bestLen >= 0 {
		return tableFromArray(best)
	}

	// No array field at all: the object itself is the single record.
	return tableFromArray([]any{obj})
}

func tableFromArray(arr []any) (*rawTable, error) {
	if len(arr) == 0 {
		return nil, fmt.Errorf("%w: record array is empty", domain.ErrMalformedBatch)
	}

	table := newRawTable()
	parsed := make([]*jsonObject, len(arr))
	for i, elem := range arr {
		obj, ok := elem.(*jsonObject)
		if !ok {
			return nil, fmt.Errorf("%w: array element %d is not an object", domain.ErrMalformedBatch, i)
		}
		// Nested objects become dot-path columns; arrays stay rendered
		// as text by scalarValue.
		flat := &jsonObject{values: make(map[string]any)}
		flattenObject(obj, "", func(key string, v any) {
			flat.set(key, v)
		})
		parsed[i] = flat
		for _, k := range flat.keys {
			name := canonicalName(k)
			if name == "" {
				continue
			}
			table.addColumn(name)
		}
	}

	for _, obj := range parsed {
		row := make(map[string]domain.Value, len(table.columns))
		for _, col := range table.columns {
			row[col] = domain.Null()
		}
		for _, k := range obj.keys {
			name := canonicalName(k)
			if name == "" {
				continue
			}
			row[name] = scalarValue(obj.values[k])
		}
		table.rows = append(table.rows, row)
	}
	return table, nil
}
