package domain

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// FieldType is the column-level type decision made by the inferencer.
type FieldType uint8

const (
	FieldText FieldType = iota
	FieldNumeric
	FieldTimestamp
)

func (t FieldType) String() string {
	switch t {
	case FieldNumeric:
		return "numeric"
	case FieldTimestamp:
		return "timestamp"
	default:
		return "text"
	}
}

// FieldTypeMap maps canonical field names to their inferred types.
type FieldTypeMap map[string]FieldType

// Field is one named cell of a record.
type Field struct {
	Name  string
	Value Value
}

// Record is an ordered mapping from canonical field name to typed value.
// Field order is preserved from the source table so that repeated
// normalization of the same payload yields an identical shape.
type Record struct {
	fields []Field
	index  map[string]int
}

// NewRecord builds a record from ordered fields. Later duplicates of a
// name overwrite the earlier value but keep the original position.
func NewRecord(fields ...Field) Record {
	r := Record{
		fields: make([]Field, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for _, f := range fields {
		r.Set(f.Name, f.Value)
	}
	return r
}

func (r *Record) Set(name string, v Value) {
	if i, ok := r.index[name]; ok {
		r.fields[i].Value = v
		return
	}
	if r.index == nil {
		r.index = make(map[string]int)
	}
	r.index[name] = len(r.fields)
	r.fields = append(r.fields, Field{Name: name, Value: v})
}

func (r Record) Get(name string) (Value, bool) {
	i, ok := r.index[name]
	if !ok {
		return Null(), false
	}
	return r.fields[i].Value, true
}

// Fields returns the record's fields in order. The slice is shared;
// callers must not mutate it.
func (r Record) Fields() []Field { return r.fields }

func (r Record) Len() int { return len(r.fields) }

// MarshalJSON emits a JSON object preserving field order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		val, err := f.Value.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Batch is the result of one normalization call: ordered records plus
// provenance. It is immutable after creation.
type Batch struct {
	ID         uuid.UUID
	Source     string // "upload:<filename>", "sample" or "simulation"
	IngestedAt time.Time
	Records    []Record
	Types      FieldTypeMap
}

// ShapeHint tells the normalizer which tabular encoding to expect.
type ShapeHint uint8

const (
	// HintDelimited is delimited text with a header row (CSV).
	HintDelimited ShapeHint = iota
	// HintStructured is structured object/array text (JSON).
	HintStructured
)

// Update is the payload delivered to every subscriber: the full current
// snapshot, never a diff.
type Update struct {
	Records      []Record  `json:"records"`
	TotalRecords int       `json:"total_records"`
	Timestamp    time.Time `json:"timestamp"`
	Source       string    `json:"source"`
}

// Summary describes the current buffer contents at a glance.
type Summary struct {
	TotalRecords     int `json:"total_records"`
	TotalColumns     int `json:"total_columns"`
	NumericColumns   int `json:"numeric_columns"`
	TimestampColumns int `json:"timestamp_columns"`
	TextColumns      int `json:"text_columns"`
	MissingValues    int `json:"missing_values"`
}
