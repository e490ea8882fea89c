package ingest

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rahul-reddy-dataops/WebSocketKafkaStreamer/internal/domain"
)

// rawTable is the intermediate shape between parsing and type inference:
// an ordered column list plus rows of preliminary values. CSV cells start
// as text; JSON cells keep their native kind where one exists.
type rawTable struct {
	columns []string
	rows    []map[string]domain.Value
}

func newRawTable() *rawTable {
	return &rawTable{}
}

func (t *rawTable) addColumn(name string) {
	for _, c := range t.columns {
		if c == name {
			return
		}
	}
	t.columns = append(t.columns, name)
}

// clean drops rows that are entirely empty and columns that are entirely
// empty, preserving order.
func (t *rawTable) clean() {
	kept := t.rows[:0]
	for _, row := range t.rows {
		empty := true
		for _, col := range t.columns {
			if !row[col].IsNull() {
				empty = false
				break
			}
		}
		if !empty {
			kept = append(kept, row)
		}
	}
	t.rows = kept

	cols := t.columns[:0]
	for _, col := range t.columns {
		empty := true
		for _, row := range t.rows {
			if !row[col].IsNull() {
				empty = false
				break
			}
		}
		if !empty {
			cols = append(cols, col)
		} else {
			for _, row := range t.rows {
				delete(row, col)
			}
		}
	}
	t.columns = cols
}

// canonicalName trims the raw field name, collapses internal whitespace
// to underscores and lower-cases it.
func canonicalName(raw string) string {
	parts := strings.Fields(strings.TrimSpace(raw))
	return strings.ToLower(strings.Join(parts, "_"))
}

// scalarValue converts a decoded JSON value into a preliminary Value.
// Nested objects and arrays are rendered to JSON text; booleans have no
// variant of their own and become text.
func scalarValue(v any) domain.Value {
	switch v := v.(type) {
	case nil:
		return domain.Null()
	case string:
		if v == "" {
			return domain.Null()
		}
		return domain.Text(v)
	case json.Number:
		if i, err := strconv.ParseInt(v.String(), 10, 64); err == nil {
			return domain.Int(i)
		}
		if f, err := v.Float64(); err == nil {
			return domain.Float(f)
		}
		return domain.Text(v.String())
	case bool:
		if v {
			return domain.Text("true")
		}
		return domain.Text("false")
	default:
		rendered, err := json.Marshal(v)
		if err != nil {
			return domain.Null()
		}
		return domain.Text(string(rendered))
	}
}

// cellValue converts a raw CSV cell into a preliminary Value. Empty
// cells are null.
func cellValue(raw string) domain.Value {
	if strings.TrimSpace(raw) == "" {
		return domain.Null()
	}
	return domain.Text(raw)
}
