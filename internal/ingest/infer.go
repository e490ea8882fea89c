package ingest

import (
	"strconv"
	"strings"
	"time"

	"github.com/rahul-reddy-dataops/WebSocketKafkaStreamer/internal/domain"
)

// NumericThreshold is the fraction of non-null values that must parse as
// numbers for a textual column to be promoted to numeric. The promotion
// requires strictly more than this fraction.
const NumericThreshold = 0.5

// temporalKeywords mark field names whose columns are tried as
// timestamps before any numeric inference.
var temporalKeywords = []string{"date", "time", "timestamp", "created", "updated", "start", "end"}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"Jan 2, 2006",
}

// InferTypes decides one semantic type per column. Decisions are made at
// column level, never per cell, so the tabular shape stays uniform.
// The function is deterministic and side-effect-free.
func InferTypes(t *rawTable) domain.FieldTypeMap {
	types := make(domain.FieldTypeMap, len(t.columns))
	for _, col := range t.columns {
		types[col] = inferColumn(t, col)
	}
	return types
}

func inferColumn(t *rawTable, col string) domain.FieldType {
	var total, numericKind, textKind, parsedNumeric, parsedTime int
	for _, row := range t.rows {
		v := row[col]
		if v.IsNull() {
			continue
		}
		total++
		switch v.Kind() {
		case domain.KindInt, domain.KindFloat:
			numericKind++
		case domain.KindTimestamp:
			// Already typed upstream; treat as parse success.
			parsedTime++
		default:
			textKind++
			s := strings.TrimSpace(v.Text())
			if _, ok := parseNumeric(s); ok {
				parsedNumeric++
			}
			if _, ok := parseTimestamp(s); ok {
				parsedTime++
			}
		}
	}
	if total == 0 {
		return domain.FieldText
	}

	// JSON-native numeric columns stay numeric; any mix of native
	// numbers and text is irreconcilable and falls back to text.
	if numericKind == total {
		return domain.FieldNumeric
	}
	if numericKind > 0 {
		return domain.FieldText
	}

	if hasTemporalKeyword(col) && float64(parsedTime)/float64(total) > NumericThreshold {
		return domain.FieldTimestamp
	}
	if float64(parsedNumeric)/float64(total) > NumericThreshold {
		return domain.FieldNumeric
	}
	return domain.FieldText
}

// applyTypes coerces every cell to its column's decided type. Cells that
// cannot be coerced to a numeric or timestamp column become null; cells
// in a textual column are re-rendered to text for consistency.
func applyTypes(t *rawTable, types domain.FieldTypeMap) {
	for _, col := range t.columns {
		switch types[col] {
		case domain.FieldNumeric:
			coerceNumericColumn(t, col)
		case domain.FieldTimestamp:
			coerceTimestampColumn(t, col)
		default:
			coerceTextColumn(t, col)
		}
	}
}

func coerceNumericColumn(t *rawTable, col string) {
	// A single fractional value makes the whole column float, otherwise
	// integers are kept exact.
	intLike := true
	for _, row := range t.rows {
		v := row[col]
		switch v.Kind() {
		case domain.KindFloat:
			intLike = false
		case domain.KindText:
			s := strings.TrimSpace(v.Text())
			if _, err := strconv.ParseInt(s, 10, 64); err != nil {
				if _, ok := parseNumeric(s); ok {
					intLike = false
				}
			}
		}
	}

	for _, row := range t.rows {
		v := row[col]
		if v.IsNull() {
			continue
		}
		switch v.Kind() {
		case domain.KindInt:
			if !intLike {
				row[col] = domain.Float(float64(v.Int64()))
			}
		case domain.KindFloat:
			// already numeric
		default:
			s := strings.TrimSpace(v.Text())
			if intLike {
				if i, err := strconv.ParseInt(s, 10, 64); err == nil {
					row[col] = domain.Int(i)
				} else {
					row[col] = domain.Null()
				}
				continue
			}
			if f, ok := parseNumeric(s); ok {
				row[col] = domain.Float(f)
			} else {
				row[col] = domain.Null()
			}
		}
	}
}

func coerceTimestampColumn(t *rawTable, col string) {
	for _, row := range t.rows {
		v := row[col]
		if v.IsNull() || v.Kind() == domain.KindTimestamp {
			continue
		}
		if ts, ok := parseTimestamp(strings.TrimSpace(v.Text())); ok {
			row[col] = domain.Timestamp(ts)
		} else {
			row[col] = domain.Null()
		}
	}
}

func coerceTextColumn(t *rawTable, col string) {
	for _, row := range t.rows {
		v := row[col]
		if v.IsNull() || v.Kind() == domain.KindText {
			continue
		}
		row[col] = domain.Text(v.Text())
	}
}

func hasTemporalKeyword(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range temporalKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func parseNumeric(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func parseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}
