package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahul-reddy-dataops/WebSocketKafkaStreamer/internal/domain"
)

func tableOf(t *testing.T, col string, cells []domain.Value) *rawTable {
	t.Helper()
	table := newRawTable()
	table.addColumn(col)
	for _, c := range cells {
		table.rows = append(table.rows, map[string]domain.Value{col: c})
	}
	return table
}

func textCells(values ...string) []domain.Value {
	cells := make([]domain.Value, len(values))
	for i, v := range values {
		cells[i] = domain.Text(v)
	}
	return cells
}

func TestInferTypes_NumericMajority(t *testing.T) {
	// 75% of values parse: the column is promoted to numeric.
	table := tableOf(t, "v", textCells("12", "abc", "7", "9"))
	types := InferTypes(table)
	assert.Equal(t, domain.FieldNumeric, types["v"])
}

func TestInferTypes_NumericExactlyHalfStaysText(t *testing.T) {
	// Exactly 50% is not "more than half": the column stays textual.
	table := tableOf(t, "v", textCells("12", "abc", "xyz", "9"))
	types := InferTypes(table)
	assert.Equal(t, domain.FieldText, types["v"])
}

func TestInferTypes_TemporalKeywordColumn(t *testing.T) {
	table := tableOf(t, "created_at", textCells("2024-03-01", "2024-03-02", "2024-03-03"))
	types := InferTypes(table)
	assert.Equal(t, domain.FieldTimestamp, types["created_at"])
}

func TestInferTypes_TemporalNameWithoutParseableValues(t *testing.T) {
	table := tableOf(t, "update_reason", textCells("late", "missing", "other"))
	types := InferTypes(table)
	assert.Equal(t, domain.FieldText, types["update_reason"])
}

func TestInferTypes_MixedNativeKindsFallBackToText(t *testing.T) {
	table := tableOf(t, "v", []domain.Value{domain.Int(1), domain.Text("one"), domain.Int(3)})
	types := InferTypes(table)
	assert.Equal(t, domain.FieldText, types["v"])
}

func TestApplyTypes_NumericCoercion(t *testing.T) {
	table := tableOf(t, "v", textCells("12", "abc", "7", "9"))
	types := InferTypes(table)
	applyTypes(table, types)

	// Parseable cells become integers, the stray cell becomes null.
	assert.Equal(t, int64(12), table.rows[0]["v"].Int64())
	assert.True(t, table.rows[1]["v"].IsNull())
	assert.Equal(t, int64(7), table.rows[2]["v"].Int64())
}

func TestApplyTypes_FractionalValuePromotesColumnToFloat(t *testing.T) {
	table := tableOf(t, "v", textCells("1", "2.5", "3"))
	types := InferTypes(table)
	require.Equal(t, domain.FieldNumeric, types["v"])
	applyTypes(table, types)

	for _, row := range table.rows {
		assert.Equal(t, domain.KindFloat, row["v"].Kind())
	}
	assert.Equal(t, 2.5, table.rows[1]["v"].Float64())
}

func TestApplyTypes_TimestampUnparseableCellBecomesNull(t *testing.T) {
	table := tableOf(t, "start_date", textCells("2024-01-01", "not a date", "2024-01-03"))
	types := InferTypes(table)
	require.Equal(t, domain.FieldTimestamp, types["start_date"])
	applyTypes(table, types)

	assert.Equal(t, domain.KindTimestamp, table.rows[0]["start_date"].Kind())
	assert.True(t, table.rows[1]["start_date"].IsNull())
}

func TestApplyTypes_TextColumnReRendersNumericCells(t *testing.T) {
	table := tableOf(t, "v", []domain.Value{domain.Int(1), domain.Text("one"), domain.Float(2.5)})
	types := InferTypes(table)
	require.Equal(t, domain.FieldText, types["v"])
	applyTypes(table, types)

	assert.Equal(t, domain.Text("1"), table.rows[0]["v"])
	assert.Equal(t, domain.Text("one"), table.rows[1]["v"])
	assert.Equal(t, domain.Text("2.5"), table.rows[2]["v"])
}

func TestInferTypes_DeterministicAcrossRuns(t *testing.T) {
	table := tableOf(t, "v", textCells("1", "2", "x", "4"))
	first := InferTypes(table)
	for range 10 {
		assert.Equal(t, first, InferTypes(table))
	}
}
