package ingestion

import (
	"math"
	"strconv"
	"strings"

	"chemviz/domain/equipment"
)

// RecordCoercer turns mapped raw rows into typed equipment records.
// Malformed numeric cells are cleaned to 0.0 rather than rejected.
type RecordCoercer struct {
	columns ColumnMap
}

// NewRecordCoercer creates a coercer reading fields from the given columns
func NewRecordCoercer(columns ColumnMap) *RecordCoercer {
	return &RecordCoercer{columns: columns}
}

// Coerce converts every table row, preserving input order
func (c *RecordCoercer) Coerce(table *Table) []equipment.Record {
	records := make([]equipment.Record, 0, len(table.Rows))
	for i := range table.Rows {
		records = append(records, c.CoerceRow(table, i))
	}
	return records
}

// CoerceRow converts a single table row
func (c *RecordCoercer) CoerceRow(table *Table, row int) equipment.Record {
	cell := func(field equipment.Field) string {
		return table.Cell(row, c.columns[field].Index)
	}

	return equipment.Record{
		EquipmentName: strings.TrimSpace(cell(equipment.FieldName)),
		EquipmentType: strings.TrimSpace(cell(equipment.FieldType)),
		Flowrate:      CoerceNumeric(cell(equipment.FieldFlowrate)),
		Pressure:      CoerceNumeric(cell(equipment.FieldPressure)),
		Temperature:   CoerceNumeric(cell(equipment.FieldTemperature)),
	}
}

// CoerceNumeric parses a cell as a finite float64; empty, non-numeric, NaN and infinite values become 0.0
func CoerceNumeric(raw string) float64 {
	value, ok := tryParseNumeric(raw)
	if !ok {
		return 0.0
	}
	return value
}

func tryParseNumeric(raw string) (float64, bool) {
	cleanVal := strings.TrimSpace(raw)
	if cleanVal == "" {
		return 0, false
	}

	value, err := strconv.ParseFloat(cleanVal, 64)
	if err != nil {
		return 0, false
	}
	if math.IsInf(value, 0) || math.IsNaN(value) {
		return 0, false
	}
	return value, true
}
