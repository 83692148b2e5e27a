package ingestion

import (
	"chemviz/domain/equipment"
)

// Result is a parsed upload: the column mapping used, typed records in input order and their summary
type Result struct {
	Columns ColumnMap
	Records []equipment.Record
	Summary equipment.Summary
}

// Parse reads, maps, coerces and aggregates an uploaded CSV.
// It is pure: nothing is persisted and the input is not retained.
func Parse(data []byte) (*Result, error) {
	table, err := ReadCSV(data)
	if err != nil {
		return nil, err
	}

	columns, err := MapColumns(table.Headers)
	if err != nil {
		return nil, err
	}

	records := NewRecordCoercer(columns).Coerce(table)

	return &Result{
		Columns: columns,
		Records: records,
		Summary: Aggregate(records),
	}, nil
}

// NewDataset packages a parse result for the retention store under the given display name
func (r *Result) NewDataset(name string) equipment.NewDataset {
	return equipment.NewDataset{
		Name:    name,
		Summary: r.Summary,
		Records: r.Records,
	}
}
