package equipment

import (
	"sort"
	"time"

	"chemviz/domain/core"
)

// Field is one of the canonical columns every upload is normalized to
type Field string

const (
	FieldName        Field = "equipment_name"
	FieldType        Field = "equipment_type"
	FieldFlowrate    Field = "flowrate"
	FieldPressure    Field = "pressure"
	FieldTemperature Field = "temperature"
)

// CanonicalFields lists the canonical columns in reporting order
var CanonicalFields = []Field{FieldName, FieldType, FieldFlowrate, FieldPressure, FieldTemperature}

// Record is a single piece of equipment belonging to a dataset
type Record struct {
	ID            int64          `json:"id" db:"id"`
	DatasetID     core.DatasetID `json:"-" db:"dataset_id"`
	EquipmentName string         `json:"equipment_name" db:"equipment_name"`
	EquipmentType string         `json:"equipment_type" db:"equipment_type"`
	Flowrate      float64        `json:"flowrate" db:"flowrate"`
	Pressure      float64        `json:"pressure" db:"pressure"`
	Temperature   float64        `json:"temperature" db:"temperature"`
}

// Summary holds the aggregate statistics computed over a record set
type Summary struct {
	TotalRecords     int            `json:"total_records"`
	AvgFlowrate      float64        `json:"avg_flowrate"`
	AvgPressure      float64        `json:"avg_pressure"`
	AvgTemperature   float64        `json:"avg_temperature"`
	TypeDistribution map[string]int `json:"type_distribution"`
}

// DatasetSummary is a stored dataset without its records
type DatasetSummary struct {
	ID        core.DatasetID `json:"id"`
	OwnerID   core.UserID    `json:"-"`
	Name      string         `json:"name"`
	CreatedAt time.Time      `json:"uploaded_at"`
	Summary
}

// Dataset is an uploaded batch of equipment records together with its summary.
// Records are ordered by equipment name.
type Dataset struct {
	DatasetSummary
	Records []Record `json:"records"`
}

// NewDataset is the input to the retention store: a parsed upload awaiting persistence
type NewDataset struct {
	Name    string
	Summary Summary
	Records []Record
}

// IngestResult reports the created dataset and any datasets evicted to make room for it
type IngestResult struct {
	Dataset *Dataset
	Evicted []core.DatasetID
}

// SortRecords orders records by equipment name, keeping input order for equal names
func SortRecords(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].EquipmentName < records[j].EquipmentName
	})
}
