package report

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/montanaflynn/stats"

	"chemviz/domain/equipment"
)

// Title heads every rendered report
const Title = "Chemical Equipment Parameter Report"

// Units for the numeric equipment parameters
const (
	UnitFlowrate    = "L/min"
	UnitPressure    = "bar"
	UnitTemperature = "°C"
)

// ReportData is a stored dataset projected for rendering
type ReportData struct {
	Title          string            `json:"title"`
	DatasetID      string            `json:"dataset_id"`
	DatasetName    string            `json:"dataset_name"`
	Username       string            `json:"username"`
	UploadedAt     time.Time         `json:"uploaded_at"`
	GeneratedAt    time.Time         `json:"generated_at"`
	TotalRecords   int               `json:"total_records"`
	AvgFlowrate    float64           `json:"avg_flowrate"`
	AvgPressure    float64           `json:"avg_pressure"`
	AvgTemperature float64           `json:"avg_temperature"`
	Distribution   []DistributionRow `json:"distribution"`
	Records        []RecordRow       `json:"records"`
}

// DistributionRow is one equipment type with its share of the dataset
type DistributionRow struct {
	Type       string  `json:"type"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// RecordRow is a numbered record with numerics formatted to one decimal
type RecordRow struct {
	Index       int    `json:"index"`
	Name        string `json:"equipment_name"`
	Type        string `json:"equipment_type"`
	Flowrate    string `json:"flowrate"`
	Pressure    string `json:"pressure"`
	Temperature string `json:"temperature"`
}

// SummaryRow is a labelled summary metric with its unit
type SummaryRow struct {
	Metric string
	Value  string
}

// Assemble projects a dataset for rendering. It does not read the clock.
func Assemble(ds *equipment.Dataset, username string, generatedAt time.Time) *ReportData {
	data := &ReportData{
		Title:          Title,
		DatasetID:      ds.ID.String(),
		DatasetName:    ds.Name,
		Username:       username,
		UploadedAt:     ds.CreatedAt,
		GeneratedAt:    generatedAt,
		TotalRecords:   ds.TotalRecords,
		AvgFlowrate:    ds.AvgFlowrate,
		AvgPressure:    ds.AvgPressure,
		AvgTemperature: ds.AvgTemperature,
		Distribution:   make([]DistributionRow, 0, len(ds.TypeDistribution)),
		Records:        make([]RecordRow, 0, len(ds.Records)),
	}

	total := ds.TotalRecords
	if total == 0 {
		total = 1
	}

	types := make([]string, 0, len(ds.TypeDistribution))
	for t := range ds.TypeDistribution {
		types = append(types, t)
	}
	sort.Strings(types)

	for _, t := range types {
		count := ds.TypeDistribution[t]
		pct, _ := stats.Round(float64(count)/float64(total)*100, 1)
		data.Distribution = append(data.Distribution, DistributionRow{Type: t, Count: count, Percentage: pct})
	}

	for i, rec := range ds.Records {
		data.Records = append(data.Records, RecordRow{
			Index:       i + 1,
			Name:        rec.EquipmentName,
			Type:        rec.EquipmentType,
			Flowrate:    fmt.Sprintf("%.1f", rec.Flowrate),
			Pressure:    fmt.Sprintf("%.1f", rec.Pressure),
			Temperature: fmt.Sprintf("%.1f", rec.Temperature),
		})
	}

	return data
}

// Subtitle is the dataset / generated / user line under the title
func (d *ReportData) Subtitle() string {
	return fmt.Sprintf("Dataset: %s | Generated: %s | User: %s",
		d.DatasetName, d.GeneratedAt.Format("2006-01-02 15:04"), d.Username)
}

// SummaryRows lists the summary metrics with units
func (d *ReportData) SummaryRows() []SummaryRow {
	return []SummaryRow{
		{Metric: "Total Equipment", Value: strconv.Itoa(d.TotalRecords)},
		{Metric: "Avg Flowrate", Value: formatDecimal(d.AvgFlowrate) + " " + UnitFlowrate},
		{Metric: "Avg Pressure", Value: formatDecimal(d.AvgPressure) + " " + UnitPressure},
		{Metric: "Avg Temperature", Value: formatDecimal(d.AvgTemperature) + " " + UnitTemperature},
	}
}

// FormatPercentage renders a distribution share, e.g. "50.0%"
func FormatPercentage(pct float64) string {
	return formatDecimal(pct) + "%"
}

// RecordHeaders are the column titles of the records table
var RecordHeaders = []string{"#", "Equipment Name", "Type", "Flowrate (L/min)", "Pressure (bar)", "Temp (°C)"}

// DistributionHeaders are the column titles of the distribution table
var DistributionHeaders = []string{"Equipment Type", "Count", "Percentage"}

// formatDecimal prints the shortest exact representation, keeping at least one decimal place
func formatDecimal(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
