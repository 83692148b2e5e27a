package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"chemviz/domain/equipment"
	apperrors "chemviz/internal/errors"
)

var generatedAt = time.Date(2024, 3, 1, 14, 5, 0, 0, time.UTC)

func sampleDataset() *equipment.Dataset {
	return &equipment.Dataset{
		DatasetSummary: equipment.DatasetSummary{
			ID:        "0190b6a4-0000-7000-8000-000000000002",
			Name:      "plant.csv",
			CreatedAt: generatedAt.Add(-time.Hour),
			Summary: equipment.Summary{
				TotalRecords:     3,
				AvgFlowrate:      60,
				AvgPressure:      3.3,
				AvgTemperature:   40.25,
				TypeDistribution: map[string]int{"Valve": 1, "Pump": 2},
			},
		},
		Records: []equipment.Record{
			{EquipmentName: "Pump-1", EquipmentType: "Pump", Flowrate: 120, Pressure: 4.56, Temperature: 80},
			{EquipmentName: "Pump-2", EquipmentType: "Pump", Flowrate: 60, Pressure: 3.3, Temperature: 41},
			{EquipmentName: "Valve-2", EquipmentType: "Valve", Flowrate: 0, Pressure: 2.1, Temperature: 0},
		},
	}
}

func TestAssemble(t *testing.T) {
	data := Assemble(sampleDataset(), "alice", generatedAt)

	assert.Equal(t, Title, data.Title)
	assert.Equal(t, "plant.csv", data.DatasetName)
	assert.Equal(t, "alice", data.Username)
	assert.Equal(t, generatedAt, data.GeneratedAt)
	assert.Equal(t, 3, data.TotalRecords)

	assert.Equal(t, []DistributionRow{
		{Type: "Pump", Count: 2, Percentage: 66.7},
		{Type: "Valve", Count: 1, Percentage: 33.3},
	}, data.Distribution)

	require.Len(t, data.Records, 3)
	assert.Equal(t, RecordRow{
		Index: 1, Name: "Pump-1", Type: "Pump", Flowrate: "120.0", Pressure: "4.6", Temperature: "80.0",
	}, data.Records[0])
	assert.Equal(t, 3, data.Records[2].Index)
}

func TestAssembleEmptyDataset(t *testing.T) {
	ds := &equipment.Dataset{
		DatasetSummary: equipment.DatasetSummary{
			Name:    "empty.csv",
			Summary: equipment.Summary{TypeDistribution: map[string]int{}},
		},
	}

	data := Assemble(ds, "bob", generatedAt)
	assert.Empty(t, data.Distribution)
	assert.Empty(t, data.Records)
	assert.Equal(t, "0.0 L/min", data.SummaryRows()[1].Value)
}

func TestSummaryRows(t *testing.T) {
	rows := Assemble(sampleDataset(), "alice", generatedAt).SummaryRows()

	assert.Equal(t, []SummaryRow{
		{Metric: "Total Equipment", Value: "3"},
		{Metric: "Avg Flowrate", Value: "60.0 L/min"},
		{Metric: "Avg Pressure", Value: "3.3 bar"},
		{Metric: "Avg Temperature", Value: "40.25 °C"},
	}, rows)
}

func TestFilename(t *testing.T) {
	tests := []struct {
		name     string
		format   Format
		expected string
	}{
		{"plant.csv", FormatXLSX, "report_plant_20240301_1405.xlsx"},
		{"plant.csv", FormatHTML, "report_plant_20240301_1405.html"},
		{"noext", FormatText, "report_noext_20240301_1405.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, Filename(tt.name, tt.format, generatedAt))
		})
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected Format
		wantErr  bool
	}{
		{"", FormatXLSX, false},
		{"XLSX", FormatXLSX, false},
		{"html", FormatHTML, false},
		{" txt ", FormatText, false},
		{"pdf", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			f, err := ParseFormat(tt.input)
			if tt.wantErr {
				assert.Equal(t, apperrors.CodeValidationError, apperrors.GetCode(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, f)
		})
	}
}

func TestRenderText(t *testing.T) {
	doc, err := Render(Assemble(sampleDataset(), "alice", generatedAt), FormatText)
	require.NoError(t, err)

	body := string(doc.Body)
	assert.True(t, strings.HasPrefix(body, Title+"\n"))
	assert.Contains(t, body, "Dataset: plant.csv | Generated: 2024-03-01 14:05 | User: alice")
	assert.Contains(t, body, "66.7%")
	assert.Contains(t, body, "Valve-2")
	assert.Equal(t, "text/plain; charset=utf-8", doc.ContentType)
	assert.Equal(t, "report_plant_20240301_1405.txt", doc.Filename)
}

func TestRenderHTML(t *testing.T) {
	ds := sampleDataset()
	ds.Records[0].EquipmentName = "<script>x</script>"

	doc, err := Render(Assemble(ds, "alice", generatedAt), FormatHTML)
	require.NoError(t, err)

	body := string(doc.Body)
	assert.Contains(t, body, "<title>"+Title+"</title>")
	assert.Contains(t, body, "<table>")
	assert.Contains(t, body, "Equipment Type Distribution")
	assert.NotContains(t, body, "<script>")
}

func TestRenderXLSX(t *testing.T) {
	doc, err := Render(Assemble(sampleDataset(), "alice", generatedAt), FormatXLSX)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(doc.Body))
	require.NoError(t, err)
	defer f.Close()

	title, err := f.GetCellValue(summarySheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, Title, title)

	rows, err := f.GetRows(recordsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, RecordHeaders, rows[0])
	assert.Equal(t, "Pump-1", rows[1][1])
}
