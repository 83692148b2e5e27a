package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chemviz/internal/report"
)

const sampleCSV = "Equipment Name,Type,Flow Rate (L/min),Pressure (bar),Temp (°C)\n" +
	"Pump-1,Pump,100,5,40\n" +
	"Valve-1,Valve,20,1.6,40\n"

func TestRunInspect(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runInspect(&out, "plant.csv", []byte(sampleCSV)))

	var got inspection
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "plant.csv", got.File)
	assert.Equal(t, "Flow Rate (L/min)", got.Columns["flowrate"])
	assert.Equal(t, "Temp (°C)", got.Columns["temperature"])
	assert.Equal(t, 2, got.Summary.TotalRecords)
	assert.Equal(t, 60.0, got.Summary.AvgFlowrate)
}

func TestRunInspectMissingColumns(t *testing.T) {
	var out bytes.Buffer
	err := runInspect(&out, "plant.csv", []byte("Equipment Name\nPump-1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Missing required columns")
}

func TestRunReportWritesFile(t *testing.T) {
	dir := t.TempDir()
	path, err := runReport(context.Background(), "plant.csv", []byte(sampleCSV), report.FormatText, dir, "tester")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(filepath.Base(path), "report_plant_"))
	assert.Equal(t, ".txt", filepath.Ext(path))

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(body), report.Title)
	assert.Contains(t, string(body), "User: tester")
}
