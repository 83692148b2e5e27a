package report

import (
	"strconv"

	"github.com/xuri/excelize/v2"
)

const (
	summarySheet = "Summary"
	recordsSheet = "Records"
)

// RenderXLSX renders the report as a workbook with a summary sheet and a records sheet
func RenderXLSX(data *ReportData) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(recordsSheet); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"2C5F8A"}, Pattern: 1},
	})
	if err != nil {
		return nil, err
	}

	rows := [][]interface{}{
		{data.Title},
		{data.Subtitle()},
		{},
		{"Summary Statistics"},
		{"Metric", "Value"},
	}
	summaryHeaderRow := len(rows)
	for _, row := range data.SummaryRows() {
		rows = append(rows, []interface{}{row.Metric, row.Value})
	}
	rows = append(rows, []interface{}{}, []interface{}{"Equipment Type Distribution"})
	rows = append(rows, toRow(DistributionHeaders))
	distributionHeaderRow := len(rows)
	for _, row := range data.Distribution {
		rows = append(rows, []interface{}{row.Type, row.Count, FormatPercentage(row.Percentage)})
	}

	if err := writeRows(f, summarySheet, rows); err != nil {
		return nil, err
	}
	for _, headerRow := range []int{summaryHeaderRow, distributionHeaderRow} {
		if err := styleRow(f, summarySheet, headerRow, 3, headerStyle); err != nil {
			return nil, err
		}
	}
	if err := f.SetColWidth(summarySheet, "A", "A", 30); err != nil {
		return nil, err
	}

	records := [][]interface{}{toRow(RecordHeaders)}
	for _, rec := range data.Records {
		records = append(records, []interface{}{
			rec.Index, rec.Name, rec.Type, numericCell(rec.Flowrate), numericCell(rec.Pressure), numericCell(rec.Temperature),
		})
	}
	if err := writeRows(f, recordsSheet, records); err != nil {
		return nil, err
	}
	if err := styleRow(f, recordsSheet, 1, len(RecordHeaders), headerStyle); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(recordsSheet, "B", "B", 24); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for r, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func styleRow(f *excelize.File, sheet string, row, cols, style int) error {
	from, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	to, err := excelize.CoordinatesToCellName(cols, row)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, from, to, style)
}

func toRow(headers []string) []interface{} {
	row := make([]interface{}, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	return row
}

// numericCell stores a one-decimal value as a number so spreadsheets can sum it
func numericCell(formatted string) interface{} {
	v, err := strconv.ParseFloat(formatted, 64)
	if err != nil {
		return formatted
	}
	return v
}
