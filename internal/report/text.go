package report

import (
	"bytes"
	"fmt"
	"strconv"
	"text/tabwriter"
)

// RenderText renders the report as aligned plain text
func RenderText(data *ReportData) []byte {
	var buf bytes.Buffer

	fmt.Fprintln(&buf, data.Title)
	fmt.Fprintln(&buf, data.Subtitle())
	fmt.Fprintln(&buf)

	fmt.Fprintln(&buf, "Summary Statistics")
	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Metric\tValue")
	for _, row := range data.SummaryRows() {
		fmt.Fprintf(tw, "%s\t%s\n", row.Metric, row.Value)
	}
	tw.Flush()
	fmt.Fprintln(&buf)

	fmt.Fprintln(&buf, "Equipment Type Distribution")
	tw = tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Equipment Type\tCount\tPercentage")
	for _, row := range data.Distribution {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", row.Type, row.Count, FormatPercentage(row.Percentage))
	}
	tw.Flush()
	fmt.Fprintln(&buf)

	fmt.Fprintln(&buf, "Equipment Records")
	tw = tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tEquipment Name\tType\tFlowrate (L/min)\tPressure (bar)\tTemp (°C)")
	for _, rec := range data.Records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			strconv.Itoa(rec.Index), rec.Name, rec.Type, rec.Flowrate, rec.Pressure, rec.Temperature)
	}
	tw.Flush()

	return buf.Bytes()
}
