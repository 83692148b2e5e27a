package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// RenderMarkdown renders the report as a markdown document with pipe tables
func RenderMarkdown(data *ReportData) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", escapeMarkdown(data.Title))
	fmt.Fprintf(&buf, "%s\n\n", escapeMarkdown(data.Subtitle()))

	buf.WriteString("## Summary Statistics\n\n")
	buf.WriteString("| Metric | Value |\n| --- | --- |\n")
	for _, row := range data.SummaryRows() {
		fmt.Fprintf(&buf, "| %s | %s |\n", row.Metric, escapeMarkdown(row.Value))
	}
	buf.WriteString("\n")

	buf.WriteString("## Equipment Type Distribution\n\n")
	buf.WriteString("| " + strings.Join(DistributionHeaders, " | ") + " |\n| --- | ---: | ---: |\n")
	for _, row := range data.Distribution {
		fmt.Fprintf(&buf, "| %s | %d | %s |\n", escapeMarkdown(row.Type), row.Count, FormatPercentage(row.Percentage))
	}
	buf.WriteString("\n")

	buf.WriteString("## Equipment Records\n\n")
	buf.WriteString("| " + strings.Join(RecordHeaders, " | ") + " |\n| ---: | --- | --- | ---: | ---: | ---: |\n")
	for _, rec := range data.Records {
		fmt.Fprintf(&buf, "| %d | %s | %s | %s | %s | %s |\n",
			rec.Index, escapeMarkdown(rec.Name), escapeMarkdown(rec.Type), rec.Flowrate, rec.Pressure, rec.Temperature)
	}

	return buf.Bytes()
}

// RenderHTML renders the report as a standalone HTML page
func RenderHTML(data *ReportData) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{
		Title: data.Title,
		Flags: html.CommonFlags | html.CompletePage | html.SkipHTML,
	})
	return markdown.ToHTML(RenderMarkdown(data), p, renderer)
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	`|`, `\|`,
	`*`, `\*`,
	`_`, `\_`,
	"`", "\\`",
	`<`, `&lt;`,
	`>`, `&gt;`,
	`#`, `\#`,
	`[`, `\[`,
	`]`, `\]`,
)

// escapeMarkdown keeps user-supplied cell text from being interpreted as markup
func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
