package report

import (
	"fmt"
	"strings"
	"time"

	apperrors "chemviz/internal/errors"
)

// Format selects a report renderer
type Format string

const (
	FormatText Format = "txt"
	FormatHTML Format = "html"
	FormatXLSX Format = "xlsx"
)

// Document is a rendered report ready to be served or written to disk
type Document struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ParseFormat validates a requested format; empty selects XLSX
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatXLSX, nil
	case FormatText, FormatHTML, FormatXLSX:
		return f, nil
	default:
		return "", apperrors.ValidationError(fmt.Sprintf("Unsupported report format %q.", s))
	}
}

// ContentType returns the MIME type served for the format
func (f Format) ContentType() string {
	switch f {
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Filename builds report_<name without .csv>_<YYYYmmdd_HHMM>.<ext>
func Filename(datasetName string, format Format, at time.Time) string {
	base := strings.ReplaceAll(datasetName, ".csv", "")
	return fmt.Sprintf("report_%s_%s.%s", base, at.Format("20060102_1504"), format)
}

// Render produces the report document in the given format
func Render(data *ReportData, format Format) (*Document, error) {
	var (
		body []byte
		err  error
	)

	switch format {
	case FormatText:
		body = RenderText(data)
	case FormatHTML:
		body = RenderHTML(data)
	case FormatXLSX:
		body, err = RenderXLSX(data)
	default:
		return nil, apperrors.ValidationError(fmt.Sprintf("Unsupported report format %q.", format))
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to render report")
	}

	return &Document{
		Filename:    Filename(data.DatasetName, format, data.GeneratedAt),
		ContentType: format.ContentType(),
		Body:        body,
	}, nil
}
