package ingestion

import (
	"strings"

	"chemviz/domain/equipment"
	apperrors "chemviz/internal/errors"
)

// Column identifies the upload column that supplies a canonical field
type Column struct {
	Header string `json:"header"`
	Index  int    `json:"index"`
}

// ColumnMap maps each canonical field to its source column
type ColumnMap map[equipment.Field]Column

// columnRule classifies a normalized header into a canonical field when it contains any token
type columnRule struct {
	field  equipment.Field
	tokens []string
}

// columnRules is evaluated top to bottom per header; the first matching rule classifies it.
// Across headers the last one classified to a field wins.
var columnRules = []columnRule{
	{field: equipment.FieldName, tokens: []string{"equipment_name", "name"}},
	{field: equipment.FieldType, tokens: []string{"type"}},
	{field: equipment.FieldFlowrate, tokens: []string{"flowrate", "flow"}},
	{field: equipment.FieldPressure, tokens: []string{"pressure"}},
	{field: equipment.FieldTemperature, tokens: []string{"temperature", "temp"}},
}

// unitAnnotations are removed from headers, in order, before classification
var unitAnnotations = []string{"(", ")", "°c", "l/min", "bar"}

// NormalizeHeader lower-cases a header, turns spaces into underscores and strips unit annotations
func NormalizeHeader(header string) string {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(header)), " ", "_")
	for _, unit := range unitAnnotations {
		normalized = strings.ReplaceAll(normalized, unit, "")
	}
	return strings.Trim(normalized, "_")
}

// ClassifyHeader returns the canonical field a header supplies, if any
func ClassifyHeader(header string) (equipment.Field, bool) {
	normalized := NormalizeHeader(header)
	for _, rule := range columnRules {
		for _, token := range rule.tokens {
			if strings.Contains(normalized, token) {
				return rule.field, true
			}
		}
	}
	return "", false
}

// MapColumns assigns every canonical field a source column or fails with MissingColumns
func MapColumns(headers []string) (ColumnMap, error) {
	columns := make(ColumnMap, len(equipment.CanonicalFields))
	for i, header := range headers {
		if field, ok := ClassifyHeader(header); ok {
			columns[field] = Column{Header: header, Index: i}
		}
	}

	var missing []string
	for _, field := range equipment.CanonicalFields {
		if _, ok := columns[field]; !ok {
			missing = append(missing, string(field))
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.MissingColumns(missing)
	}

	return columns, nil
}
