package openapi

import "strings"

// TypeMapping maps a SQL column type to an OpenAPI type/format pair.
type TypeMapping struct {
	Type   string // OpenAPI type: string, integer, number, boolean, object, array
	Format string // OpenAPI format: int32, int64, date-time, etc.
}

// dbTypeToOpenAPI covers the column types used by the schoolcms schema on
// every supported database.
var dbTypeToOpenAPI = map[string]TypeMapping{
	"int":       {"integer", "int32"},
	"integer":   {"integer", "int32"},
	"bigint":    {"integer", "int64"},
	"bigserial": {"integer", "int64"},

	"varchar": {"string", ""},
	"text":    {"string", ""},

	"datetime":  {"string", "date-time"},
	"timestamp": {"string", "date-time"},

	"boolean": {"boolean", ""},
	"object":  {"object", ""},
	"array":   {"array", ""},
}

// MapDBType converts a SQL column type to an OpenAPI type mapping.
// Falls back to {"string", ""} for unknown types.
func MapDBType(dbType string) TypeMapping {
	normalized := strings.ToLower(strings.TrimSpace(dbType))

	// Strip anything after opening paren: "varchar(255)" -> "varchar"
	if idx := strings.IndexByte(normalized, '('); idx >= 0 {
		normalized = normalized[:idx]
	}
	normalized = strings.TrimSpace(normalized)

	if m, ok := dbTypeToOpenAPI[normalized]; ok {
		return m
	}
	return TypeMapping{"string", ""}
}
