package types

import "strings"

// ColumnType is a SQL column type name such as VARCHAR or TIMESTAMPTZ.
type ColumnType string

// validColumnTypes is the fixed set of types a column may be created with.
var validColumnTypes = map[ColumnType]struct{}{
	"SMALLINT": {}, "INTEGER": {}, "INT": {}, "BIGINT": {}, "DECIMAL": {}, "NUMERIC": {},
	"REAL": {}, "DOUBLE PRECISION": {}, "SERIAL": {}, "BIGSERIAL": {},
	"CHAR": {}, "VARCHAR": {}, "TEXT": {},
	"DATE": {}, "TIME": {}, "TIMESTAMP": {}, "TIMESTAMPTZ": {}, "INTERVAL": {},
	"BOOLEAN":   {},
	"UUID":      {},
	"INTEGER[]": {}, "TEXT[]": {},
	"JSON": {}, "JSONB": {}, "XML": {},
	"BYTEA": {}, "INET": {}, "CIDR": {}, "MACADDR": {},
	"POINT": {}, "LINE": {}, "LSEG": {}, "BOX": {}, "PATH": {}, "POLYGON": {}, "CIRCLE": {},
}

// Canonical returns the upper-cased, trimmed type name.
func (t ColumnType) Canonical() ColumnType {
	return ColumnType(strings.ToUpper(strings.TrimSpace(string(t))))
}

// Valid reports whether the type is in the allowed set. Comparison is case-insensitive.
func (t ColumnType) Valid() bool {
	_, ok := validColumnTypes[t.Canonical()]
	return ok
}

// ValidColumnTypes returns the allowed column types.
func ValidColumnTypes() []ColumnType {
	out := make([]ColumnType, 0, len(validColumnTypes))
	for t := range validColumnTypes {
		out = append(out, t)
	}
	return out
}

// ColumnDefinition describes a column to add to a table.
type ColumnDefinition struct {
	Name string     `json:"name" yaml:"name"`
	Type ColumnType `json:"type" yaml:"type"`
	// NotNull adds a NOT NULL constraint. The zero value leaves the column
	// nullable; callers wanting NOT NULL must set it explicitly.
	NotNull bool   `json:"not_null" yaml:"not_null"`
	Primary bool   `json:"is_primary" yaml:"is_primary"`
	Comment string `json:"comment,omitempty" yaml:"comment,omitempty"`
}

// ColumnInfo is a column as reported by the database catalog.
type ColumnInfo struct {
	Name     string
	Type     string
	Nullable bool
	Primary  bool
	Comment  string
}
