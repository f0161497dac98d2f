package sqlgen

import (
	"strings"

	"github.com/lib/pq"
)

// typeMap translates allowed column type names for providers that spell them
// differently. Types missing from the map are used verbatim.
type typeMap map[string]string

func (m typeMap) lookup(t string) string {
	if mapped, ok := m[t]; ok {
		return mapped
	}
	return t
}

var mysqlTypes = typeMap{
	"VARCHAR":     "VARCHAR(255)",
	"CHAR":        "CHAR(1)",
	"TIMESTAMPTZ": "TIMESTAMP",
	"INTERVAL":    "VARCHAR(64)",
	"UUID":        "CHAR(36)",
	"INTEGER[]":   "JSON",
	"TEXT[]":      "JSON",
	"JSONB":       "JSON",
	"XML":         "TEXT",
	"BYTEA":       "BLOB",
	"INET":        "VARCHAR(45)",
	"CIDR":        "VARCHAR(49)",
	"MACADDR":     "VARCHAR(17)",
	"LINE":        "LINESTRING",
	"LSEG":        "LINESTRING",
	"BOX":         "POLYGON",
	"PATH":        "LINESTRING",
	"CIRCLE":      "GEOMETRY",
}

// sqliteTypes only rewrites names the SQLite type grammar rejects; SQLite
// accepts any other name and derives an affinity from it.
var sqliteTypes = typeMap{
	"INTEGER[]": "TEXT",
	"TEXT[]":    "TEXT",
}

// TypeFor returns the type name rendered for the generator's provider.
func TypeFor(g Generator, t string) string {
	switch g.(type) {
	case *MySQLGenerator:
		return mysqlTypes.lookup(t)
	case *SQLiteGenerator:
		return sqliteTypes.lookup(t)
	default:
		return t
	}
}

func quoteLiteralPostgres(s string) string {
	return pq.QuoteLiteral(s)
}

func quoteLiteralMySQL(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "'", "''")
	return "'" + s + "'"
}
