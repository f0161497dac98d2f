// Package introspect answers catalog questions: which databases, tables and
// columns exist, and which server version is running.
package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hashicorp/go-version"

	"github.com/ximilsoft/postgresql-manager/query/sqlgen"
	"github.com/ximilsoft/postgresql-manager/runtime/types"
)

// Querier is the subset of *sql.DB, *sql.Conn and *sql.Tx used for catalog reads.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Introspector reads the catalog of the connected database.
type Introspector interface {
	// DatabaseExists and ListDatabases read the server catalog. SQLite keeps
	// databases as files and returns ErrUnsupportedProvider.
	DatabaseExists(ctx context.Context, name string) (bool, error)
	ListDatabases(ctx context.Context) ([]string, error)

	TableExists(ctx context.Context, table string) (bool, error)
	ListTables(ctx context.Context) ([]string, error)
	ColumnExists(ctx context.Context, table, column string) (bool, error)
	ListColumns(ctx context.Context, table string) ([]types.ColumnInfo, error)

	ServerVersion(ctx context.Context) (*version.Version, error)
}

// NewIntrospector creates a new introspector for the given connection
func NewIntrospector(q Querier, provider string) (Introspector, error) {
	switch sqlgen.NormalizeProvider(provider) {
	case sqlgen.ProviderPostgres:
		return &PostgresIntrospector{q: q}, nil
	case sqlgen.ProviderMySQL:
		return &MySQLIntrospector{q: q}, nil
	case sqlgen.ProviderSQLite:
		return &SQLiteIntrospector{q: q}, nil
	default:
		return nil, ErrUnsupportedProvider
	}
}

func queryBool(ctx context.Context, q Querier, query string, args ...any) (bool, error) {
	var ok bool
	if err := q.QueryRowContext(ctx, query, args...).Scan(&ok); err != nil {
		return false, fmt.Errorf("%w: %w", ErrCatalogQuery, err)
	}
	return ok, nil
}

func queryStrings(ctx context.Context, q Querier, query string, args ...any) ([]string, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogQuery, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan name: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// parseVersion accepts strings such as "16.2 (Debian 16.2-1)" or
// "8.0.36-0ubuntu0.22.04.1" and keeps the leading dotted number.
func parseVersion(raw string) (*version.Version, error) {
	s := strings.TrimSpace(raw)
	if i := strings.IndexAny(s, " -"); i > 0 {
		s = s[:i]
	}
	v, err := version.NewVersion(s)
	if err != nil {
		return nil, fmt.Errorf("invalid server version %q: %w", raw, err)
	}
	return v, nil
}
