package introspect

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-version"

	"github.com/ximilsoft/postgresql-manager/runtime/types"
)

// SQLiteIntrospector implements introspection for SQLite
type SQLiteIntrospector struct {
	q Querier
}

func (i *SQLiteIntrospector) DatabaseExists(context.Context, string) (bool, error) {
	return false, ErrUnsupportedProvider
}

func (i *SQLiteIntrospector) ListDatabases(context.Context) ([]string, error) {
	return nil, ErrUnsupportedProvider
}

func (i *SQLiteIntrospector) TableExists(ctx context.Context, table string) (bool, error) {
	return queryBool(ctx, i.q, `SELECT EXISTS(SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = ?)`, table)
}

func (i *SQLiteIntrospector) ListTables(ctx context.Context) ([]string, error) {
	return queryStrings(ctx, i.q, `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name`)
}

func (i *SQLiteIntrospector) ColumnExists(ctx context.Context, table, column string) (bool, error) {
	return queryBool(ctx, i.q, `SELECT EXISTS(SELECT 1 FROM pragma_table_info(?) WHERE name = ?)`, table, column)
}

func (i *SQLiteIntrospector) ListColumns(ctx context.Context, table string) ([]types.ColumnInfo, error) {
	rows, err := i.q.QueryContext(ctx, `SELECT name, type, "notnull", pk > 0 FROM pragma_table_info(?) ORDER BY cid`, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer rows.Close()

	var cols []types.ColumnInfo
	for rows.Next() {
		var col types.ColumnInfo
		var notNull bool
		if err := rows.Scan(&col.Name, &col.Type, &notNull, &col.Primary); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		col.Nullable = !notNull
		cols = append(cols, col)
	}
	return cols, rows.Err()
}

func (i *SQLiteIntrospector) ServerVersion(ctx context.Context) (*version.Version, error) {
	var raw string
	if err := i.q.QueryRowContext(ctx, `SELECT sqlite_version()`).Scan(&raw); err != nil {
		return nil, fmt.Errorf("failed to read library version: %w", err)
	}
	return parseVersion(raw)
}
