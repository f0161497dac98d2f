package introspect

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-version"

	"github.com/ximilsoft/postgresql-manager/runtime/types"
)

// MySQLIntrospector implements introspection for MySQL. Tables and columns are
// looked up in the connection's default database.
type MySQLIntrospector struct {
	q Querier
}

func (i *MySQLIntrospector) DatabaseExists(ctx context.Context, name string) (bool, error) {
	return queryBool(ctx, i.q, `SELECT EXISTS(SELECT 1 FROM information_schema.schemata WHERE schema_name = ?)`, name)
}

func (i *MySQLIntrospector) ListDatabases(ctx context.Context) ([]string, error) {
	return queryStrings(ctx, i.q, `SELECT schema_name FROM information_schema.schemata ORDER BY schema_name`)
}

func (i *MySQLIntrospector) TableExists(ctx context.Context, table string) (bool, error) {
	return queryBool(ctx, i.q, `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = DATABASE() AND table_name = ?
		)`, table)
}

func (i *MySQLIntrospector) ListTables(ctx context.Context) ([]string, error) {
	return queryStrings(ctx, i.q, `
		SELECT table_name FROM information_schema.tables
		WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE'
		ORDER BY table_name`)
}

func (i *MySQLIntrospector) ColumnExists(ctx context.Context, table, column string) (bool, error) {
	return queryBool(ctx, i.q, `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.columns
			WHERE table_schema = DATABASE() AND table_name = ? AND column_name = ?
		)`, table, column)
}

func (i *MySQLIntrospector) ListColumns(ctx context.Context, table string) ([]types.ColumnInfo, error) {
	rows, err := i.q.QueryContext(ctx, `
		SELECT column_name, column_type, is_nullable = 'YES', column_key = 'PRI', column_comment
		FROM information_schema.columns
		WHERE table_schema = DATABASE() AND table_name = ?
		ORDER BY ordinal_position`, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer rows.Close()

	var cols []types.ColumnInfo
	for rows.Next() {
		var col types.ColumnInfo
		if err := rows.Scan(&col.Name, &col.Type, &col.Nullable, &col.Primary, &col.Comment); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		cols = append(cols, col)
	}
	return cols, rows.Err()
}

func (i *MySQLIntrospector) ServerVersion(ctx context.Context) (*version.Version, error) {
	var raw string
	if err := i.q.QueryRowContext(ctx, `SELECT VERSION()`).Scan(&raw); err != nil {
		return nil, fmt.Errorf("failed to read server version: %w", err)
	}
	return parseVersion(raw)
}
