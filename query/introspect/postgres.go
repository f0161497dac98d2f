package introspect

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-version"

	"github.com/ximilsoft/postgresql-manager/runtime/types"
)

// PostgresIntrospector implements introspection for PostgreSQL. Tables and
// columns are looked up in the connection's current schema.
type PostgresIntrospector struct {
	q Querier
}

func (i *PostgresIntrospector) DatabaseExists(ctx context.Context, name string) (bool, error) {
	return queryBool(ctx, i.q, `SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)`, name)
}

func (i *PostgresIntrospector) ListDatabases(ctx context.Context) ([]string, error) {
	return queryStrings(ctx, i.q, `SELECT datname FROM pg_database WHERE NOT datistemplate ORDER BY datname`)
}

func (i *PostgresIntrospector) TableExists(ctx context.Context, table string) (bool, error) {
	return queryBool(ctx, i.q, `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = current_schema() AND table_name = $1
		)`, table)
}

func (i *PostgresIntrospector) ListTables(ctx context.Context) ([]string, error) {
	return queryStrings(ctx, i.q, `
		SELECT table_name FROM information_schema.tables
		WHERE table_schema = current_schema() AND table_type = 'BASE TABLE'
		ORDER BY table_name`)
}

func (i *PostgresIntrospector) ColumnExists(ctx context.Context, table, column string) (bool, error) {
	return queryBool(ctx, i.q, `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.columns
			WHERE table_schema = current_schema() AND table_name = $1 AND column_name = $2
		)`, table, column)
}

func (i *PostgresIntrospector) ListColumns(ctx context.Context, table string) ([]types.ColumnInfo, error) {
	query := `
		SELECT
			c.column_name,
			c.data_type,
			c.is_nullable = 'YES',
			EXISTS(
				SELECT 1
				FROM information_schema.table_constraints tc
				JOIN information_schema.key_column_usage k
					ON k.constraint_schema = tc.constraint_schema
					AND k.constraint_name = tc.constraint_name
				WHERE tc.constraint_type = 'PRIMARY KEY'
					AND tc.table_schema = c.table_schema
					AND tc.table_name = c.table_name
					AND k.column_name = c.column_name),
			COALESCE(col_description(
				(quote_ident(c.table_schema) || '.' || quote_ident(c.table_name))::regclass,
				c.ordinal_position), '')
		FROM information_schema.columns c
		WHERE c.table_schema = current_schema() AND c.table_name = $1
		ORDER BY c.ordinal_position`

	rows, err := i.q.QueryContext(ctx, query, table)
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

func (i *PostgresIntrospector) ServerVersion(ctx context.Context) (*version.Version, error) {
	var raw string
	if err := i.q.QueryRowContext(ctx, `SHOW server_version`).Scan(&raw); err != nil {
		return nil, fmt.Errorf("failed to read server version: %w", err)
	}
	return parseVersion(raw)
}
