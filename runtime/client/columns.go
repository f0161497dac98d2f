package client

import (
	"context"
	"fmt"

	"github.com/ximilsoft/postgresql-manager/query/sqlgen"
	"github.com/ximilsoft/postgresql-manager/runtime/types"
)

// Columns adds, drops and lists table columns.
type Columns struct {
	m *Manager
}

// Exists reports whether column exists in table.
func (c *Columns) Exists(ctx context.Context, database, table, column string) (bool, error) {
	const op = "columns.exists"
	database = c.m.database(database)
	if _, err := c.m.quote(op, table); err != nil {
		return false, err
	}
	if _, err := c.m.quote(op, column); err != nil {
		return false, err
	}

	var exists bool
	err := c.m.withSession(ctx, op, database, func(s *session) error {
		var err error
		exists, err = s.catalog.ColumnExists(ctx, table, column)
		return err
	})
	return exists, err
}

// Create adds the columns to table in order. Definitions with an invalid name
// or type are skipped; columns the server rejects are recorded as failed and
// the remaining ones are still attempted. The error is nil when at least one
// column was added or every column already existed. SQLite cannot ALTER in
// PRIMARY KEY or NOT NULL columns, so an empty SQLite table is rebuilt to
// take them.
func (c *Columns) Create(ctx context.Context, database, table string, defs []types.ColumnDefinition) (types.ColumnsResult, error) {
	const op = "columns.create"
	database = c.m.database(database)

	var result types.ColumnsResult
	tableIdent, err := c.m.quote(op, table)
	if err != nil {
		return result, err
	}
	if len(defs) == 0 {
		return result, newError(KindValidation, op, table, fmt.Errorf("%w: no column definitions", ErrEmptyPayload))
	}

	pending := make([]sqlgen.ColumnDef, 0, len(defs))
	sources := make([]types.ColumnDefinition, 0, len(defs))
	for _, def := range defs {
		col, err := c.columnDef(def)
		if err != nil {
			c.m.log.Debug("column skipped", "table", table, "column", def.Name, "type", def.Type, "reason", err)
			result.Skipped = append(result.Skipped, types.SkippedColumn{Column: def, Reason: err})
			continue
		}
		pending = append(pending, col)
		sources = append(sources, def)
	}
	if len(pending) == 0 {
		return result, newError(KindValidation, op, table, result.Skipped[0].Reason)
	}

	err = c.m.withSession(ctx, op, database, func(s *session) error {
		exists, err := s.catalog.TableExists(ctx, table)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: table %s", ErrNotFound, table)
		}

		existing, err := s.catalog.ListColumns(ctx, table)
		if err != nil {
			return err
		}
		present := make(map[string]bool, len(existing))
		var current []sqlgen.ColumnDef
		placeholder := false
		for _, info := range existing {
			present[info.Name] = true
			if info.Name == sqlgen.PlaceholderColumn {
				placeholder = true
				continue
			}
			col, err := c.catalogDef(info)
			if err != nil {
				return err
			}
			current = append(current, col)
		}

		for i, col := range pending {
			def := sources[i]
			if present[def.Name] {
				result.Skipped = append(result.Skipped, types.SkippedColumn{
					Column: def,
					Reason: fmt.Errorf("%w: column %s", ErrAlreadyExists, def.Name),
				})
				continue
			}

			var err error
			rebuilt := false
			if c.m.cfg.Provider == sqlgen.ProviderSQLite && (placeholder || col.Primary || col.NotNull) {
				rebuilt, err = c.rebuild(ctx, s, tableIdent, append(current[:len(current):len(current)], col))
			}
			if err == nil && !rebuilt {
				if placeholder {
					err = c.replacePlaceholder(ctx, s, tableIdent, col)
				} else {
					err = c.addColumn(ctx, s, tableIdent, col)
				}
			}
			if err != nil {
				c.m.log.Debug("column failed", "table", table, "column", def.Name, "error", err)
				result.Failed = append(result.Failed, types.SkippedColumn{Column: def, Reason: classify(op, def.Name, err)})
				continue
			}

			if rebuilt || c.m.cfg.Provider == sqlgen.ProviderMySQL {
				// the placeholder is gone
				placeholder = false
			}
			present[def.Name] = true
			current = append(current, col)
			result.Added = append(result.Added, def.Name)
		}
		return nil
	})
	if err != nil {
		return result, err
	}

	if len(result.Added) == 0 && len(result.Failed) > 0 {
		return result, result.Failed[0].Reason
	}
	return result, nil
}

// columnDef validates a definition and converts it for the statement assembler.
func (c *Columns) columnDef(def types.ColumnDefinition) (sqlgen.ColumnDef, error) {
	if !def.Type.Valid() {
		return sqlgen.ColumnDef{}, fmt.Errorf("%w: %q", ErrInvalidColumnType, def.Type)
	}
	if def.Name == sqlgen.PlaceholderColumn {
		return sqlgen.ColumnDef{}, fmt.Errorf("%w: %s is reserved", ErrInvalidIdentifier, def.Name)
	}
	name, err := c.m.dialect.Quote(def.Name)
	if err != nil {
		return sqlgen.ColumnDef{}, err
	}
	return sqlgen.ColumnDef{
		Name:    name,
		Type:    string(def.Type.Canonical()),
		NotNull: def.NotNull,
		Primary: def.Primary,
		Comment: def.Comment,
	}, nil
}

// addColumn adds one column and its comment. Where DDL is transactional both
// statements commit together.
func (c *Columns) addColumn(ctx context.Context, s *session, table sqlgen.Ident, col sqlgen.ColumnDef) error {
	add := c.m.gen.AddColumn(table, col)
	if c.m.cfg.Provider == sqlgen.ProviderMySQL {
		// MySQL commits DDL implicitly and inlines comments.
		_, err := s.exec(ctx, add)
		return err
	}

	comment := c.m.gen.CommentOnColumn(table, col.Name, col.Comment)
	if comment == "" && col.Comment != "" {
		c.m.log.Debug("column comment not supported", "provider", c.m.cfg.Provider, "column", string(col.Name))
	}

	return s.transaction(ctx, func(tx *Tx) error {
		if _, err := tx.Exec(ctx, add); err != nil {
			return err
		}
		if comment != "" {
			if _, err := tx.Exec(ctx, comment); err != nil {
				return err
			}
		}
		return nil
	})
}

// replacePlaceholder installs the first real column of a MySQL table that was
// created with the placeholder column only. On SQLite the placeholder of a
// table holding rows stays and the column is added next to it.
func (c *Columns) replacePlaceholder(ctx context.Context, s *session, table sqlgen.Ident, col sqlgen.ColumnDef) error {
	if c.m.cfg.Provider != sqlgen.ProviderMySQL {
		return c.addColumn(ctx, s, table, col)
	}

	placeholder, err := c.m.dialect.Quote(sqlgen.PlaceholderColumn)
	if err != nil {
		return err
	}
	if _, err := s.exec(ctx, c.m.gen.AddColumn(table, col)); err != nil {
		return err
	}
	_, err = s.exec(ctx, c.m.gen.DropColumn(table, placeholder))
	return err
}

// rebuild recreates an empty SQLite table with cols, which drops the
// placeholder and allows PRIMARY KEY and NOT NULL columns that ALTER TABLE
// rejects. Only column names, types, NOT NULL and PRIMARY KEY are carried
// over. It reports false without changing anything when the table has rows.
func (c *Columns) rebuild(ctx context.Context, s *session, table sqlgen.Ident, cols []sqlgen.ColumnDef) (bool, error) {
	rebuilt := false
	err := s.transaction(ctx, func(tx *Tx) error {
		var rows int64
		if err := tx.queryRow(ctx, c.m.gen.Count(table, sqlgen.Fragment{}), &rows); err != nil {
			return err
		}
		if rows > 0 {
			return nil
		}
		if _, err := tx.Exec(ctx, c.m.gen.DropTable(table)); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, c.m.gen.CreateTableWith(table, cols...)); err != nil {
			return err
		}
		rebuilt = true
		return nil
	})
	return rebuilt, err
}

// catalogDef converts a column read from the catalog back into a definition.
func (c *Columns) catalogDef(info types.ColumnInfo) (sqlgen.ColumnDef, error) {
	name, err := c.m.dialect.Quote(info.Name)
	if err != nil {
		return sqlgen.ColumnDef{}, err
	}
	return sqlgen.ColumnDef{
		Name:    name,
		Type:    info.Type,
		NotNull: !info.Nullable,
		Primary: info.Primary,
	}, nil
}

// Delete drops column from table. It returns false without error when the
// column does not exist.
func (c *Columns) Delete(ctx context.Context, database, table, column string) (bool, error) {
	const op = "columns.delete"
	database = c.m.database(database)
	tableIdent, err := c.m.quote(op, table)
	if err != nil {
		return false, err
	}
	colIdent, err := c.m.quote(op, column)
	if err != nil {
		return false, err
	}

	dropped := false
	err = c.m.withSession(ctx, op, database, func(s *session) error {
		exists, err := s.catalog.ColumnExists(ctx, table, column)
		if err != nil || !exists {
			return err
		}
		if _, err := s.exec(ctx, c.m.gen.DropColumn(tableIdent, colIdent)); err != nil {
			return err
		}
		dropped = true
		return nil
	})
	if IsNotFound(err) {
		return false, nil
	}
	return dropped, err
}

// List returns the columns of table in ordinal order.
func (c *Columns) List(ctx context.Context, database, table string) ([]types.ColumnInfo, error) {
	const op = "columns.list"
	database = c.m.database(database)
	if _, err := c.m.quote(op, table); err != nil {
		return nil, err
	}

	cols := []types.ColumnInfo{}
	err := c.m.withSession(ctx, op, database, func(s *session) error {
		exists, err := s.catalog.TableExists(ctx, table)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: table %s", ErrNotFound, table)
		}
		all, err := s.catalog.ListColumns(ctx, table)
		if err != nil {
			return err
		}
		for _, col := range all {
			if col.Name != sqlgen.PlaceholderColumn {
				cols = append(cols, col)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cols, nil
}
