package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hashicorp/go-version"

	"github.com/ximilsoft/postgresql-manager/query/sqlgen"
	"github.com/ximilsoft/postgresql-manager/runtime/types"
)

// sqliteReturning is the first SQLite release that accepts INSERT ... RETURNING.
var sqliteReturning = version.Must(version.NewVersion("3.35.0"))

// ListOptions filters and limits Rows.List.
type ListOptions struct {
	Where  types.Predicate
	Joiner types.Joiner
	// Limit caps the number of rows. Zero means DefaultLimit.
	Limit int
}

// InsertOptions controls Rows.Create.
type InsertOptions struct {
	// BestEffort commits each row on its own and reports the rows that failed
	// instead of rolling back the whole batch.
	BestEffort bool
}

// Rows reads and writes table rows.
type Rows struct {
	m *Manager
}

// Exists reports whether at least one row matches the predicate. An empty
// predicate matches any row.
func (r *Rows) Exists(ctx context.Context, database, table string, where types.Predicate, joiner types.Joiner) (bool, error) {
	const op = "rows.exists"
	database = r.m.database(database)
	tableIdent, err := r.m.quote(op, table)
	if err != nil {
		return false, err
	}
	frag, err := r.predicate(op, table, where, joiner, 1)
	if err != nil {
		return false, err
	}

	q := r.m.gen.Exists(tableIdent, frag)
	var exists bool
	err = r.m.withSession(ctx, op, database, func(s *session) error {
		return s.queryRow(ctx, q, &exists)
	})
	return exists, err
}

// Count returns how many rows match the predicate.
func (r *Rows) Count(ctx context.Context, database, table string, where types.Predicate, joiner types.Joiner) (int64, error) {
	const op = "rows.count"
	database = r.m.database(database)
	tableIdent, err := r.m.quote(op, table)
	if err != nil {
		return 0, err
	}
	frag, err := r.predicate(op, table, where, joiner, 1)
	if err != nil {
		return 0, err
	}

	q := r.m.gen.Count(tableIdent, frag)
	var n int64
	err = r.m.withSession(ctx, op, database, func(s *session) error {
		return s.queryRow(ctx, q, &n)
	})
	return n, err
}

// List returns up to opts.Limit rows matching opts.Where.
func (r *Rows) List(ctx context.Context, database, table string, opts ListOptions) ([]types.Row, error) {
	const op = "rows.list"
	database = r.m.database(database)
	tableIdent, err := r.m.quote(op, table)
	if err != nil {
		return nil, err
	}

	limit := opts.Limit
	if limit < 0 {
		return nil, newError(KindValidation, op, table, fmt.Errorf("%w: %d", ErrInvalidLimit, limit))
	}
	if limit == 0 {
		limit = DefaultLimit
	}

	frag, err := r.predicate(op, table, opts.Where, opts.Joiner, 1)
	if err != nil {
		return nil, err
	}

	q := r.m.gen.Select(tableIdent, frag, limit)
	var rows []types.Row
	err = r.m.withSession(ctx, op, database, func(s *session) error {
		return s.m.runMiddleware(ctx, q.SQL, q.Args, func() error {
			res, err := s.conn.QueryContext(ctx, q.SQL, q.Args...)
			if err != nil {
				return err
			}
			defer res.Close()
			rows, err = ScanRows(res)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	dropColumn(rows, sqlgen.PlaceholderColumn)
	return rows, nil
}

// Create inserts rows. Every row must have the columns of the first row. By
// default the batch runs in one transaction and nothing is written if any row
// fails. The result holds the id of each inserted row, or nil when the table
// has no id column.
func (r *Rows) Create(ctx context.Context, database, table string, rows []types.Row, opts InsertOptions) (types.InsertResult, error) {
	const op = "rows.create"
	database = r.m.database(database)

	var result types.InsertResult
	tableIdent, err := r.m.quote(op, table)
	if err != nil {
		return result, err
	}
	cols, err := batchColumns(rows)
	if err != nil {
		return result, newError(KindValidation, op, table, err)
	}
	colIdents, err := sqlgen.QuoteAll(r.m.dialect, cols)
	if err != nil {
		return result, newError(KindValidation, op, table, err)
	}

	err = r.m.withSession(ctx, op, database, func(s *session) error {
		ins, err := r.inserter(ctx, s, table, tableIdent, cols, colIdents)
		if err != nil {
			return err
		}

		if opts.BestEffort {
			for i, row := range rows {
				id, err := ins.insert(ctx, s.conn, row)
				if err != nil {
					r.m.log.Debug("row failed", "table", table, "index", i, "error", err)
					result.Failed = append(result.Failed, types.RowFailure{Index: i, Row: row, Err: classify(op, table, err)})
					continue
				}
				result.IDs = append(result.IDs, id)
			}
			return nil
		}

		var ids []any
		err = s.transaction(ctx, func(tx *Tx) error {
			for i, row := range rows {
				id, err := ins.insert(ctx, tx, row)
				if err != nil {
					result.Failed = []types.RowFailure{{Index: i, Row: row, Err: classify(op, table, err)}}
					return fmt.Errorf("row %d: %w", i, err)
				}
				ids = append(ids, id)
			}
			return nil
		})
		if err != nil {
			return err
		}
		result.IDs = ids
		return nil
	})
	if err != nil {
		return result, err
	}

	if result.Inserted() == 0 && len(result.Failed) > 0 {
		return result, result.Failed[0].Err
	}
	r.m.log.Debug("rows inserted", "table", table, "inserted", result.Inserted(), "failed", len(result.Failed))
	return result, nil
}

// Update sets the given columns on the row with the given id. It reports
// whether a row matched.
func (r *Rows) Update(ctx context.Context, database, table string, id any, set types.Row) (bool, error) {
	const op = "rows.update"
	database = r.m.database(database)
	tableIdent, err := r.m.quote(op, table)
	if err != nil {
		return false, err
	}
	if len(set) == 0 {
		return false, newError(KindValidation, op, table, fmt.Errorf("%w: nothing to update", ErrEmptyPayload))
	}
	idIdent, err := r.m.quote(op, r.m.cfg.IDColumn)
	if err != nil {
		return false, err
	}

	cols := set.Columns()
	idx := 1
	frag, err := sqlgen.BuildSet(r.m.dialect, cols, set.Values(cols), &idx)
	if err != nil {
		return false, newError(KindValidation, op, table, err)
	}

	q := r.m.gen.Update(tableIdent, frag, idIdent, id)
	return r.affect(ctx, op, database, q)
}

// Delete removes the row with the given id. It reports whether a row matched.
func (r *Rows) Delete(ctx context.Context, database, table string, id any) (bool, error) {
	const op = "rows.delete"
	database = r.m.database(database)
	tableIdent, err := r.m.quote(op, table)
	if err != nil {
		return false, err
	}
	idIdent, err := r.m.quote(op, r.m.cfg.IDColumn)
	if err != nil {
		return false, err
	}

	return r.affect(ctx, op, database, r.m.gen.Delete(tableIdent, idIdent, id))
}

func (r *Rows) affect(ctx context.Context, op, database string, q *sqlgen.Query) (bool, error) {
	var affected int64
	err := r.m.withSession(ctx, op, database, func(s *session) error {
		res, err := s.exec(ctx, q.SQL, q.Args...)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	return affected > 0, err
}

// predicate renders where, logging skipped keys. A non-empty predicate whose
// every key was skipped is rejected rather than widened to the whole table.
func (r *Rows) predicate(op, table string, where types.Predicate, joiner types.Joiner, start int) (sqlgen.Fragment, error) {
	idx := start
	frag, skipped, err := sqlgen.BuildPredicate(r.m.dialect, where, joiner, &idx)
	if err != nil {
		return sqlgen.Fragment{}, newError(KindValidation, op, table, err)
	}
	for _, key := range skipped {
		r.m.log.Debug("predicate key skipped", "table", table, "key", key, "reason", sqlgen.ErrUnknownOperator)
	}
	if where.Len() > 0 && frag.Empty() {
		return sqlgen.Fragment{}, newError(KindValidation, op, table, fmt.Errorf("%w: %v", ErrNoValidTerms, skipped))
	}
	return frag, nil
}

// batchColumns returns the sorted columns of the first row and checks that
// every row has the same set.
func batchColumns(rows []types.Row) ([]string, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrEmptyPayload)
	}
	if len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: row 0 has no columns", ErrEmptyPayload)
	}
	cols := rows[0].Columns()
	for i, row := range rows[1:] {
		if !row.SameShape(cols) {
			return nil, fmt.Errorf("%w: row %d differs from row 0", ErrShapeMismatch, i+1)
		}
	}
	return cols, nil
}

// rowExecer is satisfied by Conn and *Tx.
type rowExecer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// inserter holds the statement shared by every row of a batch.
type inserter struct {
	m         *Manager
	sql       string
	cols      []string
	idColumn  string
	hasID     bool
	returning bool
}

func (r *Rows) inserter(ctx context.Context, s *session, table string, tableIdent sqlgen.Ident, cols []string, colIdents []sqlgen.Ident) (*inserter, error) {
	idColumn := r.m.cfg.IDColumn
	hasID, err := s.catalog.ColumnExists(ctx, table, idColumn)
	if err != nil {
		return nil, err
	}

	returning := hasID && r.m.gen.SupportsReturning()
	if returning && r.m.cfg.Provider == sqlgen.ProviderSQLite {
		v, err := s.catalog.ServerVersion(ctx)
		if err != nil {
			return nil, err
		}
		returning = !v.LessThan(sqliteReturning)
	}

	var ret sqlgen.Ident
	if returning {
		if ret, err = r.m.dialect.Quote(idColumn); err != nil {
			return nil, err
		}
	}

	return &inserter{
		m:         r.m,
		sql:       r.m.gen.Insert(tableIdent, colIdents, ret),
		cols:      cols,
		idColumn:  idColumn,
		hasID:     hasID,
		returning: returning,
	}, nil
}

// insert writes one row and returns its id.
func (ins *inserter) insert(ctx context.Context, e rowExecer, row types.Row) (any, error) {
	args := row.Values(ins.cols)

	if ins.returning {
		var id any
		err := ins.m.runMiddleware(ctx, ins.sql, args, func() error {
			return e.QueryRowContext(ctx, ins.sql, args...).Scan(&id)
		})
		if b, ok := id.([]byte); ok {
			id = string(b)
		}
		return id, err
	}

	res, err := execWith(ctx, ins.m, e, ins.sql, args...)
	if err != nil {
		return nil, err
	}
	if !ins.hasID {
		return nil, nil
	}
	if id, ok := row[ins.idColumn]; ok {
		return id, nil
	}
	return res.LastInsertId()
}
