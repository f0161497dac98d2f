package client

import (
	"context"
)

// Tables creates, drops and lists tables in a database.
type Tables struct {
	m *Manager
}

// Exists reports whether table exists in database.
func (t *Tables) Exists(ctx context.Context, database, table string) (bool, error) {
	const op = "tables.exists"
	database = t.m.database(database)
	if _, err := t.m.quote(op, table); err != nil {
		return false, err
	}

	var exists bool
	err := t.m.withSession(ctx, op, database, func(s *session) error {
		var err error
		exists, err = s.catalog.TableExists(ctx, table)
		return err
	})
	return exists, err
}

// Create creates an empty table. It returns false without error when the
// table already exists.
func (t *Tables) Create(ctx context.Context, database, table string) (bool, error) {
	const op = "tables.create"
	database = t.m.database(database)
	ident, err := t.m.quote(op, table)
	if err != nil {
		return false, err
	}

	created := false
	err = t.m.withSession(ctx, op, database, func(s *session) error {
		exists, err := s.catalog.TableExists(ctx, table)
		if err != nil || exists {
			return err
		}
		if _, err := s.exec(ctx, t.m.gen.CreateTable(ident)); err != nil {
			return err
		}
		created = true
		return nil
	})
	if IsAlreadyExists(err) {
		return false, nil
	}
	if err == nil && created {
		t.m.log.Debug("table created", "database", database, "table", table)
	}
	return created, err
}

// Delete drops the table. It returns false without error when the table does
// not exist.
func (t *Tables) Delete(ctx context.Context, database, table string) (bool, error) {
	const op = "tables.delete"
	database = t.m.database(database)
	ident, err := t.m.quote(op, table)
	if err != nil {
		return false, err
	}

	dropped := false
	err = t.m.withSession(ctx, op, database, func(s *session) error {
		exists, err := s.catalog.TableExists(ctx, table)
		if err != nil || !exists {
			return err
		}
		if _, err := s.exec(ctx, t.m.gen.DropTable(ident)); err != nil {
			return err
		}
		dropped = true
		return nil
	})
	if IsNotFound(err) {
		return false, nil
	}
	if err == nil && dropped {
		t.m.log.Debug("table dropped", "database", database, "table", table)
	}
	return dropped, err
}

// List returns the tables of database, sorted.
func (t *Tables) List(ctx context.Context, database string) ([]string, error) {
	const op = "tables.list"
	database = t.m.database(database)

	var tables []string
	err := t.m.withSession(ctx, op, database, func(s *session) error {
		var err error
		tables, err = s.catalog.ListTables(ctx)
		return err
	})
	if tables == nil && err == nil {
		tables = []string{}
	}
	return tables, err
}
