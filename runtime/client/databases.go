package client

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-version"
	"github.com/spf13/afero"

	"github.com/ximilsoft/postgresql-manager/query/sqlgen"
)

// pidColumnRename is the first PostgreSQL release whose pg_stat_activity has
// "pid" instead of "procpid".
var pidColumnRename = version.Must(version.NewVersion("9.2"))

// sqliteSidecars are files SQLite may keep next to a database.
var sqliteSidecars = []string{"-journal", "-wal", "-shm"}

// Databases creates, drops and lists databases.
type Databases struct {
	m *Manager
}

// Exists reports whether the database exists.
func (d *Databases) Exists(ctx context.Context, name string) (bool, error) {
	const op = "databases.exists"
	if err := d.validate(op, name); err != nil {
		return false, err
	}

	if d.m.cfg.Provider == sqlgen.ProviderSQLite {
		ok, err := afero.Exists(d.m.fs, d.m.cfg.SQLitePath(name))
		if err != nil {
			return false, newError(KindExecution, op, name, err)
		}
		return ok, nil
	}

	var exists bool
	err := d.m.withSession(ctx, op, d.m.cfg.MaintenanceDatabase, func(s *session) error {
		var err error
		exists, err = s.catalog.DatabaseExists(ctx, name)
		return err
	})
	return exists, err
}

// Create creates the database. It returns false without error when the
// database already exists.
func (d *Databases) Create(ctx context.Context, name string) (bool, error) {
	const op = "databases.create"
	if err := d.validate(op, name); err != nil {
		return false, err
	}
	ident, err := d.m.quote(op, name)
	if err != nil {
		return false, err
	}

	if d.m.cfg.Provider == sqlgen.ProviderSQLite {
		return d.createFile(op, name)
	}

	created := false
	err = d.m.withSession(ctx, op, d.m.cfg.MaintenanceDatabase, func(s *session) error {
		exists, err := s.catalog.DatabaseExists(ctx, name)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}
		if _, err := s.exec(ctx, d.m.gen.CreateDatabase(ident)); err != nil {
			return err
		}
		created = true
		return nil
	})
	if IsAlreadyExists(err) {
		// created concurrently between the check and the statement
		return false, nil
	}
	if err == nil && created {
		d.m.log.Debug("database created", "database", name)
	}
	return created, err
}

// Delete drops the database after ending the other sessions connected to it.
// It returns false without error when the database does not exist. Ending
// sessions and dropping are two statements; a client that reconnects in
// between makes the drop fail.
func (d *Databases) Delete(ctx context.Context, name string) (bool, error) {
	const op = "databases.delete"
	if err := d.validate(op, name); err != nil {
		return false, err
	}
	if name == d.m.cfg.MaintenanceDatabase {
		return false, newError(KindValidation, op, name, errors.New("refusing to drop the maintenance database"))
	}
	ident, err := d.m.quote(op, name)
	if err != nil {
		return false, err
	}

	if d.m.cfg.Provider == sqlgen.ProviderSQLite {
		return d.removeFile(op, name)
	}

	dropped := false
	err = d.m.withSession(ctx, op, d.m.cfg.MaintenanceDatabase, func(s *session) error {
		exists, err := s.catalog.DatabaseExists(ctx, name)
		if err != nil {
			return err
		}
		if !exists {
			return nil
		}
		if err := d.terminateSessions(ctx, s, name); err != nil {
			return err
		}
		if _, err := s.exec(ctx, d.m.gen.DropDatabase(ident)); err != nil {
			return err
		}
		dropped = true
		return nil
	})
	if IsNotFound(err) {
		return false, nil
	}
	if err == nil && dropped {
		d.m.log.Debug("database dropped", "database", name)
	}
	return dropped, err
}

// List returns the names of the databases on the server, sorted.
func (d *Databases) List(ctx context.Context) ([]string, error) {
	const op = "databases.list"

	if d.m.cfg.Provider == sqlgen.ProviderSQLite {
		infos, err := afero.ReadDir(d.m.fs, d.m.cfg.DataDir)
		if err != nil {
			return nil, newError(KindExecution, op, d.m.cfg.DataDir, err)
		}
		names := []string{}
		for _, info := range infos {
			if info.IsDir() || !strings.HasSuffix(info.Name(), ".db") {
				continue
			}
			names = append(names, strings.TrimSuffix(info.Name(), ".db"))
		}
		sort.Strings(names)
		return names, nil
	}

	var names []string
	err := d.m.withSession(ctx, op, d.m.cfg.MaintenanceDatabase, func(s *session) error {
		var err error
		names, err = s.catalog.ListDatabases(ctx)
		return err
	})
	return names, err
}

func (d *Databases) validate(op, name string) error {
	if name == "" {
		return newError(KindValidation, op, name, fmt.Errorf("%w: empty database name", ErrInvalidIdentifier))
	}
	if d.m.cfg.Provider == sqlgen.ProviderSQLite {
		if err := ValidSQLiteName(name); err != nil {
			return newError(KindValidation, op, name, err)
		}
	}
	return nil
}

// terminateSessions ends every other session connected to database.
func (d *Databases) terminateSessions(ctx context.Context, s *session, database string) error {
	legacy := false
	if d.m.cfg.Provider == sqlgen.ProviderPostgres {
		v, err := s.catalog.ServerVersion(ctx)
		if err != nil {
			return err
		}
		legacy = v.LessThan(pidColumnRename)
	}

	q := d.m.gen.TerminateSessions(database, legacy)
	if q == nil {
		return nil
	}

	if d.m.cfg.Provider != sqlgen.ProviderMySQL {
		_, err := s.exec(ctx, q.SQL, q.Args...)
		return err
	}

	// MySQL lists the sessions and kills them one by one.
	ids, err := queryIDs(ctx, s, q)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if _, err := s.exec(ctx, d.m.gen.KillSession(id)); err != nil {
			// the session may have ended on its own
			d.m.log.Debug("kill session failed", "id", id, "error", err)
		}
	}
	return nil
}

func queryIDs(ctx context.Context, s *session, q *sqlgen.Query) ([]int64, error) {
	rows, err := s.conn.QueryContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (d *Databases) createFile(op, name string) (bool, error) {
	path := d.m.cfg.SQLitePath(name)
	if ok, err := afero.Exists(d.m.fs, path); err != nil || ok {
		if err != nil {
			return false, newError(KindExecution, op, name, err)
		}
		return false, nil
	}
	if err := d.m.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, newError(KindExecution, op, name, err)
	}

	f, err := d.m.fs.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if errors.Is(err, os.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, newError(KindExecution, op, name, err)
	}
	if err := f.Close(); err != nil {
		return false, newError(KindExecution, op, name, err)
	}

	d.m.log.Debug("database created", "database", name, "path", path)
	return true, nil
}

func (d *Databases) removeFile(op, name string) (bool, error) {
	path := d.m.cfg.SQLitePath(name)
	err := d.m.fs.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, newError(KindExecution, op, name, err)
	}

	for _, suffix := range sqliteSidecars {
		if err := d.m.fs.Remove(path + suffix); err != nil && !errors.Is(err, os.ErrNotExist) {
			d.m.log.Debug("failed to remove sidecar file", "path", path+suffix, "error", err)
		}
	}

	d.m.log.Debug("database dropped", "database", name, "path", path)
	return true, nil
}
