// Package client provides the database manager: databases, tables, columns
// and rows administered through one configured server connection.
package client

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/hashicorp/go-version"
	"github.com/spf13/afero"

	"github.com/ximilsoft/postgresql-manager/internal/debug"
	"github.com/ximilsoft/postgresql-manager/query/introspect"
	"github.com/ximilsoft/postgresql-manager/query/sqlgen"
)

// Manager is the entry point for every administrative operation. It holds
// only configuration; each operation obtains and releases its own session.
type Manager struct {
	cfg         Config
	provider    ConnectionProvider
	gen         sqlgen.Generator
	dialect     sqlgen.Dialect
	fs          afero.Fs
	log         *slog.Logger
	middlewares []Middleware
}

// Option configures a Manager.
type Option func(*Manager)

// WithProvider replaces the default driver-backed connection provider.
func WithProvider(p ConnectionProvider) Option {
	return func(m *Manager) { m.provider = p }
}

// WithLogger sets the logger. The default discards unless Config.Debug is set.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// WithMiddleware appends statement middlewares.
func WithMiddleware(mw ...Middleware) Option {
	return func(m *Manager) { m.middlewares = append(m.middlewares, mw...) }
}

// WithFs sets the filesystem used for SQLite database files.
func WithFs(fs afero.Fs) Option {
	return func(m *Manager) { m.fs = fs }
}

// New validates cfg and returns a Manager. With cfg.Debug set every statement
// is logged at debug level.
func New(cfg Config, opts ...Option) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	gen, err := sqlgen.NewGenerator(cfg.Provider)
	if err != nil {
		return nil, newError(KindConfiguration, "configure", cfg.Provider, err)
	}

	m := &Manager{
		cfg:     cfg,
		gen:     gen,
		dialect: gen.Dialect(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.log == nil {
		m.log = debug.New(cfg.Debug, nil)
	}
	if cfg.Debug {
		// outermost, so failures from later middlewares are logged too
		m.middlewares = append([]Middleware{LoggingMiddleware(m.log)}, m.middlewares...)
	}
	if m.fs == nil {
		m.fs = afero.NewOsFs()
	}
	if m.provider == nil {
		m.provider = NewDriverProvider(cfg, m.log)
	}
	return m, nil
}

// Configure is New with a boolean result. The error is logged at debug level.
func Configure(cfg Config, opts ...Option) (*Manager, bool) {
	m, err := New(cfg, opts...)
	if err != nil {
		debug.New(cfg.Debug, nil).Debug("configuration rejected", "error", err)
		return nil, false
	}
	return m, true
}

// OK collapses an operation result to a single boolean, logging err at debug level.
func (m *Manager) OK(ok bool, err error) bool {
	if err != nil {
		m.log.Debug("operation failed", "error", err)
		return false
	}
	return ok
}

// Config returns the effective configuration.
func (m *Manager) Config() Config {
	return m.cfg
}

// Provider returns the canonical provider name.
func (m *Manager) Provider() string {
	return m.cfg.Provider
}

// Databases returns the database service.
func (m *Manager) Databases() *Databases {
	return &Databases{m: m}
}

// Tables returns the table service.
func (m *Manager) Tables() *Tables {
	return &Tables{m: m}
}

// Columns returns the column service.
func (m *Manager) Columns() *Columns {
	return &Columns{m: m}
}

// Rows returns the row service.
func (m *Manager) Rows() *Rows {
	return &Rows{m: m}
}

// ServerVersion connects to the configured database and reports the server version.
func (m *Manager) ServerVersion(ctx context.Context) (*version.Version, error) {
	var v *version.Version
	err := m.withSession(ctx, "server.version", m.cfg.Database, func(s *session) error {
		var err error
		v, err = s.catalog.ServerVersion(ctx)
		return err
	})
	return v, err
}

func (m *Manager) database(name string) string {
	if name == "" {
		return m.cfg.Database
	}
	return name
}

func (m *Manager) quote(op, name string) (sqlgen.Ident, error) {
	ident, err := m.dialect.Quote(name)
	if err != nil {
		return "", newError(KindValidation, op, name, err)
	}
	return ident, nil
}

// session is one obtained connection plus the helpers bound to it.
type session struct {
	m       *Manager
	conn    Conn
	catalog introspect.Introspector
}

// withSession obtains a connection to database, runs fn and releases the
// connection on every exit path. Errors are classified before returning.
func (m *Manager) withSession(ctx context.Context, op, database string, fn func(s *session) error) (err error) {
	conn, err := m.provider.Obtain(ctx, database)
	if err != nil {
		return classify(op, database, err)
	}
	defer func() {
		if relErr := m.provider.Release(conn); relErr != nil {
			m.log.Debug("release failed", "op", op, "database", database, "error", relErr)
		}
	}()

	catalog, err := introspect.NewIntrospector(conn, m.cfg.Provider)
	if err != nil {
		return newError(KindConfiguration, op, database, err)
	}

	s := &session{m: m, conn: conn, catalog: catalog}
	if err := fn(s); err != nil {
		return classify(op, database, err)
	}
	return nil
}

// exec runs a statement on the session through the middleware chain.
func (s *session) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return execWith(ctx, s.m, s.conn, query, args...)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func execWith(ctx context.Context, m *Manager, e execer, query string, args ...any) (sql.Result, error) {
	var res sql.Result
	err := m.runMiddleware(ctx, query, args, func() error {
		var err error
		res, err = e.ExecContext(ctx, query, args...)
		return err
	})
	return res, err
}

// queryRow runs a single-row query through the middleware chain and scans it into dest.
func (s *session) queryRow(ctx context.Context, q *sqlgen.Query, dest ...any) error {
	return s.m.runMiddleware(ctx, q.SQL, q.Args, func() error {
		return s.conn.QueryRowContext(ctx, q.SQL, q.Args...).Scan(dest...)
	})
}
