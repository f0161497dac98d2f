package client

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/lib/pq"              // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3"    // SQLite driver

	"github.com/ximilsoft/postgresql-manager/internal/debug"
	"github.com/ximilsoft/postgresql-manager/query/sqlgen"
)

// Conn is an open session to one database. *sql.DB satisfies it.
type Conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
	PingContext(ctx context.Context) error
	Close() error
}

// ConnectionProvider hands out sessions. Every Obtain is paired with exactly
// one Release.
type ConnectionProvider interface {
	Obtain(ctx context.Context, database string) (Conn, error)
	Release(conn Conn) error
}

// DriverProvider opens a database/sql handle per Obtain and closes it on Release.
type DriverProvider struct {
	cfg Config
	log *slog.Logger
}

// NewDriverProvider creates a provider for cfg.
func NewDriverProvider(cfg Config, log *slog.Logger) *DriverProvider {
	if log == nil {
		log = debug.Discard()
	}
	return &DriverProvider{cfg: cfg.withDefaults(), log: log}
}

// Obtain opens a session to database and checks it is reachable.
func (p *DriverProvider) Obtain(ctx context.Context, database string) (Conn, error) {
	driverName := p.cfg.DriverName()
	if driverName == "" {
		return nil, newError(KindConfiguration, "connect", database, fmt.Errorf("unsupported provider: %s", p.cfg.Provider))
	}

	if p.cfg.Provider == sqlgen.ProviderSQLite {
		if err := ValidSQLiteName(database); err != nil {
			return nil, newError(KindValidation, "connect", database, err)
		}
	}

	db, err := sql.Open(driverName, p.cfg.DSN(database))
	if err != nil {
		return nil, newError(KindConnection, "connect", database, err)
	}
	// one session per operation
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, p.cfg.ConnectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, newError(KindConnection, "connect", database, err)
	}

	p.log.Debug("connection opened", "provider", p.cfg.Provider, "database", database)
	return db, nil
}

// Release closes conn.
func (p *DriverProvider) Release(conn Conn) error {
	if conn == nil {
		return nil
	}
	return conn.Close()
}
