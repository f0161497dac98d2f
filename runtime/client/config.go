package client

import (
	"fmt"
	"net"
	"net/url"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/ximilsoft/postgresql-manager/query/sqlgen"
)

// Defaults applied by Config.withDefaults.
const (
	DefaultLimit          = 100
	DefaultIDColumn       = "id"
	DefaultConnectTimeout = 10 * time.Second
)

// sqliteName matches database names usable as a file name in DataDir.
var sqliteName = regexp.MustCompile(`^[\p{L}\p{N}_][\p{L}\p{N}_.-]*$`)

// ValidSQLiteName reports whether name can name a SQLite database file.
func ValidSQLiteName(name string) error {
	if !sqliteName.MatchString(name) {
		return fmt.Errorf("%w: %q is not a plain file name (letters, digits, '_', '.', '-')", ErrInvalidIdentifier, name)
	}
	return nil
}

// Config holds everything needed to reach the database server. A Manager
// copies it at construction time; there is no package-level configuration.
type Config struct {
	// Provider is postgresql (default), mysql or sqlite.
	Provider string `mapstructure:"provider" yaml:"provider"`

	Host     string `mapstructure:"host" yaml:"host"`
	Port     string `mapstructure:"port" yaml:"port"`
	User     string `mapstructure:"user" yaml:"user"`
	Password string `mapstructure:"password" yaml:"password"`

	// Database is used when an operation is given an empty database name.
	Database string `mapstructure:"database" yaml:"database"`
	// MaintenanceDatabase is connected to for creating and dropping
	// databases. Defaults to "postgres" for PostgreSQL; MySQL connects
	// without a default database.
	MaintenanceDatabase string `mapstructure:"maintenance_database" yaml:"maintenance_database"`

	// SSLMode is passed to lib/pq. Defaults to "disable".
	SSLMode string `mapstructure:"sslmode" yaml:"sslmode"`
	// DataDir holds SQLite database files. Defaults to the working directory.
	DataDir string `mapstructure:"data_dir" yaml:"data_dir"`

	ConnectTimeout time.Duration `mapstructure:"connect_timeout" yaml:"connect_timeout"`

	// IDColumn identifies rows for insert RETURNING, update and delete.
	IDColumn string `mapstructure:"id_column" yaml:"id_column"`

	// AllowEmptyPassword accepts a blank password, e.g. for trust authentication.
	AllowEmptyPassword bool `mapstructure:"allow_empty_password" yaml:"allow_empty_password"`

	Debug bool `mapstructure:"debug" yaml:"debug"`
}

// withDefaults returns a copy of c with defaults filled in.
func (c Config) withDefaults() Config {
	c.Provider = sqlgen.NormalizeProvider(c.providerOrDefault())
	if c.MaintenanceDatabase == "" && c.Provider == sqlgen.ProviderPostgres {
		c.MaintenanceDatabase = "postgres"
	}
	if c.SSLMode == "" {
		c.SSLMode = "disable"
	}
	if c.DataDir == "" {
		c.DataDir = "."
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.IDColumn == "" {
		c.IDColumn = DefaultIDColumn
	}
	return c
}

func (c Config) providerOrDefault() string {
	if strings.TrimSpace(c.Provider) == "" {
		return sqlgen.ProviderPostgres
	}
	return c.Provider
}

// Validate reports every missing required field at once.
func (c Config) Validate() error {
	provider := sqlgen.NormalizeProvider(c.providerOrDefault())
	if provider == "" {
		return newError(KindConfiguration, "configure", c.Provider, fmt.Errorf("unsupported provider: %s", c.Provider))
	}

	var missing []string
	if c.Database == "" {
		missing = append(missing, "database")
	}
	if provider != sqlgen.ProviderSQLite {
		if c.Host == "" {
			missing = append(missing, "host")
		}
		if c.Port == "" {
			missing = append(missing, "port")
		}
		if c.User == "" {
			missing = append(missing, "user")
		}
		if c.Password == "" && !c.AllowEmptyPassword {
			missing = append(missing, "password")
		}
	}
	if len(missing) > 0 {
		return newError(KindConfiguration, "configure", provider,
			fmt.Errorf("%w: %s", ErrMissingField, strings.Join(missing, ", ")))
	}

	if c.Port != "" {
		if _, err := strconv.Atoi(c.Port); err != nil {
			return newError(KindConfiguration, "configure", provider, fmt.Errorf("invalid port %q", c.Port))
		}
	}
	return nil
}

// DriverName maps the provider to the registered database/sql driver.
func (c Config) DriverName() string {
	switch sqlgen.NormalizeProvider(c.providerOrDefault()) {
	case sqlgen.ProviderPostgres:
		return "postgres"
	case sqlgen.ProviderMySQL:
		return "mysql"
	case sqlgen.ProviderSQLite:
		return "sqlite3"
	default:
		return ""
	}
}

// DSN returns the data source name for database. An empty database connects
// without selecting one (MySQL only).
func (c Config) DSN(database string) string {
	c = c.withDefaults()
	switch c.Provider {
	case sqlgen.ProviderMySQL:
		cfg := mysql.NewConfig()
		cfg.User = c.User
		cfg.Passwd = c.Password
		cfg.Net = "tcp"
		cfg.Addr = net.JoinHostPort(c.Host, c.Port)
		cfg.DBName = database
		cfg.Timeout = c.ConnectTimeout
		cfg.ParseTime = true
		// report matched rather than changed rows, like the other providers
		cfg.ClientFoundRows = true
		return cfg.FormatDSN()

	case sqlgen.ProviderSQLite:
		path := c.SQLitePath(database)
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		path = filepath.ToSlash(path)
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		q := url.Values{}
		// mode=rw refuses to create missing files; databases are created explicitly.
		q.Set("mode", "rw")
		q.Set("_busy_timeout", "5000")
		u := url.URL{Scheme: "file", Path: path, RawQuery: q.Encode()}
		return u.String()

	default:
		q := url.Values{}
		q.Set("sslmode", c.SSLMode)
		q.Set("connect_timeout", strconv.Itoa(int(c.ConnectTimeout.Seconds())))
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(c.User, c.Password),
			Host:     net.JoinHostPort(c.Host, c.Port),
			Path:     "/" + database,
			RawQuery: q.Encode(),
		}
		return u.String()
	}
}

// SQLitePath returns the file holding the named SQLite database.
func (c Config) SQLitePath(database string) string {
	dir := c.DataDir
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, database+".db")
}
