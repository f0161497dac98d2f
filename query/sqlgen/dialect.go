// Package sqlgen generates SQL for different database providers.
package sqlgen

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/lib/pq"
)

// Provider names accepted by NewDialect.
const (
	ProviderPostgres = "postgresql"
	ProviderMySQL    = "mysql"
	ProviderSQLite   = "sqlite"
)

// Ident is an identifier that has already been validated and quoted for a
// dialect. The statement assembler only accepts Ident in structural positions.
type Ident string

// String returns the quoted identifier.
func (i Ident) String() string {
	return string(i)
}

// Dialect captures provider specific placeholder and quoting rules.
type Dialect interface {
	// Name returns the canonical provider name.
	Name() string
	// Placeholder returns the bind placeholder for the 1-based index.
	Placeholder(index int) string
	// Quote validates name and returns it quoted for a structural position.
	Quote(name string) (Ident, error)
	// MaxIdentifierLength returns the longest accepted identifier, 0 meaning no limit.
	MaxIdentifierLength() int
}

// NewDialect returns the dialect for the given provider.
func NewDialect(provider string) (Dialect, error) {
	switch NormalizeProvider(provider) {
	case ProviderPostgres:
		return PostgresDialect{}, nil
	case ProviderMySQL:
		return MySQLDialect{}, nil
	case ProviderSQLite:
		return SQLiteDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

// NormalizeProvider maps provider aliases to their canonical name.
func NormalizeProvider(provider string) string {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "postgresql", "postgres", "pg":
		return ProviderPostgres
	case "mysql", "mariadb":
		return ProviderMySQL
	case "sqlite", "sqlite3":
		return ProviderSQLite
	default:
		return ""
	}
}

// PostgresDialect uses $1, $2 placeholders and double quoted identifiers.
type PostgresDialect struct{}

func (PostgresDialect) Name() string { return ProviderPostgres }

func (PostgresDialect) Placeholder(index int) string {
	return fmt.Sprintf("$%d", index)
}

// MaxIdentifierLength is NAMEDATALEN-1 in a default build.
func (PostgresDialect) MaxIdentifierLength() int { return 63 }

func (d PostgresDialect) Quote(name string) (Ident, error) {
	// PostgreSQL counts identifier length in bytes.
	if err := checkIdentifier(name, len(name), d.MaxIdentifierLength()); err != nil {
		return "", err
	}
	return Ident(pq.QuoteIdentifier(name)), nil
}

// MySQLDialect uses ? placeholders and backtick quoted identifiers.
type MySQLDialect struct{}

func (MySQLDialect) Name() string { return ProviderMySQL }

func (MySQLDialect) Placeholder(int) string { return "?" }

func (MySQLDialect) MaxIdentifierLength() int { return 64 }

func (d MySQLDialect) Quote(name string) (Ident, error) {
	if err := checkIdentifier(name, utf8.RuneCountInString(name), d.MaxIdentifierLength()); err != nil {
		return "", err
	}
	return Ident("`" + strings.ReplaceAll(name, "`", "``") + "`"), nil
}

// SQLiteDialect uses ? placeholders and double quoted identifiers.
type SQLiteDialect struct{}

func (SQLiteDialect) Name() string { return ProviderSQLite }

func (SQLiteDialect) Placeholder(int) string { return "?" }

func (SQLiteDialect) MaxIdentifierLength() int { return 0 }

func (d SQLiteDialect) Quote(name string) (Ident, error) {
	if err := checkIdentifier(name, len(name), d.MaxIdentifierLength()); err != nil {
		return "", err
	}
	return Ident(`"` + strings.ReplaceAll(name, `"`, `""`) + `"`), nil
}

func checkIdentifier(name string, length, max int) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidIdentifier)
	}
	if strings.ContainsRune(name, 0) {
		return fmt.Errorf("%w: %q contains a NUL byte", ErrInvalidIdentifier, name)
	}
	if !utf8.ValidString(name) {
		return fmt.Errorf("%w: %q is not valid UTF-8", ErrInvalidIdentifier, name)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%w: %q exceeds %d characters", ErrInvalidIdentifier, name, max)
	}
	return nil
}

// QuoteAll quotes every name, stopping at the first invalid one.
func QuoteAll(d Dialect, names []string) ([]Ident, error) {
	out := make([]Ident, len(names))
	for i, name := range names {
		ident, err := d.Quote(name)
		if err != nil {
			return nil, err
		}
		out[i] = ident
	}
	return out, nil
}
