// Package sqlgen generates SQL for different database providers.
//
// Structural names reach the assembler only as Ident values produced by a
// Dialect, and filter values only as bound arguments of a Fragment. The
// assembler itself performs no quoting or validation.
package sqlgen

import (
	"fmt"
	"strings"
)

// Query represents a SQL query with arguments
type Query struct {
	SQL  string
	Args []any
}

// ColumnDef is a column definition ready to be rendered.
type ColumnDef struct {
	Name    Ident
	Type    string // canonical type name from the allowed set
	NotNull bool
	Primary bool
	Comment string
}

// Generator assembles complete statements for one provider.
type Generator interface {
	Dialect() Dialect

	CreateDatabase(db Ident) string
	DropDatabase(db Ident) string
	// TerminateSessions returns the statement that ends, or for MySQL lists,
	// the other sessions connected to database. It is nil when the provider
	// has no sessions to end.
	TerminateSessions(database string, legacyPID bool) *Query
	// KillSession ends one session listed by TerminateSessions (MySQL only).
	KillSession(id int64) string

	CreateTable(table Ident) string
	// CreateTableWith creates a table holding cols. SQLite uses it to rebuild
	// an empty table, since ALTER TABLE cannot add key or NOT NULL columns.
	CreateTableWith(table Ident, cols ...ColumnDef) string
	DropTable(table Ident) string

	AddColumn(table Ident, col ColumnDef) string
	// CommentOnColumn returns "" when the comment is already inlined by
	// AddColumn or the provider has no column comments.
	CommentOnColumn(table Ident, col Ident, comment string) string
	DropColumn(table, col Ident) string

	Select(table Ident, where Fragment, limit int) *Query
	Exists(table Ident, where Fragment) *Query
	Count(table Ident, where Fragment) *Query
	// Insert builds the statement shape for one row of cols. Arguments are
	// bound per row by the caller. An empty returning omits RETURNING.
	Insert(table Ident, cols []Ident, returning Ident) string
	// SupportsReturning reports whether Insert appends RETURNING.
	SupportsReturning() bool
	Update(table Ident, set Fragment, idCol Ident, id any) *Query
	Delete(table Ident, idCol Ident, id any) *Query
}

// PlaceholderColumn is added to tables created without columns on providers
// that require at least one column. It is replaced by the first real column.
const PlaceholderColumn = "__pgmanager_placeholder"

// NewGenerator creates a new SQL generator for the given provider
func NewGenerator(provider string) (Generator, error) {
	switch NormalizeProvider(provider) {
	case ProviderPostgres:
		return &PostgresGenerator{base{d: PostgresDialect{}}}, nil
	case ProviderMySQL:
		return &MySQLGenerator{base{d: MySQLDialect{}}}, nil
	case ProviderSQLite:
		return &SQLiteGenerator{base{d: SQLiteDialect{}}}, nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

// base holds the statements whose shape is shared by every provider.
type base struct {
	d Dialect
}

func (g base) Dialect() Dialect { return g.d }

func (g base) CreateDatabase(db Ident) string {
	return fmt.Sprintf("CREATE DATABASE %s", db)
}

func (g base) DropDatabase(db Ident) string {
	return fmt.Sprintf("DROP DATABASE %s", db)
}

func (g base) KillSession(int64) string { return "" }

func (g base) DropTable(table Ident) string {
	return fmt.Sprintf("DROP TABLE %s", table)
}

func (g base) DropColumn(table, col Ident) string {
	return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", table, col)
}

func (g base) CommentOnColumn(Ident, Ident, string) string { return "" }

func (g base) columnSQL(col ColumnDef, typeName string) string {
	parts := []string{string(col.Name), typeName}
	if col.Primary {
		parts = append(parts, "PRIMARY KEY")
	}
	if col.NotNull {
		parts = append(parts, "NOT NULL")
	}
	return strings.Join(parts, " ")
}

func (g base) Select(table Ident, where Fragment, limit int) *Query {
	var parts []string
	var args []any

	parts = append(parts, fmt.Sprintf("SELECT * FROM %s", table))

	if !where.Empty() {
		parts = append(parts, "WHERE "+where.SQL)
		args = append(args, where.Args...)
	}

	parts = append(parts, "LIMIT "+g.d.Placeholder(len(args)+1))
	args = append(args, limit)

	return &Query{
		SQL:  strings.Join(parts, " "),
		Args: args,
	}
}

func (g base) Exists(table Ident, where Fragment) *Query {
	inner := fmt.Sprintf("SELECT 1 FROM %s", table)
	if !where.Empty() {
		inner += " WHERE " + where.SQL
	}
	return &Query{
		SQL:  fmt.Sprintf("SELECT EXISTS(%s)", inner),
		Args: where.Args,
	}
}

func (g base) Count(table Ident, where Fragment) *Query {
	sql := fmt.Sprintf("SELECT COUNT(*) FROM %s", table)
	if !where.Empty() {
		sql += " WHERE " + where.SQL
	}
	return &Query{SQL: sql, Args: where.Args}
}

func (g base) insert(table Ident, cols []Ident) string {
	quoted := make([]string, len(cols))
	placeholders := make([]string, len(cols))
	for i, col := range cols {
		quoted[i] = string(col)
		placeholders[i] = g.d.Placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(quoted, ", "), strings.Join(placeholders, ", "))
}

func (g base) Update(table Ident, set Fragment, idCol Ident, id any) *Query {
	args := append(append([]any(nil), set.Args...), id)
	return &Query{
		SQL:  fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s", table, set.SQL, idCol, g.d.Placeholder(len(args))),
		Args: args,
	}
}

func (g base) Delete(table Ident, idCol Ident, id any) *Query {
	return &Query{
		SQL:  fmt.Sprintf("DELETE FROM %s WHERE %s = %s", table, idCol, g.d.Placeholder(1)),
		Args: []any{id},
	}
}

// PostgresGenerator generates PostgreSQL SQL
type PostgresGenerator struct{ base }

func (g *PostgresGenerator) TerminateSessions(database string, legacyPID bool) *Query {
	pid := "pid"
	if legacyPID {
		pid = "procpid"
	}
	return &Query{
		SQL: fmt.Sprintf("SELECT pg_terminate_backend(pg_stat_activity.%[1]s) FROM pg_stat_activity "+
			"WHERE pg_stat_activity.datname = $1 AND %[1]s <> pg_backend_pid()", pid),
		Args: []any{database},
	}
}

func (g *PostgresGenerator) CreateTable(table Ident) string {
	return fmt.Sprintf("CREATE TABLE %s ()", table)
}

func (g *PostgresGenerator) CreateTableWith(table Ident, cols ...ColumnDef) string {
	return createTable(table, cols, g.column)
}

func (g *PostgresGenerator) AddColumn(table Ident, col ColumnDef) string {
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", table, g.column(col))
}

func (g *PostgresGenerator) column(col ColumnDef) string {
	return g.columnSQL(col, TypeFor(g, col.Type))
}

// CommentOnColumn inlines the comment as a literal: utility statements do not
// accept bind parameters.
func (g *PostgresGenerator) CommentOnColumn(table, col Ident, comment string) string {
	if comment == "" {
		return ""
	}
	return fmt.Sprintf("COMMENT ON COLUMN %s.%s IS %s", table, col, quoteLiteralPostgres(comment))
}

func (g *PostgresGenerator) Insert(table Ident, cols []Ident, returning Ident) string {
	return withReturning(g.insert(table, cols), returning)
}

func (g *PostgresGenerator) SupportsReturning() bool { return true }

// MySQLGenerator generates MySQL SQL
type MySQLGenerator struct{ base }

func (g *MySQLGenerator) TerminateSessions(database string, _ bool) *Query {
	return &Query{
		SQL:  "SELECT id FROM information_schema.processlist WHERE db = ? AND id <> CONNECTION_ID()",
		Args: []any{database},
	}
}

func (g *MySQLGenerator) KillSession(id int64) string {
	return fmt.Sprintf("KILL %d", id)
}

func (g *MySQLGenerator) CreateTable(table Ident) string {
	return fmt.Sprintf("CREATE TABLE %s (%s INT NULL)", table, mustQuote(g.d, PlaceholderColumn))
}

func (g *MySQLGenerator) CreateTableWith(table Ident, cols ...ColumnDef) string {
	return createTable(table, cols, g.mysqlColumn)
}

func (g *MySQLGenerator) AddColumn(table Ident, col ColumnDef) string {
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", table, g.mysqlColumn(col))
}

func (g *MySQLGenerator) mysqlColumn(col ColumnDef) string {
	def := g.columnSQL(col, TypeFor(g, col.Type))
	if col.Comment != "" {
		def += " COMMENT " + quoteLiteralMySQL(col.Comment)
	}
	return def
}

func (g *MySQLGenerator) Insert(table Ident, cols []Ident, _ Ident) string {
	return g.insert(table, cols)
}

func (g *MySQLGenerator) SupportsReturning() bool { return false }

// SQLiteGenerator generates SQLite SQL
type SQLiteGenerator struct{ base }

// TerminateSessions is nil: SQLite databases are files without server sessions.
func (g *SQLiteGenerator) TerminateSessions(string, bool) *Query { return nil }

func (g *SQLiteGenerator) CreateTable(table Ident) string {
	return fmt.Sprintf("CREATE TABLE %s (%s INTEGER)", table, mustQuote(g.d, PlaceholderColumn))
}

func (g *SQLiteGenerator) CreateTableWith(table Ident, cols ...ColumnDef) string {
	return createTable(table, cols, g.column)
}

func (g *SQLiteGenerator) AddColumn(table Ident, col ColumnDef) string {
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", table, g.column(col))
}

func (g *SQLiteGenerator) column(col ColumnDef) string {
	return g.columnSQL(col, TypeFor(g, col.Type))
}

func createTable(table Ident, cols []ColumnDef, render func(ColumnDef) string) string {
	defs := make([]string, len(cols))
	for i, col := range cols {
		defs[i] = render(col)
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", table, strings.Join(defs, ", "))
}

func (g *SQLiteGenerator) Insert(table Ident, cols []Ident, returning Ident) string {
	return withReturning(g.insert(table, cols), returning)
}

func (g *SQLiteGenerator) SupportsReturning() bool { return true }

func withReturning(sql string, returning Ident) string {
	if returning == "" {
		return sql
	}
	return sql + " RETURNING " + string(returning)
}

func mustQuote(d Dialect, name string) Ident {
	ident, err := d.Quote(name)
	if err != nil {
		panic(err)
	}
	return ident
}
