package client

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/ximilsoft/postgresql-manager/internal/debug"
	"github.com/ximilsoft/postgresql-manager/runtime/types"
)

// countingProvider records every Obtain and Release.
type countingProvider struct {
	ConnectionProvider
	mu       sync.Mutex
	obtained int
	released int
}

func (p *countingProvider) Obtain(ctx context.Context, database string) (Conn, error) {
	conn, err := p.ConnectionProvider.Obtain(ctx, database)
	if err == nil {
		p.mu.Lock()
		p.obtained++
		p.mu.Unlock()
	}
	return conn, err
}

func (p *countingProvider) Release(conn Conn) error {
	p.mu.Lock()
	p.released++
	p.mu.Unlock()
	return p.ConnectionProvider.Release(conn)
}

// SQLiteSuite runs the services against SQLite files in a temporary directory.
type SQLiteSuite struct {
	suite.Suite
	ctx        context.Context
	dir        string
	m          *Manager
	provider   *countingProvider
	statements []string
}

func TestSQLiteSuite(t *testing.T) {
	suite.Run(t, new(SQLiteSuite))
}

func (s *SQLiteSuite) SetupTest() {
	s.ctx = context.Background()
	s.dir = s.T().TempDir()
	s.statements = nil

	cfg := Config{Provider: "sqlite", Database: "testdb", DataDir: s.dir}
	s.provider = &countingProvider{ConnectionProvider: NewDriverProvider(cfg, nil)}

	m, err := New(cfg,
		WithProvider(s.provider),
		WithFs(afero.NewOsFs()),
		WithMiddleware(func(ctx context.Context, event *StatementEvent, next func() error) error {
			s.statements = append(s.statements, event.Query)
			return next()
		}),
	)
	s.Require().NoError(err)
	s.m = m
}

func (s *SQLiteSuite) TearDownTest() {
	s.Equal(s.provider.obtained, s.provider.released, "every obtained connection is released")
}

// createUsers sets up testdb.users(id INT PRIMARY KEY, name VARCHAR).
func (s *SQLiteSuite) createUsers() {
	ok, err := s.m.Databases().Create(s.ctx, "testdb")
	s.Require().NoError(err)
	s.Require().True(ok)

	ok, err = s.m.Tables().Create(s.ctx, "testdb", "users")
	s.Require().NoError(err)
	s.Require().True(ok)

	res, err := s.m.Columns().Create(s.ctx, "testdb", "users", []types.ColumnDefinition{
		{Name: "id", Type: "INT", Primary: true},
		{Name: "name", Type: "VARCHAR"},
	})
	s.Require().NoError(err)
	s.Require().True(res.Complete())
}

func (s *SQLiteSuite) TestRoundTrip() {
	s.createUsers()

	res, err := s.m.Rows().Create(s.ctx, "testdb", "users", []types.Row{
		{"id": 1, "name": "Alice"},
		{"id": 2, "name": "Bob"},
	}, InsertOptions{})
	s.Require().NoError(err)
	s.Equal(2, res.Inserted())
	s.EqualValues(1, res.IDs[0])

	byID := ListOptions{Where: types.Where("id", 1)}
	rows, err := s.m.Rows().List(s.ctx, "testdb", "users", byID)
	s.Require().NoError(err)
	s.Require().Len(rows, 1)
	s.EqualValues(1, rows[0]["id"])
	s.Equal("Alice", rows[0]["name"])

	ok, err := s.m.Rows().Delete(s.ctx, "testdb", "users", 1)
	s.Require().NoError(err)
	s.True(ok)

	rows, err = s.m.Rows().List(s.ctx, "testdb", "users", byID)
	s.Require().NoError(err)
	s.Empty(rows)

	rows, err = s.m.Rows().List(s.ctx, "testdb", "users", ListOptions{})
	s.Require().NoError(err)
	s.Require().Len(rows, 1, "only the deleted row is gone")
	s.Equal("Bob", rows[0]["name"])
}

func (s *SQLiteSuite) TestDatabaseLifecycle() {
	dbs := s.m.Databases()

	ok, err := dbs.Exists(s.ctx, "testdb")
	s.Require().NoError(err)
	s.False(ok)

	ok, err = dbs.Create(s.ctx, "testdb")
	s.Require().NoError(err)
	s.True(ok)
	s.FileExists(filepath.Join(s.dir, "testdb.db"))

	ok, err = dbs.Create(s.ctx, "testdb")
	s.Require().NoError(err)
	s.False(ok, "second create is a no-op")

	names, err := dbs.List(s.ctx)
	s.Require().NoError(err)
	s.Equal([]string{"testdb"}, names)

	ok, err = dbs.Delete(s.ctx, "testdb")
	s.Require().NoError(err)
	s.True(ok)
	s.NoFileExists(filepath.Join(s.dir, "testdb.db"))

	ok, err = dbs.Delete(s.ctx, "testdb")
	s.Require().NoError(err)
	s.False(ok)
}

func (s *SQLiteSuite) TestDatabaseNameMustBePlainFile() {
	_, err := s.m.Databases().Create(s.ctx, "../escape")
	s.Require().Error(err)
	s.Equal(KindValidation, KindOf(err))
	s.ErrorIs(err, ErrInvalidIdentifier)

	_, err = os.Stat(filepath.Join(filepath.Dir(s.dir), "escape.db"))
	s.True(os.IsNotExist(err))
}

func (s *SQLiteSuite) TestDatabaseNameWithURICharacters() {
	for _, name := range []string{"a?b", "x%41", "a#b"} {
		_, err := s.m.Databases().Create(s.ctx, name)
		s.Require().Error(err, name)
		s.Equal(KindValidation, KindOf(err), name)

		_, err = s.m.Tables().Create(s.ctx, name, "t")
		s.Require().Error(err, name)
		s.Equal(KindValidation, KindOf(err), name)
		s.ErrorIs(err, ErrInvalidIdentifier)
	}

	entries, err := os.ReadDir(s.dir)
	s.Require().NoError(err)
	s.Empty(entries, "no file may be created for a rejected name")
}

func (s *SQLiteSuite) TestMissingDatabaseIsConnectionError() {
	_, err := s.m.Tables().Exists(s.ctx, "nope", "users")
	s.Require().Error(err)
	s.Equal(KindConnection, KindOf(err))
	s.NoFileExists(filepath.Join(s.dir, "nope.db"), "opening must not create the file")
}

func (s *SQLiteSuite) TestTableLifecycle() {
	_, err := s.m.Databases().Create(s.ctx, "testdb")
	s.Require().NoError(err)
	tables := s.m.Tables()

	ok, err := tables.Create(s.ctx, "", "users")
	s.Require().NoError(err)
	s.True(ok)

	ok, err = tables.Create(s.ctx, "", "users")
	s.Require().NoError(err)
	s.False(ok)

	ok, err = tables.Exists(s.ctx, "", "users")
	s.Require().NoError(err)
	s.True(ok)

	names, err := tables.List(s.ctx, "")
	s.Require().NoError(err)
	s.Equal([]string{"users"}, names)

	cols, err := s.m.Columns().List(s.ctx, "", "users")
	s.Require().NoError(err)
	s.Empty(cols, "placeholder column is hidden")

	ok, err = tables.Delete(s.ctx, "", "users")
	s.Require().NoError(err)
	s.True(ok)

	ok, err = tables.Delete(s.ctx, "", "users")
	s.Require().NoError(err)
	s.False(ok)
}

func (s *SQLiteSuite) TestHostileTableNameIsQuoted() {
	_, err := s.m.Databases().Create(s.ctx, "testdb")
	s.Require().NoError(err)

	name := `users"; DROP TABLE x; --`
	ok, err := s.m.Tables().Create(s.ctx, "", name)
	s.Require().NoError(err)
	s.True(ok)

	names, err := s.m.Tables().List(s.ctx, "")
	s.Require().NoError(err)
	s.Equal([]string{name}, names)
}

func (s *SQLiteSuite) TestColumnsSkipInvalidType() {
	_, err := s.m.Databases().Create(s.ctx, "testdb")
	s.Require().NoError(err)
	_, err = s.m.Tables().Create(s.ctx, "", "users")
	s.Require().NoError(err)

	res, err := s.m.Columns().Create(s.ctx, "", "users", []types.ColumnDefinition{
		{Name: "id", Type: "int", Primary: true, NotNull: true},
		{Name: "blob", Type: "NOT_A_TYPE"},
		{Name: "email", Type: "TEXT", Comment: "ignored on sqlite"},
	})
	s.Require().NoError(err)
	s.True(res.Partial())
	s.Equal([]string{"id", "email"}, res.Added)
	s.Require().Len(res.Skipped, 1)
	s.Equal("blob", res.Skipped[0].Column.Name)
	s.ErrorIs(res.Skipped[0].Reason, ErrInvalidColumnType)

	cols, err := s.m.Columns().List(s.ctx, "", "users")
	s.Require().NoError(err)
	s.Require().Len(cols, 2)
	s.Equal("id", cols[0].Name)
	s.False(cols[0].Nullable)
	s.Equal("email", cols[1].Name)

	ok, err := s.m.Columns().Exists(s.ctx, "", "users", "email")
	s.Require().NoError(err)
	s.True(ok)
}

func (s *SQLiteSuite) TestColumnsAllInvalid() {
	_, err := s.m.Databases().Create(s.ctx, "testdb")
	s.Require().NoError(err)
	_, err = s.m.Tables().Create(s.ctx, "", "users")
	s.Require().NoError(err)

	res, err := s.m.Columns().Create(s.ctx, "", "users", []types.ColumnDefinition{{Name: "x", Type: "MONEYBAG"}})
	s.Require().Error(err)
	s.Equal(KindValidation, KindOf(err))
	s.Empty(res.Added)

	_, err = s.m.Columns().Create(s.ctx, "", "users", nil)
	s.ErrorIs(err, ErrEmptyPayload)
}

func (s *SQLiteSuite) TestColumnsExistingAndDelete() {
	s.createUsers()
	cols := s.m.Columns()

	res, err := cols.Create(s.ctx, "", "users", []types.ColumnDefinition{
		{Name: "name", Type: "TEXT"},
		{Name: "age", Type: "INTEGER"},
	})
	s.Require().NoError(err)
	s.Equal([]string{"age"}, res.Added)
	s.Require().Len(res.Skipped, 1)
	s.ErrorIs(res.Skipped[0].Reason, ErrAlreadyExists)

	ok, err := cols.Delete(s.ctx, "", "users", "age")
	s.Require().NoError(err)
	s.True(ok)

	ok, err = cols.Delete(s.ctx, "", "users", "age")
	s.Require().NoError(err)
	s.False(ok)
}

func (s *SQLiteSuite) TestColumnsPrimaryKeyAfterOtherColumns() {
	_, err := s.m.Databases().Create(s.ctx, "testdb")
	s.Require().NoError(err)
	_, err = s.m.Tables().Create(s.ctx, "", "users")
	s.Require().NoError(err)

	res, err := s.m.Columns().Create(s.ctx, "", "users", []types.ColumnDefinition{
		{Name: "name", Type: "VARCHAR"},
		{Name: "id", Type: "INT", Primary: true},
		{Name: "email", Type: "TEXT", NotNull: true},
	})
	s.Require().NoError(err)
	s.Equal([]string{"name", "id", "email"}, res.Added)
	s.Empty(res.Failed)
	s.True(res.Complete())

	cols, err := s.m.Columns().List(s.ctx, "", "users")
	s.Require().NoError(err)
	s.Require().Len(cols, 3)
	s.Equal("name", cols[0].Name)
	s.Equal("id", cols[1].Name)
	s.True(cols[1].Primary)
	s.Equal("email", cols[2].Name)
	s.False(cols[2].Nullable)

	// A later call on the still empty table can add another NOT NULL column.
	res, err = s.m.Columns().Create(s.ctx, "", "users", []types.ColumnDefinition{
		{Name: "age", Type: "INTEGER", NotNull: true},
	})
	s.Require().NoError(err)
	s.Equal([]string{"age"}, res.Added)

	cols, err = s.m.Columns().List(s.ctx, "", "users")
	s.Require().NoError(err)
	s.Require().Len(cols, 4)
	s.True(cols[1].Primary, "rebuilding keeps the primary key")

	ins, err := s.m.Rows().Create(s.ctx, "", "users", []types.Row{
		{"id": 1, "name": "Alice", "email": "a@example.com", "age": 31},
	}, InsertOptions{})
	s.Require().NoError(err)
	s.Equal(1, ins.Inserted())
}

func (s *SQLiteSuite) TestColumnsNotNullOnTableWithRows() {
	s.createUsers()
	_, err := s.m.Rows().Create(s.ctx, "", "users", []types.Row{{"id": 1, "name": "Alice"}}, InsertOptions{})
	s.Require().NoError(err)

	res, err := s.m.Columns().Create(s.ctx, "", "users", []types.ColumnDefinition{
		{Name: "email", Type: "TEXT", NotNull: true},
		{Name: "age", Type: "INTEGER"},
	})
	s.Require().NoError(err)
	s.Equal([]string{"age"}, res.Added)
	s.Require().Len(res.Failed, 1)
	s.Equal("email", res.Failed[0].Column.Name)

	rows, err := s.m.Rows().List(s.ctx, "", "users", ListOptions{})
	s.Require().NoError(err)
	s.Require().Len(rows, 1, "a table holding rows is never rebuilt")
	s.Equal("Alice", rows[0]["name"])
}

func (s *SQLiteSuite) TestColumnsMissingTable() {
	_, err := s.m.Databases().Create(s.ctx, "testdb")
	s.Require().NoError(err)

	_, err = s.m.Columns().Create(s.ctx, "", "ghost", []types.ColumnDefinition{{Name: "id", Type: "INT"}})
	s.Require().Error(err)
	s.ErrorIs(err, ErrNotFound)
}

func (s *SQLiteSuite) seedUsers() {
	s.createUsers()
	_, err := s.m.Columns().Create(s.ctx, "", "users", []types.ColumnDefinition{{Name: "age", Type: "INTEGER"}})
	s.Require().NoError(err)

	_, err = s.m.Rows().Create(s.ctx, "", "users", []types.Row{
		{"id": 1, "name": "Alice", "age": 31},
		{"id": 2, "name": "Bob", "age": 25},
		{"id": 3, "name": "Carol", "age": 40},
	}, InsertOptions{})
	s.Require().NoError(err)
}

func (s *SQLiteSuite) TestRowsFilter() {
	s.seedUsers()
	rows := s.m.Rows()

	list, err := rows.List(s.ctx, "", "users", ListOptions{Where: types.Where("age >=", 30)})
	s.Require().NoError(err)
	s.Len(list, 2)

	list, err = rows.List(s.ctx, "", "users", ListOptions{
		Where:  types.Where("name", "Alice").And("name", "Bob"),
		Joiner: "or",
	})
	s.Require().NoError(err)
	s.Len(list, 2)

	ok, err := rows.Exists(s.ctx, "", "users", types.Where("name", "Alice").And("age <", 30), types.And)
	s.Require().NoError(err)
	s.False(ok)

	n, err := rows.Count(s.ctx, "", "users", types.Where("age !=", 25), types.And)
	s.Require().NoError(err)
	s.EqualValues(2, n)
}

func (s *SQLiteSuite) TestRowsUnknownOperatorIsSkipped() {
	s.seedUsers()
	rows := s.m.Rows()

	list, err := rows.List(s.ctx, "", "users", ListOptions{Where: types.Where("age >=", 30).And("name LIKE", "A%")})
	s.Require().NoError(err)
	s.Len(list, 2, "LIKE entry is ignored")

	_, err = rows.List(s.ctx, "", "users", ListOptions{Where: types.Where("name LIKE", "A%")})
	s.Require().Error(err)
	s.Equal(KindValidation, KindOf(err))
	s.ErrorIs(err, ErrNoValidTerms)
}

func (s *SQLiteSuite) TestRowsLimit() {
	s.seedUsers()
	rows := s.m.Rows()

	list, err := rows.List(s.ctx, "", "users", ListOptions{Limit: 2})
	s.Require().NoError(err)
	s.Len(list, 2)

	_, err = rows.List(s.ctx, "", "users", ListOptions{Limit: -1})
	s.ErrorIs(err, ErrInvalidLimit)
}

func (s *SQLiteSuite) TestRowsHostileValueIsBound() {
	s.seedUsers()

	ok, err := s.m.Rows().Exists(s.ctx, "", "users", types.Where("name", "x' OR '1'='1"), types.And)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *SQLiteSuite) TestRowsBatchRollsBack() {
	s.seedUsers()
	rows := s.m.Rows()

	res, err := rows.Create(s.ctx, "", "users", []types.Row{
		{"id": 10, "name": "Dan", "age": 20},
		{"id": 1, "name": "Duplicate", "age": 20},
	}, InsertOptions{})
	s.Require().Error(err)
	s.True(IsAlreadyExists(err))
	s.Empty(res.IDs)
	s.Require().Len(res.Failed, 1)
	s.Equal(1, res.Failed[0].Index)

	ok, err := rows.Exists(s.ctx, "", "users", types.Where("id", 10), types.And)
	s.Require().NoError(err)
	s.False(ok, "first row is rolled back")
}

func (s *SQLiteSuite) TestRowsBestEffort() {
	s.seedUsers()

	res, err := s.m.Rows().Create(s.ctx, "", "users", []types.Row{
		{"id": 10, "name": "Dan", "age": 20},
		{"id": 1, "name": "Duplicate", "age": 20},
	}, InsertOptions{BestEffort: true})
	s.Require().NoError(err)
	s.Equal(1, res.Inserted())
	s.Require().Len(res.Failed, 1)
	s.Equal(1, res.Failed[0].Index)
}

func (s *SQLiteSuite) TestRowsValidation() {
	s.seedUsers()
	rows := s.m.Rows()

	_, err := rows.Create(s.ctx, "", "users", nil, InsertOptions{})
	s.ErrorIs(err, ErrEmptyPayload)

	_, err = rows.Create(s.ctx, "", "users", []types.Row{{}}, InsertOptions{})
	s.ErrorIs(err, ErrEmptyPayload)

	_, err = rows.Create(s.ctx, "", "users", []types.Row{
		{"id": 20, "name": "A"},
		{"id": 21, "age": 3},
	}, InsertOptions{})
	s.ErrorIs(err, ErrShapeMismatch)
	s.Equal(KindValidation, KindOf(err))

	_, err = rows.Create(s.ctx, "", "users", []types.Row{{"id": 22, "": "x"}}, InsertOptions{})
	s.ErrorIs(err, ErrInvalidIdentifier)
	s.Equal(KindValidation, KindOf(err))

	_, err = rows.Update(s.ctx, "", "users", 1, types.Row{})
	s.ErrorIs(err, ErrEmptyPayload)
}

func (s *SQLiteSuite) TestRowsUpdate() {
	s.seedUsers()
	rows := s.m.Rows()

	ok, err := rows.Update(s.ctx, "", "users", 2, types.Row{"name": "Robert", "age": 26})
	s.Require().NoError(err)
	s.True(ok)

	list, err := rows.List(s.ctx, "", "users", ListOptions{Where: types.Where("id", 2)})
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal("Robert", list[0]["name"])
	s.EqualValues(26, list[0]["age"])

	ok, err = rows.Update(s.ctx, "", "users", 99, types.Row{"name": "Nobody"})
	s.Require().NoError(err)
	s.False(ok)

	ok, err = rows.Delete(s.ctx, "", "users", 99)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *SQLiteSuite) TestStatementsPassMiddleware() {
	s.createUsers()
	s.Contains(s.statements, `CREATE TABLE "users" ("__pgmanager_placeholder" INTEGER)`)
	s.Contains(s.statements, `DROP TABLE "users"`)
}

func (s *SQLiteSuite) TestServerVersion() {
	_, err := s.m.Databases().Create(s.ctx, "testdb")
	s.Require().NoError(err)

	v, err := s.m.ServerVersion(s.ctx)
	s.Require().NoError(err)
	s.Equal(3, v.Segments()[0])
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New(Config{Provider: "postgres"})
	require.Error(t, err)
	assert.Equal(t, KindConfiguration, KindOf(err))

	m, ok := Configure(Config{})
	assert.False(t, ok)
	assert.Nil(t, m)

	m, ok = Configure(Config{Provider: "sqlite", Database: "app", DataDir: t.TempDir()})
	assert.True(t, ok)
	assert.Equal(t, "sqlite", m.Provider())
}

func TestOK(t *testing.T) {
	m, err := New(Config{Provider: "sqlite", Database: "app", DataDir: t.TempDir()})
	require.NoError(t, err)

	assert.True(t, m.OK(true, nil))
	assert.False(t, m.OK(false, nil))
	assert.False(t, m.OK(true, newError(KindExecution, "op", "", ErrNotFound)))
}

func TestTimingMiddleware(t *testing.T) {
	var seen []string
	mw := TimingMiddleware(func(query string, d time.Duration) {
		seen = append(seen, query)
		assert.GreaterOrEqual(t, d, time.Duration(0))
	})

	m, err := New(Config{Provider: "sqlite", Database: "app", DataDir: t.TempDir()}, WithMiddleware(mw))
	require.NoError(t, err)

	err = m.runMiddleware(context.Background(), "SELECT 1", nil, func() error { return nil })
	require.NoError(t, err)
	assert.Equal(t, []string{"SELECT 1"}, seen)
}

func TestDebugLogsStatements(t *testing.T) {
	var buf bytes.Buffer
	cfg := Config{Provider: "sqlite", Database: "app", DataDir: t.TempDir(), Debug: true}
	m, err := New(cfg, WithLogger(debug.New(true, &buf)))
	require.NoError(t, err)

	ctx := context.Background()
	_, err = m.Databases().Create(ctx, "app")
	require.NoError(t, err)
	_, err = m.Tables().Create(ctx, "app", "users")
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "statement executed")
	assert.Contains(t, buf.String(), `CREATE TABLE \"users\"`)

	buf.Reset()
	cfg.Debug = false
	m, err = New(cfg, WithLogger(debug.New(true, &buf)))
	require.NoError(t, err)
	_, err = m.Tables().Create(ctx, "app", "orders")
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "statement executed")
}

func TestErrorMiddleware(t *testing.T) {
	var failed string
	m, err := New(Config{Provider: "sqlite", Database: "app", DataDir: t.TempDir()},
		WithMiddleware(ErrorMiddleware(func(query string, err error) { failed = query })))
	require.NoError(t, err)

	err = m.runMiddleware(context.Background(), "BAD", nil, func() error { return ErrNotFound })
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "BAD", failed)
}
