package sqlgen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDialect(t *testing.T) {
	tests := []struct {
		provider string
		want     string
	}{
		{"postgresql", ProviderPostgres},
		{"postgres", ProviderPostgres},
		{"PG", ProviderPostgres},
		{"mysql", ProviderMySQL},
		{"mariadb", ProviderMySQL},
		{"sqlite3", ProviderSQLite},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			d, err := NewDialect(tt.provider)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Name())
		})
	}

	_, err := NewDialect("oracle")
	assert.Error(t, err)
}

func TestQuote(t *testing.T) {
	tests := []struct {
		name    string
		dialect Dialect
		input   string
		want    Ident
	}{
		{"postgres plain", PostgresDialect{}, "users", `"users"`},
		{"postgres embedded quote", PostgresDialect{}, `we"ird`, `"we""ird"`},
		{"postgres injection attempt", PostgresDialect{}, `users"; DROP TABLE x; --`, `"users""; DROP TABLE x; --"`},
		{"mysql backtick", MySQLDialect{}, "a`b", "`a``b`"},
		{"sqlite spaces", SQLiteDialect{}, "created at", `"created at"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.dialect.Quote(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQuoteRejectsInvalidNames(t *testing.T) {
	dialects := []Dialect{PostgresDialect{}, MySQLDialect{}, SQLiteDialect{}}

	for _, d := range dialects {
		t.Run(d.Name(), func(t *testing.T) {
			_, err := d.Quote("")
			assert.ErrorIs(t, err, ErrInvalidIdentifier)

			_, err = d.Quote("bad\x00name")
			assert.ErrorIs(t, err, ErrInvalidIdentifier)
		})
	}
}

func TestQuoteLengthLimit(t *testing.T) {
	pg := PostgresDialect{}

	_, err := pg.Quote(strings.Repeat("a", 63))
	assert.NoError(t, err)

	_, err = pg.Quote(strings.Repeat("a", 64))
	assert.ErrorIs(t, err, ErrInvalidIdentifier, "must reject, not truncate")

	// 32 two-byte runes are 64 bytes: too long for PostgreSQL, fine for MySQL.
	wide := strings.Repeat("é", 32)
	_, err = pg.Quote(wide)
	assert.ErrorIs(t, err, ErrInvalidIdentifier)

	_, err = MySQLDialect{}.Quote(wide)
	assert.NoError(t, err)

	_, err = SQLiteDialect{}.Quote(strings.Repeat("a", 1000))
	assert.NoError(t, err)
}

func TestQuoteAll(t *testing.T) {
	got, err := QuoteAll(PostgresDialect{}, []string{"id", "name"})
	require.NoError(t, err)
	assert.Equal(t, []Ident{`"id"`, `"name"`}, got)

	_, err = QuoteAll(PostgresDialect{}, []string{"id", ""})
	assert.ErrorIs(t, err, ErrInvalidIdentifier)
}
