package client

import (
	"context"
	"errors"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"

	"github.com/ximilsoft/postgresql-manager/query/sqlgen"
)

func TestErrorMessage(t *testing.T) {
	err := newError(KindValidation, "tables.create", "users", errors.New("boom"))
	assert.Equal(t, "tables.create users: validation error: boom", err.Error())

	err = newError(KindConnection, "connect", "", errors.New("refused"))
	assert.Equal(t, "connect: connection error: refused", err.Error())
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(nil))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, KindExecution, KindOf(newError(KindExecution, "op", "", errors.New("x"))))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		kind     Kind
		sentinel error
	}{
		{"pg duplicate table", &pq.Error{Code: "42P07"}, KindExecution, ErrAlreadyExists},
		{"pg duplicate database", &pq.Error{Code: "42P04"}, KindExecution, ErrAlreadyExists},
		{"pg unique violation", &pq.Error{Code: "23505"}, KindExecution, ErrAlreadyExists},
		{"pg undefined table", &pq.Error{Code: "42P01"}, KindExecution, ErrNotFound},
		{"pg missing database", &pq.Error{Code: "3D000"}, KindExecution, ErrNotFound},
		{"pg auth failure", &pq.Error{Code: "28P01"}, KindConnection, nil},
		{"pg syntax error", &pq.Error{Code: "42601"}, KindExecution, nil},
		{"mysql db exists", &mysql.MySQLError{Number: 1007}, KindExecution, ErrAlreadyExists},
		{"mysql dup entry", &mysql.MySQLError{Number: 1062}, KindExecution, ErrAlreadyExists},
		{"mysql no table", &mysql.MySQLError{Number: 1146}, KindExecution, ErrNotFound},
		{"mysql access denied", &mysql.MySQLError{Number: 1045}, KindConnection, nil},
		{"sqlite unique", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}, KindExecution, ErrAlreadyExists},
		{"sqlite cant open", sqlite3.Error{Code: sqlite3.ErrCantOpen}, KindConnection, nil},
		{"canceled", context.Canceled, KindConnection, nil},
		{"identifier", sqlgen.ErrInvalidIdentifier, KindValidation, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify("op", "target", tt.err)
			assert.Equal(t, tt.kind, KindOf(err))
			assert.ErrorIs(t, err, tt.err)
			if tt.sentinel != nil {
				assert.ErrorIs(t, err, tt.sentinel)
			}
		})
	}
}

func TestClassifyKeepsManagerErrors(t *testing.T) {
	orig := newError(KindValidation, "rows.list", "users", ErrInvalidLimit)
	assert.Same(t, orig, classify("outer", "x", orig))
	assert.NoError(t, classify("op", "", nil))
}

func TestClassifyDriverErrorStaysReachable(t *testing.T) {
	err := classify("tables.create", "users", &pq.Error{Code: "42P07", Message: "relation exists"})

	var pqErr *pq.Error
	assert.True(t, errors.As(err, &pqErr))
	assert.Equal(t, "42P07", string(pqErr.Code))
	assert.True(t, IsAlreadyExists(err))
	assert.False(t, IsNotFound(err))
}
