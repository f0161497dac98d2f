package client

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"github.com/ximilsoft/postgresql-manager/query/sqlgen"
)

// Kind classifies an error by where it originated.
type Kind int

const (
	KindUnknown Kind = iota
	// KindConfiguration means a required configuration field is absent or invalid.
	KindConfiguration
	// KindConnection means the server could not be reached or authenticated.
	KindConnection
	// KindValidation means the request was rejected before reaching the server.
	KindValidation
	// KindExecution means the server rejected a statement.
	KindExecution
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindConnection:
		return "connection"
	case KindValidation:
		return "validation"
	case KindExecution:
		return "execution"
	default:
		return "unknown"
	}
}

var (
	// ErrMissingField is returned when a required configuration field is empty.
	ErrMissingField = errors.New("missing required field")
	// ErrAlreadyExists is returned when the object to create is already there.
	ErrAlreadyExists = errors.New("already exists")
	// ErrNotFound is returned when the object to act on does not exist.
	ErrNotFound = errors.New("not found")
	// ErrEmptyPayload is returned when there is nothing to insert or update.
	ErrEmptyPayload = errors.New("empty payload")
	// ErrInvalidColumnType is returned for a type outside the allowed set.
	ErrInvalidColumnType = errors.New("invalid column type")
	// ErrShapeMismatch is returned when batch rows do not share one column set.
	ErrShapeMismatch = errors.New("rows have different columns")
	// ErrInvalidLimit is returned for a negative row limit.
	ErrInvalidLimit = errors.New("invalid limit")
	// ErrNoValidTerms is returned when every predicate entry was skipped.
	ErrNoValidTerms = errors.New("no predicate entry has a valid operator")
	// ErrInvalidIdentifier is re-exported from sqlgen.
	ErrInvalidIdentifier = sqlgen.ErrInvalidIdentifier
)

// Error is returned by every Manager operation.
type Error struct {
	Kind   Kind
	Op     string // e.g. "tables.create"
	Target string // object the operation acted on
	Err    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("%s %s: %s error: %v", e.Op, e.Target, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s error: %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, op, target string, err error) *Error {
	return &Error{Kind: kind, Op: op, Target: target, Err: err}
}

// KindOf returns the Kind of err, or KindUnknown if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsAlreadyExists reports whether err means the object already exists.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsNotFound reports whether err means the object does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// classify wraps a driver error into an *Error, tagging duplicate and
// missing objects with ErrAlreadyExists and ErrNotFound.
func classify(op, target string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	if errors.Is(err, sqlgen.ErrInvalidIdentifier) {
		return newError(KindValidation, op, target, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return newError(KindConnection, op, target, err)
	}

	kind, sentinel := classifyDriver(err)
	if sentinel != nil {
		err = fmt.Errorf("%w: %w", sentinel, err)
	}
	return newError(kind, op, target, err)
}

func classifyDriver(err error) (Kind, error) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "42P04", "42P07", "42701", "23505": // duplicate database, table, column; unique violation
			return KindExecution, ErrAlreadyExists
		case "3D000", "42P01", "42703": // invalid catalog name, undefined table, undefined column
			return KindExecution, ErrNotFound
		}
		switch pqErr.Code.Class() {
		case "08", "28", "57": // connection exception, invalid authorization, operator intervention
			return KindConnection, nil
		}
		return KindExecution, nil
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case 1007, 1050, 1060, 1062: // db exists, table exists, dup field, dup entry
			return KindExecution, ErrAlreadyExists
		case 1008, 1049, 1054, 1091, 1146: // db missing, unknown db, unknown column, can't drop, no table
			return KindExecution, ErrNotFound
		case 1040, 1044, 1045: // too many connections, access denied
			return KindConnection, nil
		}
		return KindExecution, nil
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		msg := liteErr.Error()
		switch {
		case liteErr.Code == sqlite3.ErrCantOpen, liteErr.Code == sqlite3.ErrNotADB:
			return KindConnection, nil
		case liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey,
			liteErr.ExtendedCode == sqlite3.ErrConstraintUnique,
			strings.Contains(msg, "already exists"),
			strings.Contains(msg, "duplicate column"):
			return KindExecution, ErrAlreadyExists
		case strings.Contains(msg, "no such table"), strings.Contains(msg, "no such column"):
			return KindExecution, ErrNotFound
		}
		return KindExecution, nil
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, driver.ErrBadConn) {
		return KindConnection, nil
	}
	return KindExecution, nil
}
