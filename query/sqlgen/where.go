// Package sqlgen provides WHERE clause structures.
package sqlgen

import (
	"errors"
	"strings"

	"github.com/ximilsoft/postgresql-manager/runtime/types"
)

var (
	// ErrInvalidIdentifier is returned when a name cannot be used as an identifier.
	ErrInvalidIdentifier = errors.New("invalid identifier")
	// ErrUnknownOperator marks a predicate key whose operator suffix is not recognized.
	ErrUnknownOperator = errors.New("unknown comparison operator")
)

// comparisonOperators are the operators accepted as a predicate key suffix.
var comparisonOperators = map[string]struct{}{
	"=": {}, "!=": {}, "<": {}, "<=": {}, ">": {}, ">=": {},
}

// WhereClause is a flat list of conditions joined by one logical operator.
type WhereClause struct {
	Conditions []Condition
	Operator   types.Joiner
}

// Condition represents a single filter condition
type Condition struct {
	Field    string
	Operator string // "=", "!=", ">", "<", ">=", "<="
	Value    any
}

// Fragment is a SQL snippet together with its bound arguments, in placeholder order.
type Fragment struct {
	SQL  string
	Args []any
}

// Empty reports whether the fragment has no SQL.
func (f Fragment) Empty() bool {
	return f.SQL == ""
}

// ParseKey splits a predicate key into column and operator. Keys without a
// space compare with "=". When the suffix after the last space is not a known
// operator, ok is false and the entry must be skipped.
func ParseKey(key string) (column, op string, ok bool) {
	key = strings.TrimSpace(key)
	i := strings.LastIndex(key, " ")
	if i < 0 {
		return key, "=", true
	}

	column = strings.TrimSpace(key[:i])
	op = strings.TrimSpace(key[i+1:])
	if _, known := comparisonOperators[op]; !known {
		return column, op, false
	}
	return column, op, true
}

// NewWhereClause converts a predicate into conditions. Keys with an unknown
// operator are left out and returned in skipped.
func NewWhereClause(p types.Predicate, joiner types.Joiner) (where *WhereClause, skipped []string) {
	where = &WhereClause{Operator: joiner.Normalize()}
	for _, term := range p {
		column, op, ok := ParseKey(term.Key)
		if !ok {
			skipped = append(skipped, term.Key)
			continue
		}
		where.Conditions = append(where.Conditions, Condition{Field: column, Operator: op, Value: term.Value})
	}
	return where, skipped
}

// IsEmpty returns true if the WHERE clause has no conditions
func (w *WhereClause) IsEmpty() bool {
	return w == nil || len(w.Conditions) == 0
}
