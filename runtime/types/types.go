// Package types provides the data model shared by the manager and the SQL generator.
package types

import (
	"sort"
	"strings"
)

// Joiner combines predicate entries.
type Joiner string

const (
	And Joiner = "AND"
	Or  Joiner = "OR"
)

// Normalize returns AND or OR. Anything that is not OR, in any case, becomes AND.
func (j Joiner) Normalize() Joiner {
	if strings.EqualFold(strings.TrimSpace(string(j)), string(Or)) {
		return Or
	}
	return And
}

// Term is one predicate entry. Key is a column name, optionally followed by a
// space and a comparison operator, e.g. "created_at >".
type Term struct {
	Key   string
	Value any
}

// Predicate is an ordered set of terms. Order is preserved in the generated SQL
// and in the bound parameters.
type Predicate []Term

// Where starts a predicate with a single term.
func Where(key string, value any) Predicate {
	return Predicate{{Key: key, Value: value}}
}

// And appends a term and returns the extended predicate.
func (p Predicate) And(key string, value any) Predicate {
	return append(p, Term{Key: key, Value: value})
}

// Len returns the number of terms.
func (p Predicate) Len() int {
	return len(p)
}

// PredicateFromMap builds a predicate from a map. Go maps are unordered, so the
// keys are sorted to keep the generated SQL deterministic.
func PredicateFromMap(m map[string]any) Predicate {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	p := make(Predicate, 0, len(keys))
	for _, k := range keys {
		p = append(p, Term{Key: k, Value: m[k]})
	}
	return p
}

// Row maps column names to values.
type Row map[string]any

// Columns returns the row's column names in sorted order.
func (r Row) Columns() []string {
	cols := make([]string, 0, len(r))
	for k := range r {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// Values returns the values for cols in the same order.
func (r Row) Values(cols []string) []any {
	vals := make([]any, len(cols))
	for i, c := range cols {
		vals[i] = r[c]
	}
	return vals
}

// SameShape reports whether r has exactly the columns in cols.
func (r Row) SameShape(cols []string) bool {
	if len(r) != len(cols) {
		return false
	}
	for _, c := range cols {
		if _, ok := r[c]; !ok {
			return false
		}
	}
	return true
}
