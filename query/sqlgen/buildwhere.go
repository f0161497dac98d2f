// Package sqlgen provides WHERE clause building logic.
package sqlgen

import (
	"fmt"
	"strings"

	"github.com/ximilsoft/postgresql-manager/runtime/types"
)

// BuildWhere renders the clause as "col OP placeholder" fragments joined by the
// clause operator. Placeholders are numbered from *argIndex, which is advanced
// past the last one used. An empty clause yields an empty fragment.
func BuildWhere(d Dialect, where *WhereClause, argIndex *int) (Fragment, error) {
	if where.IsEmpty() {
		return Fragment{}, nil
	}

	parts := make([]string, 0, len(where.Conditions))
	args := make([]any, 0, len(where.Conditions))

	for _, cond := range where.Conditions {
		if _, ok := comparisonOperators[cond.Operator]; !ok {
			return Fragment{}, fmt.Errorf("%w: %q", ErrUnknownOperator, cond.Operator)
		}
		col, err := d.Quote(cond.Field)
		if err != nil {
			return Fragment{}, err
		}
		parts = append(parts, fmt.Sprintf("%s %s %s", col, cond.Operator, d.Placeholder(*argIndex)))
		args = append(args, cond.Value)
		(*argIndex)++
	}

	op := where.Operator.Normalize()
	return Fragment{
		SQL:  strings.Join(parts, " "+string(op)+" "),
		Args: args,
	}, nil
}

// BuildPredicate parses the predicate keys and renders the WHERE fragment in
// one step. skipped lists the keys dropped for an unknown operator.
func BuildPredicate(d Dialect, p types.Predicate, joiner types.Joiner, argIndex *int) (frag Fragment, skipped []string, err error) {
	where, skipped := NewWhereClause(p, joiner)
	frag, err = BuildWhere(d, where, argIndex)
	return frag, skipped, err
}

// BuildSet renders "col = placeholder" assignments joined by commas, in the
// order of cols.
func BuildSet(d Dialect, cols []string, values []any, argIndex *int) (Fragment, error) {
	if len(cols) != len(values) {
		return Fragment{}, fmt.Errorf("set: %d columns but %d values", len(cols), len(values))
	}
	parts := make([]string, len(cols))
	for i, c := range cols {
		col, err := d.Quote(c)
		if err != nil {
			return Fragment{}, err
		}
		parts[i] = fmt.Sprintf("%s = %s", col, d.Placeholder(*argIndex))
		(*argIndex)++
	}
	return Fragment{SQL: strings.Join(parts, ", "), Args: append([]any(nil), values...)}, nil
}
