// Package filter parses command-line filter expressions such as
//
//	age >= 30 AND name != "bob"
//
// into a row predicate, and "column=value" assignments into row values.
package filter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/ximilsoft/postgresql-manager/runtime/types"
)

// FilterLexer tokenizes filter expressions.
var FilterLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Keyword", Pattern: `(?i)\b(AND|OR|TRUE|FALSE|NULL)\b`},
	{Name: "Op", Pattern: `!=|<=|>=|=|<|>`},
	{Name: "String", Pattern: `"(?:\\.|[^"\\])*"|'(?:\\.|[^'\\])*'`},
	{Name: "Number", Pattern: `-?\d+(?:\.\d+)?`},
	{Name: "Ident", Pattern: `[\p{L}_][\p{L}\p{N}_.-]*`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// Expression is a list of conditions joined by one kind of connective.
type Expression struct {
	First *Condition `parser:"@@"`
	Rest  []*Tail    `parser:"@@*"`
}

// Tail is a connective followed by a condition.
type Tail struct {
	Joiner    string     `parser:"@Keyword"`
	Condition *Condition `parser:"@@"`
}

// Condition is "column op value".
type Condition struct {
	Column string `parser:"@Ident"`
	Op     string `parser:"@Op"`
	Value  *Value `parser:"@@"`
}

// Assignment is "column=value".
type Assignment struct {
	Column string `parser:"@Ident \"=\""`
	Value  *Value `parser:"@@"`
}

// Value is a literal. Bare words are read as strings.
type Value struct {
	String  *string `parser:"  @String"`
	Number  *string `parser:"| @Number"`
	Keyword *string `parser:"| @Keyword"`
	Word    *string `parser:"| @Ident"`
}

var (
	exprParser = participle.MustBuild[Expression](
		participle.Lexer(FilterLexer),
		participle.Elide("Whitespace"),
		participle.Unquote("String"),
		participle.CaseInsensitive("Keyword"),
	)
	assignParser = participle.MustBuild[Assignment](
		participle.Lexer(FilterLexer),
		participle.Elide("Whitespace"),
		participle.Unquote("String"),
		participle.CaseInsensitive("Keyword"),
	)
)

// Parse converts an expression into a predicate and its joiner. Mixing AND
// and OR in one expression is rejected because predicates are flat.
func Parse(expr string) (types.Predicate, types.Joiner, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, types.And, nil
	}

	ast, err := exprParser.ParseString("", expr)
	if err != nil {
		return nil, "", fmt.Errorf("invalid filter %q: %w", expr, err)
	}

	joiner := types.And
	conds := []*Condition{ast.First}
	for i, tail := range ast.Rest {
		j := types.Joiner(strings.ToUpper(tail.Joiner))
		if j != types.And && j != types.Or {
			return nil, "", fmt.Errorf("invalid filter %q: expected AND or OR, got %s", expr, tail.Joiner)
		}
		if i == 0 {
			joiner = j
		} else if j != joiner {
			return nil, "", fmt.Errorf("invalid filter %q: cannot mix AND and OR", expr)
		}
		conds = append(conds, tail.Condition)
	}

	p := make(types.Predicate, 0, len(conds))
	for _, c := range conds {
		key := c.Column
		if c.Op != "=" {
			key += " " + c.Op
		}
		p = p.And(key, c.Value.Go())
	}
	return p, joiner, nil
}

// ParseAssignment parses "column=value".
func ParseAssignment(s string) (string, any, error) {
	ast, err := assignParser.ParseString("", s)
	if err != nil {
		return "", nil, fmt.Errorf("invalid assignment %q: %w", s, err)
	}
	return ast.Column, ast.Value.Go(), nil
}

// ParseAssignments parses several assignments into one row.
func ParseAssignments(pairs []string) (types.Row, error) {
	row := make(types.Row, len(pairs))
	for _, pair := range pairs {
		col, val, err := ParseAssignment(pair)
		if err != nil {
			return nil, err
		}
		row[col] = val
	}
	return row, nil
}

// Go returns the literal as int64, float64, bool, nil or string.
func (v *Value) Go() any {
	switch {
	case v == nil:
		return nil
	case v.String != nil:
		return *v.String
	case v.Number != nil:
		if n, err := strconv.ParseInt(*v.Number, 10, 64); err == nil {
			return n
		}
		f, _ := strconv.ParseFloat(*v.Number, 64)
		return f
	case v.Keyword != nil:
		switch strings.ToUpper(*v.Keyword) {
		case "TRUE":
			return true
		case "FALSE":
			return false
		case "NULL":
			return nil
		}
		return *v.Keyword
	case v.Word != nil:
		return *v.Word
	}
	return nil
}
