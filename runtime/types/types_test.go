package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPredicateFromMap(t *testing.T) {
	p := PredicateFromMap(map[string]any{
		"name":  "Alice",
		"age >": 30,
		"city":  nil,
	})

	assert.Equal(t, Predicate{
		{Key: "age >", Value: 30},
		{Key: "city", Value: nil},
		{Key: "name", Value: "Alice"},
	}, p)
	assert.Empty(t, PredicateFromMap(nil))
}

func TestPredicateBuilder(t *testing.T) {
	p := Where("id", 1).And("name", "Bob")
	assert.Equal(t, 2, p.Len())
	assert.Equal(t, Term{Key: "name", Value: "Bob"}, p[1])
}

func TestJoinerNormalize(t *testing.T) {
	assert.Equal(t, Or, Joiner(" or ").Normalize())
	assert.Equal(t, And, Joiner("").Normalize())
	assert.Equal(t, And, Joiner("xor").Normalize())
}

func TestColumnsResult(t *testing.T) {
	skipped := SkippedColumn{Column: ColumnDefinition{Name: "x"}, Reason: errors.New("bad type")}

	res := ColumnsResult{Added: []string{"id", "name"}, Skipped: []SkippedColumn{skipped}}
	assert.Equal(t, 3, res.Requested())
	assert.True(t, res.Partial())
	assert.False(t, res.Complete())

	res = ColumnsResult{Added: []string{"id"}}
	assert.Equal(t, 1, res.Requested())
	assert.True(t, res.Complete())

	res = ColumnsResult{Failed: []SkippedColumn{skipped}}
	assert.False(t, res.Partial())
	assert.False(t, res.Complete())
}

func TestColumnDefinitionDefaultsToNullable(t *testing.T) {
	var def ColumnDefinition
	assert.False(t, def.NotNull)
	assert.True(t, ColumnType(" varchar ").Valid())
	assert.Equal(t, ColumnType("VARCHAR"), ColumnType(" varchar ").Canonical())
}
