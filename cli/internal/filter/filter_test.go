package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ximilsoft/postgresql-manager/runtime/types"
)

func TestParse(t *testing.T) {
	tests := []struct {
		expr   string
		want   types.Predicate
		joiner types.Joiner
	}{
		{`age >= 30`, types.Where("age >=", int64(30)), types.And},
		{`name = "Alice"`, types.Where("name", "Alice"), types.And},
		{`name = alice`, types.Where("name", "alice"), types.And},
		{`age>18 and active = true`, types.Where("age >", int64(18)).And("active", true), types.And},
		{`id = 1 OR id = 2 or id=3`, types.Where("id", int64(1)).And("id", int64(2)).And("id", int64(3)), types.Or},
		{`score < 9.5`, types.Where("score <", 9.5), types.And},
		{`deleted_at != null`, types.Where("deleted_at !=", nil), types.And},
		{`created_at <= "2024-01-01"`, types.Where("created_at <=", "2024-01-01"), types.And},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			p, joiner, err := Parse(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p)
			assert.Equal(t, tt.joiner, joiner)
		})
	}
}

func TestParseEmpty(t *testing.T) {
	p, joiner, err := Parse("   ")
	require.NoError(t, err)
	assert.Empty(t, p)
	assert.Equal(t, types.And, joiner)
}

func TestParseErrors(t *testing.T) {
	for _, expr := range []string{
		`age`,
		`age >=`,
		`age LIKE 3`,
		`a = 1 AND b = 2 OR c = 3`,
		`a = 1 NULL b = 2`,
	} {
		_, _, err := Parse(expr)
		assert.Error(t, err, expr)
	}
}

func TestParseAssignments(t *testing.T) {
	row, err := ParseAssignments([]string{`name="Bob Smith"`, "age=41", "active=false", "note=null"})
	require.NoError(t, err)
	assert.Equal(t, types.Row{"name": "Bob Smith", "age": int64(41), "active": false, "note": nil}, row)

	_, err = ParseAssignments([]string{"age>41"})
	assert.Error(t, err)
}
