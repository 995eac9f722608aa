package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidator_ValidateFragment(t *testing.T) {
	tests := []struct {
		name      string
		fragment  string
		strict    bool
		wantError bool
	}{
		{"empty", "", false, false},
		{"predicate", "and name = ?", false, false},
		{"join", "inner join role r on r.user_id = user.id", false, false},
		{"order", "id desc, name asc", false, false},
		{"in list", "or id in (?, ?, ?)", false, false},
		{"double dash", "and name = ? -- trailing", false, true},
		{"c comment", "id /* x */ desc", false, true},
		{"stacked", "id; drop table user", false, true},
		{"union", "id union select password from admin", false, true},
		{"union all", "id UNION ALL SELECT 1", false, true},
		{"tautology", "name = ? or 1=1", false, true},
		{"sleep", "and sleep(5) = 0", false, true},
		{"pg sleep", "and pg_sleep(5) is null", false, true},
		{"information schema", "inner join information_schema.tables t on 1", false, true},
		{"strict quote", "and name = 'x'", true, true},
		{"strict keyword", "and id in (delete)", true, true},
		{"strict passes predicate", "and name = ?", true, false},
		{"lenient quote", "and name = 'x'", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator(WithStrict(tt.strict))
			err := v.ValidateFragment(tt.fragment)
			if tt.wantError {
				assert.ErrorIs(t, err, ErrUnsafeFragment)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidator_ValidateFragments(t *testing.T) {
	v := NewValidator()
	assert.NoError(t, v.ValidateFragments([]string{"a = ?", "", "id desc"}))
	assert.ErrorIs(t, v.ValidateFragments([]string{"a = ?", "id; drop table x"}), ErrUnsafeFragment)
}

func TestValidator_ValidateParams(t *testing.T) {
	v := NewValidator()
	assert.NoError(t, v.ValidateParams([]any{"alice", 42, nil, "O'Brien"}))
	assert.ErrorIs(t, v.ValidateParams([]any{"x' OR '1'='1"}), ErrUnsafeParam)
	err := v.ValidateParams([]any{1, "admin'--"})
	assert.ErrorIs(t, err, ErrUnsafeParam)
	assert.Contains(t, err.Error(), "index 1")
	assert.False(t, v.Strict())
	assert.True(t, NewValidator(WithStrict(true)).Strict())
}
