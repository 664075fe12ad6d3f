package condition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tijesunimi004/soroban-debugger/pkg/errors"
)

func testEnv() map[string]interface{} {
	return map[string]interface{}{
		"fn":       "transfer",
		"contract": "C1",
		"arg": func(i int) interface{} {
			args := []interface{}{"GALICE", "GBOB", int64(250)}
			if i < 0 || i >= len(args) {
				return nil
			}
			return args[i]
		},
		"storage": func(key string) interface{} {
			if key == "Price" {
				return int64(120)
			}
			return nil
		},
	}
}

func TestEvaluate(t *testing.T) {
	e := New()
	tests := []struct {
		cond string
		want bool
	}{
		{"", true},
		{"true", true},
		{"false", false},
		{`fn == "transfer"`, true},
		{`contract == "C2"`, false},
		{"arg(2) > 100", true},
		{"arg(2) > 1000", false},
		{`arg(0) == "GALICE" && arg(2) >= 250`, true},
		{`storage("Price") > 100`, true},
		{`storage("Missing") == nil`, true},
	}
	for _, tt := range tests {
		t.Run(tt.cond, func(t *testing.T) {
			got, err := e.Evaluate(tt.cond, testEnv())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidate(t *testing.T) {
	e := New()
	assert.NoError(t, e.Validate(""))
	assert.NoError(t, e.Validate("arg(0) > 100"))

	err := e.Validate("arg(0) >")
	require.Error(t, err)
	assert.True(t, errors.IsInput(err))
}

func TestNonBooleanResult(t *testing.T) {
	e := New()
	_, err := e.Evaluate("arg(2) + 1", testEnv())
	require.Error(t, err)
	assert.True(t, errors.IsInput(err))
}

func TestCompileCache(t *testing.T) {
	e := New()
	for i := 0; i < 3; i++ {
		got, err := e.Evaluate("arg(2) > 100", testEnv())
		require.NoError(t, err)
		assert.True(t, got)
	}
	assert.Len(t, e.cache, 1)
}
