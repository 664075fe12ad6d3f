package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tijesunimi004/soroban-debugger/pkg/errors"
)

func writeModule(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "module.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const sampleModule = `{
	"contracts": [
		{
			"id": "C1",
			"functions": [
				{
					"name": "get_price",
					"code": [
						{"op": "storage.get", "tier": "instance", "key": "price"},
						{"op": "return"}
					]
				},
				{
					"name": "set_price",
					"params": ["i128"],
					"code": [
						{"op": "arg", "index": 0},
						{"op": "storage.put", "tier": "instance", "key": "price"},
						{"op": "return"}
					]
				}
			]
		}
	]
}`

func TestLoadModule(t *testing.T) {
	m, err := LoadModule(writeModule(t, sampleModule))
	require.NoError(t, err)

	fn, ok := m.Function("C1", "get_price")
	require.True(t, ok)
	assert.Len(t, fn.Code, 2)

	fn, ok = m.Function("C1", "set_price")
	require.True(t, ok)
	assert.Len(t, fn.Params, 1)

	assert.False(t, m.HasFunction("C1", "missing"))
	assert.False(t, m.HasFunction("C2", "get_price"))
}

func TestLoadModuleMissingFile(t *testing.T) {
	_, err := LoadModule(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)

	var inputErr *errors.InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Equal(t, errors.InputModule, inputErr.Kind)
}

func TestLoadModuleValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", `{{{`},
		{"no contracts", `{"contracts": []}`},
		{"empty contract id", `{"contracts":[{"id":"","functions":[]}]}`},
		{"duplicate contract", `{"contracts":[{"id":"C1","functions":[]},{"id":"C1","functions":[]}]}`},
		{"empty function name", `{"contracts":[{"id":"C1","functions":[{"name":"","code":[]}]}]}`},
		{"duplicate function", `{"contracts":[{"id":"C1","functions":[
			{"name":"f","code":[]},{"name":"f","code":[]}]}]}`},
		{"unknown op", `{"contracts":[{"id":"C1","functions":[
			{"name":"f","code":[{"op":"frobnicate"}]}]}]}`},
		{"push without value", `{"contracts":[{"id":"C1","functions":[
			{"name":"f","code":[{"op":"push"}]}]}]}`},
		{"jump out of range", `{"contracts":[{"id":"C1","functions":[
			{"name":"f","code":[{"op":"jump","target":5}]}]}]}`},
		{"bad storage tier", `{"contracts":[{"id":"C1","functions":[
			{"name":"f","code":[{"op":"storage.get","tier":"eternal","key":"k"}]}]}]}`},
		{"storage without key", `{"contracts":[{"id":"C1","functions":[
			{"name":"f","code":[{"op":"storage.get","tier":"instance"}]}]}]}`},
		{"emit without topic", `{"contracts":[{"id":"C1","functions":[
			{"name":"f","code":[{"op":"emit"}]}]}]}`},
		{"call without target", `{"contracts":[{"id":"C1","functions":[
			{"name":"f","code":[{"op":"call"}]}]}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadModule(writeModule(t, tt.content))
			require.Error(t, err)
			assert.True(t, errors.IsInput(err))
		})
	}
}

func TestLoadModuleAllowsUnknownCallTargets(t *testing.T) {
	// Calls to other modules resolve at runtime; loading stays permissive.
	m, err := LoadModule(writeModule(t, `{"contracts":[{"id":"C1","functions":[
		{"name":"f","code":[{"op":"call","contract":"C9","fn":"g"},{"op":"return"}]}]}]}`))
	require.NoError(t, err)
	assert.True(t, m.HasFunction("C1", "f"))
}
