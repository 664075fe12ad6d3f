// Copyright 2025 The sorodbg Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tijesunimi004/soroban-debugger/pkg/errors"
	"github.com/Tijesunimi004/soroban-debugger/pkg/ledger"
)

func TestParseArg(t *testing.T) {
	tests := []struct {
		spec string
		want ledger.Value
	}{
		{"i128:42", ledger.Int64Val(42)},
		{"i128:-7", ledger.Int64Val(-7)},
		{"bool:true", ledger.BoolVal(true)},
		{"bool:false", ledger.BoolVal(false)},
		{"str:hello", ledger.StrVal("hello")},
		{"str:", ledger.StrVal("")},
		{"bytes:deadbeef", ledger.BytesVal([]byte{0xde, 0xad, 0xbe, 0xef})},
		{"addr:GALICE", ledger.AddrVal("GALICE")},
		{"void", ledger.Void()},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, err := ParseArg(tt.spec)
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %s", got.String())
		})
	}
}

func TestParseArgColonInPayload(t *testing.T) {
	got, err := ParseArg("str:a:b:c")
	require.NoError(t, err)
	assert.True(t, got.Equal(ledger.StrVal("a:b:c")))
}

func TestParseArgErrors(t *testing.T) {
	tests := []string{
		"42",                // no type prefix
		"i128:not-a-number",
		"i128:340282366920938463463374607431768211456", // > MaxI128
		"bool:yes",
		"bytes:zz",
		"addr:",
		"u256:1",
	}
	for _, spec := range tests {
		t.Run(spec, func(t *testing.T) {
			_, err := ParseArg(spec)
			require.Error(t, err)
			assert.True(t, errors.IsInput(err))
		})
	}
}

func TestParseArgsPreservesOrder(t *testing.T) {
	got, err := ParseArgs([]string{"addr:GALICE", "addr:GBOB", "i128:250"})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.True(t, got[0].Equal(ledger.AddrVal("GALICE")))
	assert.True(t, got[2].Equal(ledger.Int64Val(250)))

	_, err = ParseArgs([]string{"i128:1", "broken"})
	require.Error(t, err)
}
