package ledger

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tijesunimi004/soroban-debugger/pkg/errors"
)

func TestIntValRange(t *testing.T) {
	v, err := IntVal(MaxI128())
	require.NoError(t, err)
	assert.Equal(t, KindInt, v.Kind)

	v, err = IntVal(MinI128())
	require.NoError(t, err)
	assert.Equal(t, KindInt, v.Kind)

	over := new(big.Int).Add(MaxI128(), big.NewInt(1))
	_, err = IntVal(over)
	require.Error(t, err)
	assert.True(t, errors.IsInput(err))

	under := new(big.Int).Sub(MinI128(), big.NewInt(1))
	_, err = IntVal(under)
	require.Error(t, err)
}

func TestZeroValueIsVoid(t *testing.T) {
	var v Value
	assert.True(t, v.IsVoid())
	assert.True(t, v.Equal(Void()))
}

func TestEqualIsKindStrict(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"same ints", Int64Val(42), Int64Val(42), true},
		{"different ints", Int64Val(42), Int64Val(43), false},
		{"string vs address", StrVal("GABC"), AddrVal("GABC"), false},
		{"case sensitive strings", StrVal("Alice"), StrVal("alice"), false},
		{"equal bytes", BytesVal([]byte{1, 2}), BytesVal([]byte{1, 2}), true},
		{"void vs bool", Void(), BoolVal(false), false},
		{"bools", BoolVal(true), BoolVal(true), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Equal(tt.b))
			assert.Equal(t, tt.want, tt.b.Equal(tt.a))
		})
	}
}

func TestCloneIsIndependent(t *testing.T) {
	orig := Int64Val(100)
	clone := orig.Clone()
	clone.Int.Add(clone.Int, big.NewInt(1))
	assert.Equal(t, "100", orig.Int.String())

	b := BytesVal([]byte{1, 2, 3})
	bc := b.Clone()
	bc.Bytes[0] = 9
	assert.Equal(t, byte(1), b.Bytes[0])
}

func TestJSONWireForm(t *testing.T) {
	// Magnitudes beyond float64 precision must survive via the string
	// encoding.
	big128 := new(big.Int).Lsh(big.NewInt(1), 100)
	v, err := IntVal(big128)
	require.NoError(t, err)

	data, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"i128","value":"1267650600228229401496703205376"}`, string(data))

	var back Value
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, v.Equal(back))
}

func TestJSONAcceptsBareNumbers(t *testing.T) {
	var v Value
	require.NoError(t, json.Unmarshal([]byte(`{"type":"i128","value":7}`), &v))
	assert.True(t, v.Equal(Int64Val(7)))
}

func TestJSONRejectsOutOfRange(t *testing.T) {
	var v Value
	err := json.Unmarshal([]byte(`{"type":"i128","value":"340282366920938463463374607431768211456"}`), &v)
	require.Error(t, err)
}

func TestJSONUnknownType(t *testing.T) {
	var v Value
	err := json.Unmarshal([]byte(`{"type":"u256","value":"1"}`), &v)
	require.Error(t, err)
}

func TestNative(t *testing.T) {
	assert.Equal(t, int64(5), Int64Val(5).Native())
	assert.Equal(t, true, BoolVal(true).Native())
	assert.Equal(t, "hi", StrVal("hi").Native())
	assert.Nil(t, Void().Native())

	huge, err := IntVal(MaxI128())
	require.NoError(t, err)
	assert.Equal(t, MaxI128().String(), huge.Native())
}
