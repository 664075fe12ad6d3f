package ledger

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/Tijesunimi004/soroban-debugger/pkg/errors"
)

// Kind identifies the variant of a storage value.
type Kind string

const (
	// KindVoid is the absent/unit value.
	KindVoid Kind = "void"
	// KindBool is a boolean value.
	KindBool Kind = "bool"
	// KindInt is a 128-bit signed integer value.
	KindInt Kind = "i128"
	// KindBytes is an opaque byte string.
	KindBytes Kind = "bytes"
	// KindString is a UTF-8 string value.
	KindString Kind = "string"
	// KindAddress is a contract or account address.
	KindAddress Kind = "address"
)

// i128 bounds: [-2^127, 2^127-1].
var (
	maxI128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	minI128 = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
)

// MaxI128 returns the largest representable 128-bit signed integer.
func MaxI128() *big.Int { return new(big.Int).Set(maxI128) }

// MinI128 returns the smallest representable 128-bit signed integer.
func MinI128() *big.Int { return new(big.Int).Set(minI128) }

// FitsI128 reports whether n is within the 128-bit signed integer range.
func FitsI128(n *big.Int) bool {
	return n.Cmp(minI128) >= 0 && n.Cmp(maxI128) <= 0
}

// Value is the closed tagged variant used for storage entries, invocation
// arguments and return values. Only the payload field matching Kind is
// meaningful; the zero Value is Void.
type Value struct {
	Kind  Kind
	Bool  bool
	Int   *big.Int
	Bytes []byte
	Str   string // payload for both String and Address
}

// Void returns the void value.
func Void() Value {
	return Value{Kind: KindVoid}
}

// BoolVal returns a boolean value.
func BoolVal(b bool) Value {
	return Value{Kind: KindBool, Bool: b}
}

// IntVal returns a 128-bit integer value, failing if n is out of range.
func IntVal(n *big.Int) (Value, error) {
	if n == nil {
		return Value{}, &errors.InputError{Kind: errors.InputArgs, Message: "nil integer value"}
	}
	if !FitsI128(n) {
		return Value{}, &errors.InputError{
			Kind:    errors.InputArgs,
			Message: fmt.Sprintf("integer %s out of i128 range", n.String()),
		}
	}
	return Value{Kind: KindInt, Int: new(big.Int).Set(n)}, nil
}

// Int64Val returns a 128-bit integer value from an int64.
func Int64Val(n int64) Value {
	return Value{Kind: KindInt, Int: big.NewInt(n)}
}

// BytesVal returns a byte-string value.
func BytesVal(b []byte) Value {
	return Value{Kind: KindBytes, Bytes: append([]byte(nil), b...)}
}

// StrVal returns a string value.
func StrVal(s string) Value {
	return Value{Kind: KindString, Str: s}
}

// AddrVal returns an address value.
func AddrVal(s string) Value {
	return Value{Kind: KindAddress, Str: s}
}

// IsVoid reports whether the value is void. The zero Value is void.
func (v Value) IsVoid() bool {
	return v.Kind == KindVoid || v.Kind == ""
}

// Equal reports whether two values are identical: same kind and same
// payload. Comparison is exact and case-sensitive; it never coerces
// across kinds.
func (v Value) Equal(o Value) bool {
	if v.IsVoid() || o.IsVoid() {
		return v.IsVoid() == o.IsVoid()
	}
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindBool:
		return v.Bool == o.Bool
	case KindInt:
		return v.Int.Cmp(o.Int) == 0
	case KindBytes:
		return bytes.Equal(v.Bytes, o.Bytes)
	case KindString, KindAddress:
		return v.Str == o.Str
	}
	return false
}

// Clone returns a deep copy of the value.
func (v Value) Clone() Value {
	out := v
	if v.Int != nil {
		out.Int = new(big.Int).Set(v.Int)
	}
	if v.Bytes != nil {
		out.Bytes = append([]byte(nil), v.Bytes...)
	}
	return out
}

// String renders the value for display.
func (v Value) String() string {
	switch v.Kind {
	case KindBool:
		return fmt.Sprintf("%t", v.Bool)
	case KindInt:
		return v.Int.String()
	case KindBytes:
		return "0x" + hex.EncodeToString(v.Bytes)
	case KindString:
		return fmt.Sprintf("%q", v.Str)
	case KindAddress:
		return v.Str
	}
	return "void"
}

// Native converts the value to a plain Go representation suitable for
// expression evaluation and JSON-ish contexts. Integers that fit in an
// int64 convert to int64; larger ones become decimal strings.
func (v Value) Native() interface{} {
	switch v.Kind {
	case KindBool:
		return v.Bool
	case KindInt:
		if v.Int.IsInt64() {
			return v.Int.Int64()
		}
		return v.Int.String()
	case KindBytes:
		return hex.EncodeToString(v.Bytes)
	case KindString, KindAddress:
		return v.Str
	}
	return nil
}

// valueJSON is the wire form of a Value: {"type": "...", "value": ...}.
type valueJSON struct {
	Type  Kind            `json:"type"`
	Value json.RawMessage `json:"value,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	var payload interface{}
	switch v.Kind {
	case KindVoid, "":
		return json.Marshal(valueJSON{Type: KindVoid})
	case KindBool:
		payload = v.Bool
	case KindInt:
		payload = v.Int.String()
	case KindBytes:
		payload = hex.EncodeToString(v.Bytes)
	case KindString, KindAddress:
		payload = v.Str
	default:
		return nil, fmt.Errorf("unknown value kind: %s", v.Kind)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(valueJSON{Type: v.Kind, Value: raw})
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	var wire valueJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	switch wire.Type {
	case KindVoid:
		*v = Void()
		return nil
	case KindBool:
		var b bool
		if err := json.Unmarshal(wire.Value, &b); err != nil {
			return fmt.Errorf("bool value: %w", err)
		}
		*v = BoolVal(b)
		return nil
	case KindInt:
		n, err := decodeInt(wire.Value)
		if err != nil {
			return err
		}
		val, err := IntVal(n)
		if err != nil {
			return err
		}
		*v = val
		return nil
	case KindBytes:
		var s string
		if err := json.Unmarshal(wire.Value, &s); err != nil {
			return fmt.Errorf("bytes value: %w", err)
		}
		b, err := hex.DecodeString(s)
		if err != nil {
			return fmt.Errorf("bytes value: %w", err)
		}
		*v = BytesVal(b)
		return nil
	case KindString:
		var s string
		if err := json.Unmarshal(wire.Value, &s); err != nil {
			return fmt.Errorf("string value: %w", err)
		}
		*v = StrVal(s)
		return nil
	case KindAddress:
		var s string
		if err := json.Unmarshal(wire.Value, &s); err != nil {
			return fmt.Errorf("address value: %w", err)
		}
		*v = AddrVal(s)
		return nil
	}
	return fmt.Errorf("unknown value type: %q", wire.Type)
}

// decodeInt accepts both string and bare-number encodings of i128 values.
// Strings are required for magnitudes beyond float64 precision; numbers
// are accepted for hand-written fixtures.
func decodeInt(raw json.RawMessage) (*big.Int, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		n, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return nil, fmt.Errorf("i128 value: cannot parse %q", s)
		}
		return n, nil
	}
	var i int64
	if err := json.Unmarshal(raw, &i); err == nil {
		return big.NewInt(i), nil
	}
	return nil, fmt.Errorf("i128 value: expected string or integer, got %s", string(raw))
}
