package ledger

import (
	"encoding/hex"
	"fmt"
	"math/big"

	"gopkg.in/yaml.v3"
)

// UnmarshalYAML decodes the {type, value} wire form from YAML. Batch job
// files are YAML (JSON batches parse as a YAML subset), so values need
// both decoders.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	var wire struct {
		Type  Kind      `yaml:"type"`
		Value yaml.Node `yaml:"value"`
	}
	if err := node.Decode(&wire); err != nil {
		return err
	}
	switch wire.Type {
	case KindVoid:
		*v = Void()
		return nil
	case KindBool:
		var b bool
		if err := wire.Value.Decode(&b); err != nil {
			return fmt.Errorf("bool value: %w", err)
		}
		*v = BoolVal(b)
		return nil
	case KindInt:
		// Accept both quoted decimal strings and bare integers.
		var s string
		if err := wire.Value.Decode(&s); err != nil {
			var i int64
			if err := wire.Value.Decode(&i); err != nil {
				return fmt.Errorf("i128 value: expected string or integer")
			}
			*v = Int64Val(i)
			return nil
		}
		n, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return fmt.Errorf("i128 value: cannot parse %q", s)
		}
		val, err := IntVal(n)
		if err != nil {
			return err
		}
		*v = val
		return nil
	case KindBytes:
		var s string
		if err := wire.Value.Decode(&s); err != nil {
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
		if err := wire.Value.Decode(&s); err != nil {
			return fmt.Errorf("string value: %w", err)
		}
		*v = StrVal(s)
		return nil
	case KindAddress:
		var s string
		if err := wire.Value.Decode(&s); err != nil {
			return fmt.Errorf("address value: %w", err)
		}
		*v = AddrVal(s)
		return nil
	}
	return fmt.Errorf("unknown value type: %q", wire.Type)
}
