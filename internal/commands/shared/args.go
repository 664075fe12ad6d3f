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
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/Tijesunimi004/soroban-debugger/pkg/errors"
	"github.com/Tijesunimi004/soroban-debugger/pkg/ledger"
)

// ParseArg parses one --arg flag value of the form "type:value" into a
// ledger value. Supported forms:
//
//	i128:42        signed 128-bit integer (decimal)
//	bool:true      boolean
//	str:hello      string
//	bytes:deadbeef hex-encoded bytes
//	addr:GABC...   contract or account address
//	void           absence of a value
func ParseArg(spec string) (ledger.Value, error) {
	if spec == "void" {
		return ledger.Void(), nil
	}

	typ, raw, ok := strings.Cut(spec, ":")
	if !ok {
		return ledger.Value{}, &errors.InputError{
			Kind:    errors.InputArgs,
			Message: fmt.Sprintf("argument %q is not of the form type:value", spec),
		}
	}

	switch typ {
	case "i128":
		n, ok := new(big.Int).SetString(raw, 10)
		if !ok {
			return ledger.Value{}, &errors.InputError{
				Kind:    errors.InputArgs,
				Message: fmt.Sprintf("argument %q: not a decimal integer", spec),
			}
		}
		v, err := ledger.IntVal(n)
		if err != nil {
			return ledger.Value{}, &errors.InputError{
				Kind:    errors.InputArgs,
				Message: fmt.Sprintf("argument %q: %v", spec, err),
			}
		}
		return v, nil

	case "bool":
		switch raw {
		case "true":
			return ledger.BoolVal(true), nil
		case "false":
			return ledger.BoolVal(false), nil
		}
		return ledger.Value{}, &errors.InputError{
			Kind:    errors.InputArgs,
			Message: fmt.Sprintf("argument %q: expected true or false", spec),
		}

	case "str":
		return ledger.StrVal(raw), nil

	case "bytes":
		b, err := hex.DecodeString(raw)
		if err != nil {
			return ledger.Value{}, &errors.InputError{
				Kind:    errors.InputArgs,
				Message: fmt.Sprintf("argument %q: invalid hex", spec),
				Cause:   err,
			}
		}
		return ledger.BytesVal(b), nil

	case "addr":
		if raw == "" {
			return ledger.Value{}, &errors.InputError{
				Kind:    errors.InputArgs,
				Message: fmt.Sprintf("argument %q: empty address", spec),
			}
		}
		return ledger.AddrVal(raw), nil
	}

	return ledger.Value{}, &errors.InputError{
		Kind:    errors.InputArgs,
		Message: fmt.Sprintf("argument %q: unknown type %q", spec, typ),
	}
}

// ParseArgs parses a list of --arg flag values in order.
func ParseArgs(specs []string) ([]ledger.Value, error) {
	out := make([]ledger.Value, 0, len(specs))
	for _, spec := range specs {
		v, err := ParseArg(spec)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
