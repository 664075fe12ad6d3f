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

package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInputErrorMessage(t *testing.T) {
	err := &InputError{
		Kind:    InputSnapshot,
		Path:    "ledger.json",
		Message: "malformed snapshot",
	}
	assert.Equal(t, "invalid snapshot input ledger.json: malformed snapshot", err.Error())

	noPath := &InputError{Kind: InputArgs, Message: "bad argument"}
	assert.Equal(t, "invalid args input: bad argument", noPath.Error())
}

func TestInputErrorUnwrap(t *testing.T) {
	cause := stderrors.New("unexpected end of JSON input")
	err := &InputError{Kind: InputBatch, Message: "decode failed", Cause: cause}
	assert.ErrorIs(t, err, cause)
}

func TestTrapErrorMessage(t *testing.T) {
	err := &TrapError{
		Code:       TrapArithmetic,
		Reason:     "division by zero",
		ContractID: "C1",
		FrameID:    2,
	}
	assert.Equal(t, "trap (arithmetic): division by zero [contract C1, frame 2]", err.Error())
}

func TestResourceErrorMessage(t *testing.T) {
	assert.Equal(t, "call stack overflow: depth limit 16 exceeded",
		(&ResourceError{Kind: ResourceCallDepth, Limit: 16}).Error())
	assert.Equal(t, "execution budget exceeded: instruction limit 1000",
		(&ResourceError{Kind: ResourceInstructions, Limit: 1000}).Error())
}

func TestClassifiers(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		input     bool
		trap      bool
		resource  bool
		fault     bool
		invariant bool
		unknownID bool
	}{
		{"input", &InputError{Kind: InputModule, Message: "x"}, true, false, false, false, false, false},
		{"trap", &TrapError{Code: TrapUnreachable, Reason: "x"}, false, true, false, true, false, false},
		{"resource", &ResourceError{Kind: ResourceCallDepth, Limit: 8}, false, false, true, true, false, false},
		{"invariant", &EngineInvariantError{Invariant: "callstack", Message: "x"}, false, false, false, false, true, false},
		{"unknown id", &UnknownIDError{Kind: IDBreakpoint, ID: 9}, false, false, false, false, false, true},
		{"plain", stderrors.New("boom"), false, false, false, false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.input, IsInput(tt.err))
			assert.Equal(t, tt.trap, IsTrap(tt.err))
			assert.Equal(t, tt.resource, IsResource(tt.err))
			assert.Equal(t, tt.fault, IsInvocationFault(tt.err))
			assert.Equal(t, tt.invariant, IsEngineInvariant(tt.err))
			assert.Equal(t, tt.unknownID, IsUnknownID(tt.err))
		})
	}
}

func TestClassifiersSeeThroughWrapping(t *testing.T) {
	inner := &TrapError{Code: TrapBadJump, Reason: "target 99"}
	wrapped := fmt.Errorf("job 3: %w", inner)
	assert.True(t, IsTrap(wrapped))
	assert.True(t, IsInvocationFault(wrapped))

	var trap *TrapError
	require.True(t, stderrors.As(wrapped, &trap))
	assert.Equal(t, TrapBadJump, trap.Code)
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, "context"))
	assert.Nil(t, Wrapf(nil, "context %d", 1))

	base := stderrors.New("base")
	err := Wrap(base, "loading module")
	assert.Equal(t, "loading module: base", err.Error())
	assert.ErrorIs(t, err, base)
}
