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
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	pkgerrors "github.com/Tijesunimi004/soroban-debugger/pkg/errors"
)

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"input error", &pkgerrors.InputError{Kind: pkgerrors.InputSnapshot, Message: "x"}, ExitInvalidInput},
		{"trap", &pkgerrors.TrapError{Code: pkgerrors.TrapUnreachable, Reason: "x"}, ExitExecutionFailed},
		{"resource", &pkgerrors.ResourceError{Kind: pkgerrors.ResourceCallDepth, Limit: 16}, ExitExecutionFailed},
		{"unknown id", &pkgerrors.UnknownIDError{Kind: pkgerrors.IDWatch, ID: 4}, ExitUnknownID},
		{"invariant", &pkgerrors.EngineInvariantError{Invariant: "host", Message: "x"}, ExitExecutionFailed},
		{"plain", stderrors.New("boom"), ExitExecutionFailed},
		{"wrapped input", fmt.Errorf("loading: %w",
			&pkgerrors.InputError{Kind: pkgerrors.InputBatch, Message: "x"}), ExitInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCodeFor(tt.err))
		})
	}
}

func TestExitErrorMessage(t *testing.T) {
	err := NewExecutionError("invocation failed", stderrors.New("trap"))
	assert.Equal(t, "invocation failed: trap", err.Error())
	assert.Equal(t, ExitExecutionFailed, err.Code)

	bare := NewInvalidInputError("bad snapshot", nil)
	assert.Equal(t, "bad snapshot", bare.Error())
	assert.Equal(t, ExitInvalidInput, bare.Code)
}

func TestExitErrorUnwrap(t *testing.T) {
	cause := &pkgerrors.TrapError{Code: pkgerrors.TrapArithmetic, Reason: "overflow"}
	err := NewExecutionError("job 2 failed", cause)

	var trap *pkgerrors.TrapError
	assert.True(t, stderrors.As(err, &trap))
}
