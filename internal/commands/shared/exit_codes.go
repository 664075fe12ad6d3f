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
	"os"

	pkgerrors "github.com/Tijesunimi004/soroban-debugger/pkg/errors"
)

// Exit codes for the sorodbg CLI
const (
	ExitSuccess = 0
	// ExitExecutionFailed covers traps, resource exhaustion, and any
	// failure that is not an input or id problem.
	ExitExecutionFailed = 1
	// ExitInvalidInput covers malformed snapshot, batch, module, and
	// argument files.
	ExitInvalidInput = 2
	// ExitUnknownID covers operations referencing a breakpoint or watch
	// id that was never registered.
	ExitUnknownID = 3
)

// ExitError is an error that carries an exit code
type ExitError struct {
	Code    int
	Message string
	Cause   error
}

func (e *ExitError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Cause
}

// NewExecutionError creates an error for invocation failures
func NewExecutionError(msg string, cause error) *ExitError {
	return &ExitError{
		Code:    ExitExecutionFailed,
		Message: msg,
		Cause:   cause,
	}
}

// NewInvalidInputError creates an error for malformed input files
func NewInvalidInputError(msg string, cause error) *ExitError {
	return &ExitError{
		Code:    ExitInvalidInput,
		Message: msg,
		Cause:   cause,
	}
}

// ExitCodeFor maps an error to its process exit code based on the
// error taxonomy: input errors exit 2, unknown breakpoint/watch ids
// exit 3, everything else exits 1.
func ExitCodeFor(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case pkgerrors.IsInput(err):
		return ExitInvalidInput
	case pkgerrors.IsUnknownID(err):
		return ExitUnknownID
	default:
		return ExitExecutionFailed
	}
}

// HandleExitError prints the error and exits with the appropriate code.
func HandleExitError(err error) {
	if err == nil {
		return
	}

	var exitErr *ExitError
	if stderrors.As(err, &exitErr) {
		fmt.Fprintln(os.Stderr, "Error:", exitErr.Error())
		os.Exit(exitErr.Code)
	}

	fmt.Fprintln(os.Stderr, "Error:", err.Error())
	os.Exit(ExitCodeFor(err))
}
