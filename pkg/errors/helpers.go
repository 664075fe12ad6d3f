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

// Package errors defines the debugger's error taxonomy.
//
// Failures fall into five classes with distinct handling:
//
//   - InputError: malformed snapshot/batch/module/args, aborts before
//     execution.
//   - TrapError: guest fault, caught at the invocation boundary; the
//     overlay is discarded and the session continues.
//   - ResourceError: stack overflow or instruction budget exhaustion,
//     handled like a trap.
//   - EngineInvariantError: internal defect, fatal to the session.
//   - UnknownIDError: breakpoint/watch id miss, reported no-op.
package errors

import (
	"errors"
	"fmt"
)

// Wrap creates a new error that wraps the given error with additional context.
// If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf creates a new error that wraps the given error with formatted context.
// If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// IsInput reports whether any error in err's tree is an InputError.
func IsInput(err error) bool {
	var target *InputError
	return errors.As(err, &target)
}

// IsTrap reports whether any error in err's tree is a TrapError.
func IsTrap(err error) bool {
	var target *TrapError
	return errors.As(err, &target)
}

// IsResource reports whether any error in err's tree is a ResourceError.
func IsResource(err error) bool {
	var target *ResourceError
	return errors.As(err, &target)
}

// IsInvocationFault reports whether err is a guest-level failure
// (trap or resource exhaustion) that discards the overlay but leaves the
// session running.
func IsInvocationFault(err error) bool {
	return IsTrap(err) || IsResource(err)
}

// IsEngineInvariant reports whether any error in err's tree is an
// EngineInvariantError.
func IsEngineInvariant(err error) bool {
	var target *EngineInvariantError
	return errors.As(err, &target)
}

// IsUnknownID reports whether any error in err's tree is an UnknownIDError.
func IsUnknownID(err error) bool {
	var target *UnknownIDError
	return errors.As(err, &target)
}
