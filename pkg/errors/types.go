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
	"fmt"
)

// InputKind identifies which kind of input failed validation.
type InputKind string

const (
	// InputSnapshot is a snapshot file problem (missing, unreadable, malformed).
	InputSnapshot InputKind = "snapshot"
	// InputBatch is a batch job file problem.
	InputBatch InputKind = "batch"
	// InputModule is a contract module file problem.
	InputModule InputKind = "module"
	// InputArgs is an invocation argument problem.
	InputArgs InputKind = "args"
)

// InputError represents malformed snapshot, batch, module or argument input.
// Input errors abort before any execution starts.
type InputError struct {
	// Kind identifies the input that failed (snapshot, batch, module, args)
	Kind InputKind

	// Path is the file path involved, if any
	Path string

	// Message is the human-readable error description
	Message string

	// Cause is the underlying error (e.g. a JSON decode error)
	Cause error
}

// Error implements the error interface.
func (e *InputError) Error() string {
	msg := fmt.Sprintf("invalid %s input", e.Kind)
	if e.Path != "" {
		msg = fmt.Sprintf("%s %s", msg, e.Path)
	}
	return fmt.Sprintf("%s: %s", msg, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *InputError) Unwrap() error {
	return e.Cause
}

// TrapCode classifies guest execution faults.
type TrapCode string

const (
	// TrapUnreachable is an explicit unreachable/abort in guest code.
	TrapUnreachable TrapCode = "unreachable"
	// TrapArithmetic is an arithmetic fault (overflow, division by zero).
	TrapArithmetic TrapCode = "arithmetic"
	// TrapTypeMismatch is a value of the wrong variant at a call or
	// operation boundary.
	TrapTypeMismatch TrapCode = "type_mismatch"
	// TrapBadJump is a jump target outside the function body.
	TrapBadJump TrapCode = "bad_jump"
	// TrapStack is an operand stack underflow in guest code.
	TrapStack TrapCode = "operand_stack"
	// TrapUnknownFunction is a call to a contract or function that does
	// not exist in the loaded module.
	TrapUnknownFunction TrapCode = "unknown_function"
)

// TrapError represents a guest fault. It is caught at the invocation
// boundary: the overlay is discarded and the session or batch continues.
type TrapError struct {
	// Code classifies the fault
	Code TrapCode

	// Reason is the human-readable fault description
	Reason string

	// ContractID is the contract that trapped
	ContractID string

	// FrameID is the frame in which the trap occurred
	FrameID int
}

// Error implements the error interface.
func (e *TrapError) Error() string {
	msg := fmt.Sprintf("trap (%s): %s", e.Code, e.Reason)
	if e.ContractID != "" {
		msg = fmt.Sprintf("%s [contract %s, frame %d]", msg, e.ContractID, e.FrameID)
	}
	return msg
}

// ResourceKind identifies which execution resource was exhausted.
type ResourceKind string

const (
	// ResourceCallDepth is the cross-contract call depth bound.
	ResourceCallDepth ResourceKind = "call_depth"
	// ResourceInstructions is the per-invocation instruction budget.
	ResourceInstructions ResourceKind = "instructions"
)

// ResourceError represents exhaustion of a configured execution bound
// (stack overflow, instruction budget). Handled identically to a trap:
// the overlay is discarded and the session or batch continues.
type ResourceError struct {
	// Kind identifies the exhausted resource
	Kind ResourceKind

	// Limit is the configured bound that was exceeded
	Limit int
}

// Error implements the error interface.
func (e *ResourceError) Error() string {
	switch e.Kind {
	case ResourceCallDepth:
		return fmt.Sprintf("call stack overflow: depth limit %d exceeded", e.Limit)
	case ResourceInstructions:
		return fmt.Sprintf("execution budget exceeded: instruction limit %d", e.Limit)
	}
	return fmt.Sprintf("resource limit exceeded: %s (%d)", e.Kind, e.Limit)
}

// EngineInvariantError signals an internal engine defect, such as call
// stack corruption. It is fatal and aborts the session.
type EngineInvariantError struct {
	// Invariant names the violated invariant
	Invariant string

	// Message describes the observed state
	Message string
}

// Error implements the error interface.
func (e *EngineInvariantError) Error() string {
	return fmt.Sprintf("engine invariant violated (%s): %s", e.Invariant, e.Message)
}

// IDKind identifies what kind of debugger id was not found.
type IDKind string

const (
	// IDBreakpoint is a breakpoint id.
	IDBreakpoint IDKind = "breakpoint"
	// IDWatch is a storage watch id.
	IDWatch IDKind = "watch"
	// IDAny is used when the miss cannot be attributed to either
	// namespace (breakpoints and watches share one id space).
	IDAny IDKind = "breakpoint or watch"
)

// UnknownIDError represents a breakpoint or watch id miss. It is
// non-fatal: the operation is a no-op and the miss is reported.
type UnknownIDError struct {
	// Kind is the id namespace (breakpoint, watch)
	Kind IDKind

	// ID is the id that was not found
	ID int
}

// Error implements the error interface.
func (e *UnknownIDError) Error() string {
	return fmt.Sprintf("unknown %s id: %d", e.Kind, e.ID)
}

// WarningNotice is a non-fatal advisory surfaced to the caller, for
// example when a breakpoint location could not be resolved exactly and
// was moved to the nearest function entry.
type WarningNotice struct {
	// Message describes the adjustment that was made
	Message string
}

// Error implements the error interface.
func (e *WarningNotice) Error() string {
	return fmt.Sprintf("warning: %s", e.Message)
}
