package engine

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Tijesunimi004/soroban-debugger/pkg/errors"
	"github.com/Tijesunimi004/soroban-debugger/pkg/ledger"
)

// moduleFile is the on-disk module format: the lowered representation
// emitted by the external contract toolchain.
type moduleFile struct {
	Contracts []contractFile `json:"contracts"`
}

type contractFile struct {
	ID        string     `json:"id"`
	Functions []Function `json:"functions"`
}

// LoadModule reads and validates a lowered contract module file.
func LoadModule(path string) (*Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &errors.InputError{
			Kind:    errors.InputModule,
			Path:    path,
			Message: "cannot read module",
			Cause:   err,
		}
	}

	var file moduleFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, &errors.InputError{
			Kind:    errors.InputModule,
			Path:    path,
			Message: "malformed module",
			Cause:   err,
		}
	}
	if len(file.Contracts) == 0 {
		return nil, &errors.InputError{
			Kind:    errors.InputModule,
			Path:    path,
			Message: "module contains no contracts",
		}
	}

	m := &Module{Contracts: make(map[string]*Contract, len(file.Contracts))}
	for _, cf := range file.Contracts {
		if cf.ID == "" {
			return nil, moduleErr(path, "contract with empty id")
		}
		if _, dup := m.Contracts[cf.ID]; dup {
			return nil, moduleErr(path, fmt.Sprintf("duplicate contract id %q", cf.ID))
		}
		c := &Contract{ID: cf.ID, Functions: make(map[string]*Function, len(cf.Functions))}
		for i := range cf.Functions {
			fn := cf.Functions[i]
			if fn.Name == "" {
				return nil, moduleErr(path, fmt.Sprintf("contract %s: function with empty name", cf.ID))
			}
			if _, dup := c.Functions[fn.Name]; dup {
				return nil, moduleErr(path, fmt.Sprintf("contract %s: duplicate function %q", cf.ID, fn.Name))
			}
			if err := validateCode(cf.ID, &fn); err != nil {
				return nil, &errors.InputError{
					Kind:    errors.InputModule,
					Path:    path,
					Message: err.Error(),
				}
			}
			c.Functions[fn.Name] = &fn
		}
		m.Contracts[cf.ID] = c
	}
	return m, nil
}

func moduleErr(path, msg string) error {
	return &errors.InputError{Kind: errors.InputModule, Path: path, Message: msg}
}

// validateCode rejects instructions the step loop could not execute:
// unknown ops, jump targets outside the body, storage ops with bad tiers,
// and operand-less immediates. Runtime-only failures (unknown call
// targets, stack underflow) stay traps so cross-module behavior matches
// a real host.
func validateCode(contractID string, fn *Function) error {
	for pc, in := range fn.Code {
		at := func(msg string) error {
			return fmt.Errorf("contract %s: %s+%d: %s", contractID, fn.Name, pc, msg)
		}
		switch in.Op {
		case OpPush:
			if in.Value == nil {
				return at("push without value")
			}
		case OpPop, OpDup, OpAdd, OpSub, OpMul, OpDiv,
			OpEq, OpNe, OpLt, OpGt, OpLe, OpGe, OpNot,
			OpReturn, OpUnreachable, OpTime:
			// no operands
		case OpArg, OpLocalGet, OpLocalSet:
			if in.Index < 0 {
				return at("negative index")
			}
		case OpJump, OpJumpIf:
			if in.Target < 0 || in.Target >= len(fn.Code) {
				return at(fmt.Sprintf("jump target %d out of range", in.Target))
			}
		case OpStorageGet, OpStorageHas, OpStoragePut, OpStorageDel:
			if !ledger.ValidTier(in.Tier) {
				return at(fmt.Sprintf("unknown storage tier %q", in.Tier))
			}
			if in.Key == "" {
				return at("storage op without key")
			}
		case OpEmit:
			if in.Topic == "" {
				return at("emit without topic")
			}
		case OpCall:
			if in.Contract == "" || in.Fn == "" {
				return at("call without contract/fn")
			}
			if in.NArgs < 0 {
				return at("call with negative nargs")
			}
		default:
			return at(fmt.Sprintf("unknown op %q", in.Op))
		}
	}
	return nil
}
