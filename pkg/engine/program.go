package engine

import (
	"fmt"

	"github.com/Tijesunimi004/soroban-debugger/pkg/errors"
	"github.com/Tijesunimi004/soroban-debugger/pkg/ledger"
)

// Op identifies one guest instruction. The host executes lowered contract
// modules over this compact host-op instruction set; the WASM toolchain
// that produces them is an external collaborator.
type Op string

const (
	// Stack and locals.
	OpPush     Op = "push"      // push the immediate value
	OpPop      Op = "pop"       // drop the top of stack
	OpDup      Op = "dup"       // duplicate the top of stack
	OpArg      Op = "arg"       // push argument Index of the current frame
	OpLocalGet Op = "local.get" // push local Index (void if unset)
	OpLocalSet Op = "local.set" // pop into local Index

	// i128 arithmetic. Overflow and division by zero trap.
	OpAdd Op = "add"
	OpSub Op = "sub"
	OpMul Op = "mul"
	OpDiv Op = "div"

	// Comparisons push a bool. eq/ne accept any kinds; the ordered
	// comparisons require integers.
	OpEq Op = "eq"
	OpNe Op = "ne"
	OpLt Op = "lt"
	OpGt Op = "gt"
	OpLe Op = "le"
	OpGe Op = "ge"
	OpNot Op = "not"

	// Control flow.
	OpJump        Op = "jump"        // pc = Target
	OpJumpIf      Op = "jump_if"     // pop bool; if true pc = Target
	OpReturn      Op = "return"      // return top of stack (void if empty)
	OpUnreachable Op = "unreachable" // trap

	// Host-call boundaries, intercepted by the execution host.
	OpStorageGet Op = "storage.get" // push stored value (void if absent)
	OpStorageHas Op = "storage.has" // push bool presence
	OpStoragePut Op = "storage.put" // pop value, write it
	OpStorageDel Op = "storage.del" // logically delete the key
	OpEmit       Op = "emit"        // pop data, publish event with Topic
	OpCall       Op = "call"        // pop NArgs args, invoke Contract.Fn, push result
	OpTime       Op = "ledger.time" // push the caller-supplied ledger time
)

// Instr is one decoded instruction. Only the operand fields used by Op
// are set.
type Instr struct {
	Op Op `json:"op"`

	// Value is the immediate for push.
	Value *ledger.Value `json:"value,omitempty"`

	// Index selects an argument or local.
	Index int `json:"index,omitempty"`

	// Tier and Key address a storage slot of the executing contract.
	Tier ledger.Tier `json:"tier,omitempty"`
	Key  string      `json:"key,omitempty"`

	// Topic names the event topic for emit.
	Topic string `json:"topic,omitempty"`

	// Contract, Fn and NArgs describe a cross-contract call.
	Contract string `json:"contract,omitempty"`
	Fn       string `json:"fn,omitempty"`
	NArgs    int    `json:"nargs,omitempty"`

	// Target is the jump destination.
	Target int `json:"target,omitempty"`
}

// Function is one invocable contract function.
type Function struct {
	Name   string        `json:"name"`
	Params []ledger.Kind `json:"params,omitempty"`
	Code   []Instr       `json:"code"`
}

// CheckArgs verifies argument arity and kinds against the function's
// declared parameters. A mismatch is a guest fault at the call boundary.
func (f *Function) CheckArgs(args []ledger.Value) error {
	if len(args) != len(f.Params) {
		return &errors.TrapError{
			Code:   errors.TrapTypeMismatch,
			Reason: fmt.Sprintf("%s expects %d argument(s), got %d", f.Name, len(f.Params), len(args)),
		}
	}
	for i, p := range f.Params {
		got := args[i].Kind
		if got == "" {
			got = ledger.KindVoid
		}
		if got != p {
			return &errors.TrapError{
				Code:   errors.TrapTypeMismatch,
				Reason: fmt.Sprintf("%s argument %d: expected %s, got %s", f.Name, i, p, got),
			}
		}
	}
	return nil
}

// Contract is one contract of a loaded module.
type Contract struct {
	ID        string
	Functions map[string]*Function
}

// Module is a loaded set of contracts the host can execute.
type Module struct {
	Contracts map[string]*Contract
}

// Function resolves contract/fn within the module.
func (m *Module) Function(contract, fn string) (*Function, bool) {
	c, ok := m.Contracts[contract]
	if !ok {
		return nil, false
	}
	f, ok := c.Functions[fn]
	return f, ok
}

// HasFunction reports whether contract/fn exists in the module.
func (m *Module) HasFunction(contract, fn string) bool {
	_, ok := m.Function(contract, fn)
	return ok
}

// NewModule builds a module from contracts. Intended for tests and
// programmatic construction; file loading goes through LoadModule.
func NewModule(contracts ...*Contract) *Module {
	m := &Module{Contracts: make(map[string]*Contract, len(contracts))}
	for _, c := range contracts {
		m.Contracts[c.ID] = c
	}
	return m
}

// NewContract builds a contract from functions.
func NewContract(id string, fns ...*Function) *Contract {
	c := &Contract{ID: id, Functions: make(map[string]*Function, len(fns))}
	for _, f := range fns {
		c.Functions[f.Name] = f
	}
	return c
}
