package engine

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/Tijesunimi004/soroban-debugger/pkg/errors"
	"github.com/Tijesunimi004/soroban-debugger/pkg/ledger"
)

// Config holds the host's execution bounds.
type Config struct {
	// MaxCallDepth bounds cross-contract call nesting.
	MaxCallDepth int

	// MaxInstructions bounds the instruction count of one top-level
	// invocation; exceeding it is handled like a trap.
	MaxInstructions int
}

// DefaultConfig returns the default execution bounds.
func DefaultConfig() Config {
	return Config{
		MaxCallDepth:    16,
		MaxInstructions: 1_000_000,
	}
}

// State is the host's externally observable execution state.
type State string

const (
	// StateIdle means no invocation is in progress.
	StateIdle State = "idle"
	// StateRunning means an invocation is in progress.
	StateRunning State = "running"
	// StateSuspended means execution is paused at a breakpoint.
	StateSuspended State = "suspended"
	// StateCompleted means the invocation returned normally.
	StateCompleted State = "completed"
	// StateTrapped means the invocation aborted with a guest fault or
	// resource exhaustion.
	StateTrapped State = "trapped"
)

// Outcome reports the effect of one Step or Continue call.
type Outcome string

const (
	// OutcomeRunning means more work remains.
	OutcomeRunning Outcome = "running"
	// OutcomePaused means a breakpoint suspended execution.
	OutcomePaused Outcome = "paused"
	// OutcomeCompleted means the invocation finished.
	OutcomeCompleted Outcome = "completed"
	// OutcomeTrapped means the invocation aborted.
	OutcomeTrapped Outcome = "trapped"
)

// Host drives guest execution step by step, intercepting storage, event
// and cross-contract-call operations. Execution is a single-threaded
// cooperative loop: Step executes exactly one atomic unit of guest work
// and yields control to the driver. All frames in a call tree share the
// session overlay, which is what makes diffs atomic across contract
// boundaries.
type Host struct {
	module  *Module
	overlay *ledger.Overlay
	mgr     *Manager
	events  *EventLog
	cfg     Config
	logger  *slog.Logger

	stack      *CallStack
	ledgerTime uint64
	steps      int
	state      State
	result     ledger.Value
	err        error
	lastBreak  *Breakpoint
}

// NewHost creates an execution host and wires the overlay's watch sink
// and the manager's storage reader.
func NewHost(module *Module, overlay *ledger.Overlay, mgr *Manager, events *EventLog, cfg Config, logger *slog.Logger) *Host {
	if logger == nil {
		logger = slog.Default()
	}
	overlay.SetSink(mgr)
	mgr.SetStorageReader(overlay.Peek)
	return &Host{
		module:  module,
		overlay: overlay,
		mgr:     mgr,
		events:  events,
		cfg:     cfg,
		logger:  logger,
		state:   StateIdle,
	}
}

// Begin starts a new invocation of contract/fn. The ledger time is the
// caller-supplied logical value returned by the ledger.time host call;
// a wall clock is never consulted.
func (h *Host) Begin(contractID, fnName string, args []ledger.Value, ledgerTime uint64) error {
	if h.state == StateRunning || h.state == StateSuspended {
		return &errors.EngineInvariantError{
			Invariant: "host",
			Message:   "invocation already in progress",
		}
	}

	fn, ok := h.module.Function(contractID, fnName)
	if !ok {
		return &errors.InputError{
			Kind:    errors.InputArgs,
			Message: fmt.Sprintf("function %s.%s not found in loaded module", contractID, fnName),
		}
	}
	if err := fn.CheckArgs(args); err != nil {
		// Top-level argument mismatches abort before execution starts.
		return &errors.InputError{Kind: errors.InputArgs, Message: err.Error(), Cause: err}
	}

	h.stack = NewCallStack(h.cfg.MaxCallDepth)
	root, err := h.stack.Push(contractID, fn, args)
	if err != nil {
		return err
	}
	h.mgr.SetCurrentFrame(root.ID)
	h.ledgerTime = ledgerTime
	h.steps = 0
	h.state = StateRunning
	h.result = ledger.Void()
	h.err = nil
	h.lastBreak = nil

	h.logger.Debug("invocation started",
		slog.String("contract_id", contractID),
		slog.String("fn", fnName),
		slog.Uint64("ledger_time", ledgerTime))
	return nil
}

// Step executes exactly one atomic unit of guest work: one instruction
// or one host-call boundary. Breakpoints are checked before the
// instruction executes; a match suspends the frame without consuming it.
func (h *Host) Step() (Outcome, error) {
	switch h.state {
	case StateCompleted:
		return OutcomeCompleted, nil
	case StateTrapped:
		return OutcomeTrapped, h.err
	case StateIdle:
		return OutcomeTrapped, &errors.EngineInvariantError{
			Invariant: "host",
			Message:   "step with no invocation in progress",
		}
	}

	f := h.stack.Top()

	if h.state == StateSuspended {
		// Resume: the pending instruction executes without re-checking
		// breakpoints, so a hit counts once per arrival.
		h.state = StateRunning
		f.Status = FrameRunning
	} else if f.pc < len(f.fn.Code) {
		if bp := h.mgr.CheckBreakpoints(f); bp != nil {
			f.Status = FrameSuspended
			h.state = StateSuspended
			h.lastBreak = bp
			h.logger.Debug("suspended at breakpoint",
				slog.Int("breakpoint", bp.ID),
				slog.Int("frame_id", f.ID),
				slog.Int("pc", f.pc))
			return OutcomePaused, nil
		}
	}

	// Falling off the end of the body is an implicit void return.
	if f.pc >= len(f.fn.Code) {
		return h.finishFrame(f, ledger.Void())
	}

	if h.steps >= h.cfg.MaxInstructions {
		return h.trap(&errors.ResourceError{
			Kind:  errors.ResourceInstructions,
			Limit: h.cfg.MaxInstructions,
		})
	}
	h.steps++

	return h.exec(f, f.fn.Code[f.pc])
}

// Continue repeatedly steps until a breakpoint, completion, trap, or
// context cancellation. Cancellation aborts mid-step with no further
// guest work; the driver discards the overlay.
func (h *Host) Continue(ctx context.Context) (Outcome, error) {
	for {
		if err := ctx.Err(); err != nil {
			return OutcomeTrapped, err
		}
		outcome, err := h.Step()
		if outcome != OutcomeRunning {
			return outcome, err
		}
	}
}

// Invoke runs contract/fn to completion, auto-resuming through any
// breakpoint suspensions. It returns the guest's return value, or the
// trap/resource error that aborted the invocation.
func (h *Host) Invoke(ctx context.Context, contractID, fnName string, args []ledger.Value, ledgerTime uint64) (ledger.Value, error) {
	if err := h.Begin(contractID, fnName, args, ledgerTime); err != nil {
		return ledger.Void(), err
	}
	for {
		outcome, err := h.Continue(ctx)
		switch outcome {
		case OutcomeCompleted:
			return h.result, nil
		case OutcomeTrapped:
			return ledger.Void(), err
		case OutcomePaused:
			// Non-interactive callers run through breakpoints.
		}
	}
}

// exec dispatches one instruction.
func (h *Host) exec(f *Frame, in Instr) (Outcome, error) {
	switch in.Op {
	case OpPush:
		f.ops = append(f.ops, in.Value.Clone())

	case OpPop:
		if _, err := h.pop(f); err != nil {
			return h.trap(err)
		}

	case OpDup:
		if len(f.ops) == 0 {
			return h.trap(h.stackTrap(f, "dup on empty stack"))
		}
		f.ops = append(f.ops, f.ops[len(f.ops)-1].Clone())

	case OpArg:
		if in.Index >= len(f.Args) {
			return h.trap(h.stackTrap(f, fmt.Sprintf("argument index %d out of range", in.Index)))
		}
		f.ops = append(f.ops, f.Args[in.Index].Clone())

	case OpLocalGet:
		var v ledger.Value
		if in.Index < len(f.locals) {
			v = f.locals[in.Index].Clone()
		} else {
			v = ledger.Void()
		}
		f.ops = append(f.ops, v)

	case OpLocalSet:
		v, err := h.pop(f)
		if err != nil {
			return h.trap(err)
		}
		for len(f.locals) <= in.Index {
			f.locals = append(f.locals, ledger.Void())
		}
		f.locals[in.Index] = v

	case OpAdd, OpSub, OpMul, OpDiv:
		if err := h.arith(f, in.Op); err != nil {
			return h.trap(err)
		}

	case OpEq, OpNe:
		b, err := h.pop(f)
		if err != nil {
			return h.trap(err)
		}
		a, err := h.pop(f)
		if err != nil {
			return h.trap(err)
		}
		eq := a.Equal(b)
		if in.Op == OpNe {
			eq = !eq
		}
		f.ops = append(f.ops, ledger.BoolVal(eq))

	case OpLt, OpGt, OpLe, OpGe:
		if err := h.compare(f, in.Op); err != nil {
			return h.trap(err)
		}

	case OpNot:
		v, err := h.popBool(f)
		if err != nil {
			return h.trap(err)
		}
		f.ops = append(f.ops, ledger.BoolVal(!v))

	case OpJump:
		if in.Target < 0 || in.Target >= len(f.fn.Code) {
			return h.trap(h.frameTrap(f, errors.TrapBadJump, fmt.Sprintf("jump target %d out of range", in.Target)))
		}
		f.pc = in.Target
		return OutcomeRunning, nil

	case OpJumpIf:
		cond, err := h.popBool(f)
		if err != nil {
			return h.trap(err)
		}
		if cond {
			if in.Target < 0 || in.Target >= len(f.fn.Code) {
				return h.trap(h.frameTrap(f, errors.TrapBadJump, fmt.Sprintf("jump target %d out of range", in.Target)))
			}
			f.pc = in.Target
			return OutcomeRunning, nil
		}

	case OpReturn:
		result := ledger.Void()
		if len(f.ops) > 0 {
			result = f.ops[len(f.ops)-1]
		}
		return h.finishFrame(f, result)

	case OpUnreachable:
		return h.trap(h.frameTrap(f, errors.TrapUnreachable, "unreachable executed"))

	case OpStorageGet:
		v, ok := h.overlay.Read(in.Tier, f.ContractID, in.Key)
		if !ok {
			v = ledger.Void()
		}
		f.ops = append(f.ops, v)

	case OpStorageHas:
		_, ok := h.overlay.Read(in.Tier, f.ContractID, in.Key)
		f.ops = append(f.ops, ledger.BoolVal(ok))

	case OpStoragePut:
		v, err := h.pop(f)
		if err != nil {
			return h.trap(err)
		}
		h.overlay.Write(in.Tier, f.ContractID, in.Key, v)

	case OpStorageDel:
		h.overlay.Delete(in.Tier, f.ContractID, in.Key)

	case OpEmit:
		data, err := h.pop(f)
		if err != nil {
			return h.trap(err)
		}
		rec := h.events.Append(f.ContractID, in.Topic, data, f.ID)
		h.logger.Debug("event emitted",
			slog.String("contract_id", f.ContractID),
			slog.String("topic", in.Topic),
			slog.Uint64("seq", rec.Sequence))

	case OpCall:
		return h.call(f, in)

	case OpTime:
		f.ops = append(f.ops, ledger.Value{Kind: ledger.KindInt, Int: new(big.Int).SetUint64(h.ledgerTime)})

	default:
		return h.trap(&errors.EngineInvariantError{
			Invariant: "dispatch",
			Message:   fmt.Sprintf("unvalidated op %q reached the step loop", in.Op),
		})
	}

	f.pc++
	return OutcomeRunning, nil
}

// call pushes a child frame for a cross-contract invocation. The caller
// resumes at the next instruction once the callee returns; the callee's
// return value lands on the caller's operand stack.
func (h *Host) call(f *Frame, in Instr) (Outcome, error) {
	args := make([]ledger.Value, in.NArgs)
	for i := in.NArgs - 1; i >= 0; i-- {
		v, err := h.pop(f)
		if err != nil {
			return h.trap(err)
		}
		args[i] = v
	}

	fn, ok := h.module.Function(in.Contract, in.Fn)
	if !ok {
		return h.trap(h.frameTrap(f, errors.TrapUnknownFunction,
			fmt.Sprintf("call target %s.%s not found", in.Contract, in.Fn)))
	}
	if err := fn.CheckArgs(args); err != nil {
		var trapErr *errors.TrapError
		if stderrors.As(err, &trapErr) {
			trapErr.ContractID = f.ContractID
			trapErr.FrameID = f.ID
		}
		return h.trap(err)
	}

	f.pc++
	child, err := h.stack.Push(in.Contract, fn, args)
	if err != nil {
		return h.trap(err)
	}
	h.mgr.SetCurrentFrame(child.ID)
	h.logger.Debug("cross-contract call",
		slog.Int("frame_id", child.ID),
		slog.String("contract_id", in.Contract),
		slog.String("fn", in.Fn),
		slog.Int("depth", child.Depth))
	return OutcomeRunning, nil
}

// finishFrame pops the completed frame and resumes the caller, or
// completes the invocation when the root frame returns.
func (h *Host) finishFrame(f *Frame, result ledger.Value) (Outcome, error) {
	if _, err := h.stack.Pop(f.ID, FrameCompleted); err != nil {
		h.state = StateTrapped
		h.err = err
		return OutcomeTrapped, err
	}
	parent := h.stack.Top()
	if parent == nil {
		h.result = result
		h.state = StateCompleted
		h.logger.Debug("invocation completed",
			slog.String("fn", f.Fn),
			slog.Int("steps", h.steps))
		return OutcomeCompleted, nil
	}
	parent.ops = append(parent.ops, result)
	parent.Status = FrameRunning
	h.mgr.SetCurrentFrame(parent.ID)
	return OutcomeRunning, nil
}

// trap aborts the invocation: every live frame is marked trapped and
// unwound, and the host transitions to the trapped state. The driver is
// responsible for discarding the overlay.
func (h *Host) trap(cause error) (Outcome, error) {
	for h.stack.Depth() > 0 {
		top := h.stack.Top()
		if _, err := h.stack.Pop(top.ID, FrameTrapped); err != nil {
			cause = err
			break
		}
	}
	h.state = StateTrapped
	h.err = cause
	h.logger.Warn("invocation trapped", slog.String("error", cause.Error()))
	return OutcomeTrapped, cause
}

func (h *Host) frameTrap(f *Frame, code errors.TrapCode, reason string) error {
	return &errors.TrapError{
		Code:       code,
		Reason:     reason,
		ContractID: f.ContractID,
		FrameID:    f.ID,
	}
}

func (h *Host) stackTrap(f *Frame, reason string) error {
	return h.frameTrap(f, errors.TrapStack, reason)
}

// pop removes and returns the frame's top operand.
func (h *Host) pop(f *Frame) (ledger.Value, error) {
	if len(f.ops) == 0 {
		return ledger.Void(), h.stackTrap(f, "operand stack underflow")
	}
	v := f.ops[len(f.ops)-1]
	f.ops = f.ops[:len(f.ops)-1]
	return v, nil
}

func (h *Host) popBool(f *Frame) (bool, error) {
	v, err := h.pop(f)
	if err != nil {
		return false, err
	}
	if v.Kind != ledger.KindBool {
		return false, h.frameTrap(f, errors.TrapTypeMismatch,
			fmt.Sprintf("expected bool, got %s", v.Kind))
	}
	return v.Bool, nil
}

func (h *Host) popInt(f *Frame) (*big.Int, error) {
	v, err := h.pop(f)
	if err != nil {
		return nil, err
	}
	if v.Kind != ledger.KindInt {
		return nil, h.frameTrap(f, errors.TrapTypeMismatch,
			fmt.Sprintf("expected i128, got %s", v.Kind))
	}
	return v.Int, nil
}

// arith executes an i128 binary operation. Overflow beyond the i128
// range and division by zero trap.
func (h *Host) arith(f *Frame, op Op) error {
	b, err := h.popInt(f)
	if err != nil {
		return err
	}
	a, err := h.popInt(f)
	if err != nil {
		return err
	}

	out := new(big.Int)
	switch op {
	case OpAdd:
		out.Add(a, b)
	case OpSub:
		out.Sub(a, b)
	case OpMul:
		out.Mul(a, b)
	case OpDiv:
		if b.Sign() == 0 {
			return h.frameTrap(f, errors.TrapArithmetic, "division by zero")
		}
		out.Quo(a, b)
	}
	if !ledger.FitsI128(out) {
		return h.frameTrap(f, errors.TrapArithmetic,
			fmt.Sprintf("%s overflows i128", op))
	}
	f.ops = append(f.ops, ledger.Value{Kind: ledger.KindInt, Int: out})
	return nil
}

// compare executes an ordered i128 comparison.
func (h *Host) compare(f *Frame, op Op) error {
	b, err := h.popInt(f)
	if err != nil {
		return err
	}
	a, err := h.popInt(f)
	if err != nil {
		return err
	}
	c := a.Cmp(b)
	var result bool
	switch op {
	case OpLt:
		result = c < 0
	case OpGt:
		result = c > 0
	case OpLe:
		result = c <= 0
	case OpGe:
		result = c >= 0
	}
	f.ops = append(f.ops, ledger.BoolVal(result))
	return nil
}

// State returns the host's current execution state.
func (h *Host) State() State { return h.state }

// Result returns the completed invocation's return value.
func (h *Host) Result() ledger.Value { return h.result }

// Err returns the error that trapped the invocation, if any.
func (h *Host) Err() error { return h.err }

// Steps returns the number of instructions consumed by the current
// invocation.
func (h *Host) Steps() int { return h.steps }

// LedgerTime returns the invocation's logical ledger time.
func (h *Host) LedgerTime() uint64 { return h.ledgerTime }

// Backtrace returns the live frames root-first.
func (h *Host) Backtrace() []FrameInfo {
	if h.stack == nil {
		return nil
	}
	return h.stack.Snapshot()
}

// CurrentFrame returns a copy of the active frame, or nil when no
// invocation is live.
func (h *Host) CurrentFrame() *FrameInfo {
	if h.stack == nil {
		return nil
	}
	f := h.stack.Top()
	if f == nil {
		return nil
	}
	info := FrameInfo{ID: f.ID, ContractID: f.ContractID, Fn: f.Fn, Depth: f.Depth, Status: f.Status, PC: f.pc}
	return &info
}

// LastBreakpoint returns the breakpoint that caused the most recent
// suspension.
func (h *Host) LastBreakpoint() *Breakpoint { return h.lastBreak }
