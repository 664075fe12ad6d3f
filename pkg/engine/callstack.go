package engine

import (
	"fmt"

	"github.com/Tijesunimi004/soroban-debugger/pkg/errors"
	"github.com/Tijesunimi004/soroban-debugger/pkg/ledger"
)

// FrameStatus is the externally observable state of one invocation frame.
type FrameStatus string

const (
	// FrameRunning indicates the frame is executing (or is the caller of
	// an executing frame).
	FrameRunning FrameStatus = "running"
	// FrameSuspended indicates the frame is paused at a breakpoint. A
	// suspended frame remains on the stack.
	FrameSuspended FrameStatus = "suspended"
	// FrameCompleted indicates the frame returned normally.
	FrameCompleted FrameStatus = "completed"
	// FrameTrapped indicates the frame aborted with a guest fault.
	FrameTrapped FrameStatus = "trapped"
)

// Frame is one activation record in the cross-contract call stack.
// Execution state (pc, operand stack, locals) lives on the frame so the
// step loop is an explicit state machine rather than host-level recursion.
type Frame struct {
	ID         int
	ContractID string
	Fn         string
	Args       []ledger.Value
	Parent     int // frame id of the caller, -1 for the root
	Depth      int // 1-based; root frame has depth 1
	Status     FrameStatus

	fn     *Function
	pc     int
	ops    []ledger.Value
	locals []ledger.Value
}

// PC returns the frame's current instruction offset.
func (f *Frame) PC() int { return f.pc }

// FrameInfo is a read-only copy of a frame for backtraces.
type FrameInfo struct {
	ID         int
	ContractID string
	Fn         string
	Depth      int
	Status     FrameStatus
	PC         int
}

// CallStack tracks nested invocation frames across cross-contract calls.
// Depth strictly increases on push and decreases on pop; the bound is
// enforced at push time.
type CallStack struct {
	maxDepth int
	nextID   int
	frames   []*Frame
}

// NewCallStack creates a call stack with the given depth bound.
func NewCallStack(maxDepth int) *CallStack {
	return &CallStack{maxDepth: maxDepth}
}

// Push creates a new frame for contract/fn and makes it the active frame.
// Exceeding the depth bound fails with a ResourceError.
func (cs *CallStack) Push(contractID string, fn *Function, args []ledger.Value) (*Frame, error) {
	if len(cs.frames) >= cs.maxDepth {
		return nil, &errors.ResourceError{Kind: errors.ResourceCallDepth, Limit: cs.maxDepth}
	}
	parent := -1
	if top := cs.Top(); top != nil {
		parent = top.ID
	}
	cs.nextID++
	f := &Frame{
		ID:         cs.nextID,
		ContractID: contractID,
		Fn:         fn.Name,
		Args:       args,
		Parent:     parent,
		Depth:      len(cs.frames) + 1,
		Status:     FrameRunning,
		fn:         fn,
	}
	cs.frames = append(cs.frames, f)
	return f, nil
}

// Pop removes the frame with the given id, which must be the top of the
// stack. Popping a non-top frame is an engine defect, not a guest fault,
// and fails with an EngineInvariantError.
func (cs *CallStack) Pop(frameID int, status FrameStatus) (*Frame, error) {
	top := cs.Top()
	if top == nil {
		return nil, &errors.EngineInvariantError{
			Invariant: "callstack",
			Message:   fmt.Sprintf("pop of frame %d on empty stack", frameID),
		}
	}
	if top.ID != frameID {
		return nil, &errors.EngineInvariantError{
			Invariant: "callstack",
			Message:   fmt.Sprintf("pop of frame %d but frame %d is on top", frameID, top.ID),
		}
	}
	top.Status = status
	cs.frames = cs.frames[:len(cs.frames)-1]
	return top, nil
}

// Top returns the active frame, or nil when the stack is empty.
func (cs *CallStack) Top() *Frame {
	if len(cs.frames) == 0 {
		return nil
	}
	return cs.frames[len(cs.frames)-1]
}

// Depth returns the number of frames on the stack.
func (cs *CallStack) Depth() int {
	return len(cs.frames)
}

// Snapshot returns the frames root-first, as the debugger's backtrace.
func (cs *CallStack) Snapshot() []FrameInfo {
	out := make([]FrameInfo, len(cs.frames))
	for i, f := range cs.frames {
		out[i] = FrameInfo{
			ID:         f.ID,
			ContractID: f.ContractID,
			Fn:         f.Fn,
			Depth:      f.Depth,
			Status:     f.Status,
			PC:         f.pc,
		}
	}
	return out
}
