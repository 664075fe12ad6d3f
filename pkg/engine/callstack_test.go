package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tijesunimi004/soroban-debugger/pkg/errors"
	"github.com/Tijesunimi004/soroban-debugger/pkg/ledger"
)

func stubFn(name string) *Function {
	return &Function{Name: name, Code: []Instr{{Op: OpReturn}}}
}

func TestCallStackPushPop(t *testing.T) {
	cs := NewCallStack(4)

	root, err := cs.Push("C1", stubFn("transfer"), []ledger.Value{ledger.Int64Val(1)})
	require.NoError(t, err)
	assert.Equal(t, 1, root.ID)
	assert.Equal(t, 1, root.Depth)
	assert.Equal(t, -1, root.Parent)

	child, err := cs.Push("C2", stubFn("reserve"), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, child.Depth)
	assert.Equal(t, root.ID, child.Parent)
	assert.Equal(t, child, cs.Top())

	popped, err := cs.Pop(child.ID, FrameCompleted)
	require.NoError(t, err)
	assert.Equal(t, FrameCompleted, popped.Status)
	assert.Equal(t, root, cs.Top())
	assert.Equal(t, 1, cs.Depth())
}

func TestCallStackDepthBound(t *testing.T) {
	cs := NewCallStack(2)
	_, err := cs.Push("C1", stubFn("a"), nil)
	require.NoError(t, err)
	_, err = cs.Push("C1", stubFn("b"), nil)
	require.NoError(t, err)

	_, err = cs.Push("C1", stubFn("c"), nil)
	require.Error(t, err)

	var res *errors.ResourceError
	require.ErrorAs(t, err, &res)
	assert.Equal(t, errors.ResourceCallDepth, res.Kind)
	assert.Equal(t, 2, res.Limit)
	assert.Equal(t, 2, cs.Depth(), "failed push leaves the stack untouched")
}

func TestPopNonTopFrameIsInvariantViolation(t *testing.T) {
	cs := NewCallStack(4)
	root, err := cs.Push("C1", stubFn("a"), nil)
	require.NoError(t, err)
	_, err = cs.Push("C1", stubFn("b"), nil)
	require.NoError(t, err)

	_, err = cs.Pop(root.ID, FrameCompleted)
	require.Error(t, err)
	assert.True(t, errors.IsEngineInvariant(err))
}

func TestPopEmptyStack(t *testing.T) {
	cs := NewCallStack(4)
	_, err := cs.Pop(1, FrameCompleted)
	require.Error(t, err)
	assert.True(t, errors.IsEngineInvariant(err))
}

func TestFrameIDsNeverReused(t *testing.T) {
	cs := NewCallStack(4)
	a, _ := cs.Push("C1", stubFn("a"), nil)
	_, err := cs.Pop(a.ID, FrameCompleted)
	require.NoError(t, err)

	b, _ := cs.Push("C1", stubFn("b"), nil)
	assert.Greater(t, b.ID, a.ID)
}

func TestSnapshotRootFirst(t *testing.T) {
	cs := NewCallStack(4)
	cs.Push("C1", stubFn("outer"), nil)
	cs.Push("C2", stubFn("inner"), nil)

	frames := cs.Snapshot()
	require.Len(t, frames, 2)
	assert.Equal(t, "outer", frames[0].Fn)
	assert.Equal(t, 1, frames[0].Depth)
	assert.Equal(t, "inner", frames[1].Fn)
	assert.Equal(t, 2, frames[1].Depth)
}
