package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tijesunimi004/soroban-debugger/pkg/errors"
	"github.com/Tijesunimi004/soroban-debugger/pkg/ledger"
)

func TestBreakpointSuspendsAtFunctionEntry(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	bp, notice, err := h.mgr.AddBreakpoint(Location{Kind: LocFunctionEntry, Fn: "answer"}, "")
	require.NoError(t, err)
	require.Nil(t, notice)

	require.NoError(t, h.host.Begin("C1", "answer", nil, 0))

	outcome, err := h.host.Step()
	require.NoError(t, err)
	assert.Equal(t, OutcomePaused, outcome)
	assert.Equal(t, StateSuspended, h.host.State())
	assert.Equal(t, bp.ID, h.host.LastBreakpoint().ID)
	assert.Equal(t, 0, h.host.CurrentFrame().PC, "suspension does not consume the instruction")
	assert.Equal(t, 1, bp.HitCount)

	// Resuming does not re-hit the same arrival.
	outcome, err = h.host.Step()
	require.NoError(t, err)
	assert.Equal(t, OutcomeRunning, outcome)
	assert.Equal(t, 1, bp.HitCount)

	outcome, err = h.host.Continue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeCompleted, outcome)
	assert.Equal(t, 1, bp.HitCount)
}

func TestBreakpointAtInstructionOffset(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	_, notice, err := h.mgr.AddBreakpoint(Location{
		Kind: LocInstructionOffset, ContractID: "C1", Fn: "add", Offset: 2,
	}, "")
	require.NoError(t, err)
	require.Nil(t, notice)

	require.NoError(t, h.host.Begin("C1", "add",
		[]ledger.Value{ledger.Int64Val(1), ledger.Int64Val(2)}, 0))

	outcome, err := h.host.Continue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomePaused, outcome)
	assert.Equal(t, 2, h.host.CurrentFrame().PC)
}

func TestUnresolvableOffsetFallsBackToEntry(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	bp, notice, err := h.mgr.AddBreakpoint(Location{
		Kind: LocInstructionOffset, ContractID: "C1", Fn: "answer", Offset: 99,
	}, "")
	require.NoError(t, err)
	require.NotNil(t, notice, "out-of-range offset produces a warning")
	assert.Equal(t, LocFunctionEntry, bp.Location.Kind)

	require.NoError(t, h.host.Begin("C1", "answer", nil, 0))
	outcome, err := h.host.Step()
	require.NoError(t, err)
	assert.Equal(t, OutcomePaused, outcome)
}

func TestUnknownFunctionBreakpointWarnsButRegisters(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	bp, notice, err := h.mgr.AddBreakpoint(Location{Kind: LocFunctionEntry, Fn: "phantom"}, "")
	require.NoError(t, err)
	require.NotNil(t, notice)
	assert.NotZero(t, bp.ID)
}

func TestConditionalBreakpoint(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	bp, _, err := h.mgr.AddBreakpoint(
		Location{Kind: LocFunctionEntry, Fn: "add"}, "arg(0) > 100")
	require.NoError(t, err)

	// Condition false: runs straight through.
	ret, err := h.invoke(t, "C1", "add", ledger.Int64Val(5), ledger.Int64Val(5))
	require.NoError(t, err)
	assert.True(t, ret.Equal(ledger.Int64Val(10)))
	assert.Equal(t, 0, bp.HitCount)

	// Condition true: suspends.
	require.NoError(t, h.host.Begin("C1", "add",
		[]ledger.Value{ledger.Int64Val(500), ledger.Int64Val(1)}, 0))
	outcome, err := h.host.Step()
	require.NoError(t, err)
	assert.Equal(t, OutcomePaused, outcome)
	assert.Equal(t, 1, bp.HitCount)
}

func TestConditionOnStorage(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	_, _, err := h.mgr.AddBreakpoint(
		Location{Kind: LocFunctionEntry, Fn: "answer"}, `storage("balance") >= 1000`)
	require.NoError(t, err)

	require.NoError(t, h.host.Begin("C1", "answer", nil, 0))
	outcome, err := h.host.Step()
	require.NoError(t, err)
	assert.Equal(t, OutcomePaused, outcome)
}

func TestInvalidConditionRejectedAtRegistration(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	_, _, err := h.mgr.AddBreakpoint(
		Location{Kind: LocFunctionEntry, Fn: "add"}, "arg(0) >")
	require.Error(t, err)
	assert.True(t, errors.IsInput(err))
}

func TestDisabledBreakpointDoesNotFire(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	bp, _, err := h.mgr.AddBreakpoint(Location{Kind: LocFunctionEntry, Fn: "answer"}, "")
	require.NoError(t, err)
	require.NoError(t, h.mgr.Disable(bp.ID))

	_, err = h.invoke(t, "C1", "answer")
	require.NoError(t, err)
	assert.Equal(t, 0, bp.HitCount)

	require.NoError(t, h.mgr.Enable(bp.ID))
	require.NoError(t, h.host.Begin("C1", "answer", nil, 0))
	outcome, err := h.host.Step()
	require.NoError(t, err)
	assert.Equal(t, OutcomePaused, outcome)
}

func TestOverlappingBreakpointsFireInIDOrder(t *testing.T) {
	// Two enabled breakpoints covering the same location: the lowest id
	// fires and takes the hit, every run. Repeated identical sessions
	// guard against ordering drift in the matcher.
	for i := 0; i < 25; i++ {
		h := newHarness(t, DefaultConfig())
		first, _, err := h.mgr.AddBreakpoint(Location{Kind: LocFunctionEntry, Fn: "answer"}, "")
		require.NoError(t, err)
		second, _, err := h.mgr.AddBreakpoint(Location{Kind: LocFunctionEntry, ContractID: "C1", Fn: "answer"}, "")
		require.NoError(t, err)

		require.NoError(t, h.host.Begin("C1", "answer", nil, 0))
		outcome, err := h.host.Step()
		require.NoError(t, err)
		require.Equal(t, OutcomePaused, outcome)

		assert.Equal(t, first.ID, h.host.LastBreakpoint().ID)
		assert.Equal(t, 1, first.HitCount)
		assert.Equal(t, 0, second.HitCount, "only the firing breakpoint counts the hit")
	}
}

func TestOverlappingBreakpointNextFiresWhenLowerDisabled(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	first, _, err := h.mgr.AddBreakpoint(Location{Kind: LocFunctionEntry, Fn: "answer"}, "")
	require.NoError(t, err)
	second, _, err := h.mgr.AddBreakpoint(Location{Kind: LocFunctionEntry, ContractID: "C1", Fn: "answer"}, "")
	require.NoError(t, err)
	require.NoError(t, h.mgr.Disable(first.ID))

	require.NoError(t, h.host.Begin("C1", "answer", nil, 0))
	outcome, err := h.host.Step()
	require.NoError(t, err)
	require.Equal(t, OutcomePaused, outcome)

	assert.Equal(t, second.ID, h.host.LastBreakpoint().ID)
	assert.Equal(t, 0, first.HitCount)
	assert.Equal(t, 1, second.HitCount)
}

func TestUnknownIDIsNoOp(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	bp, _, err := h.mgr.AddBreakpoint(Location{Kind: LocFunctionEntry, Fn: "answer"}, "")
	require.NoError(t, err)

	err = h.mgr.Disable(999)
	require.Error(t, err)
	assert.True(t, errors.IsUnknownID(err))
	assert.True(t, bp.Enabled, "registered breakpoint untouched by the miss")

	err = h.mgr.Remove(999)
	require.Error(t, err)
	assert.True(t, errors.IsUnknownID(err))
	assert.Len(t, h.mgr.Breakpoints(), 1)
}

func TestUnknownIDKindAttribution(t *testing.T) {
	// With a single namespace populated the miss names it; with both
	// registered the intended target is ambiguous and reported as such.
	h := newHarness(t, DefaultConfig())
	_, _, err := h.mgr.AddBreakpoint(Location{Kind: LocFunctionEntry, Fn: "answer"}, "")
	require.NoError(t, err)

	var miss *errors.UnknownIDError
	require.ErrorAs(t, h.mgr.Disable(999), &miss)
	assert.Equal(t, errors.IDBreakpoint, miss.Kind)

	_, err = h.mgr.AddWatch(ledger.TierPersistent, "C1", "balance")
	require.NoError(t, err)
	require.ErrorAs(t, h.mgr.Disable(999), &miss)
	assert.Equal(t, errors.IDAny, miss.Kind)

	watchOnly := newHarness(t, DefaultConfig())
	_, err = watchOnly.mgr.AddWatch(ledger.TierPersistent, "C1", "balance")
	require.NoError(t, err)
	require.ErrorAs(t, watchOnly.mgr.Disable(999), &miss)
	assert.Equal(t, errors.IDWatch, miss.Kind)
}

func TestRemoveBreakpoint(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	bp, _, err := h.mgr.AddBreakpoint(Location{Kind: LocFunctionEntry, Fn: "answer"}, "")
	require.NoError(t, err)

	require.NoError(t, h.mgr.Remove(bp.ID))
	assert.Empty(t, h.mgr.Breakpoints())

	_, err = h.invoke(t, "C1", "answer")
	require.NoError(t, err)
}

func TestBreakpointsOrderedByID(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	for _, fn := range []string{"answer", "add", "div"} {
		_, _, err := h.mgr.AddBreakpoint(Location{Kind: LocFunctionEntry, Fn: fn}, "")
		require.NoError(t, err)
	}
	bps := h.mgr.Breakpoints()
	require.Len(t, bps, 3)
	assert.Equal(t, "answer", bps[0].Location.Fn)
	assert.Equal(t, "add", bps[1].Location.Fn)
	assert.Equal(t, "div", bps[2].Location.Fn)
}

func TestLocationString(t *testing.T) {
	assert.Equal(t, "transfer", Location{Kind: LocFunctionEntry, Fn: "transfer"}.String())
	assert.Equal(t, "C1.transfer", Location{Kind: LocFunctionEntry, ContractID: "C1", Fn: "transfer"}.String())
	assert.Equal(t, "C1.transfer+4", Location{Kind: LocInstructionOffset, ContractID: "C1", Fn: "transfer", Offset: 4}.String())
}
